//go:build !windows

package registry

// Outside Windows there is no uninstall registry; the install record alone drives uninstall.
func register(*Entry) error {
	return nil
}

func unregister(string, bool) error {
	return nil
}
