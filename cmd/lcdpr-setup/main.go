// Command lcdpr-setup installs the payload appended to it, or uninstalls when run as unins000.
package main

import "github.com/frutacc/lcdpr-setup/cmd/lcdpr-setup/cmd"

func main() {
	cmd.Execute()
}
