package setup

import (
	"context"
	"os/exec"
)

// Command is a program to start after installation.
type Command struct {
	// Path is the executable.
	Path string
	// Args are the parsed parameters.
	Args []string
	// Dir is the working directory.
	Dir string
	// Wait blocks until the program exits.
	Wait bool
}

// Launcher starts post-install programs.
type Launcher interface {
	Launch(ctx context.Context, cmd *Command) error
}

// ExecLauncher starts programs with os/exec.
type ExecLauncher struct{}

// Launch implements Launcher.
func (ExecLauncher) Launch(ctx context.Context, c *Command) error {
	if c.Wait {
		cmd := exec.CommandContext(ctx, c.Path, c.Args...)
		cmd.Dir = c.Dir

		return cmd.Run()
	}

	// Not bound to ctx: the program keeps running after the installer exits.
	cmd := exec.Command(c.Path, c.Args...) //nolint:gosec,noctx // Paths come from the manifest.
	cmd.Dir = c.Dir

	if err := cmd.Start(); err != nil {
		return err
	}

	return cmd.Process.Release()
}
