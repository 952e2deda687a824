// Command lcdpr-packager builds self-extracting installers from a setup manifest.
package main

import "github.com/frutacc/lcdpr-setup/cmd/lcdpr-packager/cmd"

func main() {
	cmd.Execute()
}
