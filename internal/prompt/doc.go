// Package prompt asks the user questions on the terminal.
package prompt
