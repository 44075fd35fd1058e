// Package main is the entry point for the sunshift CLI and tray.
package main

import (
	"os"

	"github.com/shelepuginivan/sunshift/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
