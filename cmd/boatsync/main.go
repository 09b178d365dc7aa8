package main

import (
	"os"

	"github.com/OCAP2/boatsync/cmd/boatsync/commands"
)

// Version information, set during build via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Errors are printed by the printer package
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
