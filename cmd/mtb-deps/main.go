// Package main is the entry point for the mtb-deps CLI application.
package main

import (
	"github.com/mtb04313/mtb-scripts/cmd/mtb-deps/cmd"
)

// Version information - will be set by build flags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Date = date
	cmd.Execute()
}
