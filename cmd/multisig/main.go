// Package main is the entry point for the multisig CLI.
package main

import (
	"os"

	"github.com/mrz1836/multisig/internal/cli"
	"github.com/mrz1836/multisig/internal/version"
)

// Set by -ldflags at build time.
//
//nolint:gochecknoglobals // build metadata injected by the linker
var (
	buildVersion = "dev"
	buildCommit  = ""
	buildDate    = ""
)

func main() {
	cli.SetBuildInfo(version.BuildInfo{Version: buildVersion, Commit: buildCommit, Date: buildDate})
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
