package main

import (
	"os"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
