package main

import (
	"os"

	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
