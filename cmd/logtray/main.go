// Package main is the entry point for logtray, both the tray controller and
// its --worker mode.
package main

import (
	"os"

	"github.com/watchfire-io/logtray/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
