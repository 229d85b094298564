// Package main is the evasion command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/viam-labs/evasion/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
