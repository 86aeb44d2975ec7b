package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// set via ldflags during build
	version = "dev"
	commit  = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "vaultgate",
		Usage:   "deposit, withdraw and query a vault contract through a wallet",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the config file",
				Value:   defaultConfigPath,
				EnvVars: []string{"VAULTGATE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			authorizeCommand(),
			depositCommand(),
			withdrawCommand(),
			balanceCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
