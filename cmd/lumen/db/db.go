// Package db defines a command for interacting with the light client
// database without a running node.
package db

import (
	"github.com/prysmaticlabs/lumen/cmd"
	lightclientdb "github.com/prysmaticlabs/lumen/db"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Commands for interacting with the light client database.
var Commands = &cli.Command{
	Name:     "db",
	Category: "db",
	Usage:    "defines commands for interacting with the light client database",
	Subcommands: []*cli.Command{
		{
			Name:        "restore",
			Description: `restores a database from a backup file`,
			Flags: cmd.WrapFlags([]cli.Flag{
				cmd.RestoreSourceFileFlag,
				cmd.RestoreTargetDirFlag,
			}),
			Action: func(cliCtx *cli.Context) error {
				if err := lightclientdb.Restore(cliCtx); err != nil {
					logrus.Fatalf("Could not restore database: %v", err)
				}
				return nil
			},
		},
	},
}
