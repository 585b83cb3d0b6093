// Package main defines the entry point for lumen, a light client for the
// Ethereum network. Lumen follows the beacon chain through sync committee
// attestations and serves a JSON-RPC API whose responses are verified
// against the consensus, so the node does not need to trust its data
// providers.
package main

import (
	"fmt"
	"os"

	joonix "github.com/joonix/log"
	"github.com/prysmaticlabs/lumen/cmd"
	dbcommands "github.com/prysmaticlabs/lumen/cmd/lumen/db"
	"github.com/prysmaticlabs/lumen/cmd/lumen/flags"
	"github.com/prysmaticlabs/lumen/cmd/lumen/jwt"
	"github.com/prysmaticlabs/lumen/io/logs"
	"github.com/prysmaticlabs/lumen/node"
	"github.com/prysmaticlabs/lumen/runtime/debug"
	_ "github.com/prysmaticlabs/lumen/runtime/maxprocs"
	"github.com/prysmaticlabs/lumen/runtime/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
	journald "github.com/wercker/journalhook"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var log = logrus.WithField("prefix", "main")

func startNode(cliCtx *cli.Context) error {
	verbosity := cliCtx.String(cmd.VerbosityFlag.Name)
	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	lightClient, err := node.New(cliCtx)
	if err != nil {
		return err
	}
	lightClient.Start()
	return nil
}

var appFlags = []cli.Flag{
	flags.BeaconApiEndpoint,
	flags.ExecutionEndpoint,
	flags.ExecutionJWTSecretFlag,
	flags.CheckpointFlag,
	flags.CheckpointSyncUrls,
	flags.AcceptUntrustedCheckpoint,
	flags.ForceCheckpoint,
	flags.UnsafeHead,
	flags.RPCHost,
	flags.RPCPort,
	flags.RPCCorsDomain,
	flags.MonitoringPortFlag,
	flags.SepoliaTestnet,
	flags.GoerliTestnet,
	cmd.VerbosityFlag,
	cmd.DataDirFlag,
	cmd.EnableTracingFlag,
	cmd.TracingProcessNameFlag,
	cmd.TracingEndpointFlag,
	cmd.TraceSampleFractionFlag,
	cmd.MonitoringHostFlag,
	cmd.DisableMonitoringFlag,
	cmd.ClearDB,
	cmd.ForceClearDB,
	cmd.LogFormat,
	cmd.LogFileName,
	cmd.ConfigFileFlag,
	cmd.ChainConfigFileFlag,
	cmd.MaxGoroutines,
	cmd.EnableBackupWebhookFlag,
	cmd.BackupWebhookOutputDir,
	cmd.ApiTimeoutFlag,
}

func init() {
	appFlags = cmd.WrapFlags(append(appFlags, debug.Flags...))
}

func main() {
	app := cli.App{}
	app.Name = "lumen"
	app.Usage = "a trustless light client for the Ethereum network"
	app.Version = version.GetVersion()
	app.Flags = appFlags
	app.Action = startNode
	app.Commands = []*cli.Command{
		dbcommands.Commands,
		jwt.Commands,
	}
	app.Before = func(ctx *cli.Context) error {
		// Load any flags from file, if specified.
		if ctx.IsSet(cmd.ConfigFileFlag.Name) {
			if err := altsrc.InitInputSourceWithContext(
				appFlags,
				altsrc.NewYamlSourceFromFlagFunc(
					cmd.ConfigFileFlag.Name))(ctx); err != nil {
				return err
			}
		}

		format := ctx.String(cmd.LogFormat.Name)
		switch format {
		case "text":
			formatter := new(prefixed.TextFormatter)
			formatter.TimestampFormat = "2006-01-02 15:04:05"
			formatter.FullTimestamp = true
			// If persistent log files are written - we disable the log messages coloring because
			// the colors are ANSI codes and seen as Gibberish in the log files.
			formatter.DisableColors = ctx.String(cmd.LogFileName.Name) != ""
			logrus.SetFormatter(formatter)
		case "fluentd":
			logrus.SetFormatter(joonix.NewFormatter())
		case "json":
			logrus.SetFormatter(&logrus.JSONFormatter{})
		case "journald":
			journald.Enable()
		default:
			return fmt.Errorf("unknown log format %s", format)
		}

		logFileName := ctx.String(cmd.LogFileName.Name)
		if logFileName != "" {
			if err := logs.ConfigurePersistentLogging(logFileName); err != nil {
				log.WithError(err).Error("Failed to configuring logging to disk.")
			}
		}

		return debug.Setup(ctx)
	}

	app.After = func(ctx *cli.Context) error {
		debug.Exit(ctx)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
