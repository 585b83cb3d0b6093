// Package node is the main process which handles the lifecycle of the runtime
// services in a light client process, gracefully shutting everything down upon
// close.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/api/client"
	"github.com/prysmaticlabs/lumen/api/client/beacon"
	"github.com/prysmaticlabs/lumen/cmd"
	"github.com/prysmaticlabs/lumen/cmd/lumen/flags"
	"github.com/prysmaticlabs/lumen/config/params"
	"github.com/prysmaticlabs/lumen/db"
	"github.com/prysmaticlabs/lumen/db/kv"
	"github.com/prysmaticlabs/lumen/execution"
	"github.com/prysmaticlabs/lumen/io/logs"
	"github.com/prysmaticlabs/lumen/lightclient"
	"github.com/prysmaticlabs/lumen/monitoring/backup"
	"github.com/prysmaticlabs/lumen/monitoring/prometheus"
	"github.com/prysmaticlabs/lumen/rpc"
	"github.com/prysmaticlabs/lumen/runtime"
	"github.com/prysmaticlabs/lumen/runtime/debug"
	"github.com/prysmaticlabs/lumen/runtime/prereqs"
	"github.com/prysmaticlabs/lumen/runtime/version"
	lightclientsync "github.com/prysmaticlabs/lumen/sync"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "node")

// LightClientNode defines a struct that handles the services running a
// trustless Ethereum light client. Use its constructor to create an instance.
type LightClientNode struct {
	cliCtx   *cli.Context
	ctx      context.Context
	cancel   context.CancelFunc
	services *runtime.ServiceRegistry
	lock     sync.RWMutex
	stop     chan struct{} // Channel to wait for termination notifications.
	db       db.Database
}

// New creates a new node instance, sets up configuration options, and
// registers every required service to the node.
func New(cliCtx *cli.Context) (*LightClientNode, error) {
	if err := configureTracing(cliCtx); err != nil {
		return nil, err
	}
	prereqs.WarnIfPlatformNotSupported(cliCtx.Context)
	configureChainConfig(cliCtx)
	configureNetwork(cliCtx)
	cmd.ConfigureLightClient(cliCtx)

	cfg, err := newConfigFromCLI(cliCtx)
	if err != nil {
		return nil, err
	}

	registry := runtime.NewServiceRegistry()
	ctx, cancel := context.WithCancel(cliCtx.Context)
	node := &LightClientNode{
		cliCtx:   cliCtx,
		ctx:      ctx,
		cancel:   cancel,
		services: registry,
		stop:     make(chan struct{}),
	}
	debug.Memsize.Add("node", node)

	if err := node.startDB(cliCtx, cfg); err != nil {
		return nil, err
	}

	checkpoint, err := node.resolveCheckpoint(cliCtx)
	if err != nil {
		return nil, err
	}

	if err := node.registerServices(cliCtx, cfg, checkpoint); err != nil {
		return nil, err
	}

	if !cliCtx.Bool(cmd.DisableMonitoringFlag.Name) {
		if err := node.registerPrometheusService(cliCtx, cfg); err != nil {
			return nil, err
		}
	}

	return node, nil
}

// Start the LightClientNode and kicks off every registered service.
func (n *LightClientNode) Start() {
	n.lock.Lock()

	log.WithFields(logrus.Fields{
		"version": version.GetVersion(),
	}).Info("Starting light client node")

	n.services.StartAll()

	stop := n.stop
	n.lock.Unlock()

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		debug.Exit(n.cliCtx) // Ensure trace and CPU profile data are flushed.
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic.")
			}
		}
		panic("Panic closing the light client node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (n *LightClientNode) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	log.Info("Stopping light client node")
	n.services.StopAll()
	if err := n.db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}
	n.cancel()
	close(n.stop)
}

func (n *LightClientNode) startDB(cliCtx *cli.Context, cfg *config) error {
	dbPath := filepath.Join(cfg.DataDir, kv.LightClientDbDirName)
	clearDB := cliCtx.Bool(cmd.ClearDB.Name)
	forceClearDB := cliCtx.Bool(cmd.ForceClearDB.Name)

	log.WithField("databasePath", dbPath).Info("Checking DB")

	d, err := db.NewDB(n.ctx, dbPath)
	if err != nil {
		return err
	}
	clearDBConfirmed := false
	if clearDB && !forceClearDB {
		actionText := "This will delete your light client database stored in your data directory. " +
			"Your database backups will not be removed - do you want to proceed?"
		deniedText := "Database will not be deleted. No changes have been made."
		clearDBConfirmed, err = cmd.ConfirmAction(actionText, deniedText)
		if err != nil {
			return err
		}
	}
	if clearDBConfirmed || forceClearDB {
		log.Warning("Removing database")
		if err := d.Close(); err != nil {
			return errors.Wrap(err, "could not close db prior to clearing")
		}
		if err := d.ClearDB(); err != nil {
			return errors.Wrap(err, "could not clear database")
		}
		d, err = db.NewDB(n.ctx, dbPath)
		if err != nil {
			return errors.Wrap(err, "could not create new database")
		}
	}
	n.db = d
	return nil
}

func (n *LightClientNode) registerServices(cliCtx *cli.Context, cfg *config, checkpoint *beacon.Checkpoint) error {
	log.WithFields(logrus.Fields{
		"beaconApi": logs.MaskCredentialsLogging(cfg.BeaconApiEndpoint),
		"execution": logs.MaskCredentialsLogging(cfg.ExecutionEndpoint),
	}).Info("Connecting to upstream endpoints")

	headers := execution.NewHeaders(cfg.UnsafeHead, execution.DefaultHeaderWindow)

	jwtSecret, err := parseJWTSecretFromFile(cfg.ExecutionJWTPath)
	if err != nil {
		return errors.Wrap(err, "could not read execution JWT secret")
	}
	providerOpts := []execution.ProviderOption{
		execution.WithRequestTimeout(cfg.ApiTimeout),
	}
	if len(jwtSecret) > 0 {
		providerOpts = append(providerOpts, execution.WithJWTSecret(jwtSecret))
	}
	provider, err := execution.NewRpcProvider(n.ctx, cfg.ExecutionEndpoint, providerOpts...)
	if err != nil {
		return errors.Wrap(err, "could not connect to execution endpoint")
	}
	executionClient, err := execution.NewClient(n.ctx, provider, headers, params.BeaconConfig().DepositChainID)
	if err != nil {
		return errors.Wrap(err, "could not create execution client")
	}

	beaconClient, err := beacon.NewClient(cfg.BeaconApiEndpoint, client.WithTimeout(cfg.ApiTimeout))
	if err != nil {
		return errors.Wrap(err, "could not connect to beacon API endpoint")
	}

	syncService, err := lightclientsync.NewService(n.ctx, &lightclientsync.Config{
		Store:           lightclient.NewStore(),
		Provider:        beaconClient,
		Checkpoint:      checkpoint,
		ForceCheckpoint: cliCtx.Bool(flags.ForceCheckpoint.Name),
		Database:        n.db,
		Headers:         headers,
		MaxRoutines:     cmd.Get().MaxGoroutines,
	})
	if err != nil {
		return errors.Wrap(err, "could not create sync service")
	}
	if err := n.services.RegisterService(syncService); err != nil {
		return err
	}

	rpcService, err := rpc.NewService(n.ctx,
		rpc.WithHTTPAddr(fmt.Sprintf("%s:%d", cfg.RPCHost, cfg.RPCPort)),
		rpc.WithAllowedOrigins(cfg.RPCAllowedOrigins),
		rpc.WithExecutionClient(executionClient),
		rpc.WithClientVersion(version.GetVersion()),
	)
	if err != nil {
		return errors.Wrap(err, "could not create JSON-RPC service")
	}
	return n.services.RegisterService(rpcService)
}

func (n *LightClientNode) registerPrometheusService(cliCtx *cli.Context, cfg *config) error {
	var additionalHandlers []prometheus.Handler
	if cliCtx.IsSet(cmd.EnableBackupWebhookFlag.Name) {
		additionalHandlers = append(
			additionalHandlers,
			prometheus.Handler{
				Path:    "/db/backup",
				Handler: backup.Handler(n.db, cliCtx.String(cmd.BackupWebhookOutputDir.Name)),
			},
		)
	}

	service := prometheus.NewService(
		fmt.Sprintf("%s:%d", cfg.MonitoringHost, cfg.MonitoringPort),
		n.services,
		additionalHandlers...,
	)
	logrus.AddHook(prometheus.NewLogrusCollector())
	return n.services.RegisterService(service)
}
