package node

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/cmd"
	"github.com/prysmaticlabs/lumen/cmd/lumen/flags"
	"github.com/prysmaticlabs/lumen/config/params"
	"github.com/prysmaticlabs/lumen/io/file"
	"github.com/prysmaticlabs/lumen/monitoring/tracing"
	"github.com/urfave/cli/v2"
)

// config collects every cli derived setting the node wires into its
// services, validated up front so that a misconfigured node fails before any
// service is constructed.
type config struct {
	DataDir           string        `validate:"required"`
	BeaconApiEndpoint string        `validate:"required,url"`
	ExecutionEndpoint string        `validate:"required,url"`
	ExecutionJWTPath  string        `validate:"omitempty,file"`
	RPCHost           string        `validate:"required,ip|hostname"`
	RPCPort           int           `validate:"gt=0,lte=65535"`
	RPCAllowedOrigins []string      `validate:"min=1"`
	MonitoringHost    string        `validate:"required,ip|hostname"`
	MonitoringPort    int           `validate:"gt=0,lte=65535"`
	ApiTimeout        time.Duration `validate:"gte=0"`
	UnsafeHead        bool
}

func newConfigFromCLI(cliCtx *cli.Context) (*config, error) {
	cfg := &config{
		DataDir:           cliCtx.String(cmd.DataDirFlag.Name),
		BeaconApiEndpoint: cliCtx.String(flags.BeaconApiEndpoint.Name),
		ExecutionEndpoint: cliCtx.String(flags.ExecutionEndpoint.Name),
		ExecutionJWTPath:  cliCtx.String(flags.ExecutionJWTSecretFlag.Name),
		RPCHost:           cliCtx.String(flags.RPCHost.Name),
		RPCPort:           cliCtx.Int(flags.RPCPort.Name),
		RPCAllowedOrigins: strings.Split(cliCtx.String(flags.RPCCorsDomain.Name), ","),
		MonitoringHost:    cliCtx.String(cmd.MonitoringHostFlag.Name),
		MonitoringPort:    cliCtx.Int(flags.MonitoringPortFlag.Name),
		ApiTimeout:        cliCtx.Duration(cmd.ApiTimeoutFlag.Name),
		UnsafeHead:        cliCtx.Bool(flags.UnsafeHead.Name),
	}
	if cfg.ExecutionEndpoint == "" {
		return nil, fmt.Errorf("no execution endpoint configured, provide one with --%s", flags.ExecutionEndpoint.Name)
	}
	if cfg.DataDir != "" {
		expanded, err := file.ExpandPath(cfg.DataDir)
		if err != nil {
			return nil, errors.Wrapf(err, "could not expand data directory %s", cfg.DataDir)
		}
		cfg.DataDir = expanded
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid node configuration")
	}
	return cfg, nil
}

func configureTracing(cliCtx *cli.Context) error {
	return tracing.Setup(
		"light-client", // service name
		cliCtx.String(cmd.TracingProcessNameFlag.Name),
		cliCtx.String(cmd.TracingEndpointFlag.Name),
		cliCtx.Float64(cmd.TraceSampleFractionFlag.Name),
		cliCtx.Bool(cmd.EnableTracingFlag.Name),
	)
}

func configureChainConfig(cliCtx *cli.Context) {
	if cliCtx.IsSet(cmd.ChainConfigFileFlag.Name) {
		params.LoadChainConfigFile(cliCtx.String(cmd.ChainConfigFileFlag.Name))
	}
}

func configureNetwork(cliCtx *cli.Context) {
	switch {
	case cliCtx.Bool(flags.SepoliaTestnet.Name):
		params.UseSepoliaNetworkConfig()
		params.UseSepoliaConfig()
	case cliCtx.Bool(flags.GoerliTestnet.Name):
		params.UseGoerliNetworkConfig()
		params.UseGoerliConfig()
	default:
		// mainnet is the package default
	}
	if cliCtx.IsSet(flags.CheckpointSyncUrls.Name) {
		networkCfg := params.BeaconNetworkConfig()
		networkCfg.CheckpointSyncURLs = cliCtx.StringSlice(flags.CheckpointSyncUrls.Name)
		params.OverrideBeaconNetworkConfig(networkCfg)
	}
}

// parseJWTSecretFromFile reads the hex encoded 32 byte secret used to
// authenticate requests against the execution endpoint.
func parseJWTSecretFromFile(jwtSecretFile string) ([]byte, error) {
	if jwtSecretFile == "" {
		return nil, nil
	}
	enc, err := file.ReadFileAsBytes(jwtSecretFile)
	if err != nil {
		return nil, err
	}
	strData := strings.TrimSpace(string(enc))
	if len(strData) == 0 {
		return nil, fmt.Errorf("provided JWT secret in file %s cannot be empty", jwtSecretFile)
	}
	secret, err := hex.DecodeString(strings.TrimPrefix(strData, "0x"))
	if err != nil {
		return nil, err
	}
	if len(secret) < 32 {
		return nil, errors.New("provided JWT secret should be a hex string of at least 32 bytes")
	}
	return secret, nil
}
