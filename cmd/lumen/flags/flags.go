// Package flags defines command line flags specific to the light client node.
package flags

import (
	"github.com/urfave/cli/v2"
)

var (
	// BeaconApiEndpoint defines the beacon node REST API endpoint the node
	// syncs light client data from.
	BeaconApiEndpoint = &cli.StringFlag{
		Name:  "beacon-api-endpoint",
		Usage: "URL of a beacon node REST API serving the light client endpoints",
		Value: "http://localhost:3500",
	}
	// ExecutionEndpoint defines an execution layer JSON-RPC endpoint proofs
	// and payloads are fetched from. Responses are verified locally, so the
	// endpoint does not need to be trusted.
	ExecutionEndpoint = &cli.StringFlag{
		Name:  "execution-endpoint",
		Usage: "URL of an execution layer JSON-RPC endpoint. Responses are verified against the consensus, so the endpoint is untrusted",
	}
	// ExecutionJWTSecretFlag provides a path to a file containing a hex
	// encoded string representing a 32 byte secret used for authenticating
	// requests made to the execution endpoint.
	ExecutionJWTSecretFlag = &cli.StringFlag{
		Name:  "execution-jwt",
		Usage: "REQUIRED if connecting to an execution node via HTTP on its authenticated port. Provides a path to a file containing a hex encoded string representing a 32 byte secret used for authenticating requests",
	}
	// CheckpointFlag defines the weak subjectivity checkpoint the store
	// bootstraps from when no usable persisted state exists.
	CheckpointFlag = &cli.StringFlag{
		Name:  "checkpoint",
		Usage: "Weak subjectivity checkpoint in block_root:epoch format, e.g. 0x12345...67890:200, or a bare 0x-prefixed block root",
	}
	// CheckpointSyncUrls overrides the endpoints a checkpoint is downloaded
	// from when no checkpoint is configured and none is persisted.
	CheckpointSyncUrls = &cli.StringSliceFlag{
		Name:  "checkpoint-sync-url",
		Usage: "URL of a synced beacon node to download a finalized checkpoint from, may be provided multiple times",
	}
	// AcceptUntrustedCheckpoint skips the interactive confirmation for
	// checkpoints downloaded from fallback endpoints and for checkpoints
	// older than the weak subjectivity window.
	AcceptUntrustedCheckpoint = &cli.BoolFlag{
		Name:  "accept-untrusted-checkpoint",
		Usage: "Accept downloaded or stale checkpoints without interactive confirmation. The checkpoint origin then determines the chain the node follows",
	}
	// ForceCheckpoint bootstraps from the configured checkpoint even when
	// persisted state from a previous run could be restored.
	ForceCheckpoint = &cli.BoolFlag{
		Name:  "force-checkpoint",
		Usage: "Bootstrap from the configured checkpoint even when persisted state exists",
	}
	// UnsafeHead serves the latest optimistic head to RPC consumers. When
	// disabled the latest block tag resolves to the finalized head instead.
	UnsafeHead = &cli.BoolFlag{
		Name:  "unsafe-head",
		Usage: "Resolve the latest block tag to the most recent optimistic header. When disabled, latest resolves to the finalized header",
		Value: true,
	}
	// RPCHost defines the host on which the JSON-RPC server runs.
	RPCHost = &cli.StringFlag{
		Name:  "rpc-host",
		Usage: "Host on which the verifying JSON-RPC server listens",
		Value: "127.0.0.1",
	}
	// RPCPort defines the port the JSON-RPC server listens on.
	RPCPort = &cli.IntFlag{
		Name:  "rpc-port",
		Usage: "Port on which the verifying JSON-RPC server listens",
		Value: 8545,
	}
	// RPCCorsDomain serves cross origin requests from the listed domains.
	RPCCorsDomain = &cli.StringFlag{
		Name:  "rpc-cors-domain",
		Usage: "Comma separated list of domains from which to accept cross origin requests (browser enforced)",
		Value: "*",
	}
	// MonitoringPortFlag defines the port used by the monitoring service.
	MonitoringPortFlag = &cli.IntFlag{
		Name:  "monitoring-port",
		Usage: "Port used to listening and respond metrics for prometheus.",
		Value: 8080,
	}
	// SepoliaTestnet flag for the multiclient Ethereum consensus testnet.
	SepoliaTestnet = &cli.BoolFlag{
		Name:  "sepolia",
		Usage: "Run lumen configured for the Sepolia test network",
	}
	// GoerliTestnet flag for the multiclient Ethereum consensus testnet.
	GoerliTestnet = &cli.BoolFlag{
		Name:  "goerli",
		Usage: "Run lumen configured for the Goerli test network",
	}
)
