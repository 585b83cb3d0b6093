package params

import (
	"github.com/mohae/deepcopy"
)

// NetworkConfig defines the networking parameters used to reach consensus
// data providers for the configured chain.
type NetworkConfig struct {
	CheckpointSyncURLs           []string // CheckpointSyncURLs are public weak subjectivity endpoints used to fetch and cross-check checkpoints.
	MaxRequestLightClientUpdates uint64   // MaxRequestLightClientUpdates caps how many committee updates one range request may ask for.
}

var networkConfig = mainnetNetworkConfig

var mainnetNetworkConfig = &NetworkConfig{
	CheckpointSyncURLs: []string{
		"https://beaconstate.ethstaker.cc",
		"https://sync-mainnet.beaconcha.in",
		"https://mainnet-checkpoint-sync.attestant.io",
		"https://beaconstate.info",
	},
	MaxRequestLightClientUpdates: 128,
}

// BeaconNetworkConfig returns the current network config.
func BeaconNetworkConfig() *NetworkConfig {
	return networkConfig
}

// OverrideBeaconNetworkConfig will override the network
// config with the added argument.
func OverrideBeaconNetworkConfig(cfg *NetworkConfig) {
	networkConfig = cfg.Copy()
}

// Copy returns a copy of the config object.
func (c *NetworkConfig) Copy() *NetworkConfig {
	config, ok := deepcopy.Copy(*c).(NetworkConfig)
	if !ok {
		config = *networkConfig
	}
	return &config
}
