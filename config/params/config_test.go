package params_test

import (
	"testing"

	"github.com/prysmaticlabs/lumen/config/params"
	types "github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
)

func TestConfig_OverrideBeaconConfig(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	cfg := params.BeaconConfig().Copy()
	cfg.SlotsPerEpoch = 5
	params.OverrideBeaconConfig(cfg)
	if c := params.BeaconConfig(); c.SlotsPerEpoch != 5 {
		t.Errorf("Shardcount in BeaconConfig incorrect. Wanted %d, got %d", 5, c.SlotsPerEpoch)
	}
}

func TestConfig_Copy_IsolatesMutations(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	cfg := params.MainnetConfig()
	cp := cfg.Copy()
	cp.AltairForkVersion[0] = 0xff
	cp.EpochsPerSyncCommitteePeriod = 1
	assert.Equal(t, byte(1), cfg.AltairForkVersion[0])
	assert.Equal(t, types.Epoch(256), cfg.EpochsPerSyncCommitteePeriod)
}

func TestConfig_UpdateTimeout(t *testing.T) {
	cfg := params.MainnetConfig()
	assert.Equal(t, types.Slot(8192), cfg.UpdateTimeout())
}

func TestConfig_ForkSchedule(t *testing.T) {
	cfg := params.MainnetConfig()
	require.Equal(t, 5, len(cfg.ForkVersionSchedule))
	require.Equal(t, 5, len(cfg.ForkVersionNames))
	assert.Equal(t, "capella", cfg.ForkVersionNames[bytesutil.ToBytes4(cfg.CapellaForkVersion)])
	assert.Equal(t, cfg.DenebForkEpoch, cfg.ForkVersionSchedule[bytesutil.ToBytes4(cfg.DenebForkVersion)])
}

func TestConfig_VersionForEpoch(t *testing.T) {
	cfg := params.MainnetConfig()
	tests := []struct {
		name  string
		epoch types.Epoch
		want  [4]byte
	}{
		{name: "genesis", epoch: 0, want: bytesutil.ToBytes4(cfg.GenesisForkVersion)},
		{name: "before altair", epoch: cfg.AltairForkEpoch - 1, want: bytesutil.ToBytes4(cfg.GenesisForkVersion)},
		{name: "altair activation", epoch: cfg.AltairForkEpoch, want: bytesutil.ToBytes4(cfg.AltairForkVersion)},
		{name: "mid bellatrix", epoch: cfg.BellatrixForkEpoch + 100, want: bytesutil.ToBytes4(cfg.BellatrixForkVersion)},
		{name: "capella activation", epoch: cfg.CapellaForkEpoch, want: bytesutil.ToBytes4(cfg.CapellaForkVersion)},
		{name: "after deneb", epoch: cfg.DenebForkEpoch + 10000, want: bytesutil.ToBytes4(cfg.DenebForkVersion)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.VersionForEpoch(tt.epoch))
		})
	}
}

func TestConfig_DistinctNetworkAnchors(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	mainnet := params.MainnetConfig()
	sepolia := params.SepoliaConfig()
	goerli := params.GoerliConfig()

	assert.NotEqual(t, mainnet.GenesisValidatorsRoot, sepolia.GenesisValidatorsRoot)
	assert.NotEqual(t, mainnet.GenesisValidatorsRoot, goerli.GenesisValidatorsRoot)
	assert.NotEqual(t, sepolia.GenesisValidatorsRoot, goerli.GenesisValidatorsRoot)

	assert.Equal(t, uint64(1), mainnet.DepositChainID)
	assert.Equal(t, uint64(11155111), sepolia.DepositChainID)
	assert.Equal(t, uint64(5), goerli.DepositChainID)

	// Testnets keep the mainnet preset values.
	assert.Equal(t, mainnet.SyncCommitteeSize, sepolia.SyncCommitteeSize)
	assert.Equal(t, mainnet.EpochsPerSyncCommitteePeriod, goerli.EpochsPerSyncCommitteePeriod)
}

func TestConfig_UseNetworkConfigs(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseSepoliaNetworkConfig()
	require.Equal(t, 2, len(params.BeaconNetworkConfig().CheckpointSyncURLs))
	params.UseGoerliNetworkConfig()
	require.Equal(t, 4, len(params.BeaconNetworkConfig().CheckpointSyncURLs))
}
