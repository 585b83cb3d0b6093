package params

import (
	"math"

	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
)

// Mainnet fork epochs.
const (
	// Genesis Fork Epoch for the mainnet config.
	genesisForkEpoch = 0
	// Altair Fork Epoch for mainnet config.
	mainnetAltairForkEpoch = 74240 // Oct 27, 2021, 10:56:23am UTC
	// Bellatrix Fork Epoch for mainnet config.
	mainnetBellatrixForkEpoch = 144896 // Sept 6, 2022, 11:34:47am UTC
	// Capella Fork Epoch for mainnet config.
	mainnetCapellaForkEpoch = 194048 // April 12, 2023, 10:27:35pm UTC
	// Deneb Fork Epoch for mainnet config.
	mainnetDenebForkEpoch = 269568 // March 13, 2024, 01:55:35pm UTC
)

// mainnetGenesisValidatorsRoot is the hash tree root of the mainnet genesis
// validator registry, 0x4b363db94e286120d76eb905340fdd4e54bfe9f06bf33ff6cf5ad27f511bfe95.
var mainnetGenesisValidatorsRoot = [32]byte{
	0x4b, 0x36, 0x3d, 0xb9, 0x4e, 0x28, 0x61, 0x20, 0xd7, 0x6e, 0xb9, 0x05, 0x34, 0x0f, 0xdd, 0x4e,
	0x54, 0xbf, 0xe9, 0xf0, 0x6b, 0xf3, 0x3f, 0xf6, 0xcf, 0x5a, 0xd2, 0x7f, 0x51, 0x1b, 0xfe, 0x95,
}

// MainnetConfig returns the configuration to be used in the main network.
func MainnetConfig() *BeaconChainConfig {
	if mainnetBeaconConfig.ForkVersionSchedule == nil {
		mainnetBeaconConfig.InitializeForkSchedule()
	}
	return mainnetBeaconConfig
}

// UseMainnetConfig for beacon chain services.
func UseMainnetConfig() {
	beaconConfig = MainnetConfig()
}

// mainnetBeaconConfig contains the constants for the mainnet beacon chain.
var mainnetBeaconConfig = &BeaconChainConfig{
	// Constants (Non-configurable)
	GenesisSlot:    0,
	GenesisEpoch:   0,
	FarFutureEpoch: math.MaxUint64,
	FarFutureSlot:  math.MaxUint64,

	// Misc constant.
	PresetBase:                   "mainnet",
	ConfigName:                   ConfigNames[Mainnet],
	SyncCommitteeSize:            512,
	MinSyncCommitteeParticipants: 1,
	MinGenesisTime:               1606824000,
	GenesisDelay:                 604800, // 1 week.

	// Time parameter constants.
	SecondsPerSlot:               12,
	SlotsPerEpoch:                32,
	EpochsPerSyncCommitteePeriod: 256,

	// Signature domains.
	DomainSyncCommittee: bytesutil.ToBytes4(bytesutil.Bytes4(7)),

	// Fork related values.
	GenesisForkVersion:   []byte{0, 0, 0, 0},
	AltairForkVersion:    []byte{1, 0, 0, 0},
	AltairForkEpoch:      mainnetAltairForkEpoch,
	BellatrixForkVersion: []byte{2, 0, 0, 0},
	BellatrixForkEpoch:   mainnetBellatrixForkEpoch,
	CapellaForkVersion:   []byte{3, 0, 0, 0},
	CapellaForkEpoch:     mainnetCapellaForkEpoch,
	DenebForkVersion:     []byte{4, 0, 0, 0},
	DenebForkEpoch:       mainnetDenebForkEpoch,

	// Genesis anchors.
	GenesisTime:           1606824023, // Dec 1, 2020, 12pm UTC.
	GenesisValidatorsRoot: mainnetGenesisValidatorsRoot,

	// Light client values.
	MaxCheckpointAge: 1209600, // 2 weeks.

	// Ethereum execution chain information.
	DepositChainID:   1, // Chain ID of eth1 mainnet.
	DepositNetworkID: 1, // Network ID of eth1 mainnet.
}
