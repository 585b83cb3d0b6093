// Package params defines important constants that are essential to light
// client services.
package params

import (
	"bytes"

	"github.com/mohae/deepcopy"
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	types "github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/runtime/version"
)

// BeaconChainConfig contains constant configs for a node to verify the beacon chain.
type BeaconChainConfig struct {
	// Constants (non-configurable)
	GenesisSlot    types.Slot  `yaml:"GENESIS_SLOT"`     // GenesisSlot represents the first canonical slot number of the beacon chain.
	GenesisEpoch   types.Epoch `yaml:"GENESIS_EPOCH"`    // GenesisEpoch represents the first canonical epoch number of the beacon chain.
	FarFutureEpoch types.Epoch `yaml:"FAR_FUTURE_EPOCH"` // FarFutureEpoch represents an epoch extremely far away in the future.
	FarFutureSlot  types.Slot  `yaml:"FAR_FUTURE_SLOT"`  // FarFutureSlot represents a slot extremely far away in the future.
	ZeroHash       [32]byte    // ZeroHash is used to represent a zeroed out 32 byte array.
	EmptySignature [96]byte    // EmptySignature is used to represent a zeroed out BLS Signature.

	// Misc constants.
	PresetBase                   string `yaml:"PRESET_BASE" spec:"true"`                     // PresetBase describes the underlying network preset name used to configure this configuration.
	ConfigName                   string `yaml:"CONFIG_NAME" spec:"true"`                     // ConfigName for allowing an easy human-readable way of knowing what chain is being used.
	SyncCommitteeSize            uint64 `yaml:"SYNC_COMMITTEE_SIZE" spec:"true"`             // SyncCommitteeSize for light client sync committees.
	MinSyncCommitteeParticipants uint64 `yaml:"MIN_SYNC_COMMITTEE_PARTICIPANTS" spec:"true"` // MinSyncCommitteeParticipants defines the minimum number of sync committee participants for which a signature is acknowledged at all.
	MinGenesisTime               uint64 `yaml:"MIN_GENESIS_TIME" spec:"true"`                // MinGenesisTime is the time that needed to pass before kicking off beacon chain.
	GenesisDelay                 uint64 `yaml:"GENESIS_DELAY" spec:"true"`                   // GenesisDelay is the minimum number of seconds to delay starting the Ethereum beacon chain genesis.

	// Time parameters constants.
	SecondsPerSlot               uint64      `yaml:"SECONDS_PER_SLOT" spec:"true"`                 // SecondsPerSlot is how many seconds are in a single slot.
	SlotsPerEpoch                types.Slot  `yaml:"SLOTS_PER_EPOCH" spec:"true"`                  // SlotsPerEpoch is the number of slots in an epoch.
	EpochsPerSyncCommitteePeriod types.Epoch `yaml:"EPOCHS_PER_SYNC_COMMITTEE_PERIOD" spec:"true"` // EpochsPerSyncCommitteePeriod defines how many epochs are in a sync committee period.

	// Signature domains.
	DomainSyncCommittee [4]byte `yaml:"DOMAIN_SYNC_COMMITTEE" spec:"true"` // DomainSyncCommittee defines the BLS signature domain for sync committee signatures.

	// Fork-related values.
	GenesisForkVersion   []byte      `yaml:"GENESIS_FORK_VERSION" spec:"true"`   // GenesisForkVersion is used to track fork version between state transitions.
	AltairForkVersion    []byte      `yaml:"ALTAIR_FORK_VERSION" spec:"true"`    // AltairForkVersion is used to represent the fork version for altair.
	AltairForkEpoch      types.Epoch `yaml:"ALTAIR_FORK_EPOCH" spec:"true"`      // AltairForkEpoch is used to represent the assigned fork epoch for altair.
	BellatrixForkVersion []byte      `yaml:"BELLATRIX_FORK_VERSION" spec:"true"` // BellatrixForkVersion is used to represent the fork version for bellatrix.
	BellatrixForkEpoch   types.Epoch `yaml:"BELLATRIX_FORK_EPOCH" spec:"true"`   // BellatrixForkEpoch is used to represent the assigned fork epoch for bellatrix.
	CapellaForkVersion   []byte      `yaml:"CAPELLA_FORK_VERSION" spec:"true"`   // CapellaForkVersion is used to represent the fork version for capella.
	CapellaForkEpoch     types.Epoch `yaml:"CAPELLA_FORK_EPOCH" spec:"true"`     // CapellaForkEpoch is used to represent the assigned fork epoch for capella.
	DenebForkVersion     []byte      `yaml:"DENEB_FORK_VERSION" spec:"true"`     // DenebForkVersion is used to represent the fork version for deneb.
	DenebForkEpoch       types.Epoch `yaml:"DENEB_FORK_EPOCH" spec:"true"`       // DenebForkEpoch is used to represent the assigned fork epoch for deneb.

	ForkVersionSchedule map[[fieldparams.VersionLength]byte]types.Epoch // Schedule of fork epochs by version.
	ForkVersionNames    map[[fieldparams.VersionLength]byte]string      // Human-readable names of fork versions.

	// Genesis anchors. These values pin signature domains and slot arithmetic
	// to one specific chain and are not part of the standard config format.
	GenesisTime           uint64   // GenesisTime is the unix timestamp of slot zero for the configured chain.
	GenesisValidatorsRoot [32]byte // GenesisValidatorsRoot anchors signature domains to the configured chain.

	// Light client values.
	MaxCheckpointAge uint64 // MaxCheckpointAge is the oldest age in seconds a configured checkpoint may have before it is rejected as outside the weak subjectivity window.

	// Deposit contract chain information, reused here to identify the
	// execution network the light client serves data for.
	DepositChainID   uint64 `yaml:"DEPOSIT_CHAIN_ID" spec:"true"`   // DepositChainID of the eth1 network. This is used for replay protection.
	DepositNetworkID uint64 `yaml:"DEPOSIT_NETWORK_ID" spec:"true"` // DepositNetworkID of the eth1 network. This is used for replay protection.
}

// UpdateTimeout returns the number of slots after which a stored best valid
// update is considered expired and may be force applied. It spans exactly one
// sync committee period.
func (b *BeaconChainConfig) UpdateTimeout() types.Slot {
	return b.SlotsPerEpoch.Mul(uint64(b.EpochsPerSyncCommitteePeriod))
}

// VersionForEpoch returns the fork version active at the given epoch according
// to the initialized fork schedule. Ties on the activation epoch are broken
// towards the lexicographically larger version so devnets activating several
// forks at genesis resolve to the newest one.
func (b *BeaconChainConfig) VersionForEpoch(epoch types.Epoch) [fieldparams.VersionLength]byte {
	var version [fieldparams.VersionLength]byte
	var versionEpoch types.Epoch
	found := false
	for v, e := range b.ForkVersionSchedule {
		if e > epoch {
			continue
		}
		if !found || e > versionEpoch || (e == versionEpoch && bytes.Compare(v[:], version[:]) > 0) {
			version = v
			versionEpoch = e
			found = true
		}
	}
	if !found {
		return bytesutil.ToBytes4(b.GenesisForkVersion)
	}
	return version
}

// Copy returns a copy of the config object.
func (b *BeaconChainConfig) Copy() *BeaconChainConfig {
	config, ok := deepcopy.Copy(*b).(BeaconChainConfig)
	if !ok {
		config = *beaconConfig
	}
	return &config
}

// InitializeForkSchedule initializes the schedules forks baked into the config.
func (b *BeaconChainConfig) InitializeForkSchedule() {
	// Reset Fork Version Schedule.
	b.ForkVersionSchedule = configForkSchedule(b)
	b.ForkVersionNames = configForkNames(b)
}

func configForkSchedule(b *BeaconChainConfig) map[[fieldparams.VersionLength]byte]types.Epoch {
	fvs := map[[fieldparams.VersionLength]byte]types.Epoch{}
	fvs[bytesutil.ToBytes4(b.GenesisForkVersion)] = b.GenesisEpoch
	fvs[bytesutil.ToBytes4(b.AltairForkVersion)] = b.AltairForkEpoch
	fvs[bytesutil.ToBytes4(b.BellatrixForkVersion)] = b.BellatrixForkEpoch
	fvs[bytesutil.ToBytes4(b.CapellaForkVersion)] = b.CapellaForkEpoch
	fvs[bytesutil.ToBytes4(b.DenebForkVersion)] = b.DenebForkEpoch
	return fvs
}

func configForkNames(b *BeaconChainConfig) map[[fieldparams.VersionLength]byte]string {
	fvn := map[[fieldparams.VersionLength]byte]string{}
	fvn[bytesutil.ToBytes4(b.GenesisForkVersion)] = version.String(version.Phase0)
	fvn[bytesutil.ToBytes4(b.AltairForkVersion)] = version.String(version.Altair)
	fvn[bytesutil.ToBytes4(b.BellatrixForkVersion)] = version.String(version.Bellatrix)
	fvn[bytesutil.ToBytes4(b.CapellaForkVersion)] = version.String(version.Capella)
	fvn[bytesutil.ToBytes4(b.DenebForkVersion)] = version.String(version.Deneb)
	return fvn
}
