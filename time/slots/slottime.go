// Package slots implements conversions between slots, epochs, sync committee
// periods and wall clock time for the configured chain.
package slots

import (
	"fmt"
	"math"
	"time"

	"github.com/prysmaticlabs/lumen/config/params"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	prysmTime "github.com/prysmaticlabs/lumen/time"
)

// ToTime takes the given slot and genesis time to determine the start time of the slot.
func ToTime(genesisTimeSec uint64, slot primitives.Slot) (time.Time, error) {
	if uint64(slot) > (math.MaxUint64-genesisTimeSec)/params.BeaconConfig().SecondsPerSlot {
		return time.Unix(0, 0), fmt.Errorf("slot (%d) is in the far distant future", slot)
	}
	sTime := uint64(slot)*params.BeaconConfig().SecondsPerSlot + genesisTimeSec
	return time.Unix(int64(sTime), 0), nil
}

// DivideSlotBy divides the SECONDS_PER_SLOT configuration
// parameter by a specified number. It returns a value of time.Duration
// in milliseconds, useful for dividing values such as 1 second into
// millisecond-based durations.
func DivideSlotBy(timesPerSlot int64) time.Duration {
	return time.Duration(int64(params.BeaconConfig().SecondsPerSlot*1000)/timesPerSlot) * time.Millisecond
}

// MultiplySlotBy multiplies the SECONDS_PER_SLOT configuration
// parameter by a specified number. It returns a value of time.Duration
// in second-based durations.
func MultiplySlotBy(times int64) time.Duration {
	return time.Duration(int64(params.BeaconConfig().SecondsPerSlot)*times) * time.Second
}

// ToEpoch returns the epoch number of the input slot.
func ToEpoch(slot primitives.Slot) primitives.Epoch {
	return primitives.Epoch(slot.Div(uint64(params.BeaconConfig().SlotsPerEpoch)))
}

// EpochStart returns the first slot number of the given epoch.
func EpochStart(epoch primitives.Epoch) (primitives.Slot, error) {
	slotsPerEpoch := uint64(params.BeaconConfig().SlotsPerEpoch)
	if uint64(epoch) > math.MaxUint64/slotsPerEpoch {
		return 0, fmt.Errorf("start slot calculation overflows for epoch %d", epoch)
	}
	return primitives.Slot(uint64(epoch) * slotsPerEpoch), nil
}

// CurrentSlot returns the current slot as determined by the local clock and
// the provided genesis time.
func CurrentSlot(genesisTimeSec uint64) primitives.Slot {
	now := uint64(prysmTime.Now().Unix())
	if now < genesisTimeSec {
		return 0
	}
	return primitives.Slot((now - genesisTimeSec) / params.BeaconConfig().SecondsPerSlot)
}

// SyncCommitteePeriod returns the sync committee period of the input epoch.
func SyncCommitteePeriod(e primitives.Epoch) uint64 {
	return uint64(e.Div(uint64(params.BeaconConfig().EpochsPerSyncCommitteePeriod)))
}

// ToSyncCommitteePeriod returns the sync committee period of the input slot.
func ToSyncCommitteePeriod(slot primitives.Slot) uint64 {
	return SyncCommitteePeriod(ToEpoch(slot))
}
