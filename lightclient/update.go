package lightclient

import (
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/time/slots"
)

// IsBetterUpdate reports whether newUpdate improves on oldUpdate as the
// retained candidate for a forced store advance. Updates are ranked by
// supermajority participation first, then by whether they advertise the
// committee of their own signature period, then by finality, then by sync
// committee finality, then by raw participation. Ties fall to the older
// attested data so the retained update changes as little as possible.
func IsBetterUpdate(newUpdate, oldUpdate *lctypes.Update) bool {
	maxActiveParticipants := newUpdate.SyncAggregate().SyncCommitteeBits.Len()
	newNumActiveParticipants := newUpdate.SyncAggregate().SyncCommitteeBits.Count()
	oldNumActiveParticipants := oldUpdate.SyncAggregate().SyncCommitteeBits.Count()
	newHasSupermajority := newNumActiveParticipants*3 >= maxActiveParticipants*2
	oldHasSupermajority := oldNumActiveParticipants*3 >= maxActiveParticipants*2
	if newHasSupermajority != oldHasSupermajority {
		return newHasSupermajority
	}
	if !newHasSupermajority && newNumActiveParticipants != oldNumActiveParticipants {
		return newNumActiveParticipants > oldNumActiveParticipants
	}

	// Prefer updates that advertise the next committee of the period they
	// were signed in.
	newHasRelevantSyncCommittee := newUpdate.HasNextSyncCommittee() &&
		slots.ToSyncCommitteePeriod(newUpdate.AttestedHeader().Beacon().Slot) == slots.ToSyncCommitteePeriod(newUpdate.SignatureSlot())
	oldHasRelevantSyncCommittee := oldUpdate.HasNextSyncCommittee() &&
		slots.ToSyncCommitteePeriod(oldUpdate.AttestedHeader().Beacon().Slot) == slots.ToSyncCommitteePeriod(oldUpdate.SignatureSlot())
	if newHasRelevantSyncCommittee != oldHasRelevantSyncCommittee {
		return newHasRelevantSyncCommittee
	}

	// Prefer updates that prove finality at all.
	newHasFinality := newUpdate.HasFinality()
	oldHasFinality := oldUpdate.HasFinality()
	if newHasFinality != oldHasFinality {
		return newHasFinality
	}

	// Prefer updates whose finalized header already sits in the attested
	// header's period, proving the committee handoff is final.
	if newHasFinality {
		newHasCommitteeFinality := slots.ToSyncCommitteePeriod(newUpdate.FinalizedHeader().Beacon().Slot) ==
			slots.ToSyncCommitteePeriod(newUpdate.AttestedHeader().Beacon().Slot)
		oldHasCommitteeFinality := slots.ToSyncCommitteePeriod(oldUpdate.FinalizedHeader().Beacon().Slot) ==
			slots.ToSyncCommitteePeriod(oldUpdate.AttestedHeader().Beacon().Slot)
		if newHasCommitteeFinality != oldHasCommitteeFinality {
			return newHasCommitteeFinality
		}
	}

	if newNumActiveParticipants != oldNumActiveParticipants {
		return newNumActiveParticipants > oldNumActiveParticipants
	}

	if newUpdate.AttestedHeader().Beacon().Slot != oldUpdate.AttestedHeader().Beacon().Slot {
		return newUpdate.AttestedHeader().Beacon().Slot < oldUpdate.AttestedHeader().Beacon().Slot
	}
	return newUpdate.SignatureSlot() < oldUpdate.SignatureSlot()
}
