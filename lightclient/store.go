// Package lightclient implements the sync committee light client protocol:
// a store of trusted headers advanced exclusively by verified updates. The
// store is bootstrapped from a checkpoint root, then fed updates signed by
// the sync committees it tracks. An update that fails any verification step
// leaves the store byte for byte untouched, so the client always sits on its
// last trusted view of the chain.
package lightclient

import (
	"sync"

	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	"github.com/prysmaticlabs/lumen/config/params"
	consensustypes "github.com/prysmaticlabs/lumen/consensus-types"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/container/trie"
	"github.com/prysmaticlabs/lumen/time/slots"
	"github.com/sirupsen/logrus"
	"github.com/trailofbits/go-mutexasserts"
)

var log = logrus.WithField("prefix", "lightclient")

// Status describes how far the store has progressed since process start.
type Status int

const (
	// StatusUnsynced is the zero status of a store that holds no trusted
	// header yet.
	StatusUnsynced Status = iota
	// StatusBootstrapped is reached after checkpoint bootstrap data has been
	// verified and adopted.
	StatusBootstrapped
	// StatusOptimistic is emitted by every accepted update that advances the
	// optimistic head without proving new finality.
	StatusOptimistic
	// StatusFinalized is emitted by every accepted update that advances the
	// finalized head.
	StatusFinalized
)

// String returns the printable name of the status.
func (s Status) String() string {
	switch s {
	case StatusUnsynced:
		return "unsynced"
	case StatusBootstrapped:
		return "bootstrapped"
	case StatusOptimistic:
		return "optimistic"
	case StatusFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Head is a copy on read snapshot of the store's trusted chain tips,
// published to serving tasks so they never share mutable state with the
// sync loop.
type Head struct {
	Finalized  *lctypes.Header
	Optimistic *lctypes.Header
	Status     Status
}

// Store tracks the light client's verified view of the beacon chain: the
// finalized and optimistic headers, the sync committees of the current and
// next periods, and the best retained update for the forced advance path.
// All mutation goes through Bootstrap, ApplyUpdate and ForceUpdate.
type Store struct {
	lock                          sync.RWMutex
	status                        Status
	finalizedHeader               *lctypes.Header
	optimisticHeader              *lctypes.Header
	currentSyncCommittee          *lctypes.SyncCommittee
	nextSyncCommittee             *lctypes.SyncCommittee
	bestValidUpdate               *lctypes.Update
	previousMaxActiveParticipants uint64
	currentMaxActiveParticipants  uint64
}

// NewStore returns an empty, unsynced store.
func NewStore() *Store {
	return &Store{status: StatusUnsynced}
}

// Bootstrap initializes the store from checkpoint bootstrap data. The header
// must hash to checkpointRoot and the current sync committee must be proven
// against the header's state root. A failed bootstrap leaves the store
// untouched.
func (s *Store) Bootstrap(checkpointRoot [32]byte, data *lctypes.Bootstrap) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if data == nil {
		return errors.Wrap(consensustypes.ErrNilObjectWrapped, "bootstrap")
	}
	if err := validateHeader(data.Header()); err != nil {
		return errors.Wrap(err, "bootstrap header")
	}
	headerRoot, err := data.Header().Beacon().HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash bootstrap header")
	}
	if headerRoot != checkpointRoot {
		return errors.Wrapf(ErrCheckpointMismatch, "header root %#x, checkpoint %#x", headerRoot, checkpointRoot)
	}
	committeeRoot, err := data.CurrentSyncCommittee().HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash current sync committee")
	}
	branch := data.CurrentSyncCommitteeBranch()
	if !trie.VerifyMerkleProofWithDepth(
		data.Header().Beacon().StateRoot,
		committeeRoot[:],
		subtreeIndex(CurrentSyncCommitteeIndex),
		branchBytes(branch[:]),
		fieldparams.CurrentSyncCommitteeBranchDepth,
	) {
		return errors.Wrap(ErrInvalidCommitteeProof, "current sync committee")
	}

	s.finalizedHeader = data.Header().Copy()
	s.optimisticHeader = data.Header().Copy()
	s.currentSyncCommittee = data.CurrentSyncCommittee().Copy()
	s.nextSyncCommittee = nil
	s.bestValidUpdate = nil
	s.previousMaxActiveParticipants = 0
	s.currentMaxActiveParticipants = 0
	s.status = StatusBootstrapped
	return nil
}

// Restore seeds the store from previously persisted state so a restart can
// resume without refetching bootstrap data. The caller decides whether the
// persisted state is fresh enough to trust.
func (s *Store) Restore(finalized *lctypes.Header, current, next *lctypes.SyncCommittee) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if finalized == nil || current == nil {
		return errors.Wrap(consensustypes.ErrNilObjectWrapped, "restore")
	}
	if err := validateHeader(finalized); err != nil {
		return errors.Wrap(err, "persisted header")
	}
	s.finalizedHeader = finalized.Copy()
	s.optimisticHeader = finalized.Copy()
	s.currentSyncCommittee = current.Copy()
	s.nextSyncCommittee = next.Copy()
	s.bestValidUpdate = nil
	s.previousMaxActiveParticipants = 0
	s.currentMaxActiveParticipants = 0
	s.status = StatusBootstrapped
	return nil
}

// ApplyUpdate verifies an update against the store and, on success, advances
// the trusted heads and committee schedule. currentSlot is the wall clock
// slot the caller observes; updates signed in the future are rejected. A
// rejected update never mutates the store.
func (s *Store) ApplyUpdate(u *lctypes.Update, currentSlot primitives.Slot) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.status == StatusUnsynced {
		return ErrNotBootstrapped
	}
	if err := s.validateUpdate(u, currentSlot); err != nil {
		return err
	}
	s.applyUpdate(u)
	return nil
}

// applyUpdate mutates the store with an already validated update. The caller
// must hold the store lock.
func (s *Store) applyUpdate(u *lctypes.Update) {
	if !mutexasserts.RWMutexLocked(&s.lock) {
		log.Error("Store is not locked during update application")
	}
	participation := u.SyncAggregate().SyncCommitteeBits.Count()

	// Retain the best update of the window for the forced advance path.
	if s.bestValidUpdate == nil || IsBetterUpdate(u, s.bestValidUpdate) {
		s.bestValidUpdate = u.Copy()
	}
	if participation > s.currentMaxActiveParticipants {
		s.currentMaxActiveParticipants = participation
	}

	attestedSlot := u.AttestedHeader().Beacon().Slot
	if participation > s.safetyThreshold() && attestedSlot > s.optimisticHeader.Beacon().Slot {
		s.optimisticHeader = u.AttestedHeader().Copy()
	}

	var finalizedSlot primitives.Slot
	if u.HasFinality() {
		finalizedSlot = u.FinalizedHeader().Beacon().Slot
	}
	hasFinalizedNextCommittee := s.nextSyncCommittee == nil &&
		u.HasNextSyncCommittee() && u.HasFinality() &&
		slots.ToSyncCommitteePeriod(finalizedSlot) == slots.ToSyncCommitteePeriod(attestedSlot)
	if finalizedSlot > s.finalizedHeader.Beacon().Slot || hasFinalizedNextCommittee {
		s.advance(u.NextSyncCommittee(), u.FinalizedHeader())
		s.bestValidUpdate = nil
	} else {
		s.status = StatusOptimistic
	}
}

// advance adopts a proven next committee and finalized header, rotating the
// committee schedule when finality crosses into a new period. This is the
// only place the finalized header and the committees change after bootstrap.
// The caller must hold the store lock.
func (s *Store) advance(nextCommittee *lctypes.SyncCommittee, finalized *lctypes.Header) {
	storePeriod := slots.ToSyncCommitteePeriod(s.finalizedHeader.Beacon().Slot)
	var finalizedSlot primitives.Slot
	if finalized != nil {
		finalizedSlot = finalized.Beacon().Slot
	}
	if s.nextSyncCommittee == nil {
		s.nextSyncCommittee = nextCommittee.Copy()
	} else if slots.ToSyncCommitteePeriod(finalizedSlot) == storePeriod+1 {
		s.currentSyncCommittee = s.nextSyncCommittee
		s.nextSyncCommittee = nextCommittee.Copy()
		s.previousMaxActiveParticipants = s.currentMaxActiveParticipants
		s.currentMaxActiveParticipants = 0
	}
	if finalized != nil && finalizedSlot > s.finalizedHeader.Beacon().Slot {
		s.finalizedHeader = finalized.Copy()
		if s.finalizedHeader.Beacon().Slot > s.optimisticHeader.Beacon().Slot {
			s.optimisticHeader = s.finalizedHeader.Copy()
		}
		s.status = StatusFinalized
	} else {
		s.status = StatusOptimistic
	}
}

// ForceUpdate applies the best retained update once no finality progress has
// been made for a full update timeout window. It lets the client escape a
// period whose finality stalled by trusting the strongest update it has
// seen. The forced update substitutes its attested header for the finalized
// header when it proves no newer finality itself. Returns true when the
// store advanced.
func (s *Store) ForceUpdate(currentSlot primitives.Slot) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.bestValidUpdate == nil {
		return false
	}
	timeout := uint64(params.BeaconConfig().UpdateTimeout())
	if currentSlot <= s.finalizedHeader.Beacon().Slot.Add(timeout) {
		return false
	}
	best := s.bestValidUpdate
	finalized := best.FinalizedHeader()
	if !best.HasFinality() || finalized.Beacon().Slot <= s.finalizedHeader.Beacon().Slot {
		finalized = best.AttestedHeader()
	}
	s.advance(best.NextSyncCommittee(), finalized)
	s.bestValidUpdate = nil
	return true
}

// safetyThreshold is half the highest participation seen over the current
// and previous periods. The optimistic head only follows updates whose
// participation clears it.
func (s *Store) safetyThreshold() uint64 {
	max := s.previousMaxActiveParticipants
	if s.currentMaxActiveParticipants > max {
		max = s.currentMaxActiveParticipants
	}
	return max / 2
}

// Status returns the state the store most recently emitted.
func (s *Store) Status() Status {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.status
}

// FinalizedHeader returns a copy of the most recent header accepted with a
// verified finality proof, or nil before bootstrap.
func (s *Store) FinalizedHeader() *lctypes.Header {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.finalizedHeader.Copy()
}

// OptimisticHeader returns a copy of the most recent header accepted with a
// valid sync committee signature, or nil before bootstrap.
func (s *Store) OptimisticHeader() *lctypes.Header {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.optimisticHeader.Copy()
}

// CurrentSyncCommittee returns a copy of the committee of the store's
// finalized period.
func (s *Store) CurrentSyncCommittee() *lctypes.SyncCommittee {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.currentSyncCommittee.Copy()
}

// NextSyncCommittee returns a copy of the committee of the next period, or
// nil while it is unknown.
func (s *Store) NextSyncCommittee() *lctypes.SyncCommittee {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.nextSyncCommittee.Copy()
}

// BestValidUpdate returns a copy of the update retained for the forced
// advance path, or nil when none is pending.
func (s *Store) BestValidUpdate() *lctypes.Update {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.bestValidUpdate.Copy()
}

// FinalizedPeriod returns the sync committee period of the finalized header.
func (s *Store) FinalizedPeriod() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.finalizedHeader == nil {
		return 0
	}
	return slots.ToSyncCommitteePeriod(s.finalizedHeader.Beacon().Slot)
}

// Head returns a copy on read snapshot of the trusted chain tips.
func (s *Store) Head() *Head {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return &Head{
		Finalized:  s.finalizedHeader.Copy(),
		Optimistic: s.optimisticHeader.Copy(),
		Status:     s.status,
	}
}
