package lightclient

import (
	"math/bits"

	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	"github.com/prysmaticlabs/lumen/config/params"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/container/trie"
	"github.com/prysmaticlabs/lumen/crypto/bls"
	"github.com/prysmaticlabs/lumen/crypto/bls/common"
	"github.com/prysmaticlabs/lumen/runtime/version"
	"github.com/prysmaticlabs/lumen/time/slots"
	"github.com/trailofbits/go-mutexasserts"
)

// Precomputed generalized indices of the proof anchors inside the beacon
// state and the beacon block body.
const (
	// FinalizedRootIndex is the generalized index of the finalized checkpoint
	// root in the beacon state.
	FinalizedRootIndex = uint64(105)
	// CurrentSyncCommitteeIndex is the generalized index of the current sync
	// committee in the beacon state.
	CurrentSyncCommitteeIndex = uint64(54)
	// NextSyncCommitteeIndex is the generalized index of the next sync
	// committee in the beacon state.
	NextSyncCommitteeIndex = uint64(55)
	// ExecutionPayloadIndex is the generalized index of the execution payload
	// in the beacon block body.
	ExecutionPayloadIndex = uint64(25)
)

func floorLog2(gindex uint64) uint64 {
	return uint64(bits.Len64(gindex) - 1)
}

// subtreeIndex isolates the path bits of a generalized index, yielding the
// index of the leaf within the subtree of its depth.
func subtreeIndex(gindex uint64) uint64 {
	return gindex % (uint64(1) << floorLog2(gindex))
}

// branchBytes flattens a fixed size branch into the slice form consumed by
// the Merkle proof verifier.
func branchBytes(branch [][32]byte) [][]byte {
	out := make([][]byte, len(branch))
	for i := range branch {
		out[i] = branch[i][:]
	}
	return out
}

// validateHeader checks that a light client header is internally consistent:
// the payload shape must match the fork schedule at the header's slot, and
// from Capella onwards the embedded execution payload header must be proven
// against the beacon block body root.
func validateHeader(h *lctypes.Header) error {
	if h == nil || h.Beacon() == nil {
		return errors.Wrap(ErrInvalidHeader, "nil header")
	}
	cfg := params.BeaconConfig()
	epoch := slots.ToEpoch(h.Beacon().Slot)
	var want int
	switch {
	case epoch >= cfg.DenebForkEpoch:
		want = version.Deneb
	case epoch >= cfg.CapellaForkEpoch:
		want = version.Capella
	default:
		want = version.Altair
	}
	if h.Version() != want {
		return errors.Wrapf(ErrInvalidHeader, "header version %s does not match fork %s at slot %d",
			version.String(h.Version()), version.String(want), h.Beacon().Slot)
	}
	if h.Version() < version.Capella {
		return nil
	}
	payloadRoot, err := h.ExecutionPayloadRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash execution payload header")
	}
	branch, err := h.ExecutionBranch()
	if err != nil {
		return err
	}
	if !trie.VerifyMerkleProofWithDepth(
		h.Beacon().BodyRoot,
		payloadRoot[:],
		subtreeIndex(ExecutionPayloadIndex),
		branchBytes(branch[:]),
		fieldparams.ExecutionBranchDepth,
	) {
		return ErrInvalidExecutionProof
	}
	return nil
}

// validateUpdate verifies every claim an update makes before any of it is
// allowed to touch the store. The caller must hold the store lock. The method
// never mutates the store, so a rejected update leaves it untouched.
func (s *Store) validateUpdate(u *lctypes.Update, currentSlot primitives.Slot) error {
	if !mutexasserts.RWMutexLocked(&s.lock) {
		log.Error("Store is not locked during update validation")
	}
	if u == nil || u.AttestedHeader() == nil || u.SyncAggregate() == nil {
		return errors.Wrap(ErrInvalidHeader, "nil update")
	}
	cfg := params.BeaconConfig()

	// Participation floor. Updates below the supermajority threshold carry no
	// actionable consensus weight and are rejected outright.
	participation := u.SyncAggregate().SyncCommitteeBits.Count()
	if participation < cfg.MinSyncCommitteeParticipants {
		return errors.Wrapf(ErrInsufficientParticipation, "%d participants", participation)
	}
	if participation*3 < cfg.SyncCommitteeSize*2 {
		return errors.Wrapf(ErrInsufficientParticipation, "%d of %d participants", participation, cfg.SyncCommitteeSize)
	}

	if err := validateHeader(u.AttestedHeader()); err != nil {
		return errors.Wrap(err, "attested header")
	}
	if u.HasFinality() {
		if err := validateHeader(u.FinalizedHeader()); err != nil {
			return errors.Wrap(err, "finalized header")
		}
	}

	// current_slot >= signature_slot > attested_slot >= finalized_slot
	attestedSlot := u.AttestedHeader().Beacon().Slot
	var finalizedSlot primitives.Slot
	if u.HasFinality() {
		finalizedSlot = u.FinalizedHeader().Beacon().Slot
	}
	if currentSlot < u.SignatureSlot() || u.SignatureSlot() <= attestedSlot || attestedSlot < finalizedSlot {
		return errors.Wrapf(ErrInvalidSlotOrder, "current %d, signature %d, attested %d, finalized %d",
			currentSlot, u.SignatureSlot(), attestedSlot, finalizedSlot)
	}

	// The update must be signed in a period the store holds a committee for.
	storePeriod := slots.ToSyncCommitteePeriod(s.finalizedHeader.Beacon().Slot)
	sigPeriod := slots.ToSyncCommitteePeriod(u.SignatureSlot())
	if s.nextSyncCommittee != nil {
		if sigPeriod != storePeriod && sigPeriod != storePeriod+1 {
			return errors.Wrapf(ErrInvalidPeriod, "signature period %d, store period %d", sigPeriod, storePeriod)
		}
	} else if sigPeriod != storePeriod {
		return errors.Wrapf(ErrInvalidPeriod, "signature period %d, store period %d with unknown next committee", sigPeriod, storePeriod)
	}

	// The update must either attest past the finalized head or teach the
	// store the committee of the next period.
	attestedPeriod := slots.ToSyncCommitteePeriod(attestedSlot)
	hasUnknownNextCommittee := s.nextSyncCommittee == nil && u.HasNextSyncCommittee() && attestedPeriod == storePeriod
	if attestedSlot <= s.finalizedHeader.Beacon().Slot && !hasUnknownNextCommittee {
		return errors.Wrapf(ErrNotRelevant, "attested slot %d, finalized slot %d", attestedSlot, s.finalizedHeader.Beacon().Slot)
	}

	if u.HasFinality() {
		finalizedRoot, err := u.FinalizedHeader().Beacon().HashTreeRoot()
		if err != nil {
			return errors.Wrap(err, "could not hash finalized header")
		}
		branch := u.FinalityBranch()
		if !trie.VerifyMerkleProofWithDepth(
			u.AttestedHeader().Beacon().StateRoot,
			finalizedRoot[:],
			subtreeIndex(FinalizedRootIndex),
			branchBytes(branch[:]),
			fieldparams.FinalityBranchDepth,
		) {
			return ErrInvalidFinalityProof
		}
	}

	if u.HasNextSyncCommittee() {
		if attestedPeriod == storePeriod && s.nextSyncCommittee != nil && !u.NextSyncCommittee().Equals(s.nextSyncCommittee) {
			return errors.Wrap(ErrInvalidCommitteeProof, "advertised next committee differs from the known one")
		}
		committeeRoot, err := u.NextSyncCommittee().HashTreeRoot()
		if err != nil {
			return errors.Wrap(err, "could not hash next sync committee")
		}
		branch := u.NextSyncCommitteeBranch()
		if !trie.VerifyMerkleProofWithDepth(
			u.AttestedHeader().Beacon().StateRoot,
			committeeRoot[:],
			subtreeIndex(NextSyncCommitteeIndex),
			branchBytes(branch[:]),
			fieldparams.NextSyncCommitteeBranchDepth,
		) {
			return errors.Wrap(ErrInvalidCommitteeProof, "next sync committee")
		}
	}

	committee := s.currentSyncCommittee
	if sigPeriod != storePeriod {
		committee = s.nextSyncCommittee
	}
	return verifySyncCommitteeSignature(committee, u.SyncAggregate(), u.AttestedHeader().Beacon(), u.SignatureSlot())
}

// verifySyncCommitteeSignature checks the aggregate BLS signature of the
// participating committee members over the attested beacon block header. The
// signing domain is derived from the fork version at the epoch preceding the
// signature slot.
func verifySyncCommitteeSignature(
	committee *lctypes.SyncCommittee,
	aggregate *lctypes.SyncAggregate,
	attested *lctypes.BeaconBlockHeader,
	signatureSlot primitives.Slot,
) error {
	cfg := params.BeaconConfig()
	pubkeys := make([]common.PublicKey, 0, aggregate.SyncCommitteeBits.Count())
	for i := 0; i < len(committee.Pubkeys); i++ {
		if !aggregate.SyncCommitteeBits.BitAt(uint64(i)) {
			continue
		}
		pk, err := bls.PublicKeyFromBytes(committee.Pubkeys[i])
		if err != nil {
			return errors.Wrapf(err, "could not decode committee pubkey at index %d", i)
		}
		pubkeys = append(pubkeys, pk)
	}

	forkVersion := cfg.VersionForEpoch(slots.ToEpoch(signatureSlot.Sub(1)))
	sigDomain, err := ComputeDomain(cfg.DomainSyncCommittee, forkVersion[:], cfg.GenesisValidatorsRoot[:])
	if err != nil {
		return err
	}
	signingRoot, err := ComputeSigningRoot(attested, sigDomain)
	if err != nil {
		return errors.Wrap(err, "could not compute signing root")
	}
	sig, err := bls.SignatureFromBytes(aggregate.SyncCommitteeSignature)
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}
	if !sig.Eth2FastAggregateVerify(pubkeys, signingRoot) {
		return ErrInvalidSignature
	}
	return nil
}
