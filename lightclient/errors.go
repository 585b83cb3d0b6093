package lightclient

import "github.com/pkg/errors"

var (
	// ErrCheckpointMismatch is returned when bootstrap data is anchored at a
	// header whose hash tree root differs from the trusted checkpoint root.
	ErrCheckpointMismatch = errors.New("bootstrap header does not match checkpoint root")
	// ErrInvalidCommitteeProof is returned when a sync committee is not proven
	// by its Merkle branch against the relevant state root.
	ErrInvalidCommitteeProof = errors.New("invalid sync committee proof")
	// ErrNotBootstrapped is returned when updates are applied to a store that
	// has not been initialized from a checkpoint.
	ErrNotBootstrapped = errors.New("store is not bootstrapped")
	// ErrNotRelevant is returned when an update attests to a slot the store
	// has already finalized and carries no new committee information.
	ErrNotRelevant = errors.New("update does not advance the store")
	// ErrInsufficientParticipation is returned when too few sync committee
	// members signed an update for it to be acted on.
	ErrInsufficientParticipation = errors.New("insufficient sync committee participation")
	// ErrInvalidSlotOrder is returned when the slots of an update violate
	// current_slot >= signature_slot > attested_slot >= finalized_slot.
	ErrInvalidSlotOrder = errors.New("invalid update slot ordering")
	// ErrInvalidPeriod is returned when an update is signed in a sync
	// committee period the store holds no committee for.
	ErrInvalidPeriod = errors.New("update period is not applicable to the store")
	// ErrInvalidSignature is returned when the sync aggregate signature does
	// not verify against the participating committee members.
	ErrInvalidSignature = errors.New("invalid sync committee aggregate signature")
	// ErrInvalidFinalityProof is returned when the finalized header is not
	// proven by the finality branch against the attested state root.
	ErrInvalidFinalityProof = errors.New("invalid finality proof")
	// ErrInvalidExecutionProof is returned when the embedded execution payload
	// header is not proven against the beacon block body root.
	ErrInvalidExecutionProof = errors.New("invalid execution payload proof")
	// ErrInvalidHeader is returned when a light client header is internally
	// inconsistent, such as a payload that does not match the fork schedule.
	ErrInvalidHeader = errors.New("invalid light client header")
)

// verificationErrs enumerates every failure that rejects untrusted data on
// cryptographic or structural grounds.
var verificationErrs = []error{
	ErrCheckpointMismatch,
	ErrInvalidCommitteeProof,
	ErrNotRelevant,
	ErrInsufficientParticipation,
	ErrInvalidSlotOrder,
	ErrInvalidPeriod,
	ErrInvalidSignature,
	ErrInvalidFinalityProof,
	ErrInvalidExecutionProof,
	ErrInvalidHeader,
}

// IsVerificationError reports whether err rejects provider data that failed
// verification, as opposed to an infrastructure fault such as a timeout.
// Verification failures are never retried. The offending data is dropped and
// the store keeps its last trusted state.
func IsVerificationError(err error) bool {
	for _, candidate := range verificationErrs {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
