package light_client

import (
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	consensustypes "github.com/prysmaticlabs/lumen/consensus-types"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
)

// Update advertises a new attested header to light clients together with the
// proofs needed to advance the sync committee state. The next sync committee
// and the finalized header are optional. A full update fetched from the
// updates by range endpoint carries both, while updates distilled from
// finality or optimistic events carry less.
type Update struct {
	attestedHeader          *Header
	nextSyncCommittee       *SyncCommittee
	nextSyncCommitteeBranch [fieldparams.NextSyncCommitteeBranchDepth][32]byte
	finalizedHeader         *Header
	finalityBranch          [fieldparams.FinalityBranchDepth][32]byte
	syncAggregate           *SyncAggregate
	signatureSlot           primitives.Slot
}

// NewUpdate assembles an update from its wire parts. nextSyncCommittee and
// finalizedHeader may be nil, in which case the matching branch must be
// empty. Branch leaves are validated for depth and length.
func NewUpdate(
	attestedHeader *Header,
	nextSyncCommittee *SyncCommittee,
	nextSyncCommitteeBranch [][]byte,
	finalizedHeader *Header,
	finalityBranch [][]byte,
	syncAggregate *SyncAggregate,
	signatureSlot primitives.Slot,
) (*Update, error) {
	if attestedHeader == nil || syncAggregate == nil {
		return nil, consensustypes.ErrNilObjectWrapped
	}
	u := &Update{
		attestedHeader:  attestedHeader,
		finalizedHeader: finalizedHeader,
		syncAggregate:   syncAggregate,
		signatureSlot:   signatureSlot,
	}
	if nextSyncCommittee != nil {
		scBranch, err := buildBranch[[fieldparams.NextSyncCommitteeBranchDepth][32]byte](
			"sync committee",
			nextSyncCommitteeBranch,
			fieldparams.NextSyncCommitteeBranchDepth,
		)
		if err != nil {
			return nil, err
		}
		u.nextSyncCommittee = nextSyncCommittee
		u.nextSyncCommitteeBranch = scBranch
	}
	if finalizedHeader != nil {
		fBranch, err := buildBranch[[fieldparams.FinalityBranchDepth][32]byte](
			"finality",
			finalityBranch,
			fieldparams.FinalityBranchDepth,
		)
		if err != nil {
			return nil, err
		}
		u.finalityBranch = fBranch
	}
	return u, nil
}

// Version returns the fork version of the attested header.
func (u *Update) Version() int {
	return u.attestedHeader.Version()
}

// AttestedHeader is the header the sync committee signed over.
func (u *Update) AttestedHeader() *Header {
	return u.attestedHeader
}

// NextSyncCommittee returns the advertised committee of the next period, or
// nil when the update does not carry one.
func (u *Update) NextSyncCommittee() *SyncCommittee {
	return u.nextSyncCommittee
}

// NextSyncCommitteeBranch proves the next sync committee against the attested
// header state root.
func (u *Update) NextSyncCommitteeBranch() [fieldparams.NextSyncCommitteeBranchDepth][32]byte {
	return u.nextSyncCommitteeBranch
}

// FinalizedHeader returns the header proven finalized by the attested header,
// or nil when the update carries no finality proof.
func (u *Update) FinalizedHeader() *Header {
	return u.finalizedHeader
}

// FinalityBranch proves the finalized checkpoint against the attested header
// state root.
func (u *Update) FinalityBranch() [fieldparams.FinalityBranchDepth][32]byte {
	return u.finalityBranch
}

// SyncAggregate returns the committee signature over the attested header.
func (u *Update) SyncAggregate() *SyncAggregate {
	return u.syncAggregate
}

// SignatureSlot is the slot the sync aggregate was produced at.
func (u *Update) SignatureSlot() primitives.Slot {
	return u.signatureSlot
}

// HasNextSyncCommittee reports whether this update advertises the committee
// of the next period.
func (u *Update) HasNextSyncCommittee() bool {
	return u.nextSyncCommittee != nil && !branchIsZero(u.nextSyncCommitteeBranch)
}

// HasFinality reports whether this update proves a finalized header.
func (u *Update) HasFinality() bool {
	return u.finalizedHeader != nil && !branchIsZero(u.finalityBranch)
}

// Copy returns a deep copy of the update.
func (u *Update) Copy() *Update {
	if u == nil {
		return nil
	}
	return &Update{
		attestedHeader:          u.attestedHeader.Copy(),
		nextSyncCommittee:       u.nextSyncCommittee.Copy(),
		nextSyncCommitteeBranch: u.nextSyncCommitteeBranch,
		finalizedHeader:         u.finalizedHeader.Copy(),
		finalityBranch:          u.finalityBranch,
		syncAggregate:           u.syncAggregate.Copy(),
		signatureSlot:           u.signatureSlot,
	}
}

// FinalityUpdate is the light client view of a finality event. It proves a
// new finalized header but never carries a sync committee.
type FinalityUpdate struct {
	attestedHeader  *Header
	finalizedHeader *Header
	finalityBranch  [fieldparams.FinalityBranchDepth][32]byte
	syncAggregate   *SyncAggregate
	signatureSlot   primitives.Slot
}

// NewFinalityUpdate assembles a finality update from its wire parts.
func NewFinalityUpdate(
	attestedHeader *Header,
	finalizedHeader *Header,
	finalityBranch [][]byte,
	syncAggregate *SyncAggregate,
	signatureSlot primitives.Slot,
) (*FinalityUpdate, error) {
	if attestedHeader == nil || finalizedHeader == nil || syncAggregate == nil {
		return nil, consensustypes.ErrNilObjectWrapped
	}
	fBranch, err := buildBranch[[fieldparams.FinalityBranchDepth][32]byte](
		"finality",
		finalityBranch,
		fieldparams.FinalityBranchDepth,
	)
	if err != nil {
		return nil, err
	}
	return &FinalityUpdate{
		attestedHeader:  attestedHeader,
		finalizedHeader: finalizedHeader,
		finalityBranch:  fBranch,
		syncAggregate:   syncAggregate,
		signatureSlot:   signatureSlot,
	}, nil
}

// NewFinalityUpdateFromUpdate distills the finality view out of a full
// update.
func NewFinalityUpdateFromUpdate(u *Update) (*FinalityUpdate, error) {
	if u == nil || !u.HasFinality() {
		return nil, consensustypes.ErrNilObjectWrapped
	}
	return &FinalityUpdate{
		attestedHeader:  u.attestedHeader,
		finalizedHeader: u.finalizedHeader,
		finalityBranch:  u.finalityBranch,
		syncAggregate:   u.syncAggregate,
		signatureSlot:   u.signatureSlot,
	}, nil
}

// Version returns the fork version of the attested header.
func (u *FinalityUpdate) Version() int {
	return u.attestedHeader.Version()
}

// AttestedHeader is the header the sync committee signed over.
func (u *FinalityUpdate) AttestedHeader() *Header {
	return u.attestedHeader
}

// FinalizedHeader returns the header proven finalized by the attested header.
func (u *FinalityUpdate) FinalizedHeader() *Header {
	return u.finalizedHeader
}

// FinalityBranch proves the finalized checkpoint against the attested header
// state root.
func (u *FinalityUpdate) FinalityBranch() [fieldparams.FinalityBranchDepth][32]byte {
	return u.finalityBranch
}

// SyncAggregate returns the committee signature over the attested header.
func (u *FinalityUpdate) SyncAggregate() *SyncAggregate {
	return u.syncAggregate
}

// SignatureSlot is the slot the sync aggregate was produced at.
func (u *FinalityUpdate) SignatureSlot() primitives.Slot {
	return u.signatureSlot
}

// ToUpdate widens the finality update into the generic update shape consumed
// by verification.
func (u *FinalityUpdate) ToUpdate() *Update {
	return &Update{
		attestedHeader:  u.attestedHeader,
		finalizedHeader: u.finalizedHeader,
		finalityBranch:  u.finalityBranch,
		syncAggregate:   u.syncAggregate,
		signatureSlot:   u.signatureSlot,
	}
}

// OptimisticUpdate is the light client view of a new head. It carries only
// the attested header and the signature over it.
type OptimisticUpdate struct {
	attestedHeader *Header
	syncAggregate  *SyncAggregate
	signatureSlot  primitives.Slot
}

// NewOptimisticUpdate assembles an optimistic update from its wire parts.
func NewOptimisticUpdate(
	attestedHeader *Header,
	syncAggregate *SyncAggregate,
	signatureSlot primitives.Slot,
) (*OptimisticUpdate, error) {
	if attestedHeader == nil || syncAggregate == nil {
		return nil, consensustypes.ErrNilObjectWrapped
	}
	return &OptimisticUpdate{
		attestedHeader: attestedHeader,
		syncAggregate:  syncAggregate,
		signatureSlot:  signatureSlot,
	}, nil
}

// NewOptimisticUpdateFromUpdate distills the optimistic view out of a full
// update.
func NewOptimisticUpdateFromUpdate(u *Update) (*OptimisticUpdate, error) {
	if u == nil || u.attestedHeader == nil {
		return nil, consensustypes.ErrNilObjectWrapped
	}
	return &OptimisticUpdate{
		attestedHeader: u.attestedHeader,
		syncAggregate:  u.syncAggregate,
		signatureSlot:  u.signatureSlot,
	}, nil
}

// Version returns the fork version of the attested header.
func (u *OptimisticUpdate) Version() int {
	return u.attestedHeader.Version()
}

// AttestedHeader is the header the sync committee signed over.
func (u *OptimisticUpdate) AttestedHeader() *Header {
	return u.attestedHeader
}

// SyncAggregate returns the committee signature over the attested header.
func (u *OptimisticUpdate) SyncAggregate() *SyncAggregate {
	return u.syncAggregate
}

// SignatureSlot is the slot the sync aggregate was produced at.
func (u *OptimisticUpdate) SignatureSlot() primitives.Slot {
	return u.signatureSlot
}

// ToUpdate widens the optimistic update into the generic update shape
// consumed by verification.
func (u *OptimisticUpdate) ToUpdate() *Update {
	return &Update{
		attestedHeader: u.attestedHeader,
		syncAggregate:  u.syncAggregate,
		signatureSlot:  u.signatureSlot,
	}
}

// Bootstrap seeds a light client store from a trusted block root. It carries
// the header matching the root and the sync committee of the header's period
// proven against the header state root.
type Bootstrap struct {
	header                     *Header
	currentSyncCommittee       *SyncCommittee
	currentSyncCommitteeBranch [fieldparams.CurrentSyncCommitteeBranchDepth][32]byte
}

// NewBootstrap assembles a bootstrap from its wire parts.
func NewBootstrap(header *Header, currentSyncCommittee *SyncCommittee, currentSyncCommitteeBranch [][]byte) (*Bootstrap, error) {
	if header == nil || currentSyncCommittee == nil {
		return nil, consensustypes.ErrNilObjectWrapped
	}
	branch, err := buildBranch[[fieldparams.CurrentSyncCommitteeBranchDepth][32]byte](
		"sync committee",
		currentSyncCommitteeBranch,
		fieldparams.CurrentSyncCommitteeBranchDepth,
	)
	if err != nil {
		return nil, err
	}
	return &Bootstrap{
		header:                     header,
		currentSyncCommittee:       currentSyncCommittee,
		currentSyncCommitteeBranch: branch,
	}, nil
}

// Version returns the fork version of the bootstrap header.
func (b *Bootstrap) Version() int {
	return b.header.Version()
}

// Header is the trusted header the bootstrap anchors at.
func (b *Bootstrap) Header() *Header {
	return b.header
}

// CurrentSyncCommittee is the committee of the header's period.
func (b *Bootstrap) CurrentSyncCommittee() *SyncCommittee {
	return b.currentSyncCommittee
}

// CurrentSyncCommitteeBranch proves the committee against the header state
// root.
func (b *Bootstrap) CurrentSyncCommitteeBranch() [fieldparams.CurrentSyncCommitteeBranchDepth][32]byte {
	return b.currentSyncCommitteeBranch
}

// Copy returns a deep copy of the bootstrap.
func (b *Bootstrap) Copy() *Bootstrap {
	if b == nil {
		return nil
	}
	return &Bootstrap{
		header:                     b.header.Copy(),
		currentSyncCommittee:       b.currentSyncCommittee.Copy(),
		currentSyncCommitteeBranch: b.currentSyncCommitteeBranch,
	}
}
