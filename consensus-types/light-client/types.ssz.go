package light_client

import (
	"fmt"

	ssz "github.com/ferranbt/fastssz"
	bitfield "github.com/prysmaticlabs/go-bitfield"
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/runtime/version"
)

// The methods in this file are hand-written SSZ codecs for the light client
// types. Variable containers carry their fork version out of band, so the
// unmarshal functions take the version explicitly instead of guessing from
// object sizes.

const (
	beaconBlockHeaderSize   = 112
	syncCommitteeSize       = fieldparams.SyncCommitteeLength*fieldparams.BLSPubkeyLength + fieldparams.BLSPubkeyLength
	syncAggregateSize       = fieldparams.SyncAggregateSyncCommitteeBytesLength + fieldparams.BLSSignatureLength
	executionHeaderBaseSize = 568
	headerFixedSize         = beaconBlockHeaderSize + 4 + fieldparams.ExecutionBranchDepth*fieldparams.RootLength
	updateFixedSize         = 4 + syncCommitteeSize +
		fieldparams.NextSyncCommitteeBranchDepth*fieldparams.RootLength +
		4 + fieldparams.FinalityBranchDepth*fieldparams.RootLength +
		syncAggregateSize + 8
	bootstrapFixedSize = 4 + syncCommitteeSize +
		fieldparams.CurrentSyncCommitteeBranchDepth*fieldparams.RootLength
)

// MarshalSSZ ssz marshals the BeaconBlockHeader object
func (b *BeaconBlockHeader) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(b)
}

// MarshalSSZTo ssz marshals the BeaconBlockHeader object to a target array
func (b *BeaconBlockHeader) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst := buf
	dst = ssz.MarshalUint64(dst, uint64(b.Slot))
	dst = ssz.MarshalUint64(dst, uint64(b.ProposerIndex))
	if len(b.ParentRoot) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, b.ParentRoot...)
	if len(b.StateRoot) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, b.StateRoot...)
	if len(b.BodyRoot) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, b.BodyRoot...)
	return dst, nil
}

// UnmarshalSSZ ssz unmarshals the BeaconBlockHeader object
func (b *BeaconBlockHeader) UnmarshalSSZ(buf []byte) error {
	if len(buf) != beaconBlockHeaderSize {
		return ssz.ErrSize
	}
	b.Slot = primitives.Slot(ssz.UnmarshallUint64(buf[0:8]))
	b.ProposerIndex = primitives.ValidatorIndex(ssz.UnmarshallUint64(buf[8:16]))
	b.ParentRoot = append([]byte{}, buf[16:48]...)
	b.StateRoot = append([]byte{}, buf[48:80]...)
	b.BodyRoot = append([]byte{}, buf[80:112]...)
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the BeaconBlockHeader object
func (_ *BeaconBlockHeader) SizeSSZ() int {
	return beaconBlockHeaderSize
}

// HashTreeRoot ssz hashes the BeaconBlockHeader object
func (b *BeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlockHeader object with a hasher
func (b *BeaconBlockHeader) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(b.Slot))
	hh.PutUint64(uint64(b.ProposerIndex))
	if len(b.ParentRoot) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(b.ParentRoot)
	if len(b.StateRoot) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(b.StateRoot)
	if len(b.BodyRoot) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(b.BodyRoot)
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the SyncCommittee object
func (s *SyncCommittee) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(s)
}

// MarshalSSZTo ssz marshals the SyncCommittee object to a target array
func (s *SyncCommittee) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst := buf
	if len(s.Pubkeys) != fieldparams.SyncCommitteeLength {
		return nil, ssz.ErrVectorLength
	}
	for _, key := range s.Pubkeys {
		if len(key) != fieldparams.BLSPubkeyLength {
			return nil, ssz.ErrBytesLength
		}
		dst = append(dst, key...)
	}
	if len(s.AggregatePubkey) != fieldparams.BLSPubkeyLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, s.AggregatePubkey...)
	return dst, nil
}

// UnmarshalSSZ ssz unmarshals the SyncCommittee object
func (s *SyncCommittee) UnmarshalSSZ(buf []byte) error {
	if len(buf) != syncCommitteeSize {
		return ssz.ErrSize
	}
	s.Pubkeys = make([][]byte, fieldparams.SyncCommitteeLength)
	for i := range s.Pubkeys {
		s.Pubkeys[i] = append([]byte{}, buf[i*fieldparams.BLSPubkeyLength:(i+1)*fieldparams.BLSPubkeyLength]...)
	}
	s.AggregatePubkey = append([]byte{}, buf[syncCommitteeSize-fieldparams.BLSPubkeyLength:]...)
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the SyncCommittee object
func (_ *SyncCommittee) SizeSSZ() int {
	return syncCommitteeSize
}

// HashTreeRoot ssz hashes the SyncCommittee object
func (s *SyncCommittee) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SyncCommittee object with a hasher
func (s *SyncCommittee) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()

	// Field (0) 'Pubkeys'
	{
		if len(s.Pubkeys) != fieldparams.SyncCommitteeLength {
			return ssz.ErrVectorLength
		}
		subIndx := hh.Index()
		for _, key := range s.Pubkeys {
			if len(key) != fieldparams.BLSPubkeyLength {
				return ssz.ErrBytesLength
			}
			hh.PutBytes(key)
		}
		hh.Merkleize(subIndx)
	}

	// Field (1) 'AggregatePubkey'
	if len(s.AggregatePubkey) != fieldparams.BLSPubkeyLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(s.AggregatePubkey)

	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the SyncAggregate object
func (s *SyncAggregate) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(s)
}

// MarshalSSZTo ssz marshals the SyncAggregate object to a target array
func (s *SyncAggregate) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst := buf
	if len(s.SyncCommitteeBits) != fieldparams.SyncAggregateSyncCommitteeBytesLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, s.SyncCommitteeBits...)
	if len(s.SyncCommitteeSignature) != fieldparams.BLSSignatureLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, s.SyncCommitteeSignature...)
	return dst, nil
}

// UnmarshalSSZ ssz unmarshals the SyncAggregate object
func (s *SyncAggregate) UnmarshalSSZ(buf []byte) error {
	if len(buf) != syncAggregateSize {
		return ssz.ErrSize
	}
	s.SyncCommitteeBits = bitfield.Bitvector512(append([]byte{}, buf[0:64]...))
	s.SyncCommitteeSignature = append([]byte{}, buf[64:160]...)
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the SyncAggregate object
func (_ *SyncAggregate) SizeSSZ() int {
	return syncAggregateSize
}

// HashTreeRoot ssz hashes the SyncAggregate object
func (s *SyncAggregate) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SyncAggregate object with a hasher
func (s *SyncAggregate) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	if len(s.SyncCommitteeBits) != fieldparams.SyncAggregateSyncCommitteeBytesLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(s.SyncCommitteeBits)
	if len(s.SyncCommitteeSignature) != fieldparams.BLSSignatureLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(s.SyncCommitteeSignature)
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the ExecutionPayloadHeader object
func (e *ExecutionPayloadHeader) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(e)
}

// MarshalSSZTo ssz marshals the ExecutionPayloadHeader object to a target array
func (e *ExecutionPayloadHeader) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst := buf
	fixedSize := executionHeaderFixedSize(e.Version())
	if len(e.ParentHash) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.ParentHash...)
	if len(e.FeeRecipient) != fieldparams.FeeRecipientLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.FeeRecipient...)
	if len(e.StateRoot) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.StateRoot...)
	if len(e.ReceiptsRoot) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.ReceiptsRoot...)
	if len(e.LogsBloom) != fieldparams.LogsBloomLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.LogsBloom...)
	if len(e.PrevRandao) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.PrevRandao...)
	dst = ssz.MarshalUint64(dst, e.BlockNumber)
	dst = ssz.MarshalUint64(dst, e.GasLimit)
	dst = ssz.MarshalUint64(dst, e.GasUsed)
	dst = ssz.MarshalUint64(dst, e.Timestamp)
	if len(e.ExtraData) > fieldparams.ExtraDataMaxLength {
		return nil, ssz.ErrBytesLength
	}
	dst = ssz.WriteOffset(dst, fixedSize)
	if len(e.BaseFeePerGas) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.BaseFeePerGas...)
	if len(e.BlockHash) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.BlockHash...)
	if len(e.TransactionsRoot) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.TransactionsRoot...)
	if len(e.WithdrawalsRoot) != fieldparams.RootLength {
		return nil, ssz.ErrBytesLength
	}
	dst = append(dst, e.WithdrawalsRoot...)
	if e.Version() >= version.Deneb {
		dst = ssz.MarshalUint64(dst, *e.BlobGasUsed)
		dst = ssz.MarshalUint64(dst, *e.ExcessBlobGas)
	}
	dst = append(dst, e.ExtraData...)
	return dst, nil
}

// UnmarshalExecutionPayloadHeaderSSZ ssz unmarshals an ExecutionPayloadHeader
// using the layout of the given fork version.
func UnmarshalExecutionPayloadHeaderSSZ(v int, buf []byte) (*ExecutionPayloadHeader, error) {
	fixedSize := executionHeaderFixedSize(v)
	size := len(buf)
	if size < fixedSize || size > fixedSize+fieldparams.ExtraDataMaxLength {
		return nil, ssz.ErrSize
	}
	o := ssz.ReadOffset(buf[436:440])
	if o != uint64(fixedSize) {
		return nil, ssz.ErrOffset
	}
	e := &ExecutionPayloadHeader{
		ParentHash:       append([]byte{}, buf[0:32]...),
		FeeRecipient:     append([]byte{}, buf[32:52]...),
		StateRoot:        append([]byte{}, buf[52:84]...),
		ReceiptsRoot:     append([]byte{}, buf[84:116]...),
		LogsBloom:        append([]byte{}, buf[116:372]...),
		PrevRandao:       append([]byte{}, buf[372:404]...),
		BlockNumber:      ssz.UnmarshallUint64(buf[404:412]),
		GasLimit:         ssz.UnmarshallUint64(buf[412:420]),
		GasUsed:          ssz.UnmarshallUint64(buf[420:428]),
		Timestamp:        ssz.UnmarshallUint64(buf[428:436]),
		BaseFeePerGas:    append([]byte{}, buf[440:472]...),
		BlockHash:        append([]byte{}, buf[472:504]...),
		TransactionsRoot: append([]byte{}, buf[504:536]...),
		WithdrawalsRoot:  append([]byte{}, buf[536:568]...),
		ExtraData:        append([]byte{}, buf[fixedSize:]...),
	}
	if v >= version.Deneb {
		used := ssz.UnmarshallUint64(buf[568:576])
		excess := ssz.UnmarshallUint64(buf[576:584])
		e.BlobGasUsed = &used
		e.ExcessBlobGas = &excess
	}
	return e, nil
}

// SizeSSZ returns the ssz encoded size in bytes for the ExecutionPayloadHeader object
func (e *ExecutionPayloadHeader) SizeSSZ() int {
	return executionHeaderFixedSize(e.Version()) + len(e.ExtraData)
}

// HashTreeRoot ssz hashes the ExecutionPayloadHeader object
func (e *ExecutionPayloadHeader) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(e)
}

// HashTreeRootWith ssz hashes the ExecutionPayloadHeader object with a hasher
func (e *ExecutionPayloadHeader) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	if len(e.ParentHash) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.ParentHash)
	if len(e.FeeRecipient) != fieldparams.FeeRecipientLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.FeeRecipient)
	if len(e.StateRoot) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.StateRoot)
	if len(e.ReceiptsRoot) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.ReceiptsRoot)
	if len(e.LogsBloom) != fieldparams.LogsBloomLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.LogsBloom)
	if len(e.PrevRandao) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.PrevRandao)
	hh.PutUint64(e.BlockNumber)
	hh.PutUint64(e.GasLimit)
	hh.PutUint64(e.GasUsed)
	hh.PutUint64(e.Timestamp)
	{
		elemIndx := hh.Index()
		byteLen := uint64(len(e.ExtraData))
		if byteLen > fieldparams.ExtraDataMaxLength {
			return ssz.ErrIncorrectListSize
		}
		hh.PutBytes(e.ExtraData)
		hh.MerkleizeWithMixin(elemIndx, byteLen, (fieldparams.ExtraDataMaxLength+31)/32)
	}
	if len(e.BaseFeePerGas) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.BaseFeePerGas)
	if len(e.BlockHash) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.BlockHash)
	if len(e.TransactionsRoot) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.TransactionsRoot)
	if len(e.WithdrawalsRoot) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(e.WithdrawalsRoot)
	if e.Version() >= version.Deneb {
		hh.PutUint64(*e.BlobGasUsed)
		hh.PutUint64(*e.ExcessBlobGas)
	}
	hh.Merkleize(indx)
	return nil
}

func executionHeaderFixedSize(v int) int {
	if v >= version.Deneb {
		return executionHeaderBaseSize + 16
	}
	return executionHeaderBaseSize
}

// MarshalSSZ ssz marshals the Header object
func (h *Header) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(h)
}

// MarshalSSZTo ssz marshals the Header object to a target array
func (h *Header) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst, err := h.beacon.MarshalSSZTo(buf)
	if err != nil {
		return nil, err
	}
	if h.version < version.Capella {
		return dst, nil
	}
	dst = ssz.WriteOffset(dst, headerFixedSize)
	for i := range h.executionBranch {
		dst = append(dst, h.executionBranch[i][:]...)
	}
	return h.execution.MarshalSSZTo(dst)
}

// UnmarshalHeaderSSZ ssz unmarshals a Header using the layout of the given
// fork version.
func UnmarshalHeaderSSZ(v int, buf []byte) (*Header, error) {
	if v < version.Capella {
		if len(buf) != beaconBlockHeaderSize {
			return nil, ssz.ErrSize
		}
		beacon := &BeaconBlockHeader{}
		if err := beacon.UnmarshalSSZ(buf); err != nil {
			return nil, err
		}
		return NewHeaderAltair(beacon)
	}
	if len(buf) < headerFixedSize {
		return nil, ssz.ErrSize
	}
	beacon := &BeaconBlockHeader{}
	if err := beacon.UnmarshalSSZ(buf[0:beaconBlockHeaderSize]); err != nil {
		return nil, err
	}
	o := ssz.ReadOffset(buf[112:116])
	if o != headerFixedSize {
		return nil, ssz.ErrOffset
	}
	branch := make([][]byte, fieldparams.ExecutionBranchDepth)
	for i := range branch {
		start := 116 + i*fieldparams.RootLength
		branch[i] = append([]byte{}, buf[start:start+fieldparams.RootLength]...)
	}
	execution, err := UnmarshalExecutionPayloadHeaderSSZ(v, buf[headerFixedSize:])
	if err != nil {
		return nil, err
	}
	switch v {
	case version.Capella:
		return NewHeaderCapella(beacon, execution, branch)
	case version.Deneb:
		return NewHeaderDeneb(beacon, execution, branch)
	default:
		return nil, fmt.Errorf("unsupported header version %s", version.String(v))
	}
}

// SizeSSZ returns the ssz encoded size in bytes for the Header object
func (h *Header) SizeSSZ() int {
	if h.version < version.Capella {
		return beaconBlockHeaderSize
	}
	return headerFixedSize + h.execution.SizeSSZ()
}

// HashTreeRoot ssz hashes the Header object
func (h *Header) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the Header object with a hasher
func (h *Header) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	if err := h.beacon.HashTreeRootWith(hh); err != nil {
		return err
	}
	if h.version >= version.Capella {
		if err := h.execution.HashTreeRootWith(hh); err != nil {
			return err
		}
		subIndx := hh.Index()
		for i := range h.executionBranch {
			hh.PutBytes(h.executionBranch[i][:])
		}
		hh.Merkleize(subIndx)
	}
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the Update object
func (u *Update) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(u)
}

// MarshalSSZTo ssz marshals the Update object to a target array
func (u *Update) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst := buf
	finalized := u.finalizedHeader
	if finalized == nil {
		finalized = zeroHeader(u.attestedHeader.version)
	}
	committee := u.nextSyncCommittee
	if committee == nil {
		committee = zeroSyncCommittee()
	}

	offset := updateFixedSize
	dst = ssz.WriteOffset(dst, offset)
	offset += u.attestedHeader.SizeSSZ()

	var err error
	dst, err = committee.MarshalSSZTo(dst)
	if err != nil {
		return nil, err
	}
	for i := range u.nextSyncCommitteeBranch {
		dst = append(dst, u.nextSyncCommitteeBranch[i][:]...)
	}

	dst = ssz.WriteOffset(dst, offset)

	for i := range u.finalityBranch {
		dst = append(dst, u.finalityBranch[i][:]...)
	}
	dst, err = u.syncAggregate.MarshalSSZTo(dst)
	if err != nil {
		return nil, err
	}
	dst = ssz.MarshalUint64(dst, uint64(u.signatureSlot))

	dst, err = u.attestedHeader.MarshalSSZTo(dst)
	if err != nil {
		return nil, err
	}
	return finalized.MarshalSSZTo(dst)
}

// UnmarshalUpdateSSZ ssz unmarshals an Update using the layout of the given
// fork version. Optional parts whose proof branches are zeroed are dropped.
func UnmarshalUpdateSSZ(v int, buf []byte) (*Update, error) {
	size := len(buf)
	if size < updateFixedSize {
		return nil, ssz.ErrSize
	}
	o0 := ssz.ReadOffset(buf[0:4])
	if o0 != updateFixedSize {
		return nil, ssz.ErrOffset
	}

	committee := &SyncCommittee{}
	if err := committee.UnmarshalSSZ(buf[4 : 4+syncCommitteeSize]); err != nil {
		return nil, err
	}
	scBranch := make([][]byte, fieldparams.NextSyncCommitteeBranchDepth)
	base := 4 + syncCommitteeSize
	for i := range scBranch {
		start := base + i*fieldparams.RootLength
		scBranch[i] = append([]byte{}, buf[start:start+fieldparams.RootLength]...)
	}
	base += fieldparams.NextSyncCommitteeBranchDepth * fieldparams.RootLength

	o1 := ssz.ReadOffset(buf[base : base+4])
	if o1 < o0 || uint64(size) < o1 {
		return nil, ssz.ErrOffset
	}
	base += 4

	fBranch := make([][]byte, fieldparams.FinalityBranchDepth)
	for i := range fBranch {
		start := base + i*fieldparams.RootLength
		fBranch[i] = append([]byte{}, buf[start:start+fieldparams.RootLength]...)
	}
	base += fieldparams.FinalityBranchDepth * fieldparams.RootLength

	aggregate := &SyncAggregate{}
	if err := aggregate.UnmarshalSSZ(buf[base : base+syncAggregateSize]); err != nil {
		return nil, err
	}
	base += syncAggregateSize

	signatureSlot := primitives.Slot(ssz.UnmarshallUint64(buf[base : base+8]))

	attestedHeader, err := UnmarshalHeaderSSZ(v, buf[o0:o1])
	if err != nil {
		return nil, err
	}
	finalizedHeader, err := UnmarshalHeaderSSZ(v, buf[o1:])
	if err != nil {
		return nil, err
	}

	scProof, err := buildBranch[[fieldparams.NextSyncCommitteeBranchDepth][32]byte]("sync committee", scBranch, fieldparams.NextSyncCommitteeBranchDepth)
	if err != nil {
		return nil, err
	}
	if branchIsZero(scProof) {
		committee = nil
		scBranch = nil
	}
	fProof, err := buildBranch[[fieldparams.FinalityBranchDepth][32]byte]("finality", fBranch, fieldparams.FinalityBranchDepth)
	if err != nil {
		return nil, err
	}
	if branchIsZero(fProof) {
		finalizedHeader = nil
		fBranch = nil
	}
	return NewUpdate(attestedHeader, committee, scBranch, finalizedHeader, fBranch, aggregate, signatureSlot)
}

// SizeSSZ returns the ssz encoded size in bytes for the Update object
func (u *Update) SizeSSZ() int {
	size := updateFixedSize + u.attestedHeader.SizeSSZ()
	if u.finalizedHeader != nil {
		size += u.finalizedHeader.SizeSSZ()
	} else {
		size += zeroHeader(u.attestedHeader.version).SizeSSZ()
	}
	return size
}

// MarshalSSZ ssz marshals the Bootstrap object
func (b *Bootstrap) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(b)
}

// MarshalSSZTo ssz marshals the Bootstrap object to a target array
func (b *Bootstrap) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst := buf
	dst = ssz.WriteOffset(dst, bootstrapFixedSize)
	dst, err := b.currentSyncCommittee.MarshalSSZTo(dst)
	if err != nil {
		return nil, err
	}
	for i := range b.currentSyncCommitteeBranch {
		dst = append(dst, b.currentSyncCommitteeBranch[i][:]...)
	}
	return b.header.MarshalSSZTo(dst)
}

// UnmarshalBootstrapSSZ ssz unmarshals a Bootstrap using the layout of the
// given fork version.
func UnmarshalBootstrapSSZ(v int, buf []byte) (*Bootstrap, error) {
	size := len(buf)
	if size < bootstrapFixedSize {
		return nil, ssz.ErrSize
	}
	o0 := ssz.ReadOffset(buf[0:4])
	if o0 != bootstrapFixedSize {
		return nil, ssz.ErrOffset
	}
	committee := &SyncCommittee{}
	if err := committee.UnmarshalSSZ(buf[4 : 4+syncCommitteeSize]); err != nil {
		return nil, err
	}
	branch := make([][]byte, fieldparams.CurrentSyncCommitteeBranchDepth)
	base := 4 + syncCommitteeSize
	for i := range branch {
		start := base + i*fieldparams.RootLength
		branch[i] = append([]byte{}, buf[start:start+fieldparams.RootLength]...)
	}
	header, err := UnmarshalHeaderSSZ(v, buf[o0:])
	if err != nil {
		return nil, err
	}
	return NewBootstrap(header, committee, branch)
}

// SizeSSZ returns the ssz encoded size in bytes for the Bootstrap object
func (b *Bootstrap) SizeSSZ() int {
	return bootstrapFixedSize + b.header.SizeSSZ()
}

func zeroHeader(v int) *Header {
	h := &Header{version: v, beacon: zeroBeaconBlockHeader()}
	if v >= version.Capella {
		h.execution = zeroExecutionPayloadHeader(v)
	}
	return h
}

func zeroBeaconBlockHeader() *BeaconBlockHeader {
	return &BeaconBlockHeader{
		ParentRoot: make([]byte, fieldparams.RootLength),
		StateRoot:  make([]byte, fieldparams.RootLength),
		BodyRoot:   make([]byte, fieldparams.RootLength),
	}
}

func zeroExecutionPayloadHeader(v int) *ExecutionPayloadHeader {
	e := &ExecutionPayloadHeader{
		ParentHash:       make([]byte, fieldparams.RootLength),
		FeeRecipient:     make([]byte, fieldparams.FeeRecipientLength),
		StateRoot:        make([]byte, fieldparams.RootLength),
		ReceiptsRoot:     make([]byte, fieldparams.RootLength),
		LogsBloom:        make([]byte, fieldparams.LogsBloomLength),
		PrevRandao:       make([]byte, fieldparams.RootLength),
		BaseFeePerGas:    make([]byte, fieldparams.RootLength),
		BlockHash:        make([]byte, fieldparams.RootLength),
		TransactionsRoot: make([]byte, fieldparams.RootLength),
		WithdrawalsRoot:  make([]byte, fieldparams.RootLength),
	}
	if v >= version.Deneb {
		e.BlobGasUsed = new(uint64)
		e.ExcessBlobGas = new(uint64)
	}
	return e
}

func zeroSyncCommittee() *SyncCommittee {
	pubkeys := make([][]byte, fieldparams.SyncCommitteeLength)
	for i := range pubkeys {
		pubkeys[i] = make([]byte, fieldparams.BLSPubkeyLength)
	}
	return &SyncCommittee{
		Pubkeys:         pubkeys,
		AggregatePubkey: make([]byte, fieldparams.BLSPubkeyLength),
	}
}
