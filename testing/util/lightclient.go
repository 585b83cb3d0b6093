package util

import (
	"testing"

	"github.com/prysmaticlabs/go-bitfield"
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	"github.com/prysmaticlabs/lumen/config/params"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/container/trie"
	"github.com/prysmaticlabs/lumen/crypto/bls"
	"github.com/prysmaticlabs/lumen/crypto/bls/common"
	"github.com/prysmaticlabs/lumen/crypto/hash"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/encoding/ssz"
	"github.com/prysmaticlabs/lumen/runtime/interop"
	"github.com/prysmaticlabs/lumen/testing/require"
	"github.com/prysmaticlabs/lumen/time/slots"
)

// Positions of the proof anchors inside the beacon state and beacon block
// body field vectors, padded to the next power of two leaves.
const (
	finalizedCheckpointStateIndex  = 20
	currentSyncCommitteeStateIndex = 22
	nextSyncCommitteeStateIndex    = 23
	executionPayloadBodyIndex      = 9

	beaconStateFieldCount = 32
	blockBodyFieldCount   = 16
)

// TestLightClient owns deterministic fixtures for sync committee light
// client tests: the committees of two adjacent periods backed by interop BLS
// keys, plus builders for bootstrap data and committee signed updates whose
// Merkle proofs verify against real state and body tries.
type TestLightClient struct {
	T                *testing.T
	CurrentKeys      []bls.SecretKey
	NextKeys         []bls.SecretKey
	CurrentCommittee *lctypes.SyncCommittee
	NextCommittee    *lctypes.SyncCommittee
}

// NewTestLightClient derives the current and next sync committees from the
// deterministic interop keys.
func NewTestLightClient(t *testing.T) *TestLightClient {
	secretKeys, publicKeys, err := interop.DeterministicallyGenerateKeys(0, 2*fieldparams.SyncCommitteeLength)
	require.NoError(t, err)
	return &TestLightClient{
		T:                t,
		CurrentKeys:      secretKeys[:fieldparams.SyncCommitteeLength],
		NextKeys:         secretKeys[fieldparams.SyncCommitteeLength:],
		CurrentCommittee: SyncCommitteeFromKeys(t, publicKeys[:fieldparams.SyncCommitteeLength]),
		NextCommittee:    SyncCommitteeFromKeys(t, publicKeys[fieldparams.SyncCommitteeLength:]),
	}
}

// SyncCommitteeFromKeys assembles a sync committee from its member pubkeys.
func SyncCommitteeFromKeys(t *testing.T, keys []bls.PublicKey) *lctypes.SyncCommittee {
	pubkeys := make([][]byte, len(keys))
	for i, k := range keys {
		pubkeys[i] = k.Marshal()
	}
	return &lctypes.SyncCommittee{
		Pubkeys:         pubkeys,
		AggregatePubkey: bls.AggregateMultiplePubkeys(keys).Marshal(),
	}
}

// StateCommitment is a beacon state root together with the Merkle branches
// the light client protocol proves against it.
type StateCommitment struct {
	Root                   [32]byte
	CurrentCommitteeBranch [][]byte
	NextCommitteeBranch    [][]byte
	FinalityBranch         [][]byte
}

// BuildStateCommitment merkleizes a beacon state field vector committing to
// the given committees and to a finalized checkpoint at finalizedSlot whose
// block root is finalizedRoot. The finality branch it returns starts with
// the checkpoint epoch chunk so that it folds up from the finalized block
// root through the checkpoint container.
func (l *TestLightClient) BuildStateCommitment(current, next *lctypes.SyncCommittee, finalizedRoot [32]byte, finalizedSlot primitives.Slot) *StateCommitment {
	leaves := make([][]byte, beaconStateFieldCount)
	for i := range leaves {
		leaves[i] = bytesutil.PadTo([]byte{0xfe, byte(i)}, 32)
	}
	epochChunk := ssz.Uint64Root(uint64(slots.ToEpoch(finalizedSlot)))
	checkpointRoot := hash.Hash(append(epochChunk[:], finalizedRoot[:]...))
	leaves[finalizedCheckpointStateIndex] = checkpointRoot[:]
	currentRoot, err := current.HashTreeRoot()
	require.NoError(l.T, err)
	leaves[currentSyncCommitteeStateIndex] = currentRoot[:]
	nextRoot, err := next.HashTreeRoot()
	require.NoError(l.T, err)
	leaves[nextSyncCommitteeStateIndex] = nextRoot[:]

	stateTrie, err := trie.GenerateTrieFromItems(leaves, fieldparams.NextSyncCommitteeBranchDepth)
	require.NoError(l.T, err)
	currentBranch, err := stateTrie.MerkleProof(currentSyncCommitteeStateIndex)
	require.NoError(l.T, err)
	nextBranch, err := stateTrie.MerkleProof(nextSyncCommitteeStateIndex)
	require.NoError(l.T, err)
	checkpointBranch, err := stateTrie.MerkleProof(finalizedCheckpointStateIndex)
	require.NoError(l.T, err)

	return &StateCommitment{
		Root:                   stateTrie.Root(),
		CurrentCommitteeBranch: currentBranch,
		NextCommitteeBranch:    nextBranch,
		FinalityBranch:         append([][]byte{epochChunk[:]}, checkpointBranch...),
	}
}

// NewTestHeader builds a light client header at the given slot committing to
// stateRoot. The header embeds a deterministic execution payload header for
// the fork active at the slot, proven against a real block body trie.
func (l *TestLightClient) NewTestHeader(slot primitives.Slot, stateRoot [32]byte) *lctypes.Header {
	return l.buildHeader(slot, stateRoot, false)
}

// NewTestHeaderBadExecution builds a header whose execution branch does not
// verify against its body root.
func (l *TestLightClient) NewTestHeaderBadExecution(slot primitives.Slot, stateRoot [32]byte) *lctypes.Header {
	return l.buildHeader(slot, stateRoot, true)
}

func (l *TestLightClient) buildHeader(slot primitives.Slot, stateRoot [32]byte, corruptExecutionBranch bool) *lctypes.Header {
	payload := l.newPayloadHeader(slot)
	payloadRoot, err := payload.HashTreeRoot()
	require.NoError(l.T, err)
	leaves := make([][]byte, blockBodyFieldCount)
	for i := range leaves {
		leaves[i] = bytesutil.PadTo([]byte{0xbd, byte(i)}, 32)
	}
	leaves[executionPayloadBodyIndex] = payloadRoot[:]
	bodyTrie, err := trie.GenerateTrieFromItems(leaves, fieldparams.ExecutionBranchDepth)
	require.NoError(l.T, err)
	branch, err := bodyTrie.MerkleProof(executionPayloadBodyIndex)
	require.NoError(l.T, err)
	if corruptExecutionBranch {
		branch[0][0] ^= 0xff
	}
	bodyRoot := bodyTrie.Root()
	parentRoot := hash.Hash(bytesutil.Uint64ToBytesLittleEndian(uint64(slot)))
	beacon := &lctypes.BeaconBlockHeader{
		Slot:          slot,
		ProposerIndex: primitives.ValidatorIndex(uint64(slot) % fieldparams.SyncCommitteeLength),
		ParentRoot:    parentRoot[:],
		StateRoot:     stateRoot[:],
		BodyRoot:      bodyRoot[:],
	}
	var header *lctypes.Header
	if slots.ToEpoch(slot) >= params.BeaconConfig().DenebForkEpoch {
		header, err = lctypes.NewHeaderDeneb(beacon, payload, branch)
	} else {
		header, err = lctypes.NewHeaderCapella(beacon, payload, branch)
	}
	require.NoError(l.T, err)
	return header
}

func (l *TestLightClient) newPayloadHeader(slot primitives.Slot) *lctypes.ExecutionPayloadHeader {
	blockHash := hash.Hash(append([]byte("block"), bytesutil.Uint64ToBytesLittleEndian(uint64(slot))...))
	p := &lctypes.ExecutionPayloadHeader{
		ParentHash:       bytesutil.PadTo([]byte{0xe1}, fieldparams.RootLength),
		FeeRecipient:     bytesutil.PadTo([]byte{0xe2}, fieldparams.FeeRecipientLength),
		StateRoot:        bytesutil.PadTo([]byte{0xe3}, fieldparams.RootLength),
		ReceiptsRoot:     bytesutil.PadTo([]byte{0xe4}, fieldparams.RootLength),
		LogsBloom:        make([]byte, fieldparams.LogsBloomLength),
		PrevRandao:       bytesutil.PadTo([]byte{0xe5}, fieldparams.RootLength),
		BlockNumber:      uint64(slot),
		GasLimit:         30000000,
		GasUsed:          21000,
		Timestamp:        uint64(slot) * params.BeaconConfig().SecondsPerSlot,
		ExtraData:        []byte("lumen testing"),
		BaseFeePerGas:    bytesutil.PadTo([]byte{0xe6}, fieldparams.RootLength),
		BlockHash:        blockHash[:],
		TransactionsRoot: bytesutil.PadTo([]byte{0xe7}, fieldparams.RootLength),
		WithdrawalsRoot:  bytesutil.PadTo([]byte{0xe8}, fieldparams.RootLength),
	}
	if slots.ToEpoch(slot) >= params.BeaconConfig().DenebForkEpoch {
		blobGasUsed := uint64(0)
		excessBlobGas := uint64(0)
		p.BlobGasUsed = &blobGasUsed
		p.ExcessBlobGas = &excessBlobGas
	}
	return p
}

// SignAggregate signs the header with the first participation signers and
// returns the matching sync aggregate. The signing domain is derived from
// the fork active one slot before signatureSlot, matching what verifiers
// expect for sync committee messages.
func (l *TestLightClient) SignAggregate(attested *lctypes.BeaconBlockHeader, signers []bls.SecretKey, participation uint64, signatureSlot primitives.Slot) *lctypes.SyncAggregate {
	cfg := params.BeaconConfig()
	forkVersion := cfg.VersionForEpoch(slots.ToEpoch(signatureSlot.Sub(1)))
	forkDataRoot := ssz.ForkDataRoot(forkVersion, cfg.GenesisValidatorsRoot)
	var domain [32]byte
	copy(domain[:4], cfg.DomainSyncCommittee[:])
	copy(domain[4:], forkDataRoot[:28])
	objectRoot, err := attested.HashTreeRoot()
	require.NoError(l.T, err)
	signingRoot := ssz.SigningDataRoot(objectRoot, domain)

	bits := bitfield.NewBitvector512()
	sigs := make([]common.Signature, 0, participation)
	for i := uint64(0); i < participation && i < uint64(len(signers)); i++ {
		bits.SetBitAt(i, true)
		sigs = append(sigs, signers[i].Sign(signingRoot[:]))
	}
	// The point at infinity stands in when nobody participated.
	signature := bytesutil.PadTo([]byte{0xc0}, fieldparams.BLSSignatureLength)
	if len(sigs) > 0 {
		signature = bls.AggregateSignatures(sigs).Marshal()
	}
	return &lctypes.SyncAggregate{
		SyncCommitteeBits:      bits,
		SyncCommitteeSignature: signature,
	}
}

// UpdateOpts configures BuildUpdate. AttestedSlot is required. The zero
// value of every other field falls back to a fully participating update
// signed by the current committee one slot after the attested header, with
// no finality proof and no advertised next committee.
type UpdateOpts struct {
	AttestedSlot  primitives.Slot
	SignatureSlot primitives.Slot        // defaults to AttestedSlot + 1
	FinalizedSlot primitives.Slot        // zero builds an update without a finality proof
	Participation uint64                 // defaults to the full committee
	Signers       []bls.SecretKey        // defaults to CurrentKeys
	NextCommittee *lctypes.SyncCommittee // non-nil advertises a next committee

	CorruptFinalityBranch  bool
	CorruptCommitteeBranch bool
	CorruptExecutionBranch bool
}

// BuildUpdate assembles a signed update whose proofs verify against the
// attested state root, minus whatever the corruption knobs break. The
// attested state always commits to NextCommittee in its next sync committee
// leaf, so advertising any other committee yields an invalid proof.
func (l *TestLightClient) BuildUpdate(opts UpdateOpts) *lctypes.Update {
	if opts.SignatureSlot == 0 {
		opts.SignatureSlot = opts.AttestedSlot + 1
	}
	if opts.Participation == 0 {
		opts.Participation = fieldparams.SyncCommitteeLength
	}
	if opts.Signers == nil {
		opts.Signers = l.CurrentKeys
	}

	var finalizedHeader *lctypes.Header
	var finalizedRoot [32]byte
	if opts.FinalizedSlot > 0 {
		finalizedState := hash.Hash(append([]byte("finalized state"), bytesutil.Uint64ToBytesLittleEndian(uint64(opts.FinalizedSlot))...))
		finalizedHeader = l.NewTestHeader(opts.FinalizedSlot, finalizedState)
		var err error
		finalizedRoot, err = finalizedHeader.Beacon().HashTreeRoot()
		require.NoError(l.T, err)
	}

	state := l.BuildStateCommitment(l.CurrentCommittee, l.NextCommittee, finalizedRoot, opts.FinalizedSlot)
	var attested *lctypes.Header
	if opts.CorruptExecutionBranch {
		attested = l.NewTestHeaderBadExecution(opts.AttestedSlot, state.Root)
	} else {
		attested = l.NewTestHeader(opts.AttestedSlot, state.Root)
	}
	aggregate := l.SignAggregate(attested.Beacon(), opts.Signers, opts.Participation, opts.SignatureSlot)

	var committeeBranch [][]byte
	if opts.NextCommittee != nil {
		committeeBranch = state.NextCommitteeBranch
		if opts.CorruptCommitteeBranch {
			committeeBranch[0][0] ^= 0xff
		}
	}
	var finalityBranch [][]byte
	if finalizedHeader != nil {
		finalityBranch = state.FinalityBranch
		if opts.CorruptFinalityBranch {
			finalityBranch[0][0] ^= 0xff
		}
	}

	update, err := lctypes.NewUpdate(
		attested,
		opts.NextCommittee,
		committeeBranch,
		finalizedHeader,
		finalityBranch,
		aggregate,
		opts.SignatureSlot,
	)
	require.NoError(l.T, err)
	return update
}

// BuildBootstrap returns bootstrap data anchored at the given slot along
// with the checkpoint root its header hashes to.
func (l *TestLightClient) BuildBootstrap(slot primitives.Slot) (*lctypes.Bootstrap, [32]byte) {
	state := l.BuildStateCommitment(l.CurrentCommittee, l.NextCommittee, [32]byte{}, 0)
	header := l.NewTestHeader(slot, state.Root)
	bootstrap, err := lctypes.NewBootstrap(header, l.CurrentCommittee, state.CurrentCommitteeBranch)
	require.NoError(l.T, err)
	checkpoint, err := header.Beacon().HashTreeRoot()
	require.NoError(l.T, err)
	return bootstrap, checkpoint
}
