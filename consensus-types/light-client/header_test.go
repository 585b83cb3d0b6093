package light_client

import (
	"testing"

	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	consensustypes "github.com/prysmaticlabs/lumen/consensus-types"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/encoding/ssz"
	"github.com/prysmaticlabs/lumen/runtime/version"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
)

func testBeaconBlockHeader() *BeaconBlockHeader {
	return &BeaconBlockHeader{
		Slot:          7843202,
		ProposerIndex: 12345,
		ParentRoot:    bytesutil.PadTo([]byte("parentroot"), 32),
		StateRoot:     bytesutil.PadTo([]byte("stateroot"), 32),
		BodyRoot:      bytesutil.PadTo([]byte("bodyroot"), 32),
	}
}

func testExecutionPayloadHeaderCapella() *ExecutionPayloadHeader {
	return &ExecutionPayloadHeader{
		ParentHash:       bytesutil.PadTo([]byte("execparent"), 32),
		FeeRecipient:     bytesutil.PadTo([]byte("feerecipient"), 20),
		StateRoot:        bytesutil.PadTo([]byte("execstate"), 32),
		ReceiptsRoot:     bytesutil.PadTo([]byte("receipts"), 32),
		LogsBloom:        bytesutil.PadTo([]byte("bloom"), 256),
		PrevRandao:       bytesutil.PadTo([]byte("randao"), 32),
		BlockNumber:      17034870,
		GasLimit:         30000000,
		GasUsed:          12344321,
		Timestamp:        1681338455,
		ExtraData:        []byte("lumen"),
		BaseFeePerGas:    bytesutil.PadTo([]byte{0xaa, 0xbb}, 32),
		BlockHash:        bytesutil.PadTo([]byte("blockhash"), 32),
		TransactionsRoot: bytesutil.PadTo([]byte("txroot"), 32),
		WithdrawalsRoot:  bytesutil.PadTo([]byte("withdrawals"), 32),
	}
}

func testExecutionPayloadHeaderDeneb() *ExecutionPayloadHeader {
	e := testExecutionPayloadHeaderCapella()
	blobGasUsed := uint64(131072)
	excessBlobGas := uint64(262144)
	e.BlobGasUsed = &blobGasUsed
	e.ExcessBlobGas = &excessBlobGas
	return e
}

func testExecutionBranch() [][]byte {
	branch := make([][]byte, fieldparams.ExecutionBranchDepth)
	for i := range branch {
		branch[i] = bytesutil.PadTo([]byte{0xe0 + byte(i)}, 32)
	}
	return branch
}

func TestNewHeaderAltair(t *testing.T) {
	_, err := NewHeaderAltair(nil)
	require.ErrorIs(t, err, consensustypes.ErrNilObjectWrapped)

	h, err := NewHeaderAltair(testBeaconBlockHeader())
	require.NoError(t, err)
	assert.Equal(t, version.Altair, h.Version())
	assert.Equal(t, primitives.Slot(7843202), h.Beacon().Slot)

	_, err = h.Execution()
	require.ErrorIs(t, err, consensustypes.ErrUnsupportedField)
	_, err = h.ExecutionBranch()
	require.ErrorIs(t, err, consensustypes.ErrUnsupportedField)
	_, err = h.ExecutionPayloadRoot()
	require.ErrorIs(t, err, consensustypes.ErrUnsupportedField)
}

func TestNewHeaderCapella(t *testing.T) {
	beacon := testBeaconBlockHeader()
	execution := testExecutionPayloadHeaderCapella()

	_, err := NewHeaderCapella(nil, execution, testExecutionBranch())
	require.ErrorIs(t, err, consensustypes.ErrNilObjectWrapped)
	_, err = NewHeaderCapella(beacon, nil, testExecutionBranch())
	require.ErrorIs(t, err, consensustypes.ErrNilObjectWrapped)

	h, err := NewHeaderCapella(beacon, execution, testExecutionBranch())
	require.NoError(t, err)
	assert.Equal(t, version.Capella, h.Version())
	got, err := h.Execution()
	require.NoError(t, err)
	assert.Equal(t, version.Capella, got.Version())
	branch, err := h.ExecutionBranch()
	require.NoError(t, err)
	assert.Equal(t, bytesutil.ToBytes32(bytesutil.PadTo([]byte{0xe0}, 32)), branch[0])
}

func TestNewHeaderCapella_BranchValidation(t *testing.T) {
	beacon := testBeaconBlockHeader()
	execution := testExecutionPayloadHeaderCapella()

	short := testExecutionBranch()[:3]
	_, err := NewHeaderCapella(beacon, execution, short)
	assert.ErrorContains(t, "execution branch has 3 leaves, expected 4", err)

	badLeaf := testExecutionBranch()
	badLeaf[2] = badLeaf[2][:31]
	_, err = NewHeaderCapella(beacon, execution, badLeaf)
	assert.ErrorContains(t, "leaf 2 has 31 bytes, expected 32", err)
}

func TestNewHeader_VersionMismatch(t *testing.T) {
	beacon := testBeaconBlockHeader()

	_, err := NewHeaderCapella(beacon, testExecutionPayloadHeaderDeneb(), testExecutionBranch())
	assert.ErrorContains(t, "execution payload fields do not match fork version", err)

	_, err = NewHeaderDeneb(beacon, testExecutionPayloadHeaderCapella(), testExecutionBranch())
	assert.ErrorContains(t, "execution payload fields do not match fork version", err)
}

func TestHeader_Copy(t *testing.T) {
	h, err := NewHeaderCapella(testBeaconBlockHeader(), testExecutionPayloadHeaderCapella(), testExecutionBranch())
	require.NoError(t, err)

	cp := h.Copy()
	cp.beacon.Slot = 99
	cp.beacon.ParentRoot[0] = 0xff
	cp.execution.BlockNumber = 1
	cp.execution.BlockHash[0] = 0xff
	cp.executionBranch[0][0] = 0xff

	assert.Equal(t, primitives.Slot(7843202), h.Beacon().Slot)
	assert.Equal(t, byte('p'), h.Beacon().ParentRoot[0])
	exec, err := h.Execution()
	require.NoError(t, err)
	assert.Equal(t, uint64(17034870), exec.BlockNumber)
	assert.Equal(t, byte('b'), exec.BlockHash[0])
	branch, err := h.ExecutionBranch()
	require.NoError(t, err)
	assert.Equal(t, byte(0xe0), branch[0][0])
}

func TestBeaconBlockHeader_HashTreeRoot(t *testing.T) {
	b := testBeaconBlockHeader()
	got, err := b.HashTreeRoot()
	require.NoError(t, err)

	leaves := [][32]byte{
		ssz.Uint64Root(uint64(b.Slot)),
		ssz.Uint64Root(uint64(b.ProposerIndex)),
		bytesutil.ToBytes32(b.ParentRoot),
		bytesutil.ToBytes32(b.StateRoot),
		bytesutil.ToBytes32(b.BodyRoot),
	}
	want := ssz.MerkleizeVector(leaves, 8)
	assert.Equal(t, want, got)
}

func TestHeader_HashTreeRoot_AltairMatchesBeacon(t *testing.T) {
	h, err := NewHeaderAltair(testBeaconBlockHeader())
	require.NoError(t, err)

	beaconRoot, err := h.Beacon().HashTreeRoot()
	require.NoError(t, err)
	headerRoot, err := h.HashTreeRoot()
	require.NoError(t, err)
	assert.Equal(t, beaconRoot, headerRoot)
}

func TestHeader_HashTreeRoot_CapellaCommitsToExecution(t *testing.T) {
	h1, err := NewHeaderCapella(testBeaconBlockHeader(), testExecutionPayloadHeaderCapella(), testExecutionBranch())
	require.NoError(t, err)
	r1, err := h1.HashTreeRoot()
	require.NoError(t, err)

	changed := testExecutionPayloadHeaderCapella()
	changed.BlockNumber++
	h2, err := NewHeaderCapella(testBeaconBlockHeader(), changed, testExecutionBranch())
	require.NoError(t, err)
	r2, err := h2.HashTreeRoot()
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)
}

func TestHeader_SSZRoundTrip(t *testing.T) {
	t.Run("altair", func(t *testing.T) {
		h, err := NewHeaderAltair(testBeaconBlockHeader())
		require.NoError(t, err)
		enc, err := h.MarshalSSZ()
		require.NoError(t, err)
		assert.Equal(t, 112, len(enc))

		got, err := UnmarshalHeaderSSZ(version.Altair, enc)
		require.NoError(t, err)
		assert.Equal(t, version.Altair, got.Version())
		require.DeepEqual(t, h.Beacon(), got.Beacon())
	})
	t.Run("capella", func(t *testing.T) {
		h, err := NewHeaderCapella(testBeaconBlockHeader(), testExecutionPayloadHeaderCapella(), testExecutionBranch())
		require.NoError(t, err)
		enc, err := h.MarshalSSZ()
		require.NoError(t, err)
		assert.Equal(t, h.SizeSSZ(), len(enc))
		assert.Equal(t, 244+568+len("lumen"), len(enc))

		got, err := UnmarshalHeaderSSZ(version.Capella, enc)
		require.NoError(t, err)
		require.DeepEqual(t, h.Beacon(), got.Beacon())
		wantExec, err := h.Execution()
		require.NoError(t, err)
		gotExec, err := got.Execution()
		require.NoError(t, err)
		require.DeepEqual(t, wantExec, gotExec)
		wantBranch, err := h.ExecutionBranch()
		require.NoError(t, err)
		gotBranch, err := got.ExecutionBranch()
		require.NoError(t, err)
		assert.Equal(t, wantBranch, gotBranch)
	})
	t.Run("deneb", func(t *testing.T) {
		h, err := NewHeaderDeneb(testBeaconBlockHeader(), testExecutionPayloadHeaderDeneb(), testExecutionBranch())
		require.NoError(t, err)
		enc, err := h.MarshalSSZ()
		require.NoError(t, err)
		assert.Equal(t, 244+584+len("lumen"), len(enc))

		got, err := UnmarshalHeaderSSZ(version.Deneb, enc)
		require.NoError(t, err)
		assert.Equal(t, version.Deneb, got.Version())
		gotExec, err := got.Execution()
		require.NoError(t, err)
		used, excess, err := gotExec.BlobGas()
		require.NoError(t, err)
		assert.Equal(t, uint64(131072), used)
		assert.Equal(t, uint64(262144), excess)
	})
}

func TestUnmarshalHeaderSSZ_BadInput(t *testing.T) {
	_, err := UnmarshalHeaderSSZ(version.Altair, make([]byte, 111))
	require.NotNil(t, err)
	_, err = UnmarshalHeaderSSZ(version.Capella, make([]byte, 243))
	require.NotNil(t, err)

	h, err := NewHeaderCapella(testBeaconBlockHeader(), testExecutionPayloadHeaderCapella(), testExecutionBranch())
	require.NoError(t, err)
	enc, err := h.MarshalSSZ()
	require.NoError(t, err)
	enc[112] = 0xff
	_, err = UnmarshalHeaderSSZ(version.Capella, enc)
	require.NotNil(t, err)
}
