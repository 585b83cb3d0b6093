package beacon

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/runtime/version"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
)

func hexRepeat(b byte, n int) string {
	return hexutil.Encode(bytes.Repeat([]byte{b}, n))
}

func hexBranch(depth int) []string {
	branch := make([]string, depth)
	for i := range branch {
		branch[i] = hexRepeat(byte(i+1), fieldparams.RootLength)
	}
	return branch
}

func zeroBranch(depth int) []string {
	branch := make([]string, depth)
	for i := range branch {
		branch[i] = hexRepeat(0x00, fieldparams.RootLength)
	}
	return branch
}

func testBeaconHeaderJson() *beaconBlockHeaderJson {
	return &beaconBlockHeaderJson{
		Slot:          "1057280",
		ProposerIndex: "434234",
		ParentRoot:    hexRepeat(0xaa, fieldparams.RootLength),
		StateRoot:     hexRepeat(0xbb, fieldparams.RootLength),
		BodyRoot:      hexRepeat(0xcc, fieldparams.RootLength),
	}
}

func testExecutionHeaderJson() *executionPayloadHeaderJson {
	return &executionPayloadHeaderJson{
		ParentHash:       hexRepeat(0x01, fieldparams.RootLength),
		FeeRecipient:     hexRepeat(0x02, fieldparams.FeeRecipientLength),
		StateRoot:        hexRepeat(0x03, fieldparams.RootLength),
		ReceiptsRoot:     hexRepeat(0x04, fieldparams.RootLength),
		LogsBloom:        hexRepeat(0x00, fieldparams.LogsBloomLength),
		PrevRandao:       hexRepeat(0x05, fieldparams.RootLength),
		BlockNumber:      "18000000",
		GasLimit:         "30000000",
		GasUsed:          "21000",
		Timestamp:        "1700000000",
		ExtraData:        "0x",
		BaseFeePerGas:    "1000000000",
		BlockHash:        hexRepeat(0x06, fieldparams.RootLength),
		TransactionsRoot: hexRepeat(0x07, fieldparams.RootLength),
		WithdrawalsRoot:  hexRepeat(0x08, fieldparams.RootLength),
	}
}

func testHeaderJson() *headerJson {
	return &headerJson{
		Beacon:          testBeaconHeaderJson(),
		Execution:       testExecutionHeaderJson(),
		ExecutionBranch: hexBranch(fieldparams.ExecutionBranchDepth),
	}
}

func zeroHeaderJson() *headerJson {
	return &headerJson{
		Beacon: &beaconBlockHeaderJson{
			Slot:          "0",
			ProposerIndex: "0",
			ParentRoot:    hexRepeat(0x00, fieldparams.RootLength),
			StateRoot:     hexRepeat(0x00, fieldparams.RootLength),
			BodyRoot:      hexRepeat(0x00, fieldparams.RootLength),
		},
		Execution: &executionPayloadHeaderJson{
			ParentHash:       hexRepeat(0x00, fieldparams.RootLength),
			FeeRecipient:     hexRepeat(0x00, fieldparams.FeeRecipientLength),
			StateRoot:        hexRepeat(0x00, fieldparams.RootLength),
			ReceiptsRoot:     hexRepeat(0x00, fieldparams.RootLength),
			LogsBloom:        hexRepeat(0x00, fieldparams.LogsBloomLength),
			PrevRandao:       hexRepeat(0x00, fieldparams.RootLength),
			BlockNumber:      "0",
			GasLimit:         "0",
			GasUsed:          "0",
			Timestamp:        "0",
			ExtraData:        "0x",
			BaseFeePerGas:    "0",
			BlockHash:        hexRepeat(0x00, fieldparams.RootLength),
			TransactionsRoot: hexRepeat(0x00, fieldparams.RootLength),
			WithdrawalsRoot:  hexRepeat(0x00, fieldparams.RootLength),
		},
		ExecutionBranch: zeroBranch(fieldparams.ExecutionBranchDepth),
	}
}

func testCommitteeJson() *syncCommitteeJson {
	pubkeys := make([]string, fieldparams.SyncCommitteeLength)
	for i := range pubkeys {
		pubkeys[i] = hexRepeat(0xab, fieldparams.BLSPubkeyLength)
	}
	return &syncCommitteeJson{
		Pubkeys:         pubkeys,
		AggregatePubkey: hexRepeat(0xac, fieldparams.BLSPubkeyLength),
	}
}

func testAggregateJson() *syncAggregateJson {
	return &syncAggregateJson{
		SyncCommitteeBits:      hexRepeat(0xff, fieldparams.SyncAggregateSyncCommitteeBytesLength),
		SyncCommitteeSignature: hexRepeat(0xcd, fieldparams.BLSSignatureLength),
	}
}

func testUpdateJson() *updateJson {
	return &updateJson{
		AttestedHeader:          testHeaderJson(),
		NextSyncCommittee:       testCommitteeJson(),
		NextSyncCommitteeBranch: hexBranch(fieldparams.NextSyncCommitteeBranchDepth),
		FinalizedHeader:         testHeaderJson(),
		FinalityBranch:          hexBranch(fieldparams.FinalityBranchDepth),
		SyncAggregate:           testAggregateJson(),
		SignatureSlot:           "1057281",
	}
}

func TestDecodeUpdateCapella(t *testing.T) {
	update, err := decodeUpdate("capella", testUpdateJson())
	require.NoError(t, err)
	assert.Equal(t, version.Capella, update.Version())
	assert.Equal(t, primitives.Slot(1057281), update.SignatureSlot())
	assert.Equal(t, primitives.Slot(1057280), update.AttestedHeader().Beacon().Slot)
	assert.Equal(t, primitives.ValidatorIndex(434234), update.AttestedHeader().Beacon().ProposerIndex)
	assert.Equal(t, true, update.HasNextSyncCommittee())
	assert.Equal(t, true, update.HasFinality())

	execution, err := update.AttestedHeader().Execution()
	require.NoError(t, err)
	assert.Equal(t, uint64(18000000), execution.BlockNumber)
	// 1 gwei in the 32 byte little endian layout.
	wantBaseFee := make([]byte, 32)
	wantBaseFee[1] = 0xca
	wantBaseFee[2] = 0x9a
	wantBaseFee[3] = 0x3b
	assert.DeepEqual(t, wantBaseFee, execution.BaseFeePerGas)

	committee := update.NextSyncCommittee()
	require.NotNil(t, committee)
	assert.Equal(t, fieldparams.SyncCommitteeLength, len(committee.Pubkeys))
	assert.DeepEqual(t, bytes.Repeat([]byte{0xab}, fieldparams.BLSPubkeyLength), committee.Pubkeys[0])

	committeeBranch := update.NextSyncCommitteeBranch()
	assert.Equal(t, bytesutil.ToBytes32(bytes.Repeat([]byte{0x01}, 32)), committeeBranch[0])
	finalityBranch := update.FinalityBranch()
	assert.Equal(t, bytesutil.ToBytes32(bytes.Repeat([]byte{0x06}, 32)), finalityBranch[fieldparams.FinalityBranchDepth-1])
}

func TestDecodeUpdateDeneb(t *testing.T) {
	j := testUpdateJson()
	j.AttestedHeader.Execution.BlobGasUsed = "131072"
	j.AttestedHeader.Execution.ExcessBlobGas = "393216"
	j.FinalizedHeader.Execution.BlobGasUsed = "0"
	j.FinalizedHeader.Execution.ExcessBlobGas = "0"
	update, err := decodeUpdate("deneb", j)
	require.NoError(t, err)
	assert.Equal(t, version.Deneb, update.Version())
	execution, err := update.AttestedHeader().Execution()
	require.NoError(t, err)
	used, excess, err := execution.BlobGas()
	require.NoError(t, err)
	assert.Equal(t, uint64(131072), used)
	assert.Equal(t, uint64(393216), excess)
}

func TestDecodeUpdateDenebMissingBlobGas(t *testing.T) {
	_, err := decodeUpdate("deneb", testUpdateJson())
	require.ErrorContains(t, "execution payload fields do not match fork version", err)
}

func TestDecodeUpdateAltair(t *testing.T) {
	// Pre Capella headers are the bare beacon header. Execution fields a
	// node might still send are ignored rather than rejected.
	update, err := decodeUpdate("altair", testUpdateJson())
	require.NoError(t, err)
	assert.Equal(t, version.Altair, update.Version())
	_, err = update.AttestedHeader().Execution()
	assert.NotNil(t, err)
}

func TestDecodeUpdateOmittedOptionals(t *testing.T) {
	j := testUpdateJson()
	j.NextSyncCommittee = nil
	j.NextSyncCommitteeBranch = nil
	j.FinalizedHeader = nil
	j.FinalityBranch = nil
	update, err := decodeUpdate("capella", j)
	require.NoError(t, err)
	assert.Equal(t, false, update.HasNextSyncCommittee())
	assert.Equal(t, false, update.HasFinality())
}

func TestDecodeUpdateZeroFilledOptionals(t *testing.T) {
	// Some nodes send zero filled objects instead of omitting the optional
	// fields. Those decode to an update without the matching capability.
	j := testUpdateJson()
	zeroKeys := make([]string, fieldparams.SyncCommitteeLength)
	for i := range zeroKeys {
		zeroKeys[i] = hexRepeat(0x00, fieldparams.BLSPubkeyLength)
	}
	j.NextSyncCommittee = &syncCommitteeJson{
		Pubkeys:         zeroKeys,
		AggregatePubkey: hexRepeat(0x00, fieldparams.BLSPubkeyLength),
	}
	j.NextSyncCommitteeBranch = zeroBranch(fieldparams.NextSyncCommitteeBranchDepth)
	j.FinalizedHeader = zeroHeaderJson()
	j.FinalityBranch = zeroBranch(fieldparams.FinalityBranchDepth)
	update, err := decodeUpdate("capella", j)
	require.NoError(t, err)
	assert.Equal(t, false, update.HasNextSyncCommittee())
	assert.Equal(t, false, update.HasFinality())
}

func TestDecodeUpdateErrors(t *testing.T) {
	tests := []struct {
		name    string
		fork    string
		mutate  func(j *updateJson)
		wantErr string
	}{
		{
			name:    "unknown fork",
			fork:    "electra",
			mutate:  func(j *updateJson) {},
			wantErr: "unsupported fork version",
		},
		{
			name:    "bad signature slot",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.SignatureSlot = "latest" },
			wantErr: "signature slot",
		},
		{
			name:    "missing attested header",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.AttestedHeader = nil },
			wantErr: "attested header",
		},
		{
			name:    "missing sync aggregate",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.SyncAggregate = nil },
			wantErr: "sync aggregate",
		},
		{
			name:    "short parent root",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.AttestedHeader.Beacon.ParentRoot = hexRepeat(0xaa, 31) },
			wantErr: "parent root",
		},
		{
			name:    "undersized committee",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.NextSyncCommittee.Pubkeys = j.NextSyncCommittee.Pubkeys[:511] },
			wantErr: "511 pubkeys",
		},
		{
			name:    "short committee branch",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.NextSyncCommitteeBranch = hexBranch(4) },
			wantErr: "4 leaves, expected 5",
		},
		{
			name:    "bad committee bits",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.SyncAggregate.SyncCommitteeBits = hexRepeat(0xff, 63) },
			wantErr: "committee bits",
		},
		{
			name:    "base fee not a number",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.AttestedHeader.Execution.BaseFeePerGas = "0x3b9aca00" },
			wantErr: "base fee per gas",
		},
		{
			name:    "base fee overflow",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.AttestedHeader.Execution.BaseFeePerGas = strings.Repeat("9", 100) },
			wantErr: "overflows uint256",
		},
		{
			name:    "negative base fee",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.AttestedHeader.Execution.BaseFeePerGas = "-1" },
			wantErr: "base fee per gas",
		},
		{
			name:    "oversized extra data",
			fork:    "capella",
			mutate:  func(j *updateJson) { j.AttestedHeader.Execution.ExtraData = hexRepeat(0xee, 33) },
			wantErr: "extra data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := testUpdateJson()
			tt.mutate(j)
			_, err := decodeUpdate(tt.fork, j)
			require.ErrorContains(t, tt.wantErr, err)
		})
	}
}

func TestDecodeBootstrap(t *testing.T) {
	j := &bootstrapJson{
		Header:                     testHeaderJson(),
		CurrentSyncCommittee:       testCommitteeJson(),
		CurrentSyncCommitteeBranch: hexBranch(fieldparams.CurrentSyncCommitteeBranchDepth),
	}
	b, err := decodeBootstrap("capella", j)
	require.NoError(t, err)
	assert.Equal(t, version.Capella, b.Version())
	assert.Equal(t, primitives.Slot(1057280), b.Header().Beacon().Slot)
	assert.Equal(t, fieldparams.SyncCommitteeLength, len(b.CurrentSyncCommittee().Pubkeys))
	branch := b.CurrentSyncCommitteeBranch()
	assert.Equal(t, bytesutil.ToBytes32(bytes.Repeat([]byte{0x01}, 32)), branch[0])
}

func TestDecodeBootstrapMissingCommittee(t *testing.T) {
	j := &bootstrapJson{
		Header:                     testHeaderJson(),
		CurrentSyncCommitteeBranch: hexBranch(fieldparams.CurrentSyncCommitteeBranchDepth),
	}
	_, err := decodeBootstrap("capella", j)
	require.ErrorContains(t, "current sync committee", err)
}

func TestDecodeUint256LittleEndian(t *testing.T) {
	zero, err := decodeUint256LittleEndian("0")
	require.NoError(t, err)
	assert.DeepEqual(t, make([]byte, 32), zero)

	one, err := decodeUint256LittleEndian("1")
	require.NoError(t, err)
	want := make([]byte, 32)
	want[0] = 1
	assert.DeepEqual(t, want, one)

	// 2^64 occupies the ninth little endian byte.
	big, err := decodeUint256LittleEndian("18446744073709551616")
	require.NoError(t, err)
	want = make([]byte, 32)
	want[8] = 1
	assert.DeepEqual(t, want, big)

	// 2^256 - 1 is the largest representable value.
	max, err := decodeUint256LittleEndian("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)
	assert.DeepEqual(t, bytes.Repeat([]byte{0xff}, 32), max)

	_, err = decodeUint256LittleEndian("115792089237316195423570985008687907853269984665640564039457584007913129639936")
	require.ErrorContains(t, "overflows uint256", err)
	_, err = decodeUint256LittleEndian("not a number")
	require.ErrorContains(t, "could not parse", err)
	_, err = decodeUint256LittleEndian("-7")
	require.ErrorContains(t, "could not parse", err)
}

func TestDecodeCheckpointJson(t *testing.T) {
	cp, err := decodeCheckpoint(&checkpointJson{Epoch: "74888", Root: hexRepeat(0x1c, 32)})
	require.NoError(t, err)
	assert.Equal(t, primitives.Epoch(74888), cp.Epoch)
	assert.Equal(t, bytesutil.ToBytes32(bytes.Repeat([]byte{0x1c}, 32)), cp.BlockRoot)

	_, err = decodeCheckpoint(nil)
	require.ErrorContains(t, "checkpoint missing", err)
	_, err = decodeCheckpoint(&checkpointJson{Epoch: "x", Root: hexRepeat(0x1c, 32)})
	require.ErrorContains(t, "epoch", err)
	_, err = decodeCheckpoint(&checkpointJson{Epoch: "1", Root: "0x1c"})
	require.ErrorContains(t, "root", err)
}
