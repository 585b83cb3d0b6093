package execution_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/execution"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
)

func blockHashFor(number uint64) common.Hash {
	return crypto.Keccak256Hash(bytesutil.Uint64ToBytesLittleEndian(number))
}

func makePayloadHeader(number uint64, stateRoot common.Hash) *lctypes.ExecutionPayloadHeader {
	baseFee := make([]byte, 32)
	baseFee[0] = 7
	return &lctypes.ExecutionPayloadHeader{
		ParentHash:       blockHashFor(number - 1).Bytes(),
		FeeRecipient:     bytesutil.PadTo([]byte{0xfe, 0xe1}, 20),
		StateRoot:        stateRoot.Bytes(),
		ReceiptsRoot:     make([]byte, 32),
		LogsBloom:        make([]byte, 256),
		PrevRandao:       bytesutil.PadTo([]byte{0x01}, 32),
		BlockNumber:      number,
		GasLimit:         30_000_000,
		Timestamp:        1_700_000_000 + number*12,
		BaseFeePerGas:    baseFee,
		BlockHash:        blockHashFor(number).Bytes(),
		TransactionsRoot: make([]byte, 32),
	}
}

func TestHeaders_ResolveFollowsHeadPolicy(t *testing.T) {
	optimistic := makePayloadHeader(12, common.Hash{0x01})
	finalized := makePayloadHeader(10, common.Hash{0x02})

	unsafeHeads := execution.NewHeaders(true, time.Minute)
	unsafeHeads.Advance(optimistic, finalized)
	got, err := unsafeHeads.Resolve(execution.Latest)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), got.BlockNumber)
	got, err = unsafeHeads.Resolve(execution.Safe)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.BlockNumber)
	got, err = unsafeHeads.Resolve(execution.Finalized)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.BlockNumber)

	finalizedOnly := execution.NewHeaders(false, time.Minute)
	finalizedOnly.Advance(optimistic, finalized)
	got, err = finalizedOnly.Resolve(execution.Latest)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.BlockNumber)
}

func TestHeaders_ResolveBeforeFirstHead(t *testing.T) {
	h := execution.NewHeaders(true, time.Minute)
	_, err := h.Resolve(execution.Latest)
	require.ErrorIs(t, err, execution.ErrNotSynced)
	_, err = h.Resolve(execution.Finalized)
	require.ErrorIs(t, err, execution.ErrNotSynced)
	_, err = h.Resolve(execution.BlockNumber(10))
	require.ErrorIs(t, err, execution.ErrBlockNotFound)
}

func TestHeaders_ResolveByNumberWithinWindow(t *testing.T) {
	h := execution.NewHeaders(true, time.Minute)
	for number := uint64(10); number <= 14; number++ {
		h.Advance(makePayloadHeader(number, common.Hash{byte(number)}), nil)
	}

	got, err := h.Resolve(execution.BlockNumber(11))
	require.NoError(t, err)
	assert.Equal(t, uint64(11), got.BlockNumber)
	assert.DeepEqual(t, common.Hash{0x0b}.Bytes(), got.StateRoot)

	_, err = h.Resolve(execution.BlockNumber(9))
	require.ErrorIs(t, err, execution.ErrBlockNotFound)
	_, err = h.Resolve(execution.BlockNumber(15))
	require.ErrorIs(t, err, execution.ErrBlockNotFound)
}

func TestHeaders_ByHash(t *testing.T) {
	h := execution.NewHeaders(true, time.Minute)
	h.Advance(makePayloadHeader(12, common.Hash{0x01}), nil)

	got, err := h.ByHash(blockHashFor(12))
	require.NoError(t, err)
	assert.Equal(t, uint64(12), got.BlockNumber)

	_, err = h.ByHash(blockHashFor(999))
	require.ErrorIs(t, err, execution.ErrBlockNotFound)
}

func TestHeaders_ReadersGetCopies(t *testing.T) {
	h := execution.NewHeaders(true, time.Minute)
	h.Advance(makePayloadHeader(12, common.Hash{0x01}), nil)

	first, err := h.Resolve(execution.Latest)
	require.NoError(t, err)
	first.StateRoot[0] = 0xff
	first.BlockNumber = 99

	second, err := h.Resolve(execution.Latest)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), second.BlockNumber)
	assert.DeepEqual(t, common.Hash{0x01}.Bytes(), second.StateRoot)
}

func TestHeaders_HashByNumber(t *testing.T) {
	h := execution.NewHeaders(true, time.Minute)
	h.Advance(makePayloadHeader(12, common.Hash{0x01}), nil)

	assert.Equal(t, blockHashFor(12), h.HashByNumber(12))
	assert.Equal(t, common.Hash{}, h.HashByNumber(13))
}
