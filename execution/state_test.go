package execution_test

import (
	"context"
	stderrors "errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/prysmaticlabs/lumen/execution"
	mockExecution "github.com/prysmaticlabs/lumen/execution/testing"
	"github.com/prysmaticlabs/lumen/execution/trie"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
	"github.com/prysmaticlabs/lumen/testing/util"
)

var (
	holderAddr    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	contractAddr  = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	reverterAddr  = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	spinnerAddr   = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	numberAddr    = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	blockhashAddr = common.HexToAddress("0x00000000000000000000000000000000000000c4")
	absentAddr    = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	slotZero  = common.Hash{}
	slotValue = common.HexToHash("0x2a")
)

var (
	// PUSH1 0, SLOAD, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	storageReaderCode = []byte{0x60, 0x00, 0x54, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}
	// PUSH1 0, PUSH1 0, REVERT
	revertCode = []byte{0x60, 0x00, 0x60, 0x00, 0xfd}
	// JUMPDEST, PUSH1 0, JUMP
	spinCode = []byte{0x5b, 0x60, 0x00, 0x56}
	// NUMBER, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	numberCode = []byte{0x43, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}
	// PUSH1 11, BLOCKHASH, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	blockhashCode = []byte{0x60, 0x0b, 0x40, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}
)

func newTestState(t *testing.T) (*util.StateFixture, *mockExecution.Provider, *execution.State) {
	fixture := util.NewStateFixture(t,
		&util.TestAccount{Address: holderAddr, Nonce: 3, Balance: big.NewInt(1000)},
		&util.TestAccount{
			Address: contractAddr,
			Nonce:   1,
			Code:    storageReaderCode,
			Storage: map[common.Hash]common.Hash{slotZero: slotValue},
		},
		&util.TestAccount{Address: reverterAddr, Nonce: 1, Code: revertCode},
		&util.TestAccount{Address: spinnerAddr, Nonce: 1, Code: spinCode},
		&util.TestAccount{Address: numberAddr, Nonce: 1, Code: numberCode},
		&util.TestAccount{Address: blockhashAddr, Nonce: 1, Code: blockhashCode},
	)
	provider := &mockExecution.Provider{Fixture: fixture}
	state, err := execution.NewState(provider, 0)
	require.NoError(t, err)
	return fixture, provider, state
}

func TestState_AccountVerifiedAndCached(t *testing.T) {
	fixture, provider, state := newTestState(t)
	ctx := context.Background()

	account, err := state.Account(ctx, fixture.Root, 1, holderAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), account.Nonce)
	assert.Equal(t, uint64(1000), account.Balance.Uint64())
	assert.Equal(t, 1, provider.ProofCalls(holderAddr))

	again, err := state.Account(ctx, fixture.Root, 1, holderAddr)
	require.NoError(t, err)
	assert.Equal(t, account, again)
	assert.Equal(t, 1, provider.ProofCalls(holderAddr))
}

func TestState_AbsentAccountIsEmpty(t *testing.T) {
	fixture, _, state := newTestState(t)

	account, err := state.Account(context.Background(), fixture.Root, 1, absentAddr)
	require.NoError(t, err)
	assert.Equal(t, false, account.Exists())
	assert.Equal(t, uint64(0), account.Nonce)
	assert.Equal(t, uint64(0), account.Balance.Uint64())
}

func TestState_ConcurrentReadersShareOneFetch(t *testing.T) {
	fixture, provider, state := newTestState(t)
	provider.Delay = 50 * time.Millisecond

	const readers = 16
	var wg sync.WaitGroup
	accounts := make([]*trie.Account, readers)
	errs := make([]error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accounts[i], errs[i] = state.Account(context.Background(), fixture.Root, 1, holderAddr)
		}(i)
	}
	wg.Wait()

	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, accounts[i])
		assert.Equal(t, uint64(1000), accounts[i].Balance.Uint64())
	}
	assert.Equal(t, 1, provider.ProofCalls(holderAddr))
}

func TestState_WrongRootRejected(t *testing.T) {
	_, _, state := newTestState(t)

	wrongRoot := common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	_, err := state.Account(context.Background(), wrongRoot, 1, holderAddr)
	require.ErrorIs(t, err, trie.ErrRootMismatch)
}

func TestState_TamperedProofIsFault(t *testing.T) {
	fixture, provider, state := newTestState(t)
	provider.MutateProof = func(res *gethclient.AccountResult) {
		raw, err := hexutil.Decode(res.AccountProof[len(res.AccountProof)-1])
		require.NoError(t, err)
		raw[len(raw)/2] ^= 0x01
		res.AccountProof[len(res.AccountProof)-1] = hexutil.Encode(raw)
	}

	_, err := state.Account(context.Background(), fixture.Root, 1, holderAddr)
	require.NotNil(t, err)
	if !stderrors.Is(err, trie.ErrRootMismatch) && !stderrors.Is(err, trie.ErrMalformedNode) {
		t.Fatalf("tampered proof produced unexpected error: %v", err)
	}
}

func TestState_StorageVerifiedAndCached(t *testing.T) {
	fixture, provider, state := newTestState(t)
	ctx := context.Background()

	value, err := state.Storage(ctx, fixture.Root, 1, contractAddr, slotZero)
	require.NoError(t, err)
	assert.Equal(t, slotValue, value)
	// One account resolution plus one slot fetch.
	assert.Equal(t, 2, provider.ProofCalls(contractAddr))

	value, err = state.Storage(ctx, fixture.Root, 1, contractAddr, slotZero)
	require.NoError(t, err)
	assert.Equal(t, slotValue, value)
	assert.Equal(t, 2, provider.ProofCalls(contractAddr))
}

func TestState_StorageOfPlainAccountNeedsNoFetch(t *testing.T) {
	fixture, provider, state := newTestState(t)

	value, err := state.Storage(context.Background(), fixture.Root, 1, holderAddr, slotZero)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, value)
	// The verified storage root is the empty trie, so only the account
	// itself was fetched.
	assert.Equal(t, 1, provider.ProofCalls(holderAddr))
}

func TestState_AbsentSlotIsZero(t *testing.T) {
	fixture, _, state := newTestState(t)

	value, err := state.Storage(context.Background(), fixture.Root, 1, contractAddr, common.HexToHash("0x0f"))
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, value)
}

func TestState_CodeVerifiedAndCached(t *testing.T) {
	_, provider, state := newTestState(t)
	codeHash := crypto.Keccak256Hash(storageReaderCode)

	code, err := state.Code(context.Background(), 1, contractAddr, codeHash)
	require.NoError(t, err)
	assert.DeepEqual(t, storageReaderCode, code)
	assert.Equal(t, 1, provider.CodeCalls())

	_, err = state.Code(context.Background(), 1, contractAddr, codeHash)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.CodeCalls())
}

func TestState_MismatchedCodeIsFault(t *testing.T) {
	_, provider, state := newTestState(t)
	provider.CodeOverride = map[common.Address][]byte{contractAddr: {0xde, 0xad}}

	_, err := state.Code(context.Background(), 1, contractAddr, crypto.Keccak256Hash(storageReaderCode))
	require.ErrorIs(t, err, execution.ErrInvalidCode)
}

func TestState_AbandonedFetchStillFillsCache(t *testing.T) {
	fixture, provider, state := newTestState(t)
	provider.Delay = 80 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := state.Account(ctx, fixture.Root, 1, holderAddr)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The fetch kept running detached from the abandoning caller. A later
	// read either joins it or hits the cache it filled, without a second
	// provider call.
	account, err := state.Account(context.Background(), fixture.Root, 1, holderAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), account.Balance.Uint64())
	assert.Equal(t, 1, provider.ProofCalls(holderAddr))
}

func TestState_PrefetchWarmsCaches(t *testing.T) {
	fixture, provider, state := newTestState(t)
	provider.AccessList = gethtypes.AccessList{{
		Address:     contractAddr,
		StorageKeys: []common.Hash{slotZero},
	}}

	msg := ethereum.CallMsg{From: holderAddr, To: &contractAddr}
	state.Prefetch(context.Background(), fixture.Root, 1, msg, common.Address{})
	assert.Equal(t, 1, provider.AccessListCalls())
	warmed := provider.TotalProofCalls()

	_, err := state.Account(context.Background(), fixture.Root, 1, holderAddr)
	require.NoError(t, err)
	_, err = state.Storage(context.Background(), fixture.Root, 1, contractAddr, slotZero)
	require.NoError(t, err)
	assert.Equal(t, warmed, provider.TotalProofCalls())
}
