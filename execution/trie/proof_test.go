package trie_test

import (
	stderrors "errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	fuzz "github.com/google/gofuzz"
	"github.com/prysmaticlabs/lumen/execution/trie"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
	"github.com/prysmaticlabs/lumen/testing/util"
)

var (
	contractAddr = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	absentAddr   = common.HexToAddress("0x00000000000000000000000000000000000fffff")

	slotSmall  = common.HexToHash("0x01")
	slotWide   = common.HexToHash("0x02")
	slotZero   = common.HexToHash("0x03")
	slotAbsent = common.HexToHash("0x0f")
)

// testFixture plants enough accounts for account proofs to pass through
// branch nodes, plus one contract with storage covering one byte, full word
// and zero values.
func testFixture(t *testing.T) *util.StateFixture {
	accounts := []*util.TestAccount{
		{
			Address: contractAddr,
			Nonce:   1,
			Balance: big.NewInt(5_000_000),
			Code:    []byte{0x60, 0x01, 0x60, 0x00, 0x55, 0x00},
			Storage: map[common.Hash]common.Hash{
				slotSmall: common.HexToHash("0x01"),
				slotWide:  common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"),
				slotZero:  {},
			},
		},
	}
	for i := int64(1); i <= 24; i++ {
		accounts = append(accounts, &util.TestAccount{
			Address: common.BigToAddress(big.NewInt(i)),
			Nonce:   uint64(i),
			Balance: big.NewInt(1000 + i),
		})
	}
	return util.NewStateFixture(t, accounts...)
}

func TestVerifyAccount_RoundTrip(t *testing.T) {
	f := testFixture(t)
	for i := int64(1); i <= 24; i++ {
		addr := common.BigToAddress(big.NewInt(i))
		acct, err := trie.VerifyAccount(f.Root, addr, f.AccountProof(addr))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), acct.Nonce)
		assert.Equal(t, uint64(1000+i), acct.Balance.Uint64())
		assert.Equal(t, gethtypes.EmptyRootHash, acct.StorageHash)
		assert.Equal(t, crypto.Keccak256Hash(nil), acct.CodeHash)
	}

	acct, err := trie.VerifyAccount(f.Root, contractAddr, f.AccountProof(contractAddr))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acct.Nonce)
	assert.Equal(t, uint64(5_000_000), acct.Balance.Uint64())
	assert.Equal(t, f.StorageRoot(contractAddr), acct.StorageHash)
	assert.Equal(t, crypto.Keccak256Hash(f.Account(contractAddr).Code), acct.CodeHash)
	assert.Equal(t, true, acct.Exists())
	assert.Equal(t, true, acct.HasCode())
}

func TestVerifyAccount_AbsentAddress(t *testing.T) {
	f := testFixture(t)
	acct, err := trie.VerifyAccount(f.Root, absentAddr, f.AccountProof(absentAddr))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acct.Nonce)
	assert.Equal(t, true, acct.Balance.IsZero())
	assert.Equal(t, gethtypes.EmptyRootHash, acct.StorageHash)
	assert.Equal(t, crypto.Keccak256Hash(nil), acct.CodeHash)
	assert.Equal(t, false, acct.Exists())
	assert.Equal(t, false, acct.HasCode())
}

func TestVerifyStorage_RoundTrip(t *testing.T) {
	f := testFixture(t)
	root := f.StorageRoot(contractAddr)

	word, err := trie.VerifyStorage(root, slotSmall, f.StorageProof(contractAddr, slotSmall))
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x01"), word)

	word, err = trie.VerifyStorage(root, slotWide, f.StorageProof(contractAddr, slotWide))
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"), word)

	// Zero values are not stored, so both the zero-planted slot and a slot
	// that was never planted come back as the zero word via exclusion.
	word, err = trie.VerifyStorage(root, slotZero, f.StorageProof(contractAddr, slotZero))
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, word)

	word, err = trie.VerifyStorage(root, slotAbsent, f.StorageProof(contractAddr, slotAbsent))
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, word)

	// An account without storage has the empty trie; its exclusion proof is
	// the empty proof.
	plain := common.BigToAddress(big.NewInt(1))
	word, err = trie.VerifyStorage(f.StorageRoot(plain), slotSmall, f.StorageProof(plain, slotSmall))
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, word)
}

func TestVerify_SingleEntryTrie(t *testing.T) {
	addr := common.HexToAddress("0xabcdabcdabcdabcdabcdabcdabcdabcdabcdabcd")
	f := util.NewStateFixture(t, &util.TestAccount{Address: addr, Nonce: 9, Balance: big.NewInt(77)})

	proof := f.AccountProof(addr)
	require.Equal(t, 1, len(proof))
	acct, err := trie.VerifyAccount(f.Root, addr, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), acct.Nonce)
	assert.Equal(t, uint64(77), acct.Balance.Uint64())
}

func TestVerify_TamperAnyByte(t *testing.T) {
	f := testFixture(t)
	proof := f.AccountProof(contractAddr)
	require.NotEqual(t, 1, len(proof))

	for n := range proof {
		for b := range proof[n] {
			tampered := make([][]byte, len(proof))
			for i := range proof {
				tampered[i] = append([]byte{}, proof[i]...)
			}
			tampered[n][b] ^= 0xff
			_, err := trie.VerifyAccount(f.Root, contractAddr, tampered)
			if err == nil {
				t.Fatalf("verification passed with node %d byte %d flipped", n, b)
			}
			if !stderrors.Is(err, trie.ErrRootMismatch) && !stderrors.Is(err, trie.ErrMalformedNode) {
				t.Fatalf("node %d byte %d: unexpected error class: %v", n, b, err)
			}
		}
	}
}

func TestVerify_WrongRoot(t *testing.T) {
	f := testFixture(t)
	other := util.NewStateFixture(t, &util.TestAccount{
		Address: contractAddr,
		Balance: big.NewInt(1),
	})
	_, err := trie.VerifyAccount(other.Root, contractAddr, f.AccountProof(contractAddr))
	require.ErrorIs(t, err, trie.ErrRootMismatch)
}

func TestVerify_TruncatedProof(t *testing.T) {
	f := testFixture(t)
	proof := f.AccountProof(contractAddr)
	require.NotEqual(t, 1, len(proof))
	_, err := trie.VerifyAccount(f.Root, contractAddr, proof[:len(proof)-1])
	require.ErrorIs(t, err, trie.ErrMalformedNode)
}

func TestVerify_TrailingNode(t *testing.T) {
	f := testFixture(t)
	proof := f.AccountProof(contractAddr)
	proof = append(proof, append([]byte{}, proof[len(proof)-1]...))
	_, err := trie.VerifyAccount(f.Root, contractAddr, proof)
	require.ErrorIs(t, err, trie.ErrMalformedNode)
}

func TestVerify_ReorderedProof(t *testing.T) {
	f := testFixture(t)
	proof := f.AccountProof(contractAddr)
	require.NotEqual(t, 1, len(proof))
	proof[0], proof[1] = proof[1], proof[0]
	_, err := trie.VerifyAccount(f.Root, contractAddr, proof)
	require.ErrorIs(t, err, trie.ErrRootMismatch)
}

func TestVerify_EmptyProof(t *testing.T) {
	key := crypto.Keccak256(absentAddr.Bytes())

	_, present, err := trie.Verify(gethtypes.EmptyRootHash, key, nil)
	require.NoError(t, err)
	assert.Equal(t, false, present)

	f := testFixture(t)
	_, _, err = trie.Verify(f.Root, key, nil)
	require.ErrorIs(t, err, trie.ErrRootMismatch)
}

// TestVerify_FuzzGarbage feeds random node soup through verification. Every
// outcome must be a typed error; nothing may panic or verify.
func TestVerify_FuzzGarbage(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(1).NilChance(0).NumElements(1, 8)
	var root common.Hash
	var key []byte
	var proof [][]byte
	for i := 0; i < 500; i++ {
		fuzzer.Fuzz(&root)
		fuzzer.Fuzz(&key)
		fuzzer.Fuzz(&proof)
		if _, _, err := trie.Verify(root, key, proof); err == nil {
			t.Fatalf("iteration %d: random proof verified against root %#x", i, root)
		}
	}
}

// TestVerify_FuzzMutations applies fuzzer-chosen single-byte mutations to a
// valid proof and requires every one of them to be rejected.
func TestVerify_FuzzMutations(t *testing.T) {
	f := testFixture(t)
	proof := f.AccountProof(contractAddr)
	fuzzer := fuzz.NewWithSeed(2)

	var pick struct {
		Node  uint
		Byte  uint
		Delta byte
	}
	for i := 0; i < 500; i++ {
		fuzzer.Fuzz(&pick)
		n := int(pick.Node % uint(len(proof)))
		b := int(pick.Byte % uint(len(proof[n])))
		delta := pick.Delta
		if delta == 0 {
			delta = 1
		}
		tampered := make([][]byte, len(proof))
		for j := range proof {
			tampered[j] = append([]byte{}, proof[j]...)
		}
		tampered[n][b] ^= delta
		if _, err := trie.VerifyAccount(f.Root, contractAddr, tampered); err == nil {
			t.Fatalf("iteration %d: mutation of node %d byte %d verified", i, n, b)
		}
	}
}
