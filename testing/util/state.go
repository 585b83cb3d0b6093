package util

import (
	"math/big"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/testing/require"
)

// TestAccount describes one account planted in a state fixture. Zero-valued
// fields are planted as zero; a nil balance plants a zero balance.
type TestAccount struct {
	Address common.Address
	Nonce   uint64
	Balance *big.Int
	Code    []byte
	Storage map[common.Hash]common.Hash
}

// StateFixture is an execution state trie built from planted accounts, able
// to produce Merkle-Patricia proofs for any address or storage slot, present
// or absent. Proof nodes come back root first, the order eth_getProof uses.
type StateFixture struct {
	T    *testing.T
	Root common.Hash

	accounts     map[common.Address]*TestAccount
	storageRoots map[common.Address]common.Hash
	stateTrie    *gethtrie.Trie
	storageTries map[common.Address]*gethtrie.Trie
}

// NewStateFixture builds a state trie holding the given accounts, hashing
// addresses and slots into trie keys the way the execution layer does.
func NewStateFixture(t *testing.T, accounts ...*TestAccount) *StateFixture {
	db := gethtrie.NewDatabase(memorydb.New())
	stateTrie, err := gethtrie.New(common.Hash{}, db)
	require.NoError(t, err)

	f := &StateFixture{
		T:            t,
		accounts:     make(map[common.Address]*TestAccount, len(accounts)),
		storageRoots: make(map[common.Address]common.Hash, len(accounts)),
		stateTrie:    stateTrie,
		storageTries: make(map[common.Address]*gethtrie.Trie, len(accounts)),
	}
	for _, acct := range accounts {
		f.accounts[acct.Address] = acct

		storageRoot := gethtypes.EmptyRootHash
		if len(acct.Storage) > 0 {
			storageTrie, err := gethtrie.New(common.Hash{}, db)
			require.NoError(t, err)
			// Deterministic insertion order keeps fixtures reproducible.
			slots := make([]common.Hash, 0, len(acct.Storage))
			for slot := range acct.Storage {
				slots = append(slots, slot)
			}
			sort.Slice(slots, func(i, j int) bool { return slots[i].Hex() < slots[j].Hex() })
			for _, slot := range slots {
				value := acct.Storage[slot]
				if value == (common.Hash{}) {
					continue
				}
				enc, err := rlp.EncodeToBytes(common.TrimLeftZeroes(value.Bytes()))
				require.NoError(t, err)
				storageTrie.Update(crypto.Keccak256(slot.Bytes()), enc)
			}
			storageRoot = storageTrie.Hash()
			f.storageTries[acct.Address] = storageTrie
		}
		f.storageRoots[acct.Address] = storageRoot

		balance := acct.Balance
		if balance == nil {
			balance = new(big.Int)
		}
		leaf, err := rlp.EncodeToBytes(&gethtypes.StateAccount{
			Nonce:    acct.Nonce,
			Balance:  balance,
			Root:     storageRoot,
			CodeHash: crypto.Keccak256(acct.Code),
		})
		require.NoError(t, err)
		f.stateTrie.Update(crypto.Keccak256(acct.Address.Bytes()), leaf)
	}
	f.Root = f.stateTrie.Hash()
	return f
}

// Account returns the planted account for the address, or nil when the
// address was not planted.
func (f *StateFixture) Account(address common.Address) *TestAccount {
	return f.accounts[address]
}

// StorageRoot returns the storage root the fixture committed for the
// address. Unplanted addresses and accounts without storage report the
// empty trie root.
func (f *StateFixture) StorageRoot(address common.Address) common.Hash {
	if root, ok := f.storageRoots[address]; ok {
		return root
	}
	return gethtypes.EmptyRootHash
}

// AccountProof produces the Merkle-Patricia proof for the address against
// the fixture's state root. Absent addresses yield a valid exclusion proof.
func (f *StateFixture) AccountProof(address common.Address) [][]byte {
	var proof proofList
	err := f.stateTrie.Prove(crypto.Keccak256(address.Bytes()), 0, &proof)
	require.NoError(f.T, err)
	return proof
}

// StorageProof produces the proof for a slot against the address's storage
// root. Accounts without storage have the empty trie as their storage trie,
// for which the empty proof is the valid exclusion proof.
func (f *StateFixture) StorageProof(address common.Address, slot common.Hash) [][]byte {
	storageTrie, ok := f.storageTries[address]
	if !ok {
		return nil
	}
	var proof proofList
	err := storageTrie.Prove(crypto.Keccak256(slot.Bytes()), 0, &proof)
	require.NoError(f.T, err)
	return proof
}

// proofList collects trie nodes in the order Prove emits them, root first.
type proofList [][]byte

func (p *proofList) Put(_ []byte, value []byte) error {
	*p = append(*p, value)
	return nil
}

func (p *proofList) Delete(_ []byte) error {
	return errors.New("not supported")
}
