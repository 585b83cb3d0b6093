package trie

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// emptyCodeHash is keccak256 of empty code, the code hash of every account
// without code.
var emptyCodeHash = crypto.Keccak256Hash(nil)

// Account is the decoded form of an account leaf in the state trie. An
// address proven absent decodes to the empty account: zero nonce and
// balance, the empty storage root, and the hash of empty code.
type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	StorageHash common.Hash
	CodeHash    common.Hash
}

// Exists reports whether the account differs from the empty account. Both an
// address proven absent and an address holding an empty account read the
// same through the state interface.
func (a *Account) Exists() bool {
	return a.Nonce != 0 || !a.Balance.IsZero() || a.CodeHash != emptyCodeHash || a.StorageHash != emptyRoot
}

// HasCode reports whether the account has contract code behind its code
// hash.
func (a *Account) HasCode() bool {
	return a.CodeHash != emptyCodeHash && a.CodeHash != (common.Hash{})
}

// VerifyAccount proves the account stored at an address under the given
// state root. The trie key is keccak256 of the address and the leaf decodes
// as the consensus account tuple of nonce, balance, storage root and code
// hash.
func VerifyAccount(stateRoot common.Hash, address common.Address, proof [][]byte) (*Account, error) {
	val, present, err := Verify(stateRoot, crypto.Keccak256(address.Bytes()), proof)
	if err != nil {
		return nil, err
	}
	if !present {
		return &Account{
			Balance:     uint256.NewInt(0),
			StorageHash: emptyRoot,
			CodeHash:    emptyCodeHash,
		}, nil
	}
	acct := new(gethtypes.StateAccount)
	if err := rlp.DecodeBytes(val, acct); err != nil {
		return nil, errors.Wrapf(ErrMalformedNode, "account leaf: %v", err)
	}
	balance, overflow := uint256.FromBig(acct.Balance)
	if overflow {
		return nil, errors.Wrap(ErrMalformedNode, "account balance overflows 256 bits")
	}
	if len(acct.CodeHash) != common.HashLength {
		return nil, errors.Wrapf(ErrMalformedNode, "account code hash has length %d", len(acct.CodeHash))
	}
	return &Account{
		Nonce:       acct.Nonce,
		Balance:     balance,
		StorageHash: acct.Root,
		CodeHash:    common.BytesToHash(acct.CodeHash),
	}, nil
}

// VerifyStorage proves the word stored at a slot under the given storage
// root. The trie key is keccak256 of the slot index and an absent slot
// decodes to the zero word.
func VerifyStorage(storageRoot common.Hash, slot common.Hash, proof [][]byte) (common.Hash, error) {
	val, present, err := Verify(storageRoot, crypto.Keccak256(slot.Bytes()), proof)
	if err != nil {
		return common.Hash{}, err
	}
	if !present {
		return common.Hash{}, nil
	}
	content, rest, err := rlp.SplitString(val)
	if err != nil {
		return common.Hash{}, errors.Wrapf(ErrMalformedNode, "storage leaf: %v", err)
	}
	if len(rest) > 0 {
		return common.Hash{}, errors.Wrap(ErrMalformedNode, "trailing bytes after storage value")
	}
	if len(content) > common.HashLength {
		return common.Hash{}, errors.Wrapf(ErrMalformedNode, "storage value has length %d", len(content))
	}
	return common.BytesToHash(content), nil
}
