package execution

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/execution/trie"
)

var _ vm.StateDB = (*VerifiedStateView)(nil)

var emptyCodeHash = crypto.Keccak256Hash(nil)

// viewObject is the in-view image of one account: its verified committed
// fields plus whatever the current execution has written over them.
type viewObject struct {
	nonce       uint64
	balance     *big.Int
	codeHash    common.Hash
	storageRoot common.Hash
	code        []byte
	codeFetched bool
	storage     map[common.Hash]common.Hash
	suicided    bool
	exists      bool
	created     bool
}

func (o *viewObject) copy() *viewObject {
	storage := make(map[common.Hash]common.Hash, len(o.storage))
	for slot, value := range o.storage {
		storage[slot] = value
	}
	return &viewObject{
		nonce:       o.nonce,
		balance:     new(big.Int).Set(o.balance),
		codeHash:    o.codeHash,
		storageRoot: o.storageRoot,
		code:        o.code,
		codeFetched: o.codeFetched,
		storage:     storage,
		suicided:    o.suicided,
		exists:      o.exists,
		created:     o.created,
	}
}

type viewSnapshot struct {
	objects    map[common.Address]*viewObject
	refund     uint64
	logs       int
	accessList *accessList
}

// VerifiedStateView is the state database an embedded EVM runs against.
// Committed reads resolve through the verified cache, bound to a single
// state root; writes stay in an in-memory overlay discarded with the
// view. Any fetch or verification failure is recorded on the view, and a
// call result is only trustworthy while Error reports nil.
type VerifiedStateView struct {
	ctx         context.Context
	state       *State
	root        common.Hash
	blockNumber uint64

	objects    map[common.Address]*viewObject
	refund     uint64
	logs       []*gethtypes.Log
	accessList *accessList
	snapshots  []*viewSnapshot
	dbErr      error
}

// NewVerifiedStateView binds a fresh view to the state root of a verified
// header. The context governs every fetch the view performs.
func NewVerifiedStateView(ctx context.Context, state *State, root common.Hash, blockNumber uint64) *VerifiedStateView {
	return &VerifiedStateView{
		ctx:         ctx,
		state:       state,
		root:        root,
		blockNumber: blockNumber,
		objects:     make(map[common.Address]*viewObject),
		accessList:  newAccessList(),
	}
}

// Error returns the first failure the view absorbed, if any.
func (v *VerifiedStateView) Error() error {
	return v.dbErr
}

// Logs returns the logs emitted so far, in order.
func (v *VerifiedStateView) Logs() []*gethtypes.Log {
	return v.logs
}

func (v *VerifiedStateView) setError(err error) {
	if v.dbErr == nil {
		v.dbErr = err
	}
}

func (v *VerifiedStateView) getObject(addr common.Address) *viewObject {
	if obj, ok := v.objects[addr]; ok {
		return obj
	}
	account, err := v.state.Account(v.ctx, v.root, v.blockNumber, addr)
	if err != nil {
		v.setError(errors.Wrapf(err, "could not resolve account %#x", addr))
		account = &trie.Account{
			Balance:     uint256.NewInt(0),
			StorageHash: gethtypes.EmptyRootHash,
			CodeHash:    emptyCodeHash,
		}
	}
	obj := &viewObject{
		nonce:       account.Nonce,
		balance:     account.Balance.ToBig(),
		codeHash:    account.CodeHash,
		storageRoot: account.StorageHash,
		storage:     make(map[common.Hash]common.Hash),
		exists:      err == nil && account.Exists(),
	}
	v.objects[addr] = obj
	return obj
}

// CreateAccount replaces the account with a fresh one, carrying the
// balance over.
func (v *VerifiedStateView) CreateAccount(addr common.Address) {
	prev := v.getObject(addr)
	v.objects[addr] = &viewObject{
		balance:     prev.balance,
		codeHash:    emptyCodeHash,
		storageRoot: gethtypes.EmptyRootHash,
		storage:     make(map[common.Hash]common.Hash),
		codeFetched: true,
		exists:      true,
		created:     true,
	}
}

// SubBalance removes amount from the account balance.
func (v *VerifiedStateView) SubBalance(addr common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	obj := v.getObject(addr)
	obj.balance = new(big.Int).Sub(obj.balance, amount)
}

// AddBalance adds amount to the account balance.
func (v *VerifiedStateView) AddBalance(addr common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	obj := v.getObject(addr)
	obj.balance = new(big.Int).Add(obj.balance, amount)
	obj.exists = true
}

// GetBalance returns the account balance. Callers must not mutate it.
func (v *VerifiedStateView) GetBalance(addr common.Address) *big.Int {
	return v.getObject(addr).balance
}

// GetNonce returns the account nonce.
func (v *VerifiedStateView) GetNonce(addr common.Address) uint64 {
	return v.getObject(addr).nonce
}

// SetNonce sets the account nonce.
func (v *VerifiedStateView) SetNonce(addr common.Address, nonce uint64) {
	obj := v.getObject(addr)
	obj.nonce = nonce
	obj.exists = true
}

// GetCodeHash returns the account code hash, or the zero hash for
// accounts absent from state.
func (v *VerifiedStateView) GetCodeHash(addr common.Address) common.Hash {
	obj := v.getObject(addr)
	if !obj.exists {
		return common.Hash{}
	}
	return obj.codeHash
}

// GetCode returns the account bytecode, fetching and checking it against
// the verified code hash on first use.
func (v *VerifiedStateView) GetCode(addr common.Address) []byte {
	obj := v.getObject(addr)
	if obj.codeFetched {
		return obj.code
	}
	obj.codeFetched = true
	if obj.codeHash == emptyCodeHash || obj.codeHash == (common.Hash{}) {
		return nil
	}
	code, err := v.state.Code(v.ctx, v.blockNumber, addr, obj.codeHash)
	if err != nil {
		v.setError(errors.Wrapf(err, "could not resolve code of %#x", addr))
		return nil
	}
	obj.code = code
	return code
}

// SetCode installs bytecode on the account.
func (v *VerifiedStateView) SetCode(addr common.Address, code []byte) {
	obj := v.getObject(addr)
	obj.code = code
	obj.codeHash = crypto.Keccak256Hash(code)
	obj.codeFetched = true
	obj.exists = true
}

// GetCodeSize returns the size of the account bytecode.
func (v *VerifiedStateView) GetCodeSize(addr common.Address) int {
	return len(v.GetCode(addr))
}

// AddRefund raises the refund counter.
func (v *VerifiedStateView) AddRefund(amount uint64) {
	v.refund += amount
}

// SubRefund lowers the refund counter. Underflow is recorded as a view
// failure rather than a panic.
func (v *VerifiedStateView) SubRefund(amount uint64) {
	if amount > v.refund {
		v.setError(errors.Errorf("refund counter underflow: %d > %d", amount, v.refund))
		v.refund = 0
		return
	}
	v.refund -= amount
}

// GetRefund returns the refund counter.
func (v *VerifiedStateView) GetRefund() uint64 {
	return v.refund
}

// GetCommittedState returns the verified pre-execution value of slot.
func (v *VerifiedStateView) GetCommittedState(addr common.Address, slot common.Hash) common.Hash {
	obj := v.getObject(addr)
	if obj.created || !obj.exists {
		return common.Hash{}
	}
	value, err := v.state.Storage(v.ctx, v.root, v.blockNumber, addr, slot)
	if err != nil {
		v.setError(errors.Wrapf(err, "could not resolve storage %#x of %#x", slot, addr))
		return common.Hash{}
	}
	return value
}

// GetState returns the current value of slot, dirty writes included.
func (v *VerifiedStateView) GetState(addr common.Address, slot common.Hash) common.Hash {
	obj := v.getObject(addr)
	if value, dirty := obj.storage[slot]; dirty {
		return value
	}
	return v.GetCommittedState(addr, slot)
}

// SetState writes slot in the overlay.
func (v *VerifiedStateView) SetState(addr common.Address, slot, value common.Hash) {
	if v.GetState(addr, slot) == value {
		return
	}
	v.getObject(addr).storage[slot] = value
}

// Suicide marks the account self-destructed and clears its balance.
func (v *VerifiedStateView) Suicide(addr common.Address) bool {
	obj := v.getObject(addr)
	if !obj.exists {
		return false
	}
	obj.suicided = true
	obj.balance = new(big.Int)
	return true
}

// HasSuicided reports whether the account self-destructed in this view.
func (v *VerifiedStateView) HasSuicided(addr common.Address) bool {
	return v.getObject(addr).suicided
}

// Exist reports whether the account exists in state, self-destructed
// accounts included.
func (v *VerifiedStateView) Exist(addr common.Address) bool {
	return v.getObject(addr).exists
}

// Empty reports whether the account has zero nonce, zero balance, and no
// code.
func (v *VerifiedStateView) Empty(addr common.Address) bool {
	obj := v.getObject(addr)
	return obj.nonce == 0 && obj.balance.Sign() == 0 && obj.codeHash == emptyCodeHash
}

// PrepareAccessList seeds the warm set for the transaction.
func (v *VerifiedStateView) PrepareAccessList(sender common.Address, dest *common.Address, precompiles []common.Address, txAccesses gethtypes.AccessList) {
	v.accessList = newAccessList()
	v.AddAddressToAccessList(sender)
	if dest != nil {
		v.AddAddressToAccessList(*dest)
	}
	for _, addr := range precompiles {
		v.AddAddressToAccessList(addr)
	}
	for _, el := range txAccesses {
		v.AddAddressToAccessList(el.Address)
		for _, key := range el.StorageKeys {
			v.AddSlotToAccessList(el.Address, key)
		}
	}
}

// AddressInAccessList reports whether the address is warm.
func (v *VerifiedStateView) AddressInAccessList(addr common.Address) bool {
	return v.accessList.ContainsAddress(addr)
}

// SlotInAccessList reports whether the address and slot are warm.
func (v *VerifiedStateView) SlotInAccessList(addr common.Address, slot common.Hash) (addressOk, slotOk bool) {
	return v.accessList.Contains(addr, slot)
}

// AddAddressToAccessList warms the address.
func (v *VerifiedStateView) AddAddressToAccessList(addr common.Address) {
	v.accessList.AddAddress(addr)
}

// AddSlotToAccessList warms the (address, slot) pair.
func (v *VerifiedStateView) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	v.accessList.AddSlot(addr, slot)
}

// Snapshot records the current overlay and returns an identifier for
// RevertToSnapshot.
func (v *VerifiedStateView) Snapshot() int {
	snap := &viewSnapshot{
		objects:    make(map[common.Address]*viewObject, len(v.objects)),
		refund:     v.refund,
		logs:       len(v.logs),
		accessList: v.accessList.Copy(),
	}
	for addr, obj := range v.objects {
		snap.objects[addr] = obj.copy()
	}
	v.snapshots = append(v.snapshots, snap)
	return len(v.snapshots) - 1
}

// RevertToSnapshot rolls the overlay back to the given snapshot. An
// unknown identifier is recorded as a view failure.
func (v *VerifiedStateView) RevertToSnapshot(id int) {
	if id < 0 || id >= len(v.snapshots) {
		v.setError(errors.Errorf("snapshot %d cannot be reverted", id))
		return
	}
	snap := v.snapshots[id]
	v.objects = snap.objects
	v.refund = snap.refund
	v.logs = v.logs[:snap.logs]
	v.accessList = snap.accessList
	v.snapshots = v.snapshots[:id]
}

// AddLog records an emitted log.
func (v *VerifiedStateView) AddLog(l *gethtypes.Log) {
	v.logs = append(v.logs, l)
}

// AddPreimage is a no-op; the view does not record preimages.
func (v *VerifiedStateView) AddPreimage(common.Hash, []byte) {}

// ForEachStorage cannot be served: proofs only cover slots that were
// asked for, never the whole storage of an account.
func (v *VerifiedStateView) ForEachStorage(addr common.Address, cb func(common.Hash, common.Hash) bool) error {
	return errors.Errorf("storage of %#x cannot be enumerated from proofs", addr)
}
