package execution

import "github.com/ethereum/go-ethereum/common"

// accessList tracks the warm addresses and slots of a single call for
// EIP-2929 gas accounting. It lives entirely inside a view and is
// discarded with it.
type accessList struct {
	addresses map[common.Address]int
	slots     []map[common.Hash]struct{}
}

func newAccessList() *accessList {
	return &accessList{addresses: make(map[common.Address]int)}
}

// ContainsAddress reports whether the address is warm.
func (al *accessList) ContainsAddress(address common.Address) bool {
	_, ok := al.addresses[address]
	return ok
}

// Contains reports whether the address and the slot are warm.
func (al *accessList) Contains(address common.Address, slot common.Hash) (addressPresent, slotPresent bool) {
	idx, ok := al.addresses[address]
	if !ok {
		return false, false
	}
	if idx == -1 {
		return true, false
	}
	_, slotPresent = al.slots[idx][slot]
	return true, slotPresent
}

// AddAddress warms the address, reporting whether it was cold before.
func (al *accessList) AddAddress(address common.Address) bool {
	if _, present := al.addresses[address]; present {
		return false
	}
	al.addresses[address] = -1
	return true
}

// AddSlot warms the (address, slot) pair, reporting which parts were cold
// before.
func (al *accessList) AddSlot(address common.Address, slot common.Hash) (addrChange, slotChange bool) {
	idx, addrPresent := al.addresses[address]
	if !addrPresent || idx == -1 {
		al.addresses[address] = len(al.slots)
		al.slots = append(al.slots, map[common.Hash]struct{}{slot: {}})
		return !addrPresent, true
	}
	if _, ok := al.slots[idx][slot]; !ok {
		al.slots[idx][slot] = struct{}{}
		return false, true
	}
	return false, false
}

// Copy builds an independent clone, so a snapshot can restore the warm
// set exactly.
func (al *accessList) Copy() *accessList {
	cp := newAccessList()
	for addr, idx := range al.addresses {
		cp.addresses[addr] = idx
	}
	cp.slots = make([]map[common.Hash]struct{}, len(al.slots))
	for i, slots := range al.slots {
		cloned := make(map[common.Hash]struct{}, len(slots))
		for slot := range slots {
			cloned[slot] = struct{}{}
		}
		cp.slots[i] = cloned
	}
	return cp
}
