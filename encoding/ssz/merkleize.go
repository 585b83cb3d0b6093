package ssz

import (
	"github.com/prysmaticlabs/lumen/container/trie"
	"github.com/prysmaticlabs/lumen/crypto/hash/htr"
)

const (
	mask0 = ^uint64((1 << (1 << iota)) - 1)
	mask1
	mask2
	mask3
	mask4
	mask5
)

const (
	bit0 = uint8(1 << iota)
	bit1
	bit2
	bit3
	bit4
	bit5
)

// Depth returns the merkle tree depth needed to hold v leaves, via a binary
// search over the bits of v-1 so that exact powers of two are not rounded
// up. Zero and one leaf trees have depth zero.
//
//	(in out): (0 0), (1 0), (2 1), (3 2), (4 2), (5 3), (8 3), (9 4)
func Depth(v uint64) (out uint8) {
	if v <= 1 {
		return 0
	}
	v--
	if v&mask5 != 0 {
		v >>= bit5
		out |= bit5
	}
	if v&mask4 != 0 {
		v >>= bit4
		out |= bit4
	}
	if v&mask3 != 0 {
		v >>= bit3
		out |= bit3
	}
	if v&mask2 != 0 {
		v >>= bit2
		out |= bit2
	}
	if v&mask1 != 0 {
		v >>= bit1
		out |= bit1
	}
	if v&mask0 != 0 {
		out |= bit0
	}
	out++
	return
}

// MerkleizeVector hashes a list of 32 byte leaves into the root of a tree
// padded up to length leaves with zero hashes, one layer at a time through
// the vectorized sha256 routine.
func MerkleizeVector(elements [][32]byte, length uint64) [32]byte {
	depth := Depth(length)
	if len(elements) == 0 {
		return trie.ZeroHashes[depth]
	}
	for i := uint8(0); i < depth; i++ {
		if len(elements)%2 == 1 {
			elements = append(elements, trie.ZeroHashes[i])
		}
		elements = htr.VectorizedSha256(elements)
	}
	return elements[0]
}
