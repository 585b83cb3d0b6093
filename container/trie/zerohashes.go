package trie

import (
	"github.com/prysmaticlabs/lumen/crypto/hash"
)

// MaxTrieDepth bounds the depth of a sparse Merkle trie. The deepest trie
// that can be generated or verified has depth MaxTrieDepth-1.
const MaxTrieDepth = 64

// ZeroHashes is a cache of the hash of a zero-filled subtree at every depth,
// with ZeroHashes[0] being the all-zero leaf.
var ZeroHashes = makeZeroHashes()

func makeZeroHashes() [MaxTrieDepth][32]byte {
	var zh [MaxTrieDepth][32]byte
	for i := 0; i < MaxTrieDepth-1; i++ {
		zh[i+1] = hash.Hash(append(zh[i][:], zh[i][:]...))
	}
	return zh
}
