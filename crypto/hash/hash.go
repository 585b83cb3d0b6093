// Package hash includes all hashing functions used throughout the repo.
package hash

import (
	"hash"
	"sync"

	"github.com/minio/highwayhash"
	"github.com/minio/sha256-simd"
)

var sha256Pool = sync.Pool{New: func() interface{} {
	return sha256.New()
}}

// Hash defines a function that returns the sha256 checksum of the data passed in.
// https://github.com/ethereum/consensus-specs/blob/master/specs/phase0/beacon-chain.md#hash
func Hash(data []byte) [32]byte {
	h, ok := sha256Pool.Get().(hash.Hash)
	if !ok {
		h = sha256.New()
	}
	defer sha256Pool.Put(h)
	h.Reset()

	var b [32]byte

	// The hash interface never returns an error, for that reason
	// we are not handling the error below. For reference, it is
	// stated here https://golang.org/pkg/hash/#Hash
	// #nosec G104
	h.Write(data)
	h.Sum(b[:0])

	return b
}

// fastSumHashKey is used to seed highwayhash. The value is all zeros, which
// makes the sums stable across processes so they can be used as cache keys.
var fastSumHashKey = make([]byte, 32)

// FastSum64 returns a hash sum of the input data using highwayhash. This method is not secure, but
// may be used as a fast content id for deduplication and map lookups.
func FastSum64(data []byte) uint64 {
	return highwayhash.Sum64(data, fastSumHashKey)
}
