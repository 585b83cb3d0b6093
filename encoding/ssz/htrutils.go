package ssz

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/crypto/hash"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
)

var errByteSliceTooLong = errors.New("byte slice longer than max length")

// Uint64Root computes the HashTreeRoot Merkleization of
// a simple uint64 value according to the Ethereum
// Simple Serialize specification.
func Uint64Root(val uint64) [32]byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, val)
	root := bytesutil.ToBytes32(buf)
	return root
}

// MixInLength appends hash length to root
func MixInLength(root [32]byte, length []byte) [32]byte {
	return hash.Hash(append(root[:], length...))
}

// PackByChunk packs a given byte array into 32 byte chunks, right-padding
// the final chunk with zeroes if needed.
func PackByChunk(serializedItems [][]byte) ([][32]byte, error) {
	emptyChunk := [32]byte{}
	if len(serializedItems) == 0 {
		return [][32]byte{emptyChunk}, nil
	} else if len(serializedItems[0]) == 32 {
		// If each item has exactly 32 length, we assume that we have a list of root hashes.
		chunks := make([][32]byte, 0, len(serializedItems))
		for _, c := range serializedItems {
			var chunk [32]byte
			copy(chunk[:], c)
			chunks = append(chunks, chunk)
		}
		return chunks, nil
	}
	// We flatten the list in order to pack its items into byte chunks correctly.
	orderedItems := make([]byte, 0, len(serializedItems)*len(serializedItems[0]))
	for _, item := range serializedItems {
		orderedItems = append(orderedItems, item...)
	}
	if len(orderedItems) == 0 {
		return [][32]byte{emptyChunk}, nil
	}
	numItems := len(orderedItems)
	var chunks [][32]byte
	for i := 0; i < numItems; i += 32 {
		j := i + 32
		if j > numItems {
			j = numItems
		}
		var chunk [32]byte
		copy(chunk[:], orderedItems[i:j])
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// ForkDataRoot computes the HashTreeRoot Merkleization of
// a ForkData struct value according to the Ethereum
// Simple Serialize specification.
func ForkDataRoot(version [4]byte, genesisValidatorsRoot [32]byte) [32]byte {
	fieldRoots := make([][32]byte, 2)
	fieldRoots[0] = bytesutil.ToBytes32(version[:])
	fieldRoots[1] = genesisValidatorsRoot
	return MerkleizeVector(fieldRoots, uint64(len(fieldRoots)))
}

// SigningDataRoot computes the HashTreeRoot Merkleization of
// a SigningData struct value according to the Ethereum
// Simple Serialize specification.
func SigningDataRoot(objectRoot [32]byte, domain [32]byte) [32]byte {
	fieldRoots := make([][32]byte, 2)
	fieldRoots[0] = objectRoot
	fieldRoots[1] = domain
	return MerkleizeVector(fieldRoots, uint64(len(fieldRoots)))
}

// ByteSliceRoot computes the HashTreeRoot Merkleization of a max-length byte
// slice according to the Ethereum Simple Serialize specification. The input
// is chunkified, merkleized against the chunk limit implied by maxLength, and
// the byte length is mixed in.
func ByteSliceRoot(slice []byte, maxLength uint64) ([32]byte, error) {
	if uint64(len(slice)) > maxLength {
		return [32]byte{}, errByteSliceTooLong
	}
	numChunks := (len(slice) + 31) / 32
	chunks := make([][32]byte, numChunks)
	for i := range chunks {
		copy(chunks[i][:], slice[32*i:])
	}
	limit := (maxLength + 31) / 32
	bodyRoot := MerkleizeVector(chunks, limit)
	lengthBuf := make([]byte, 32)
	binary.LittleEndian.PutUint64(lengthBuf, uint64(len(slice)))
	return MixInLength(bodyRoot, lengthBuf), nil
}
