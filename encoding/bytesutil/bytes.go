// Package bytesutil defines helper methods for converting between byte
// slices, fixed-size arrays and integers.
package bytesutil

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ToBytes32 is a convenience method for converting a byte slice to a fix
// sized 32 byte array. This method will truncate the input if it is larger
// than 32 bytes.
func ToBytes32(x []byte) [32]byte {
	var y [32]byte
	copy(y[:], x)
	return y
}

// ToBytes4 is a convenience method for converting a byte slice to a fix
// sized 4 byte array. This method will truncate the input if it is larger
// than 4 bytes.
func ToBytes4(x []byte) [4]byte {
	var y [4]byte
	copy(y[:], x)
	return y
}

// Bytes4 returns integer x to bytes in little-endian format at the most
// significant 4 bytes.
func Bytes4(x uint64) []byte {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, x)
	return bytes[:4]
}

// Uint64ToBytesLittleEndian conversion.
func Uint64ToBytesLittleEndian(i uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, i)
	return buf
}

// Uint64ToBytesBigEndian conversion.
func Uint64ToBytesBigEndian(i uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, i)
	return buf
}

// BytesToUint64BigEndian conversion. Input slices shorter than 8 bytes are
// zero padded on the right before decoding.
func BytesToUint64BigEndian(b []byte) uint64 {
	if len(b) < 8 {
		b = PadTo(b, 8)
	}
	return binary.BigEndian.Uint64(b)
}

// PadTo pads a byte slice to the given size. If the byte slice is larger than
// the given size, the original slice is returned.
func PadTo(b []byte, size int) []byte {
	if len(b) > size {
		return b
	}
	return append(b, make([]byte, size-len(b))...)
}

// SafeCopyBytes will copy and return a non-nil byte slice, otherwise it
// returns nil.
func SafeCopyBytes(cp []byte) []byte {
	if cp != nil {
		copied := make([]byte, len(cp))
		copy(copied, cp)
		return copied
	}
	return nil
}

// SafeCopy2dBytes will copy and return a non-nil 2d byte slice, otherwise it
// returns nil.
func SafeCopy2dBytes(ary [][]byte) [][]byte {
	if ary != nil {
		copied := make([][]byte, len(ary))
		for i, a := range ary {
			copied[i] = SafeCopyBytes(a)
		}
		return copied
	}
	return nil
}

// ZeroRoot returns whether or not a root is of proper length and non-zero
// hash.
func ZeroRoot(root []byte) bool {
	return string(make([]byte, 32)) == string(root)
}

// IsRoot checks whether the byte slice is a root.
func IsRoot(root []byte) bool {
	return len(root) == 32
}

// Trunc truncates the byte slices to 6 bytes.
func Trunc(x []byte) string {
	str := hexutil.Encode(x)
	if len(str) > 12 {
		return str[:12]
	}
	return str
}

// ReverseByteOrder switches the endianness of a byte slice by reversing its
// order. This function does not modify the actual input bytes.
func ReverseByteOrder(input []byte) []byte {
	b := make([]byte, len(input))
	copy(b, input)
	for i := 0; i < len(b)/2; i++ {
		b[i], b[len(b)-i-1] = b[len(b)-i-1], b[i]
	}
	return b
}
