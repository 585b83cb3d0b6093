//go:build blst_disabled

package blst

import "github.com/prysmaticlabs/lumen/crypto/bls/common"

// This stub file exists so the package compiles when the blst bindings are
// disabled for fuzzing builds.
const err = "blst is only supported on linux,darwin,windows"

// SecretKeyFromBytes -- stub
func SecretKeyFromBytes(_ []byte) (common.SecretKey, error) {
	panic(err)
}

// PublicKeyFromBytes -- stub
func PublicKeyFromBytes(_ []byte) (common.PublicKey, error) {
	panic(err)
}

// SignatureFromBytes -- stub
func SignatureFromBytes(_ []byte) (common.Signature, error) {
	panic(err)
}

// AggregatePublicKeys -- stub
func AggregatePublicKeys(_ [][]byte) (common.PublicKey, error) {
	panic(err)
}

// AggregateMultiplePubkeys -- stub
func AggregateMultiplePubkeys(_ []common.PublicKey) common.PublicKey {
	panic(err)
}

// AggregateSignatures -- stub
func AggregateSignatures(_ []common.Signature) common.Signature {
	panic(err)
}

// VerifyMultipleSignatures -- stub
func VerifyMultipleSignatures(_ [][]byte, _ [][32]byte, _ []common.PublicKey) (bool, error) {
	panic(err)
}

// NewAggregateSignature -- stub
func NewAggregateSignature() common.Signature {
	panic(err)
}

// RandKey -- stub
func RandKey() (common.SecretKey, error) {
	panic(err)
}

// VerifyCompressed -- stub
func VerifyCompressed(_, _, _ []byte) bool {
	panic(err)
}

// IsZero -- stub
func IsZero(_ []byte) bool {
	panic(err)
}
