package bls

import (
	"github.com/prysmaticlabs/lumen/crypto/bls/common"
)

// PublicKey represents a BLS public key.
type PublicKey = common.PublicKey

// SecretKey represents a BLS secret or private key.
type SecretKey = common.SecretKey

// Signature represents a BLS signature.
type Signature = common.Signature
