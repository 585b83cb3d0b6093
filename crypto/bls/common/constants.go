package common

// ZeroSecretKey is the all zero scalar, forbidden as a secret key.
var ZeroSecretKey = [32]byte{}

// InfinitePublicKey is the compressed serialization of the G1 point at infinity.
var InfinitePublicKey = [48]byte{0xC0}

// InfiniteSignature is the compressed serialization of the G2 point at infinity.
var InfiniteSignature = [96]byte{0xC0}
