package lightclient

import (
	fssz "github.com/ferranbt/fastssz"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/config/params"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/encoding/ssz"
)

const (
	// ForkVersionByteLength length of fork version byte array.
	ForkVersionByteLength = 4
	// DomainByteLength length of domain byte array.
	DomainByteLength = 4
)

// ComputeSigningRoot computes the root of the object by calculating the hash tree root of the signing data with the given domain.
//
// Spec pseudocode definition:
//
//	def compute_signing_root(ssz_object: SSZObject, domain: Domain) -> Root:
//	    """
//	    Return the signing root for the corresponding signing data.
//	    """
//	    return hash_tree_root(SigningData(
//	        object_root=hash_tree_root(ssz_object),
//	        domain=domain,
//	    ))
func ComputeSigningRoot(object fssz.HashRoot, domain []byte) ([32]byte, error) {
	if len(domain) != DomainByteLength+28 {
		return [32]byte{}, errors.Errorf("domain has length %d instead of expected 32", len(domain))
	}
	objRoot, err := object.HashTreeRoot()
	if err != nil {
		return [32]byte{}, err
	}
	return ssz.SigningDataRoot(objRoot, bytesutil.ToBytes32(domain)), nil
}

// ComputeDomain returns the domain version for BLS private key to sign and verify with a zeroed 4-byte
// array as the fork version.
//
// def compute_domain(domain_type: DomainType, fork_version: Version=None, genesis_validators_root: Root=None) -> Domain:
//
//	"""
//	Return the domain for the ``domain_type`` and ``fork_version``.
//	"""
//	if fork_version is None:
//	    fork_version = GENESIS_FORK_VERSION
//	if genesis_validators_root is None:
//	    genesis_validators_root = Root()  # all bytes zero by default
//	fork_data_root = compute_fork_data_root(fork_version, genesis_validators_root)
//	return Domain(domain_type + fork_data_root[:28])
func ComputeDomain(domainType [DomainByteLength]byte, forkVersion, genesisValidatorsRoot []byte) ([]byte, error) {
	if forkVersion == nil {
		forkVersion = params.BeaconConfig().GenesisForkVersion
	}
	if genesisValidatorsRoot == nil {
		genesisValidatorsRoot = params.BeaconConfig().ZeroHash[:]
	}
	if len(forkVersion) != ForkVersionByteLength {
		return nil, errors.Errorf("fork version has length %d instead of expected %d", len(forkVersion), ForkVersionByteLength)
	}
	forkDataRoot := ssz.ForkDataRoot(bytesutil.ToBytes4(forkVersion), bytesutil.ToBytes32(genesisValidatorsRoot))
	return domain(domainType, forkDataRoot[:]), nil
}

// This returns the bls domain given by the domain type and fork data root.
func domain(domainType [DomainByteLength]byte, forkDataRoot []byte) []byte {
	b := []byte{}
	b = append(b, domainType[:4]...)
	b = append(b, forkDataRoot[:28]...)
	return b
}
