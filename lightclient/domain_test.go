package lightclient_test

import (
	"bytes"
	"testing"

	"github.com/prysmaticlabs/lumen/config/params"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/encoding/ssz"
	"github.com/prysmaticlabs/lumen/lightclient"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
)

func signedTestHeader() *lctypes.BeaconBlockHeader {
	return &lctypes.BeaconBlockHeader{
		Slot:          100,
		ProposerIndex: 1,
		ParentRoot:    bytesutil.PadTo([]byte{1}, 32),
		StateRoot:     bytesutil.PadTo([]byte{2}, 32),
		BodyRoot:      bytesutil.PadTo([]byte{3}, 32),
	}
}

func TestComputeSigningRoot(t *testing.T) {
	_, err := lightclient.ComputeSigningRoot(signedTestHeader(), bytesutil.PadTo([]byte{'T', 'E', 'S', 'T'}, 32))
	assert.NoError(t, err, "Could not compute signing root of header")

	_, err = lightclient.ComputeSigningRoot(signedTestHeader(), []byte{1, 2, 3})
	require.ErrorContains(t, "domain has length 3 instead of expected 32", err)
}

func TestComputeDomain(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	tests := []struct {
		domainType [4]byte
		domain     []byte
	}{
		{domainType: [4]byte{4, 0, 0, 0}, domain: []byte{4, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
		{domainType: [4]byte{5, 0, 0, 0}, domain: []byte{5, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
		{domainType: [4]byte{7, 0, 0, 0}, domain: []byte{7, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
	}
	for _, tt := range tests {
		if got, err := lightclient.ComputeDomain(tt.domainType, nil, nil); !bytes.Equal(got, tt.domain) {
			t.Errorf("wanted domain version: %d, got: %d", tt.domain, got)
		} else {
			require.NoError(t, err)
		}
	}
}

func TestComputeDomain_MatchesForkDataRoot(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	cfg := params.BeaconConfig()
	forkVersion := cfg.CapellaForkVersion
	domain, err := lightclient.ComputeDomain(cfg.DomainSyncCommittee, forkVersion, cfg.GenesisValidatorsRoot[:])
	require.NoError(t, err)

	forkDataRoot := ssz.ForkDataRoot(bytesutil.ToBytes4(forkVersion), cfg.GenesisValidatorsRoot)
	want := make([]byte, 0, 32)
	want = append(want, cfg.DomainSyncCommittee[:]...)
	want = append(want, forkDataRoot[:28]...)
	require.DeepEqual(t, want, domain)
}

func TestComputeDomain_RejectsBadForkVersion(t *testing.T) {
	_, err := lightclient.ComputeDomain([4]byte{7, 0, 0, 0}, []byte{1, 2, 3}, make([]byte, 32))
	require.ErrorContains(t, "fork version has length 3 instead of expected 4", err)
}
