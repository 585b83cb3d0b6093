package light_client

import (
	"bytes"

	"github.com/prysmaticlabs/go-bitfield"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
)

// SyncCommittee is the set of sync committee member pubkeys for one committee
// period along with their aggregate.
type SyncCommittee struct {
	Pubkeys         [][]byte
	AggregatePubkey []byte
}

// Copy returns a deep copy of the committee.
func (s *SyncCommittee) Copy() *SyncCommittee {
	if s == nil {
		return nil
	}
	return &SyncCommittee{
		Pubkeys:         bytesutil.SafeCopy2dBytes(s.Pubkeys),
		AggregatePubkey: bytesutil.SafeCopyBytes(s.AggregatePubkey),
	}
}

// Equals reports whether both committees hold the same keys.
func (s *SyncCommittee) Equals(other *SyncCommittee) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Pubkeys) != len(other.Pubkeys) {
		return false
	}
	for i := range s.Pubkeys {
		if !bytes.Equal(s.Pubkeys[i], other.Pubkeys[i]) {
			return false
		}
	}
	return bytes.Equal(s.AggregatePubkey, other.AggregatePubkey)
}

// SyncAggregate holds the participation bits and the aggregate BLS signature
// of a sync committee over a beacon block.
type SyncAggregate struct {
	SyncCommitteeBits      bitfield.Bitvector512
	SyncCommitteeSignature []byte
}

// Copy returns a deep copy of the aggregate.
func (s *SyncAggregate) Copy() *SyncAggregate {
	if s == nil {
		return nil
	}
	return &SyncAggregate{
		SyncCommitteeBits:      bytesutil.SafeCopyBytes(s.SyncCommitteeBits),
		SyncCommitteeSignature: bytesutil.SafeCopyBytes(s.SyncCommitteeSignature),
	}
}
