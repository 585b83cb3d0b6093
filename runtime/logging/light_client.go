package logging

import (
	lightclient "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/sirupsen/logrus"
)

// UpdateFields extracts a standard set of fields from a light client update
// into a logrus.Fields struct which can be passed to log.WithFields.
func UpdateFields(u *lightclient.Update) logrus.Fields {
	fields := logrus.Fields{
		"attestedSlot":  u.AttestedHeader().Beacon().Slot,
		"signatureSlot": u.SignatureSlot(),
		"participation": u.SyncAggregate().SyncCommitteeBits.Count(),
		"hasCommittee":  u.HasNextSyncCommittee(),
		"hasFinality":   u.HasFinality(),
	}
	if u.HasFinality() {
		fields["finalizedSlot"] = u.FinalizedHeader().Beacon().Slot
	}
	return fields
}

// HeaderFields extracts a standard set of fields from a light client header
// into a logrus.Fields struct which can be passed to log.WithFields.
func HeaderFields(h *lightclient.Header) logrus.Fields {
	root, err := h.Beacon().HashTreeRoot()
	if err != nil {
		return logrus.Fields{"slot": h.Beacon().Slot}
	}
	return logrus.Fields{
		"slot":          h.Beacon().Slot,
		"proposerIndex": h.Beacon().ProposerIndex,
		"blockRoot":     bytesutil.Trunc(root[:]),
		"stateRoot":     bytesutil.Trunc(h.Beacon().StateRoot),
	}
}
