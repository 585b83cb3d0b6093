package beacon

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/api/client"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/time/slots"
	"github.com/sirupsen/logrus"
)

// Checkpoint identifies a finalized block by root and epoch. It is the trust
// anchor a light client bootstraps from: everything verified afterwards
// chains back to this root.
type Checkpoint struct {
	Epoch     primitives.Epoch
	BlockRoot [32]byte
}

// String returns the standard string representation of a Checkpoint.
// The format is a hex-encoded block root, followed by the epoch, separated by a colon. For example:
// "0x1c35540cac127315fabb6bf29181f2ae0de1a3fc909d2e76ba771e61312cc49a:74888"
func (c *Checkpoint) String() string {
	return fmt.Sprintf("%#x:%d", c.BlockRoot, c.Epoch)
}

// ParseCheckpoint parses the string forms "0x<block_root>" and
// "0x<block_root>:<epoch>". A bare root parses with epoch zero, which skips
// the age check a known epoch would allow.
func ParseCheckpoint(s string) (*Checkpoint, error) {
	rootPart := s
	var epoch uint64
	if i := strings.LastIndex(s, ":"); i >= 0 {
		rootPart = s[:i]
		var err error
		epoch, err = strconv.ParseUint(s[i+1:], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse checkpoint epoch from %q", s)
		}
	}
	root, err := hexutil.Decode(rootPart)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse checkpoint root from %q", s)
	}
	if !bytesutil.IsRoot(root) {
		return nil, errors.Errorf("checkpoint root in %q is %d bytes, wanted 32", s, len(root))
	}
	return &Checkpoint{
		Epoch:     primitives.Epoch(epoch),
		BlockRoot: bytesutil.ToBytes32(root),
	}, nil
}

// WithinWeakSubjectivityWindow reports whether the checkpoint is younger than
// two sync committee periods at the given wall clock slot. An older anchor
// leaves the sync protocol unable to tell the canonical chain from a long
// range fork, so callers are expected to demand explicit user confirmation
// before trusting one.
func (c *Checkpoint) WithinWeakSubjectivityWindow(current primitives.Slot) bool {
	checkpointSlot, err := slots.EpochStart(c.Epoch)
	if err != nil {
		return false
	}
	return slots.ToSyncCommitteePeriod(current) <= slots.ToSyncCommitteePeriod(checkpointSlot)+1
}

// DownloadFinalizedCheckpoint asks one beacon node for its latest finalized
// checkpoint. The finality checkpoints endpoint is preferred; nodes that do
// not serve it fall back to the finalized block header, whose slot places the
// checkpoint epoch.
func DownloadFinalizedCheckpoint(ctx context.Context, c *Client) (*Checkpoint, error) {
	cp, err := c.GetFinalizedCheckpoint(ctx, IdHead)
	if err == nil {
		if bytesutil.ZeroRoot(cp.BlockRoot[:]) {
			return nil, errors.New("remote node has not finalized past genesis")
		}
		return cp, nil
	}
	// a 404/405 is expected from endpoints that do not serve finality checkpoints
	if !errors.Is(err, client.ErrNotOK) {
		return nil, errors.Wrap(err, "unexpected API response for finality checkpoints")
	}
	log.WithField("endpoint", c.NodeURL()).Debug("Falling back to finalized header checkpoint derivation")
	root, header, err := c.GetBlockHeader(ctx, IdFinalized)
	if err != nil {
		return nil, errors.Wrap(err, "error requesting finalized block header")
	}
	if bytesutil.ZeroRoot(root[:]) {
		return nil, errors.New("remote node served a zero finalized block root")
	}
	return &Checkpoint{
		Epoch:     slots.ToEpoch(header.Slot),
		BlockRoot: root,
	}, nil
}

// DownloadCheckpointFromFallbacks queries the configured checkpoint sync
// endpoints in order and returns the first finalized checkpoint any of them
// serves, along with the host that served it. A checkpoint obtained this way
// is untrusted until bootstrap proves the committee against it, and callers
// decide how much ceremony to wrap around accepting one.
func DownloadCheckpointFromFallbacks(ctx context.Context, hosts []string, opts ...client.ClientOpt) (*Checkpoint, string, error) {
	if len(hosts) == 0 {
		return nil, "", errors.New("no checkpoint sync endpoints configured")
	}
	for _, host := range hosts {
		cl, err := NewClient(host, opts...)
		if err != nil {
			log.WithError(err).WithField("endpoint", host).Warn("Skipping malformed checkpoint sync endpoint")
			continue
		}
		cp, err := DownloadFinalizedCheckpoint(ctx, cl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			log.WithError(err).WithField("endpoint", host).Warn("Could not download checkpoint from endpoint")
			continue
		}
		fields := logrus.Fields{"endpoint": host, "checkpoint": cp.String()}
		if nv, err := cl.GetNodeVersion(ctx); err == nil {
			fields["implementation"] = nv.implementation
			fields["version"] = nv.semver
		}
		log.WithFields(fields).Info("Downloaded finalized checkpoint")
		return cp, host, nil
	}
	return nil, "", errors.New("no checkpoint sync endpoint could serve a finalized checkpoint")
}
