package node

import (
	"fmt"
	"strings"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/api/client"
	"github.com/prysmaticlabs/lumen/api/client/beacon"
	"github.com/prysmaticlabs/lumen/cmd"
	"github.com/prysmaticlabs/lumen/cmd/lumen/flags"
	"github.com/prysmaticlabs/lumen/config/params"
	"github.com/prysmaticlabs/lumen/db/kv"
	"github.com/prysmaticlabs/lumen/io/prompt"
	prysmTime "github.com/prysmaticlabs/lumen/time"
	"github.com/prysmaticlabs/lumen/time/slots"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const downloadedCheckpointText = `The node is about to bootstrap from a checkpoint it fetched on its own:

    checkpoint: %s
    fetched from: %s

The checkpoint determines which chain this node treats as canonical. Cross check the
block root against a source you trust, such as a block explorer or a friend's node.`

const staleCheckpointText = `The configured checkpoint is older than the weak subjectivity window:

    checkpoint: %s

Bootstrapping from a checkpoint this old means a long range fork served by the
beacon node cannot be detected.`

// resolveCheckpoint decides the trust anchor the sync service bootstraps
// from, in order of preference: the operator provided checkpoint, the anchor
// of persisted state that is still fresh enough to restore, and finally a
// finalized checkpoint downloaded from the checkpoint sync endpoints.
// Downloaded and stale checkpoints require interactive confirmation unless
// the operator accepted untrusted checkpoints up front.
func (n *LightClientNode) resolveCheckpoint(cliCtx *cli.Context) (*beacon.Checkpoint, error) {
	accepted := cliCtx.Bool(flags.AcceptUntrustedCheckpoint.Name)
	if cliCtx.IsSet(flags.CheckpointFlag.Name) {
		checkpoint, err := beacon.ParseCheckpoint(cliCtx.String(flags.CheckpointFlag.Name))
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse value of --%s", flags.CheckpointFlag.Name)
		}
		return checkpoint, n.confirmStaleCheckpoint(checkpoint, accepted)
	}
	if !cliCtx.Bool(flags.ForceCheckpoint.Name) {
		if checkpoint := n.persistedCheckpoint(); checkpoint != nil {
			return checkpoint, nil
		}
	}
	return n.downloadCheckpoint(cliCtx, accepted)
}

// confirmStaleCheckpoint intercepts checkpoints of known epoch that are
// older than the maximum checkpoint age. Checkpoints given as a bare block
// root have no epoch to judge staleness by and pass through.
func (n *LightClientNode) confirmStaleCheckpoint(checkpoint *beacon.Checkpoint, accepted bool) error {
	if checkpoint.Epoch == 0 {
		return nil
	}
	startSlot, err := slots.EpochStart(checkpoint.Epoch)
	if err != nil {
		return err
	}
	startTime, err := slots.ToTime(params.BeaconConfig().GenesisTime, startSlot)
	if err != nil {
		return err
	}
	maxAge := time.Duration(params.BeaconConfig().MaxCheckpointAge) * time.Second
	if prysmTime.Since(startTime) <= maxAge {
		return nil
	}
	if accepted {
		log.WithField("checkpoint", checkpoint.String()).Warn(
			"Checkpoint is older than the weak subjectivity window, a long range fork cannot be detected")
		return nil
	}
	return confirmCheckpoint(fmt.Sprintf(staleCheckpointText, checkpoint.String()))
}

// persistedCheckpoint returns the origin of the persisted state when that
// state is still fresh enough for the sync service to restore from it. The
// origin was confirmed by the operator once, so restarts stay silent.
func (n *LightClientNode) persistedCheckpoint() *beacon.Checkpoint {
	finalized, err := n.db.FinalizedHeader(n.ctx)
	if err != nil {
		log.WithError(err).Warn("Could not read persisted finalized header")
		return nil
	}
	if finalized == nil {
		return nil
	}
	root, err := n.db.OriginCheckpointBlockRoot(n.ctx)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.WithError(err).Warn("Could not read persisted origin checkpoint")
		}
		return nil
	}
	checkpoint := &beacon.Checkpoint{
		Epoch:     slots.ToEpoch(finalized.Beacon().Slot),
		BlockRoot: root,
	}
	if !checkpoint.WithinWeakSubjectivityWindow(slots.CurrentSlot(params.BeaconConfig().GenesisTime)) {
		log.WithField("period", slots.ToSyncCommitteePeriod(finalized.Beacon().Slot)).Info(
			"Persisted state is too old to chain forward from, a new checkpoint is needed")
		return nil
	}
	log.WithField("root", fmt.Sprintf("%#x", root)).Info("Resuming from persisted light client state")
	return checkpoint
}

// downloadCheckpoint fetches a finalized checkpoint from the configured
// checkpoint sync endpoints, trying each in order.
func (n *LightClientNode) downloadCheckpoint(cliCtx *cli.Context, accepted bool) (*beacon.Checkpoint, error) {
	hosts := params.BeaconNetworkConfig().CheckpointSyncURLs
	if len(hosts) == 0 {
		return nil, fmt.Errorf("no usable persisted state and no checkpoint sync endpoints known, provide a checkpoint with --%s", flags.CheckpointFlag.Name)
	}
	log.WithField("hosts", hosts).Info("Downloading a finalized checkpoint")
	checkpoint, host, err := beacon.DownloadCheckpointFromFallbacks(
		n.ctx, hosts, client.WithTimeout(cliCtx.Duration(cmd.ApiTimeoutFlag.Name)))
	if err != nil {
		return nil, errors.Wrap(err, "could not download a checkpoint from the fallback endpoints")
	}
	if accepted {
		log.WithFields(logrus.Fields{
			"checkpoint": checkpoint.String(),
			"host":       host,
		}).Warn("Bootstrapping from a downloaded checkpoint without confirmation")
		return checkpoint, nil
	}
	if err := confirmCheckpoint(fmt.Sprintf(downloadedCheckpointText, checkpoint.String(), host)); err != nil {
		return nil, err
	}
	return checkpoint, nil
}

// confirmCheckpoint walks the operator through accepting a checkpoint the
// node cannot vouch for. Declining aborts startup.
func confirmCheckpoint(text string) error {
	au := aurora.NewAurora(true)
	fmt.Println(au.Bold(text))
	input, err := prompt.DefaultPrompt(au.Bold("Type \"accept\" to continue").String(), "decline")
	if err != nil {
		return err
	}
	if !strings.EqualFold(input, "accept") {
		return errors.New("checkpoint was not accepted, provide a trusted one with --" + flags.CheckpointFlag.Name)
	}
	return nil
}
