package sync

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/runtime/logging"
	"github.com/prysmaticlabs/lumen/time/slots"
	"github.com/sirupsen/logrus"
)

// initializeStore gives the store its first trusted state, preferably the
// state a previous run persisted, otherwise bootstrap data fetched for the
// configured checkpoint. Provider faults are retried until the service
// stops. A verification failure is terminal since retrying cannot make
// tainted data verify.
func (s *Service) initializeStore(ctx context.Context) error {
	if !s.cfg.ForceCheckpoint && s.restorePersisted(ctx) {
		return nil
	}
	checkpoint := s.cfg.Checkpoint
	if checkpoint.Epoch > 0 && !checkpoint.WithinWeakSubjectivityWindow(slots.CurrentSlot(s.genesisTime)) {
		log.WithField("checkpoint", checkpoint.String()).Warn(
			"Trust anchor is older than the weak subjectivity window, a long range fork cannot be detected")
	}
	for {
		data, err := s.cfg.Provider.GetBootstrap(ctx, checkpoint.BlockRoot)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).Warn("Could not fetch bootstrap data, retrying")
			if err := waitOrDone(ctx, reconnectPeriod); err != nil {
				return err
			}
			continue
		}
		if err := s.cfg.Store.Bootstrap(checkpoint.BlockRoot, data); err != nil {
			return errors.Wrap(err, "could not verify bootstrap data")
		}
		break
	}
	log.WithFields(logrus.Fields{
		"root": fmt.Sprintf("%#x", checkpoint.BlockRoot),
		"slot": s.cfg.Store.FinalizedHeader().Beacon().Slot,
	}).Info("Bootstrapped store from checkpoint")
	s.persistAnchor(ctx, checkpoint.BlockRoot)
	return nil
}

// restorePersisted reseeds the store from the database when the saved state
// exists and its period is still fresh enough to chain forward from.
func (s *Service) restorePersisted(ctx context.Context) bool {
	if s.cfg.Database == nil {
		return false
	}
	finalized, err := s.cfg.Database.FinalizedHeader(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not read persisted finalized header")
		return false
	}
	if finalized == nil {
		return false
	}
	period := slots.ToSyncCommitteePeriod(finalized.Beacon().Slot)
	currentPeriod := slots.ToSyncCommitteePeriod(slots.CurrentSlot(s.genesisTime))
	if currentPeriod > period+1 {
		log.WithFields(logrus.Fields{
			"slot":   finalized.Beacon().Slot,
			"period": period,
		}).Info("Persisted state is too old to chain forward from, bootstrapping from checkpoint")
		return false
	}
	current, err := s.cfg.Database.SyncCommittee(ctx, period)
	if err != nil {
		log.WithError(err).Warn("Could not read persisted sync committee")
		return false
	}
	if current == nil {
		return false
	}
	// The next committee may legitimately be unknown, a nil value restores
	// the store into the pre rotation state.
	next, err := s.cfg.Database.SyncCommittee(ctx, period+1)
	if err != nil {
		log.WithError(err).Warn("Could not read persisted sync committee")
		return false
	}
	if err := s.cfg.Store.Restore(finalized, current, next); err != nil {
		log.WithError(err).Warn("Could not restore persisted state")
		return false
	}
	log.WithFields(logging.HeaderFields(finalized)).WithField("period", period).
		Info("Restored light client state from database")
	return true
}

// persistAnchor records where this chain of trust started together with the
// bootstrap results, so the next start can resume locally.
func (s *Service) persistAnchor(ctx context.Context, root [32]byte) {
	if s.cfg.Database == nil {
		return
	}
	if err := s.cfg.Database.SaveOriginCheckpointBlockRoot(ctx, root); err != nil {
		log.WithError(err).Error("Could not persist origin checkpoint root")
	}
	if err := s.cfg.Database.SaveFinalizedHeader(ctx, s.cfg.Store.FinalizedHeader()); err != nil {
		log.WithError(err).Error("Could not persist finalized header")
	}
	committee := s.cfg.Store.CurrentSyncCommittee()
	if committee == nil {
		return
	}
	if err := s.cfg.Database.SaveSyncCommittee(ctx, s.cfg.Store.FinalizedPeriod(), committee); err != nil {
		log.WithError(err).Error("Could not persist current sync committee")
	}
}
