package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/k0kubun/go-ansi"
	"github.com/paulbellamy/ratecounter"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/config/params"
	"github.com/prysmaticlabs/lumen/time/slots"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// counterSeconds is the window the backfill rate is averaged over.
const counterSeconds = 20

// backfill walks the sync committee update chain from the store's finalized
// period to the wall clock period, applying every update in order. Updates
// arrive in batches capped by the beacon API limit. Provider faults are
// retried, a verification failure is terminal.
func (s *Service) backfill(ctx context.Context) error {
	target := slots.ToSyncCommitteePeriod(slots.CurrentSlot(s.genesisTime))
	start := s.cfg.Store.FinalizedPeriod()
	if start >= target && s.cfg.Store.NextSyncCommittee() != nil {
		return nil
	}
	if start > target {
		return nil
	}
	total := target - start + 1
	log.WithFields(logrus.Fields{
		"startPeriod":   start,
		"currentPeriod": target,
	}).Info("Backfilling sync committee updates")
	bar := initializeProgressBar(int(total), "Backfilling committee updates:")
	counter := ratecounter.NewRateCounter(counterSeconds * time.Second)

	maxBatch := params.BeaconNetworkConfig().MaxRequestLightClientUpdates
	period := start
	for period <= target {
		count := target - period + 1
		if count > maxBatch {
			count = maxBatch
		}
		updates, err := s.cfg.Provider.GetUpdates(ctx, period, count)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).Warn("Could not fetch sync committee updates, retrying")
			if err := waitOrDone(ctx, reconnectPeriod); err != nil {
				return err
			}
			continue
		}
		if len(updates) == 0 {
			// The node has no updates past this period yet.
			break
		}
		currentSlot := slots.CurrentSlot(s.genesisTime)
		for _, u := range updates {
			if _, err := s.applyUpdate(u, currentSlot, "backfill"); err != nil {
				return errors.Wrapf(err, "could not apply update for period %d",
					slots.ToSyncCommitteePeriod(u.SignatureSlot()))
			}
		}
		counter.Incr(int64(len(updates)))
		if err := bar.Add(len(updates)); err != nil {
			log.WithError(err).Debug("Could not update progress bar")
		}
		period += uint64(len(updates))

		rate := float64(counter.Rate()) / counterSeconds
		if rate == 0 {
			rate = 1
		}
		remaining := uint64(0)
		if period <= target {
			remaining = target - period + 1
		}
		timeRemaining := time.Duration(float64(remaining)/rate) * time.Second
		log.WithFields(logrus.Fields{
			"updatesPerSecond": fmt.Sprintf("%.1f", rate),
		}).Infof("Processing sync committee updates %s/%s - estimated time remaining %s",
			humanize.Comma(int64(period-start)), humanize.Comma(int64(total)), timeRemaining)
	}
	log.WithField("period", s.cfg.Store.FinalizedPeriod()).Info("Completed sync committee backfill")
	return nil
}

func initializeProgressBar(numItems int, msg string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		numItems,
		progressbar.OptionFullWidth(),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
		progressbar.OptionSetDescription(msg),
	)
}
