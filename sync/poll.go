package sync

import (
	"context"

	"github.com/prysmaticlabs/lumen/api/client/beacon"
	"github.com/prysmaticlabs/lumen/config/params"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/time/slots"
)

// tick runs once per slot. It pulls the latest finality and optimistic
// updates, keeps the committee schedule ahead of the wall clock and fires
// the forced advance once a finality stall exceeds the update timeout.
func (s *Service) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, slots.MultiplySlotBy(1))
	defer cancel()
	if s.health != nil {
		s.health.CheckHealth(ctx)
	}
	currentSlot := slots.CurrentSlot(s.genesisTime)
	s.pollFinality(ctx, currentSlot)
	s.pollOptimistic(ctx, currentSlot)
	s.rotateCommittees(ctx, currentSlot)
	if s.cfg.Store.ForceUpdate(currentSlot) {
		forcedAdvances.Inc()
		log.WithField("slot", currentSlot).Warn("Forced head advance after finality stall")
	}
	s.publishHead()
}

func (s *Service) pollFinality(ctx context.Context, currentSlot primitives.Slot) {
	update, err := s.cfg.Provider.GetFinalityUpdate(ctx)
	if err != nil {
		log.WithError(err).Debug("Could not fetch finality update")
		return
	}
	_, _ = s.applyUpdate(update.ToUpdate(), currentSlot, "finality poll")
}

func (s *Service) pollOptimistic(ctx context.Context, currentSlot primitives.Slot) {
	update, err := s.cfg.Provider.GetOptimisticUpdate(ctx)
	if err != nil {
		log.WithError(err).Debug("Could not fetch optimistic update")
		return
	}
	_, _ = s.applyUpdate(update.ToUpdate(), currentSlot, "optimistic poll")
}

// rotateCommittees fetches committee updates whenever the wall clock has
// entered a period the store holds no committee for, so signature
// verification never falls behind the rotation schedule.
func (s *Service) rotateCommittees(ctx context.Context, currentSlot primitives.Slot) {
	storePeriod := s.cfg.Store.FinalizedPeriod()
	currentPeriod := slots.ToSyncCommitteePeriod(currentSlot)
	if currentPeriod <= storePeriod && s.cfg.Store.NextSyncCommittee() != nil {
		return
	}
	count := uint64(1)
	if currentPeriod > storePeriod {
		count = currentPeriod - storePeriod + 1
	}
	if max := params.BeaconNetworkConfig().MaxRequestLightClientUpdates; count > max {
		count = max
	}
	updates, err := s.cfg.Provider.GetUpdates(ctx, storePeriod, count)
	if err != nil {
		log.WithError(err).Debug("Could not fetch sync committee updates")
		return
	}
	for _, u := range updates {
		if _, err := s.applyUpdate(u, currentSlot, "committee rotation"); err != nil {
			return
		}
	}
}

// streamEvents keeps a light client event subscription open so new heads
// arrive as the beacon node publishes them instead of at the next poll. The
// stream is an optimization only, polling remains the steady fallback, and
// every streamed update passes the same verification as a polled one.
func (s *Service) streamEvents(ctx context.Context) {
	handlers := beacon.EventHandlers{
		OnFinalityUpdate: func(update *lctypes.FinalityUpdate) {
			if applied, _ := s.applyUpdate(update.ToUpdate(), slots.CurrentSlot(s.genesisTime), "event stream"); applied {
				s.publishHead()
			}
		},
		OnOptimisticUpdate: func(update *lctypes.OptimisticUpdate) {
			if applied, _ := s.applyUpdate(update.ToUpdate(), slots.CurrentSlot(s.genesisTime), "event stream"); applied {
				s.publishHead()
			}
		},
	}
	for {
		err := s.cfg.Provider.SubscribeLightClientEvents(ctx, handlers)
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Debug("Event stream ended, relying on polling until it reconnects")
		if err := waitOrDone(ctx, reconnectPeriod); err != nil {
			return
		}
	}
}
