// Package sync keeps a light client store converging on the beacon chain
// head. The service bootstraps the store from a weak subjectivity trust
// anchor, backfills the sync committee chain to the present, then follows
// the chain through per slot polling and the beacon node's event stream.
// Verified heads are published on an event feed and mirrored into the
// execution header window and the database.
package sync

import (
	"context"
	"fmt"
	goruntime "runtime"
	gosync "sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/api/client/beacon"
	"github.com/prysmaticlabs/lumen/async"
	"github.com/prysmaticlabs/lumen/config/params"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/crypto/hash"
	"github.com/prysmaticlabs/lumen/db"
	"github.com/prysmaticlabs/lumen/execution"
	"github.com/prysmaticlabs/lumen/lightclient"
	"github.com/prysmaticlabs/lumen/runtime"
	"github.com/prysmaticlabs/lumen/runtime/logging"
	"github.com/prysmaticlabs/lumen/time/slots"
	"github.com/sirupsen/logrus"
)

var _ runtime.Service = (*Service)(nil)

// reconnectPeriod is how long the service waits before retrying a provider
// call that must eventually succeed for syncing to make progress.
var reconnectPeriod = 5 * time.Second

// pruneInterval is how often persisted periods behind the retention bound
// are deleted from the database.
const pruneInterval = time.Hour

// retainedPeriods is how many committee periods of persisted updates and
// committees are kept behind the finalized period.
const retainedPeriods = 8

// seenUpdatesCacheSize bounds how many content ids of recently processed
// updates are kept for deduplication.
const seenUpdatesCacheSize = 64

// ConsensusProvider is the beacon node surface the service syncs from. It is
// implemented by api/client/beacon.Client.
type ConsensusProvider interface {
	GetBootstrap(ctx context.Context, blockRoot [32]byte) (*lctypes.Bootstrap, error)
	GetUpdates(ctx context.Context, startPeriod, count uint64) ([]*lctypes.Update, error)
	GetFinalityUpdate(ctx context.Context) (*lctypes.FinalityUpdate, error)
	GetOptimisticUpdate(ctx context.Context) (*lctypes.OptimisticUpdate, error)
	SubscribeLightClientEvents(ctx context.Context, handlers beacon.EventHandlers) error
}

// Config options for the sync service.
type Config struct {
	// Store is the verification state machine the service drives.
	Store *lightclient.Store
	// Provider serves bootstrap data, updates and events.
	Provider ConsensusProvider
	// Checkpoint is the weak subjectivity trust anchor used when no usable
	// persisted state exists.
	Checkpoint *beacon.Checkpoint
	// ForceCheckpoint bootstraps from Checkpoint even when persisted state
	// could be restored.
	ForceCheckpoint bool
	// Database persists the finalized header and committees between runs.
	// Optional.
	Database db.Database
	// Headers receives verified execution payload headers. Optional.
	Headers *execution.Headers
	// MaxRoutines is the number of running goroutines tolerated before the
	// status check fails. Zero disables the check.
	MaxRoutines int
}

// Service syncs the light client store against a beacon node.
type Service struct {
	cfg         *Config
	ctx         context.Context
	cancel      context.CancelFunc
	genesisTime uint64

	headFeed *event.Feed
	health   *beacon.NodeHealthTracker

	headLock           gosync.Mutex
	published          bool
	lastOptimisticSlot primitives.Slot
	lastFinalizedSlot  primitives.Slot

	seenUpdates *lru.Cache
}

// NewService initializes the sync service from its config.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, errors.New("sync service requires a light client store")
	}
	if cfg.Provider == nil {
		return nil, errors.New("sync service requires a consensus provider")
	}
	if cfg.Checkpoint == nil {
		return nil, errors.New("sync service requires a trust anchor checkpoint")
	}
	seenUpdates, err := lru.New(seenUpdatesCacheSize)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		cfg:         cfg,
		ctx:         ctx,
		cancel:      cancel,
		genesisTime: params.BeaconConfig().GenesisTime,
		headFeed:    new(event.Feed),
		seenUpdates: seenUpdates,
	}
	if node, ok := cfg.Provider.(beacon.HealthNode); ok {
		s.health = beacon.NewNodeHealthTracker(node)
	}
	return s, nil
}

// Start begins syncing in the background.
func (s *Service) Start() {
	go s.run()
}

func (s *Service) run() {
	if s.health != nil {
		s.health.CheckHealth(s.ctx)
		go s.watchHealth(s.ctx)
	}
	if err := s.initializeStore(s.ctx); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		log.WithError(err).Fatal("Could not initialize light client store")
	}
	if err := s.backfill(s.ctx); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		log.WithError(err).Fatal("Could not backfill sync committee updates")
	}
	s.publishHead()
	go s.streamEvents(s.ctx)
	if s.cfg.Database != nil {
		async.RunEvery(s.ctx, pruneInterval, s.pruneStale)
	}
	// Polls run a third into each slot, giving the beacon node time to see
	// the block before the update is asked for.
	ticker := slots.NewSlotTickerWithOffset(
		time.Unix(int64(s.genesisTime), 0), slots.DivideSlotBy(3), params.BeaconConfig().SecondsPerSlot)
	defer ticker.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C():
			s.tick()
		}
	}
}

// Stop the sync service.
func (s *Service) Stop() error {
	log.Info("Stopping service")
	s.cancel()
	return nil
}

// Status returns an error while the store has not yet reached a verified
// view of the current sync committee period, while the beacon node reports
// itself unhealthy, or when the process runs an excessive number of
// goroutines.
func (s *Service) Status() error {
	if s.cfg.MaxRoutines > 0 && goruntime.NumGoroutine() > s.cfg.MaxRoutines {
		return fmt.Errorf("too many goroutines (%d)", goruntime.NumGoroutine())
	}
	if s.health != nil && !s.health.IsHealthy() {
		return errors.New("beacon node is unhealthy")
	}
	if s.cfg.Store.Status() == lightclient.StatusUnsynced {
		return errors.New("waiting for checkpoint sync")
	}
	currentPeriod := slots.ToSyncCommitteePeriod(slots.CurrentSlot(s.genesisTime))
	if s.cfg.Store.FinalizedPeriod()+1 < currentPeriod {
		return errors.New("backfilling sync committee updates")
	}
	return nil
}

// HeadFeed returns the feed verified head snapshots are published on. Every
// send carries a *lightclient.Head.
func (s *Service) HeadFeed() *event.Feed {
	return s.headFeed
}

// watchHealth logs beacon node health transitions as the tracker observes
// them.
func (s *Service) watchHealth(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case healthy := <-s.health.HealthUpdates():
			if healthy {
				log.Info("Beacon node is healthy")
			} else {
				log.Warn("Beacon node is unhealthy, syncing will resume once it recovers")
			}
		}
	}
}

// applyUpdate runs one update through store verification. Accepted updates
// advance the store and are persisted, irrelevant updates are dropped
// silently and rejected updates are logged and counted. Accepted and
// irrelevant updates are remembered by content id so the identical update
// the provider serves on every poll until the head moves is skipped without
// re-verification. Rejections are never remembered, an update rejected for a
// missing committee becomes acceptable once that committee is known.
func (s *Service) applyUpdate(u *lctypes.Update, currentSlot primitives.Slot, source string) (bool, error) {
	id, known := updateID(u)
	if known && s.seenUpdates.Contains(id) {
		updatesDeduplicated.Inc()
		return false, nil
	}
	err := s.cfg.Store.ApplyUpdate(u, currentSlot)
	if err == nil {
		if known {
			s.seenUpdates.Add(id, struct{}{})
		}
		updatesApplied.Inc()
		s.persistUpdate(u)
		return true, nil
	}
	if errors.Is(err, lightclient.ErrNotRelevant) {
		if known {
			s.seenUpdates.Add(id, struct{}{})
		}
		return false, nil
	}
	updatesRejected.Inc()
	log.WithError(err).WithFields(logging.UpdateFields(u)).WithField("source", source).
		Warn("Rejected light client update")
	return false, err
}

// updateID is a stable content id for an update, a highwayhash sum over its
// SSZ encoding.
func updateID(u *lctypes.Update) (uint64, bool) {
	enc, err := u.MarshalSSZ()
	if err != nil {
		return 0, false
	}
	return hash.FastSum64(enc), true
}

// publishHead hands the store's trusted chain tips to every consumer: the
// head feed, the execution header window and the database. Concurrent
// callers may observe the same head; the slot comparison keeps the published
// view monotonic and deduplicated.
func (s *Service) publishHead() {
	head := s.cfg.Store.Head()
	if head.Optimistic == nil || head.Finalized == nil {
		return
	}
	optimisticSlot := head.Optimistic.Beacon().Slot
	finalizedSlot := head.Finalized.Beacon().Slot

	s.headLock.Lock()
	advancedOptimistic := !s.published || optimisticSlot > s.lastOptimisticSlot
	advancedFinalized := !s.published || finalizedSlot > s.lastFinalizedSlot
	if !advancedOptimistic && !advancedFinalized {
		s.headLock.Unlock()
		return
	}
	if optimisticSlot > s.lastOptimisticSlot {
		s.lastOptimisticSlot = optimisticSlot
	}
	if finalizedSlot > s.lastFinalizedSlot {
		s.lastFinalizedSlot = finalizedSlot
	}
	s.published = true
	s.headLock.Unlock()

	headSlotGauge.Set(float64(optimisticSlot))
	finalizedSlotGauge.Set(float64(finalizedSlot))

	if s.cfg.Headers != nil {
		var optimisticPayload, finalizedPayload *lctypes.ExecutionPayloadHeader
		if advancedOptimistic {
			if payload, err := head.Optimistic.Execution(); err == nil {
				optimisticPayload = payload
			}
		}
		if advancedFinalized {
			if payload, err := head.Finalized.Execution(); err == nil {
				finalizedPayload = payload
			}
		}
		if optimisticPayload != nil || finalizedPayload != nil {
			s.cfg.Headers.Advance(optimisticPayload, finalizedPayload)
		}
	}

	s.headFeed.Send(head)
	fields := logrus.Fields{
		"slot":          optimisticSlot,
		"finalizedSlot": finalizedSlot,
		"status":        head.Status.String(),
	}
	if advancedFinalized {
		log.WithFields(fields).Info("Advanced finalized head")
		s.persistFinalized(head)
	} else {
		log.WithFields(fields).Debug("Advanced optimistic head")
	}
}

// pruneStale drops persisted periods far enough behind the finalized period
// that no restore path can need them.
func (s *Service) pruneStale() {
	if s.cfg.Database == nil {
		return
	}
	period := s.cfg.Store.FinalizedPeriod()
	if period <= retainedPeriods {
		return
	}
	if err := s.cfg.Database.PruneStalePeriods(s.ctx, period-retainedPeriods); err != nil {
		log.WithError(err).Error("Could not prune stale light client data")
	}
}

// persistUpdate stores accepted updates that carry a committee proof, keyed
// by their attested period, so the committee chain survives restarts.
func (s *Service) persistUpdate(u *lctypes.Update) {
	if s.cfg.Database == nil || !u.HasNextSyncCommittee() {
		return
	}
	period := slots.ToSyncCommitteePeriod(u.AttestedHeader().Beacon().Slot)
	if err := s.cfg.Database.SaveLightClientUpdate(s.ctx, period, u); err != nil {
		log.WithError(err).Error("Could not persist light client update")
	}
}

// persistFinalized saves the finalized header and the committees that verify
// it, so a restart can restore without a new checkpoint fetch. Persistence
// failures do not interrupt syncing.
func (s *Service) persistFinalized(head *lightclient.Head) {
	if s.cfg.Database == nil {
		return
	}
	if err := s.cfg.Database.SaveFinalizedHeader(s.ctx, head.Finalized); err != nil {
		log.WithError(err).Error("Could not persist finalized header")
	}
	period := s.cfg.Store.FinalizedPeriod()
	if committee := s.cfg.Store.CurrentSyncCommittee(); committee != nil {
		if err := s.cfg.Database.SaveSyncCommittee(s.ctx, period, committee); err != nil {
			log.WithError(err).Error("Could not persist current sync committee")
		}
	}
	if next := s.cfg.Store.NextSyncCommittee(); next != nil {
		if err := s.cfg.Database.SaveSyncCommittee(s.ctx, period+1, next); err != nil {
			log.WithError(err).Error("Could not persist next sync committee")
		}
	}
}

func waitOrDone(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
