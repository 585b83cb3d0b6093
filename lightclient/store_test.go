package lightclient_test

import (
	"testing"

	"github.com/prysmaticlabs/lumen/config/params"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/lightclient"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
	"github.com/prysmaticlabs/lumen/testing/util"
)

// testPeriod is a sync committee period well inside the Capella era on the
// mainnet fork schedule.
const testPeriod = uint64(957)

func periodSlot(period uint64) primitives.Slot {
	cfg := params.BeaconConfig()
	return primitives.Slot(period * uint64(cfg.EpochsPerSyncCommitteePeriod) * uint64(cfg.SlotsPerEpoch))
}

// setupStore bootstraps a fresh store 64 slots into testPeriod and returns
// the fixture builder along with the anchor slot the store trusts.
func setupStore(t *testing.T) (*util.TestLightClient, *lightclient.Store, primitives.Slot) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	l := util.NewTestLightClient(t)
	store := lightclient.NewStore()
	anchor := periodSlot(testPeriod) + 64
	bootstrap, checkpoint := l.BuildBootstrap(anchor)
	require.NoError(t, store.Bootstrap(checkpoint, bootstrap))
	return l, store, anchor
}

// storeState captures everything observable about a store so tests can prove
// a rejected update left it untouched.
type storeState struct {
	status         lightclient.Status
	finalizedRoot  [32]byte
	optimisticRoot [32]byte
	current        *lctypes.SyncCommittee
	next           *lctypes.SyncCommittee
	best           *lctypes.Update
}

func snapshotStore(t *testing.T, s *lightclient.Store) *storeState {
	finalizedRoot, err := s.FinalizedHeader().Beacon().HashTreeRoot()
	require.NoError(t, err)
	optimisticRoot, err := s.OptimisticHeader().Beacon().HashTreeRoot()
	require.NoError(t, err)
	return &storeState{
		status:         s.Status(),
		finalizedRoot:  finalizedRoot,
		optimisticRoot: optimisticRoot,
		current:        s.CurrentSyncCommittee(),
		next:           s.NextSyncCommittee(),
		best:           s.BestValidUpdate(),
	}
}

func requireStoreUnchanged(t *testing.T, s *lightclient.Store, before *storeState) {
	after := snapshotStore(t, s)
	require.Equal(t, before.status, after.status)
	require.Equal(t, before.finalizedRoot, after.finalizedRoot)
	require.Equal(t, before.optimisticRoot, after.optimisticRoot)
	require.DeepEqual(t, before.current, after.current)
	require.DeepEqual(t, before.next, after.next)
	require.DeepEqual(t, before.best, after.best)
}

func TestStore_Bootstrap(t *testing.T) {
	l, store, anchor := setupStore(t)

	require.Equal(t, lightclient.StatusBootstrapped, store.Status())
	require.Equal(t, anchor, store.FinalizedHeader().Beacon().Slot)
	require.Equal(t, anchor, store.OptimisticHeader().Beacon().Slot)
	require.Equal(t, true, store.CurrentSyncCommittee().Equals(l.CurrentCommittee))
	var nilCommittee *lctypes.SyncCommittee
	require.Equal(t, nilCommittee, store.NextSyncCommittee())
	require.Equal(t, testPeriod, store.FinalizedPeriod())

	head := store.Head()
	require.Equal(t, lightclient.StatusBootstrapped, head.Status)
	require.Equal(t, anchor, head.Finalized.Beacon().Slot)
	require.Equal(t, anchor, head.Optimistic.Beacon().Slot)
}

func TestStore_BootstrapChecksCheckpointRoot(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	l := util.NewTestLightClient(t)
	store := lightclient.NewStore()
	bootstrap, checkpoint := l.BuildBootstrap(periodSlot(testPeriod) + 64)
	checkpoint[0] ^= 0xff

	err := store.Bootstrap(checkpoint, bootstrap)
	require.ErrorIs(t, err, lightclient.ErrCheckpointMismatch)
	require.Equal(t, lightclient.StatusUnsynced, store.Status())
	var nilHeader *lctypes.Header
	require.Equal(t, nilHeader, store.FinalizedHeader())
}

func TestStore_BootstrapChecksCommitteeProof(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	l := util.NewTestLightClient(t)
	anchor := periodSlot(testPeriod) + 64

	t.Run("wrong committee", func(t *testing.T) {
		state := l.BuildStateCommitment(l.CurrentCommittee, l.NextCommittee, [32]byte{}, 0)
		header := l.NewTestHeader(anchor, state.Root)
		bootstrap, err := lctypes.NewBootstrap(header, l.NextCommittee, state.CurrentCommitteeBranch)
		require.NoError(t, err)
		checkpoint, err := header.Beacon().HashTreeRoot()
		require.NoError(t, err)

		store := lightclient.NewStore()
		err = store.Bootstrap(checkpoint, bootstrap)
		require.ErrorIs(t, err, lightclient.ErrInvalidCommitteeProof)
		require.Equal(t, lightclient.StatusUnsynced, store.Status())
	})

	t.Run("corrupt branch", func(t *testing.T) {
		state := l.BuildStateCommitment(l.CurrentCommittee, l.NextCommittee, [32]byte{}, 0)
		state.CurrentCommitteeBranch[0][0] ^= 0xff
		header := l.NewTestHeader(anchor, state.Root)
		bootstrap, err := lctypes.NewBootstrap(header, l.CurrentCommittee, state.CurrentCommitteeBranch)
		require.NoError(t, err)
		checkpoint, err := header.Beacon().HashTreeRoot()
		require.NoError(t, err)

		store := lightclient.NewStore()
		err = store.Bootstrap(checkpoint, bootstrap)
		require.ErrorIs(t, err, lightclient.ErrInvalidCommitteeProof)
	})
}

func TestStore_BootstrapChecksHeader(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	l := util.NewTestLightClient(t)
	anchor := periodSlot(testPeriod) + 64

	state := l.BuildStateCommitment(l.CurrentCommittee, l.NextCommittee, [32]byte{}, 0)
	header := l.NewTestHeaderBadExecution(anchor, state.Root)
	bootstrap, err := lctypes.NewBootstrap(header, l.CurrentCommittee, state.CurrentCommitteeBranch)
	require.NoError(t, err)
	checkpoint, err := header.Beacon().HashTreeRoot()
	require.NoError(t, err)

	store := lightclient.NewStore()
	err = store.Bootstrap(checkpoint, bootstrap)
	require.ErrorIs(t, err, lightclient.ErrInvalidExecutionProof)
	require.Equal(t, lightclient.StatusUnsynced, store.Status())
}

func TestStore_ApplyUpdateRequiresBootstrap(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	l := util.NewTestLightClient(t)
	store := lightclient.NewStore()
	attested := periodSlot(testPeriod) + 100

	u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested})
	err := store.ApplyUpdate(u, attested+2)
	require.ErrorIs(t, err, lightclient.ErrNotBootstrapped)
	require.Equal(t, false, store.ForceUpdate(attested+2))
}

func TestStore_ApplyUpdateParticipation(t *testing.T) {
	l, store, anchor := setupStore(t)
	attested := anchor + 100

	t.Run("below two thirds", func(t *testing.T) {
		before := snapshotStore(t, store)
		u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested, Participation: 341})
		err := store.ApplyUpdate(u, attested+2)
		require.ErrorIs(t, err, lightclient.ErrInsufficientParticipation)
		requireStoreUnchanged(t, store, before)
	})

	t.Run("at two thirds", func(t *testing.T) {
		u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested, Participation: 342})
		require.NoError(t, store.ApplyUpdate(u, attested+2))
		require.Equal(t, attested, store.OptimisticHeader().Beacon().Slot)
	})
}

func TestStore_ApplyUpdateRejectsBadSignature(t *testing.T) {
	l, store, anchor := setupStore(t)
	attested := anchor + 100
	before := snapshotStore(t, store)

	u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested, Signers: l.NextKeys})
	err := store.ApplyUpdate(u, attested+2)
	require.ErrorIs(t, err, lightclient.ErrInvalidSignature)
	requireStoreUnchanged(t, store, before)
}

func TestStore_ApplyUpdateRejectsBadFinalityProof(t *testing.T) {
	l, store, anchor := setupStore(t)
	before := snapshotStore(t, store)

	u := l.BuildUpdate(util.UpdateOpts{
		AttestedSlot:          anchor + 200,
		FinalizedSlot:         anchor + 128,
		CorruptFinalityBranch: true,
	})
	err := store.ApplyUpdate(u, anchor+300)
	require.ErrorIs(t, err, lightclient.ErrInvalidFinalityProof)
	requireStoreUnchanged(t, store, before)
}

func TestStore_ApplyUpdateRejectsBadCommitteeProof(t *testing.T) {
	l, store, anchor := setupStore(t)

	t.Run("lying committee", func(t *testing.T) {
		before := snapshotStore(t, store)
		u := l.BuildUpdate(util.UpdateOpts{
			AttestedSlot:  anchor + 200,
			FinalizedSlot: anchor + 128,
			NextCommittee: l.CurrentCommittee,
		})
		err := store.ApplyUpdate(u, anchor+300)
		require.ErrorIs(t, err, lightclient.ErrInvalidCommitteeProof)
		requireStoreUnchanged(t, store, before)
	})

	t.Run("corrupt branch", func(t *testing.T) {
		before := snapshotStore(t, store)
		u := l.BuildUpdate(util.UpdateOpts{
			AttestedSlot:           anchor + 200,
			FinalizedSlot:          anchor + 128,
			NextCommittee:          l.NextCommittee,
			CorruptCommitteeBranch: true,
		})
		err := store.ApplyUpdate(u, anchor+300)
		require.ErrorIs(t, err, lightclient.ErrInvalidCommitteeProof)
		requireStoreUnchanged(t, store, before)
	})
}

func TestStore_ApplyUpdateRejectsBadExecutionBranch(t *testing.T) {
	l, store, anchor := setupStore(t)
	attested := anchor + 100
	before := snapshotStore(t, store)

	u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested, CorruptExecutionBranch: true})
	err := store.ApplyUpdate(u, attested+2)
	require.ErrorIs(t, err, lightclient.ErrInvalidExecutionProof)
	assert.ErrorContains(t, "attested header", err)
	requireStoreUnchanged(t, store, before)
}

func TestStore_ApplyUpdateRejectsBadSlotOrder(t *testing.T) {
	l, store, anchor := setupStore(t)
	attested := anchor + 100

	t.Run("signature in the future", func(t *testing.T) {
		before := snapshotStore(t, store)
		u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested})
		err := store.ApplyUpdate(u, attested)
		require.ErrorIs(t, err, lightclient.ErrInvalidSlotOrder)
		requireStoreUnchanged(t, store, before)
	})

	t.Run("signature not after attested", func(t *testing.T) {
		before := snapshotStore(t, store)
		u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested, SignatureSlot: attested})
		err := store.ApplyUpdate(u, attested+10)
		require.ErrorIs(t, err, lightclient.ErrInvalidSlotOrder)
		requireStoreUnchanged(t, store, before)
	})

	t.Run("finalized after attested", func(t *testing.T) {
		before := snapshotStore(t, store)
		u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested, FinalizedSlot: attested + 10})
		err := store.ApplyUpdate(u, attested+20)
		require.ErrorIs(t, err, lightclient.ErrInvalidSlotOrder)
		requireStoreUnchanged(t, store, before)
	})
}

func TestStore_ApplyUpdateRejectsWrongPeriod(t *testing.T) {
	l, store, anchor := setupStore(t)

	t.Run("next period with unknown committee", func(t *testing.T) {
		before := snapshotStore(t, store)
		attested := periodSlot(testPeriod+1) + 10
		u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested, Signers: l.NextKeys})
		err := store.ApplyUpdate(u, attested+2)
		require.ErrorIs(t, err, lightclient.ErrInvalidPeriod)
		requireStoreUnchanged(t, store, before)
	})

	// Teach the store the next committee, then probe the widened window.
	teach := l.BuildUpdate(util.UpdateOpts{
		AttestedSlot:  anchor + 200,
		FinalizedSlot: anchor + 128,
		NextCommittee: l.NextCommittee,
	})
	require.NoError(t, store.ApplyUpdate(teach, anchor+300))

	t.Run("two periods ahead", func(t *testing.T) {
		before := snapshotStore(t, store)
		attested := periodSlot(testPeriod+2) + 10
		u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested, Signers: l.NextKeys})
		err := store.ApplyUpdate(u, attested+2)
		require.ErrorIs(t, err, lightclient.ErrInvalidPeriod)
		requireStoreUnchanged(t, store, before)
	})

	t.Run("signature period selects the committee", func(t *testing.T) {
		// Attested at the last slot of the store period, signed in the next
		// period. The next committee must carry the signature.
		attested := periodSlot(testPeriod+1) - 1
		u := l.BuildUpdate(util.UpdateOpts{
			AttestedSlot:  attested,
			SignatureSlot: periodSlot(testPeriod + 1),
			Signers:       l.NextKeys,
		})
		require.NoError(t, store.ApplyUpdate(u, attested+10))
		require.Equal(t, attested, store.OptimisticHeader().Beacon().Slot)
	})
}

func TestStore_ApplyUpdateNotRelevant(t *testing.T) {
	l, store, anchor := setupStore(t)

	t.Run("stale attested slot", func(t *testing.T) {
		before := snapshotStore(t, store)
		u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: anchor})
		err := store.ApplyUpdate(u, anchor+10)
		require.ErrorIs(t, err, lightclient.ErrNotRelevant)
		requireStoreUnchanged(t, store, before)
	})

	t.Run("stale but teaches the next committee", func(t *testing.T) {
		u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: anchor, NextCommittee: l.NextCommittee})
		require.NoError(t, store.ApplyUpdate(u, anchor+10))
		// Without finality the committee is only retained, not adopted.
		var nilCommittee *lctypes.SyncCommittee
		require.Equal(t, nilCommittee, store.NextSyncCommittee())
		require.NotNil(t, store.BestValidUpdate())
		require.Equal(t, anchor, store.OptimisticHeader().Beacon().Slot)
	})
}

func TestStore_ApplyUpdateAdvancesOptimisticHead(t *testing.T) {
	l, store, anchor := setupStore(t)
	attested := anchor + 100

	u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested})
	require.NoError(t, store.ApplyUpdate(u, attested+2))

	require.Equal(t, lightclient.StatusOptimistic, store.Status())
	require.Equal(t, attested, store.OptimisticHeader().Beacon().Slot)
	require.Equal(t, anchor, store.FinalizedHeader().Beacon().Slot)
	require.NotNil(t, store.BestValidUpdate())

	// A weaker update behind the optimistic head leaves it in place.
	weaker := l.BuildUpdate(util.UpdateOpts{AttestedSlot: anchor + 50})
	require.NoError(t, store.ApplyUpdate(weaker, attested+2))
	require.Equal(t, attested, store.OptimisticHeader().Beacon().Slot)
}

func TestStore_ApplyUpdateAdvancesFinalizedHead(t *testing.T) {
	l, store, anchor := setupStore(t)

	u := l.BuildUpdate(util.UpdateOpts{
		AttestedSlot:  anchor + 200,
		FinalizedSlot: anchor + 128,
	})
	require.NoError(t, store.ApplyUpdate(u, anchor+300))

	require.Equal(t, lightclient.StatusFinalized, store.Status())
	require.Equal(t, anchor+128, store.FinalizedHeader().Beacon().Slot)
	require.Equal(t, anchor+200, store.OptimisticHeader().Beacon().Slot)
	// Finality progress clears the retained update.
	var nilUpdate *lctypes.Update
	require.Equal(t, nilUpdate, store.BestValidUpdate())

	head := store.Head()
	require.Equal(t, lightclient.StatusFinalized, head.Status)
	require.Equal(t, anchor+128, head.Finalized.Beacon().Slot)
}

func TestStore_ApplyUpdateLearnsNextCommittee(t *testing.T) {
	l, store, anchor := setupStore(t)

	u := l.BuildUpdate(util.UpdateOpts{
		AttestedSlot:  anchor + 200,
		FinalizedSlot: anchor + 128,
		NextCommittee: l.NextCommittee,
	})
	require.NoError(t, store.ApplyUpdate(u, anchor+300))

	require.Equal(t, lightclient.StatusFinalized, store.Status())
	require.Equal(t, true, store.NextSyncCommittee().Equals(l.NextCommittee))
	require.Equal(t, true, store.CurrentSyncCommittee().Equals(l.CurrentCommittee))

	// Re-applying the same update leaves the heads and committees where they
	// are, it only reports that no new finality was proven.
	require.NoError(t, store.ApplyUpdate(u, anchor+300))
	require.Equal(t, lightclient.StatusOptimistic, store.Status())
	require.Equal(t, anchor+128, store.FinalizedHeader().Beacon().Slot)
	require.Equal(t, anchor+200, store.OptimisticHeader().Beacon().Slot)
	require.Equal(t, true, store.NextSyncCommittee().Equals(l.NextCommittee))
}

func TestStore_ApplyUpdateRotatesCommittees(t *testing.T) {
	l, store, anchor := setupStore(t)

	teach := l.BuildUpdate(util.UpdateOpts{
		AttestedSlot:  anchor + 200,
		FinalizedSlot: anchor + 128,
		NextCommittee: l.NextCommittee,
	})
	require.NoError(t, store.ApplyUpdate(teach, anchor+300))
	require.Equal(t, testPeriod, store.FinalizedPeriod())

	// Finality crosses into the next period: the known next committee
	// becomes current and the update's committee takes its place.
	rotate := l.BuildUpdate(util.UpdateOpts{
		AttestedSlot:  periodSlot(testPeriod+1) + 300,
		FinalizedSlot: periodSlot(testPeriod+1) + 200,
		NextCommittee: l.NextCommittee,
		Signers:       l.NextKeys,
	})
	require.NoError(t, store.ApplyUpdate(rotate, periodSlot(testPeriod+1)+400))

	require.Equal(t, lightclient.StatusFinalized, store.Status())
	require.Equal(t, testPeriod+1, store.FinalizedPeriod())
	require.Equal(t, true, store.CurrentSyncCommittee().Equals(l.NextCommittee))

	// The rotated committee now signs within its own period.
	follow := l.BuildUpdate(util.UpdateOpts{
		AttestedSlot:  periodSlot(testPeriod+1) + 400,
		FinalizedSlot: periodSlot(testPeriod+1) + 328,
		Signers:       l.NextKeys,
	})
	require.NoError(t, store.ApplyUpdate(follow, periodSlot(testPeriod+1)+500))
	require.Equal(t, periodSlot(testPeriod+1)+328, store.FinalizedHeader().Beacon().Slot)
}

func TestStore_ForceUpdate(t *testing.T) {
	l, store, anchor := setupStore(t)
	attested := anchor + 300

	u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: attested})
	require.NoError(t, store.ApplyUpdate(u, attested+2))
	require.NotNil(t, store.BestValidUpdate())

	timeout := params.BeaconConfig().UpdateTimeout()

	// Inside the timeout window nothing moves.
	require.Equal(t, false, store.ForceUpdate(anchor+timeout))
	require.Equal(t, anchor, store.FinalizedHeader().Beacon().Slot)

	// Past the timeout the retained update advances the store, substituting
	// its attested header for the finality it never proved.
	require.Equal(t, true, store.ForceUpdate(anchor+timeout+1))
	require.Equal(t, attested, store.FinalizedHeader().Beacon().Slot)
	var nilUpdate *lctypes.Update
	require.Equal(t, nilUpdate, store.BestValidUpdate())

	// Nothing retained, nothing to force.
	require.Equal(t, false, store.ForceUpdate(anchor+timeout+2))
}

func TestStore_HeadSnapshotsAreIsolated(t *testing.T) {
	l, store, anchor := setupStore(t)

	head := store.Head()
	head.Finalized.Beacon().StateRoot[0] ^= 0xff
	fresh := store.Head()
	require.Equal(t, anchor, fresh.Finalized.Beacon().Slot)
	require.NotEqual(t, head.Finalized.Beacon().StateRoot[0], fresh.Finalized.Beacon().StateRoot[0])

	committee := store.CurrentSyncCommittee()
	committee.Pubkeys[0][0] ^= 0xff
	require.Equal(t, true, store.CurrentSyncCommittee().Equals(l.CurrentCommittee))
}

func TestStore_Restore(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	l := util.NewTestLightClient(t)
	anchor := periodSlot(testPeriod) + 64

	state := l.BuildStateCommitment(l.CurrentCommittee, l.NextCommittee, [32]byte{}, 0)
	finalized := l.NewTestHeader(anchor, state.Root)

	store := lightclient.NewStore()
	require.NoError(t, store.Restore(finalized, l.CurrentCommittee, l.NextCommittee))
	require.Equal(t, lightclient.StatusBootstrapped, store.Status())
	require.Equal(t, testPeriod, store.FinalizedPeriod())
	require.Equal(t, true, store.NextSyncCommittee().Equals(l.NextCommittee))

	// A restored store accepts updates right away.
	u := l.BuildUpdate(util.UpdateOpts{AttestedSlot: anchor + 100})
	require.NoError(t, store.ApplyUpdate(u, anchor+200))
	require.Equal(t, anchor+100, store.OptimisticHeader().Beacon().Slot)

	err := lightclient.NewStore().Restore(nil, l.CurrentCommittee, nil)
	assert.ErrorContains(t, "restore", err)
}
