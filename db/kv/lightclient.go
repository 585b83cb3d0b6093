package kv

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// SaveLightClientUpdate saves a light client update for a committee period in
// the db.
func (s *Store) SaveLightClientUpdate(ctx context.Context, period uint64, update *lctypes.Update) error {
	_, span := trace.StartSpan(ctx, "lightClientDB.SaveLightClientUpdate")
	defer span.End()

	enc, err := encodeForked(update.Version(), update)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(updatesBucket)
		return bkt.Put(bytesutil.Uint64ToBytesBigEndian(period), enc)
	}); err != nil {
		return err
	}
	s.updateCache.Set(period, update.Copy(), int64(len(enc)))
	return nil
}

// LightClientUpdate returns the light client update for a committee period,
// or nil when none has been stored.
func (s *Store) LightClientUpdate(ctx context.Context, period uint64) (*lctypes.Update, error) {
	_, span := trace.StartSpan(ctx, "lightClientDB.LightClientUpdate")
	defer span.End()

	if cached, ok := s.updateCache.Get(period); ok {
		if update, ok := cached.(*lctypes.Update); ok {
			return update.Copy(), nil
		}
	}
	var update *lctypes.Update
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(updatesBucket)
		enc := bkt.Get(bytesutil.Uint64ToBytesBigEndian(period))
		if enc == nil {
			return nil
		}
		var err error
		update, err = decodeUpdate(enc)
		return err
	})
	return update, err
}

// LightClientUpdates fetches light client updates within a period range,
// ordered by period. The range is clamped to the stored periods, and an
// error is returned when the clamped range is empty or has holes.
func (s *Store) LightClientUpdates(ctx context.Context, startPeriod, endPeriod uint64) ([]*lctypes.Update, error) {
	_, span := trace.StartSpan(ctx, "lightClientDB.LightClientUpdates")
	defer span.End()

	if startPeriod > endPeriod {
		return nil, fmt.Errorf("start period %d is greater than end period %d", startPeriod, endPeriod)
	}

	var updates []*lctypes.Update
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(updatesBucket).Cursor()

		firstPeriodInDb, _ := c.First()
		if firstPeriodInDb == nil {
			return errors.New("no light client updates in the database")
		}
		lastPeriodInDb, _ := c.Last()

		if startPeriod < bytesutil.BytesToUint64BigEndian(firstPeriodInDb) {
			startPeriod = bytesutil.BytesToUint64BigEndian(firstPeriodInDb)
		}
		if endPeriod > bytesutil.BytesToUint64BigEndian(lastPeriodInDb) {
			endPeriod = bytesutil.BytesToUint64BigEndian(lastPeriodInDb)
		}
		if startPeriod > endPeriod {
			return errors.New("no light client updates in this range")
		}

		expectedPeriod := startPeriod
		for k, v := c.Seek(bytesutil.Uint64ToBytesBigEndian(startPeriod)); k != nil && bytesutil.BytesToUint64BigEndian(k) <= endPeriod; k, v = c.Next() {
			if bytesutil.BytesToUint64BigEndian(k) != expectedPeriod {
				return errors.New("missing light client updates for some periods in this range")
			}
			update, err := decodeUpdate(v)
			if err != nil {
				return err
			}
			updates = append(updates, update)
			expectedPeriod++
		}
		if expectedPeriod <= endPeriod {
			return errors.New("missing light client updates for some periods in this range")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updates, nil
}

// PruneStalePeriods deletes committee updates and sync committees stored
// for periods before the given period. Restoring after a restart only needs
// the committees around the finalized period, so callers pass a bound
// safely behind it and the database stays small on long running nodes.
func (s *Store) PruneStalePeriods(ctx context.Context, beforePeriod uint64) error {
	_, span := trace.StartSpan(ctx, "lightClientDB.PruneStalePeriods")
	defer span.End()

	var prunedUpdates []uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, bucketName := range [][]byte{updatesBucket, syncCommitteeBucket} {
			bkt := tx.Bucket(bucketName)
			var stale []uint64
			c := bkt.Cursor()
			for k, _ := c.First(); k != nil && bytesutil.BytesToUint64BigEndian(k) < beforePeriod; k, _ = c.Next() {
				stale = append(stale, bytesutil.BytesToUint64BigEndian(k))
			}
			for _, period := range stale {
				if err := bkt.Delete(bytesutil.Uint64ToBytesBigEndian(period)); err != nil {
					return err
				}
			}
			if bytes.Equal(bucketName, updatesBucket) {
				prunedUpdates = stale
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, period := range prunedUpdates {
		s.updateCache.Del(period)
	}
	return nil
}

// SaveSyncCommittee saves the sync committee active in a committee period.
func (s *Store) SaveSyncCommittee(ctx context.Context, period uint64, committee *lctypes.SyncCommittee) error {
	_, span := trace.StartSpan(ctx, "lightClientDB.SaveSyncCommittee")
	defer span.End()

	enc, err := encode(committee)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(syncCommitteeBucket)
		return bkt.Put(bytesutil.Uint64ToBytesBigEndian(period), enc)
	})
}

// SyncCommittee returns the sync committee stored for a committee period, or
// nil when none has been stored.
func (s *Store) SyncCommittee(ctx context.Context, period uint64) (*lctypes.SyncCommittee, error) {
	_, span := trace.StartSpan(ctx, "lightClientDB.SyncCommittee")
	defer span.End()

	var committee *lctypes.SyncCommittee
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(syncCommitteeBucket)
		enc := bkt.Get(bytesutil.Uint64ToBytesBigEndian(period))
		if enc == nil {
			return nil
		}
		var err error
		committee, err = decodeSyncCommittee(enc)
		return err
	})
	return committee, err
}

// SaveFinalizedHeader saves the latest finalized light client header.
func (s *Store) SaveFinalizedHeader(ctx context.Context, header *lctypes.Header) error {
	_, span := trace.StartSpan(ctx, "lightClientDB.SaveFinalizedHeader")
	defer span.End()

	enc, err := encodeForked(header.Version(), header)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(headersBucket)
		return bkt.Put(finalizedHeaderKey, enc)
	})
}

// FinalizedHeader returns the latest finalized light client header, or nil
// when none has been stored.
func (s *Store) FinalizedHeader(ctx context.Context) (*lctypes.Header, error) {
	_, span := trace.StartSpan(ctx, "lightClientDB.FinalizedHeader")
	defer span.End()

	var header *lctypes.Header
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(headersBucket)
		enc := bkt.Get(finalizedHeaderKey)
		if enc == nil {
			return nil
		}
		var err error
		header, err = decodeHeader(enc)
		return err
	})
	return header, err
}

// SaveOriginCheckpointBlockRoot is used to keep track of the block root used
// for the trusted checkpoint the node bootstrapped from.
func (s *Store) SaveOriginCheckpointBlockRoot(ctx context.Context, blockRoot [32]byte) error {
	_, span := trace.StartSpan(ctx, "lightClientDB.SaveOriginCheckpointBlockRoot")
	defer span.End()

	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(chainMetadataBucket)
		return bkt.Put(originCheckpointBlockRootKey, blockRoot[:])
	})
}

// OriginCheckpointBlockRoot returns the block root of the trusted checkpoint
// the node bootstrapped from.
func (s *Store) OriginCheckpointBlockRoot(ctx context.Context) ([32]byte, error) {
	_, span := trace.StartSpan(ctx, "lightClientDB.OriginCheckpointBlockRoot")
	defer span.End()

	var root [32]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(chainMetadataBucket)
		rootSlice := bkt.Get(originCheckpointBlockRootKey)
		if rootSlice == nil {
			return ErrNotFoundOriginBlockRoot
		}
		root = bytesutil.ToBytes32(rootSlice)
		return nil
	})
	return root, err
}
