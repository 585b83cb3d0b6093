// Package kv defines a persistent backend for the light client implemented
// using BoltDB, a pure-Go key-value store.
package kv

import (
	"context"
	"os"
	"path"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prysmaticlabs/lumen/config/params"
	"github.com/prysmaticlabs/lumen/io/file"
	"github.com/prysmaticlabs/prombbolt"
	bolt "go.etcd.io/bbolt"
)

const (
	// LightClientDbDirName is the name of the directory containing the
	// light client database.
	LightClientDbDirName = "lightclientdata"

	// DatabaseFileName is the name of the light client database file.
	DatabaseFileName = "lightclient.db"
	// boltAllocSize is the number of bytes the database grows by when it
	// needs more space on disk.
	boltAllocSize = 8 * 1024 * 1024
)

// UpdateCacheSize is the total compressed size of committee period updates
// the cache may hold. A full range request covers at most 128 updates of
// roughly 25Kb each.
var UpdateCacheSize = int64(1 << 23) // 8 Mb

// ErrNotFound wraps bucket reads that produced no value.
var ErrNotFound = errors.New("not found in db")

// ErrNotFoundOriginBlockRoot is returned when no origin checkpoint block
// root has been persisted, meaning the node has never completed a bootstrap.
var ErrNotFoundOriginBlockRoot = errors.Wrap(ErrNotFound, "no origin checkpoint block root")

// Store defines an implementation of the light client Database interface
// using BoltDB as the underlying persistent kv-store.
type Store struct {
	db           *bolt.DB
	databasePath string
	updateCache  *ristretto.Cache
}

// NewKVStore initializes a new boltDB key-value store at the directory
// path specified, creates the kv-buckets based on the schema, and stores
// an open connection db object as a property of the Store struct.
func NewKVStore(_ context.Context, dirPath string) (*Store, error) {
	hasDir, err := file.HasDir(dirPath)
	if err != nil {
		return nil, err
	}
	if !hasDir {
		if err := file.MkdirAll(dirPath); err != nil {
			return nil, err
		}
	}
	datafile := path.Join(dirPath, DatabaseFileName)
	boltDB, err := bolt.Open(
		datafile,
		params.BeaconIoConfig().ReadWritePermissions,
		&bolt.Options{
			Timeout:         params.BeaconIoConfig().BoltTimeout,
			InitialMmapSize: 10e6,
		},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}
	boltDB.AllocSize = boltAllocSize

	updateCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,            // number of keys to track frequency of.
		MaxCost:     UpdateCacheSize, // maximum cost of cache.
		BufferItems: 64,              // number of keys per Get buffer.
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to start update cache")
	}
	kv := &Store{
		db:           boltDB,
		databasePath: dirPath,
		updateCache:  updateCache,
	}

	if err := kv.db.Update(func(tx *bolt.Tx) error {
		return createBuckets(
			tx,
			updatesBucket,
			syncCommitteeBucket,
			headersBucket,
			chainMetadataBucket,
		)
	}); err != nil {
		return nil, err
	}
	err = prometheus.Register(createBoltCollector(kv.db))

	return kv, err
}

// ClearDB removes the previously stored database in the data directory.
func (s *Store) ClearDB() error {
	if _, err := os.Stat(s.databasePath); os.IsNotExist(err) {
		return nil
	}
	prometheus.Unregister(createBoltCollector(s.db))
	if err := os.Remove(path.Join(s.databasePath, DatabaseFileName)); err != nil {
		return errors.Wrap(err, "could not remove database file")
	}
	return nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	prometheus.Unregister(createBoltCollector(s.db))
	return s.db.Close()
}

// DatabasePath at which this database writes files.
func (s *Store) DatabasePath() string {
	return s.databasePath
}

func createBuckets(tx *bolt.Tx, buckets ...[]byte) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

// createBoltCollector returns a prometheus collector specifically configured
// for boltdb.
func createBoltCollector(db *bolt.DB) prometheus.Collector {
	return prombolt.New("boltDB", db)
}
