// Package iface defines the actual database interface used by the light
// client node, also containing useful, scoped interfaces such as a
// ReadOnlyDatabase.
package iface

import (
	"context"
	"io"

	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/monitoring/backup"
)

// ReadOnlyDatabase defines a struct which only has read access to database
// methods.
type ReadOnlyDatabase interface {
	// Sync committee update related methods.
	LightClientUpdate(ctx context.Context, period uint64) (*lctypes.Update, error)
	LightClientUpdates(ctx context.Context, startPeriod, endPeriod uint64) ([]*lctypes.Update, error)
	SyncCommittee(ctx context.Context, period uint64) (*lctypes.SyncCommittee, error)
	// Chain head related methods.
	FinalizedHeader(ctx context.Context) (*lctypes.Header, error)
	OriginCheckpointBlockRoot(ctx context.Context) ([32]byte, error)
}

// Database interface with full access.
type Database interface {
	io.Closer
	backup.Exporter
	ReadOnlyDatabase

	SaveLightClientUpdate(ctx context.Context, period uint64, update *lctypes.Update) error
	SaveSyncCommittee(ctx context.Context, period uint64, committee *lctypes.SyncCommittee) error
	SaveFinalizedHeader(ctx context.Context, header *lctypes.Header) error
	SaveOriginCheckpointBlockRoot(ctx context.Context, blockRoot [32]byte) error
	PruneStalePeriods(ctx context.Context, beforePeriod uint64) error

	DatabasePath() string
	ClearDB() error
}
