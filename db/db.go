// Package db defines the ability to create a new database for the light
// client node.
package db

import (
	"context"

	"github.com/prysmaticlabs/lumen/db/iface"
	"github.com/prysmaticlabs/lumen/db/kv"
)

// Database defines the necessary methods for the light client's persistent
// backend which may be implemented by any key-value or relational database
// in practice. Prefer the more restrictive interfaces in this package where
// write access is not required.
type Database = iface.Database

// ReadOnlyDatabase exposes only the read methods of the database.
type ReadOnlyDatabase = iface.ReadOnlyDatabase

// NewDB initializes a new DB.
func NewDB(ctx context.Context, dirPath string) (Database, error) {
	return kv.NewKVStore(ctx, dirPath)
}
