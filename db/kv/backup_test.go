package kv

import (
	"context"
	"os"
	"path"
	"testing"

	"github.com/prysmaticlabs/lumen/config/params"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/testing/require"
	bolt "go.etcd.io/bbolt"
)

func TestStore_Backup(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	head := testCapellaHeader(t, 5000, 18000000)
	require.NoError(t, db.SaveFinalizedHeader(ctx, head))
	require.NoError(t, db.SaveLightClientUpdate(ctx, 12, testUpdate(t, 5000)))

	require.NoError(t, db.Backup(ctx, "", false))

	backupsDir := path.Join(db.databasePath, backupsDirectoryName)
	files, err := os.ReadDir(backupsDir)
	require.NoError(t, err)
	require.Equal(t, 1, len(files), "No backups created")
	require.Equal(t, "lumen_lightclientdb_at_slot_0005000.backup", files[0].Name())

	// The copy must be a readable bolt database holding the same buckets.
	copied, err := bolt.Open(
		path.Join(backupsDir, files[0].Name()),
		params.BeaconIoConfig().ReadWritePermissions,
		&bolt.Options{ReadOnly: true, Timeout: params.BeaconIoConfig().BoltTimeout},
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, copied.Close())
	})

	var headerEnc, updateEnc []byte
	require.NoError(t, copied.View(func(tx *bolt.Tx) error {
		headerEnc = bytesutil.SafeCopyBytes(tx.Bucket(headersBucket).Get(finalizedHeaderKey))
		updateEnc = bytesutil.SafeCopyBytes(tx.Bucket(updatesBucket).Get(bytesutil.Uint64ToBytesBigEndian(12)))
		return nil
	}))
	header, err := decodeHeader(headerEnc)
	require.NoError(t, err)
	require.Equal(t, head.Beacon().Slot, header.Beacon().Slot)
	update, err := decodeUpdate(updateEnc)
	require.NoError(t, err)
	require.Equal(t, primitives.Slot(5000), update.SignatureSlot())
}

func TestStore_Backup_CustomOutputDir(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveFinalizedHeader(ctx, testCapellaHeader(t, 42, 17000000)))

	outputDir := path.Join(t.TempDir(), "offsite")
	require.NoError(t, db.Backup(ctx, outputDir, false))

	files, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Equal(t, 1, len(files), "No backups created")
	require.Equal(t, "lumen_lightclientdb_at_slot_0000042.backup", files[0].Name())
}

func TestStore_Backup_NoFinalizedHeader(t *testing.T) {
	db := setupDB(t)

	err := db.Backup(context.Background(), "", false)
	require.ErrorContains(t, "no finalized header", err)
}
