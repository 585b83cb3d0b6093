package kv

// The schema will define how to store and retrieve data from the db.
// Sync committee updates and committees are keyed by their big endian
// encoded committee period so that cursor scans walk periods in order.
var (
	updatesBucket       = []byte("light-client-updates")
	syncCommitteeBucket = []byte("sync-committees")
	headersBucket       = []byte("headers")
	chainMetadataBucket = []byte("chain-metadata")

	// Metadata keys.
	finalizedHeaderKey           = []byte("finalized-header")
	originCheckpointBlockRootKey = []byte("origin-checkpoint-block-root")

	// Fork version prefixes. Objects whose SSZ layout depends on the fork
	// are stored with one of these keys prepended so that reads know which
	// layout to decode.
	altairKey    = []byte("altair")
	bellatrixKey = []byte("bellatrix")
	capellaKey   = []byte("capella")
	denebKey     = []byte("deneb")
)
