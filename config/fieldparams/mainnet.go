package field_params

const (
	Preset                                = "mainnet"
	SyncCommitteeLength                   = 512 // SYNC_COMMITTEE_SIZE
	RootLength                            = 32  // RootLength defines the byte length of a Merkle root.
	BLSSignatureLength                    = 96  // BLSSignatureLength defines the byte length of a BLSSignature.
	BLSPubkeyLength                       = 48  // BLSPubkeyLength defines the byte length of a BLSPubkey.
	BLSSecretKeyLength                    = 32  // BLSSecretKeyLength defines the byte length of a BLSSecretKey.
	FeeRecipientLength                    = 20  // FeeRecipientLength defines the byte length of a fee recipient.
	LogsBloomLength                       = 256 // LogsBloomLength defines the byte length of a logs bloom.
	ExtraDataMaxLength                    = 32  // ExtraDataMaxLength defines the maximum byte length of payload extra data.
	VersionLength                         = 4   // VersionLength defines the byte length of a fork version number.
	SlotsPerEpoch                         = 32  // SlotsPerEpoch defines the number of slots per epoch.
	SyncAggregateSyncCommitteeBytesLength = 64  // SyncAggregateSyncCommitteeBytesLength defines the length of sync committee bytes in a sync aggregate.
	CurrentSyncCommitteeBranchDepth       = 5   // CurrentSyncCommitteeBranchDepth defines the depth of the current sync committee branch.
	NextSyncCommitteeBranchDepth          = 5   // NextSyncCommitteeBranchDepth defines the depth of the next sync committee branch.
	FinalityBranchDepth                   = 6   // FinalityBranchDepth defines the depth of the finalized checkpoint branch.
	ExecutionBranchDepth                  = 4   // ExecutionBranchDepth defines the depth of the execution payload branch.
)
