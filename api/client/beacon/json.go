package beacon

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/runtime/version"
)

// The beacon API serves light client objects as JSON with string fields:
// integers are decimal strings, byte blobs are 0x-prefixed hex. Headers are
// the post-Capella shape carrying the execution payload summary next to the
// beacon header.

type beaconBlockHeaderJson struct {
	Slot          string `json:"slot"`
	ProposerIndex string `json:"proposer_index"`
	ParentRoot    string `json:"parent_root"`
	StateRoot     string `json:"state_root"`
	BodyRoot      string `json:"body_root"`
}

type executionPayloadHeaderJson struct {
	ParentHash       string `json:"parent_hash"`
	FeeRecipient     string `json:"fee_recipient"`
	StateRoot        string `json:"state_root"`
	ReceiptsRoot     string `json:"receipts_root"`
	LogsBloom        string `json:"logs_bloom"`
	PrevRandao       string `json:"prev_randao"`
	BlockNumber      string `json:"block_number"`
	GasLimit         string `json:"gas_limit"`
	GasUsed          string `json:"gas_used"`
	Timestamp        string `json:"timestamp"`
	ExtraData        string `json:"extra_data"`
	BaseFeePerGas    string `json:"base_fee_per_gas"`
	BlockHash        string `json:"block_hash"`
	TransactionsRoot string `json:"transactions_root"`
	WithdrawalsRoot  string `json:"withdrawals_root"`
	BlobGasUsed      string `json:"blob_gas_used,omitempty"`
	ExcessBlobGas    string `json:"excess_blob_gas,omitempty"`
}

type headerJson struct {
	Beacon          *beaconBlockHeaderJson      `json:"beacon"`
	Execution       *executionPayloadHeaderJson `json:"execution,omitempty"`
	ExecutionBranch []string                    `json:"execution_branch,omitempty"`
}

type syncCommitteeJson struct {
	Pubkeys         []string `json:"pubkeys"`
	AggregatePubkey string   `json:"aggregate_pubkey"`
}

type syncAggregateJson struct {
	SyncCommitteeBits      string `json:"sync_committee_bits"`
	SyncCommitteeSignature string `json:"sync_committee_signature"`
}

type bootstrapJson struct {
	Header                     *headerJson        `json:"header"`
	CurrentSyncCommittee       *syncCommitteeJson `json:"current_sync_committee"`
	CurrentSyncCommitteeBranch []string           `json:"current_sync_committee_branch"`
}

type bootstrapResponseJson struct {
	Version string         `json:"version"`
	Data    *bootstrapJson `json:"data"`
}

type updateJson struct {
	AttestedHeader          *headerJson        `json:"attested_header"`
	NextSyncCommittee       *syncCommitteeJson `json:"next_sync_committee,omitempty"`
	NextSyncCommitteeBranch []string           `json:"next_sync_committee_branch,omitempty"`
	FinalizedHeader         *headerJson        `json:"finalized_header,omitempty"`
	FinalityBranch          []string           `json:"finality_branch,omitempty"`
	SyncAggregate           *syncAggregateJson `json:"sync_aggregate"`
	SignatureSlot           string             `json:"signature_slot"`
}

type updateResponseJson struct {
	Version string      `json:"version"`
	Data    *updateJson `json:"data"`
}

type checkpointJson struct {
	Epoch string `json:"epoch"`
	Root  string `json:"root"`
}

type finalityCheckpointsJson struct {
	PreviousJustified *checkpointJson `json:"previous_justified"`
	CurrentJustified  *checkpointJson `json:"current_justified"`
	Finalized         *checkpointJson `json:"finalized"`
}

type finalityCheckpointsResponseJson struct {
	Data *finalityCheckpointsJson `json:"data"`
}

type genesisJson struct {
	GenesisTime           string `json:"genesis_time"`
	GenesisValidatorsRoot string `json:"genesis_validators_root"`
	GenesisForkVersion    string `json:"genesis_fork_version"`
}

type genesisResponseJson struct {
	Data *genesisJson `json:"data"`
}

type signedBeaconBlockHeaderJson struct {
	Message *beaconBlockHeaderJson `json:"message"`
}

type blockHeaderContainerJson struct {
	Root   string                       `json:"root"`
	Header *signedBeaconBlockHeaderJson `json:"header"`
}

type blockHeaderResponseJson struct {
	Data *blockHeaderContainerJson `json:"data"`
}

func decodeHexWithLength(s string, length int) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %q", s)
	}
	if len(b) != length {
		return nil, errors.Errorf("length of %q is %d, wanted %d", s, len(b), length)
	}
	return b, nil
}

func decodeUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "could not parse %q as uint64", s)
	}
	return v, nil
}

// decodeUint256LittleEndian parses a decimal uint256 string into the 32 byte
// little endian layout used by the SSZ payload header.
func decodeUint256LittleEndian(s string) ([]byte, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("could not parse %q as uint256", s)
	}
	if v.BitLen() > 256 {
		return nil, errors.Errorf("%q overflows uint256", s)
	}
	return bytesutil.ReverseByteOrder(v.FillBytes(make([]byte, 32))), nil
}

func decodeBranch(branch []string) ([][]byte, error) {
	nodes := make([][]byte, len(branch))
	for i, s := range branch {
		node, err := decodeHexWithLength(s, fieldparams.RootLength)
		if err != nil {
			return nil, errors.Wrapf(err, "branch node %d", i)
		}
		nodes[i] = node
	}
	return nodes, nil
}

func decodeBeaconHeader(j *beaconBlockHeaderJson) (*lctypes.BeaconBlockHeader, error) {
	if j == nil {
		return nil, errors.New("beacon header missing")
	}
	slot, err := decodeUint(j.Slot)
	if err != nil {
		return nil, errors.Wrap(err, "slot")
	}
	proposerIndex, err := decodeUint(j.ProposerIndex)
	if err != nil {
		return nil, errors.Wrap(err, "proposer index")
	}
	parentRoot, err := decodeHexWithLength(j.ParentRoot, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "parent root")
	}
	stateRoot, err := decodeHexWithLength(j.StateRoot, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "state root")
	}
	bodyRoot, err := decodeHexWithLength(j.BodyRoot, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "body root")
	}
	return &lctypes.BeaconBlockHeader{
		Slot:          primitives.Slot(slot),
		ProposerIndex: primitives.ValidatorIndex(proposerIndex),
		ParentRoot:    parentRoot,
		StateRoot:     stateRoot,
		BodyRoot:      bodyRoot,
	}, nil
}

func decodeExecutionHeader(j *executionPayloadHeaderJson) (*lctypes.ExecutionPayloadHeader, error) {
	if j == nil {
		return nil, errors.New("execution payload header missing")
	}
	parentHash, err := decodeHexWithLength(j.ParentHash, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "parent hash")
	}
	feeRecipient, err := decodeHexWithLength(j.FeeRecipient, fieldparams.FeeRecipientLength)
	if err != nil {
		return nil, errors.Wrap(err, "fee recipient")
	}
	stateRoot, err := decodeHexWithLength(j.StateRoot, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "state root")
	}
	receiptsRoot, err := decodeHexWithLength(j.ReceiptsRoot, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "receipts root")
	}
	logsBloom, err := decodeHexWithLength(j.LogsBloom, fieldparams.LogsBloomLength)
	if err != nil {
		return nil, errors.Wrap(err, "logs bloom")
	}
	prevRandao, err := decodeHexWithLength(j.PrevRandao, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "prev randao")
	}
	blockNumber, err := decodeUint(j.BlockNumber)
	if err != nil {
		return nil, errors.Wrap(err, "block number")
	}
	gasLimit, err := decodeUint(j.GasLimit)
	if err != nil {
		return nil, errors.Wrap(err, "gas limit")
	}
	gasUsed, err := decodeUint(j.GasUsed)
	if err != nil {
		return nil, errors.Wrap(err, "gas used")
	}
	timestamp, err := decodeUint(j.Timestamp)
	if err != nil {
		return nil, errors.Wrap(err, "timestamp")
	}
	extraData, err := hexutil.Decode(j.ExtraData)
	if err != nil {
		return nil, errors.Wrap(err, "extra data")
	}
	if len(extraData) > fieldparams.ExtraDataMaxLength {
		return nil, errors.Errorf("extra data of %d bytes exceeds the maximum of %d", len(extraData), fieldparams.ExtraDataMaxLength)
	}
	baseFee, err := decodeUint256LittleEndian(j.BaseFeePerGas)
	if err != nil {
		return nil, errors.Wrap(err, "base fee per gas")
	}
	blockHash, err := decodeHexWithLength(j.BlockHash, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "block hash")
	}
	transactionsRoot, err := decodeHexWithLength(j.TransactionsRoot, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "transactions root")
	}
	withdrawalsRoot, err := decodeHexWithLength(j.WithdrawalsRoot, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "withdrawals root")
	}
	h := &lctypes.ExecutionPayloadHeader{
		ParentHash:       parentHash,
		FeeRecipient:     feeRecipient,
		StateRoot:        stateRoot,
		ReceiptsRoot:     receiptsRoot,
		LogsBloom:        logsBloom,
		PrevRandao:       prevRandao,
		BlockNumber:      blockNumber,
		GasLimit:         gasLimit,
		GasUsed:          gasUsed,
		Timestamp:        timestamp,
		ExtraData:        extraData,
		BaseFeePerGas:    baseFee,
		BlockHash:        blockHash,
		TransactionsRoot: transactionsRoot,
		WithdrawalsRoot:  withdrawalsRoot,
	}
	if j.BlobGasUsed != "" {
		used, err := decodeUint(j.BlobGasUsed)
		if err != nil {
			return nil, errors.Wrap(err, "blob gas used")
		}
		h.BlobGasUsed = &used
	}
	if j.ExcessBlobGas != "" {
		excess, err := decodeUint(j.ExcessBlobGas)
		if err != nil {
			return nil, errors.Wrap(err, "excess blob gas")
		}
		h.ExcessBlobGas = &excess
	}
	return h, nil
}

func decodeHeader(v int, j *headerJson) (*lctypes.Header, error) {
	if j == nil {
		return nil, errors.New("header missing")
	}
	beacon, err := decodeBeaconHeader(j.Beacon)
	if err != nil {
		return nil, err
	}
	if v < version.Capella {
		return lctypes.NewHeaderAltair(beacon)
	}
	execution, err := decodeExecutionHeader(j.Execution)
	if err != nil {
		return nil, err
	}
	branch, err := decodeBranch(j.ExecutionBranch)
	if err != nil {
		return nil, errors.Wrap(err, "execution branch")
	}
	switch v {
	case version.Capella:
		return lctypes.NewHeaderCapella(beacon, execution, branch)
	case version.Deneb:
		return lctypes.NewHeaderDeneb(beacon, execution, branch)
	default:
		return nil, errors.Wrap(version.ErrUnsupportedVersion, version.String(v))
	}
}

func decodeSyncCommittee(j *syncCommitteeJson) (*lctypes.SyncCommittee, error) {
	if j == nil {
		return nil, errors.New("sync committee missing")
	}
	if len(j.Pubkeys) != fieldparams.SyncCommitteeLength {
		return nil, errors.Errorf("committee has %d pubkeys, wanted %d", len(j.Pubkeys), fieldparams.SyncCommitteeLength)
	}
	pubkeys := make([][]byte, len(j.Pubkeys))
	for i, p := range j.Pubkeys {
		key, err := decodeHexWithLength(p, fieldparams.BLSPubkeyLength)
		if err != nil {
			return nil, errors.Wrapf(err, "pubkey %d", i)
		}
		pubkeys[i] = key
	}
	aggregate, err := decodeHexWithLength(j.AggregatePubkey, fieldparams.BLSPubkeyLength)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate pubkey")
	}
	return &lctypes.SyncCommittee{
		Pubkeys:         pubkeys,
		AggregatePubkey: aggregate,
	}, nil
}

func decodeSyncAggregate(j *syncAggregateJson) (*lctypes.SyncAggregate, error) {
	if j == nil {
		return nil, errors.New("sync aggregate missing")
	}
	bits, err := decodeHexWithLength(j.SyncCommitteeBits, fieldparams.SyncAggregateSyncCommitteeBytesLength)
	if err != nil {
		return nil, errors.Wrap(err, "committee bits")
	}
	signature, err := decodeHexWithLength(j.SyncCommitteeSignature, fieldparams.BLSSignatureLength)
	if err != nil {
		return nil, errors.Wrap(err, "committee signature")
	}
	return &lctypes.SyncAggregate{
		SyncCommitteeBits:      bitfield.Bitvector512(bits),
		SyncCommitteeSignature: signature,
	}, nil
}

func decodeBootstrap(forkName string, j *bootstrapJson) (*lctypes.Bootstrap, error) {
	v, err := version.FromString(forkName)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, errors.New("bootstrap missing")
	}
	header, err := decodeHeader(v, j.Header)
	if err != nil {
		return nil, errors.Wrap(err, "header")
	}
	committee, err := decodeSyncCommittee(j.CurrentSyncCommittee)
	if err != nil {
		return nil, errors.Wrap(err, "current sync committee")
	}
	branch, err := decodeBranch(j.CurrentSyncCommitteeBranch)
	if err != nil {
		return nil, errors.Wrap(err, "current sync committee branch")
	}
	return lctypes.NewBootstrap(header, committee, branch)
}

// decodeUpdate translates one versioned update into the wrapped type. The
// next sync committee and the finalized header are optional on the wire;
// nodes either omit them or send zero filled objects, and both forms decode
// to an update without the matching capability.
func decodeUpdate(forkName string, j *updateJson) (*lctypes.Update, error) {
	v, err := version.FromString(forkName)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, errors.New("update missing")
	}
	attested, err := decodeHeader(v, j.AttestedHeader)
	if err != nil {
		return nil, errors.Wrap(err, "attested header")
	}
	var committee *lctypes.SyncCommittee
	var committeeBranch [][]byte
	if j.NextSyncCommittee != nil {
		committee, err = decodeSyncCommittee(j.NextSyncCommittee)
		if err != nil {
			return nil, errors.Wrap(err, "next sync committee")
		}
		committeeBranch, err = decodeBranch(j.NextSyncCommitteeBranch)
		if err != nil {
			return nil, errors.Wrap(err, "next sync committee branch")
		}
	}
	var finalized *lctypes.Header
	var finalityBranch [][]byte
	if j.FinalizedHeader != nil {
		finalized, err = decodeHeader(v, j.FinalizedHeader)
		if err != nil {
			return nil, errors.Wrap(err, "finalized header")
		}
		finalityBranch, err = decodeBranch(j.FinalityBranch)
		if err != nil {
			return nil, errors.Wrap(err, "finality branch")
		}
	}
	aggregate, err := decodeSyncAggregate(j.SyncAggregate)
	if err != nil {
		return nil, errors.Wrap(err, "sync aggregate")
	}
	signatureSlot, err := decodeUint(j.SignatureSlot)
	if err != nil {
		return nil, errors.Wrap(err, "signature slot")
	}
	return lctypes.NewUpdate(
		attested,
		committee,
		committeeBranch,
		finalized,
		finalityBranch,
		aggregate,
		primitives.Slot(signatureSlot),
	)
}

func decodeCheckpoint(j *checkpointJson) (*Checkpoint, error) {
	if j == nil {
		return nil, errors.New("checkpoint missing")
	}
	epoch, err := decodeUint(j.Epoch)
	if err != nil {
		return nil, errors.Wrap(err, "epoch")
	}
	root, err := decodeHexWithLength(j.Root, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "root")
	}
	return &Checkpoint{
		Epoch:     primitives.Epoch(epoch),
		BlockRoot: bytesutil.ToBytes32(root),
	}, nil
}
