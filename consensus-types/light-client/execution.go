package light_client

import (
	"github.com/pkg/errors"
	consensustypes "github.com/prysmaticlabs/lumen/consensus-types"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/runtime/version"
)

var errPayloadVersionMismatch = errors.New("execution payload fields do not match fork version")

// ExecutionPayloadHeader is the SSZ summary of an execution payload as it
// appears inside a light client header. The struct is a superset across the
// Capella and Deneb layouts. BlobGasUsed and ExcessBlobGas were introduced in
// Deneb and are nil for Capella payloads, which also selects the hash tree
// root layout.
type ExecutionPayloadHeader struct {
	ParentHash       []byte
	FeeRecipient     []byte
	StateRoot        []byte
	ReceiptsRoot     []byte
	LogsBloom        []byte
	PrevRandao       []byte
	BlockNumber      uint64
	GasLimit         uint64
	GasUsed          uint64
	Timestamp        uint64
	ExtraData        []byte
	BaseFeePerGas    []byte
	BlockHash        []byte
	TransactionsRoot []byte
	WithdrawalsRoot  []byte
	BlobGasUsed      *uint64
	ExcessBlobGas    *uint64
}

// Version derives the fork version of the payload header from the presence of
// the Deneb blob gas fields.
func (e *ExecutionPayloadHeader) Version() int {
	if e.BlobGasUsed != nil || e.ExcessBlobGas != nil {
		return version.Deneb
	}
	return version.Capella
}

// IsNil checks if the underlying data is nil.
func (e *ExecutionPayloadHeader) IsNil() bool {
	return e == nil
}

func (e *ExecutionPayloadHeader) matchesVersion(v int) error {
	if e.Version() != v {
		return errors.Wrap(errPayloadVersionMismatch, version.String(v))
	}
	if v >= version.Deneb && (e.BlobGasUsed == nil || e.ExcessBlobGas == nil) {
		return errors.Wrap(errPayloadVersionMismatch, "missing blob gas fields")
	}
	return nil
}

// BlobGas returns the Deneb blob gas fields of the payload header.
func (e *ExecutionPayloadHeader) BlobGas() (used, excess uint64, err error) {
	if e.Version() < version.Deneb {
		return 0, 0, consensustypes.ErrNotSupported("BlobGas", e.Version())
	}
	return *e.BlobGasUsed, *e.ExcessBlobGas, nil
}

// Copy returns a deep copy of the payload header.
func (e *ExecutionPayloadHeader) Copy() *ExecutionPayloadHeader {
	if e == nil {
		return nil
	}
	c := &ExecutionPayloadHeader{
		ParentHash:       bytesutil.SafeCopyBytes(e.ParentHash),
		FeeRecipient:     bytesutil.SafeCopyBytes(e.FeeRecipient),
		StateRoot:        bytesutil.SafeCopyBytes(e.StateRoot),
		ReceiptsRoot:     bytesutil.SafeCopyBytes(e.ReceiptsRoot),
		LogsBloom:        bytesutil.SafeCopyBytes(e.LogsBloom),
		PrevRandao:       bytesutil.SafeCopyBytes(e.PrevRandao),
		BlockNumber:      e.BlockNumber,
		GasLimit:         e.GasLimit,
		GasUsed:          e.GasUsed,
		Timestamp:        e.Timestamp,
		ExtraData:        bytesutil.SafeCopyBytes(e.ExtraData),
		BaseFeePerGas:    bytesutil.SafeCopyBytes(e.BaseFeePerGas),
		BlockHash:        bytesutil.SafeCopyBytes(e.BlockHash),
		TransactionsRoot: bytesutil.SafeCopyBytes(e.TransactionsRoot),
		WithdrawalsRoot:  bytesutil.SafeCopyBytes(e.WithdrawalsRoot),
	}
	if e.BlobGasUsed != nil {
		used := *e.BlobGasUsed
		c.BlobGasUsed = &used
	}
	if e.ExcessBlobGas != nil {
		excess := *e.ExcessBlobGas
		c.ExcessBlobGas = &excess
	}
	return c
}
