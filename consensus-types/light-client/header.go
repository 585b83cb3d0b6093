// Package light_client defines the beacon chain data structures consumed by
// the light client sync protocol. The types are fork aware: headers carry the
// version of the fork they were produced under so that callers can compute
// the correct hash tree roots without protobuf oneof wrapping.
package light_client

import (
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	consensustypes "github.com/prysmaticlabs/lumen/consensus-types"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/runtime/version"
)

// BeaconBlockHeader is the summary of a beacon block used everywhere the full
// block is not required.
type BeaconBlockHeader struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    []byte
	StateRoot     []byte
	BodyRoot      []byte
}

// Copy returns a deep copy of the header.
func (b *BeaconBlockHeader) Copy() *BeaconBlockHeader {
	if b == nil {
		return nil
	}
	return &BeaconBlockHeader{
		Slot:          b.Slot,
		ProposerIndex: b.ProposerIndex,
		ParentRoot:    bytesutil.SafeCopyBytes(b.ParentRoot),
		StateRoot:     bytesutil.SafeCopyBytes(b.StateRoot),
		BodyRoot:      bytesutil.SafeCopyBytes(b.BodyRoot),
	}
}

// Header is a fork aware light client header. From Capella onwards it embeds
// the execution payload header of the block along with the Merkle branch
// proving the payload against the block body root.
type Header struct {
	version         int
	beacon          *BeaconBlockHeader
	execution       *ExecutionPayloadHeader
	executionBranch [fieldparams.ExecutionBranchDepth][32]byte
}

// NewHeaderAltair builds a pre-Capella header which carries no execution
// payload summary.
func NewHeaderAltair(beacon *BeaconBlockHeader) (*Header, error) {
	if beacon == nil {
		return nil, consensustypes.ErrNilObjectWrapped
	}
	return &Header{
		version: version.Altair,
		beacon:  beacon,
	}, nil
}

// NewHeaderCapella builds a Capella header from its parts. The execution
// branch must have exactly ExecutionBranchDepth roots.
func NewHeaderCapella(beacon *BeaconBlockHeader, execution *ExecutionPayloadHeader, executionBranch [][]byte) (*Header, error) {
	return newExecutionHeader(version.Capella, beacon, execution, executionBranch)
}

// NewHeaderDeneb builds a Deneb header from its parts. The execution payload
// header must carry the Deneb blob gas fields.
func NewHeaderDeneb(beacon *BeaconBlockHeader, execution *ExecutionPayloadHeader, executionBranch [][]byte) (*Header, error) {
	return newExecutionHeader(version.Deneb, beacon, execution, executionBranch)
}

func newExecutionHeader(v int, beacon *BeaconBlockHeader, execution *ExecutionPayloadHeader, executionBranch [][]byte) (*Header, error) {
	if beacon == nil || execution == nil {
		return nil, consensustypes.ErrNilObjectWrapped
	}
	if err := execution.matchesVersion(v); err != nil {
		return nil, err
	}
	branch, err := buildBranch[[fieldparams.ExecutionBranchDepth][32]byte]("execution", executionBranch, fieldparams.ExecutionBranchDepth)
	if err != nil {
		return nil, err
	}
	return &Header{
		version:         v,
		beacon:          beacon,
		execution:       execution,
		executionBranch: branch,
	}, nil
}

// Version returns the fork version the header was constructed under.
func (h *Header) Version() int {
	return h.version
}

// Beacon returns the beacon block header.
func (h *Header) Beacon() *BeaconBlockHeader {
	return h.beacon
}

// Execution returns the execution payload header of the block. Headers from
// forks before Capella do not carry one.
func (h *Header) Execution() (*ExecutionPayloadHeader, error) {
	if h.version < version.Capella {
		return nil, consensustypes.ErrNotSupported("Execution", h.version)
	}
	return h.execution, nil
}

// ExecutionBranch returns the Merkle branch proving the execution payload
// header against the beacon block body root.
func (h *Header) ExecutionBranch() ([fieldparams.ExecutionBranchDepth][32]byte, error) {
	if h.version < version.Capella {
		return [fieldparams.ExecutionBranchDepth][32]byte{}, consensustypes.ErrNotSupported("ExecutionBranch", h.version)
	}
	return h.executionBranch, nil
}

// ExecutionPayloadRoot computes the hash tree root of the embedded execution
// payload header using the layout of the header's fork.
func (h *Header) ExecutionPayloadRoot() ([32]byte, error) {
	if h.version < version.Capella {
		return [32]byte{}, consensustypes.ErrNotSupported("ExecutionPayloadRoot", h.version)
	}
	return h.execution.HashTreeRoot()
}

// Copy returns a deep copy of the header.
func (h *Header) Copy() *Header {
	if h == nil {
		return nil
	}
	return &Header{
		version:         h.version,
		beacon:          h.beacon.Copy(),
		execution:       h.execution.Copy(),
		executionBranch: h.executionBranch,
	}
}
