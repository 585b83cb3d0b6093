package execution

import (
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
)

// DefaultHeaderWindow bounds how long numbered block lookups stay
// resolvable after the corresponding head was verified.
const DefaultHeaderWindow = 30 * time.Minute

// Headers tracks the execution payload headers delivered by the verified
// consensus side and maps block tags onto them. Readers always receive
// copies, so a resolved header stays stable while heads advance.
type Headers struct {
	mu         sync.RWMutex
	unsafeHead bool
	optimistic *lctypes.ExecutionPayloadHeader
	finalized  *lctypes.ExecutionPayloadHeader
	byNumber   *gocache.Cache
	byHash     *gocache.Cache
}

// NewHeaders creates an empty header store. With unsafeHead set, the
// latest tag follows the optimistic head; otherwise it follows the
// finalized head. The window bounds how long numbered lookups resolve.
func NewHeaders(unsafeHead bool, window time.Duration) *Headers {
	if window <= 0 {
		window = DefaultHeaderWindow
	}
	return &Headers{
		unsafeHead: unsafeHead,
		byNumber:   gocache.New(window, window),
		byHash:     gocache.New(window, window),
	}
}

// Advance publishes newly verified heads. A nil argument leaves the
// corresponding head untouched. Published headers must not be mutated
// afterwards by the caller.
func (h *Headers) Advance(optimistic, finalized *lctypes.ExecutionPayloadHeader) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if optimistic != nil {
		c := optimistic.Copy()
		h.optimistic = c
		h.remember(c)
	}
	if finalized != nil {
		c := finalized.Copy()
		h.finalized = c
		h.remember(c)
	}
}

func (h *Headers) remember(payload *lctypes.ExecutionPayloadHeader) {
	h.byNumber.SetDefault(strconv.FormatUint(payload.BlockNumber, 10), payload)
	h.byHash.SetDefault(common.BytesToHash(payload.BlockHash).Hex(), payload)
}

// Resolve maps a block tag onto a verified header. The latest tag follows
// the optimistic head unless unsafe heads are disabled, safe and finalized
// both follow the finalized head, and numbers resolve only while the block
// is inside the verified window.
func (h *Headers) Resolve(tag BlockTag) (*lctypes.ExecutionPayloadHeader, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	switch {
	case tag.name == latestTag && h.unsafeHead:
		if h.optimistic == nil {
			return nil, ErrNotSynced
		}
		return h.optimistic.Copy(), nil
	case tag.name == latestTag || tag.name == safeTag || tag.name == finalizedTag:
		if h.finalized == nil {
			return nil, ErrNotSynced
		}
		return h.finalized.Copy(), nil
	case tag.name == "":
		if v, ok := h.byNumber.Get(strconv.FormatUint(tag.number, 10)); ok {
			return v.(*lctypes.ExecutionPayloadHeader).Copy(), nil
		}
		return nil, errors.Wrapf(ErrBlockNotFound, "block %d", tag.number)
	default:
		return nil, errors.Wrap(ErrUnsupportedTag, tag.name)
	}
}

// ByHash returns the verified header with the given block hash, if it is
// still inside the verified window.
func (h *Headers) ByHash(hash common.Hash) (*lctypes.ExecutionPayloadHeader, error) {
	if v, ok := h.byHash.Get(hash.Hex()); ok {
		return v.(*lctypes.ExecutionPayloadHeader).Copy(), nil
	}
	return nil, errors.Wrapf(ErrBlockNotFound, "block %#x", hash)
}

// HashByNumber serves the BLOCKHASH opcode. Blocks outside the verified
// window yield the zero hash, matching the opcode's behavior for blocks
// beyond its reach.
func (h *Headers) HashByNumber(number uint64) common.Hash {
	if v, ok := h.byNumber.Get(strconv.FormatUint(number, 10)); ok {
		return common.BytesToHash(v.(*lctypes.ExecutionPayloadHeader).BlockHash)
	}
	return common.Hash{}
}
