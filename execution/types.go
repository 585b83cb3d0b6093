package execution

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

const (
	latestTag    = "latest"
	finalizedTag = "finalized"
	safeTag      = "safe"
)

// A BlockTag names the block a read is served against. Construct values
// with the named tags or with BlockNumber; the zero value addresses block
// zero by number.
type BlockTag struct {
	name   string
	number uint64
}

var (
	// Latest addresses the most recent verified head.
	Latest = BlockTag{name: latestTag}
	// Finalized addresses the latest finalized block.
	Finalized = BlockTag{name: finalizedTag}
	// Safe addresses the latest safe block. The light client cannot tell
	// safe apart from finalized, so it serves the finalized block.
	Safe = BlockTag{name: safeTag}
)

// BlockNumber addresses a block by number.
func BlockNumber(n uint64) BlockTag {
	return BlockTag{number: n}
}

// ParseBlockTag interprets a JSON-RPC block parameter. Named tags and
// 0x-prefixed hex numbers are accepted. Pending state cannot be verified,
// so the pending tag is served as latest.
func ParseBlockTag(s string) (BlockTag, error) {
	switch strings.ToLower(s) {
	case "", latestTag, "pending":
		return Latest, nil
	case finalizedTag:
		return Finalized, nil
	case safeTag:
		return Safe, nil
	case "earliest":
		return BlockTag{}, errors.Wrap(ErrUnsupportedTag, s)
	}
	n, err := hexutil.DecodeUint64(s)
	if err != nil {
		return BlockTag{}, errors.Wrapf(ErrUnsupportedTag, "%q", s)
	}
	return BlockNumber(n), nil
}

// String implements fmt.Stringer.
func (t BlockTag) String() string {
	if t.name != "" {
		return t.name
	}
	return strconv.FormatUint(t.number, 10)
}
