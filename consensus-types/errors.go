package consensus_types

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/runtime/version"
)

var (
	// ErrNilObjectWrapped is returned in a constructor when the underlying object is nil.
	ErrNilObjectWrapped = errors.New("attempted to wrap nil object")
	// ErrUnsupportedField is returned when a field is not supported by a specific fork.
	ErrUnsupportedField = errors.New("unsupported getter")
)

// ErrNotSupported constructs a message informing about an unsupported field access.
func ErrNotSupported(funcName string, ver int) error {
	return errors.Wrap(ErrUnsupportedField, fmt.Sprintf("%s is not supported for %s", funcName, version.String(ver)))
}
