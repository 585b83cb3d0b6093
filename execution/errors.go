package execution

import "github.com/pkg/errors"

var (
	// ErrNotSynced is returned when a request needs a verified head and the
	// consensus side has not delivered one yet.
	ErrNotSynced = errors.New("no verified execution head available")

	// ErrBlockNotFound is returned when a block tag resolves to a block the
	// client has not verified and no longer (or not yet) tracks.
	ErrBlockNotFound = errors.New("block is not in the verified window")

	// ErrUnsupportedTag is returned for block tags the client cannot serve
	// from verified state, such as pending or earliest.
	ErrUnsupportedTag = errors.New("block tag cannot be served from verified state")

	// ErrInvalidCode is returned when bytecode fetched from the provider does
	// not hash to the code hash committed in a verified account.
	ErrInvalidCode = errors.New("code does not match verified code hash")

	// ErrUnsupportedNetwork is returned when no execution chain rules are
	// known for the configured network.
	ErrUnsupportedNetwork = errors.New("no execution chain rules for network")
)
