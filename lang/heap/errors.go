package heap

import "github.com/brickingsoft/errors"

// Typed conditions for contract violations. Callers match them with
// errors.Is; resource exhaustion (pool or addressable-capacity failure)
// is not an error value, it panics and aborts the current evaluation.
var (
	// ErrProtected is returned when writing through a cell whose
	// Protected flag is set.
	ErrProtected = errors.Define("protected value")

	// ErrFixedSize is returned by a growth operation against a stub
	// flagged fixed-size.
	ErrFixedSize = errors.Define("fixed-size series")

	// ErrFrozen is returned by a mutation against a deep-frozen stub.
	ErrFrozen = errors.Define("frozen series")

	// ErrQuoteDepth is returned when quoting would exceed MaxQuoteDepth.
	ErrQuoteDepth = errors.Define("quote depth overflow")
)
