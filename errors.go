package delin

import "errors"

// Error classes. Stage functions wrap these with context so callers can
// match with errors.Is.
var (
	// ErrInvalidArgument flags an unsupported policy string or mismatched
	// argument lists, detected before any I/O or computation proceeds.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDriver flags an output path that maps to no supported file format.
	ErrDriver = errors.New("could not retrieve driver from the file path")

	// ErrPrecondition flags input data that does not satisfy an operation's
	// requirements, such as a direction grid that does not terminate.
	ErrPrecondition = errors.New("precondition failed")
)
