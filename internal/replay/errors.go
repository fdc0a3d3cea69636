package replay

import "errors"

var (
	ErrUnsupportedVersion = errors.New("unsupported replay version")
	ErrTruncated          = errors.New("replay data truncated")
	ErrTrailingData       = errors.New("trailing bytes after replay data")
	ErrNonMonotonic       = errors.New("replay inputs go back in time")
	ErrCorrupt            = errors.New("corrupt replay data")
)

// SerializationError is returned by every encode and decode failure. Op is
// the stage that failed.
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string {
	return "replay " + e.Op + ": " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
