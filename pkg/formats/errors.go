package formats

import "errors"

var (
	// ErrUnknownFormat is returned for format types without an implementation
	ErrUnknownFormat = errors.New("unknown format type")

	// ErrDuplicateFormat is returned when two formats share a name
	ErrDuplicateFormat = errors.New("duplicate format name")
)
