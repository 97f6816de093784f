package chm

import "errors"

var (
	// ErrUnknownLCID is returned when a locale is missing from the language table
	ErrUnknownLCID = errors.New("unknown LCID")

	// ErrUnsupportedCodepage is returned when no transcoder exists for a codepage
	ErrUnsupportedCodepage = errors.New("unsupported codepage")

	// ErrNoDictionary is returned when a converter or helper has no title dictionary
	ErrNoDictionary = errors.New("no title dictionary")
)
