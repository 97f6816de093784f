package steps

import "errors"

var (
	// ErrToolNotFound is returned when a process step's executable cannot be located
	ErrToolNotFound = errors.New("tool not found")
	// ErrExitCode is returned when a tool exits with a code outside its success codes
	ErrExitCode = errors.New("unexpected exit code")
	// ErrNoFiles is returned when a copy pattern matches nothing
	ErrNoFiles = errors.New("no files matched")
	// ErrUnsafePath is returned for deletions of a file system root
	ErrUnsafePath = errors.New("refusing to operate on a root directory")
	// ErrDuplicateTopic is returned when two conceptual topics share an id
	ErrDuplicateTopic = errors.New("duplicate topic id")
	// ErrMissingTopicID is returned for a topic file without an id attribute
	ErrMissingTopicID = errors.New("topic has no id")
)
