package build

import (
	"errors"
	"fmt"
)

// Configuration errors. They are returned wrapped in a *BuildError and mark
// a misuse of the build API rather than a failed step.
var (
	ErrNoContext        = errors.New("no build context")
	ErrNoEngine         = errors.New("no engine attached to the build context")
	ErrContextMismatch  = errors.New("build context differs from the one used at initialization")
	ErrUnsupportedGroup = errors.New("build group type is not supported by this engine")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotInitialized   = errors.New("not initialized")
)

// ErrStepFailed is returned by actions whose failure has already been logged
var ErrStepFailed = errors.New("step failed")

// BuildError is a fatal build configuration error
type BuildError struct {
	Op   string
	Step string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s step %q: %v", e.Op, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func newError(op, step string, err error) *BuildError {
	return &BuildError{Op: op, Step: step, Err: err}
}

// IsConfigurationError reports whether err is a *BuildError
func IsConfigurationError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}
