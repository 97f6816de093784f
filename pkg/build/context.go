//go:generate mockgen -destination=../mocks/build_mocks.go -package=mocks github.com/sandcastle-helpers/helpbuild/pkg/build Action,ManagedAction

// Package build implements the documentation build pipeline: a shared build
// context, steps and multi-steps, engines that run step lists and the project
// that sequences the reference and conceptual engines.
package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/metrics"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// Context is the state shared by every step of one build: the lifecycle
// state, the attached engine, the cancellation signal and the build's
// settings, logger and metrics recorder.
type Context struct {
	mu        sync.RWMutex
	state     types.BuildState
	engine    *Engine
	signal    *Signal
	system    types.BuildSystem
	buildType types.BuildType
	combined  bool
	buildID   string
	settings  *config.Settings
	logger    logger.Logger
	recorder  metrics.Recorder
}

// NewContext creates a build context in the None state
func NewContext(system types.BuildSystem, buildType types.BuildType) *Context {
	if system == "" {
		system = types.BuildSystemConsole
	}
	if buildType == "" {
		buildType = types.BuildTypeDevelopment
	}
	return &Context{
		state:     types.BuildStateNone,
		signal:    NewSignal(),
		system:    system,
		buildType: buildType,
		recorder:  metrics.NoopRecorder{},
	}
}

// Attach binds engine to the context. It returns false when an engine is
// already attached.
func (c *Context) Attach(engine *Engine) (bool, error) {
	if engine == nil {
		return false, newError("attach", "", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine != nil {
		return false, nil
	}
	c.engine = engine
	return true, nil
}

// Detach clears the attached engine
func (c *Context) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine = nil
}

// Engine returns the attached engine, or nil
func (c *Context) Engine() *Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine
}

// IsAttached reports whether an engine is attached
func (c *Context) IsAttached() bool {
	return c.Engine() != nil
}

// State returns the current build state
func (c *Context) State() types.BuildState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetState changes the build state. Entering Cancelled sets the signal.
func (c *Context) SetState(state types.BuildState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	if state == types.BuildStateCancelled {
		c.signal.Set()
	}
}

// AdvanceState changes the build state unless the build was cancelled and
// reports whether it did. Cancellation is only undone through SetState.
func (c *Context) AdvanceState(state types.BuildState) bool {
	c.mu.Lock()
	if c.state == types.BuildStateCancelled {
		c.mu.Unlock()
		return false
	}
	c.state = state
	c.mu.Unlock()

	if state == types.BuildStateCancelled {
		c.signal.Set()
	}
	return true
}

// Cancel requests cooperative cancellation; running steps finish and no
// further step starts
func (c *Context) Cancel() {
	c.SetState(types.BuildStateCancelled)
}

// IsCancelled reports whether the build was cancelled
func (c *Context) IsCancelled() bool {
	return c.State() == types.BuildStateCancelled
}

// Done returns a channel closed when cancellation is signalled
func (c *Context) Done() <-chan struct{} {
	return c.signal.Done()
}

// Wait blocks until cancellation is signalled or timeout elapses
func (c *Context) Wait(timeout time.Duration) bool {
	return c.signal.Wait(timeout)
}

// Signal exposes the cancellation signal
func (c *Context) Signal() *Signal {
	return c.signal
}

func (c *Context) blocked() bool {
	return c.State().IsTerminal()
}

// StepCreated reports whether a planned step may be added to the run
func (c *Context) StepCreated(step *Step) bool {
	return !c.blocked()
}

// StepStarts resets the signal and reports whether step may run
func (c *Context) StepStarts(step *Step) bool {
	c.signal.Reset()
	if c.blocked() {
		return false
	}
	c.Logger().Debug("Step starting", logger.WithField("step", step.Name))
	return true
}

// StepEnds reports whether the build may continue after step
func (c *Context) StepEnds(step *Step) bool {
	return !c.blocked()
}

// StepError logs the failure of step and reports whether the build may continue
func (c *Context) StepError(step *Step) bool {
	name := "<nil>"
	if step != nil {
		name = step.Name
	}
	c.Logger().Error(fmt.Sprintf("Step '%s' failed", name))
	return !c.blocked()
}

// System returns the build host kind
func (c *Context) System() types.BuildSystem {
	return c.system
}

// BuildType returns the development or release build type
func (c *Context) BuildType() types.BuildType {
	return c.buildType
}

// IsCombinedBuild reports whether reference and conceptual builds share this context
func (c *Context) IsCombinedBuild() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.combined
}

// SetCombinedBuild marks the context as shared by both sub-builds
func (c *Context) SetCombinedBuild(combined bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.combined = combined
}

// BuildID returns the identifier of the current build
func (c *Context) BuildID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buildID
}

// SetBuildID sets the identifier of the current build
func (c *Context) SetBuildID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buildID = id
}

// Settings returns the build settings
func (c *Context) Settings() *config.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// SetSettings sets the build settings
func (c *Context) SetSettings(settings *config.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
}

// Logger returns the build logger. It never returns nil.
func (c *Context) Logger() logger.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.logger == nil {
		return logger.NewNopLogger()
	}
	return c.logger
}

// HasLogger reports whether a logger was set
func (c *Context) HasLogger() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger != nil
}

// SetLogger sets the build logger
func (c *Context) SetLogger(log logger.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = log
}

// Recorder returns the metrics recorder
func (c *Context) Recorder() metrics.Recorder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recorder
}

// SetRecorder sets the metrics recorder; nil restores the no-op recorder
func (c *Context) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

// CreateLogger builds the logger for settings. With a working directory and
// log file configured it writes to that file, replacing an earlier log unless
// the build is combined, and echoes to the console for console builds.
// Without a log file it logs to the console only.
func (c *Context) CreateLogger(settings *config.Settings) (logger.Logger, error) {
	if settings == nil {
		return nil, newError("create logger", "", ErrInvalidArgument)
	}
	verbosity, err := logger.ParseVerbosity(settings.Verbosity)
	if err != nil {
		return nil, err
	}

	loggers := logger.NewLoggers()

	path := settings.LogFilePath()
	if path == "" {
		loggers.Add(logger.NewConsoleLogger(verbosity))
		return loggers, nil
	}

	if !c.IsCombinedBuild() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove previous log file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	fileLogger, err := logger.NewFileLogger(path, verbosity)
	if err != nil {
		return nil, err
	}
	loggers.Add(fileLogger)

	if c.system == types.BuildSystemConsole {
		loggers.Add(logger.NewConsoleLogger(verbosity))
	}
	return loggers, nil
}
