package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	bcontext "github.com/sandcastle-helpers/helpbuild/pkg/context"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/metrics"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// Action is the work performed by a step. Returning an error fails the
// step; a *BuildError is treated as a configuration error and propagated.
type Action interface {
	Type() types.StepType
	Run(sc *StepContext) error
}

// Initializer is implemented by actions that acquire resources when their
// step is bound to a context
type Initializer interface {
	Initialize(ctx *Context) error
}

// Uninitializer is implemented by actions that release resources when
// their step is unbound
type Uninitializer interface {
	Uninitialize(ctx *Context) error
}

// ManagedAction is an action that holds resources between Initialize and Uninitialize
type ManagedAction interface {
	Action
	Initializer
	Uninitializer
}

// StepContext is passed to Action.Run
type StepContext struct {
	// Ctx bounds the lifetime of external processes started by the action
	Ctx              context.Context
	Build            *Context
	Engine           *Engine
	Step             *Step
	Logger           logger.Logger
	WorkingDirectory string
}

// Settings returns the build settings
func (sc *StepContext) Settings() *config.Settings {
	return sc.Build.Settings()
}

// Resolve makes path absolute against the step working directory
func (sc *StepContext) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(sc.WorkingDirectory, path)
}

// Step is one unit of build work with optional pre and post steps
type Step struct {
	Name             string
	Description      string
	WorkingDirectory string
	Enabled          bool
	ContinueOnError  bool
	PreStep          *Step
	PostStep         *Step
	Action           Action

	context *Context
	parent  *Step
}

// NewStep creates an enabled step
func NewStep(name string, action Action) *Step {
	return &Step{
		Name:    name,
		Enabled: true,
		Action:  action,
	}
}

// Type returns the kind of work the step performs
func (s *Step) Type() types.StepType {
	if s.Action == nil {
		return types.StepTypeNone
	}
	return s.Action.Type()
}

// Context returns the build context the step is bound to
func (s *Step) Context() *Context {
	return s.context
}

// IsInitialized reports whether the step is bound to a context
func (s *Step) IsInitialized() bool {
	return s.context != nil
}

// Initialize binds the step, its pre and post steps and its action to ctx
func (s *Step) Initialize(ctx *Context) error {
	if ctx == nil {
		return newError("initialize", s.Name, ErrNoContext)
	}
	s.context = ctx

	for _, hook := range []*Step{s.PreStep, s.PostStep} {
		if hook == nil {
			continue
		}
		if hook.parent == nil {
			hook.parent = s
		}
		if err := hook.Initialize(ctx); err != nil {
			return err
		}
	}
	if init, ok := s.Action.(Initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize step %q: %w", s.Name, err)
		}
	}
	return nil
}

// Uninitialize releases the step. It must be called with the context used
// for Initialize; calling it on an unbound step does nothing.
func (s *Step) Uninitialize(ctx *Context) error {
	if ctx == nil {
		return newError("uninitialize", s.Name, ErrNoContext)
	}
	if s.context == nil {
		return nil
	}
	if s.context != ctx {
		return newError("uninitialize", s.Name, ErrContextMismatch)
	}

	var errs []error
	if uninit, ok := s.Action.(Uninitializer); ok {
		if err := uninit.Uninitialize(ctx); err != nil {
			errs = append(errs, fmt.Errorf("uninitialize step %q: %w", s.Name, err))
		}
	}
	if s.PreStep != nil {
		if err := s.PreStep.Uninitialize(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.PostStep != nil {
		if err := s.PostStep.Uninitialize(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.context = nil
	return errors.Join(errs...)
}

// Execute runs the pre step, the action and the post step. A failed pre
// step or action stops the step unless it continues on error; a tolerated
// post step failure does not change the result of the action.
func (s *Step) Execute() (bool, error) {
	ctx := s.context
	if ctx == nil {
		return false, newError("execute", s.Name, ErrNoContext)
	}
	engine := ctx.Engine()
	if engine == nil {
		return false, newError("execute", s.Name, ErrNoEngine)
	}

	if pre := s.PreStep; pre != nil && pre.Enabled {
		ok, err := pre.Execute()
		if err != nil {
			return false, err
		}
		if !ok && !pre.ContinueOnError {
			return false, nil
		}
	}

	result, err := s.mainExecute(engine)
	if err != nil {
		return false, err
	}
	if !result && !s.ContinueOnError {
		return false, nil
	}

	if post := s.PostStep; post != nil && post.Enabled {
		ok, err := post.Execute()
		if err != nil {
			return false, err
		}
		if !ok && !post.ContinueOnError {
			return false, nil
		}
	}

	return result, nil
}

func (s *Step) mainExecute(engine *Engine) (bool, error) {
	if s.Action == nil {
		return false, newError("execute", s.Name, fmt.Errorf("%w: step has no action", ErrInvalidArgument))
	}

	runCtx := bcontext.WithStep(engine.runContext(), s.Name)
	sc := &StepContext{
		Ctx:              runCtx,
		Build:            s.context,
		Engine:           engine,
		Step:             s,
		Logger:           logger.WithContext(runCtx, s.context.Logger()),
		WorkingDirectory: s.workingDirectory(),
	}

	recorder := s.context.Recorder()
	start := time.Now()
	err := s.Action.Run(sc)
	recorder.ObserveStepDuration(s.Name, time.Since(start))

	switch {
	case err == nil:
		recorder.IncStepResult(s.Name, metrics.ResultSuccess)
		return true, nil
	case IsConfigurationError(err):
		recorder.IncStepResult(s.Name, metrics.ResultFailed)
		return false, err
	}

	if s.ContinueOnError {
		recorder.IncStepResult(s.Name, metrics.ResultTolerated)
	} else {
		recorder.IncStepResult(s.Name, metrics.ResultFailed)
	}
	if !errors.Is(err, ErrStepFailed) {
		sc.Logger.Error(fmt.Sprintf("%s: %v", s.Name, err))
	}
	return false, nil
}

// workingDirectory resolves the step directory against the enclosing
// multi-step's directory, or the build working directory at the top level
func (s *Step) workingDirectory() string {
	base := ""
	if s.parent != nil {
		base = s.parent.workingDirectory()
	} else if s.context != nil {
		if settings := s.context.Settings(); settings != nil {
			base = settings.WorkingDirectory
		}
	}
	switch {
	case s.WorkingDirectory == "":
		if base == "" {
			return "."
		}
		return base
	case filepath.IsAbs(s.WorkingDirectory) || base == "":
		return s.WorkingDirectory
	default:
		return filepath.Join(base, s.WorkingDirectory)
	}
}
