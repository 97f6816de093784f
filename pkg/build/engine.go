package build

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sandcastle-helpers/helpbuild/pkg/collections"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	bcontext "github.com/sandcastle-helpers/helpbuild/pkg/context"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/metrics"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// Engine runs one sub-build (reference or conceptual) as an ordered list of steps
type Engine struct {
	kind          types.EngineType
	planner       Planner
	settings      *config.Settings
	configuration *config.BuildConfiguration
	context       *Context
	groups        *collections.KeyedList[*Group]
	formats       *collections.KeyedList[Format]
	initialized   bool
	ownsLogger    bool

	mu     sync.RWMutex
	runCtx context.Context
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithFormats adds formats to the engine. Each format is cloned.
func WithFormats(formats ...Format) EngineOption {
	return func(e *Engine) {
		for _, f := range formats {
			if f != nil {
				_ = e.formats.Set(f.Clone())
			}
		}
	}
}

// WithConfiguration sets the tool configuration
func WithConfiguration(c *config.BuildConfiguration) EngineOption {
	return func(e *Engine) {
		e.configuration = c
	}
}

// NewEngine creates an engine of the given kind
func NewEngine(kind types.EngineType, planner Planner, opts ...EngineOption) *Engine {
	groups, _ := collections.NewKeyedList[*Group]()
	formats, _ := collections.NewKeyedList[Format]()
	e := &Engine{
		kind:    kind,
		planner: planner,
		groups:  groups,
		formats: formats,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Kind returns the engine type
func (e *Engine) Kind() types.EngineType {
	return e.kind
}

// Settings returns the settings the engine was initialized with
func (e *Engine) Settings() *config.Settings {
	return e.settings
}

// Configuration returns the tool configuration
func (e *Engine) Configuration() *config.BuildConfiguration {
	if e.configuration == nil {
		return config.NewBuildConfiguration(e.settings)
	}
	return e.configuration
}

// Context returns the build context the engine was initialized with
func (e *Engine) Context() *Context {
	return e.context
}

// Groups returns the engine's build groups
func (e *Engine) Groups() *collections.KeyedList[*Group] {
	return e.groups
}

// Formats returns the engine's output formats
func (e *Engine) Formats() *collections.KeyedList[Format] {
	return e.formats
}

// EnabledFormats returns the enabled formats in order
func (e *Engine) EnabledFormats() []Format {
	var out []Format
	for _, f := range e.formats.Items() {
		if f.Enabled() {
			out = append(out, f)
		}
	}
	return out
}

// EnabledGroups returns the enabled groups in order
func (e *Engine) EnabledGroups() []*Group {
	var out []*Group
	for _, g := range e.groups.Items() {
		if g.Enabled {
			out = append(out, g)
		}
	}
	return out
}

// AddGroup adds a group whose type matches the engine kind
func (e *Engine) AddGroup(g *Group) error {
	if g == nil {
		return newError("add group", "", ErrInvalidArgument)
	}
	if string(g.Type) != string(e.kind) {
		return newError("add group", g.Name(), fmt.Errorf("%w: %s group in %s engine", ErrUnsupportedGroup, g.Type, e.kind))
	}
	return e.groups.Add(g)
}

// IsInitialized reports whether Initialize succeeded
func (e *Engine) IsInitialized() bool {
	return e.initialized
}

// Initialize binds the engine to settings and ctx, creating the build
// logger when ctx has none and loading the groups of the engine's kind
func (e *Engine) Initialize(settings *config.Settings, ctx *Context) error {
	if settings == nil || ctx == nil {
		return newError("initialize engine", string(e.kind), ErrInvalidArgument)
	}
	if e.initialized {
		return nil
	}

	e.settings = settings
	e.context = ctx
	if ctx.Settings() == nil {
		ctx.SetSettings(settings)
	}

	if !ctx.HasLogger() {
		log, err := ctx.CreateLogger(settings)
		if err != nil {
			return fmt.Errorf("create build logger: %w", err)
		}
		ctx.SetLogger(log)
		e.ownsLogger = true
	}

	for _, cfg := range settings.Groups {
		if string(cfg.Type) != string(e.kind) || e.groups.Contains(cfg.Name) {
			continue
		}
		if err := e.AddGroup(GroupFromConfig(cfg)); err != nil {
			return err
		}
	}

	e.initialized = true
	return nil
}

// Uninitialize unbinds the engine, closing the logger it created
func (e *Engine) Uninitialize() error {
	if !e.initialized {
		return nil
	}

	var err error
	if e.ownsLogger && e.context != nil {
		err = e.context.Logger().Close()
		e.context.SetLogger(nil)
		e.ownsLogger = false
	}
	e.initialized = false
	return err
}

func (e *Engine) logger() logger.Logger {
	if e.context == nil {
		return logger.NewNopLogger()
	}
	return e.context.Logger()
}

// runContext returns the Go context of the current RunSteps call
func (e *Engine) runContext() context.Context {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.runCtx == nil {
		return bcontext.WithEngine(context.Background(), string(e.kind))
	}
	return e.runCtx
}

func (e *Engine) setRunContext(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runCtx = ctx
}

// Build plans the engine's steps and runs them
func (e *Engine) Build(ctx context.Context) bool {
	if !e.initialized {
		e.logger().Error(fmt.Sprintf("The %s engine is not initialized", e.kind))
		return false
	}
	if e.planner == nil {
		e.logger().Error(fmt.Sprintf("The %s engine has no planner", e.kind))
		return false
	}
	bctx := e.context
	if bctx.IsCancelled() {
		return false
	}

	ctx = bcontext.WithEngine(ctx, string(e.kind))
	start := time.Now()
	log := logger.WithContext(ctx, e.logger())
	log.Started(fmt.Sprintf("Building %s documentation", e.kind))

	planned, err := e.planner.Plan(e)
	var result bool
	if err != nil {
		log.Error(fmt.Sprintf("Failed to plan the %s build: %v", e.kind, err))
	} else {
		steps := make([]*Step, 0, len(planned))
		for _, s := range planned {
			if bctx.StepCreated(s) {
				steps = append(steps, s)
			}
		}
		if bctx.AdvanceState(types.BuildStateRunning) {
			result = e.RunSteps(ctx, steps)
		}
	}

	elapsed := time.Since(start)
	recorder := bctx.Recorder()
	recorder.ObserveBuildDuration(string(e.kind), elapsed)
	switch {
	case bctx.IsCancelled():
		recorder.IncBuildOutcome(string(e.kind), metrics.OutcomeCancelled)
		log.Warn(fmt.Sprintf("The %s build was cancelled", e.kind))
	case result:
		recorder.IncBuildOutcome(string(e.kind), metrics.OutcomeSuccess)
	default:
		recorder.IncBuildOutcome(string(e.kind), metrics.OutcomeFailed)
	}

	log.Ended(fmt.Sprintf("Building %s documentation", e.kind),
		logger.WithField("duration", elapsed.Round(time.Millisecond)))
	return result
}

// RunSteps initializes, executes and uninitializes steps in three phases.
// Execution stops at the first step that fails without continuing on error;
// every step is uninitialized whatever happened before. Errors and panics
// are logged and reported as false. The context is always detached.
func (e *Engine) RunSteps(ctx context.Context, steps []*Step) (result bool) {
	if e.settings == nil || e.context == nil || !e.initialized {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	bctx := e.context
	log := logger.WithContext(ctx, bctx.Logger())

	if current := bctx.Engine(); current != e {
		if current != nil {
			bctx.Detach()
		}
		if ok, err := bctx.Attach(e); err != nil || !ok {
			log.Error(fmt.Sprintf("Failed to attach the %s engine to the build context", e.kind))
			return false
		}
	}
	e.setRunContext(ctx)
	defer func() {
		e.setRunContext(nil)
		bctx.Detach()
	}()

	defer func() {
		if r := recover(); r != nil {
			log.Error(fmt.Sprintf("Build aborted: panic: %v", r))
			result = false
		}
	}()

	defer func() {
		var errs []error
		for i, step := range steps {
			if err := step.Uninitialize(bctx); err != nil {
				log.Error(fmt.Sprintf("Failed to uninitialize step %d (%s): %v", i+1, step.Name, err))
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			result = false
		}
	}()

	for i, step := range steps {
		if err := step.Initialize(bctx); err != nil {
			log.Error(fmt.Sprintf("Failed to initialize step %d (%s): %v", i+1, step.Name, err))
			return false
		}
	}

	for i, step := range steps {
		if !step.Enabled {
			continue
		}
		if !bctx.StepStarts(step) {
			log.Warn(fmt.Sprintf("Step %d (%s) skipped: build is %s", i+1, step.Name, bctx.State()))
			return false
		}

		log.Started(step.Name)
		ok, err := step.Execute()
		if err != nil {
			log.Error(fmt.Sprintf("Step %d (%s): %v", i+1, step.Name, err))
			bctx.StepError(step)
			return false
		}
		if !ok && !step.ContinueOnError {
			bctx.StepError(step)
			return false
		}
		if !ok {
			log.Warn(fmt.Sprintf("Step %d (%s) failed; continuing", i+1, step.Name))
		}
		log.Ended(step.Name)
		bctx.StepEnds(step)
	}

	return !bctx.IsCancelled()
}
