package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	bcontext "github.com/sandcastle-helpers/helpbuild/pkg/context"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/metrics"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// Project sequences the reference and conceptual sub-builds of one
// documentation build over a shared context and log
type Project struct {
	settings      *config.Settings
	configuration *config.BuildConfiguration
	context       *Context
	loggers       *logger.Loggers
	extraLoggers  []logger.Logger
	recorder      metrics.Recorder
	reference     *Engine
	conceptual    *Engine
	initialized   bool
}

// ProjectOption configures a Project
type ProjectOption func(*Project)

// WithLogger adds a logger next to the ones derived from the settings
func WithLogger(l logger.Logger) ProjectOption {
	return func(p *Project) {
		p.extraLoggers = append(p.extraLoggers, l)
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) ProjectOption {
	return func(p *Project) {
		p.recorder = r
	}
}

// NewProject creates a project over the reference and conceptual engines.
// Either engine may be nil when its sub-build is never enabled.
func NewProject(settings *config.Settings, configuration *config.BuildConfiguration,
	reference, conceptual *Engine, opts ...ProjectOption) *Project {
	if configuration == nil {
		configuration = config.NewBuildConfiguration(settings)
	}
	p := &Project{
		settings:      settings,
		configuration: configuration,
		reference:     reference,
		conceptual:    conceptual,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Settings returns the project settings
func (p *Project) Settings() *config.Settings {
	return p.settings
}

// Configuration returns the tool configuration
func (p *Project) Configuration() *config.BuildConfiguration {
	return p.configuration
}

// Context returns the build context, or nil before Initialize
func (p *Project) Context() *Context {
	return p.context
}

// Reference returns the reference engine
func (p *Project) Reference() *Engine {
	return p.reference
}

// Conceptual returns the conceptual engine
func (p *Project) Conceptual() *Engine {
	return p.conceptual
}

// BuildID returns the id of the current build
func (p *Project) BuildID() string {
	if p.context == nil {
		return ""
	}
	return p.context.BuildID()
}

// IsInitialized reports whether Initialize succeeded
func (p *Project) IsInitialized() bool {
	return p.initialized
}

// Initialize creates the build context and the shared logger
func (p *Project) Initialize() error {
	if p.initialized {
		return nil
	}
	if p.settings == nil {
		return newError("initialize project", "", ErrInvalidArgument)
	}

	ctx := NewContext(p.settings.BuildSystem, p.settings.BuildType)
	ctx.SetSettings(p.settings)
	ctx.SetRecorder(p.recorder)

	log, err := ctx.CreateLogger(p.settings)
	if err != nil {
		return fmt.Errorf("create build logger: %w", err)
	}
	loggers := logger.NewLoggers(log)
	for _, l := range p.extraLoggers {
		loggers.Add(l)
	}
	ctx.SetLogger(loggers)
	// Both engines write to the log created here
	ctx.SetCombinedBuild(true)

	p.context = ctx
	p.loggers = loggers
	p.initialized = true
	return nil
}

// Build runs the reference sub-build and then, if it succeeded, the
// conceptual sub-build. Each enabled sub-build initializes its engine on
// demand and uninitializes it afterwards.
func (p *Project) Build(ctx context.Context) bool {
	if !p.initialized {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	bctx := p.context
	if bctx.IsCancelled() {
		return false
	}
	bctx.SetBuildID(bcontext.GenerateBuildID())
	ctx = bcontext.EnrichContext(bcontext.WithBuildID(ctx, bctx.BuildID()))
	if !bctx.AdvanceState(types.BuildStateStarted) {
		return false
	}

	log := logger.WithContext(ctx, bctx.Logger())
	log.Info(fmt.Sprintf("Building %s", p.settings.HelpName),
		logger.WithField("system", bctx.System()),
		logger.WithField("type", bctx.BuildType()))

	result := true
	if p.settings.BuildReferences && p.reference != nil {
		result = p.buildPhase(ctx, p.reference)
	}
	if result && p.settings.BuildConceptual && p.conceptual != nil {
		result = p.buildPhase(ctx, p.conceptual)
	}

	switch {
	case result && bctx.AdvanceState(types.BuildStateFinished):
		log.Success(fmt.Sprintf("Build succeeded in %s", bcontext.GetDuration(ctx).Round(time.Millisecond)))
	case !result && bctx.AdvanceState(types.BuildStateError):
		log.Error(fmt.Sprintf("Build failed after %s", bcontext.GetDuration(ctx).Round(time.Millisecond)))
	default:
		log.Warn("Build cancelled")
	}
	return result
}

func (p *Project) buildPhase(ctx context.Context, engine *Engine) (result bool) {
	log := p.context.Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error(fmt.Sprintf("The %s build aborted: panic: %v", engine.Kind(), r))
			result = false
		}
	}()

	if !engine.IsInitialized() {
		if err := engine.Initialize(p.settings, p.context); err != nil {
			log.Error(fmt.Sprintf("Failed to initialize the %s engine: %v", engine.Kind(), err))
			return false
		}
	}
	defer func() {
		if err := engine.Uninitialize(); err != nil {
			log.Warn(fmt.Sprintf("Failed to uninitialize the %s engine: %v", engine.Kind(), err))
		}
	}()

	return engine.Build(ctx)
}

// Cancel requests cooperative cancellation of the running build
func (p *Project) Cancel() {
	if p.context != nil {
		p.context.Cancel()
	}
}

// Uninitialize tears down both engines independently, closes the loggers and
// then keeps the log file in the output directory or deletes it
func (p *Project) Uninitialize() error {
	if !p.initialized {
		return nil
	}

	var errs []error
	for _, engine := range []*Engine{p.reference, p.conceptual} {
		if engine == nil {
			continue
		}
		if err := uninitializeEngine(engine); err != nil {
			errs = append(errs, err)
		}
	}

	if err := p.loggers.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close loggers: %w", err))
	}
	p.context.SetLogger(nil)

	if err := p.finishLogFile(); err != nil {
		errs = append(errs, err)
	}

	p.initialized = false
	return errors.Join(errs...)
}

func uninitializeEngine(engine *Engine) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("uninitialize %s engine: panic: %v", engine.Kind(), r)
		}
	}()
	if err := engine.Uninitialize(); err != nil {
		return fmt.Errorf("uninitialize %s engine: %w", engine.Kind(), err)
	}
	return nil
}

func (p *Project) finishLogFile() error {
	path := p.settings.LogFilePath()
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if !p.settings.KeepLogFile {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("delete log file: %w", err)
		}
		return nil
	}

	outDir := p.settings.OutputPath()
	if outDir == "" {
		return nil
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	dest := filepath.Join(outDir, filepath.Base(path))
	if dest == path {
		return nil
	}
	if err := utils.MoveFile(path, dest); err != nil {
		return fmt.Errorf("move log file: %w", err)
	}
	return nil
}
