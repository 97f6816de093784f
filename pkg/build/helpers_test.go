package build_test

import (
	"errors"
	"testing"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

var errBoom = errors.New("boom")

// funcAction adapts a function to build.Action
type funcAction func(sc *build.StepContext) error

func (f funcAction) Type() types.StepType            { return types.StepTypeCustom }
func (f funcAction) Run(sc *build.StepContext) error { return f(sc) }

// counter records how often each named step ran
type counter map[string]int

func (c counter) step(name string, fail bool) *build.Step {
	return build.NewStep(name, funcAction(func(*build.StepContext) error {
		c[name]++
		if fail {
			return errBoom
		}
		return nil
	}))
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.WorkingDirectory = t.TempDir()
	s.LogFile = ""
	return s
}

// newEngine returns an initialized engine on a quiet context
func newEngine(t *testing.T, planner build.Planner) (*build.Engine, *build.Context) {
	t.Helper()
	ctx := build.NewContext(types.BuildSystemConsole, types.BuildTypeDevelopment)
	ctx.SetLogger(logger.NewNopLogger())

	engine := build.NewEngine(types.EngineTypeReference, planner)
	if err := engine.Initialize(testSettings(t), ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return engine, ctx
}

// bind initializes step on ctx and attaches engine so Execute can run
func bind(t *testing.T, step *build.Step, engine *build.Engine, ctx *build.Context) {
	t.Helper()
	if err := step.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if ok, err := ctx.Attach(engine); err != nil || !ok {
		t.Fatalf("Attach failed: %v %v", ok, err)
	}
	t.Cleanup(ctx.Detach)
}
