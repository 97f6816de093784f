package build_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

func TestContext_Attach(t *testing.T) {
	ctx := build.NewContext(types.BuildSystemConsole, types.BuildTypeDevelopment)
	first := build.NewEngine(types.EngineTypeReference, nil)
	second := build.NewEngine(types.EngineTypeConceptual, nil)

	ok, err := ctx.Attach(first)
	if err != nil || !ok {
		t.Fatalf("first Attach = %v, %v", ok, err)
	}

	ok, err = ctx.Attach(second)
	if err != nil {
		t.Fatalf("second Attach returned error: %v", err)
	}
	if ok {
		t.Error("second Attach should fail while an engine is attached")
	}
	if ctx.Engine() != first {
		t.Error("first engine should stay attached")
	}

	ctx.Detach()
	ctx.Detach()
	if ctx.IsAttached() {
		t.Error("Detach should clear the engine")
	}

	ok, err = ctx.Attach(second)
	if err != nil || !ok {
		t.Errorf("Attach after Detach = %v, %v", ok, err)
	}
}

func TestContext_AttachNil(t *testing.T) {
	ctx := build.NewContext("", "")

	ok, err := ctx.Attach(nil)
	if ok {
		t.Error("Attach(nil) should not succeed")
	}
	if !errors.Is(err, build.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if !build.IsConfigurationError(err) {
		t.Error("expected a configuration error")
	}
}

func TestContext_CancelSignalsAndStepStartsResets(t *testing.T) {
	ctx := build.NewContext(types.BuildSystemConsole, types.BuildTypeRelease)
	step := build.NewStep("step", nil)

	if ctx.Signal().IsSet() {
		t.Fatal("signal should start unset")
	}

	ctx.SetState(types.BuildStateCancelled)
	if !ctx.Signal().IsSet() {
		t.Fatal("cancellation should set the signal")
	}
	if !ctx.Wait(0) {
		t.Error("Wait should observe the set signal")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("Done should be closed after cancellation")
	}

	if ctx.StepStarts(step) {
		t.Error("StepStarts should refuse while cancelled")
	}
	if ctx.Signal().IsSet() {
		t.Error("StepStarts should reset the signal")
	}

	ctx.SetState(types.BuildStateCancelled)
	ctx.SetState(types.BuildStateRunning)
	if !ctx.StepStarts(step) {
		t.Error("StepStarts should allow the step once running again")
	}
	if ctx.Signal().IsSet() {
		t.Error("signal should be unset after StepStarts returned true")
	}
}

func TestContext_Gates(t *testing.T) {
	step := build.NewStep("step", nil)

	tests := []struct {
		state types.BuildState
		want  bool
	}{
		{types.BuildStateNone, true},
		{types.BuildStateStarted, true},
		{types.BuildStateRunning, true},
		{types.BuildStateFinished, true},
		{types.BuildStateError, false},
		{types.BuildStateCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			ctx := build.NewContext("", "")
			ctx.SetState(tt.state)

			if got := ctx.StepCreated(step); got != tt.want {
				t.Errorf("StepCreated = %v", got)
			}
			if got := ctx.StepStarts(step); got != tt.want {
				t.Errorf("StepStarts = %v", got)
			}
			if got := ctx.StepEnds(step); got != tt.want {
				t.Errorf("StepEnds = %v", got)
			}
			if got := ctx.StepError(step); got != tt.want {
				t.Errorf("StepError = %v", got)
			}
		})
	}
}

func TestSignal_WaitTimesOut(t *testing.T) {
	s := build.NewSignal()
	if s.Wait(10 * time.Millisecond) {
		t.Error("Wait on an unset signal should time out")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Set()
	}()
	if !s.Wait(-1) {
		t.Error("Wait should return once set")
	}
}

func TestContext_CreateLogger_File(t *testing.T) {
	dir := t.TempDir()
	settings := config.DefaultSettings()
	settings.WorkingDirectory = dir
	settings.BuildSystem = types.BuildSystemMSBuild

	logPath := filepath.Join(dir, config.DefaultLogFile)
	if err := os.WriteFile(logPath, []byte("previous build\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := build.NewContext(types.BuildSystemMSBuild, types.BuildTypeDevelopment)
	log, err := ctx.CreateLogger(settings)
	if err != nil {
		t.Fatalf("CreateLogger failed: %v", err)
	}
	if loggers, ok := log.(*logger.Loggers); !ok || loggers.Count() != 1 {
		t.Errorf("expected file logger only for non-console builds, got %T", log)
	}

	log.Info("current build")
	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "previous build") {
		t.Error("previous log should be deleted")
	}
	if !strings.Contains(string(data), "current build") {
		t.Error("expected the new log line")
	}
}

func TestContext_CreateLogger_CombinedKeepsLog(t *testing.T) {
	dir := t.TempDir()
	settings := config.DefaultSettings()
	settings.WorkingDirectory = dir

	logPath := filepath.Join(dir, config.DefaultLogFile)
	if err := os.WriteFile(logPath, []byte("reference phase\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := build.NewContext(types.BuildSystemConsole, types.BuildTypeDevelopment)
	ctx.SetCombinedBuild(true)
	log, err := ctx.CreateLogger(settings)
	if err != nil {
		t.Fatalf("CreateLogger failed: %v", err)
	}
	if loggers, ok := log.(*logger.Loggers); !ok || loggers.Count() != 2 {
		t.Errorf("expected file and console loggers for console builds")
	}
	log.Close()

	data, _ := os.ReadFile(logPath)
	if !strings.Contains(string(data), "reference phase") {
		t.Error("combined builds must append to the shared log")
	}
}

func TestContext_CreateLogger_ConsoleOnly(t *testing.T) {
	settings := config.DefaultSettings()
	settings.LogFile = ""

	ctx := build.NewContext(types.BuildSystemNAnt, types.BuildTypeDevelopment)
	log, err := ctx.CreateLogger(settings)
	if err != nil {
		t.Fatalf("CreateLogger failed: %v", err)
	}
	if loggers, ok := log.(*logger.Loggers); !ok || loggers.Count() != 1 {
		t.Error("expected a single console logger")
	}

	settings.Verbosity = "loud"
	if _, err := ctx.CreateLogger(settings); err == nil {
		t.Error("expected invalid verbosity to fail")
	}
	if _, err := ctx.CreateLogger(nil); !errors.Is(err, build.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestContext_AdvanceState(t *testing.T) {
	ctx := build.NewContext(types.BuildSystemConsole, types.BuildTypeDevelopment)

	if !ctx.AdvanceState(types.BuildStateStarted) || ctx.State() != types.BuildStateStarted {
		t.Fatalf("AdvanceState(Started) left state %s", ctx.State())
	}
	if !ctx.AdvanceState(types.BuildStateError) || !ctx.AdvanceState(types.BuildStateRunning) {
		t.Error("AdvanceState should move on from Error")
	}

	ctx.Cancel()
	for _, state := range []types.BuildState{types.BuildStateRunning, types.BuildStateFinished, types.BuildStateError} {
		if ctx.AdvanceState(state) {
			t.Errorf("AdvanceState(%s) should refuse after Cancel", state)
		}
	}
	if !ctx.IsCancelled() {
		t.Errorf("state = %s, want cancelled", ctx.State())
	}
	if !ctx.Signal().IsSet() {
		t.Error("cancellation signal should stay set")
	}
}
