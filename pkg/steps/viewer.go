package steps

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/google/shlex"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// CloseViewer terminates running viewers whose command line matches Pattern.
// It never fails: a viewer that is not running is the common case.
type CloseViewer struct {
	Pattern string
}

// NewCloseViewerStep creates a tolerant step closing viewers of pattern
func NewCloseViewerStep(pattern string) *build.Step {
	step := build.NewStep("Close viewer", &CloseViewer{Pattern: pattern})
	step.ContinueOnError = true
	return step
}

func (a *CloseViewer) Type() types.StepType { return types.StepTypeCloseViewer }

func (a *CloseViewer) Run(sc *build.StepContext) error {
	if a.Pattern == "" {
		return nil
	}

	err := exec.CommandContext(sc.Ctx, "pkill", "-f", a.Pattern).Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		sc.Logger.Info("Closed viewer " + a.Pattern)
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		// pkill exits 1 when nothing matched
	default:
		if err := exec.CommandContext(sc.Ctx, "killall", a.Pattern).Run(); err != nil {
			sc.Logger.Debug(fmt.Sprintf("Could not close viewer %s: %v", a.Pattern, err))
		}
	}
	return nil
}

// StartViewer launches a viewer on the built help file without waiting for it
type StartViewer struct {
	Viewer    string
	Arguments string
	Target    string
}

// NewStartViewerStep creates a step opening target in viewer
func NewStartViewerStep(viewer, target string) *build.Step {
	step := build.NewStep("Start viewer", &StartViewer{Viewer: viewer, Target: target})
	step.ContinueOnError = true
	return step
}

func (a *StartViewer) Type() types.StepType { return types.StepTypeStartViewer }

func (a *StartViewer) Run(sc *build.StepContext) error {
	if a.Viewer == "" {
		sc.Logger.Info("No viewer configured")
		return nil
	}
	args, err := shlex.Split(a.Arguments)
	if err != nil {
		return &build.BuildError{Op: "parse viewer arguments", Step: sc.Step.Name, Err: err}
	}
	if a.Target != "" {
		args = append(args, sc.Resolve(a.Target))
	}

	cmd := exec.Command(a.Viewer, args...)
	cmd.Dir = sc.WorkingDirectory
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}
	go cmd.Wait()

	sc.Logger.Info(fmt.Sprintf("Started %s", a.Viewer))
	return nil
}
