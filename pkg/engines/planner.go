// Package engines plans the step lists of the reference and conceptual
// sub-builds and wires them into a project
package engines

import (
	"fmt"
	"path/filepath"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/formats"
	"github.com/sandcastle-helpers/helpbuild/pkg/steps"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// Files produced in a reference group working directory
const (
	ReflectionOrg   = "reflection.org"
	ReflectionFile  = "reflection.xml"
	CommentsFolder  = "comments"
	TransformFolder = "Transforms"
)

// PropertyTransforms overrides the directory holding the XSL transforms
const PropertyTransforms = "transformsDirectory"

func transformsDir(settings *config.Settings) string {
	if dir := settings.Property(PropertyTransforms); dir != "" {
		return settings.Resolve(dir)
	}
	return filepath.Join(settings.ConfigPath(), TransformFolder)
}

// groupSteps wraps the work of a group between the viewer-closing steps and
// the compilation steps of every enabled format
func groupSteps(e *build.Engine, group *build.Group, work []*build.Step) *build.Step {
	ctx := e.Context()
	dir := group.WorkingDirectory(e.Settings())

	var children []*build.Step
	for _, f := range e.EnabledFormats() {
		if s := f.CreateStep(ctx, types.BuildStageCloseViewer, dir); s != nil {
			children = append(children, s)
		}
	}
	children = append(children,
		steps.NewDirectoryDeleteStep(dir),
		steps.NewDirectoryCreateStep(dir),
	)
	children = append(children, work...)
	children = append(children, assemblerSteps(e, group)...)
	for _, f := range e.EnabledFormats() {
		if s := f.CreateStep(ctx, types.BuildStageCompilation, dir); s != nil {
			children = append(children, s)
		}
	}

	step := build.NewMultiStep("Build "+group.Name(), children...)
	step.Description = fmt.Sprintf("Build the %s group %s", group.Type, group.Name())
	step.WorkingDirectory = dir
	return step
}

func assemblerSteps(e *build.Engine, group *build.Group) []*build.Step {
	assembler := steps.NewProcessStep("BuildAssembler", toolPath(e, config.ToolBuildAssembler),
		fmt.Sprintf("/config:%s %s", steps.AssemblerConfigName, steps.ManifestFile))
	assembler.Description = "Assemble the topics of " + group.Name()
	return []*build.Step{steps.NewAssemblerStep(group), assembler}
}

// viewerSteps starts the viewers of the enabled formats after every group
// was built
func viewerSteps(e *build.Engine, groups []*build.Group) []*build.Step {
	if len(groups) == 0 {
		return nil
	}
	dir := groups[0].WorkingDirectory(e.Settings())
	var out []*build.Step
	for _, f := range e.EnabledFormats() {
		if s := f.CreateStep(e.Context(), types.BuildStageStartViewer, dir); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func toolPath(e *build.Engine, tool string) string {
	return e.Configuration().ToolPath(tool)
}

func plan(e *build.Engine, work func(*build.Group) ([]*build.Step, error)) ([]*build.Step, error) {
	if len(e.EnabledFormats()) == 0 {
		return nil, fmt.Errorf("the %s build has no enabled format", e.Kind())
	}
	groups := e.EnabledGroups()
	if len(groups) == 0 {
		return nil, fmt.Errorf("the %s build has no enabled group", e.Kind())
	}

	planned := make([]*build.Step, 0, len(groups)+1)
	for _, g := range groups {
		w, err := work(g)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name(), err)
		}
		planned = append(planned, groupSteps(e, g, w))
	}
	planned = append(planned, viewerSteps(e, groups)...)
	return append(planned, summaryStep(e)), nil
}

// summaryStep logs where every enabled format published the groups of e
func summaryStep(e *build.Engine) *build.Step {
	enabled := e.EnabledFormats()
	var dirs []string
	for _, g := range e.EnabledGroups() {
		dirs = append(dirs, g.WorkingDirectory(e.Settings()))
	}
	step := build.NewStep("Summary", steps.Func(func(sc *build.StepContext) error {
		for _, f := range enabled {
			for _, path := range formats.OutputPathsFor(f, sc.Settings(), dirs...) {
				sc.Logger.Info(fmt.Sprintf("%s: %s", f.Name(), path))
			}
		}
		return nil
	}))
	step.ContinueOnError = true
	return step
}
