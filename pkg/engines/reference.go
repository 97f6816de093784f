package engines

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/steps"
)

// ReferencePlanner plans API reference builds: reflection over the group
// assemblies, the document model transforms, the manifest and the table of
// contents
type ReferencePlanner struct{}

var _ build.Planner = ReferencePlanner{}

// Plan returns one multi-step per enabled reference group followed by the
// viewer steps
func (ReferencePlanner) Plan(e *build.Engine) ([]*build.Step, error) {
	return plan(e, func(g *build.Group) ([]*build.Step, error) {
		return referenceSteps(e, g)
	})
}

func referenceSteps(e *build.Engine, g *build.Group) ([]*build.Step, error) {
	if g.Source == "" {
		return nil, fmt.Errorf("%w: no assembly source", build.ErrInvalidArgument)
	}
	settings := e.Settings()
	source := settings.Resolve(g.Source)
	transforms := transformsDir(settings)
	xsl := func(names ...string) string {
		paths := make([]string, len(names))
		for i, n := range names {
			paths[i] = steps.QuoteArg(filepath.Join(transforms, n))
		}
		return "/xsl:" + strings.Join(paths, " /xsl:")
	}

	assemblies, comments := assemblyPatterns(source)
	copyComments := &steps.FileCopy{
		Sources:     []string{comments},
		Destination: CommentsFolder,
		Overwrite:   true,
		AllowEmpty:  true,
	}

	args := []string{steps.QuoteArg(assemblies)}
	for _, dep := range g.Dependencies {
		args = append(args, "/dep:"+steps.QuoteArg(settings.Resolve(dep)))
	}
	args = append(args, "/out:"+ReflectionOrg)

	xslTool := toolPath(e, config.ToolXslTransform)
	return []*build.Step{
		build.NewStep("Copy comments", copyComments),
		steps.NewProcessStep("MRefBuilder", toolPath(e, config.ToolMRefBuilder), strings.Join(args, " ")),
		steps.NewProcessStep("Document model", xslTool,
			fmt.Sprintf("%s %s /out:%s", xsl("ApplyVSDocModel.xsl", "AddFriendlyFilenames.xsl"), ReflectionOrg, ReflectionFile)),
		steps.NewProcessStep("Topic manifest", xslTool,
			fmt.Sprintf("%s %s /out:%s", xsl("ReflectionToManifest.xsl"), ReflectionFile, steps.ManifestFile)),
		steps.NewProcessStep("Table of contents", xslTool,
			fmt.Sprintf("%s %s /out:%s", xsl("CreateVSToc.xsl"), ReflectionFile, steps.TocFile)),
	}, nil
}

// assemblyPatterns returns the assembly and XML comment patterns of a group
// source, which is either a directory or an assembly pattern
func assemblyPatterns(source string) (string, string) {
	if strings.ContainsAny(filepath.Base(source), "*?[") {
		return source, filepath.Join(filepath.Dir(source), "*.xml")
	}
	return filepath.Join(source, "*.dll"), filepath.Join(source, "*.xml")
}
