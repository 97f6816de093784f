package formats

import (
	"io"
	"path/filepath"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/chm"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/steps"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/webhelp"
)

// Web is browsable help with a tabbed index.htm page
type Web struct {
	common
}

// Htm is plain HTML topics without an index page
type Htm struct {
	common
}

// Aspx is browsable help hosted by an index.aspx page
type Aspx struct {
	common
}

var (
	_ build.Format = (*Web)(nil)
	_ build.Format = (*Htm)(nil)
	_ build.Format = (*Aspx)(nil)
)

// NewWeb creates the format with its defaults
func NewWeb() *Web {
	f := &Web{}
	f.Reset()
	return f
}

// NewHtm creates the format with its defaults
func NewHtm() *Htm {
	f := &Htm{}
	f.Reset()
	return f
}

// NewAspx creates the format with its defaults
func NewAspx() *Aspx {
	f := &Aspx{}
	f.Reset()
	return f
}

func webOptions(name, folder string) *build.FormatOptions {
	o := newOptions()
	o.Name = name
	o.FormatFolder = folder
	o.OutputFolder = folder
	o.LinkType = types.LinkTypeLocal
	o.ExternalLinkType = types.LinkTypeMsdn
	o.ExternalLinkTarget = types.LinkTargetBlank
	o.OmitXMLDeclaration = true
	return o
}

func (f *Web) Type() types.FormatType  { return types.FormatTypeWeb }
func (f *Htm) Type() types.FormatType  { return types.FormatTypeHtm }
func (f *Aspx) Type() types.FormatType { return types.FormatTypeAspx }

// Reset restores the defaults
func (f *Web) Reset() { f.opts = webOptions("Web Help", "WebHelp") }

// Reset restores the defaults
func (f *Htm) Reset() { f.opts = webOptions("Htm Help", "HtmHelp") }

// Reset restores the defaults
func (f *Aspx) Reset() { f.opts = webOptions("Aspx Help", "AspxHelp") }

func (f *Web) Clone() build.Format  { return &Web{common{opts: f.opts.Clone()}} }
func (f *Htm) Clone() build.Format  { return &Htm{common{opts: f.opts.Clone()}} }
func (f *Aspx) Clone() build.Format { return &Aspx{common{opts: f.opts.Clone()}} }

// OutputPath is the index page of the web help
func (f *Web) OutputPath(settings *config.Settings) string {
	return filepath.Join(OutputFolderPath(settings, f), webhelp.IndexHTM)
}

// OutputPath is the topic folder
func (f *Htm) OutputPath(settings *config.Settings) string {
	return filepath.Join(OutputFolderPath(settings, f), HTMLFolder)
}

// OutputPath is the index page of the web help
func (f *Aspx) OutputPath(settings *config.Settings) string {
	return filepath.Join(OutputFolderPath(settings, f), webhelp.IndexASPX)
}

func (f *Web) WriteAssembler(ctx *build.Context, group *build.Group, w io.Writer) error {
	return writeAssembler(f, ctx, group, w, nil)
}

func (f *Htm) WriteAssembler(ctx *build.Context, group *build.Group, w io.Writer) error {
	return writeAssembler(f, ctx, group, w, nil)
}

func (f *Aspx) WriteAssembler(ctx *build.Context, group *build.Group, w io.Writer) error {
	return writeAssembler(f, ctx, group, w, nil)
}

func (f *Web) CreateStep(ctx *build.Context, stage types.BuildStage, workingDir string) *build.Step {
	settings := settingsOf(ctx)
	if settings == nil {
		return nil
	}
	switch stage {
	case types.BuildStageStartViewer:
		return steps.NewStartViewerStep(viewerPath(settings), f.OutputPath(settings))
	case types.BuildStageCompilation:
		return webCompilation(f, settings, workingDir, false)
	}
	return nil
}

func (f *Htm) CreateStep(ctx *build.Context, stage types.BuildStage, workingDir string) *build.Step {
	settings := settingsOf(ctx)
	if settings == nil || stage != types.BuildStageCompilation {
		return nil
	}
	publish := steps.NewDirectoryCopyStep(filepath.Join(FolderPath(workingDir, f), HTMLFolder), f.OutputPath(settings))
	step := build.NewMultiStep("Compile "+f.opts.Name, publish)
	step.Description = "Publish HTML topics"
	return step
}

func (f *Aspx) CreateStep(ctx *build.Context, stage types.BuildStage, workingDir string) *build.Step {
	settings := settingsOf(ctx)
	if settings == nil || stage != types.BuildStageCompilation {
		return nil
	}
	return webCompilation(f, settings, workingDir, true)
}

func webCompilation(f build.Format, settings *config.Settings, workingDir string, aspx bool) *build.Step {
	folder := FolderPath(workingDir, f)

	helper := build.NewStep("WebHelper", &webhelp.HelperAction{
		TocFile:        filepath.Join(workingDir, TocFile),
		ASPX:           aspx,
		DictionaryPath: filepath.Join(workingDir, OutputDirectory, f.Options().FormatFolder+"."+chm.DictionaryFile),
	})
	helper.WorkingDirectory = folder

	publish := steps.NewDirectoryCopyStep(folder, OutputFolderPath(settings, f))

	step := build.NewMultiStep("Compile "+f.Name(), helper, publish)
	step.Description = "Publish " + f.Name()
	return step
}
