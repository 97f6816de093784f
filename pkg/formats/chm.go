package formats

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/chm"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/steps"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// HhcSuccessCode is the exit code of a successful HTML Help compilation
const HhcSuccessCode = 1

// Chm is the HTML Help 1.x format
type Chm struct {
	common
}

var _ build.Format = (*Chm)(nil)

// NewChm creates the format with its defaults
func NewChm() *Chm {
	f := &Chm{}
	f.Reset()
	return f
}

func (f *Chm) Type() types.FormatType { return types.FormatTypeChm }

// Reset restores the defaults
func (f *Chm) Reset() {
	o := newOptions()
	o.Name = "HtmlHelp 1.x"
	o.FormatFolder = "HtmlHelp1x"
	o.OutputFolder = "HtmlHelp"
	o.LinkType = types.LinkTypeLocal
	o.ExternalLinkType = types.LinkTypeMsdn
	o.ExternalLinkTarget = types.LinkTargetBlank
	o.OmitXMLDeclaration = true
	f.opts = o
}

func (f *Chm) Clone() build.Format {
	return &Chm{common{opts: f.opts.Clone()}}
}

// OutputPath is the compiled help file of a single-group build
func (f *Chm) OutputPath(settings *config.Settings) string {
	return f.GroupOutputPath(settings, "")
}

// GroupOutputPath is the compiled help file published for the group built in workingDir
func (f *Chm) GroupOutputPath(settings *config.Settings, workingDir string) string {
	return filepath.Join(OutputFolderPath(settings, f), HelpFileName(settings, workingDir)+".chm")
}

func (f *Chm) WriteAssembler(ctx *build.Context, group *build.Group, w io.Writer) error {
	return writeAssembler(f, ctx, group, w, nil)
}

func (f *Chm) usesChmBuilder() bool {
	return f.opts.Property(PropertyUseChmBuilder) == "true"
}

func (f *Chm) CreateStep(ctx *build.Context, stage types.BuildStage, workingDir string) *build.Step {
	settings := settingsOf(ctx)
	if settings == nil {
		return nil
	}
	name := HelpFileName(settings, workingDir)

	switch stage {
	case types.BuildStageCloseViewer:
		return steps.NewCloseViewerStep(name + ".chm")
	case types.BuildStageStartViewer:
		return steps.NewStartViewerStep(viewerPath(settings), f.GroupOutputPath(settings, workingDir))
	case types.BuildStageCompilation:
		return f.compilation(settings, workingDir, name)
	}
	return nil
}

func (f *Chm) compilation(settings *config.Settings, workingDir, name string) *build.Step {
	cfg := config.NewBuildConfiguration(settings)
	folder := FolderPath(workingDir, f)
	relFolder := filepath.Join(OutputDirectory, f.opts.FormatFolder)
	toc := filepath.Join(workingDir, TocFile)
	lcid := settings.LCID
	if lcid == 0 {
		lcid = chm.EnglishLCID
	}

	var children []*build.Step
	if f.usesChmBuilder() {
		args := fmt.Sprintf("/project:%s /html:%s /lcid:%d /toc:%s /out:%s",
			steps.QuoteArg(name),
			steps.QuoteArg(filepath.Join(relFolder, HTMLFolder)),
			lcid,
			steps.QuoteArg(TocFile),
			steps.QuoteArg(relFolder))
		if path := cfg.ChmBuilderConfigPath(); path != "" {
			args += " /config:" + steps.QuoteArg(path)
		}
		builder := steps.NewProcessStep("ChmBuilder", cfg.ToolPath(config.ToolChmBuilder), args)
		builder.WorkingDirectory = workingDir
		children = append(children, builder)

		if !settings.IsEnglish() {
			fix := steps.NewProcessStep("DBCSFix", cfg.ToolPath(config.ToolDBCSFix),
				fmt.Sprintf("/d:%s /l:%d", steps.QuoteArg(folder), lcid))
			fix.WorkingDirectory = workingDir
			children = append(children, fix)
		}
	} else {
		helper := chm.NewHelperStep(name, toc, cfg.ChmBuilderConfigPath())
		helper.WorkingDirectory = folder
		children = append(children, helper)
	}

	compile := steps.NewProcessStep("Compile "+name+".chm", cfg.ToolPath(config.ToolHhc),
		steps.QuoteArg(name+".hhp"), HhcSuccessCode)
	compile.WorkingDirectory = folder

	output := steps.NewFileCopyStep("Copy "+name+".chm", OutputFolderPath(settings, f), name+".chm")
	output.WorkingDirectory = folder

	children = append(children, compile, output)
	step := build.NewMultiStep("Compile "+f.opts.Name, children...)
	step.Description = "Compile " + name + ".chm"
	return step
}
