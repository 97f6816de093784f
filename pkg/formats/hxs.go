package formats

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/steps"
	"github.com/sandcastle-helpers/helpbuild/pkg/toc"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// Hxs is the HTML Help 2.x format
type Hxs struct {
	common
}

var _ build.Format = (*Hxs)(nil)

// NewHxs creates the format with its defaults
func NewHxs() *Hxs {
	f := &Hxs{}
	f.Reset()
	return f
}

func (f *Hxs) Type() types.FormatType { return types.FormatTypeHxs }

// Reset restores the defaults
func (f *Hxs) Reset() {
	o := newOptions()
	o.Name = "HtmlHelp 2.x"
	o.FormatFolder = "HtmlHelp2x"
	o.OutputFolder = "MsdnHelp"
	o.LinkType = types.LinkTypeIndex
	o.ExternalLinkType = types.LinkTypeIndex
	o.ExternalLinkTarget = types.LinkTargetNone
	o.OmitXMLDeclaration = true
	f.opts = o
}

func (f *Hxs) Clone() build.Format {
	return &Hxs{common{opts: f.opts.Clone()}}
}

// OutputPath is the compiled help file of a single-group build
func (f *Hxs) OutputPath(settings *config.Settings) string {
	return f.GroupOutputPath(settings, "")
}

// GroupOutputPath is the compiled help file published for the group built in workingDir
func (f *Hxs) GroupOutputPath(settings *config.Settings, workingDir string) string {
	return filepath.Join(OutputFolderPath(settings, f), HelpFileName(settings, workingDir)+".HxS")
}

func (f *Hxs) WriteAssembler(ctx *build.Context, group *build.Group, w io.Writer) error {
	return writeAssembler(f, ctx, group, w, func(buf *bytes.Buffer, _ *build.Context, _ *build.Group) {
		buf.WriteString("        <component type=\"Microsoft.Ddue.Tools.ForEachComponent\">\n")
		buf.WriteString("          <variable expression=\"/document/reference/attributes/attribute\" />\n")
		buf.WriteString("          <components>\n")
		buf.WriteString("            <component type=\"Microsoft.Ddue.Tools.ResolveReferenceLinksComponent2\" />\n")
		buf.WriteString("          </components>\n")
		buf.WriteString("        </component>\n")
	})
}

func (f *Hxs) CreateStep(ctx *build.Context, stage types.BuildStage, workingDir string) *build.Step {
	settings := settingsOf(ctx)
	if settings == nil {
		return nil
	}
	name := HelpFileName(settings, workingDir)

	switch stage {
	case types.BuildStageCloseViewer:
		return steps.NewCloseViewerStep(name + ".HxS")
	case types.BuildStageCompilation:
		cfg := config.NewBuildConfiguration(settings)
		folder := FolderPath(workingDir, f)

		project := build.NewStep("HxC project", &HxcProject{
			HelpName: name,
			Title:    settings.HelpTitle,
			LCID:     settings.LCID,
			TocFile:  filepath.Join(workingDir, TocFile),
		})
		project.WorkingDirectory = folder

		compile := steps.NewProcessStep("Compile "+name+".HxS", cfg.ToolPath(config.ToolHxComp),
			fmt.Sprintf("-p %s -l %s", steps.QuoteArg(name+".HxC"), steps.QuoteArg(name+".log")))
		compile.WorkingDirectory = folder

		output := steps.NewFileCopyStep("Copy "+name+".HxS", OutputFolderPath(settings, f), name+".HxS")
		output.WorkingDirectory = folder

		step := build.NewMultiStep("Compile "+f.opts.Name, project, compile, output)
		step.Description = "Compile " + name + ".HxS"
		return step
	}
	return nil
}

// HxcProject writes the HxC collection, HxF file list, HxT contents and HxK
// index definition files compiled by hxcomp
type HxcProject struct {
	HelpName string
	Title    string
	LCID     int
	TocFile  string
}

func (a *HxcProject) Type() types.StepType { return types.StepTypeCustom }

func (a *HxcProject) Run(sc *build.StepContext) error {
	nodes, err := toc.Read(a.TocFile)
	if err != nil {
		return err
	}

	files := map[string][]byte{
		a.HelpName + ".HxC":   a.collection(),
		a.HelpName + ".HxF":   fileList(),
		a.HelpName + "_K.HxK": keywordIndex("K"),
	}
	hxt, err := tableOfContents(a.Title, nodes)
	if err != nil {
		return err
	}
	files[a.HelpName+".HxT"] = hxt

	for file, data := range files {
		if err := utils.WriteFileAtomic(sc.Resolve(file), data); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}
	sc.Logger.Info(fmt.Sprintf("Wrote %s project with %d contents entries", a.HelpName+".HxC", toc.Count(nodes)))
	return nil
}

func (a *HxcProject) collection() []byte {
	lcid := a.LCID
	if lcid == 0 {
		lcid = config.EnglishLCID
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<!DOCTYPE HelpCollection SYSTEM \"ms-help://hx/resources/HelpCollection.DTD\">\n")
	fmt.Fprintf(&buf, "<HelpCollection DTDVersion=\"1.0\" LangId=\"%d\" Title=\"%s\" FileVersion=\"1.0.0.0\">\n", lcid, attr(a.Title))
	buf.WriteString("  <CompilerOptions CreateFullTextIndex=\"Yes\" CompileResult=\"Hxs\">\n")
	fmt.Fprintf(&buf, "    <IncludeFile File=\"%s.HxF\" />\n", attr(a.HelpName))
	buf.WriteString("  </CompilerOptions>\n")
	fmt.Fprintf(&buf, "  <TOCDef File=\"%s.HxT\" />\n", attr(a.HelpName))
	fmt.Fprintf(&buf, "  <KeywordIndexDef File=\"%s_K.HxK\" />\n", attr(a.HelpName))
	buf.WriteString("  <ItemMoniker Name=\"!DefaultToc\" ProgId=\"HxDs.HxHierarchy\" InitData=\"AnyString\" />\n")
	buf.WriteString("  <ItemMoniker Name=\"!DefaultFullTextSearch\" ProgId=\"HxDs.HxFullTextSearch\" InitData=\"AnyString\" />\n")
	buf.WriteString("  <ItemMoniker Name=\"!DefaultKeywordIndex\" ProgId=\"HxDs.HxIndex\" InitData=\"K\" />\n")
	buf.WriteString("</HelpCollection>\n")
	return buf.Bytes()
}

func fileList() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<!DOCTYPE HelpFileList SYSTEM \"ms-help://hx/resources/HelpFileList.DTD\">\n")
	buf.WriteString("<HelpFileList DTDVersion=\"1.0\">\n")
	for _, pattern := range []string{`html\*.htm`, `icons\*`, `scripts\*`, `styles\*`, `media\*`, `art\*`} {
		fmt.Fprintf(&buf, "  <File Url=\"%s\" />\n", pattern)
	}
	buf.WriteString("</HelpFileList>\n")
	return buf.Bytes()
}

func keywordIndex(name string) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<!DOCTYPE HelpIndex SYSTEM \"ms-help://hx/resources/HelpIndex.DTD\">\n")
	fmt.Fprintf(&buf, "<HelpIndex DTDVersion=\"1.0\" Name=\"%s\" />\n", name)
	return buf.Bytes()
}

type hxtNode struct {
	XMLName  xml.Name  `xml:"HelpTOCNode"`
	URL      string    `xml:"Url,attr"`
	Children []hxtNode `xml:"HelpTOCNode"`
}

type hxtDocument struct {
	XMLName     xml.Name  `xml:"HelpTOC"`
	DTDVersion  string    `xml:"DTDVersion,attr"`
	PluginStyle string    `xml:"PluginStyle,attr"`
	PluginTitle string    `xml:"PluginTitle,attr"`
	Nodes       []hxtNode `xml:"HelpTOCNode"`
}

func hxtNodes(nodes []*toc.Node) []hxtNode {
	out := make([]hxtNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, hxtNode{
			URL:      strings.Join([]string{HTMLFolder, n.Target() + ".htm"}, `\`),
			Children: hxtNodes(n.Children),
		})
	}
	return out
}

func tableOfContents(title string, nodes []*toc.Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<!DOCTYPE HelpTOC SYSTEM \"ms-help://hx/resources/HelpTOC.DTD\">\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	doc := hxtDocument{DTDVersion: "1.0", PluginStyle: "Hierarchical", PluginTitle: title, Nodes: hxtNodes(nodes)}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode contents: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
