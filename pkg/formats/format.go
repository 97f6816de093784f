// Package formats implements the output formats of a documentation build.
// Each format produces the steps of the build stages it takes part in and
// the link resolution and save components of the assembler configuration.
package formats

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/collections"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// OutputDirectory is the folder of a group working directory that
// BuildAssembler writes per-format topics into
const OutputDirectory = "Output"

// HTMLFolder holds the topics inside a format folder
const HTMLFolder = "html"

// TocFile is the table of contents of a group working directory
const TocFile = "toc.xml"

// Property keys understood by several formats
const (
	PropertyFrameworkLinks = "frameworkLinks"
	PropertyVendor         = "vendor"
	PropertyProduct        = "product"
	PropertyUseChmBuilder  = "useChmBuilder"
)

// common holds the options and accessors shared by every format
type common struct {
	opts *build.FormatOptions
}

func (c *common) Name() string                         { return c.opts.Name }
func (c *common) Enabled() bool                        { return c.opts.Enabled }
func (c *common) Options() *build.FormatOptions        { return c.opts }
func (c *common) SetLinkType(t types.LinkType)         { c.opts.LinkType = t }
func (c *common) SetExternalLinkType(t types.LinkType) { c.opts.ExternalLinkType = t }

// FolderPath is the directory holding the format's assembled topics
func FolderPath(workingDir string, f build.Format) string {
	return filepath.Join(workingDir, OutputDirectory, f.Options().FormatFolder)
}

// OutputFolderPath is the directory receiving the format's final output
func OutputFolderPath(settings *config.Settings, f build.Format) string {
	return filepath.Join(settings.OutputPath(), f.Options().OutputFolder)
}

// HelpFileName is the base name of compiled help files. Builds with several
// enabled groups suffix it with the group of workingDir.
func HelpFileName(settings *config.Settings, workingDir string) string {
	if workingDir == "" || enabledGroups(settings) <= 1 {
		return settings.HelpName
	}
	return settings.HelpName + "." + filepath.Base(workingDir)
}

func enabledGroups(settings *config.Settings) int {
	n := 0
	for _, g := range settings.Groups {
		if g.IsEnabled() {
			n++
		}
	}
	return n
}

// GroupOutput is implemented by formats that publish one help file per group
type GroupOutput interface {
	GroupOutputPath(settings *config.Settings, workingDir string) string
}

// OutputPathsFor lists the files f publishes for the groups built in dirs
func OutputPathsFor(f build.Format, settings *config.Settings, dirs ...string) []string {
	g, ok := f.(GroupOutput)
	if !ok || len(dirs) == 0 {
		return []string{f.OutputPath(settings)}
	}
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		out = append(out, g.GroupOutputPath(settings, dir))
	}
	return out
}

func settingsOf(ctx *build.Context) *config.Settings {
	if ctx == nil {
		return nil
	}
	return ctx.Settings()
}

func viewerPath(settings *config.Settings) string {
	return config.NewBuildConfiguration(settings).ToolPath(config.ToolViewer)
}

// attr escapes s for use in an XML attribute value
func attr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func linkTarget(t types.LinkTarget) string {
	if t == "" || t == types.LinkTargetNone {
		return ""
	}
	return "_" + string(t)
}

func linkType(t types.LinkType) string {
	if t == "" {
		return string(types.LinkTypeNone)
	}
	return string(t)
}

// assemblerExtras lets a format add components ahead of the save component
type assemblerExtras func(w *bytes.Buffer, ctx *build.Context, group *build.Group)

// writeAssembler renders the link resolution and save components of a
// format. Reference groups resolve links against reflection data and save
// topics by file name; conceptual groups resolve topic links by id and save
// topics by guid.
func writeAssembler(f build.Format, ctx *build.Context, group *build.Group, w io.Writer, extras assemblerExtras) error {
	if group == nil {
		return &build.BuildError{Op: "write assembler", Err: build.ErrInvalidArgument}
	}
	o := f.Options()
	target := linkTarget(o.ExternalLinkTarget)
	framework := o.Property(PropertyFrameworkLinks)
	if framework == "" {
		framework = "%DXROOT%/Data/Reflection"
	}

	var buf bytes.Buffer
	switch group.Type {
	case types.GroupTypeReference:
		buf.WriteString("        <component type=\"Microsoft.Ddue.Tools.ResolveReferenceLinksComponent2\" locale=\"en-us\" linkTarget=\"" + attr(target) + "\">\n")
		fmt.Fprintf(&buf, "          <targets base=\"%s\" recurse=\"true\" files=\"*.xml\" type=\"%s\" />\n", attr(framework), linkType(o.ExternalLinkType))
		fmt.Fprintf(&buf, "          <targets files=\"reflection.xml\" type=\"%s\" />\n", linkType(o.LinkType))
		buf.WriteString("        </component>\n")
	case types.GroupTypeConceptual:
		buf.WriteString("        <component type=\"Microsoft.Ddue.Tools.ResolveConceptualLinksComponent\" showBrokenLinkText=\"true\">\n")
		fmt.Fprintf(&buf, "          <targets base=\"XmlComp\" type=\"%s\" />\n", linkType(o.LinkType))
		buf.WriteString("        </component>\n")
		buf.WriteString("        <component type=\"Microsoft.Ddue.Tools.ResolveReferenceLinksComponent2\" locale=\"en-us\" linkTarget=\"" + attr(target) + "\">\n")
		fmt.Fprintf(&buf, "          <targets base=\"%s\" recurse=\"true\" files=\"*.xml\" type=\"%s\" />\n", attr(framework), linkType(o.ExternalLinkType))
		buf.WriteString("        </component>\n")
	default:
		return &build.BuildError{Op: "write assembler", Err: fmt.Errorf("%w: %s", build.ErrUnsupportedGroup, group.Type)}
	}

	if extras != nil {
		extras(&buf, ctx, group)
	}

	saveBase := strings.Join([]string{OutputDirectory, o.FormatFolder, HTMLFolder}, `\`)
	buf.WriteString("        <component type=\"Microsoft.Ddue.Tools.SaveComponent\">\n")
	fmt.Fprintf(&buf, "          <save base=\"%s\" path=\"%s\" indent=\"%s\" omit-xml-declaration=\"%s\" />\n",
		attr(saveBase), attr(SavePath(group.Type)), strconv.FormatBool(o.Indent), strconv.FormatBool(o.OmitXMLDeclaration))
	buf.WriteString("        </component>\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// SavePath is the XPath expression naming saved topics
func SavePath(g types.GroupType) string {
	if g == types.GroupTypeConceptual {
		return "concat(/html/head/meta[@name='guid']/@content,'.htm')"
	}
	return "concat(/html/head/meta[@name='file']/@content,'.htm')"
}

// New creates the format selected by cfg, applying its overrides to the
// format defaults
func New(cfg config.FormatConfig) (build.Format, error) {
	var f build.Format
	switch cfg.Type {
	case types.FormatTypeChm:
		f = NewChm()
	case types.FormatTypeHxs:
		f = NewHxs()
	case types.FormatTypeMhv:
		f = NewMhv()
	case types.FormatTypeWeb:
		f = NewWeb()
	case types.FormatTypeHtm:
		f = NewHtm()
	case types.FormatTypeAspx:
		f = NewAspx()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Type)
	}

	o := f.Options()
	o.Enabled = cfg.IsEnabled()
	if cfg.Name != "" {
		o.Name = cfg.Name
	}
	if cfg.FormatFolder != "" {
		o.FormatFolder = cfg.FormatFolder
	}
	if cfg.OutputFolder != "" {
		o.OutputFolder = cfg.OutputFolder
	}
	if cfg.LinkType != "" {
		f.SetLinkType(cfg.LinkType)
	}
	if cfg.ExternalLinkType != "" {
		f.SetExternalLinkType(cfg.ExternalLinkType)
	}
	if cfg.ExternalLinkTarget != "" {
		o.ExternalLinkTarget = cfg.ExternalLinkTarget
	}
	if cfg.Indent != nil {
		o.Indent = *cfg.Indent
	}
	if cfg.OmitXMLDeclaration != nil {
		o.OmitXMLDeclaration = *cfg.OmitXMLDeclaration
	}
	for k, v := range cfg.Properties {
		o.Properties[k] = v
	}
	return f, nil
}

// FromSettings creates every format listed in settings
func FromSettings(settings *config.Settings) ([]build.Format, error) {
	list, _ := collections.NewKeyedList[build.Format]()
	for _, cfg := range settings.Formats {
		f, err := New(cfg)
		if err != nil {
			return nil, err
		}
		if err := list.Add(f); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFormat, f.Name())
		}
	}
	return list.Items(), nil
}

// Defaults returns one format of every type with its default options
func Defaults() []build.Format {
	return []build.Format{NewChm(), NewHxs(), NewMhv(), NewWeb(), NewHtm(), NewAspx()}
}

func newOptions() *build.FormatOptions {
	return &build.FormatOptions{Enabled: true, Properties: map[string]string{}}
}
