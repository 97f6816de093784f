package formats

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/steps"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// Mhv is the Microsoft Help Viewer format. Its links resolve by id only.
type Mhv struct {
	common
}

var _ build.Format = (*Mhv)(nil)

// NewMhv creates the format with its defaults
func NewMhv() *Mhv {
	f := &Mhv{}
	f.Reset()
	return f
}

func (f *Mhv) Type() types.FormatType { return types.FormatTypeMhv }

// Reset restores the defaults
func (f *Mhv) Reset() {
	o := newOptions()
	o.Name = "Help Viewer"
	o.FormatFolder = "MsHelpViewer"
	o.OutputFolder = "MsHelpViewer"
	o.LinkType = types.LinkTypeID
	o.ExternalLinkType = types.LinkTypeID
	o.ExternalLinkTarget = types.LinkTargetNone
	o.Properties[PropertyVendor] = "Vendor"
	o.Properties[PropertyProduct] = "Product"
	f.opts = o
}

func (f *Mhv) Clone() build.Format {
	return &Mhv{common{opts: f.opts.Clone()}}
}

// SetLinkType accepts None and Id; any other link type is stored as Id
func (f *Mhv) SetLinkType(t types.LinkType) {
	f.opts.LinkType = coerceMhvLink(t)
}

// SetExternalLinkType accepts None and Id; any other link type is stored as Id
func (f *Mhv) SetExternalLinkType(t types.LinkType) {
	f.opts.ExternalLinkType = coerceMhvLink(t)
}

func coerceMhvLink(t types.LinkType) types.LinkType {
	if t == types.LinkTypeNone {
		return t
	}
	return types.LinkTypeID
}

// OutputPath is the help package of a single-group build
func (f *Mhv) OutputPath(settings *config.Settings) string {
	return f.GroupOutputPath(settings, "")
}

// GroupOutputPath is the help package published for the group built in workingDir
func (f *Mhv) GroupOutputPath(settings *config.Settings, workingDir string) string {
	return filepath.Join(OutputFolderPath(settings, f), HelpFileName(settings, workingDir)+".mshc")
}

func (f *Mhv) WriteAssembler(ctx *build.Context, group *build.Group, w io.Writer) error {
	return writeAssembler(f, ctx, group, w, func(buf *bytes.Buffer, ctx *build.Context, group *build.Group) {
		locale := "en-us"
		if s := settingsOf(ctx); s != nil && s.Culture != "" {
			locale = strings.ToLower(s.Culture)
		}
		buf.WriteString("        <component type=\"Microsoft.Ddue.Tools.MSHCComponent\">\n")
		fmt.Fprintf(buf, "          <data self-branded=\"true\" topic-version=\"100\" toc-file=\"%s\" toc-parent=\"\" toc-parent-version=\"100\" locale=\"%s\" />\n",
			TocFile, attr(locale))
		buf.WriteString("        </component>\n")
	})
}

func (f *Mhv) CreateStep(ctx *build.Context, stage types.BuildStage, workingDir string) *build.Step {
	settings := settingsOf(ctx)
	if settings == nil || stage != types.BuildStageCompilation {
		return nil
	}
	name := HelpFileName(settings, workingDir)
	folder := FolderPath(workingDir, f)

	pkg := build.NewStep("Package "+name+".mshc", &MhvPackage{
		HelpName: name,
		Title:    settings.HelpTitle,
		Locale:   strings.ToLower(settings.Culture),
		Vendor:   f.opts.Property(PropertyVendor),
		Product:  f.opts.Property(PropertyProduct),
	})
	pkg.WorkingDirectory = folder

	output := steps.NewFileCopyStep("Copy "+name+".mshc", OutputFolderPath(settings, f), name+".mshc", name+".msha")
	output.WorkingDirectory = folder

	step := build.NewMultiStep("Compile "+f.opts.Name, pkg, output)
	step.Description = "Package " + name + ".mshc"
	return step
}

// MhvPackage zips the topics of the step working directory into a .mshc
// help package and writes the .msha installation manifest next to it
type MhvPackage struct {
	HelpName string
	Title    string
	Locale   string
	Vendor   string
	Product  string
}

func (a *MhvPackage) Type() types.StepType { return types.StepTypePackage }

func (a *MhvPackage) Run(sc *build.StepContext) error {
	pkg := sc.Resolve(a.HelpName + ".mshc")
	n, err := WritePackage(sc.WorkingDirectory, pkg)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(sc.Resolve(a.HelpName+".msha"), a.manifest()); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	sc.Logger.Info(fmt.Sprintf("Packaged %d files into %s", n, filepath.Base(pkg)))
	return nil
}

func (a *MhvPackage) manifest() []byte {
	locale := a.Locale
	if locale == "" {
		locale = "en-us"
	}
	var buf bytes.Buffer
	buf.WriteString("<html xmlns=\"http://www.w3.org/1999/xhtml\">\n")
	fmt.Fprintf(&buf, "<head><title>%s</title></head>\n", attr(a.Title))
	buf.WriteString("<body class=\"vendor-book\">\n  <div class=\"details\">\n")
	fmt.Fprintf(&buf, "    <span class=\"vendor\">%s</span>\n", attr(a.Vendor))
	fmt.Fprintf(&buf, "    <span class=\"locale\">%s</span>\n", attr(locale))
	fmt.Fprintf(&buf, "    <span class=\"product\">%s</span>\n", attr(a.Product))
	fmt.Fprintf(&buf, "    <span class=\"name\">%s</span>\n", attr(a.Title))
	buf.WriteString("  </div>\n  <div class=\"package-list\">\n    <div class=\"package\">\n")
	fmt.Fprintf(&buf, "      <span class=\"name\">%s</span>\n", attr(a.HelpName))
	fmt.Fprintf(&buf, "      <a class=\"current-link\" href=\"%s.mshc\">%s.mshc</a>\n", attr(a.HelpName), attr(a.HelpName))
	buf.WriteString("    </div>\n  </div>\n</body>\n</html>\n")
	return buf.Bytes()
}

// WritePackage zips every file below dir into target, skipping target and
// other packages. Entry names are slash separated and relative to dir.
func WritePackage(dir, target string) (int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".mshc", ".msha", ".tmp":
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("list package files: %w", err)
	}

	tmp := target + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	zw := zip.NewWriter(out)
	for _, path := range files {
		if err := addToZip(zw, dir, path); err != nil {
			zw.Close()
			out.Close()
			os.Remove(tmp)
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(tmp)
		return 0, fmt.Errorf("finish package: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return len(files), nil
}

func addToZip(zw *zip.Writer, dir, path string) error {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add %s: %w", header.Name, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("add %s: %w", header.Name, err)
	}
	return nil
}
