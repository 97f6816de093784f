package formats_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/formats"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/steps"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

func newContext(t *testing.T) (*build.Context, *config.Settings) {
	t.Helper()
	settings := config.DefaultSettings()
	settings.WorkingDirectory = t.TempDir()
	settings.LogFile = ""
	settings.HelpName = "Demo"
	settings.HelpTitle = "Demo Library"

	ctx := build.NewContext(types.BuildSystemConsole, types.BuildTypeDevelopment)
	ctx.SetSettings(settings)
	ctx.SetLogger(logger.NewNopLogger())
	return ctx, settings
}

func TestClonePreservesObservableOptions(t *testing.T) {
	for _, f := range formats.Defaults() {
		t.Run(string(f.Type()), func(t *testing.T) {
			f.Options().Properties["custom"] = "value"
			f.Options().OutputFolder = "Custom"

			c := f.Clone()
			if c.Type() != f.Type() {
				t.Fatalf("clone type = %s, want %s", c.Type(), f.Type())
			}
			if !reflect.DeepEqual(c.Options(), f.Options()) {
				t.Errorf("clone options = %+v, want %+v", c.Options(), f.Options())
			}

			c.Options().Properties["custom"] = "changed"
			c.Options().FormatFolder = "Other"
			if f.Options().Properties["custom"] != "value" || f.Options().FormatFolder == "Other" {
				t.Error("clone shares mutable state with the original")
			}
		})
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	for _, f := range formats.Defaults() {
		want := f.Clone().Options()
		f.Options().FormatFolder = "Changed"
		f.SetLinkType(types.LinkTypeNone)
		f.Reset()
		if !reflect.DeepEqual(f.Options(), want) {
			t.Errorf("%s: reset options = %+v, want %+v", f.Type(), f.Options(), want)
		}
	}
}

func TestMhvCoercesLinkTypes(t *testing.T) {
	tests := []struct {
		in   types.LinkType
		want types.LinkType
	}{
		{types.LinkTypeNone, types.LinkTypeNone},
		{types.LinkTypeID, types.LinkTypeID},
		{types.LinkTypeIndex, types.LinkTypeID},
		{types.LinkTypeLocal, types.LinkTypeID},
		{types.LinkTypeMsdn, types.LinkTypeID},
	}
	for _, tt := range tests {
		f := formats.NewMhv()
		f.SetExternalLinkType(tt.in)
		f.SetLinkType(tt.in)
		if got := f.Options().ExternalLinkType; got != tt.want {
			t.Errorf("external %s: got %s, want %s", tt.in, got, tt.want)
		}
		if got := f.Options().LinkType; got != tt.want {
			t.Errorf("link %s: got %s, want %s", tt.in, got, tt.want)
		}
	}

	chm := formats.NewChm()
	chm.SetExternalLinkType(types.LinkTypeIndex)
	if chm.Options().ExternalLinkType != types.LinkTypeIndex {
		t.Error("only the help viewer format coerces link types")
	}
}

func TestNew_AppliesOverrides(t *testing.T) {
	indent := true
	disabled := false
	f, err := formats.New(config.FormatConfig{
		Type:             types.FormatTypeMhv,
		Enabled:          &disabled,
		Name:             "Viewer",
		OutputFolder:     "Out",
		ExternalLinkType: types.LinkTypeMsdn,
		Indent:           &indent,
		Properties:       map[string]string{formats.PropertyVendor: "Acme"},
	})
	if err != nil {
		t.Fatal(err)
	}
	o := f.Options()
	if f.Enabled() || o.Name != "Viewer" || o.OutputFolder != "Out" || !o.Indent {
		t.Errorf("overrides not applied: %+v", o)
	}
	if o.FormatFolder != "MsHelpViewer" {
		t.Errorf("FormatFolder = %q, want default", o.FormatFolder)
	}
	if o.ExternalLinkType != types.LinkTypeID {
		t.Errorf("ExternalLinkType = %s, want coerced id", o.ExternalLinkType)
	}
	if o.Property(formats.PropertyVendor) != "Acme" || o.Property(formats.PropertyProduct) != "Product" {
		t.Errorf("properties = %v", o.Properties)
	}
}

func TestNew_UnknownType(t *testing.T) {
	_, err := formats.New(config.FormatConfig{Type: "pdf"})
	if !errors.Is(err, formats.ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestFromSettings(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Formats = []config.FormatConfig{{Type: types.FormatTypeChm}, {Type: types.FormatTypeWeb}}
	list, err := formats.FromSettings(settings)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Type() != types.FormatTypeChm || list[1].Type() != types.FormatTypeWeb {
		t.Errorf("formats = %v", list)
	}

	settings.Formats = append(settings.Formats, config.FormatConfig{Type: types.FormatTypeChm})
	if _, err := formats.FromSettings(settings); !errors.Is(err, formats.ErrDuplicateFormat) {
		t.Errorf("err = %v, want ErrDuplicateFormat", err)
	}
}

func TestWriteAssembler_ReferenceVsConceptual(t *testing.T) {
	ctx, _ := newContext(t)
	for _, f := range formats.Defaults() {
		t.Run(string(f.Type()), func(t *testing.T) {
			var ref, con bytes.Buffer
			if err := f.WriteAssembler(ctx, build.NewGroup("Default", types.GroupTypeReference, "bin"), &ref); err != nil {
				t.Fatal(err)
			}
			if err := f.WriteAssembler(ctx, build.NewGroup("Guide", types.GroupTypeConceptual, "docs"), &con); err != nil {
				t.Fatal(err)
			}

			r, c := ref.String(), con.String()
			if !strings.Contains(r, "meta[@name='file']") || strings.Contains(r, "meta[@name='guid']") {
				t.Errorf("reference save path wrong:\n%s", r)
			}
			if !strings.Contains(c, "meta[@name='guid']") {
				t.Errorf("conceptual save path wrong:\n%s", c)
			}
			if !strings.Contains(r, `files="reflection.xml" type="`+string(f.Options().LinkType)+`"`) {
				t.Errorf("reference link targets missing:\n%s", r)
			}
			if !strings.Contains(c, "ResolveConceptualLinksComponent") || strings.Contains(r, "ResolveConceptualLinksComponent") {
				t.Error("conceptual link resolution belongs to conceptual groups only")
			}
			folder := `Output\` + f.Options().FormatFolder + `\html`
			if !strings.Contains(r, `base="`+folder+`"`) {
				t.Errorf("save base %s missing:\n%s", folder, r)
			}
		})
	}
}

func TestWriteAssembler_FormatComponents(t *testing.T) {
	ctx, _ := newContext(t)
	group := build.NewGroup("Default", types.GroupTypeReference, "bin")

	var mhv, chm bytes.Buffer
	if err := formats.NewMhv().WriteAssembler(ctx, group, &mhv); err != nil {
		t.Fatal(err)
	}
	if err := formats.NewChm().WriteAssembler(ctx, group, &chm); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(mhv.String(), "MSHCComponent") || !strings.Contains(mhv.String(), `locale="en-us"`) {
		t.Errorf("help viewer component missing:\n%s", mhv.String())
	}
	if strings.Contains(chm.String(), "MSHCComponent") {
		t.Error("chm must not write the help viewer component")
	}
	if !strings.Contains(chm.String(), `linkTarget="_blank"`) {
		t.Errorf("chm link target missing:\n%s", chm.String())
	}
	if err := formats.NewChm().WriteAssembler(ctx, nil, &chm); err == nil {
		t.Error("nil group should fail")
	}
}

func children(t *testing.T, step *build.Step) []string {
	t.Helper()
	seq := build.SequenceOf(step)
	if seq == nil {
		t.Fatalf("step %q is not a multi-step", step.Name)
	}
	var names []string
	for _, s := range seq.Steps() {
		names = append(names, s.Name)
	}
	return names
}

func TestCreateStep_Stages(t *testing.T) {
	ctx, settings := newContext(t)
	work := filepath.Join(settings.WorkingDirectory, "Intermediate", "Default")

	tests := []struct {
		format      build.Format
		closeViewer bool
		startViewer bool
		compile     []string
	}{
		{formats.NewChm(), true, true, []string{"ChmHelper", "Compile Demo.chm", "Copy Demo.chm"}},
		{formats.NewHxs(), true, false, []string{"HxC project", "Compile Demo.HxS", "Copy Demo.HxS"}},
		{formats.NewMhv(), false, false, []string{"Package Demo.mshc", "Copy Demo.mshc"}},
		{formats.NewWeb(), false, true, []string{"WebHelper", "Copy WebHelp"}},
		{formats.NewHtm(), false, false, []string{"Copy html"}},
		{formats.NewAspx(), false, false, []string{"WebHelper", "Copy AspxHelp"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format.Type()), func(t *testing.T) {
			if got := tt.format.CreateStep(ctx, types.BuildStageCloseViewer, work) != nil; got != tt.closeViewer {
				t.Errorf("close viewer step = %v, want %v", got, tt.closeViewer)
			}
			if got := tt.format.CreateStep(ctx, types.BuildStageStartViewer, work) != nil; got != tt.startViewer {
				t.Errorf("start viewer step = %v, want %v", got, tt.startViewer)
			}
			if tt.format.CreateStep(ctx, types.BuildStageAssembler, work) != nil {
				t.Error("assembler stage is written by the assembler step")
			}
			step := tt.format.CreateStep(ctx, types.BuildStageCompilation, work)
			if step == nil {
				t.Fatal("no compilation step")
			}
			if got := children(t, step); !reflect.DeepEqual(got, tt.compile) {
				t.Errorf("compilation children = %v, want %v", got, tt.compile)
			}
		})
	}

	if formats.NewChm().CreateStep(nil, types.BuildStageCompilation, work) != nil {
		t.Error("no settings should produce no step")
	}
}

func TestChmCompilation_ExternalBuilder(t *testing.T) {
	ctx, settings := newContext(t)
	settings.LCID = 1041
	work := filepath.Join(settings.WorkingDirectory, "Intermediate", "Default")

	f := formats.NewChm()
	f.Options().Properties[formats.PropertyUseChmBuilder] = "true"
	step := f.CreateStep(ctx, types.BuildStageCompilation, work)

	want := []string{"ChmBuilder", "DBCSFix", "Compile Demo.chm", "Copy Demo.chm"}
	if got := children(t, step); !reflect.DeepEqual(got, want) {
		t.Fatalf("children = %v, want %v", got, want)
	}

	seq := build.SequenceOf(step).Steps()
	builder := seq[0].Action.(*steps.Process)
	for _, part := range []string{
		"/project:Demo",
		"/html:" + filepath.ToSlash(filepath.Join(formats.OutputDirectory, "HtmlHelp1x", formats.HTMLFolder)),
		"/lcid:1041",
		"/toc:" + formats.TocFile,
		"/out:" + filepath.ToSlash(filepath.Join(formats.OutputDirectory, "HtmlHelp1x")),
	} {
		if !strings.Contains(builder.Arguments, part) {
			t.Errorf("ChmBuilder arguments %q missing %s", builder.Arguments, part)
		}
	}
	compile := seq[2].Action.(*steps.Process)
	if !reflect.DeepEqual(compile.SuccessCodes, []int{formats.HhcSuccessCode}) {
		t.Errorf("hhc success codes = %v", compile.SuccessCodes)
	}
	if compile.Arguments != "Demo.hhp" {
		t.Errorf("hhc arguments = %q", compile.Arguments)
	}
}

func TestHelpFileName(t *testing.T) {
	settings := config.DefaultSettings()
	settings.HelpName = "Demo"
	if got := formats.HelpFileName(settings, "/w/Intermediate/Default"); got != "Demo" {
		t.Errorf("single group name = %q", got)
	}
	settings.Groups = []config.GroupConfig{{Name: "A"}, {Name: "B"}}
	if got := formats.HelpFileName(settings, "/w/Intermediate/B"); got != "Demo.B" {
		t.Errorf("multi group name = %q", got)
	}
	settings.Groups[0].Enabled = config.Bool(false)
	if got := formats.HelpFileName(settings, "/w/Intermediate/B"); got != "Demo" {
		t.Errorf("disabled groups should not rename outputs, got %q", got)
	}
}

func twoGroupContext(t *testing.T) (*build.Context, *config.Settings, string) {
	t.Helper()
	ctx, settings := newContext(t)
	settings.Groups = []config.GroupConfig{
		{Name: "Ref", Type: types.GroupTypeReference, Source: "bin"},
		{Name: "Con", Type: types.GroupTypeConceptual, Source: "topics"},
	}
	return ctx, settings, filepath.Join(settings.WorkingDirectory, build.IntermediateDirectory, "Ref")
}

func TestChmCompilation_GroupNames(t *testing.T) {
	ctx, settings, work := twoGroupContext(t)
	f := formats.NewChm()
	folder := formats.FolderPath(work, f)
	writeFile(t, filepath.Join(folder, formats.HTMLFolder, "A.htm"), "<html><head><title>A</title></head><body>a</body></html>")
	writeFile(t, filepath.Join(work, formats.TocFile), `<topics><topic id="a" file="A" /></topics>`)

	step := f.CreateStep(ctx, types.BuildStageCompilation, work)
	seq := build.SequenceOf(step).Steps()
	if !runSteps(t, ctx, settings, seq[0]) {
		t.Fatal("ChmHelper failed")
	}

	compile := seq[1].Action.(*steps.Process)
	if compile.Arguments != "Demo.Ref.hhp" {
		t.Errorf("hhc arguments = %q", compile.Arguments)
	}
	data, err := os.ReadFile(filepath.Join(folder, compile.Arguments))
	if err != nil {
		t.Fatalf("hhc would compile a project the helper never wrote: %v", err)
	}
	if !strings.Contains(string(data), "Compiled file=Demo.Ref.chm") {
		t.Errorf("project compiles to the wrong file:\n%s", data)
	}
	for _, name := range []string{"Demo.Ref.hhc", "Demo.Ref.hhk"} {
		if _, err := os.Stat(filepath.Join(folder, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	copied := seq[2].Action.(*steps.FileCopy)
	if !reflect.DeepEqual(copied.Sources, []string{"Demo.Ref.chm"}) {
		t.Errorf("copy sources = %v", copied.Sources)
	}
	if got := f.GroupOutputPath(settings, work); filepath.Base(got) != "Demo.Ref.chm" {
		t.Errorf("GroupOutputPath = %s", got)
	}
	viewer := f.CreateStep(ctx, types.BuildStageStartViewer, work).Action.(*steps.StartViewer)
	if filepath.Base(viewer.Target) != "Demo.Ref.chm" {
		t.Errorf("viewer target = %s", viewer.Target)
	}
}

func TestCompilation_GroupNamesAgree(t *testing.T) {
	ctx, settings, work := twoGroupContext(t)

	hxs := formats.NewHxs()
	seq := build.SequenceOf(hxs.CreateStep(ctx, types.BuildStageCompilation, work)).Steps()
	if got := seq[0].Action.(*formats.HxcProject).HelpName; got != "Demo.Ref" {
		t.Errorf("HxC project name = %s", got)
	}
	if args := seq[1].Action.(*steps.Process).Arguments; !strings.HasPrefix(args, "-p Demo.Ref.HxC ") {
		t.Errorf("hxcomp arguments = %q", args)
	}
	if got := seq[2].Action.(*steps.FileCopy).Sources; !reflect.DeepEqual(got, []string{"Demo.Ref.HxS"}) {
		t.Errorf("HxS copy sources = %v", got)
	}
	if got := filepath.Base(hxs.GroupOutputPath(settings, work)); got != "Demo.Ref.HxS" {
		t.Errorf("HxS output = %s", got)
	}

	mhv := formats.NewMhv()
	seq = build.SequenceOf(mhv.CreateStep(ctx, types.BuildStageCompilation, work)).Steps()
	if got := seq[0].Action.(*formats.MhvPackage).HelpName; got != "Demo.Ref" {
		t.Errorf("package name = %s", got)
	}
	if got := seq[1].Action.(*steps.FileCopy).Sources; !reflect.DeepEqual(got, []string{"Demo.Ref.mshc", "Demo.Ref.msha"}) {
		t.Errorf("mshc copy sources = %v", got)
	}
	if got := filepath.Base(mhv.GroupOutputPath(settings, work)); got != "Demo.Ref.mshc" {
		t.Errorf("mshc output = %s", got)
	}
}

func TestOutputPathsFor(t *testing.T) {
	_, settings, work := twoGroupContext(t)
	con := filepath.Join(settings.WorkingDirectory, build.IntermediateDirectory, "Con")

	got := formats.OutputPathsFor(formats.NewChm(), settings, work, con)
	want := []string{
		filepath.Join(settings.OutputPath(), "HtmlHelp", "Demo.Ref.chm"),
		filepath.Join(settings.OutputPath(), "HtmlHelp", "Demo.Con.chm"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("chm outputs = %v, want %v", got, want)
	}

	web := formats.NewWeb()
	if got := formats.OutputPathsFor(web, settings, work, con); !reflect.DeepEqual(got, []string{web.OutputPath(settings)}) {
		t.Errorf("web outputs = %v", got)
	}
}

func TestOutputPaths(t *testing.T) {
	settings := config.DefaultSettings()
	settings.WorkingDirectory = "/work"
	settings.HelpName = "Demo"

	tests := []struct {
		format build.Format
		want   string
	}{
		{formats.NewChm(), "/work/Help/HtmlHelp/Demo.chm"},
		{formats.NewHxs(), "/work/Help/MsdnHelp/Demo.HxS"},
		{formats.NewMhv(), "/work/Help/MsHelpViewer/Demo.mshc"},
		{formats.NewWeb(), "/work/Help/WebHelp/index.htm"},
		{formats.NewHtm(), "/work/Help/HtmHelp/html"},
		{formats.NewAspx(), "/work/Help/AspxHelp/index.aspx"},
	}
	for _, tt := range tests {
		if got := tt.format.OutputPath(settings); got != filepath.FromSlash(tt.want) {
			t.Errorf("%s: OutputPath = %q, want %q", tt.format.Type(), got, tt.want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func runSteps(t *testing.T, ctx *build.Context, settings *config.Settings, steps ...*build.Step) bool {
	t.Helper()
	engine := build.NewEngine(types.EngineTypeReference, nil)
	if err := engine.Initialize(settings, ctx); err != nil {
		t.Fatal(err)
	}
	return engine.RunSteps(context.Background(), steps)
}

func TestHxcProject(t *testing.T) {
	ctx, settings := newContext(t)
	dir := settings.WorkingDirectory
	writeFile(t, filepath.Join(dir, "toc.xml"), `<topics><topic id="a" file="A"><topic id="b" file="B"/></topic></topics>`)

	step := build.NewStep("HxC project", &formats.HxcProject{HelpName: "Demo", Title: "Demo & Co", TocFile: filepath.Join(dir, "toc.xml")})
	if !runSteps(t, ctx, settings, step) {
		t.Fatal("project step failed")
	}

	hxc, _ := os.ReadFile(filepath.Join(dir, "Demo.HxC"))
	if !strings.Contains(string(hxc), `Title="Demo &amp; Co"`) || !strings.Contains(string(hxc), `LangId="1033"`) {
		t.Errorf("HxC content:\n%s", hxc)
	}
	hxt, _ := os.ReadFile(filepath.Join(dir, "Demo.HxT"))
	if !strings.Contains(string(hxt), `<HelpTOCNode Url="html\A.htm">`) || !strings.Contains(string(hxt), `Url="html\B.htm"`) {
		t.Errorf("HxT content:\n%s", hxt)
	}
	for _, name := range []string{"Demo.HxF", "Demo_K.HxK"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestMhvPackage(t *testing.T) {
	ctx, settings := newContext(t)
	dir := settings.WorkingDirectory
	writeFile(t, filepath.Join(dir, "html", "a.htm"), "<html>a</html>")
	writeFile(t, filepath.Join(dir, "styles", "s.css"), "body{}")

	step := build.NewStep("Package", &formats.MhvPackage{HelpName: "Demo", Title: "Demo", Vendor: "Acme", Product: "Tools"})
	if !runSteps(t, ctx, settings, step) {
		t.Fatal("package step failed")
	}

	r, err := zip.OpenReader(filepath.Join(dir, "Demo.mshc"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	if !reflect.DeepEqual(names, []string{"html/a.htm", "styles/s.css"}) {
		t.Errorf("package entries = %v", names)
	}

	msha, _ := os.ReadFile(filepath.Join(dir, "Demo.msha"))
	for _, want := range []string{`<span class="vendor">Acme</span>`, `<span class="locale">en-us</span>`, `href="Demo.mshc"`} {
		if !strings.Contains(string(msha), want) {
			t.Errorf("manifest missing %s:\n%s", want, msha)
		}
	}
}
