package chm

import (
	"fmt"
	"path/filepath"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/store"
	"github.com/sandcastle-helpers/helpbuild/pkg/toc"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// DictionaryFile is the title dictionary kept next to the help project
const DictionaryFile = "titles.db"

// HelperAction converts the topics of a CHM project directory in place and
// writes the .hhp, .hhc and .hhk files compiled by hhc
type HelperAction struct {
	// HelpName is the base name of the project files; empty selects the
	// help name of the settings
	HelpName string
	// TocFile is resolved against the step working directory
	TocFile string
	// ConfigFile is the chmBuilder.config language table; missing files
	// select the built-in table
	ConfigFile string
	HTMLFolder string
	// Limit bounds concurrent page conversions
	Limit int

	dictionary *store.PersistentDictionary
	config     *Config
	encoding   *Encoding
}

// NewHelperStep creates the CHM helper step writing the helpName project
func NewHelperStep(helpName, tocFile, configFile string) *build.Step {
	return build.NewStep("ChmHelper", &HelperAction{HelpName: helpName, TocFile: tocFile, ConfigFile: configFile})
}

// Type returns StepTypeChmHelper
func (a *HelperAction) Type() types.StepType { return types.StepTypeChmHelper }

// Initialize loads the language table and builds the encoding chain
func (a *HelperAction) Initialize(ctx *build.Context) error {
	settings := ctx.Settings()
	if settings == nil {
		return &build.BuildError{Op: "chm helper", Err: build.ErrInvalidArgument}
	}

	a.config = DefaultConfig()
	if a.ConfigFile != "" && utils.FileExists(a.ConfigFile) {
		cfg, err := LoadConfig(a.ConfigFile)
		if err != nil {
			return err
		}
		a.config = cfg
	}

	lcid := settings.LCID
	if lcid == 0 {
		lcid = EnglishLCID
	}
	enc, err := NewEncoding(lcid, a.config.Languages)
	if err != nil {
		return err
	}
	a.encoding = enc
	return nil
}

// Uninitialize closes the title dictionary
func (a *HelperAction) Uninitialize(*build.Context) error {
	if a.dictionary == nil {
		return nil
	}
	err := a.dictionary.Close()
	a.dictionary = nil
	return err
}

// Run converts the topics and writes the project files
func (a *HelperAction) Run(sc *build.StepContext) error {
	if a.encoding == nil {
		return &build.BuildError{Op: "chm helper", Step: sc.Step.Name, Err: build.ErrNotInitialized}
	}
	if a.dictionary == nil {
		dict, err := store.Open(filepath.Join(sc.WorkingDirectory, DictionaryFile))
		if err != nil {
			return err
		}
		a.dictionary = dict
	}

	settings := sc.Settings()
	htmlFolder := a.HTMLFolder
	if htmlFolder == "" {
		htmlFolder = "html"
	}
	htmlDir := sc.Resolve(htmlFolder)

	converter := &Converter{
		Dictionary: a.dictionary,
		Encoding:   a.encoding,
		Logger:     sc.Logger,
		Limit:      a.Limit,
	}
	pages, err := converter.ConvertTree(sc.Ctx, htmlDir, htmlDir)
	if err != nil {
		return err
	}

	nodes, err := toc.Read(sc.Resolve(a.TocFile))
	if err != nil {
		return err
	}

	helpName := a.HelpName
	if helpName == "" {
		helpName = settings.HelpName
	}
	helper := &Helper{
		HelpName:   helpName,
		Title:      settings.HelpTitle,
		HTMLFolder: htmlFolder,
		Language:   a.encoding.Language(),
		Template:   a.config.HHPTemplate,
		Dictionary: a.dictionary,
		Encoding:   a.encoding,
	}
	if len(nodes) > 0 {
		helper.DefaultTopic = filepath.ToSlash(filepath.Join(htmlFolder, nodes[0].Target()+TopicExtension))
	}

	if err := helper.WriteProject(sc.WorkingDirectory); err != nil {
		return err
	}
	if err := helper.WriteContents(sc.WorkingDirectory, nodes); err != nil {
		return err
	}
	if err := helper.WriteIndex(sc.WorkingDirectory, pages); err != nil {
		return err
	}

	sc.Logger.Info(fmt.Sprintf("Prepared %s with %d topics (codepage %d)",
		helper.ProjectFile(), len(pages), a.encoding.Codepage()))
	return nil
}
