package webhelp

import (
	"fmt"
	"path/filepath"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/chm"
	"github.com/sandcastle-helpers/helpbuild/pkg/store"
	"github.com/sandcastle-helpers/helpbuild/pkg/toc"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// HelperAction converts a web help tree and writes its index page
type HelperAction struct {
	TocFile    string
	HTMLFolder string
	ASPX       bool
	Limit      int
	// DictionaryPath defaults to the title dictionary in the working directory
	DictionaryPath string

	dictionary *store.PersistentDictionary
}

// NewHelperStep creates the web helper step
func NewHelperStep(tocFile string, aspx bool) *build.Step {
	return build.NewStep("WebHelper", &HelperAction{TocFile: tocFile, ASPX: aspx})
}

func (a *HelperAction) Type() types.StepType { return types.StepTypeWebHelper }

func (a *HelperAction) Initialize(*build.Context) error { return nil }

// Uninitialize closes the title dictionary
func (a *HelperAction) Uninitialize(*build.Context) error {
	if a.dictionary == nil {
		return nil
	}
	err := a.dictionary.Close()
	a.dictionary = nil
	return err
}

func (a *HelperAction) Run(sc *build.StepContext) error {
	if a.dictionary == nil {
		path := a.DictionaryPath
		if path == "" {
			path = filepath.Join(sc.WorkingDirectory, chm.DictionaryFile)
		}
		dict, err := store.Open(path)
		if err != nil {
			return err
		}
		a.dictionary = dict
	}

	folder := a.HTMLFolder
	if folder == "" {
		folder = "html"
	}
	conv := &Converter{Dictionary: a.dictionary, Logger: sc.Logger, Limit: a.Limit}
	pages, err := conv.ConvertTree(sc.Ctx, sc.Resolve(folder))
	if err != nil {
		return err
	}

	nodes, err := toc.Read(sc.Resolve(a.TocFile))
	if err != nil {
		return err
	}

	h := &Helper{
		Title:      sc.Settings().HelpTitle,
		HTMLFolder: folder,
		ASPX:       a.ASPX,
		Dictionary: a.dictionary,
	}
	target, err := h.WriteIndex(sc.WorkingDirectory, nodes, pages)
	if err != nil {
		return err
	}
	sc.Logger.Info(fmt.Sprintf("Wrote %s for %d topics", filepath.Base(target), len(pages)))
	return nil
}
