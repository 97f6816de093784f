package steps

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/toc"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// Files written by ConceptualManifest into the group working directory
const (
	TopicsDirectory    = "Topics"
	CompanionDirectory = "XmlComp"
	ManifestFile       = "manifest.xml"
	TocFile            = "toc.xml"
)

// Topic is a conceptual topic found in the group sources
type Topic struct {
	ID    string
	Title string
	File  string
}

// ConceptualManifest collects the MAML topics of a conceptual group, copies
// them by id and writes the topic manifest, the table of contents and one
// metadata companion file per topic
type ConceptualManifest struct {
	Group *build.Group
}

// NewConceptualManifestStep creates the topic manifest step of group
func NewConceptualManifestStep(group *build.Group) *build.Step {
	return build.NewStep("Topic manifest", &ConceptualManifest{Group: group})
}

func (a *ConceptualManifest) Type() types.StepType { return types.StepTypeCustom }

func (a *ConceptualManifest) Run(sc *build.StepContext) error {
	if a.Group == nil || a.Group.Source == "" {
		return &build.BuildError{Op: "topic manifest", Step: sc.Step.Name, Err: build.ErrInvalidArgument}
	}

	files, err := topicFiles(sc, a.Group.Source)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFiles, a.Group.Source)
	}

	topics := make([]Topic, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, file := range files {
		topic, err := ReadTopic(file)
		if err != nil {
			return err
		}
		if prev, ok := seen[topic.ID]; ok {
			return fmt.Errorf("%w: %s in %s and %s", ErrDuplicateTopic, topic.ID, prev, file)
		}
		seen[topic.ID] = file
		topics = append(topics, topic)

		target := filepath.Join(sc.WorkingDirectory, TopicsDirectory, topic.ID+".xml")
		if err := utils.CopyFile(file, target, true); err != nil {
			return fmt.Errorf("copy topic %s: %w", filepath.Base(file), err)
		}
		if err := writeCompanion(sc.WorkingDirectory, topic); err != nil {
			return err
		}
	}

	if err := utils.WriteFileAtomic(sc.Resolve(ManifestFile), manifestXML(topics)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := a.writeToc(sc, topics); err != nil {
		return err
	}

	sc.Logger.Info(fmt.Sprintf("Prepared %d topics for %s", len(topics), a.Group.Name()))
	return nil
}

func topicFiles(sc *build.StepContext, source string) ([]string, error) {
	root := sc.Settings().WorkingDirectory
	pattern := source
	if dir := sc.Settings().Resolve(source); utils.DirectoryExists(dir) {
		root, pattern = dir, "**/*.aml"
	}
	files, err := utils.Glob(root, pattern)
	if err != nil {
		return nil, fmt.Errorf("find topics in %s: %w", source, err)
	}
	return files, nil
}

func (a *ConceptualManifest) writeToc(sc *build.StepContext, topics []Topic) error {
	dst := sc.Resolve(TocFile)
	if a.Group.TocFile != "" {
		if err := utils.CopyFile(sc.Settings().Resolve(a.Group.TocFile), dst, true); err != nil {
			return fmt.Errorf("copy table of contents: %w", err)
		}
		return nil
	}

	nodes := make([]*toc.Node, 0, len(topics))
	for _, t := range topics {
		nodes = append(nodes, &toc.Node{ID: t.ID, File: t.ID, Title: t.Title})
	}
	data, err := toc.Marshal(nodes)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(dst, data); err != nil {
		return fmt.Errorf("write table of contents: %w", err)
	}
	return nil
}

func manifestXML(topics []Topic) []byte {
	sorted := append([]Topic(nil), topics...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<topics>\n")
	for _, t := range sorted {
		fmt.Fprintf(&buf, "  <topic id=\"%s\" type=\"MAML\" />\n", escape(t.ID))
	}
	buf.WriteString("</topics>\n")
	return buf.Bytes()
}

func writeCompanion(workDir string, t Topic) error {
	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	fmt.Fprintf(&buf, "<metadata fileAssetGuid=\"%s\" assetTypeId=\"CompiledBook\">\n", escape(t.ID))
	fmt.Fprintf(&buf, "  <topic id=\"%s\">\n    <title>%s</title>\n  </topic>\n", escape(t.ID), escape(t.Title))
	buf.WriteString("</metadata>\n")

	path := filepath.Join(workDir, CompanionDirectory, t.ID+".cmp.xml")
	if err := utils.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write companion of %s: %w", t.ID, err)
	}
	return nil
}

// ReadTopic reads the id of the root topic element and the first title of a
// MAML file. Topics without a title are named after their file.
func ReadTopic(path string) (Topic, error) {
	f, err := os.Open(path)
	if err != nil {
		return Topic{}, err
	}
	defer f.Close()

	topic := Topic{File: path}
	dec := xml.NewDecoder(f)
	dec.Strict = false
	inTitle := false
	var title strings.Builder

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Topic{}, fmt.Errorf("parse topic %s: %w", filepath.Base(path), err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "topic" && topic.ID == "":
				for _, attr := range el.Attr {
					if attr.Name.Local == "id" {
						topic.ID = strings.TrimSpace(attr.Value)
					}
				}
			case el.Name.Local == "title" && topic.Title == "":
				inTitle = true
			}
		case xml.CharData:
			if inTitle {
				title.Write(el)
			}
		case xml.EndElement:
			if inTitle && el.Name.Local == "title" {
				inTitle = false
				topic.Title = strings.TrimSpace(title.String())
			}
		}
	}

	if topic.ID == "" {
		return Topic{}, fmt.Errorf("%w: %s", ErrMissingTopicID, filepath.Base(path))
	}
	if topic.Title == "" {
		topic.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return topic, nil
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
