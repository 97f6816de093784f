package chm

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/sandcastle-helpers/helpbuild/pkg/store"
	"github.com/sandcastle-helpers/helpbuild/pkg/toc"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// TopicExtension is appended to table of contents targets
const TopicExtension = ".htm"

// Helper writes the project, contents and index files compiled by hhc
type Helper struct {
	HelpName string
	Title    string
	// DefaultTopic is relative to the project directory, e.g. html/index.htm
	DefaultTopic string
	// HTMLFolder holds the converted topics, relative to the project directory
	HTMLFolder string
	Language   Language
	Template   []string
	Dictionary *store.PersistentDictionary
	// Encoding is applied to the written files; nil keeps UTF-8
	Encoding *Encoding
}

// ProjectFile returns the name of the .hhp file
func (h *Helper) ProjectFile() string { return h.HelpName + ".hhp" }

// ContentsFile returns the name of the .hhc file
func (h *Helper) ContentsFile() string { return h.HelpName + ".hhc" }

// IndexFile returns the name of the .hhk file
func (h *Helper) IndexFile() string { return h.HelpName + ".hhk" }

func (h *Helper) htmlFolder() string {
	if h.HTMLFolder == "" {
		return "html"
	}
	return h.HTMLFolder
}

// local returns the compiler path of a topic file relative to the HTML folder
func (h *Helper) local(file string) string {
	return strings.ReplaceAll(path.Join(h.htmlFolder(), filepath.ToSlash(file)), "/", `\`)
}

// WriteProject writes {HelpName}.hhp into dir from the line template
func (h *Helper) WriteProject(dir string) error {
	template := h.Template
	if len(template) == 0 {
		template = DefaultHHPTemplate
	}
	r := strings.NewReplacer(
		"{0}", h.HelpName,
		"{1}", strings.ReplaceAll(h.DefaultTopic, "/", `\`),
		"{2}", h.Language.Name,
		"{3}", h.Title,
	)

	var buf bytes.Buffer
	for _, line := range template {
		buf.WriteString(r.Replace(line))
		buf.WriteString("\r\n")
	}
	return h.write(filepath.Join(dir, h.ProjectFile()), buf.Bytes())
}

// WriteContents writes {HelpName}.hhc into dir as a nested sitemap of nodes
func (h *Helper) WriteContents(dir string, nodes []*toc.Node) error {
	var buf bytes.Buffer
	h.header(&buf)
	buf.WriteString("<OBJECT type=\"text/site properties\">\r\n")
	buf.WriteString("\t<param name=\"Window Styles\" value=\"0x801227\">\r\n")
	buf.WriteString("</OBJECT>\r\n")
	if err := h.writeNodes(&buf, nodes, 0); err != nil {
		return err
	}
	buf.WriteString("</BODY>\r\n</HTML>\r\n")
	return h.write(filepath.Join(dir, h.ContentsFile()), buf.Bytes())
}

func (h *Helper) writeNodes(buf *bytes.Buffer, nodes []*toc.Node, depth int) error {
	if len(nodes) == 0 {
		return nil
	}
	indent := strings.Repeat("\t", depth)
	buf.WriteString(indent + "<UL>\r\n")
	for _, n := range nodes {
		file := n.Target() + TopicExtension
		title, err := h.title(file, n)
		if err != nil {
			return err
		}
		buf.WriteString(indent + "\t<LI><OBJECT type=\"text/sitemap\">\r\n")
		writeParam(buf, indent+"\t\t", "Name", title)
		writeParam(buf, indent+"\t\t", "Local", h.local(file))
		buf.WriteString(indent + "\t\t</OBJECT>\r\n")
		if err := h.writeNodes(buf, n.Children, depth+1); err != nil {
			return err
		}
	}
	buf.WriteString(indent + "</UL>\r\n")
	return nil
}

func (h *Helper) title(file string, n *toc.Node) (string, error) {
	if h.Dictionary != nil {
		title, ok, err := h.Dictionary.Get(file)
		if err != nil {
			return "", err
		}
		if ok {
			return title, nil
		}
	}
	if n.Title != "" {
		return n.Title, nil
	}
	return n.ID, nil
}

// WriteIndex writes {HelpName}.hhk into dir from the K keywords of pages.
// A keyword found in several pages lists every page under one entry.
func (h *Helper) WriteIndex(dir string, pages []*Page) error {
	entries := make(map[string][]*Page)
	for _, p := range pages {
		for _, kw := range p.Keywords {
			entries[kw] = append(entries[kw], p)
		}
	}
	keywords := make([]string, 0, len(entries))
	for kw := range entries {
		keywords = append(keywords, kw)
	}
	sort.Slice(keywords, func(i, j int) bool {
		a, b := strings.ToLower(keywords[i]), strings.ToLower(keywords[j])
		if a == b {
			return keywords[i] < keywords[j]
		}
		return a < b
	})

	var buf bytes.Buffer
	h.header(&buf)
	buf.WriteString("<UL>\r\n")
	for _, kw := range keywords {
		buf.WriteString("\t<LI><OBJECT type=\"text/sitemap\">\r\n")
		writeParam(&buf, "\t\t", "Name", kw)
		targets := entries[kw]
		if len(targets) == 1 {
			writeParam(&buf, "\t\t", "Local", h.local(targets[0].File))
		} else {
			for _, p := range targets {
				writeParam(&buf, "\t\t", "Name", p.Title)
				writeParam(&buf, "\t\t", "Local", h.local(p.File))
			}
		}
		buf.WriteString("\t\t</OBJECT>\r\n")
	}
	buf.WriteString("</UL>\r\n</BODY>\r\n</HTML>\r\n")
	return h.write(filepath.Join(dir, h.IndexFile()), buf.Bytes())
}

func (h *Helper) header(buf *bytes.Buffer) {
	buf.WriteString("<!DOCTYPE HTML PUBLIC \"-//IETF//DTD HTML//EN\">\r\n<HTML>\r\n<HEAD>\r\n")
	buf.WriteString("<meta http-equiv=\"Content-Type\" content=\"text/html; charset=utf-8\">\r\n")
	buf.WriteString("</HEAD>\r\n<BODY>\r\n")
}

func writeParam(buf *bytes.Buffer, indent, name, value string) {
	fmt.Fprintf(buf, "%s<param name=\"%s\" value=\"%s\">\r\n", indent, name, html.EscapeString(value))
}

func (h *Helper) write(path string, data []byte) error {
	if h.Encoding != nil {
		encoded, err := h.Encoding.Encode(data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
		}
		data = encoded
	}
	if err := utils.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
