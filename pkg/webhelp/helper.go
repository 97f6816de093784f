package webhelp

import (
	"bytes"
	"fmt"
	"html/template"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sandcastle-helpers/helpbuild/pkg/chm"
	"github.com/sandcastle-helpers/helpbuild/pkg/store"
	"github.com/sandcastle-helpers/helpbuild/pkg/toc"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// Index page names
const (
	IndexHTM  = "index.htm"
	IndexASPX = "index.aspx"
)

// DOM ids of the index page. Scripts and style sheets shipped with the
// presentation style address the page through them.
const (
	SplitterID  = "HelpSplitter"
	LeftPaneID  = "LeftPane"
	TabsID      = "HelpTabs"
	TreeID      = "sidetree"
	RightPaneID = "RightPane"
	TopicViewID = "HelpTopicView"
)

const aspxDirective = "<%@ Page Language=\"C#\" EnableViewState=\"false\" %>\n"

var page = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta http-equiv="Content-Type" content="text/html; charset=utf-8" />
<title>{{.Title}}</title>
<link rel="stylesheet" type="text/css" href="styles/webhelp.css" />
<script type="text/javascript" src="scripts/webhelp.js"></script>
</head>
<body>
<div id="HelpSplitter">
<div id="LeftPane">
<div id="HelpTabs">
<ul class="tabs">
<li><a href="#sidetree">Contents</a></li>
<li><a href="#helpindex">Index</a></li>
</ul>
<div id="sidetree">
{{template "tree" .Tree}}
</div>
<div id="helpindex">
<ul>
{{- range .Index}}
<li>{{.Keyword}}{{range .Links}} <a href="{{.Href}}" target="HelpTopicView">{{.Title}}</a>{{end}}</li>
{{- end}}
</ul>
</div>
</div>
</div>
<div id="RightPane">
<iframe id="HelpTopicView" name="HelpTopicView" src="{{.DefaultTopic}}" frameborder="0"></iframe>
</div>
</div>
</body>
</html>
{{define "tree"}}<ul>
{{- range .}}
<li><a href="{{.Href}}" target="HelpTopicView">{{.Title}}</a>{{if .Children}}{{template "tree" .Children}}{{end}}</li>
{{- end}}
</ul>{{end}}`))

type treeNode struct {
	Title    string
	Href     string
	Children []treeNode
}

type link struct {
	Title string
	Href  string
}

type indexEntry struct {
	Keyword string
	Links   []link
}

type pageData struct {
	Title        string
	DefaultTopic string
	Tree         []treeNode
	Index        []indexEntry
}

// Helper writes the index page of a web help tree
type Helper struct {
	Title string
	// HTMLFolder holds the topics, relative to the index page
	HTMLFolder string
	// ASPX selects index.aspx instead of index.htm
	ASPX       bool
	Dictionary *store.PersistentDictionary
}

// PageName returns the file name of the index page
func (h *Helper) PageName() string {
	if h.ASPX {
		return IndexASPX
	}
	return IndexHTM
}

func (h *Helper) href(file string) string {
	folder := h.HTMLFolder
	if folder == "" {
		folder = "html"
	}
	return path.Join(folder, filepath.ToSlash(file))
}

// WriteIndex writes the index page into dir. The contents tab mirrors nodes,
// the index tab lists the K keywords of pages.
func (h *Helper) WriteIndex(dir string, nodes []*toc.Node, pages []*chm.Page) (string, error) {
	tree, err := h.tree(nodes)
	if err != nil {
		return "", err
	}
	data := pageData{
		Title: h.Title,
		Tree:  tree,
		Index: h.index(pages),
	}
	if len(tree) > 0 {
		data.DefaultTopic = tree[0].Href
	}

	var buf bytes.Buffer
	if h.ASPX {
		buf.WriteString(aspxDirective)
	}
	if err := page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", h.PageName(), err)
	}

	target := filepath.Join(dir, h.PageName())
	if err := utils.WriteFileAtomic(target, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write %s: %w", h.PageName(), err)
	}
	return target, nil
}

func (h *Helper) tree(nodes []*toc.Node) ([]treeNode, error) {
	out := make([]treeNode, 0, len(nodes))
	for _, n := range nodes {
		file := n.Target() + chm.TopicExtension
		title := n.Title
		if h.Dictionary != nil {
			known, ok, err := h.Dictionary.Get(file)
			if err != nil {
				return nil, err
			}
			if ok {
				title = known
			}
		}
		if title == "" {
			title = n.ID
		}
		children, err := h.tree(n.Children)
		if err != nil {
			return nil, err
		}
		out = append(out, treeNode{Title: title, Href: h.href(file), Children: children})
	}
	return out, nil
}

func (h *Helper) index(pages []*chm.Page) []indexEntry {
	byKeyword := make(map[string][]link)
	for _, p := range pages {
		for _, kw := range p.Keywords {
			byKeyword[kw] = append(byKeyword[kw], link{Title: p.Title, Href: h.href(p.File)})
		}
	}
	entries := make([]indexEntry, 0, len(byKeyword))
	for kw, links := range byKeyword {
		entries = append(entries, indexEntry{Keyword: kw, Links: links})
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Keyword) < strings.ToLower(entries[j].Keyword)
	})
	return entries
}
