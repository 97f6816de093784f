package chm

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/sandcastle-helpers/helpbuild/internal/workers"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/store"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// TopicPattern matches the topic files converted by ConvertTree
const TopicPattern = "*.htm*"

// Page is a converted topic
type Page struct {
	// File is the slash separated path relative to the converted tree
	File     string
	Title    string
	Keywords []string
}

// Converter prepares built HTML topics for the help compiler
type Converter struct {
	Dictionary *store.PersistentDictionary
	// Encoding is applied to every written topic; nil keeps UTF-8
	Encoding *Encoding
	Logger   logger.Logger
	// Limit bounds concurrent conversions, GOMAXPROCS when zero
	Limit int
}

func (c *Converter) log() logger.Logger {
	if c.Logger == nil {
		return logger.NewNopLogger()
	}
	return c.Logger
}

// ConvertTree converts every topic under srcDir into the same relative path
// under dstDir. srcDir and dstDir may be equal. Pages are returned sorted by
// file.
func (c *Converter) ConvertTree(ctx context.Context, srcDir, dstDir string) ([]*Page, error) {
	if c.Dictionary == nil {
		return nil, ErrNoDictionary
	}
	files, err := utils.FindFiles(srcDir, TopicPattern)
	if err != nil {
		return nil, fmt.Errorf("find topics in %s: %w", srcDir, err)
	}

	pages := make([]*Page, len(files))
	indexes := make([]int, len(files))
	for i := range indexes {
		indexes[i] = i
	}

	err = workers.ForEach(ctx, c.log(), c.Limit, indexes,
		func(i int) string { return filepath.Base(files[i]) },
		func(_ context.Context, i int) error {
			rel, err := filepath.Rel(srcDir, files[i])
			if err != nil {
				return err
			}
			page, err := c.ConvertFile(files[i], filepath.Join(dstDir, rel), filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	if err != nil {
		return nil, err
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].File < pages[j].File })
	c.log().Debug(fmt.Sprintf("Converted %d topics", len(pages)))
	return pages, nil
}

// ConvertFile converts one topic and records its title under key. A topic
// that is not well-formed is copied unchanged when key already has a title
// and fails otherwise.
func (c *Converter) ConvertFile(src, dst, key string) (*Page, error) {
	if c.Dictionary == nil {
		return nil, ErrNoDictionary
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read topic: %w", err)
	}

	if perr := CheckWellFormed(data); perr != nil {
		title, ok, err := c.Dictionary.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("convert %s: %w", key, perr)
		}
		c.log().Warn(fmt.Sprintf("%s is not well-formed, copied unchanged: %v", key, perr))
		if err := utils.WriteFileAtomic(dst, data); err != nil {
			return nil, fmt.Errorf("copy %s: %w", key, err)
		}
		return &Page{File: key, Title: title}, nil
	}

	out, page := StripTopic(data)
	page.File = key
	if page.Title == "" {
		if title, ok, _ := c.Dictionary.Get(key); ok {
			page.Title = title
		} else {
			page.Title = strings.TrimSuffix(filepath.Base(key), filepath.Ext(key))
		}
	}

	if c.Encoding != nil {
		if out, err = c.Encoding.Encode(out); err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
	}
	if err := utils.WriteFileAtomic(dst, out); err != nil {
		return nil, fmt.Errorf("write %s: %w", key, err)
	}
	if err := c.Dictionary.Set(key, page.Title); err != nil {
		return nil, err
	}
	return &page, nil
}

// CheckWellFormed reports the first XML syntax error of a topic. HTML named
// entities and void elements are accepted.
func CheckWellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.AutoClose = xml.HTMLAutoClose
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// StripTopic removes <xml> data islands, MSHelp:* elements and xmlns:*
// attributes from a topic. It returns the remaining markup with the topic
// title and the terms of its K index keywords.
func StripTopic(data []byte) ([]byte, Page) {
	var (
		out     bytes.Buffer
		page    Page
		title   strings.Builder
		skip    int
		inTitle bool
	)
	out.Grow(len(data))

	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		// Token lowercases tag names in place, so keep the raw text first.
		raw := append([]byte(nil), z.Raw()...)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if kw, ok := keywordTerm(tok); ok {
				page.Keywords = append(page.Keywords, kw)
			}
			if isProprietary(tok.Data) {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if skip > 0 {
				continue
			}
			if tok.Data == "title" && tt == html.StartTagToken {
				inTitle = true
			}
			if attrs, changed := stripNamespaces(tok.Attr); changed {
				tok.Attr = attrs
				out.WriteString(tok.String())
				continue
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if isProprietary(tag) {
				if skip > 0 {
					skip--
				}
				continue
			}
			if skip > 0 {
				continue
			}
			if tag == "title" {
				inTitle = false
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if inTitle {
				title.WriteString(z.Token().Data)
			}
		default:
			if skip > 0 {
				continue
			}
		}
		out.Write(raw)
	}

	page.Title = strings.Join(strings.Fields(title.String()), " ")
	return out.Bytes(), page
}

func isProprietary(tag string) bool {
	return tag == "xml" || strings.HasPrefix(tag, "mshelp:")
}

func keywordTerm(tok html.Token) (string, bool) {
	if tok.Data != "mshelp:keyword" {
		return "", false
	}
	var index, term string
	for _, a := range tok.Attr {
		switch a.Key {
		case "index":
			index = a.Val
		case "term":
			term = a.Val
		}
	}
	if !strings.EqualFold(index, "K") || strings.TrimSpace(term) == "" {
		return "", false
	}
	return strings.TrimSpace(term), true
}

func stripNamespaces(attrs []html.Attribute) ([]html.Attribute, bool) {
	kept := attrs[:0:0]
	changed := false
	for _, a := range attrs {
		if strings.HasPrefix(a.Key, "xmlns:") {
			changed = true
			continue
		}
		kept = append(kept, a)
	}
	return kept, changed
}
