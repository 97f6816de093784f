// Package toc reads and writes the toc.xml table of contents shared by the
// topic manifest step and the help project writers
package toc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
)

// Node is one entry of the table of contents
type Node struct {
	ID       string  `xml:"id,attr"`
	File     string  `xml:"file,attr,omitempty"`
	Title    string  `xml:"title,attr,omitempty"`
	Children []*Node `xml:"topic"`
}

type document struct {
	XMLName xml.Name `xml:"topics"`
	Topics  []*Node  `xml:"topic"`
}

// Read parses a toc.xml file
func Read(path string) ([]*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table of contents: %w", err)
	}
	return Parse(data)
}

// Parse parses toc.xml content
func Parse(data []byte) ([]*Node, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse table of contents: %w", err)
	}
	return doc.Topics, nil
}

// Marshal renders nodes as an indented toc.xml document
func Marshal(nodes []*Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(document{Topics: nodes}); err != nil {
		return nil, fmt.Errorf("encode table of contents: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Target returns the file a node points at, falling back to its id
func (n *Node) Target() string {
	if n.File != "" {
		return n.File
	}
	return n.ID
}

// Walk visits nodes depth-first in document order. Returning false from fn
// skips the children of that node.
func Walk(nodes []*Node, fn func(n *Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []*Node, depth int, fn func(*Node, int) bool) {
	for _, n := range nodes {
		if fn(n, depth) {
			walk(n.Children, depth+1, fn)
		}
	}
}

// Count returns the number of nodes in the tree
func Count(nodes []*Node) int {
	n := 0
	Walk(nodes, func(*Node, int) bool {
		n++
		return true
	})
	return n
}
