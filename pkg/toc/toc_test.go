package toc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandcastle-helpers/helpbuild/pkg/toc"
)

const sample = `<?xml version="1.0" encoding="utf-8"?>
<topics>
  <topic id="R:Project" file="R_Project">
    <topic id="N:Demo" file="N_Demo">
      <topic id="T:Demo.Widget" file="T_Demo_Widget" />
    </topic>
  </topic>
  <topic id="intro" />
</topics>`

func TestParse(t *testing.T) {
	nodes, err := toc.Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, "R_Project", nodes[0].Target())
	assert.Equal(t, "intro", nodes[1].Target())
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, "T:Demo.Widget", nodes[0].Children[0].Children[0].ID)
	assert.Equal(t, 4, toc.Count(nodes))
}

func TestWalk_DepthAndSkip(t *testing.T) {
	nodes, err := toc.Parse([]byte(sample))
	require.NoError(t, err)

	var visited []string
	var depths []int
	toc.Walk(nodes, func(n *toc.Node, depth int) bool {
		visited = append(visited, n.ID)
		depths = append(depths, depth)
		return n.ID != "N:Demo"
	})

	assert.Equal(t, []string{"R:Project", "N:Demo", "intro"}, visited)
	assert.Equal(t, []int{0, 1, 0}, depths)
}

func TestMarshalRoundTrip(t *testing.T) {
	nodes := []*toc.Node{
		{ID: "a", File: "a", Children: []*toc.Node{{ID: "b", File: "b"}}},
	}
	data, err := toc.Marshal(nodes)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "toc.xml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	read, err := toc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, nodes, read)
}

func TestParse_Malformed(t *testing.T) {
	_, err := toc.Parse([]byte("<topics><topic id='a'>"))
	assert.Error(t, err)

	_, err = toc.Read(filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)
}
