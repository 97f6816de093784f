package webhelp_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/chm"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/store"
	"github.com/sandcastle-helpers/helpbuild/pkg/toc"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/webhelp"
)

const topic = `<html xmlns:MSHelp="http://msdn.microsoft.com/mshelp"><head><title>Widget Class</title>
<xml><MSHelp:Keyword Index="K" Term="Widget" /></xml></head><body><p>text</p></body></html>`

func TestHelper_WriteIndex(t *testing.T) {
	dict, err := store.Open(":memory:")
	require.NoError(t, err)
	defer dict.Close()
	require.NoError(t, dict.Set("N_Demo.htm", "Demo Namespace"))

	nodes := []*toc.Node{
		{ID: "N:Demo", File: "N_Demo", Children: []*toc.Node{{ID: "T:Demo.Widget", File: "T_Demo_Widget", Title: "Widget"}}},
	}
	pages := []*chm.Page{
		{File: "T_Demo_Widget.htm", Title: "Widget", Keywords: []string{"widgets", "Alpha"}},
	}

	dir := t.TempDir()
	h := &webhelp.Helper{Title: "Demo & Co", Dictionary: dict}
	target, err := h.WriteIndex(dir, nodes, pages)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, webhelp.IndexHTM), target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	got := string(data)

	for _, id := range []string{webhelp.SplitterID, webhelp.LeftPaneID, webhelp.TabsID, webhelp.TreeID, webhelp.RightPaneID, webhelp.TopicViewID} {
		assert.Contains(t, got, `id="`+id+`"`)
	}
	assert.Contains(t, got, "<title>Demo &amp; Co</title>")
	assert.Contains(t, got, `src="html/N_Demo.htm"`)
	assert.Contains(t, got, `<a href="html/N_Demo.htm" target="HelpTopicView">Demo Namespace</a><ul>`)
	assert.Contains(t, got, `<a href="html/T_Demo_Widget.htm" target="HelpTopicView">Widget</a>`)
	assert.Less(t, strings.Index(got, "<li>Alpha"), strings.Index(got, "<li>widgets"))
}

func TestHelper_ASPX(t *testing.T) {
	dir := t.TempDir()
	h := &webhelp.Helper{Title: "Demo", ASPX: true}
	target, err := h.WriteIndex(dir, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, webhelp.IndexASPX, filepath.Base(target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<%@ Page"))
}

func TestHelperAction_Run(t *testing.T) {
	settings := config.DefaultSettings()
	settings.WorkingDirectory = t.TempDir()
	settings.LogFile = ""
	settings.HelpTitle = "Demo"

	work := settings.WorkingDirectory
	require.NoError(t, os.MkdirAll(filepath.Join(work, "html"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(work, "html", "T_Widget.htm"), []byte(topic), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(work, "toc.xml"), []byte(`<topics><topic id="T:Widget" file="T_Widget" /></topics>`), 0644))

	var buf bytes.Buffer
	ctx := build.NewContext(types.BuildSystemConsole, types.BuildTypeDevelopment)
	ctx.SetLogger(logger.CreateLoggerWithOutput("debug", &buf))
	engine := build.NewEngine(types.EngineTypeReference, nil)
	require.NoError(t, engine.Initialize(settings, ctx))

	step := webhelp.NewHelperStep("toc.xml", false)
	require.True(t, engine.RunSteps(context.Background(), []*build.Step{step}), buf.String())

	index, err := os.ReadFile(filepath.Join(work, webhelp.IndexHTM))
	require.NoError(t, err)
	assert.Contains(t, string(index), ">Widget Class</a>")
	assert.Contains(t, string(index), "<li>Widget <a")

	converted, err := os.ReadFile(filepath.Join(work, "html", "T_Widget.htm"))
	require.NoError(t, err)
	assert.NotContains(t, string(converted), "MSHelp")
}
