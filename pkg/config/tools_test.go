package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
)

func TestBuildConfiguration_ToolPath(t *testing.T) {
	s := config.DefaultSettings()
	s.WorkingDirectory = filepath.FromSlash("/work")
	s.Tools = map[string]string{
		config.ToolHhc:    filepath.FromSlash("/opt/hhw/hhc.exe"),
		config.ToolHxComp: "tools/hxcomp.exe",
		config.ToolSn:     "sn-custom",
	}
	c := config.NewBuildConfiguration(s)

	if got := c.ToolPath(config.ToolHhc); got != filepath.FromSlash("/opt/hhw/hhc.exe") {
		t.Errorf("configured absolute tool path = %s", got)
	}
	if got := c.ToolPath(config.ToolHxComp); got != filepath.FromSlash("/work/tools/hxcomp.exe") {
		t.Errorf("relative tool path should resolve against working dir, got %s", got)
	}
	if got := c.ToolPath(config.ToolSn); got != "sn-custom" {
		t.Errorf("bare tool name should stay a PATH lookup, got %s", got)
	}
	if got := c.ToolPath(config.ToolDBCSFix); got != "DBCSFix" {
		t.Errorf("default tool name = %s", got)
	}
	if got := c.ToolPath(config.ToolViewer); got != "" {
		t.Errorf("viewer has no default, got %s", got)
	}
	if got := c.ChmBuilderConfigPath(); got != filepath.FromSlash("/work/Configurations/chmBuilder.config") {
		t.Errorf("ChmBuilderConfigPath() = %s", got)
	}
}

func TestBuildConfiguration_LookupTool(t *testing.T) {
	c := config.NewBuildConfiguration(config.DefaultSettings())
	if _, err := c.LookupTool("no-such-tool"); err == nil {
		t.Error("expected error for unknown tool")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := config.LoadDotEnv(dir); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HELPBUILD_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HELPBUILD_TEST_DOTENV", "")
	os.Unsetenv("HELPBUILD_TEST_DOTENV")

	if err := config.LoadDotEnv(dir); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("HELPBUILD_TEST_DOTENV"); got != "loaded" {
		t.Errorf("expected variable from .env, got %q", got)
	}
}
