package config

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Tool names understood by BuildConfiguration
const (
	ToolMRefBuilder    = "MRefBuilder"
	ToolXslTransform   = "XslTransform"
	ToolBuildAssembler = "BuildAssembler"
	ToolChmBuilder     = "ChmBuilder"
	ToolDBCSFix        = "DBCSFix"
	ToolHhc            = "hhc"
	ToolHxComp         = "hxcomp"
	ToolSn             = "sn"
	ToolViewer         = "viewer"
)

// ChmBuilderConfigName is the language table file searched in the configuration directory
const ChmBuilderConfigName = "chmBuilder.config"

var defaultTools = map[string]string{
	ToolMRefBuilder:    "MRefBuilder",
	ToolXslTransform:   "XslTransform",
	ToolBuildAssembler: "BuildAssembler",
	ToolChmBuilder:     "ChmBuilder",
	ToolDBCSFix:        "DBCSFix",
	ToolHhc:            "hhc",
	ToolHxComp:         "hxcomp",
	ToolSn:             "sn",
}

// BuildConfiguration resolves external tool locations for a build
type BuildConfiguration struct {
	settings *Settings
}

// NewBuildConfiguration creates the tool configuration for settings
func NewBuildConfiguration(settings *Settings) *BuildConfiguration {
	return &BuildConfiguration{settings: settings}
}

// ToolPath returns the configured executable for a tool, falling back to the
// bare tool name resolved through PATH. Configured paths with a directory part
// resolve against the working directory. Unknown tools without a configured
// path yield "".
func (c *BuildConfiguration) ToolPath(name string) string {
	if c.settings != nil {
		if path, ok := c.settings.Tools[name]; ok && path != "" {
			if !strings.ContainsAny(path, `/\`) {
				return path
			}
			return c.settings.Resolve(path)
		}
	}
	return defaultTools[name]
}

// LookupTool resolves a tool to an executable file
func (c *BuildConfiguration) LookupTool(name string) (string, error) {
	path := c.ToolPath(name)
	if path == "" {
		return "", fmt.Errorf("no executable configured for tool %s", name)
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return resolved, nil
}

// ChmBuilderConfigPath is the location of the CHM language table
func (c *BuildConfiguration) ChmBuilderConfigPath() string {
	if c.settings == nil {
		return ChmBuilderConfigName
	}
	return filepath.Join(c.settings.ConfigPath(), ChmBuilderConfigName)
}

// Tools lists every known tool with its resolved path
func (c *BuildConfiguration) Tools() map[string]string {
	out := make(map[string]string, len(defaultTools)+1)
	for name := range defaultTools {
		out[name] = c.ToolPath(name)
	}
	if viewer := c.ToolPath(ToolViewer); viewer != "" {
		out[ToolViewer] = viewer
	}
	return out
}
