package build

import (
	"path/filepath"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// IntermediateDirectory holds the per-group working directories
const IntermediateDirectory = "Intermediate"

// Group is a unit of documentation content built by an engine
type Group struct {
	name         string
	Type         types.GroupType
	Enabled      bool
	Source       string
	Dependencies []string
	TocFile      string
	Properties   map[string]string
}

// NewGroup creates an enabled group
func NewGroup(name string, groupType types.GroupType, source string) *Group {
	return &Group{
		name:       name,
		Type:       groupType,
		Enabled:    true,
		Source:     source,
		Properties: map[string]string{},
	}
}

// GroupFromConfig creates a group from its settings entry
func GroupFromConfig(cfg config.GroupConfig) *Group {
	g := NewGroup(cfg.Name, cfg.Type, cfg.Source)
	g.Enabled = cfg.IsEnabled()
	g.Dependencies = append([]string(nil), cfg.Dependencies...)
	g.TocFile = cfg.TocFile
	for k, v := range cfg.Properties {
		g.Properties[k] = v
	}
	return g
}

// Name returns the group name
func (g *Group) Name() string {
	return g.name
}

// WorkingDirectory is the directory holding the group's intermediate files
func (g *Group) WorkingDirectory(settings *config.Settings) string {
	return settings.Resolve(filepath.Join(IntermediateDirectory, g.name))
}
