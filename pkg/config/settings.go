package config

import (
	"path/filepath"

	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

const (
	// SettingsVersion is the only settings schema version understood
	SettingsVersion = "1.0"
	// DefaultLogFile is the build log name used when none is configured
	DefaultLogFile = "HelpBuild.log"
	// EnglishLCID is the locale that needs no codepage conversion
	EnglishLCID = 1033
)

// Settings is the read-mostly configuration of one documentation build
type Settings struct {
	Version           string              `json:"version" yaml:"version"`
	HelpName          string              `json:"helpName" yaml:"helpName"`
	HelpTitle         string              `json:"helpTitle" yaml:"helpTitle"`
	WorkingDirectory  string              `json:"workingDirectory" yaml:"workingDirectory"`
	OutputDirectory   string              `json:"outputDirectory" yaml:"outputDirectory"`
	ConfigDirectory   string              `json:"configDirectory" yaml:"configDirectory"`
	ContentsDirectory string              `json:"contentsDirectory" yaml:"contentsDirectory"`
	Culture           string              `json:"culture" yaml:"culture"`
	LCID              int                 `json:"lcid" yaml:"lcid"`
	BuildReferences   bool                `json:"buildReferences" yaml:"buildReferences"`
	BuildConceptual   bool                `json:"buildConceptual" yaml:"buildConceptual"`
	KeepLogFile       bool                `json:"keepLogFile" yaml:"keepLogFile"`
	LogFile           string              `json:"logFile" yaml:"logFile"`
	Verbosity         string              `json:"verbosity" yaml:"verbosity"`
	BuildSystem       types.BuildSystem   `json:"buildSystem" yaml:"buildSystem"`
	BuildType         types.BuildType     `json:"buildType" yaml:"buildType"`
	Formats           []FormatConfig      `json:"formats" yaml:"formats"`
	Groups            []GroupConfig       `json:"groups" yaml:"groups"`
	Tools             map[string]string   `json:"tools,omitempty" yaml:"tools,omitempty"`
	Notifications     *NotificationConfig `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	Metrics           *MetricsConfig      `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Properties        map[string]string   `json:"properties,omitempty" yaml:"properties,omitempty"`

	// source is the file the settings were loaded from
	source string
}

// FormatConfig selects and tunes one output format
type FormatConfig struct {
	Type               types.FormatType  `json:"type" yaml:"type"`
	Enabled            *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Name               string            `json:"name,omitempty" yaml:"name,omitempty"`
	FormatFolder       string            `json:"formatFolder,omitempty" yaml:"formatFolder,omitempty"`
	OutputFolder       string            `json:"outputFolder,omitempty" yaml:"outputFolder,omitempty"`
	LinkType           types.LinkType    `json:"linkType,omitempty" yaml:"linkType,omitempty"`
	ExternalLinkType   types.LinkType    `json:"externalLinkType,omitempty" yaml:"externalLinkType,omitempty"`
	ExternalLinkTarget types.LinkTarget  `json:"externalLinkTarget,omitempty" yaml:"externalLinkTarget,omitempty"`
	Indent             *bool             `json:"indent,omitempty" yaml:"indent,omitempty"`
	OmitXMLDeclaration *bool             `json:"omitXmlDeclaration,omitempty" yaml:"omitXmlDeclaration,omitempty"`
	Properties         map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// IsEnabled reports whether the format takes part in the build (default true)
func (f FormatConfig) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// GroupConfig describes one build group: a set of assemblies for reference
// builds or a topic tree for conceptual builds
type GroupConfig struct {
	Name         string            `json:"name" yaml:"name"`
	Type         types.GroupType   `json:"type" yaml:"type"`
	Enabled      *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Source       string            `json:"source" yaml:"source"`
	Dependencies []string          `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	TocFile      string            `json:"tocFile,omitempty" yaml:"tocFile,omitempty"`
	Properties   map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// IsEnabled reports whether the group takes part in the build (default true)
func (g GroupConfig) IsEnabled() bool {
	return g.Enabled == nil || *g.Enabled
}

// NotificationConfig controls desktop notifications
type NotificationConfig struct {
	Enabled      *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	SoundEnabled bool  `json:"soundEnabled,omitempty" yaml:"soundEnabled,omitempty"`
}

// MetricsConfig controls the prometheus textfile written after each build
type MetricsConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// DefaultSettings returns settings for a reference-only CHM build in the current directory
func DefaultSettings() *Settings {
	return &Settings{
		Version:           SettingsVersion,
		HelpName:          "Documentation",
		HelpTitle:         "Documentation",
		WorkingDirectory:  ".",
		OutputDirectory:   "Help",
		ConfigDirectory:   "Configurations",
		ContentsDirectory: "Contents",
		Culture:           "en-US",
		LCID:              EnglishLCID,
		BuildReferences:   true,
		LogFile:           DefaultLogFile,
		Verbosity:         "normal",
		BuildSystem:       types.BuildSystemConsole,
		BuildType:         types.BuildTypeDevelopment,
		Formats: []FormatConfig{
			{Type: types.FormatTypeChm},
		},
		Tools:      map[string]string{},
		Properties: map[string]string{},
	}
}

// Source returns the path the settings were loaded from, if any
func (s *Settings) Source() string {
	return s.source
}

// IsCombinedBuild reports whether reference and conceptual builds share one run and one log
func (s *Settings) IsCombinedBuild() bool {
	return s.BuildReferences && s.BuildConceptual
}

// IsEnglish reports whether the build locale needs no codepage conversion
func (s *Settings) IsEnglish() bool {
	return s.LCID == 0 || s.LCID == EnglishLCID
}

// Resolve makes a path absolute against the working directory
func (s *Settings) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.WorkingDirectory, path)
}

// OutputPath is the resolved output directory
func (s *Settings) OutputPath() string {
	return s.Resolve(s.OutputDirectory)
}

// ConfigPath is the resolved configuration directory
func (s *Settings) ConfigPath() string {
	return s.Resolve(s.ConfigDirectory)
}

// ContentsPath is the resolved contents directory
func (s *Settings) ContentsPath() string {
	return s.Resolve(s.ContentsDirectory)
}

// LogFilePath returns the log file location, or "" when file logging is off
func (s *Settings) LogFilePath() string {
	if s.WorkingDirectory == "" || s.LogFile == "" {
		return ""
	}
	return s.Resolve(s.LogFile)
}

// Property returns a property bag value
func (s *Settings) Property(key string) string {
	return s.Properties[key]
}

// NotificationsEnabled reports whether desktop notifications are on (default true)
func (s *Settings) NotificationsEnabled() bool {
	return s.Notifications == nil || s.Notifications.Enabled == nil || *s.Notifications.Enabled
}

// Clone returns a deep copy
func (s *Settings) Clone() *Settings {
	c := *s
	c.Formats = make([]FormatConfig, len(s.Formats))
	for i, f := range s.Formats {
		f.Properties = cloneMap(f.Properties)
		f.Enabled = cloneBool(f.Enabled)
		f.Indent = cloneBool(f.Indent)
		f.OmitXMLDeclaration = cloneBool(f.OmitXMLDeclaration)
		c.Formats[i] = f
	}
	c.Groups = make([]GroupConfig, len(s.Groups))
	for i, g := range s.Groups {
		g.Properties = cloneMap(g.Properties)
		g.Enabled = cloneBool(g.Enabled)
		g.Dependencies = append([]string(nil), g.Dependencies...)
		c.Groups[i] = g
	}
	c.Tools = cloneMap(s.Tools)
	c.Properties = cloneMap(s.Properties)
	if s.Notifications != nil {
		n := *s.Notifications
		n.Enabled = cloneBool(n.Enabled)
		c.Notifications = &n
	}
	if s.Metrics != nil {
		m := *s.Metrics
		c.Metrics = &m
	}
	return &c
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}
