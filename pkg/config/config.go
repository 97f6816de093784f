// Package config handles build settings loading, validation and watching
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"gopkg.in/yaml.v3"
)

// Manager handles settings operations
type Manager struct{}

// NewManager creates a new settings manager
func NewManager() *Manager {
	return &Manager{}
}

// LoadConfig loads settings from a JSON or YAML file. Missing fields keep the
// values of DefaultSettings and a relative working directory is resolved
// against the directory holding the file.
func (m *Manager) LoadConfig(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	settings, err := m.parse(data)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	settings.source = abs
	if !filepath.IsAbs(settings.WorkingDirectory) {
		settings.WorkingDirectory = filepath.Join(filepath.Dir(abs), settings.WorkingDirectory)
	}

	if err := m.ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (m *Manager) parse(data []byte) (*Settings, error) {
	// Try JSON first
	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err == nil {
		return settings, nil
	}

	// YAML goes through a generic map so json tags stay the single source of field names
	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err == nil {
		jsonData, err := json.Marshal(yamlData)
		if err == nil {
			settings = DefaultSettings()
			if err := json.Unmarshal(jsonData, settings); err == nil {
				return settings, nil
			}
		}
	}

	return nil, ErrUnparseable
}

// SaveConfig writes settings as YAML when path ends in .yaml/.yml, JSON otherwise
func (m *Manager) SaveConfig(path string, settings *Settings) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(settings)
	default:
		data, err = json.MarshalIndent(settings, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// ValidateSettings validates settings
func (m *Manager) ValidateSettings(s *Settings) error {
	if s.Version != SettingsVersion {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, s.Version)
	}
	if strings.TrimSpace(s.HelpName) == "" {
		return fmt.Errorf("%w: helpName is required", ErrInvalidSettings)
	}
	if strings.ContainsAny(s.HelpName, `\/:*?"<>|`) {
		return fmt.Errorf("%w: helpName %q is not a valid file name", ErrInvalidSettings, s.HelpName)
	}
	if s.WorkingDirectory == "" {
		return fmt.Errorf("%w: workingDirectory is required", ErrInvalidSettings)
	}
	if s.LCID < 0 {
		return fmt.Errorf("%w: invalid lcid %d", ErrInvalidSettings, s.LCID)
	}
	if !s.BuildReferences && !s.BuildConceptual {
		return fmt.Errorf("%w: neither reference nor conceptual build is enabled", ErrInvalidSettings)
	}
	if _, err := logger.ParseVerbosity(s.Verbosity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if _, err := types.ParseBuildSystem(string(s.BuildSystem)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if _, err := types.ParseBuildType(string(s.BuildType)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	if len(s.Formats) == 0 {
		return fmt.Errorf("%w: no formats defined", ErrInvalidSettings)
	}
	formatNames := make(map[string]bool)
	for i, f := range s.Formats {
		if err := m.validateFormat(f); err != nil {
			return fmt.Errorf("%w: format %d: %v", ErrInvalidSettings, i, err)
		}
		name := f.Name
		if name == "" {
			name = string(f.Type)
		}
		if formatNames[name] {
			return fmt.Errorf("%w: duplicate format name: %s", ErrInvalidSettings, name)
		}
		formatNames[name] = true
	}

	groupNames := make(map[string]bool)
	for i, g := range s.Groups {
		if g.Name == "" {
			return fmt.Errorf("%w: group %d: missing name", ErrInvalidSettings, i)
		}
		if groupNames[g.Name] {
			return fmt.Errorf("%w: duplicate group name: %s", ErrInvalidSettings, g.Name)
		}
		groupNames[g.Name] = true
		if _, err := types.ParseGroupType(string(g.Type)); err != nil {
			return fmt.Errorf("%w: group '%s': %v", ErrInvalidSettings, g.Name, err)
		}
		if g.Source == "" {
			return fmt.Errorf("%w: group '%s': missing source", ErrInvalidSettings, g.Name)
		}
	}

	return nil
}

func (m *Manager) validateFormat(f FormatConfig) error {
	if _, err := types.ParseFormatType(string(f.Type)); err != nil {
		return err
	}
	if f.LinkType != "" {
		if _, err := types.ParseLinkType(string(f.LinkType)); err != nil {
			return err
		}
	}
	if f.ExternalLinkType != "" {
		if _, err := types.ParseLinkType(string(f.ExternalLinkType)); err != nil {
			return err
		}
	}
	if f.ExternalLinkTarget != "" {
		if _, err := types.ParseLinkTarget(string(f.ExternalLinkTarget)); err != nil {
			return err
		}
	}
	return nil
}

// GetDefaultSettings returns default settings for a help file name
func (m *Manager) GetDefaultSettings(helpName string) *Settings {
	s := DefaultSettings()
	if helpName != "" {
		s.HelpName = helpName
		s.HelpTitle = helpName
	}
	s.Groups = []GroupConfig{
		{
			Name:   "Default",
			Type:   types.GroupTypeReference,
			Source: "bin/*.dll",
		},
	}
	return s
}

// FindSettingsFile looks for a settings file in dir
func FindSettingsFile(dir string) (string, bool) {
	for _, name := range []string{"helpbuild.json", "helpbuild.yaml", "helpbuild.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
