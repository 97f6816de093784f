package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"gopkg.in/yaml.v3"
)

func TestLoadConfig_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "helpbuild.json")

	testConfig := map[string]interface{}{
		"version":  "1.0",
		"helpName": "MyLibrary",
		"lcid":     1041,
		"formats": []map[string]interface{}{
			{"type": "chm", "linkType": "index"},
			{"type": "web", "outputFolder": "site"},
		},
		"groups": []map[string]interface{}{
			{"name": "Core", "type": "reference", "source": "bin/*.dll"},
		},
	}

	data, _ := json.Marshal(testConfig)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	manager := config.NewManager()
	cfg, err := manager.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}

	if cfg.HelpName != "MyLibrary" {
		t.Errorf("expected help name MyLibrary, got %s", cfg.HelpName)
	}
	if cfg.LCID != 1041 {
		t.Errorf("expected lcid 1041, got %d", cfg.LCID)
	}
	if len(cfg.Formats) != 2 || cfg.Formats[1].Type != types.FormatTypeWeb {
		t.Errorf("unexpected formats: %+v", cfg.Formats)
	}
	if cfg.LogFile != config.DefaultLogFile {
		t.Errorf("expected default log file, got %q", cfg.LogFile)
	}
	if !cfg.BuildReferences {
		t.Error("expected reference build to default on")
	}
	if cfg.WorkingDirectory != tmpDir {
		t.Errorf("expected working directory resolved to %s, got %s", tmpDir, cfg.WorkingDirectory)
	}
	if cfg.Source() == "" {
		t.Error("expected source path to be recorded")
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "helpbuild.yaml")

	testConfig := map[string]interface{}{
		"version":         "1.0",
		"helpName":        "Guide",
		"buildReferences": false,
		"buildConceptual": true,
		"groups": []map[string]interface{}{
			{"name": "Topics", "type": "conceptual", "source": "Topics"},
		},
	}

	data, _ := yaml.Marshal(testConfig)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.NewManager().LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load YAML settings: %v", err)
	}

	if !cfg.BuildConceptual || cfg.BuildReferences {
		t.Errorf("expected conceptual-only build, got references=%v conceptual=%v",
			cfg.BuildReferences, cfg.BuildConceptual)
	}
	if cfg.Groups[0].Type != types.GroupTypeConceptual {
		t.Errorf("expected conceptual group, got %s", cfg.Groups[0].Type)
	}
}

func TestLoadConfig_Unparseable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helpbuild.json")
	if err := os.WriteFile(path, []byte("{not: [valid"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := config.NewManager().LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	manager := config.NewManager()
	for _, name := range []string{"helpbuild.json", "helpbuild.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			settings := manager.GetDefaultSettings("Widgets")

			if err := manager.SaveConfig(path, settings); err != nil {
				t.Fatalf("SaveConfig failed: %v", err)
			}
			loaded, err := manager.LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if loaded.HelpName != "Widgets" || len(loaded.Groups) != 1 {
				t.Errorf("unexpected settings after round trip: %+v", loaded)
			}
		})
	}
}

func TestValidateSettings(t *testing.T) {
	manager := config.NewManager()

	tests := []struct {
		name    string
		mutate  func(s *config.Settings)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid settings",
			mutate: func(s *config.Settings) {},
		},
		{
			name:    "invalid version",
			mutate:  func(s *config.Settings) { s.Version = "2.0" },
			wantErr: true,
			errMsg:  "unsupported settings version",
		},
		{
			name:    "missing help name",
			mutate:  func(s *config.Settings) { s.HelpName = " " },
			wantErr: true,
			errMsg:  "helpName is required",
		},
		{
			name:    "help name with separators",
			mutate:  func(s *config.Settings) { s.HelpName = "a/b" },
			wantErr: true,
			errMsg:  "not a valid file name",
		},
		{
			name: "nothing to build",
			mutate: func(s *config.Settings) {
				s.BuildReferences = false
				s.BuildConceptual = false
			},
			wantErr: true,
			errMsg:  "neither reference nor conceptual",
		},
		{
			name:    "unknown verbosity",
			mutate:  func(s *config.Settings) { s.Verbosity = "chatty" },
			wantErr: true,
			errMsg:  "unknown verbosity",
		},
		{
			name:    "unknown format",
			mutate:  func(s *config.Settings) { s.Formats = []config.FormatConfig{{Type: "pdf"}} },
			wantErr: true,
			errMsg:  "unknown format type",
		},
		{
			name: "duplicate format name",
			mutate: func(s *config.Settings) {
				s.Formats = []config.FormatConfig{{Type: types.FormatTypeChm}, {Type: types.FormatTypeChm}}
			},
			wantErr: true,
			errMsg:  "duplicate format name",
		},
		{
			name: "same format twice under different names",
			mutate: func(s *config.Settings) {
				s.Formats = []config.FormatConfig{
					{Type: types.FormatTypeWeb, Name: "site"},
					{Type: types.FormatTypeWeb, Name: "intranet"},
				}
			},
		},
		{
			name: "invalid link target",
			mutate: func(s *config.Settings) {
				s.Formats = []config.FormatConfig{{Type: types.FormatTypeWeb, ExternalLinkTarget: "window"}}
			},
			wantErr: true,
			errMsg:  "unknown link target",
		},
		{
			name: "group without source",
			mutate: func(s *config.Settings) {
				s.Groups = []config.GroupConfig{{Name: "Core", Type: types.GroupTypeReference}}
			},
			wantErr: true,
			errMsg:  "missing source",
		},
		{
			name: "duplicate group",
			mutate: func(s *config.Settings) {
				g := config.GroupConfig{Name: "Core", Type: types.GroupTypeReference, Source: "a.dll"}
				s.Groups = []config.GroupConfig{g, g}
			},
			wantErr: true,
			errMsg:  "duplicate group name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.DefaultSettings()
			tt.mutate(s)

			err := manager.ValidateSettings(s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing '%s', got '%s'", tt.errMsg, err.Error())
			}
		})
	}
}

func TestSettings_Paths(t *testing.T) {
	s := config.DefaultSettings()
	s.WorkingDirectory = filepath.FromSlash("/work")

	if got := s.OutputPath(); got != filepath.FromSlash("/work/Help") {
		t.Errorf("OutputPath() = %s", got)
	}
	if got := s.LogFilePath(); got != filepath.FromSlash("/work/HelpBuild.log") {
		t.Errorf("LogFilePath() = %s", got)
	}

	s.LogFile = ""
	if got := s.LogFilePath(); got != "" {
		t.Errorf("expected no log file path, got %s", got)
	}

	abs := filepath.FromSlash("/elsewhere/out")
	if got := s.Resolve(abs); got != abs {
		t.Errorf("absolute paths must be kept, got %s", got)
	}
}

func TestSettings_Flags(t *testing.T) {
	s := config.DefaultSettings()
	if s.IsCombinedBuild() {
		t.Error("default settings build references only")
	}
	s.BuildConceptual = true
	if !s.IsCombinedBuild() {
		t.Error("expected combined build")
	}

	if !s.IsEnglish() {
		t.Error("1033 is English")
	}
	s.LCID = 1041
	if s.IsEnglish() {
		t.Error("1041 is not English")
	}

	if !s.NotificationsEnabled() {
		t.Error("notifications default on")
	}
	s.Notifications = &config.NotificationConfig{Enabled: config.Bool(false)}
	if s.NotificationsEnabled() {
		t.Error("notifications explicitly disabled")
	}
}

func TestSettings_CloneIsDeep(t *testing.T) {
	s := config.DefaultSettings()
	s.Formats[0].Properties = map[string]string{"a": "1"}
	s.Groups = []config.GroupConfig{{Name: "g", Dependencies: []string{"x.dll"}}}

	c := s.Clone()
	c.Formats[0].Properties["a"] = "2"
	c.Groups[0].Dependencies[0] = "y.dll"
	c.Properties["k"] = "v"

	if s.Formats[0].Properties["a"] != "1" {
		t.Error("format properties shared with clone")
	}
	if s.Groups[0].Dependencies[0] != "x.dll" {
		t.Error("group dependencies shared with clone")
	}
	if _, ok := s.Properties["k"]; ok {
		t.Error("property bag shared with clone")
	}
}

func TestFindSettingsFile(t *testing.T) {
	dir := t.TempDir()
	if _, ok := config.FindSettingsFile(dir); ok {
		t.Error("expected no settings file")
	}

	path := filepath.Join(dir, "helpbuild.yaml")
	if err := os.WriteFile(path, []byte("version: \"1.0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok := config.FindSettingsFile(dir)
	if !ok || got != path {
		t.Errorf("FindSettingsFile() = %s, %v", got, ok)
	}
}
