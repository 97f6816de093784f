package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
)

// DefaultSettingsFile is the settings file written by init
const DefaultSettingsFile = "helpbuild.yaml"

// ErrNoSettings is returned when no settings file can be found
var ErrNoSettings = errors.New("no settings file found")

// ErrBuildFailed is returned by build when the documentation build fails
var ErrBuildFailed = errors.New("build failed")

// Config holds the global command-line options
type Config struct {
	ConfigFile  string
	ProjectRoot string
	Verbosity   string
	OutputDir   string
	Version     string
}

// NewConfig creates a new CLI configuration with defaults
func NewConfig() *Config {
	return &Config{
		ProjectRoot: ".",
	}
}

// settingsPath returns the --config file or the settings file found in the
// project root
func (c *CLI) settingsPath() (string, error) {
	if c.config.ConfigFile != "" {
		return c.config.ConfigFile, nil
	}
	if path, ok := config.FindSettingsFile(c.config.ProjectRoot); ok {
		return path, nil
	}
	return "", fmt.Errorf("%w in %s, run 'helpbuild init' first", ErrNoSettings, c.config.ProjectRoot)
}

// loadSettings reads the settings file and applies the flag and environment
// overrides
func (c *CLI) loadSettings() (*config.Settings, error) {
	path, err := c.settingsPath()
	if err != nil {
		return nil, err
	}
	manager := config.NewManager()
	settings, err := manager.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyOverrides(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (c *CLI) applyOverrides(settings *config.Settings) error {
	changed := false
	if v := c.viper.GetString("verbosity"); v != "" {
		settings.Verbosity = v
		changed = true
	}
	if out := c.viper.GetString("output"); out != "" {
		if !filepath.IsAbs(out) {
			if abs, err := filepath.Abs(out); err == nil {
				out = abs
			}
		}
		settings.OutputDirectory = out
		changed = true
	}
	if !changed {
		return nil
	}
	return config.NewManager().ValidateSettings(settings)
}

// logLevel maps a build verbosity to the level of the CLI logger
func logLevel(verbosity string) string {
	v, err := logger.ParseVerbosity(verbosity)
	if err != nil {
		return "info"
	}
	switch v {
	case logger.VerbosityQuiet:
		return "error"
	case logger.VerbosityMinimal:
		return "warn"
	case logger.VerbosityDetailed, logger.VerbosityDiagnostic:
		return "debug"
	}
	return "info"
}

func settingsFileName(json bool) string {
	if json {
		return strings.TrimSuffix(DefaultSettingsFile, filepath.Ext(DefaultSettingsFile)) + ".json"
	}
	return DefaultSettingsFile
}
