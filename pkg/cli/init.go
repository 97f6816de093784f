package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

type initOptions struct {
	name       string
	json       bool
	force      bool
	conceptual bool
	formats    []string
}

func (c *CLI) newInitCmd() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default settings file",
		Long: `Create a settings file in the project root with one reference group and the
selected output formats.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "help file name (default: the project directory name)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "write JSON instead of YAML")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing settings file")
	cmd.Flags().BoolVar(&opts.conceptual, "conceptual", false, "add a conceptual topics group")
	cmd.Flags().StringSliceVar(&opts.formats, "format", []string{"chm"}, "output formats (chm, hxs, mhv, web, htm, aspx)")
	return cmd
}

func (c *CLI) runInit(opts initOptions) error {
	path := c.config.ConfigFile
	if path == "" {
		path = filepath.Join(c.config.ProjectRoot, settingsFileName(opts.json))
	}
	if _, err := os.Stat(path); err == nil && !opts.force {
		return fmt.Errorf("settings file %s already exists, use --force to overwrite", path)
	}

	name := opts.name
	if name == "" {
		abs, err := filepath.Abs(c.config.ProjectRoot)
		if err != nil {
			return err
		}
		name = filepath.Base(abs)
	}

	manager := config.NewManager()
	settings := manager.GetDefaultSettings(name)
	settings.Formats = nil
	for _, f := range opts.formats {
		t, err := types.ParseFormatType(f)
		if err != nil {
			return err
		}
		settings.Formats = append(settings.Formats, config.FormatConfig{Type: t})
	}
	if opts.conceptual {
		settings.BuildConceptual = true
		settings.Groups = append(settings.Groups, config.GroupConfig{
			Name:   "Topics",
			Type:   types.GroupTypeConceptual,
			Source: settings.ContentsDirectory,
		})
	}
	if err := manager.ValidateSettings(settings); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := manager.SaveConfig(path, settings); err != nil {
		return err
	}

	c.printer.Success(fmt.Sprintf("Created settings at %s", path))
	c.printer.Info("Edit the groups to point at your assemblies and topics")
	return nil
}
