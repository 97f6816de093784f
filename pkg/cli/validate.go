package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/formats"
)

func (c *CLI) newValidateCmd() *cobra.Command {
	var tools bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the settings file",
		Long: `Check that the settings file parses, that its formats and groups are valid
and, with --tools, that every external tool can be found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(tools)
		},
	}
	cmd.Flags().BoolVar(&tools, "tools", false, "also check that the external tools are installed")
	return cmd
}

func (c *CLI) runValidate(checkTools bool) error {
	settings, err := c.loadSettings()
	if err != nil {
		return err
	}
	list, err := formats.FromSettings(settings)
	if err != nil {
		return err
	}

	c.printer.Info(fmt.Sprintf("Settings: %s", settings.Source()))
	c.printer.Info(fmt.Sprintf("Help: %s (%s), lcid %d", settings.HelpName, settings.HelpTitle, settings.LCID))
	c.printer.Info(fmt.Sprintf("Formats: %d, groups: %d", len(list), len(settings.Groups)))

	missing := 0
	if checkTools {
		cfg := config.NewBuildConfiguration(settings)
		names := make([]string, 0)
		for name := range cfg.Tools() {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			path, err := cfg.LookupTool(name)
			if err != nil {
				c.printer.Warn(fmt.Sprintf("Tool %s: %v", name, err))
				missing++
				continue
			}
			c.printer.Info(fmt.Sprintf("Tool %s: %s", name, path))
		}
	}

	if missing > 0 {
		return fmt.Errorf("%d external tools not found", missing)
	}
	c.printer.Success("Settings are valid")
	return nil
}
