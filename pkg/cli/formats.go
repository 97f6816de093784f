package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/formats"
)

func (c *CLI) newFormatsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List output formats",
		Long: `List the formats of the settings file with their folders and link types.
Without a settings file, or with --all, list every supported format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFormats(all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every supported format with its defaults")
	return cmd
}

func (c *CLI) runFormats(all bool) error {
	list := formats.Defaults()
	var settings *config.Settings
	if !all {
		s, err := c.loadSettings()
		switch {
		case err == nil:
			settings = s
			if list, err = formats.FromSettings(s); err != nil {
				return err
			}
		case !errors.Is(err, ErrNoSettings):
			return err
		}
	}

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tENABLED\tFOLDER\tOUTPUT\tLINKS\tEXTERNAL")
	for _, f := range list {
		o := f.Options()
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\t%s\n",
			o.Name, f.Type(), o.Enabled, o.FormatFolder, outputOf(settings, f, o), o.LinkType, o.ExternalLinkType)
	}
	return w.Flush()
}

func outputOf(settings *config.Settings, f build.Format, o *build.FormatOptions) string {
	if settings == nil {
		return o.OutputFolder
	}
	return f.OutputPath(settings)
}
