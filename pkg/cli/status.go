package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sandcastle-helpers/helpbuild/internal/state"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status [id]",
		Short: "Show the last build",
		Long:  `Show the record of the last build, of the build with the given id, or with --all the recent builds.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			return c.runStatus(id, all)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every recorded build")
	return cmd
}

func (c *CLI) runStatus(id string, all bool) error {
	settings, err := c.loadSettings()
	if err != nil {
		return err
	}
	store := state.NewStore(settings.WorkingDirectory, c.logger)

	if all {
		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			c.printer.Info("No builds recorded")
			return nil
		}
		w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSTATE\tDURATION\tFORMATS")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID[:8], r.Start.Format(time.DateTime),
				r.State, r.Duration.Round(time.Millisecond), strings.Join(r.Formats, ","))
		}
		return w.Flush()
	}

	var record *state.Record
	if id != "" {
		record, err = store.Get(id)
	} else {
		record, err = store.Latest()
	}
	if errors.Is(err, state.ErrNoRecords) {
		c.printer.Info("No builds recorded")
		return nil
	}
	if err != nil {
		return err
	}
	c.printRecord(record)
	return nil
}

func (c *CLI) printRecord(r *state.Record) {
	stateText := string(r.State)
	switch r.State {
	case types.BuildStateFinished:
		stateText = color.GreenString(stateText)
	case types.BuildStateError, types.BuildStateCancelled:
		stateText = color.RedString(stateText)
	default:
		stateText = color.YellowString(stateText)
	}

	fmt.Fprintf(c.output, "Build:    %s\n", r.ID)
	if r.BuildID != "" {
		fmt.Fprintf(c.output, "Run:      %s\n", r.BuildID)
	}
	fmt.Fprintf(c.output, "Project:  %s\n", r.Project)
	fmt.Fprintf(c.output, "State:    %s\n", stateText)
	fmt.Fprintf(c.output, "Started:  %s\n", r.Start.Format(time.DateTime))
	fmt.Fprintf(c.output, "Duration: %s\n", r.Duration.Round(time.Millisecond))
	if len(r.Formats) > 0 {
		fmt.Fprintf(c.output, "Formats:  %s\n", strings.Join(r.Formats, ", "))
	}
	if len(r.Groups) > 0 {
		fmt.Fprintf(c.output, "Groups:   %s\n", strings.Join(r.Groups, ", "))
	}
	if r.OutputPath != "" {
		fmt.Fprintf(c.output, "Output:   %s\n", r.OutputPath)
	}
	if r.Error != "" {
		fmt.Fprintf(c.output, "Error:    %s\n", r.Error)
	}
}
