package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandcastle-helpers/helpbuild/internal/state"
	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/engines"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/metrics"
	"github.com/sandcastle-helpers/helpbuild/pkg/notifier"
	"github.com/sandcastle-helpers/helpbuild/pkg/process"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

type buildOptions struct {
	formats  []string
	notify   bool
	metrics  string
	keepRuns int
}

func (c *CLI) newBuildCmd() *cobra.Command {
	opts := buildOptions{notify: true}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the documentation once",
		Long: `Run the reference and conceptual builds configured in the settings file and
compile every enabled output format. The command fails when the build fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := c.loadSettings()
			if err != nil {
				return err
			}
			_, err = c.runBuild(cmd.Context(), settings, opts)
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "build only these formats (name or type)")
	cmd.Flags().BoolVar(&opts.notify, "notify", true, "send desktop notifications")
	cmd.Flags().StringVar(&opts.metrics, "metrics", "", "write prometheus metrics to this textfile")
	cmd.Flags().IntVar(&opts.keepRuns, "keep-records", 20, "number of build records to keep")
	return cmd
}

// selectFormats disables every format not named in names
func selectFormats(settings *config.Settings, names []string) error {
	if len(names) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = true
	}

	matched := 0
	for i := range settings.Formats {
		f := &settings.Formats[i]
		on := wanted[strings.ToLower(string(f.Type))] || (f.Name != "" && wanted[strings.ToLower(f.Name)])
		if on {
			matched++
		}
		f.Enabled = config.Bool(on && f.IsEnabled())
	}
	if matched == 0 {
		return fmt.Errorf("no configured format matches %s", strings.Join(names, ", "))
	}
	return nil
}

func (c *CLI) recorder(settings *config.Settings, opts buildOptions) (metrics.Recorder, string) {
	path := opts.metrics
	if path == "" && settings.Metrics != nil && settings.Metrics.Enabled {
		path = settings.Metrics.Textfile
		if path == "" {
			path = "helpbuild.prom"
		}
	}
	if path == "" {
		return metrics.NoopRecorder{}, ""
	}
	return metrics.NewPrometheusRecorder(nil), settings.Resolve(path)
}

// runBuild builds settings once and records the run. Interrupts cancel the
// build after the running step.
func (c *CLI) runBuild(ctx context.Context, settings *config.Settings, opts buildOptions) (*state.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	settings = settings.Clone()
	if err := selectFormats(settings, opts.formats); err != nil {
		return nil, err
	}

	rec, textfile := c.recorder(settings, opts)
	project, err := engines.NewProject(settings, nil, build.WithRecorder(rec))
	if err != nil {
		return nil, err
	}

	notifyCfg := notifier.ConfigFromSettings(settings)
	notifyCfg.Enabled = notifyCfg.Enabled && opts.notify
	n := notifier.New(notifyCfg, c.logger)

	store := state.NewStore(settings.WorkingDirectory, c.logger)
	record := state.NewRecord(settings)

	signals := process.NewManager(c.logger)
	signals.RegisterShutdownHandler(project.Cancel)
	signals.SetHeartbeat(func() {
		c.logger.Debug(fmt.Sprintf("Still building %s", settings.HelpName),
			logger.WithField("elapsed", time.Since(record.Start).Round(time.Second)))
	}, process.DefaultHeartbeatInterval)
	signals.Start(ctx)
	defer signals.Stop()

	if err := project.Initialize(); err != nil {
		record.Finish(types.BuildStateError, err)
		c.saveRecord(store, record, opts.keepRuns)
		return record, err
	}

	n.NotifyBuildStart(settings.HelpName)
	ok := project.Build(ctx)
	record.BuildID = project.BuildID()
	finalState := project.Context().State()
	if uerr := project.Uninitialize(); uerr != nil {
		c.printer.Warn(fmt.Sprintf("Cleanup after build: %v", uerr))
	}

	var buildErr error
	switch {
	case finalState == types.BuildStateCancelled:
		buildErr = fmt.Errorf("%w: cancelled", ErrBuildFailed)
		n.NotifyBuildCancelled(settings.HelpName)
	case ok:
		n.NotifyBuildSuccess(settings.HelpName, time.Since(record.Start))
	default:
		buildErr = ErrBuildFailed
		n.NotifyBuildFailure(settings.HelpName, nil)
	}
	record.Finish(finalState, buildErr)
	c.saveRecord(store, record, opts.keepRuns)

	if textfile != "" {
		if p, ok := rec.(*metrics.PrometheusRecorder); ok {
			if err := p.WriteTextfile(textfile); err != nil {
				c.printer.Warn(err.Error())
			}
		}
	}

	if buildErr != nil {
		c.printer.Error(fmt.Sprintf("%s: %v", settings.HelpName, buildErr))
		return record, buildErr
	}
	c.printer.Success(fmt.Sprintf("Built %s in %s", settings.HelpName, record.Duration.Round(time.Millisecond)))
	return record, nil
}

func (c *CLI) saveRecord(store *state.Store, record *state.Record, keep int) {
	if err := store.Save(record); err != nil {
		c.printer.Warn(fmt.Sprintf("Failed to save build record: %v", err))
		return
	}
	if keep > 0 {
		if _, err := store.Prune(keep); err != nil {
			c.logger.Debug("Failed to prune build records", logger.WithField("error", err))
		}
	}
}
