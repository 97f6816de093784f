package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/process"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	opts := buildOptions{notify: true}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the documentation when its inputs change",
		Long: `Build once, then watch the settings file, the contents directory and the group
sources and rebuild after every change. Settings changes are reloaded before
the rebuild. Interrupt to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), opts, debounce)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "build only these formats (name or type)")
	cmd.Flags().BoolVar(&opts.notify, "notify", true, "send desktop notifications")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before a rebuild")
	cmd.Flags().IntVar(&opts.keepRuns, "keep-records", 20, "number of build records to keep")
	return cmd
}

// watchDirectories lists the existing input directories of settings
func watchDirectories(settings *config.Settings) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if dir == "" || seen[dir] || !utils.DirectoryExists(dir) {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	add(settings.ContentsPath())
	for _, g := range settings.Groups {
		if !g.IsEnabled() {
			continue
		}
		source := settings.Resolve(g.Source)
		if strings.ContainsAny(filepath.Base(source), "*?[") {
			source = filepath.Dir(source)
		}
		add(source)
		if g.TocFile != "" {
			add(filepath.Dir(settings.Resolve(g.TocFile)))
		}
	}
	return dirs
}

func (c *CLI) runWatch(ctx context.Context, opts buildOptions, debounce time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	settings, err := c.loadSettings()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals := process.NewManager(c.logger)
	signals.RegisterShutdownHandler(cancel)
	signals.Start(ctx)
	defer signals.Stop()

	var mu sync.Mutex
	current := settings
	rebuild := func(reason string) {
		mu.Lock()
		s := current
		mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		c.printer.Info(reason)
		if _, err := c.runBuild(ctx, s, opts); err != nil && !errors.Is(err, ErrBuildFailed) {
			c.printer.Error(err.Error())
		}
	}

	rebuild(fmt.Sprintf("Building %s", settings.HelpName))

	watcher := config.NewWatcher(settings.Source(), c.logger)
	if debounce > 0 {
		watcher.SetDebouncePeriod(debounce)
	}
	for _, dir := range watchDirectories(settings) {
		if err := watcher.AddDirectory(dir); err != nil {
			return err
		}
	}

	fatal := make(chan error, 1)
	watcher.AddCallback(func(event config.WatchEvent) {
		switch event.Kind {
		case config.ChangeKindSettings:
			if err := c.applyOverrides(event.Settings); err != nil {
				c.printer.Error(err.Error())
				return
			}
			mu.Lock()
			current = event.Settings
			mu.Unlock()
			rebuild("Settings changed, rebuilding")
		case config.ChangeKindContent:
			c.logger.Debug("Content changed", logger.WithField("paths", len(event.Paths)))
			rebuild(fmt.Sprintf("%d files changed, rebuilding", len(event.Paths)))
		case config.ChangeKindRemoved:
			select {
			case fatal <- event.Err:
			default:
			}
		case config.ChangeKindError:
			c.printer.Warn(fmt.Sprintf("Watch error: %v", event.Err))
		}
	})

	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()
	c.printer.Info(fmt.Sprintf("Watching %s, interrupt to stop", settings.Source()))

	select {
	case <-ctx.Done():
		c.printer.Info("Stopped watching")
		return nil
	case err := <-fatal:
		return err
	}
}
