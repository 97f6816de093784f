package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
)

func writeSettings(t *testing.T, path, helpName string) {
	t.Helper()
	s := config.DefaultSettings()
	s.HelpName = helpName
	if err := config.NewManager().SaveConfig(path, s); err != nil {
		t.Fatal(err)
	}
}

func waitEvent(t *testing.T, events <-chan config.WatchEvent) config.WatchEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
	return config.WatchEvent{}
}

func TestWatcher_SettingsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "helpbuild.json")
	writeSettings(t, path, "Before")

	w := config.NewWatcher(path, logger.NewNopLogger())
	w.SetDebouncePeriod(50 * time.Millisecond)

	events := make(chan config.WatchEvent, 4)
	w.AddCallback(func(ev config.WatchEvent) { events <- ev })

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err == nil {
		t.Error("second Start should fail")
	}

	writeSettings(t, path, "After")

	ev := waitEvent(t, events)
	if ev.Kind != config.ChangeKindSettings {
		t.Fatalf("expected settings event, got %s (%v)", ev.Kind, ev.Err)
	}
	if ev.Settings == nil || ev.Settings.HelpName != "After" {
		t.Errorf("expected reloaded settings, got %+v", ev.Settings)
	}
}

func TestWatcher_ContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "helpbuild.json")
	writeSettings(t, path, "Docs")

	contents := filepath.Join(t.TempDir(), "Topics")
	if err := os.MkdirAll(contents, 0755); err != nil {
		t.Fatal(err)
	}

	w := config.NewWatcher(path, nil)
	w.SetDebouncePeriod(50 * time.Millisecond)
	if err := w.AddDirectory(contents); err != nil {
		t.Fatal(err)
	}

	events := make(chan config.WatchEvent, 4)
	w.AddCallback(func(ev config.WatchEvent) { events <- ev })

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(contents, "intro.aml"), []byte("<topic/>"), 0644); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, events)
	if ev.Kind != config.ChangeKindContent {
		t.Fatalf("expected content event, got %s", ev.Kind)
	}
	if len(ev.Paths) == 0 {
		t.Error("expected changed paths")
	}
}

func TestWatcher_TriggerReloadAndPanics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "helpbuild.json")
	writeSettings(t, path, "Manual")

	w := config.NewWatcher(path, logger.NewNopLogger())

	var got config.WatchEvent
	w.AddCallback(func(config.WatchEvent) { panic("boom") })
	w.AddCallback(func(ev config.WatchEvent) { got = ev })

	w.TriggerReload()

	if got.Settings == nil || got.Settings.HelpName != "Manual" {
		t.Errorf("expected settings from manual reload, got %+v", got)
	}
	if w.LastReloadTime().IsZero() {
		t.Error("expected reload time to be recorded")
	}
	if w.IsWatching() {
		t.Error("watcher was never started")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("stopping an idle watcher should succeed: %v", err)
	}
}
