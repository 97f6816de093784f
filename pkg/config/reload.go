package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
)

// ChangeKind tells which watched input changed
type ChangeKind string

const (
	ChangeKindSettings ChangeKind = "settings"
	ChangeKindContent  ChangeKind = "content"
	ChangeKindRemoved  ChangeKind = "removed"
	ChangeKindError    ChangeKind = "error"
)

// WatchEvent is delivered to callbacks after the debounce period
type WatchEvent struct {
	Kind      ChangeKind
	Paths     []string
	Settings  *Settings
	Err       error
	Timestamp time.Time
}

// WatchCallback is called when a watched input changes
type WatchCallback func(WatchEvent)

// Watcher watches a settings file and the content directories of a build
type Watcher struct {
	settingsPath   string
	directories    []string
	logger         logger.Logger
	watcher        *fsnotify.Watcher
	callbacks      []WatchCallback
	pending        map[string]ChangeKind
	lastReload     time.Time
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	mu             sync.RWMutex
	fireMu         sync.Mutex
	ctx            context.Context
	cancel         context.CancelFunc
	isWatching     bool
}

// NewWatcher creates a watcher for settingsPath
func NewWatcher(settingsPath string, log logger.Logger) *Watcher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Watcher{
		settingsPath:   settingsPath,
		logger:         log,
		pending:        make(map[string]ChangeKind),
		debouncePeriod: 500 * time.Millisecond,
	}
}

// AddCallback adds a change callback
func (w *Watcher) AddCallback(callback WatchCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// AddDirectory watches dir and its subdirectories for content changes.
// Directories added after Start are watched immediately.
func (w *Watcher) AddDirectory(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.directories = append(w.directories, dir)
	if w.isWatching {
		return w.addTree(dir)
	}
	return nil
}

// SetDebouncePeriod sets the debounce period for file change events
func (w *Watcher) SetDebouncePeriod(period time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debouncePeriod = period
}

// Start begins watching
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isWatching {
		return fmt.Errorf("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = watcher

	if w.settingsPath != "" {
		if err := w.watcher.Add(filepath.Dir(w.settingsPath)); err != nil {
			w.watcher.Close()
			return fmt.Errorf("failed to watch settings directory: %w", err)
		}
	}
	for _, dir := range w.directories {
		if err := w.addTree(dir); err != nil {
			w.watcher.Close()
			return err
		}
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.isWatching = true
	go w.watchLoop(w.ctx, watcher)

	w.logger.Debug("Started watching build inputs",
		logger.WithField("settings", w.settingsPath),
		logger.WithField("directories", len(w.directories)))
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Stop stops watching
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isWatching {
		return nil
	}

	w.cancel()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}

	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
		w.watcher = nil
	}
	w.isWatching = false

	w.logger.Debug("Stopped watching build inputs")
	return err
}

// IsWatching returns whether the watcher is running
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isWatching
}

// TriggerReload delivers a settings event immediately
func (w *Watcher) TriggerReload() {
	w.logger.Debug("Manually triggering settings reload")
	w.fire(map[string]ChangeKind{w.settingsPath: ChangeKindSettings})
}

// LastReloadTime returns when callbacks were last notified
func (w *Watcher) LastReloadTime() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastReload
}

// SettingsPath returns the path of the watched settings file
func (w *Watcher) SettingsPath() string {
	return w.settingsPath
}

func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Watcher panic recovered", logger.WithField("panic", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			kind, relevant := w.classify(event)
			if !relevant {
				continue
			}
			if kind == ChangeKindContent && event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			w.logger.Debug("Build input event received", logger.WithField("event", event.String()))
			w.debounce(event.Name, kind)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", logger.WithField("error", err))
			w.notify(WatchEvent{Kind: ChangeKindError, Err: err, Timestamp: time.Now()})
		}
	}
}

func (w *Watcher) classify(event fsnotify.Event) (ChangeKind, bool) {
	if event.Op == fsnotify.Chmod {
		return "", false
	}
	if w.isSettingsEvent(event.Name) {
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			if _, err := os.Stat(w.settingsPath); err != nil {
				return ChangeKindRemoved, true
			}
		}
		return ChangeKindSettings, true
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, dir := range w.directories {
		if rel, err := filepath.Rel(dir, event.Name); err == nil && !strings.HasPrefix(rel, "..") {
			return ChangeKindContent, true
		}
	}
	return "", false
}

func (w *Watcher) isSettingsEvent(eventPath string) bool {
	if w.settingsPath == "" {
		return false
	}
	if filepath.Dir(eventPath) != filepath.Dir(w.settingsPath) {
		return false
	}
	settingsName := filepath.Base(w.settingsPath)
	eventName := filepath.Base(eventPath)

	if eventName == settingsName {
		return true
	}

	// Editors save through temporary files next to the original
	return strings.HasPrefix(eventName, settingsName) ||
		strings.HasSuffix(eventName, ".tmp") && strings.Contains(eventName, settingsName)
}

func (w *Watcher) debounce(path string, kind ChangeKind) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.pending[path]; !ok || rank(kind) > rank(prev) {
		w.pending[path] = kind
	}

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		w.mu.Lock()
		pending := w.pending
		w.pending = make(map[string]ChangeKind)
		w.mu.Unlock()
		w.fire(pending)
	})
}

func rank(k ChangeKind) int {
	switch k {
	case ChangeKindRemoved:
		return 3
	case ChangeKindSettings:
		return 2
	case ChangeKindContent:
		return 1
	}
	return 0
}

// fire collapses pending changes into one event. Settings changes take
// precedence over content changes and reload the settings file.
func (w *Watcher) fire(pending map[string]ChangeKind) {
	if len(pending) == 0 {
		return
	}

	event := WatchEvent{Kind: ChangeKindContent, Timestamp: time.Now()}
	for path, kind := range pending {
		event.Paths = append(event.Paths, path)
		if rank(kind) > rank(event.Kind) {
			event.Kind = kind
		}
	}

	switch event.Kind {
	case ChangeKindRemoved:
		event.Err = fmt.Errorf("settings file was removed: %s", w.settingsPath)
	case ChangeKindSettings:
		settings, err := NewManager().LoadConfig(w.settingsPath)
		if err != nil {
			w.logger.Error("Failed to reload settings", logger.WithField("error", err))
			event.Kind = ChangeKindError
			event.Err = err
		} else {
			w.logger.Info("Settings reloaded", logger.WithField("path", w.settingsPath))
			event.Settings = settings
		}
	}

	w.notify(event)
}

func (w *Watcher) notify(event WatchEvent) {
	w.mu.Lock()
	w.lastReload = event.Timestamp
	callbacks := make([]WatchCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Debug("Notifying watch callbacks",
		logger.WithField("callbackCount", len(callbacks)),
		logger.WithField("kind", event.Kind))

	// Callbacks run one event at a time so rebuilds never overlap
	w.fireMu.Lock()
	defer w.fireMu.Unlock()
	for _, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("Watch callback panic recovered", logger.WithField("panic", r))
				}
			}()
			cb(event)
		}()
	}
}
