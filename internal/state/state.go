// Package state keeps a JSON record of every build run in a project
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// Directory is the state directory below the working directory
const Directory = ".helpbuild"

// ErrNoRecords is returned by Latest when no build was recorded
var ErrNoRecords = errors.New("no build recorded")

// Record describes one build run
type Record struct {
	ID         string           `json:"id"`
	BuildID    string           `json:"buildId,omitempty"`
	Project    string           `json:"project"`
	Settings   string           `json:"settings,omitempty"`
	State      types.BuildState `json:"state"`
	Start      time.Time        `json:"start"`
	Duration   time.Duration    `json:"duration"`
	Formats    []string         `json:"formats,omitempty"`
	Groups     []string         `json:"groups,omitempty"`
	Error      string           `json:"error,omitempty"`
	ProcessID  int              `json:"processId"`
	OutputPath string           `json:"outputPath,omitempty"`
}

// NewRecord starts a record for a build of settings
func NewRecord(settings *config.Settings) *Record {
	r := &Record{
		ID:         uuid.NewString(),
		Project:    settings.HelpName,
		Settings:   settings.Source(),
		State:      types.BuildStateStarted,
		Start:      time.Now(),
		ProcessID:  os.Getpid(),
		OutputPath: settings.OutputPath(),
	}
	for _, f := range settings.Formats {
		if f.IsEnabled() {
			r.Formats = append(r.Formats, string(f.Type))
		}
	}
	for _, g := range settings.Groups {
		if g.IsEnabled() {
			r.Groups = append(r.Groups, g.Name)
		}
	}
	return r
}

// Finish sets the final state and duration. err may be nil.
func (r *Record) Finish(state types.BuildState, err error) {
	r.State = state
	r.Duration = time.Since(r.Start)
	if err != nil {
		r.Error = err.Error()
	}
}

// Succeeded reports whether the build finished without error
func (r *Record) Succeeded() bool {
	return r.State == types.BuildStateFinished
}

// Store reads and writes build records
type Store struct {
	dir    string
	logger logger.Logger
	mu     sync.RWMutex
}

// NewStore creates a store below workingDir
func NewStore(workingDir string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{
		dir:    filepath.Join(workingDir, Directory, "builds"),
		logger: log,
	}
}

// Dir returns the directory holding the records
func (s *Store) Dir() string {
	return s.dir
}

// Save writes r atomically, replacing an earlier version of the same record
func (s *Store) Save(r *Record) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("save build record: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal build record: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path(r), data); err != nil {
		return fmt.Errorf("failed to write build record: %w", err)
	}
	return nil
}

// List returns every readable record, newest first
func (s *Store) List() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		r, err := load(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Warn("Failed to load build record",
				logger.WithField("file", entry.Name()),
				logger.WithField("error", err))
			continue
		}
		records = append(records, r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Start.After(records[j].Start)
	})
	return records, nil
}

// Latest returns the newest record
func (s *Store) Latest() (*Record, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records[0], nil
}

// Get returns the record with the given id or id prefix
func (s *Store) Get(id string) (*Record, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID == id || (id != "" && strings.HasPrefix(r.ID, id)) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("build record %s not found", id)
}

// Prune keeps the newest keep records and removes the others
func (s *Store) Prune(keep int) (int, error) {
	records, err := s.List()
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(records) <= keep {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, r := range records[keep:] {
		if err := os.Remove(s.path(r)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove build record: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) path(r *Record) string {
	return filepath.Join(s.dir, r.ID+".json")
}

func load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse build record: %w", err)
	}
	return &r, nil
}
