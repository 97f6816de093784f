package state_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sandcastle-helpers/helpbuild/internal/state"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

func settings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.WorkingDirectory = t.TempDir()
	s.HelpName = "Demo"
	off := false
	s.Formats = []config.FormatConfig{
		{Type: types.FormatTypeChm},
		{Type: types.FormatTypeHxs, Enabled: &off},
		{Type: types.FormatTypeWeb},
	}
	s.Groups = []config.GroupConfig{{Name: "Core", Type: types.GroupTypeReference, Source: "bin"}}
	return s
}

func TestNewRecord(t *testing.T) {
	s := settings(t)
	r := state.NewRecord(s)

	if r.ID == "" || r.Project != "Demo" || r.State != types.BuildStateStarted {
		t.Errorf("record = %+v", r)
	}
	if len(r.Formats) != 2 || r.Formats[0] != "chm" || r.Formats[1] != "web" {
		t.Errorf("formats = %v, want the enabled ones", r.Formats)
	}
	if len(r.Groups) != 1 || r.Groups[0] != "Core" {
		t.Errorf("groups = %v", r.Groups)
	}
	if r.ProcessID != os.Getpid() {
		t.Errorf("process id = %d", r.ProcessID)
	}
	if other := state.NewRecord(s); other.ID == r.ID {
		t.Error("record ids should be unique")
	}
}

func TestStore_SaveAndLatest(t *testing.T) {
	s := settings(t)
	store := state.NewStore(s.WorkingDirectory, nil)

	if _, err := store.Latest(); !errors.Is(err, state.ErrNoRecords) {
		t.Fatalf("Latest() on empty store = %v", err)
	}

	first := state.NewRecord(s)
	first.Start = time.Now().Add(-time.Hour)
	first.Finish(types.BuildStateError, errors.New("hhc failed"))
	second := state.NewRecord(s)
	second.Finish(types.BuildStateFinished, nil)

	for _, r := range []*state.Record{first, second} {
		if err := store.Save(r); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != second.ID || !latest.Succeeded() {
		t.Errorf("latest = %+v", latest)
	}

	records, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[1].Error != "hhc failed" {
		t.Errorf("records = %+v", records)
	}

	got, err := store.Get(first.ID[:8])
	if err != nil || got.ID != first.ID {
		t.Errorf("Get(prefix) = %+v, %v", got, err)
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	s := settings(t)
	store := state.NewStore(s.WorkingDirectory, nil)

	r := state.NewRecord(s)
	if err := store.Save(r); err != nil {
		t.Fatal(err)
	}
	r.Finish(types.BuildStateFinished, nil)
	if err := store.Save(r); err != nil {
		t.Fatal(err)
	}

	records, _ := store.List()
	if len(records) != 1 || records[0].State != types.BuildStateFinished {
		t.Errorf("records = %+v", records)
	}
}

func TestStore_SkipsCorruptRecords(t *testing.T) {
	s := settings(t)
	store := state.NewStore(s.WorkingDirectory, nil)
	if err := store.Save(state.NewRecord(s)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestStore_Prune(t *testing.T) {
	s := settings(t)
	store := state.NewStore(s.WorkingDirectory, nil)
	for i := 0; i < 5; i++ {
		r := state.NewRecord(s)
		r.Start = time.Now().Add(time.Duration(i) * time.Minute)
		if err := store.Save(r); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.Prune(2)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("removed %d, want 3", removed)
	}
	records, _ := store.List()
	if len(records) != 2 {
		t.Errorf("kept %d records, want 2", len(records))
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	s := settings(t)
	store := state.NewStore(s.WorkingDirectory, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Save(state.NewRecord(s)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	records, _ := store.List()
	if len(records) != 10 {
		t.Errorf("got %d records, want 10", len(records))
	}
}
