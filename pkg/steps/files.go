package steps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// DirectoryCreate creates a directory and its parents
type DirectoryCreate struct {
	Path string
}

// NewDirectoryCreateStep creates a step making path
func NewDirectoryCreateStep(path string) *build.Step {
	return build.NewStep("Create "+filepath.Base(path), &DirectoryCreate{Path: path})
}

func (a *DirectoryCreate) Type() types.StepType { return types.StepTypeDirectoryCreate }

func (a *DirectoryCreate) Run(sc *build.StepContext) error {
	path := sc.Resolve(a.Path)
	if err := utils.EnsureDirectory(path); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	sc.Logger.Debug("Created directory " + path)
	return nil
}

// DirectoryDelete removes a directory tree. A missing directory is not an error.
type DirectoryDelete struct {
	Path string
}

// NewDirectoryDeleteStep creates a step removing path
func NewDirectoryDeleteStep(path string) *build.Step {
	return build.NewStep("Delete "+filepath.Base(path), &DirectoryDelete{Path: path})
}

func (a *DirectoryDelete) Type() types.StepType { return types.StepTypeDirectoryDelete }

func (a *DirectoryDelete) Run(sc *build.StepContext) error {
	if a.Path == "" {
		return &build.BuildError{Op: "delete directory", Step: sc.Step.Name, Err: build.ErrInvalidArgument}
	}
	path := filepath.Clean(sc.Resolve(a.Path))
	if filepath.Dir(path) == path {
		return fmt.Errorf("%w: %s", ErrUnsafePath, path)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("delete directory %s: %w", path, err)
	}
	sc.Logger.Debug("Deleted directory " + path)
	return nil
}

// DirectoryCopy copies a directory tree
type DirectoryCopy struct {
	Source      string
	Destination string
	Recursive   bool
	Overwrite   bool
}

// NewDirectoryCopyStep creates a step copying src into dst recursively, overwriting files
func NewDirectoryCopyStep(src, dst string) *build.Step {
	return build.NewStep("Copy "+filepath.Base(src), &DirectoryCopy{
		Source:      src,
		Destination: dst,
		Recursive:   true,
		Overwrite:   true,
	})
}

func (a *DirectoryCopy) Type() types.StepType { return types.StepTypeDirectoryCopy }

func (a *DirectoryCopy) Run(sc *build.StepContext) error {
	src, dst := sc.Resolve(a.Source), sc.Resolve(a.Destination)
	n, err := utils.CopyDirectory(src, dst, a.Recursive, a.Overwrite)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	sc.Logger.Info(fmt.Sprintf("Copied %d files to %s", n, dst))
	return nil
}

// FileCopy copies the files matched by glob patterns into a directory
type FileCopy struct {
	Sources     []string
	Destination string
	Overwrite   bool
	// AllowEmpty accepts patterns that match nothing
	AllowEmpty bool
}

// NewFileCopyStep creates a step copying the matches of patterns into dst, overwriting files
func NewFileCopyStep(name, dst string, patterns ...string) *build.Step {
	return build.NewStep(name, &FileCopy{
		Sources:     patterns,
		Destination: dst,
		Overwrite:   true,
	})
}

func (a *FileCopy) Type() types.StepType { return types.StepTypeFileCopy }

func (a *FileCopy) Run(sc *build.StepContext) error {
	dst := sc.Resolve(a.Destination)
	copied := 0
	for _, pattern := range a.Sources {
		matches, err := utils.Glob(sc.WorkingDirectory, pattern)
		if err != nil {
			return fmt.Errorf("match %s: %w", pattern, err)
		}
		if len(matches) == 0 && !a.AllowEmpty {
			return fmt.Errorf("%w: %s", ErrNoFiles, pattern)
		}
		for _, src := range matches {
			target := filepath.Join(dst, filepath.Base(src))
			if err := utils.CopyFile(src, target, a.Overwrite); err != nil {
				return fmt.Errorf("copy %s: %w", src, err)
			}
			copied++
		}
	}
	sc.Logger.Info(fmt.Sprintf("Copied %d files to %s", copied, dst))
	return nil
}
