// Package steps provides the concrete actions of build steps: external
// tools, file system work, viewers and assembler configuration
package steps

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// Process runs an external tool in the step working directory
type Process struct {
	Application string
	// Arguments is split with shell quoting rules
	Arguments string
	// SuccessCodes lists the exit codes treated as success (default 0)
	SuccessCodes []int
	// LogFile receives a copy of the tool output when set
	LogFile     string
	Environment map[string]string
	// Message is logged before the tool starts
	Message string

	executable string
}

var _ build.ManagedAction = (*Process)(nil)

// NewProcessStep creates a step running application with arguments
func NewProcessStep(name, application, arguments string, successCodes ...int) *build.Step {
	return build.NewStep(name, &Process{
		Application:  application,
		Arguments:    arguments,
		SuccessCodes: successCodes,
	})
}

// NewStrongNameStep creates a step generating a strong-name key pair with sn
func NewStrongNameStep(cfg *config.BuildConfiguration, keyFile string) *build.Step {
	step := NewProcessStep("StrongNameKey", cfg.ToolPath(config.ToolSn), "-k "+QuoteArg(keyFile))
	step.Description = "Create strong name key " + filepath.Base(keyFile)
	return step
}

func (p *Process) Type() types.StepType { return types.StepTypeProcess }

// Initialize locates the executable. Relative paths with a directory part
// resolve against the build working directory, bare names through PATH.
func (p *Process) Initialize(ctx *build.Context) error {
	if p.Application == "" {
		return &build.BuildError{Op: "initialize process", Err: fmt.Errorf("%w: no application", build.ErrInvalidArgument)}
	}

	app := p.Application
	if settings := ctx.Settings(); settings != nil && strings.ContainsAny(app, `/\`) {
		app = settings.Resolve(app)
	}
	resolved, err := exec.LookPath(app)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrToolNotFound, p.Application, err)
	}
	p.executable = resolved
	return nil
}

// Uninitialize forgets the resolved executable
func (p *Process) Uninitialize(*build.Context) error {
	p.executable = ""
	return nil
}

// Run starts the tool and waits for it. Output is logged line by line.
func (p *Process) Run(sc *build.StepContext) error {
	exe := p.executable
	if exe == "" {
		exe = p.Application
	}
	args, err := shlex.Split(p.Arguments)
	if err != nil {
		return &build.BuildError{Op: "parse arguments", Step: sc.Step.Name, Err: err}
	}
	if p.Message != "" {
		sc.Logger.Info(p.Message)
	}

	cmd := exec.CommandContext(sc.Ctx, exe, args...)
	cmd.Dir = sc.WorkingDirectory
	if len(p.Environment) > 0 {
		cmd.Env = os.Environ()
		keys := make([]string, 0, len(p.Environment))
		for k := range p.Environment {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, p.Environment[k]))
		}
	}

	lines := &lineWriter{log: sc.Logger}
	var out io.Writer = lines
	if p.LogFile != "" {
		logFile, err := openToolLog(sc.Resolve(p.LogFile))
		if err != nil {
			sc.Logger.Warn(fmt.Sprintf("Failed to open tool log: %v", err))
		} else {
			defer logFile.Close()
			out = io.MultiWriter(lines, logFile)
		}
	}
	cmd.Stdout = out
	cmd.Stderr = out

	tool := filepath.Base(exe)
	sc.Logger.Debug("Executing", logger.WithField("command", strings.TrimSpace(exe+" "+p.Arguments)))
	start := time.Now()
	err = cmd.Run()
	lines.Flush()

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("run %s: %w", tool, err)
		}
		code = exitErr.ExitCode()
	}
	if !p.succeeded(code) {
		return fmt.Errorf("%w: %s exited with code %d", ErrExitCode, tool, code)
	}

	sc.Logger.Debug(fmt.Sprintf("%s finished in %s", tool, time.Since(start).Round(time.Millisecond)),
		logger.WithField("exit_code", code))
	return nil
}

func (p *Process) succeeded(code int) bool {
	if len(p.SuccessCodes) == 0 {
		return code == 0
	}
	for _, c := range p.SuccessCodes {
		if c == code {
			return true
		}
	}
	return false
}

func openToolLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(f, "\n=== Started at %s ===\n", time.Now().Format("2006-01-02 15:04:05"))
	return f, nil
}

// QuoteArg prepares a path or value for an argument string: separators
// become slashes and values with spaces or quotes are double-quoted
func QuoteArg(s string) string {
	s = filepath.ToSlash(s)
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t\"'") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// lineWriter logs complete output lines at info level
type lineWriter struct {
	log logger.Logger
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf.Next(i+1)), "\r\n")
		if strings.TrimSpace(line) != "" {
			w.log.Info(line)
		}
	}
	return len(p), nil
}

// Flush logs a trailing partial line
func (w *lineWriter) Flush() {
	if line := strings.TrimSpace(w.buf.String()); line != "" {
		w.log.Info(line)
	}
	w.buf.Reset()
}
