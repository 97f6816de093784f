package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStepDuration("Compiling HtmlHelp 1.x", 150*time.Millisecond)
	pr.IncStepResult("Compiling HtmlHelp 1.x", ResultSuccess)
	pr.ObserveBuildDuration("reference", 2*time.Second)
	pr.IncBuildOutcome("reference", OutcomeSuccess)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 4)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStepDuration("x", time.Second)
	pr.IncStepResult("x", ResultFailed)
	pr.ObserveBuildDuration("x", time.Second)
	pr.IncBuildOutcome("x", OutcomeFailed)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome("conceptual", OutcomeCancelled)

	path := filepath.Join(t.TempDir(), "helpbuild.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `helpbuild_build_outcomes_total{engine="conceptual",outcome="cancelled"} 1`))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStepDuration("x", time.Second)
	r.IncStepResult("x", ResultSkipped)
	r.ObserveBuildDuration("x", time.Second)
	r.IncBuildOutcome("x", OutcomeSuccess)
}
