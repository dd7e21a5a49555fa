package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("generate", 150*time.Millisecond)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncStageResult("generate", ResultSuccess)
	pr.IncStageResult("postprocess", ResultFatal)
	pr.IncRunOutcome(OutcomeFailed)
	pr.AddFilesRewritten(12)
	pr.AddFilesRewritten(0)
	pr.AddReplacements("version", 7)

	assert.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues("generate", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.runOutcome.WithLabelValues("failed")), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(pr.filesRewritten), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(pr.replacements.WithLabelValues("version")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("generate", time.Second)
		pr.ObserveRunDuration(time.Second)
		pr.IncStageResult("generate", ResultSuccess)
		pr.IncRunOutcome(OutcomeSuccess)
		pr.AddFilesRewritten(1)
		pr.AddReplacements("title", 1)
	})
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncRunOutcome(OutcomeSuccess)
	r = NewPrometheusRecorder(nil)
	r.IncRunOutcome(OutcomeSuccess)
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncRunOutcome(OutcomeSuccess)

	path := filepath.Join(t.TempDir(), "tkdocs.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `tkdocs_run_outcomes_total{outcome="success"} 1`))
}

func TestWriteTextfileBadPath(t *testing.T) {
	reg := prom.NewRegistry()
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"), reg)
	require.Error(t, err)
}
