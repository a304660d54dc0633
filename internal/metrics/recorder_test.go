package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testRecorder struct {
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	buildDurations int
	buildOutcomes  map[BuildOutcomeLabel]int
	rebuilds       int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		buildOutcomes:  map[BuildOutcomeLabel]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.stageDurations[stage]++
}
func (t *testRecorder) ObserveBuildDuration(_ time.Duration) { t.buildDurations++ }
func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}
func (t *testRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) { t.buildOutcomes[outcome]++ }
func (t *testRecorder) IncDevRebuild(bool)                       { t.rebuilds++ }

func TestRecorderInterfaceSatisfied(t *testing.T) {
	var recs []Recorder = []Recorder{NoopRecorder{}, newTestRecorder(), NewPrometheusRecorder(nil)}
	for _, r := range recs {
		r.ObserveStageDuration("wasm", time.Millisecond)
		r.IncStageResult("wasm", ResultFailed)
		r.IncBuildOutcome(BuildOutcomeFailed)
	}
	tr := recs[1].(*testRecorder)
	require.Equal(t, 1, tr.stageResults["wasm"][ResultFailed])
	require.Equal(t, 1, tr.buildOutcomes[BuildOutcomeFailed])
}
