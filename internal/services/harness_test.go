package services

import (
	"testing"
	"time"

	"fastpath/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTimer yields one scripted duration per before/after reading pair
func scriptedTimer(durations []time.Duration) MonotonicTimer {
	var acc time.Duration
	call, idx := 0, 0
	return func() time.Duration {
		if call%2 == 1 {
			acc += durations[idx]
			idx++
		}
		call++
		return acc
	}
}

func TestMeasureTrimsOutliers(t *testing.T) {
	us := time.Microsecond
	durations := []time.Duration{
		10 * us, 1000 * us, 10 * us, 10 * us, 1 * us,
		10 * us, 10 * us, 10 * us, 10 * us, 10 * us,
	}
	h := NewValidationHarness(scriptedTimer(durations), 0.1, 25)

	sample := h.Measure("copy", func() {}, 10)

	assert.Equal(t, 10, sample.Iterations)
	assert.Equal(t, 1, sample.Trimmed)
	// The 1ms spike and the 1µs floor reading both fall outside the kept
	// range, leaving a flat 10µs distribution
	assert.Equal(t, 10*us, sample.Mean)
	assert.Equal(t, 10*us, sample.Min)
	assert.Equal(t, 10*us, sample.Max)
	assert.Equal(t, time.Duration(0), sample.StdDev)
}

func TestMeasureSmallRunSkipsTrimming(t *testing.T) {
	us := time.Microsecond
	h := NewValidationHarness(scriptedTimer([]time.Duration{10 * us, 20 * us}), 0.4, 25)

	sample := h.Measure("copy", func() {}, 2)

	// Trimming 40% of 2 samples per end would discard everything
	assert.Equal(t, 0, sample.Trimmed)
	assert.Equal(t, 15*us, sample.Mean)
	assert.Equal(t, 10*us, sample.Min)
	assert.Equal(t, 20*us, sample.Max)
}

func TestCompareFlagsTarget(t *testing.T) {
	h := NewValidationHarness(SystemTimer(), 0.05, 25)

	baseline := models.MeasurementSample{Operation: "copy", Mean: 100 * time.Microsecond}

	met := h.Compare(baseline, models.MeasurementSample{Mean: 70 * time.Microsecond})
	assert.InDelta(t, 30.0, met.ImprovementPercent, 0.01)
	assert.True(t, met.TargetMet)

	missed := h.Compare(baseline, models.MeasurementSample{Mean: 80 * time.Microsecond})
	assert.InDelta(t, 20.0, missed.ImprovementPercent, 0.01)
	assert.False(t, missed.TargetMet)

	// A slower candidate never reports negative improvement
	slower := h.Compare(baseline, models.MeasurementSample{Mean: 150 * time.Microsecond})
	assert.Equal(t, 0.0, slower.ImprovementPercent)
	assert.False(t, slower.TargetMet)
}

func TestRunSuiteSummarizes(t *testing.T) {
	us := time.Microsecond
	// Two cases, two iterations each: baseline then candidate.
	// Case one improves 50%, case two improves 10%.
	durations := []time.Duration{
		100 * us, 100 * us, 50 * us, 50 * us,
		100 * us, 100 * us, 90 * us, 90 * us,
	}
	h := NewValidationHarness(scriptedTimer(durations), 0, 25)

	noop := func() {}
	summary := h.RunSuite([]QualificationCase{
		{Name: "copy", Baseline: noop, Candidate: noop},
		{Name: "checksum", Baseline: noop, Candidate: noop},
	}, 2)

	require.Len(t, summary.Reports, 2)
	assert.InDelta(t, 50.0, summary.Reports[0].ImprovementPercent, 0.01)
	assert.InDelta(t, 10.0, summary.Reports[1].ImprovementPercent, 0.01)
	assert.Equal(t, 1, summary.TargetsMet)
	assert.Equal(t, 1, summary.TargetsMissed)
	assert.InDelta(t, 30.0, summary.AverageImprovement, 0.01)
	assert.InDelta(t, 50.0, summary.BestImprovement, 0.01)
	// Average clears the threshold but the met/missed split does not
	assert.False(t, summary.SuitePassed)
	assert.False(t, summary.CompletedAt.IsZero())
}

func TestRunSuitePasses(t *testing.T) {
	us := time.Microsecond
	durations := []time.Duration{
		100 * us, 50 * us,
		100 * us, 60 * us,
	}
	h := NewValidationHarness(scriptedTimer(durations), 0, 25)

	noop := func() {}
	summary := h.RunSuite([]QualificationCase{
		{Name: "copy", Baseline: noop, Candidate: noop},
		{Name: "burst", Baseline: noop, Candidate: noop},
	}, 1)

	assert.Equal(t, 2, summary.TargetsMet)
	assert.Equal(t, 0, summary.TargetsMissed)
	assert.True(t, summary.SuitePassed)
}
