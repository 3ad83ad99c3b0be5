package services

import (
	"log"
	"math"
	"sort"
	"time"

	"fastpath/internal/models"
)

// MonotonicTimer returns a monotonic reading. Supplied by the collaborator
// that owns timing; tests inject deterministic timers.
type MonotonicTimer func() time.Duration

// SystemTimer reads the process monotonic clock
func SystemTimer() MonotonicTimer {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// ValidationHarness measures operation latency and qualifies candidate
// encodings against the improvement target. Qualification tooling only;
// the runtime application path never consults it.
type ValidationHarness struct {
	timer           MonotonicTimer
	outlierFraction float64
	threshold       float64 // minimum improvement percent
}

// NewValidationHarness builds a harness around a monotonic timer
func NewValidationHarness(timer MonotonicTimer, outlierFraction, minImprovementPercent float64) *ValidationHarness {
	return &ValidationHarness{
		timer:           timer,
		outlierFraction: outlierFraction,
		threshold:       minImprovementPercent,
	}
}

// Measure runs op the given number of times and returns outlier-trimmed
// latency statistics
func (h *ValidationHarness) Measure(operation string, op func(), iterations int) models.MeasurementSample {
	if iterations < 1 {
		iterations = 1
	}

	durations := make([]time.Duration, iterations)
	for i := 0; i < iterations; i++ {
		before := h.timer()
		op()
		durations[i] = h.timer() - before
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	trim := int(float64(iterations) * h.outlierFraction)
	if trim*2 >= iterations {
		trim = 0
	}
	kept := durations[trim : iterations-trim]

	var sum time.Duration
	for _, d := range kept {
		sum += d
	}
	mean := sum / time.Duration(len(kept))

	var variance float64
	for _, d := range kept {
		diff := float64(d - mean)
		variance += diff * diff
	}
	variance /= float64(len(kept))

	return models.MeasurementSample{
		Operation:  operation,
		Iterations: iterations,
		Trimmed:    trim,
		Mean:       mean,
		StdDev:     time.Duration(math.Sqrt(variance)),
		Min:        kept[0],
		Max:        kept[len(kept)-1],
	}
}

// Compare computes the improvement of candidate over baseline and flags
// whether it clears the acceptance threshold
func (h *ValidationHarness) Compare(baseline, candidate models.MeasurementSample) models.PerformanceReport {
	report := models.PerformanceReport{
		Operation:     baseline.Operation,
		BaselineMean:  baseline.Mean,
		CandidateMean: candidate.Mean,
		Threshold:     h.threshold,
		MeasuredAt:    time.Now(),
	}

	if baseline.Mean > 0 && candidate.Mean < baseline.Mean {
		report.ImprovementPercent = float64(baseline.Mean-candidate.Mean) / float64(baseline.Mean) * 100
	}
	report.TargetMet = report.ImprovementPercent >= h.threshold

	return report
}

// QualificationCase pairs a baseline implementation with the candidate
// selected for the same operation
type QualificationCase struct {
	Name      string
	Baseline  func()
	Candidate func()
}

// RunSuite measures every case and rolls the reports into a summary
func (h *ValidationHarness) RunSuite(cases []QualificationCase, iterations int) models.QualificationSummary {
	summary := models.QualificationSummary{}

	var total, best float64
	for _, qc := range cases {
		baseline := h.Measure(qc.Name, qc.Baseline, iterations)
		candidate := h.Measure(qc.Name, qc.Candidate, iterations)
		report := h.Compare(baseline, candidate)

		summary.Reports = append(summary.Reports, report)
		total += report.ImprovementPercent
		if report.ImprovementPercent > best {
			best = report.ImprovementPercent
		}
		if report.TargetMet {
			summary.TargetsMet++
		} else {
			summary.TargetsMissed++
		}

		log.Printf("[HARNESS] %s: baseline=%v candidate=%v improvement=%.1f%% target_met=%v",
			qc.Name, report.BaselineMean, report.CandidateMean,
			report.ImprovementPercent, report.TargetMet)
	}

	if len(cases) > 0 {
		summary.AverageImprovement = total / float64(len(cases))
	}
	summary.BestImprovement = best
	summary.SuitePassed = summary.AverageImprovement >= h.threshold &&
		summary.TargetsMet > summary.TargetsMissed
	summary.CompletedAt = time.Now()

	return summary
}
