package services

import (
	"log"
	"sync"
	"time"

	"fastpath/internal/models"
)

// RecordKeeper is the structured record sink: it retains the audit trail
// and measurement history served to clients
type RecordKeeper struct {
	mu            sync.RWMutex
	records       []models.PatchRecord
	improvements  []models.ImprovementPoint
	latest        *models.QualificationSummary
	maxDataPoints int
}

var recordKeeper = &RecordKeeper{
	maxDataPoints: 512,
}

// AddRecord appends an audit record; wired as the engine's record sink
func AddRecord(rec models.PatchRecord) {
	recordKeeper.mu.Lock()
	defer recordKeeper.mu.Unlock()

	recordKeeper.records = append(recordKeeper.records, rec)
	if len(recordKeeper.records) > recordKeeper.maxDataPoints {
		recordKeeper.records = recordKeeper.records[1:]
	}
}

// AddSummary stores a qualification run and appends its per-operation
// improvement points to the history window
func AddSummary(summary models.QualificationSummary) {
	recordKeeper.mu.Lock()
	defer recordKeeper.mu.Unlock()

	recordKeeper.latest = &summary
	for _, report := range summary.Reports {
		recordKeeper.improvements = append(recordKeeper.improvements, models.ImprovementPoint{
			Timestamp:          report.MeasuredAt,
			Operation:          report.Operation,
			ImprovementPercent: report.ImprovementPercent,
			TargetMet:          report.TargetMet,
		})
	}
	if len(recordKeeper.improvements) > recordKeeper.maxDataPoints {
		recordKeeper.improvements = recordKeeper.improvements[len(recordKeeper.improvements)-recordKeeper.maxDataPoints:]
	}

	log.Printf("[RECORDS] Qualification stored: avg=%.1f%% best=%.1f%% passed=%v",
		summary.AverageImprovement, summary.BestImprovement, summary.SuitePassed)
}

// GetHistoricalData returns the audit and measurement history inside the
// given window
func GetHistoricalData(duration time.Duration) models.HistoricalDataWindow {
	recordKeeper.mu.RLock()
	defer recordKeeper.mu.RUnlock()

	cutoff := time.Now().Add(-duration)
	window := models.HistoricalDataWindow{}

	for _, r := range recordKeeper.records {
		if r.RecordedAt.After(cutoff) {
			window.Records = append(window.Records, r)
		}
	}
	for _, p := range recordKeeper.improvements {
		if p.Timestamp.After(cutoff) {
			window.Improvements = append(window.Improvements, p)
		}
	}

	return window
}

// LatestSummary returns the most recent qualification run, nil before the
// first run completes
func LatestSummary() *models.QualificationSummary {
	recordKeeper.mu.RLock()
	defer recordKeeper.mu.RUnlock()
	return recordKeeper.latest
}

// TargetMet reports whether the named operation met its improvement target
// in the latest qualification run. The second result is false when the
// operation has not been measured yet.
func TargetMet(operation string) (bool, bool) {
	recordKeeper.mu.RLock()
	defer recordKeeper.mu.RUnlock()

	if recordKeeper.latest == nil {
		return false, false
	}
	for _, report := range recordKeeper.latest.Reports {
		if report.Operation == operation {
			return report.TargetMet, true
		}
	}
	return false, false
}

// ResetHistory clears all retained history. Intended for tests.
func ResetHistory() {
	recordKeeper.mu.Lock()
	defer recordKeeper.mu.Unlock()
	recordKeeper.records = nil
	recordKeeper.improvements = nil
	recordKeeper.latest = nil
}
