package models

import "time"

// MeasurementSample holds the trimmed latency statistics for one operation
type MeasurementSample struct {
	Operation  string        `json:"operation"`
	Iterations int           `json:"iterations"`
	Trimmed    int           `json:"trimmed"` // samples discarded per end
	Mean       time.Duration `json:"mean_ns"`
	StdDev     time.Duration `json:"stddev_ns"`
	Min        time.Duration `json:"min_ns"`
	Max        time.Duration `json:"max_ns"`
}

// PerformanceReport compares a baseline sample against a candidate
type PerformanceReport struct {
	Operation          string        `json:"operation"`
	BaselineMean       time.Duration `json:"baseline_mean_ns"`
	CandidateMean      time.Duration `json:"candidate_mean_ns"`
	ImprovementPercent float64       `json:"improvement_percent"`
	Threshold          float64       `json:"threshold_percent"`
	TargetMet          bool          `json:"target_met"`
	MeasuredAt         time.Time     `json:"measured_at"`
}

// QualificationSummary rolls up a full harness run
type QualificationSummary struct {
	Reports            []PerformanceReport `json:"reports"`
	AverageImprovement float64             `json:"average_improvement"`
	BestImprovement    float64             `json:"best_improvement"`
	TargetsMet         int                 `json:"targets_met"`
	TargetsMissed      int                 `json:"targets_missed"`
	SuitePassed        bool                `json:"suite_passed"`
	HostLoadPercent    float64             `json:"host_load_percent"`
	CompletedAt        time.Time           `json:"completed_at"`
}

// HostLoad captures host utilization around a measurement run. Heavy
// background load makes the trimmed means unreliable.
type HostLoad struct {
	CPUPercent        float64   `json:"cpu_percent"`
	PerCore           []float64 `json:"per_core,omitempty"`
	CoreCount         int       `json:"core_count"`
	MemoryUsedPercent float64   `json:"memory_used_percent"`
	SampledAt         time.Time `json:"sampled_at"`
}
