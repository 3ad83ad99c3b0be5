package models

import "time"

// ImprovementPoint is a single time-series point for one operation's
// measured improvement, kept for the dashboard history window
type ImprovementPoint struct {
	Timestamp          time.Time `json:"timestamp"`
	Operation          string    `json:"operation"`
	ImprovementPercent float64   `json:"improvement_percent"`
	TargetMet          bool      `json:"target_met"`
}

// HistoricalDataWindow holds the audit and measurement history served
// to clients in one payload
type HistoricalDataWindow struct {
	Records      []PatchRecord      `json:"records"`
	Improvements []ImprovementPoint `json:"improvements"`
}
