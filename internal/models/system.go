package models

// OptimizationStatus combines the full state of the optimization layer
type OptimizationStatus struct {
	Profile *CPUProfile           `json:"profile"`
	Sites   []SiteStatus          `json:"sites"`
	Stats   *PatchStats           `json:"stats"`
	Summary *QualificationSummary `json:"summary,omitempty"`
}
