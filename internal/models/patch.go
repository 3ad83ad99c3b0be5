package models

import "time"

// PatchState tracks the lifecycle of a patch site
type PatchState int

const (
	StateUnpatched PatchState = iota
	StatePatched
	StateRolledBack
	StateFailed
)

var stateNames = []string{"unpatched", "patched", "rolled_back", "failed"}

// String returns the display name for a state
func (s PatchState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Variant is an alternate equal-length encoding of a site's operation,
// legal only when the profile meets MinTier and every required feature.
type Variant struct {
	Name     string    `json:"name"`
	MinTier  Tier      `json:"-"`
	TierName string    `json:"tier"`
	Requires []Feature `json:"requires,omitempty"`
	Code     []byte    `json:"-"`
}

// PatchSite is a fixed patchable location. Region holds the site's live
// encoding bytes; only the engine writes to it. State and Applied are
// likewise engine-owned.
type PatchSite struct {
	ID       string
	Region   []byte
	Baseline []byte
	Variants []Variant

	State   PatchState
	Applied *Variant // variant currently in the region, nil on baseline
}

// SiteStatus is the JSON view of a site for the API surface
type SiteStatus struct {
	ID           string    `json:"id"`
	State        string    `json:"state"`
	Length       int       `json:"length"`
	AppliedName  string    `json:"applied_variant,omitempty"`
	VariantCount int       `json:"variant_count"`
	Variants     []Variant `json:"variants,omitempty"`
}

// PatchRecord is one audit entry, appended on every state transition
type PatchRecord struct {
	ID         string        `json:"id"`
	SiteID     string        `json:"site_id"`
	Variant    string        `json:"variant"` // "baseline" on rollback
	Tier       string        `json:"tier,omitempty"`
	Checksum   uint32        `json:"checksum"`
	Outcome    string        `json:"outcome"` // "patched", "rolled_back", "failed"
	PhaseTime  time.Duration `json:"phase_ns"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// PatchStats aggregates engine activity across all sites
type PatchStats struct {
	Applied           uint64        `json:"applied"`
	Skipped           uint64        `json:"skipped"`
	Failed            uint64        `json:"failed"`
	Rollbacks         uint64        `json:"rollbacks"`
	CeilingViolations uint64        `json:"ceiling_violations"`
	MaxPhaseTime      time.Duration `json:"max_phase_ns"`
	AvgPhaseTime      time.Duration `json:"avg_phase_ns"`
}
