package services

import (
	"errors"
	"fmt"
	"hash/crc32"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"fastpath/internal/models"

	"github.com/google/uuid"
)

// Engine errors. All but ErrRollbackFailed are recoverable: callers stay on
// the baseline encoding and keep working at unoptimized speed.
var (
	ErrNotInitialized     = errors.New("capability profile not initialized")
	ErrUnknownSite        = errors.New("unknown patch site")
	ErrCapabilityMismatch = errors.New("no variant supported by detected profile")
	ErrChecksumMismatch   = errors.New("post-write checksum verification failed")
	ErrRollbackFailed     = errors.New("rollback verification failed; site integrity lost")
	ErrSiteQuarantined    = errors.New("site quarantined after earlier failure; reset required")
)

// RecordSink receives every audit record the engine appends. Called outside
// the critical phase.
type RecordSink func(models.PatchRecord)

// PatchEngine applies and rolls back site encodings. It is the only writer
// of site regions and site state. The whole apply/rollback protocol runs
// under one lock, so at most one attempt is ever in flight.
type PatchEngine struct {
	mu      sync.Mutex
	catalog *PatchCatalog
	profile *models.CPUProfile
	ceiling time.Duration

	// barrier is bumped immediately after every region write. The store
	// publishes the new bytes before any dispatch decision can observe
	// the bumped generation, standing in for prefetch invalidation.
	barrier atomic.Uint64

	records []models.PatchRecord
	lastOK  map[string]models.PatchRecord // last successful record per site
	stats   models.PatchStats
	sink    RecordSink

	clock      func() time.Time
	afterWrite func(site *models.PatchSite) // test hook between write and verify
}

// NewPatchEngine builds an engine over a sealed catalog. The profile is the
// immutable startup snapshot; a nil profile makes every Apply fail with
// ErrNotInitialized and never touches memory.
func NewPatchEngine(catalog *PatchCatalog, profile *models.CPUProfile, ceiling time.Duration) *PatchEngine {
	return &PatchEngine{
		catalog: catalog,
		profile: profile,
		ceiling: ceiling,
		lastOK:  make(map[string]models.PatchRecord),
		clock:   time.Now,
	}
}

// SetRecordSink wires the structured record sink. Must be called before the
// engine starts applying patches.
func (e *PatchEngine) SetRecordSink(sink RecordSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// selectVariant picks the most capable variant the profile qualifies for
func (e *PatchEngine) selectVariant(site *models.PatchSite) *models.Variant {
	var best *models.Variant
	for i := range site.Variants {
		v := &site.Variants[i]
		if !e.profile.Supports(v.MinTier, v.Requires...) {
			continue
		}
		if best == nil || v.MinTier > best.MinTier {
			best = v
		}
	}
	return best
}

// Apply patches a site to the best variant the profile supports
func (e *PatchEngine) Apply(siteID string) (*models.PatchRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	site, ok := e.catalog.Lookup(siteID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, siteID)
	}
	if e.profile == nil {
		return nil, ErrNotInitialized
	}
	if site.State == models.StateFailed {
		return nil, fmt.Errorf("%w: %q", ErrSiteQuarantined, siteID)
	}

	variant := e.selectVariant(site)
	if variant == nil {
		e.stats.Skipped++
		return nil, fmt.Errorf("%w: site %q on %s", ErrCapabilityMismatch, siteID, e.profile.TierName)
	}

	// Re-applying the active variant is a no-op success
	if site.State == models.StatePatched && site.Applied == variant {
		rec := e.lastOK[siteID]
		return &rec, nil
	}

	rec, err := e.transition(site, variant.Name, variant.MinTier.String(), variant.Code, "patched")
	if err != nil {
		return rec, err
	}

	site.State = models.StatePatched
	site.Applied = variant
	e.stats.Applied++
	log.Printf("[ENGINE] Applied %q to site %q (%v critical phase)", variant.Name, siteID, rec.PhaseTime)
	return rec, nil
}

// Rollback restores a site's baseline encoding
func (e *PatchEngine) Rollback(siteID string) (*models.PatchRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	site, ok := e.catalog.Lookup(siteID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, siteID)
	}
	if site.State == models.StateFailed {
		return nil, fmt.Errorf("%w: %q", ErrSiteQuarantined, siteID)
	}

	rec, err := e.transition(site, "baseline", "", site.Baseline, "rolled_back")
	if err != nil {
		return rec, err
	}

	site.State = models.StateRolledBack
	site.Applied = nil
	e.stats.Rollbacks++
	log.Printf("[ENGINE] Rolled back site %q", siteID)
	return rec, nil
}

// Reset clears a quarantined site by restoring and re-verifying the
// baseline. Until it succeeds the site stays excluded from application.
func (e *PatchEngine) Reset(siteID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	site, ok := e.catalog.Lookup(siteID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSite, siteID)
	}
	if site.State != models.StateFailed {
		return nil
	}

	sum := crc32.ChecksumIEEE(site.Baseline)
	elapsed := e.commit(site.Region, site.Baseline)
	e.observePhase(elapsed)
	if crc32.ChecksumIEEE(site.Region) != sum {
		return fmt.Errorf("%w: %q", ErrRollbackFailed, siteID)
	}

	site.State = models.StateUnpatched
	site.Applied = nil
	e.append(site.ID, "baseline", "", sum, "reset", elapsed)
	log.Printf("[ENGINE] Reset site %q to baseline", siteID)
	return nil
}

// transition runs the shared protocol: precompute outside the critical
// phase, commit, verify, and on verification failure attempt an immediate
// restore of the baseline.
func (e *PatchEngine) transition(site *models.PatchSite, variantName, tierName string, code []byte, outcome string) (*models.PatchRecord, error) {
	// Precompute everything fallible before the phase begins
	sum := crc32.ChecksumIEEE(code)

	elapsed := e.commit(site.Region, code)
	e.observePhase(elapsed)

	if e.afterWrite != nil {
		e.afterWrite(site)
	}

	if crc32.ChecksumIEEE(site.Region) != sum {
		return e.recover(site, elapsed)
	}

	rec := e.append(site.ID, variantName, tierName, sum, outcome, elapsed)
	e.lastOK[site.ID] = rec
	return &rec, nil
}

// commit is the critical phase. It performs exactly the region overwrite
// in a single forward pass and the serializing publish; no branching,
// logging, or allocation is permitted here.
func (e *PatchEngine) commit(region, code []byte) time.Duration {
	start := e.clock()
	copy(region, code)
	e.barrier.Add(1)
	return e.clock().Sub(start)
}

// recover handles a failed verification: quarantine, then try to restore
// the baseline through the same commit/verify protocol.
func (e *PatchEngine) recover(site *models.PatchSite, phase time.Duration) (*models.PatchRecord, error) {
	site.State = models.StateFailed
	site.Applied = nil
	e.stats.Failed++

	baseSum := crc32.ChecksumIEEE(site.Baseline)
	elapsed := e.commit(site.Region, site.Baseline)
	e.observePhase(elapsed)

	if crc32.ChecksumIEEE(site.Region) != baseSum {
		// The region holds neither the variant nor the baseline; code
		// integrity can no longer be asserted for this site.
		e.append(site.ID, "baseline", "", baseSum, "failed", phase+elapsed)
		log.Printf("[ENGINE] FATAL: site %q unrecoverable after checksum mismatch", site.ID)
		return nil, fmt.Errorf("%w: %q", ErrRollbackFailed, site.ID)
	}

	site.State = models.StateRolledBack
	e.stats.Rollbacks++
	rec := e.append(site.ID, "baseline", "", baseSum, "rolled_back", phase+elapsed)
	log.Printf("[ENGINE] Checksum mismatch on site %q; baseline restored", site.ID)
	return &rec, fmt.Errorf("%w: %q", ErrChecksumMismatch, site.ID)
}

func (e *PatchEngine) observePhase(d time.Duration) {
	if d > e.ceiling {
		e.stats.CeilingViolations++
	}
	if d > e.stats.MaxPhaseTime {
		e.stats.MaxPhaseTime = d
	}
	if e.stats.AvgPhaseTime == 0 {
		e.stats.AvgPhaseTime = d
	} else {
		e.stats.AvgPhaseTime = (e.stats.AvgPhaseTime*7 + d) / 8
	}
}

func (e *PatchEngine) append(siteID, variant, tier string, sum uint32, outcome string, phase time.Duration) models.PatchRecord {
	rec := models.PatchRecord{
		ID:         uuid.NewString(),
		SiteID:     siteID,
		Variant:    variant,
		Tier:       tier,
		Checksum:   sum,
		Outcome:    outcome,
		PhaseTime:  phase,
		RecordedAt: e.clock(),
	}
	e.records = append(e.records, rec)
	if e.sink != nil {
		e.sink(rec)
	}
	return rec
}

// Records returns a copy of the full audit history
func (e *PatchEngine) Records() []models.PatchRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.PatchRecord, len(e.records))
	copy(out, e.records)
	return out
}

// Statuses returns the JSON view of every site. Site state is owned by
// the engine, so the snapshot is taken under the engine lock.
func (e *PatchEngine) Statuses() []models.SiteStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	sites := e.catalog.Sites()
	out := make([]models.SiteStatus, 0, len(sites))
	for _, s := range sites {
		st := models.SiteStatus{
			ID:           s.ID,
			State:        s.State.String(),
			Length:       len(s.Baseline),
			VariantCount: len(s.Variants),
			Variants:     s.Variants,
		}
		if s.Applied != nil {
			st.AppliedName = s.Applied.Name
		}
		out = append(out, st)
	}
	return out
}

// Stats returns a snapshot of the aggregate counters
func (e *PatchEngine) Stats() models.PatchStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Generation returns the serialization barrier count, bumped once per
// region write
func (e *PatchEngine) Generation() uint64 {
	return e.barrier.Load()
}

// RollbackAll restores every patched site, used on shutdown. The first
// unrecoverable site aborts the sweep.
func (e *PatchEngine) RollbackAll() error {
	for _, site := range e.catalog.Sites() {
		e.mu.Lock()
		patched := site.State == models.StatePatched
		e.mu.Unlock()
		if !patched {
			continue
		}
		if _, err := e.Rollback(site.ID); err != nil {
			if errors.Is(err, ErrRollbackFailed) {
				return err
			}
			log.Printf("[ENGINE] Shutdown rollback of %q: %v", site.ID, err)
		}
	}
	return nil
}
