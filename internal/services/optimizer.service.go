package services

import (
	"fmt"
	"log"
	"time"
)

// Optimizer bundles the patch pipeline: catalog, engine, facade and
// harness, built once at startup
type Optimizer struct {
	Catalog *PatchCatalog
	Engine  *PatchEngine
	Facade  *OptimizationFacade
	Harness *ValidationHarness
}

var optimizer *Optimizer

// InitOptimizer builds the default catalog, the patch engine for the
// detected profile and the dispatch facade. InitProfile must have run
// first.
func InitOptimizer(maxSiteBytes int, phaseCeiling time.Duration, outlierFraction, minImprovementPercent float64) (*Optimizer, error) {
	profile := CurrentProfile()
	if profile == nil {
		return nil, fmt.Errorf("capability profile not initialized")
	}

	catalog, err := BuildDefaultCatalog(maxSiteBytes)
	if err != nil {
		return nil, fmt.Errorf("building patch catalog: %w", err)
	}

	engine := NewPatchEngine(catalog, profile, phaseCeiling)
	engine.SetRecordSink(AddRecord)

	optimizer = &Optimizer{
		Catalog: catalog,
		Engine:  engine,
		Facade:  NewOptimizationFacade(engine),
		Harness: NewValidationHarness(SystemTimer(), outlierFraction, minImprovementPercent),
	}

	InitStatusCache(engine)

	log.Printf("[ENGINE] Optimizer ready: %d sites, tier %s, phase ceiling %v",
		len(catalog.Sites()), profile.TierName, phaseCeiling)

	return optimizer, nil
}

// GetOptimizer returns the initialized optimizer
func GetOptimizer() *Optimizer {
	return optimizer
}

// ShutdownOptimizer rolls every patched site back to its baseline and
// stops the background runner
func ShutdownOptimizer() {
	StopQualificationRunner()
	if optimizer == nil {
		return
	}
	if err := optimizer.Engine.RollbackAll(); err != nil {
		log.Printf("[ENGINE] Shutdown rollback sweep: %v", err)
	}
	optimizer = nil
}
