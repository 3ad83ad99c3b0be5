package services

import (
	"log"
	"sync"
	"time"
)

// QualificationRunner re-measures the data-path operations on a schedule
// so drift (thermal, host load) shows up in the history window
type QualificationRunner struct {
	mu         sync.Mutex
	harness    *ValidationHarness
	facade     *OptimizationFacade
	iterations int
	running    bool
	stop       chan struct{}
}

var qualRunner = &QualificationRunner{}

// StartQualificationRunner runs one qualification pass immediately, then
// repeats on the given interval
func StartQualificationRunner(harness *ValidationHarness, facade *OptimizationFacade, iterations int, interval time.Duration) {
	qualRunner.mu.Lock()
	if qualRunner.running {
		qualRunner.mu.Unlock()
		return
	}
	qualRunner.harness = harness
	qualRunner.facade = facade
	qualRunner.iterations = iterations
	qualRunner.running = true
	qualRunner.stop = make(chan struct{})
	stop := qualRunner.stop
	qualRunner.mu.Unlock()

	go func() {
		qualRunner.runOnce()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				qualRunner.runOnce()
			}
		}
	}()

	log.Printf("Qualification runner started (interval: %v, iterations: %d)", interval, iterations)
}

// StopQualificationRunner stops the background runner
func StopQualificationRunner() {
	qualRunner.mu.Lock()
	defer qualRunner.mu.Unlock()
	if !qualRunner.running {
		return
	}
	qualRunner.running = false
	close(qualRunner.stop)
	log.Println("Qualification runner stopped")
}

func (qr *QualificationRunner) runOnce() {
	qr.mu.Lock()
	harness, facade, iterations := qr.harness, qr.facade, qr.iterations
	qr.mu.Unlock()
	if harness == nil || facade == nil {
		return
	}

	load := SampleHostLoad()
	summary := harness.RunSuite(facade.QualificationCases(), iterations)
	summary.HostLoadPercent = load
	AddSummary(summary)
}
