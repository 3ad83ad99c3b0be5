package services

import (
	"log"
	"time"

	"fastpath/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Measurement runs above this host utilization get a warning log; the
// trimmed means can still drift under contention.
const hostLoadWarnPercent = 80.0

// GetHostLoad samples current host utilization
func GetHostLoad() (*models.HostLoad, error) {
	percentage, err := cpu.Percent(0, false)
	if err != nil {
		return nil, err
	}

	perCore, err := cpu.Percent(0, true)
	if err != nil {
		log.Printf("Warning: Could not get per-core CPU usage: %v", err)
		perCore = nil
	}

	coreCount, err := cpu.Counts(true)
	if err != nil {
		log.Printf("Warning: Could not get CPU core count: %v", err)
		coreCount = 0
	}

	virtualMemory, err := mem.VirtualMemory()
	memUsed := 0.0
	if err != nil {
		log.Printf("Warning: Could not get memory usage: %v", err)
	} else {
		memUsed = virtualMemory.UsedPercent
	}

	return &models.HostLoad{
		CPUPercent:        percentage[0],
		PerCore:           perCore,
		CoreCount:         coreCount,
		MemoryUsedPercent: memUsed,
		SampledAt:         time.Now(),
	}, nil
}

// SampleHostLoad returns the host CPU utilization, logging when the host
// is busy enough to distort timing runs. Returns 0 when sampling fails.
func SampleHostLoad() float64 {
	load, err := GetHostLoad()
	if err != nil {
		log.Printf("Warning: host load sampling failed: %v", err)
		return 0
	}
	if load.CPUPercent > hostLoadWarnPercent {
		log.Printf("[HARNESS] Host CPU at %.1f%%, measurements may be noisy", load.CPUPercent)
	}
	return load.CPUPercent
}
