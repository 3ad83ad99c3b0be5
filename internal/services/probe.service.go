package services

import (
	"fmt"
	"log"
	"runtime"
	"sync"

	"fastpath/internal/models"

	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/cpu"
)

// CapabilitySource supplies raw processor capability signals. Each probe
// must be safe to call regardless of what the processor actually supports;
// a missing capability reads as false, never as a fault.
type CapabilitySource interface {
	Generation() models.Tier
	HasWidePushPop() bool
	Has32BitOps() bool
	HasByteSwap() bool
	HasModelQuery() bool
	HasInternalCache() bool
	VendorTag() string
}

// DetectProfile runs the ordered capability probe against a source.
// Tests run weakest assumption first; a capability is only probed once the
// tier that introduced it has been confirmed, so no probe can observe a
// processor it would not run on.
func DetectProfile(source CapabilitySource) *models.CPUProfile {
	profile := &models.CPUProfile{
		Features: models.FeatureSet{},
	}

	profile.Tier = source.Generation()
	profile.TierName = profile.Tier.String()

	if profile.Tier >= models.Tier80186 && source.HasWidePushPop() {
		profile.Features[models.FeatureWidePushPop] = true
	}
	if profile.Tier >= models.Tier80386 && source.Has32BitOps() {
		profile.Features[models.Feature32BitOps] = true
	}
	if profile.Tier >= models.Tier80486 && source.HasByteSwap() {
		profile.Features[models.FeatureByteSwap] = true
	}
	if source.HasModelQuery() {
		profile.Features[models.FeatureModelQuery] = true
		profile.VendorTag = source.VendorTag()
	}
	if source.HasInternalCache() {
		profile.Features[models.FeatureCache] = true
	}

	profile.Flags = profile.Features.Names()
	return profile
}

// HostSource reads capabilities from the processor the service runs on.
// Anything that can execute this binary sits at the top tier; the per-feature
// probes still go through the detection path so simulated sources and the
// host share one code path.
type HostSource struct{}

func (HostSource) Generation() models.Tier { return models.TierCPUID }

func (HostSource) HasWidePushPop() bool { return true }

func (HostSource) Has32BitOps() bool { return true }

func (HostSource) HasByteSwap() bool { return true }

func (HostSource) HasModelQuery() bool {
	return cpuid.CPU.VendorString != "" || cpuid.CPU.BrandName != ""
}

func (HostSource) HasInternalCache() bool {
	return cpuid.CPU.Cache.L1D > 0 || cpuid.CPU.Cache.L2 > 0
}

func (HostSource) VendorTag() string { return cpuid.CPU.VendorString }

var (
	profileMu  sync.RWMutex
	cpuProfile *models.CPUProfile
)

// InitProfile probes the capability source once and pins the result as the
// process-wide profile. Calling it again without a teardown is an error;
// the profile is never re-probed at steady state.
func InitProfile(source CapabilitySource) (*models.CPUProfile, error) {
	profileMu.Lock()
	defer profileMu.Unlock()

	if cpuProfile != nil {
		return nil, fmt.Errorf("capability profile already initialized")
	}

	profile := DetectProfile(source)

	// Enrich the snapshot with host identity where the OS can provide it.
	// Best effort only: detection is already complete at this point.
	if _, isHost := source.(HostSource); isHost {
		if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
			profile.ModelName = infos[0].ModelName
			profile.MHz = infos[0].Mhz
		}
		if count, err := cpu.Counts(true); err == nil {
			profile.Cores = count
		}
	}

	cpuProfile = profile
	log.Printf("[PROBE] CPU: %s vendor=%q arch=%s features=%v",
		profile.TierName, profile.VendorTag, runtime.GOARCH, profile.Flags)

	return profile, nil
}

// CurrentProfile returns the process-wide profile, nil before InitProfile
func CurrentProfile() *models.CPUProfile {
	profileMu.RLock()
	defer profileMu.RUnlock()
	return cpuProfile
}

// TeardownProfile clears the process-wide profile. Intended for shutdown
// and tests; nothing may apply patches after it runs.
func TeardownProfile() {
	profileMu.Lock()
	defer profileMu.Unlock()
	cpuProfile = nil
}
