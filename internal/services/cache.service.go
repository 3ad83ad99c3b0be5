package services

import (
	"fmt"
	"sync"
	"time"

	"fastpath/internal/models"
)

// StatusCache holds a cached optimization snapshot with TTL so the
// websocket broadcast loop does not rebuild it on every tick
type StatusCache struct {
	mu          sync.RWMutex
	engine      *PatchEngine
	statusCache *models.OptimizationStatus
	cacheTime   time.Time
	ttl         time.Duration
}

var statusCache = &StatusCache{
	ttl: 1 * time.Second,
}

// InitStatusCache wires the snapshot source. Must run before
// GetCachedStatus is called.
func InitStatusCache(engine *PatchEngine) {
	statusCache.mu.Lock()
	defer statusCache.mu.Unlock()
	statusCache.engine = engine
	statusCache.statusCache = nil
}

// SetStatusCacheTTL sets the cache time-to-live
func SetStatusCacheTTL(duration time.Duration) {
	statusCache.mu.Lock()
	defer statusCache.mu.Unlock()
	statusCache.ttl = duration
}

func (sc *StatusCache) isCacheValid() bool {
	return time.Since(sc.cacheTime) < sc.ttl
}

// GetCachedStatus returns the cached snapshot if still valid, otherwise
// builds a fresh one
func GetCachedStatus() (*models.OptimizationStatus, error) {
	statusCache.mu.RLock()
	if statusCache.isCacheValid() && statusCache.statusCache != nil {
		defer statusCache.mu.RUnlock()
		return statusCache.statusCache, nil
	}
	statusCache.mu.RUnlock()

	status, err := BuildStatus()
	if err != nil {
		return nil, err
	}

	statusCache.mu.Lock()
	statusCache.statusCache = status
	statusCache.cacheTime = time.Now()
	statusCache.mu.Unlock()

	return status, nil
}

// BuildStatus assembles a fresh optimization snapshot from the live
// engine and qualification history
func BuildStatus() (*models.OptimizationStatus, error) {
	statusCache.mu.RLock()
	engine := statusCache.engine
	statusCache.mu.RUnlock()

	if engine == nil {
		return nil, fmt.Errorf("status cache not initialized")
	}

	stats := engine.Stats()
	return &models.OptimizationStatus{
		Profile: CurrentProfile(),
		Sites:   engine.Statuses(),
		Stats:   &stats,
		Summary: LatestSummary(),
	}, nil
}

// ClearStatusCache clears the cached snapshot
func ClearStatusCache() {
	statusCache.mu.Lock()
	defer statusCache.mu.Unlock()
	statusCache.statusCache = nil
}
