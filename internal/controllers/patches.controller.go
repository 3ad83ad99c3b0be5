package controllers

import (
	"errors"
	"net/http"

	"fastpath/internal/services"

	"github.com/gin-gonic/gin"
)

func applyErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownSite):
		return http.StatusNotFound
	case errors.Is(err, services.ErrCapabilityMismatch):
		return http.StatusConflict
	case errors.Is(err, services.ErrSiteQuarantined):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ListSites returns the status of every patch site
func ListSites(c *gin.Context) {
	opt := services.GetOptimizer()
	if opt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": opt.Engine.Statuses()})
}

// GetSite returns the status of one patch site
func GetSite(c *gin.Context) {
	opt := services.GetOptimizer()
	if opt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}

	id := c.Param("id")
	for _, status := range opt.Engine.Statuses() {
		if status.ID == id {
			c.JSON(http.StatusOK, status)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown site"})
}

// ApplySite patches one site to the best supported variant
func ApplySite(c *gin.Context) {
	opt := services.GetOptimizer()
	if opt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}

	rec, err := opt.Engine.Apply(c.Param("id"))
	if err != nil {
		payload := gin.H{"error": err.Error()}
		if rec != nil {
			payload["record"] = rec
		}
		c.JSON(applyErrorStatus(err), payload)
		return
	}
	services.ClearStatusCache()
	c.JSON(http.StatusOK, rec)
}

// RollbackSite restores one site's baseline encoding
func RollbackSite(c *gin.Context) {
	opt := services.GetOptimizer()
	if opt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}

	rec, err := opt.Engine.Rollback(c.Param("id"))
	if err != nil {
		payload := gin.H{"error": err.Error()}
		if rec != nil {
			payload["record"] = rec
		}
		c.JSON(applyErrorStatus(err), payload)
		return
	}
	services.ClearStatusCache()
	c.JSON(http.StatusOK, rec)
}

// RollbackAllSites restores every site's baseline encoding
func RollbackAllSites(c *gin.Context) {
	opt := services.GetOptimizer()
	if opt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}

	if err := opt.Engine.RollbackAll(); err != nil {
		c.JSON(applyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	services.ClearStatusCache()
	c.JSON(http.StatusOK, gin.H{"rolled_back": true})
}

// ResetSite clears a quarantined site after operator intervention
func ResetSite(c *gin.Context) {
	opt := services.GetOptimizer()
	if opt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}

	if err := opt.Engine.Reset(c.Param("id")); err != nil {
		c.JSON(applyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	services.ClearStatusCache()
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

// GetRecords returns the engine's audit trail
func GetRecords(c *gin.Context) {
	opt := services.GetOptimizer()
	if opt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": opt.Engine.Records()})
}

// GetStats returns the engine's patch counters
func GetStats(c *gin.Context) {
	opt := services.GetOptimizer()
	if opt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}
	c.JSON(http.StatusOK, opt.Engine.Stats())
}
