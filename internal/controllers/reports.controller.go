package controllers

import (
	"net/http"
	"strconv"
	"time"

	"fastpath/internal/services"

	"github.com/gin-gonic/gin"
)

// GetLatestReport returns the most recent qualification summary
func GetLatestReport(c *gin.Context) {
	summary := services.LatestSummary()
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no qualification run recorded yet"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetTargetStatus reports whether the named operation met its improvement target
func GetTargetStatus(c *gin.Context) {
	operation := c.Param("operation")
	met, known := services.TargetMet(operation)
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "operation not measured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"operation":  operation,
		"target_met": met,
	})
}

// GetHistory returns the patch records and improvement points in a window
// Query params: duration=5m|10m|1h|24h (default: 10m)
func GetHistory(c *gin.Context) {
	durationStr := c.DefaultQuery("duration", "10m")

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration format"})
		return
	}

	window := services.GetHistoricalData(duration)
	c.JSON(http.StatusOK, gin.H{
		"duration": durationStr,
		"data":     window,
	})
}

// RunQualification triggers a synchronous qualification pass
// Query params: iterations (default: 1000, capped at 100000)
func RunQualification(c *gin.Context) {
	opt := services.GetOptimizer()
	if opt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}

	iterations := 1000
	if raw := c.Query("iterations"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "iterations must be between 1 and 100000"})
			return
		}
		iterations = parsed
	}

	load := services.SampleHostLoad()
	summary := opt.Harness.RunSuite(opt.Facade.QualificationCases(), iterations)
	summary.HostLoadPercent = load
	services.AddSummary(summary)

	c.JSON(http.StatusOK, summary)
}
