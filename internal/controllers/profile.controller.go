package controllers

import (
	"net/http"

	"fastpath/internal/services"

	"github.com/gin-gonic/gin"
)

// GetProfile returns the detected capability profile
func GetProfile(c *gin.Context) {
	profile := services.CurrentProfile()
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "capability profile not initialized"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetStatus returns the combined optimization snapshot
func GetStatus(c *gin.Context) {
	status, err := services.GetCachedStatus()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetHostLoad returns current host utilization
func GetHostLoad(c *gin.Context) {
	load, err := services.GetHostLoad()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, load)
}
