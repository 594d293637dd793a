package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pastpapers/models"
)

// Version is reported by the health endpoint and the CLI.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status is "busy" while a download run holds the browser.
func Health(runner Runner, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		running := runner != nil && runner.Running()

		status := "healthy"
		if running {
			status = "busy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Running: running,
			Version: Version,
		})
	}
}
