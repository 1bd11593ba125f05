package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/Tharun-raj-u/WebScrapper/client"
	"github.com/Tharun-raj-u/WebScrapper/models"
	"github.com/Tharun-raj-u/WebScrapper/session"
)

// Health returns a handler for GET /api/v1/health.
func Health(store *session.Store, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   "healthy",
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Version:  client.Version,
			Sessions: store.Len(),
		})
	}
}
