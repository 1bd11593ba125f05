package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/Tharun-raj-u/WebScrapper/api/middleware"
	"github.com/Tharun-raj-u/WebScrapper/exporter"
	"github.com/Tharun-raj-u/WebScrapper/models"
)

// Download returns a handler for GET /download and GET /api/v1/export.
//
// The held result is sent as an attachment named scraped-<date>.json;
// 404 when the session holds no result.
func Download(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := exporter.ExportJSON(middleware.Controller(c).Result(), now())
		if errors.Is(err, exporter.ErrNoResult) {
			respondError(c, http.StatusNotFound, models.ErrCodeNoResult, "there is no result to download")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, models.ErrCodeInternal, err.Error())
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.Filename))
		c.Data(http.StatusOK, a.ContentType, a.Body)
	}
}
