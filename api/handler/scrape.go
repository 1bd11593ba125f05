package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Tharun-raj-u/WebScrapper/api/middleware"
	"github.com/Tharun-raj-u/WebScrapper/controller"
	"github.com/Tharun-raj-u/WebScrapper/models"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Scrape failures are not HTTP failures here: the response is 200 with
// state "failed" and the normalized message. Only problems with the local
// call itself (bad JSON, busy) use error statuses.
func Scrape() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.APISubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, models.ErrCodeInvalidInput, err.Error())
			return
		}

		ctrl := middleware.Controller(c)
		snap, err := ctrl.Submit(context.WithoutCancel(c.Request.Context()), req.URL, req.MaxPagesText())
		if errors.Is(err, controller.ErrBusy) {
			respondError(c, http.StatusConflict, models.ErrCodeBusy, "a scrape is already in progress")
			return
		}

		c.JSON(http.StatusOK, snap.ToResponse())
	}
}

// State returns a handler for GET /api/v1/state.
func State() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.Controller(c).Snapshot().ToResponse())
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.APIResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: code, Message: message},
	})
}
