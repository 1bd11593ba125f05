package api

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/Tharun-raj-u/WebScrapper/api/handler"
	"github.com/Tharun-raj-u/WebScrapper/api/middleware"
	"github.com/Tharun-raj-u/WebScrapper/config"
	"github.com/Tharun-raj-u/WebScrapper/session"
)

//go:embed templates/*.html
var templates embed.FS

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	UI:      Session → RateLimit (submit only)
//	API:     Auth (if enabled) → Session → RateLimit (submit only)
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(store *session.Store, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.html")))

	limit := middleware.RateLimit(cfg.RateLimit, store.Done())
	sessions := middleware.Session(store)

	// Browser UI.
	ui := r.Group("", sessions)
	ui.GET("/", handler.Index())
	ui.POST("/scrape", limit, handler.SubmitForm(store))
	ui.GET("/download", handler.Download(time.Now))

	v1 := r.Group("/api/v1")

	// Health needs no auth.
	v1.GET("/health", handler.Health(store, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(sessions)

	protected.POST("/scrape", limit, handler.Scrape())
	protected.GET("/state", handler.State())
	protected.GET("/export", handler.Download(time.Now))

	return r
}
