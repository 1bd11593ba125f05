package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/Tharun-raj-u/WebScrapper/api/middleware"
	"github.com/Tharun-raj-u/WebScrapper/controller"
	"github.com/Tharun-raj-u/WebScrapper/exporter"
	"github.com/Tharun-raj-u/WebScrapper/models"
	"github.com/Tharun-raj-u/WebScrapper/session"
)

// IndexTemplate is the template name rendered for the UI.
const IndexTemplate = "index.html"

const busyNotice = "A scrape is already in progress. Please wait for it to finish."

type pageOption struct {
	Value    int
	Label    string
	Selected bool
}

type resultView struct {
	Title     string
	BaseURL   string
	PageCount int
	JSON      string
}

type pageView struct {
	URL     string
	Options []pageOption
	Busy    bool
	Notice  string
	Error   string
	Result  *resultView
}

// Index returns a handler for GET /.
func Index() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := middleware.Controller(c).Snapshot()
		c.HTML(http.StatusOK, IndexTemplate, newPageView(snap, ""))
	}
}

// SubmitForm returns a handler for POST /scrape.
//
// The Submitting state is claimed before responding and the scrape runs in
// the background, so the redirect target shows the progress view. The
// scrape runs to completion even if the browser goes away.
func SubmitForm(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form models.SubmitForm
		if err := c.ShouldBind(&form); err != nil {
			c.HTML(http.StatusBadRequest, IndexTemplate, pageView{
				Options: pageOptions(models.DefaultMaxPages),
				Error:   err.Error(),
			})
			return
		}

		ctrl := middleware.Controller(c)
		snap, finish, err := ctrl.Start(models.ScrapeRequest{
			URL:      form.URL,
			MaxPages: controller.ParseMaxPages(form.MaxPages),
		})
		if errors.Is(err, controller.ErrBusy) {
			c.HTML(http.StatusConflict, IndexTemplate, newPageView(snap, busyNotice))
			return
		}

		ctx := context.WithoutCancel(c.Request.Context())
		store.Go(func() { finish(ctx) })

		c.Redirect(http.StatusSeeOther, "/")
	}
}

func newPageView(snap models.Snapshot, notice string) pageView {
	maxPages := snap.Request.MaxPages
	if maxPages < models.MinMaxPages || maxPages > models.MaxMaxPages {
		maxPages = models.DefaultMaxPages
	}

	v := pageView{
		URL:     snap.Request.URL,
		Options: pageOptions(maxPages),
		Busy:    snap.Busy(),
		Notice:  notice,
		Error:   snap.Error,
	}
	if snap.Result != nil && !snap.Busy() {
		v.Result = &resultView{
			Title:     snap.Result.DisplayTitle(),
			BaseURL:   snap.Result.BaseURL,
			PageCount: snap.Result.PageCount(),
			JSON:      string(exporter.MustExportJSON(snap.Result, time.Now()).Body),
		}
	}
	return v
}

func pageOptions(selected int) []pageOption {
	opts := make([]pageOption, 0, models.MaxMaxPages)
	for n := models.MinMaxPages; n <= models.MaxMaxPages; n++ {
		label := strconv.Itoa(n) + " pages"
		if n == 1 {
			label = "1 page"
		}
		opts = append(opts, pageOption{Value: n, Label: label, Selected: n == selected})
	}
	return opts
}
