package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Tharun-raj-u/WebScrapper/client"
	"github.com/Tharun-raj-u/WebScrapper/config"
	"github.com/Tharun-raj-u/WebScrapper/controller"
	"github.com/Tharun-raj-u/WebScrapper/exporter"
	"github.com/Tharun-raj-u/WebScrapper/logging"
	"github.com/Tharun-raj-u/WebScrapper/models"
)

func main() {
	cfg := config.Load()

	// stdout carries the MCP protocol; logs go to stderr.
	logger, logCloser := logging.Init(cfg.Log, os.Stderr)
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// One stdio connection is one session: a single controller.
	ctrl := controller.New(client.New(cfg.Remote, client.WithLogger(logger)),
		controller.WithTimeout(cfg.Remote.RequestTimeout),
		controller.WithLogger(logger),
	)

	s := newServer(ctrl, cfg.Export.Dir, time.Now)

	slog.Info("webscrapper-mcp serving on stdio", "endpoint", cfg.Remote.Endpoint)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(ctrl *controller.Controller, exportDir string, now func() time.Time) *server.MCPServer {
	s := server.NewMCPServer(
		"webscrapper",
		client.Version,
		server.WithToolCapabilities(false),
	)

	scrapeSiteTool := mcp.NewTool("scrape_site",
		mcp.WithDescription("Scrape a public website through the remote scraping service and return its pages as structured JSON."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the website to scrape"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Maximum number of pages to scrape (1-5, default: 5)"),
			mcp.Min(models.MinMaxPages),
			mcp.Max(models.MaxMaxPages),
		),
	)
	s.AddTool(scrapeSiteTool, handleScrapeSite(ctrl))

	getStateTool := mcp.NewTool("get_state",
		mcp.WithDescription("Report the state of the most recent scrape: idle, submitting, succeeded or failed."),
	)
	s.AddTool(getStateTool, handleGetState(ctrl))

	exportTool := mcp.NewTool("export_result",
		mcp.WithDescription("Write the most recent successful scrape result to scraped-<YYYY-MM-DD>.json and return the file path."),
		mcp.WithString("dir",
			mcp.Description("Directory to write into (default: the configured export directory)"),
		),
	)
	s.AddTool(exportTool, handleExportResult(ctrl, exportDir, now))

	return s
}

func handleScrapeSite(ctrl *controller.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url := request.GetString("url", "")
		maxPages := int(request.GetFloat("max_pages", models.DefaultMaxPages))

		snap, err := ctrl.Submit(ctx, url, strconv.Itoa(maxPages))
		if errors.Is(err, controller.ErrBusy) {
			return mcp.NewToolResultError("a scrape is already in progress"), nil
		}
		if snap.Error != "" {
			return mcp.NewToolResultError(snap.Error), nil
		}

		return mcp.NewToolResultText(formatResult(snap.Result)), nil
	}
}

func handleGetState(ctrl *controller.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap := ctrl.Snapshot()
		text := "State: " + snap.State.String()
		if snap.Request.URL != "" {
			text += fmt.Sprintf("\nURL: %s (max %d pages)", snap.Request.URL, snap.Request.MaxPages)
		}
		switch {
		case snap.Error != "":
			text += "\nError: " + snap.Error
		case snap.Result != nil:
			text += fmt.Sprintf("\nResult: %s, %d pages", snap.Result.DisplayTitle(), snap.Result.PageCount())
		}
		return mcp.NewToolResultText(text), nil
	}
}

func handleExportResult(ctrl *controller.Controller, exportDir string, now func() time.Time) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir := request.GetString("dir", exportDir)

		a, err := exporter.ExportJSON(ctrl.Result(), now())
		if errors.Is(err, exporter.ErrNoResult) {
			return mcp.NewToolResultError("there is no result to export; run scrape_site first"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		path, err := exporter.NewDirSaver(dir).Save(a)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("Exported to " + path), nil
	}
}

// formatResult renders a summary header followed by the pretty JSON.
func formatResult(r *models.ScrapeResult) string {
	a := exporter.MustExportJSON(r, time.Now())
	header := fmt.Sprintf("Title: %s\nBase URL: %s\nPages: %d\n\n", r.DisplayTitle(), r.BaseURL, r.PageCount())
	return header + string(a.Body)
}
