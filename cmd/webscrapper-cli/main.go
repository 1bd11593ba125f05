package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tharun-raj-u/WebScrapper/client"
	"github.com/Tharun-raj-u/WebScrapper/config"
	"github.com/Tharun-raj-u/WebScrapper/controller"
	"github.com/Tharun-raj-u/WebScrapper/exporter"
	"github.com/Tharun-raj-u/WebScrapper/logging"
	"github.com/Tharun-raj-u/WebScrapper/models"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(config.Load()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds a fresh command tree so flags never leak between runs.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "webscrapper-cli",
		Short:         "Submit a site to the remote scraping service and export the result.",
		Version:       client.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	root.AddCommand(newScrapeCommand(cfg))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), client.Version)
		},
	})
	return root
}

type scrapeOptions struct {
	url      string
	maxPages int
	out      string
	print    bool
	endpoint string
	timeout  time.Duration
}

func newScrapeCommand(cfg *config.Config) *cobra.Command {
	opts := scrapeOptions{
		maxPages: models.DefaultMaxPages,
		endpoint: cfg.Remote.Endpoint,
		timeout:  cfg.Remote.RequestTimeout,
	}

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape a website and optionally export scraped-<date>.json",
		Example: `  webscrapper-cli scrape --url https://example.com --max-pages 3 --out ./exports
  webscrapper-cli scrape -u https://example.com --print`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.maxPages < models.MinMaxPages || opts.maxPages > models.MaxMaxPages {
				return fmt.Errorf("--max-pages must be between %d and %d", models.MinMaxPages, models.MaxMaxPages)
			}
			return opts.remote(cfg.Remote).Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runScrape(cmd.Context(), cfg, opts, cmd.OutOrStdout())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.url, "url", "u", "", "website URL to scrape")
	f.IntVarP(&opts.maxPages, "max-pages", "p", opts.maxPages, "maximum pages to scrape (1-5)")
	f.StringVarP(&opts.out, "out", "o", "", "directory to write scraped-<date>.json into")
	f.BoolVar(&opts.print, "print", false, "print the full result JSON")
	f.StringVar(&opts.endpoint, "endpoint", opts.endpoint, "remote scrape endpoint")
	f.DurationVar(&opts.timeout, "timeout", opts.timeout, "request timeout (0 waits indefinitely)")
	return cmd
}

// remote applies the flag overrides to the configured remote settings.
func (o scrapeOptions) remote(base config.RemoteConfig) config.RemoteConfig {
	base.Endpoint = o.endpoint
	base.RequestTimeout = o.timeout
	return base
}

func runScrape(ctx context.Context, cfg *config.Config, opts scrapeOptions, out io.Writer) error {
	logger, logCloser := logging.Init(cfg.Log, io.Discard)
	defer logCloser.Close()

	ctrl := controller.New(client.New(opts.remote(cfg.Remote), client.WithLogger(logger)),
		controller.WithTimeout(opts.timeout),
		controller.WithLogger(logger),
	)

	fmt.Fprintln(out, "Scraping website content... This may take a few moments.")
	snap, err := ctrl.Submit(ctx, opts.url, strconv.Itoa(opts.maxPages))
	if err != nil {
		return err
	}
	if snap.Error != "" {
		return fmt.Errorf("%s", snap.Error)
	}

	r := snap.Result
	fmt.Fprintf(out, "%s\n%s\n%d pages scraped\n", r.DisplayTitle(), r.BaseURL, r.PageCount())

	if opts.print || opts.out != "" {
		a := exporter.MustExportJSON(r, time.Now())
		if opts.print {
			if _, err := out.Write(a.Body); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
		}
		if opts.out != "" {
			path, err := exporter.NewDirSaver(opts.out).Save(a)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %s\n", path)
		}
	}
	return nil
}
