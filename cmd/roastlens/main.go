package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roastlens/roastlens/internal/cache"
	"github.com/roastlens/roastlens/internal/config"
	"github.com/roastlens/roastlens/internal/enrich"
	"github.com/roastlens/roastlens/internal/fetcher"
	"github.com/roastlens/roastlens/internal/pipeline"
	"github.com/roastlens/roastlens/internal/platform"
	"github.com/roastlens/roastlens/internal/store"
	"github.com/roastlens/roastlens/internal/sync"
	"github.com/roastlens/roastlens/internal/types"
)

var (
	cfgFile    string
	verbose    bool
	concurrent int
	limit      int
	storeType  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "roastlens",
		Short: "RoastLens — coffee roaster commerce extraction and sync",
		Long: `RoastLens scrapes coffee roaster storefronts, classifies their
e-commerce platform, extracts product attributes and prices with
per-field confidence, and syncs the results into the record store.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&storeType, "store", "", "record store backend: mongo or memory")

	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(roasterCmd())
	rootCmd.AddCommand(productsCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// detectCmd classifies the platform behind a storefront URL.
func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <url>",
		Short: "Detect the e-commerce platform serving a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateURL(args[0]); err != nil {
				return fmt.Errorf("invalid URL %q: %w", args[0], err)
			}
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := signalContext()
			plat, conf, err := runner.DetectPlatform(ctx, args[0])
			if err != nil {
				return fmt.Errorf("detect platform: %w", err)
			}
			fmt.Printf("%s (confidence %d)\n", plat, conf)
			return nil
		},
	}
}

// roasterCmd scrapes and syncs a single roaster entity.
func roasterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roaster <name> <url>",
		Short: "Scrape one roaster's details and sync them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateURL(args[1]); err != nil {
				return fmt.Errorf("invalid URL %q: %w", args[1], err)
			}
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			site := types.Site{Name: args[0], BaseURL: args[1]}
			m, err := runner.ProcessMerchant(signalContext(), &site)
			if err != nil {
				return fmt.Errorf("process roaster: %w", err)
			}
			fmt.Printf("synced roaster %s (id %s, platform %s)\n", m.Name, m.ID, m.Platform)
			return nil
		},
	}
}

// productsCmd runs the full pipeline for one site.
func productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products <name> <url>",
		Short: "Scrape a site's products and sync them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateURL(args[1]); err != nil {
				return fmt.Errorf("invalid URL %q: %w", args[1], err)
			}
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := runner.ProcessSite(signalContext(), types.Site{Name: args[0], BaseURL: args[1]})
			if err != nil {
				return fmt.Errorf("process site: %w", err)
			}
			fmt.Printf("synced %d products for %s (%d enriched, %d failed)\n",
				len(res.Products), args[0], res.Enriched, len(res.ProductErrors))
			for _, pe := range res.ProductErrors {
				fmt.Printf("  failed: %s\n", pe)
			}
			return nil
		},
	}
}

// batchCmd processes a CSV of sites with bounded concurrency.
func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <csv>",
		Short: "Process a CSV of name,url sites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := pipeline.LoadSitesCSV(args[0], limit)
			if err != nil {
				return err
			}
			if len(sites) == 0 {
				return fmt.Errorf("no sites in %s", args[0])
			}

			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			start := time.Now()
			results, failed := runner.ProcessBatch(signalContext(), sites)

			fmt.Printf("\nbatch complete in %s: %d succeeded, %d failed\n",
				time.Since(start).Round(time.Millisecond), len(results), len(failed))
			for _, f := range failed {
				fmt.Printf("  failed: %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "worker count (0 = config default)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "process at most N sites (0 = all)")
	return cmd
}

// cacheCmd clears cached pages and records.
func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the scrape cache",
	}

	var namespace string
	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(&cfg.Logging)
			c, err := cache.New(&cfg.Cache, logger)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			removed := c.Clear(cache.Namespace(namespace), "")
			fmt.Printf("removed %d cache entries\n", removed)
			return nil
		},
	}
	clear.Flags().StringVar(&namespace, "namespace", "", "pages, merchants or products (empty = all)")

	cmd.AddCommand(clear)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("RoastLens %s\n", config.Version)
		},
	}
}

// configCmd prints the effective configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Scraper:\n")
			fmt.Printf("  Concurrency:         %d\n", cfg.Scraper.Concurrency)
			fmt.Printf("  Max Retries:         %d\n", cfg.Scraper.MaxRetries)
			fmt.Printf("  Backoff Base:        %s\n", cfg.Scraper.BackoffBase)
			fmt.Printf("  Request Timeout:     %s\n", cfg.Scraper.RequestTimeout)
			fmt.Printf("  Requests Per Second: %.1f\n", cfg.Scraper.RequestsPerSecond)
			fmt.Printf("\nCache:\n")
			fmt.Printf("  Dir:                 %s\n", cfg.Cache.Dir)
			fmt.Printf("  Page TTL:            %d days\n", cfg.Cache.PageTTLDays)
			fmt.Printf("  Merchant TTL:        %d days\n", cfg.Cache.MerchantTTLDays)
			fmt.Printf("  Product TTL:         %d days\n", cfg.Cache.ProductTTLDays)
			fmt.Printf("\nStore:\n")
			fmt.Printf("  Type:                %s\n", cfg.Store.Type)
			fmt.Printf("  Database:            %s\n", cfg.Store.Database)
			fmt.Printf("\nEnrichment:\n")
			fmt.Printf("  Enabled:             %v\n", cfg.Enrichment.APIKey != "")
			fmt.Printf("  Model:               %s\n", cfg.Enrichment.Model)
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if storeType != "" {
		cfg.Store.Type = storeType
	}
	if concurrent > 0 {
		cfg.Scraper.Concurrency = concurrent
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildRunner wires up the pipeline. Store and configuration failures
// here are the only fatal errors; everything downstream is contained
// per item.
func buildRunner() (*pipeline.Runner, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := setupLogger(&cfg.Logging)

	ch, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}

	var st store.Store
	switch cfg.Store.Type {
	case "memory":
		st = store.NewMemoryStore()
	default:
		st, err = store.NewMongoStore(cfg.Store.URI, cfg.Store.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect store: %w", err)
		}
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}

	runner := pipeline.New(
		cfg,
		fetcher.New(&cfg.Scraper, logger),
		ch,
		platform.NewClassifier(logger),
		enrich.NewClient(cfg.Enrichment, logger),
		sync.New(st, logger),
		nil,
		logger,
	)
	return runner, cleanup, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
