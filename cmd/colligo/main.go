package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/crawler"
	"github.com/ternarybob/colligo/internal/services/exporter"
	"github.com/ternarybob/colligo/internal/services/extractor"
	"github.com/ternarybob/colligo/internal/services/pipeline"
	"github.com/ternarybob/colligo/internal/services/renderer"
	"github.com/ternarybob/colligo/internal/services/robots"
	badgerstore "github.com/ternarybob/colligo/internal/storage/badger"
)

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	configPath := flag.String("config", "colligo.toml", "Path to TOML configuration file")
	startURL := flag.String("url", "", "Start URL (overrides config)")
	maxPages := flag.Int("max-pages", 0, "Maximum pages to crawl (overrides config)")
	outPath := flag.String("out", "", "Export path (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(common.GetFullVersion())
		return
	}

	// The default config file is optional; an explicit one must exist
	path := *configPath
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	if !explicit {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *startURL != "" {
		config.Crawler.StartURL = *startURL
	}
	if *maxPages > 0 {
		config.Crawler.MaxPages = *maxPages
	}
	if *outPath != "" {
		config.Export.Path = *outPath
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	common.PrintBanner(common.GetVersion())
	logger := common.InitLogger(config)

	if err := run(config, logger); err != nil {
		logger.Error().Err(err).Msg("Crawl failed")
		os.Exit(1)
	}
}

func run(config *common.Config, logger arbor.ILogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rend, fallback, err := buildRenderers(config, logger)
	if err != nil {
		return err
	}
	defer rend.Close()

	var robotsPolicy interfaces.RobotsPolicy
	if config.Crawler.FollowRobotsTxt {
		robotsPolicy = robots.New(config.Crawler.UserAgent, config.Crawler.RequestTimeout, logger)
	}

	var storage interfaces.CrawlStorage
	if config.Storage.Enabled {
		db, err := badgerstore.NewBadgerDB(logger, &config.Storage.Badger)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		storage = badgerstore.NewCrawlStorage(db, logger)
		defer storage.Close()
	}

	service, err := crawler.NewService(config, crawler.Deps{
		Renderer:  rend,
		Fallback:  fallback,
		Extractor: extractor.New(logger),
		Robots:    robotsPolicy,
		Storage:   storage,
	}, logger)
	if err != nil {
		return err
	}

	result, runErr := service.Run(ctx)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		// Aborted mid-run; export whatever completed
		logger.Error().Err(runErr).Msg("Crawl aborted, exporting partial results")
	}

	pipe := pipeline.NewService(&config.Pipeline, logger)
	corpus := pipe.Process(result.RunID, result.StartURL, result.Pages)

	if storage != nil {
		for _, doc := range corpus.Documents {
			if err := storage.SaveDocument(result.RunID, doc); err != nil {
				logger.Warn().Str("doc_id", doc.ID).Err(err).Msg("Failed to persist document")
			}
		}
	}

	exp, err := exporter.ForFormat(config.Export.Format, logger)
	if err != nil {
		return err
	}
	if err := exp.Export(corpus, config.Export.Path); err != nil {
		return err
	}

	logger.Info().
		Str("stop_reason", result.StopReason).
		Int("pages", result.Stats.PagesCrawled).
		Int("documents", corpus.Stats.Documents).
		Int("chunks", corpus.Stats.Chunks).
		Str("export", config.Export.Path).
		Msg("Done")

	return runErr
}

// buildRenderers wires the browser renderer with an optional static
// fallback, degrading to static-only when the browser cannot launch
func buildRenderers(config *common.Config, logger arbor.ILogger) (interfaces.Renderer, interfaces.Renderer, error) {
	static := renderer.NewStaticRenderer(&config.Crawler, logger)

	if !config.Crawler.EnableJavaScript {
		return static, nil, nil
	}

	browser, err := renderer.NewBrowserRenderer(&config.Crawler, logger)
	if err != nil {
		if !config.Crawler.EnableStaticFallback {
			return nil, nil, fmt.Errorf("browser renderer unavailable: %w", err)
		}
		logger.Warn().Err(err).Msg("Browser unavailable, falling back to static fetches")
		return static, nil, nil
	}

	if config.Crawler.EnableStaticFallback {
		return browser, static, nil
	}
	return browser, nil, nil
}
