package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"demandflow/config"
	"demandflow/engine"
	"demandflow/fetch"
	"demandflow/logger"
	"demandflow/models"
	"demandflow/reporter"
	"demandflow/source/amazon"
	"demandflow/source/google"
	"demandflow/source/target"
	"demandflow/source/walmart"
)

// targetAPIKeyFallback is used when the Target storefront page stops inlining
// its redsky key.
const targetAPIKeyFallback = "9f36aeafbe60771e321a7cc95a78140772ab3e96"

// stringList collects repeatable CLI flags.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	var seedKeywords, excludeKeywords, marketplaces stringList
	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	storeName := flag.String("store-name", "", "Human-readable store name used in report metadata")
	flag.Var(&seedKeywords, "seed-keyword", "Seed keyword for relevance (repeatable)")
	flag.Var(&excludeKeywords, "exclude-keyword", "Keyword to exclude from opportunities (repeatable)")
	flag.Var(&marketplaces, "marketplace", "Marketplace to scan: amazon, walmart, target (repeatable, comma lists allowed)")
	positioningMode := flag.String("positioning-mode", models.PositioningBalanced,
		"Store positioning strategy: balanced or quality")
	tenantID := flag.String("tenant-id", "", "Optional tenant identifier for attribution")
	accountID := flag.String("account-id", "", "Optional account identifier for attribution")
	shopID := flag.String("shop-id", "", "Optional shop identifier for attribution")
	geo := flag.String("geo", "", "Geo code for trend collection, e.g. US, AE, GB")
	language := flag.String("language", "", "Language tag for search suggestion APIs")
	maxSuggestions := flag.Int("max-suggestions-per-source", 0, "Maximum suggestions to keep per source and seed keyword")
	maxTrendItems := flag.Int("max-trend-items", 0, "Maximum trend feed entries to inspect before relevance filtering")
	maxSustainedTerms := flag.Int("max-sustained-trend-terms", 0, "Maximum candidates to evaluate for sustained trend direction")
	maxMarketplaceTerms := flag.Int("max-marketplace-terms", 0, "Maximum keywords to send to marketplace scanners")
	maxSampleProducts := flag.Int("max-sample-products", 0, "Maximum sample product titles to capture per marketplace query")
	trendTimeWindow := flag.String("trend-time-window", "", `Trends time window for sustained analysis, e.g. "today 12-m"`)
	pricingStoreID := flag.String("target-pricing-store-id", "", "Target pricing store ID for marketplace lookups")
	timeoutSeconds := flag.Int("timeout-seconds", 0, "HTTP timeout in seconds for each upstream request")
	outputDir := flag.String("output-dir", "reports", "Directory for generated report files")
	fileStem := flag.String("file-stem", "", "Optional output filename stem")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Error("Failed to load configuration")
			os.Exit(1)
		}
		cfg = config.Default()
	}
	applyFlagOverrides(&cfg.Discovery, flagOverrides{
		geo:                 *geo,
		language:            *language,
		marketplaces:        marketplaces,
		maxSuggestions:      *maxSuggestions,
		maxTrendItems:       *maxTrendItems,
		maxSustainedTerms:   *maxSustainedTerms,
		maxMarketplaceTerms: *maxMarketplaceTerms,
		maxSampleProducts:   *maxSampleProducts,
		trendTimeWindow:     *trendTimeWindow,
		pricingStoreID:      *pricingStoreID,
		timeoutSeconds:      *timeoutSeconds,
	})

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}
	if cfg.Metrics.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Demandflow.Name,
		"version": cfg.Demandflow.Version,
	}).Info("starting demandflow")

	if strings.TrimSpace(*storeName) == "" {
		log.Error("--store-name is required")
		os.Exit(1)
	}
	if len(seedKeywords) == 0 {
		log.Error("At least one --seed-keyword is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		log.Warn("Shutdown signal received, cancelling run")
		cancel()
	}()

	fetcher, err := fetch.NewClient(
		time.Duration(cfg.Discovery.TimeoutSeconds)*time.Second,
		cfg.Discovery.UserAgent,
		cfg.Fetch.RequestsPerSecond,
		cfg.Fetch.BurstSize,
	)
	if err != nil {
		log.WithError(err).Error("Failed to build fetch client")
		os.Exit(1)
	}

	scope := models.StoreScope{
		StoreName:        strings.TrimSpace(*storeName),
		SeedKeywords:     seedKeywords,
		TenantID:         *tenantID,
		AccountID:        *accountID,
		ShopID:           *shopID,
		PositioningMode:  *positioningMode,
		ExcludedKeywords: excludeKeywords,
	}

	eng := engine.New(cfg.Discovery, buildSources(cfg, fetcher), log)
	report, err := eng.Run(ctx, scope)
	if err != nil {
		log.WithError(err).Error("Product discovery run failed")
		os.Exit(1)
	}

	stem := *fileStem
	if stem == "" {
		stem = reporter.DefaultFileStem(scope.StoreName)
	}
	jsonPath, mdPath, err := reporter.WriteReports(report, *outputDir, stem)
	if err != nil {
		log.WithError(err).Error("Failed to write reports")
		os.Exit(1)
	}

	if cfg.Storage.S3.Enabled {
		archiver, err := reporter.NewArchiver(ctx, cfg.Storage.S3)
		if err != nil {
			log.WithError(err).Error("Failed to build report archiver")
		} else if key, err := archiver.Archive(ctx, report); err != nil {
			log.WithError(err).Error("Failed to archive report to S3")
		} else {
			log.WithFields(logger.Fields{"s3_key": key}).Info("Report archived")
		}
	}

	logger.PublishRunSummary(ctx, log, len(report.Opportunities), len(report.Warnings))

	fmt.Printf("Product discovery complete for store: %s\n", report.Profile.StoreName)
	fmt.Printf("Opportunities identified: %d\n", len(report.Opportunities))
	fmt.Printf("Trend matches retained: %d\n", len(report.TrendSignals))
	fmt.Printf("Sustained trend signals: %d\n", len(report.SustainedTrendSignals))
	fmt.Printf("Warnings: %d\n", len(report.Warnings))
	fmt.Printf("JSON report: %s\n", absPath(jsonPath))
	fmt.Printf("Markdown report: %s\n", absPath(mdPath))
}

type flagOverrides struct {
	geo                 string
	language            string
	marketplaces        []string
	maxSuggestions      int
	maxTrendItems       int
	maxSustainedTerms   int
	maxMarketplaceTerms int
	maxSampleProducts   int
	trendTimeWindow     string
	pricingStoreID      string
	timeoutSeconds      int
}

// applyFlagOverrides layers non-zero CLI flags over the file-backed discovery
// config.
func applyFlagOverrides(discovery *models.DiscoveryConfig, overrides flagOverrides) {
	if v := strings.TrimSpace(overrides.geo); v != "" {
		discovery.Geo = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(overrides.language); v != "" {
		discovery.Language = v
	}
	if resolved := resolveMarketplaces(overrides.marketplaces); len(resolved) > 0 {
		discovery.Marketplaces = resolved
	}
	if overrides.maxSuggestions > 0 {
		discovery.MaxSuggestionsPerSource = overrides.maxSuggestions
	}
	if overrides.maxTrendItems > 0 {
		discovery.MaxTrendItems = overrides.maxTrendItems
	}
	if overrides.maxSustainedTerms > 0 {
		discovery.MaxSustainedTrendTerms = overrides.maxSustainedTerms
	}
	if overrides.maxMarketplaceTerms > 0 {
		discovery.MaxMarketplaceTerms = overrides.maxMarketplaceTerms
	}
	if overrides.maxSampleProducts > 0 {
		discovery.MaxSampleProducts = overrides.maxSampleProducts
	}
	if v := strings.TrimSpace(overrides.trendTimeWindow); v != "" {
		discovery.TrendTimeWindow = v
	}
	if v := strings.TrimSpace(overrides.pricingStoreID); v != "" {
		discovery.TargetPricingStoreID = v
	}
	if overrides.timeoutSeconds > 0 {
		discovery.TimeoutSeconds = overrides.timeoutSeconds
	}
}

// resolveMarketplaces flattens repeated and comma-separated marketplace flags
// into a deduplicated, lowercased list.
func resolveMarketplaces(raw []string) []string {
	resolved := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			resolved = append(resolved, name)
		}
	}
	return resolved
}

// buildSources wires the live upstream adapters for the engine.
func buildSources(cfg *config.Config, fetcher fetch.Fetcher) engine.Sources {
	discovery := cfg.Discovery
	return engine.Sources{
		Suggest: []engine.SuggestSource{
			google.NewSuggestSource(fetcher, discovery.Language, discovery.MaxSuggestionsPerSource),
			amazon.NewSuggestSource(fetcher, discovery.MaxSuggestionsPerSource),
		},
		Trends:     google.NewTrendFeed(fetcher, discovery.Geo, discovery.MaxTrendItems),
		Timeseries: google.NewTimeseriesSource(fetcher, discovery.Geo, discovery.Language, discovery.TrendTimeWindow),
		Scanners: []engine.MarketplaceScanner{
			amazon.NewScanner(fetcher, discovery.MaxSampleProducts),
			walmart.NewScanner(fetcher, discovery.MaxSampleProducts),
			target.NewScanner(fetcher, discovery.MaxSampleProducts, discovery.TargetPricingStoreID, targetAPIKeyFallback),
		},
	}
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
