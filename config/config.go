package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"demandflow/models"
)

// Config is the full file-backed configuration for a discovery run.
type Config struct {
	Demandflow DemandflowConfig       `yaml:"demandflow"`
	Discovery  models.DiscoveryConfig `yaml:"discovery"`
	Fetch      FetchConfig            `yaml:"fetch"`
	Logging    LoggingConfig          `yaml:"logging"`
	Metrics    MetricsConfig          `yaml:"metrics"`
	Storage    StorageConfig          `yaml:"storage"`
}

type DemandflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type FetchConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Default returns the configuration used when no config file is supplied.
func Default() *Config {
	return &Config{
		Demandflow: DemandflowConfig{Name: "demandflow", Version: "1.0"},
		Discovery:  models.DefaultDiscoveryConfig(),
		Fetch:      FetchConfig{RequestsPerSecond: 2, BurstSize: 4},
		Logging:    LoggingConfig{Level: "info", Format: "text", Output: "stderr"},
	}
}

// LoadConfig reads, merges and validates the YAML configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(config)

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyDefaults fills discovery fields that an explicit file section left
// zero-valued so partial config files stay usable.
func applyDefaults(cfg *Config) {
	defaults := models.DefaultDiscoveryConfig()
	d := &cfg.Discovery
	if d.Geo == "" {
		d.Geo = defaults.Geo
	}
	if d.Language == "" {
		d.Language = defaults.Language
	}
	if len(d.Marketplaces) == 0 {
		d.Marketplaces = append([]string(nil), defaults.Marketplaces...)
	}
	if d.MaxSuggestionsPerSource == 0 {
		d.MaxSuggestionsPerSource = defaults.MaxSuggestionsPerSource
	}
	if d.MaxTrendItems == 0 {
		d.MaxTrendItems = defaults.MaxTrendItems
	}
	if d.MaxSustainedTrendTerms == 0 {
		d.MaxSustainedTrendTerms = defaults.MaxSustainedTrendTerms
	}
	if d.MaxMarketplaceTerms == 0 {
		d.MaxMarketplaceTerms = defaults.MaxMarketplaceTerms
	}
	if d.MaxSampleProducts == 0 {
		d.MaxSampleProducts = defaults.MaxSampleProducts
	}
	if d.TrendTimeWindow == "" {
		d.TrendTimeWindow = defaults.TrendTimeWindow
	}
	if d.TargetPricingStoreID == "" {
		d.TargetPricingStoreID = defaults.TargetPricingStoreID
	}
	if d.TimeoutSeconds == 0 {
		d.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if d.UserAgent == "" {
		d.UserAgent = defaults.UserAgent
	}
	if cfg.Fetch.RequestsPerSecond == 0 {
		cfg.Fetch.RequestsPerSecond = 2
	}
	if cfg.Fetch.BurstSize == 0 {
		cfg.Fetch.BurstSize = 4
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Demandflow.Name == "" {
		return fmt.Errorf("demandflow.name is required")
	}
	if cfg.Demandflow.Version == "" {
		return fmt.Errorf("demandflow.version is required")
	}

	d := cfg.Discovery
	if d.MaxSuggestionsPerSource <= 0 {
		return fmt.Errorf("discovery.max_suggestions_per_source must be greater than 0")
	}
	if d.MaxTrendItems <= 0 {
		return fmt.Errorf("discovery.max_trend_items must be greater than 0")
	}
	if d.MaxSustainedTrendTerms <= 0 {
		return fmt.Errorf("discovery.max_sustained_trend_terms must be greater than 0")
	}
	if d.MaxMarketplaceTerms <= 0 {
		return fmt.Errorf("discovery.max_marketplace_terms must be greater than 0")
	}
	if d.MaxSampleProducts <= 0 {
		return fmt.Errorf("discovery.max_sample_products must be greater than 0")
	}
	if d.TimeoutSeconds <= 0 {
		return fmt.Errorf("discovery.timeout_seconds must be greater than 0")
	}
	if strings.TrimSpace(d.TrendTimeWindow) == "" {
		return fmt.Errorf("discovery.trend_time_window is required")
	}
	if strings.TrimSpace(d.TargetPricingStoreID) == "" {
		return fmt.Errorf("discovery.target_pricing_store_id is required")
	}
	for _, marketplace := range d.Marketplaces {
		if !models.SupportedMarketplace(marketplace) {
			return fmt.Errorf("unsupported marketplace '%s'", marketplace)
		}
	}

	if cfg.Fetch.RequestsPerSecond <= 0 {
		return fmt.Errorf("fetch.requests_per_second must be greater than 0")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
