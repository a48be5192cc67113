package models

// Positioning modes supported by the recommendation policy.
const (
	PositioningBalanced = "balanced"
	PositioningQuality  = "quality"
)

// Marketplaces with a scanner adapter.
const (
	MarketplaceAmazon  = "amazon"
	MarketplaceWalmart = "walmart"
	MarketplaceTarget  = "target"
)

// DefaultMarketplaces is the scan set used when none are configured.
var DefaultMarketplaces = []string{MarketplaceAmazon, MarketplaceWalmart, MarketplaceTarget}

// SupportedMarketplaces reports whether a scanner adapter exists for name.
func SupportedMarketplace(name string) bool {
	switch name {
	case MarketplaceAmazon, MarketplaceWalmart, MarketplaceTarget:
		return true
	}
	return false
}

// SupportedPositioningMode reports whether the recommendation policy knows mode.
func SupportedPositioningMode(mode string) bool {
	return mode == PositioningBalanced || mode == PositioningQuality
}

// StoreScope identifies the store a discovery run is performed for. It is
// resolved once at the start of a run and echoed back in the report.
type StoreScope struct {
	StoreName        string   `json:"store_name"`
	SeedKeywords     []string `json:"seed_keywords"`
	TenantID         string   `json:"tenant_id,omitempty"`
	AccountID        string   `json:"account_id,omitempty"`
	ShopID           string   `json:"shop_id,omitempty"`
	PositioningMode  string   `json:"positioning_mode"`
	ExcludedKeywords []string `json:"excluded_keywords"`
}

// DiscoveryConfig carries the run-wide tunables. Values are validated before
// any upstream call is made.
type DiscoveryConfig struct {
	Geo                     string   `json:"geo" yaml:"geo"`
	Language                string   `json:"language" yaml:"language"`
	Marketplaces            []string `json:"marketplaces" yaml:"marketplaces"`
	MaxSuggestionsPerSource int      `json:"max_suggestions_per_source" yaml:"max_suggestions_per_source"`
	MaxTrendItems           int      `json:"max_trend_items" yaml:"max_trend_items"`
	MaxSustainedTrendTerms  int      `json:"max_sustained_trend_terms" yaml:"max_sustained_trend_terms"`
	MaxMarketplaceTerms     int      `json:"max_marketplace_terms" yaml:"max_marketplace_terms"`
	MaxSampleProducts       int      `json:"max_sample_products" yaml:"max_sample_products"`
	TrendTimeWindow         string   `json:"trend_time_window" yaml:"trend_time_window"`
	TargetPricingStoreID    string   `json:"target_pricing_store_id" yaml:"target_pricing_store_id"`
	TimeoutSeconds          int      `json:"timeout_seconds" yaml:"timeout_seconds"`
	UserAgent               string   `json:"user_agent" yaml:"user_agent"`
}

// DefaultDiscoveryConfig returns the tunables used when the config file leaves
// the discovery section empty.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Geo:                     "US",
		Language:                "en-US",
		Marketplaces:            append([]string(nil), DefaultMarketplaces...),
		MaxSuggestionsPerSource: 12,
		MaxTrendItems:           80,
		MaxSustainedTrendTerms:  8,
		MaxMarketplaceTerms:     12,
		MaxSampleProducts:       5,
		TrendTimeWindow:         "today 12-m",
		TargetPricingStoreID:    "3991",
		TimeoutSeconds:          15,
		UserAgent:               "DemandflowDiscoveryAgent/1.0 (+https://demandflow.local/product-discovery)",
	}
}
