package models

// SearchExpansion captures one suggestion list returned for a seed keyword.
type SearchExpansion struct {
	SeedKeyword string   `json:"seed_keyword"`
	Source      string   `json:"source"`
	Suggestions []string `json:"suggestions"`
}

// TrendRecord is one entry of the global trend feed before relevance
// filtering. Produced by the trend feed adapter.
type TrendRecord struct {
	Query                 string `json:"query"`
	Rank                  int    `json:"rank"`
	ApproxTraffic         string `json:"approx_traffic"`
	ApproxTrafficEstimate int    `json:"approx_traffic_estimate"`
}

// TrendSignal is a trend record that survived the relevance filter.
type TrendSignal struct {
	Query                 string  `json:"query"`
	Source                string  `json:"source"`
	Rank                  int     `json:"rank"`
	ApproxTraffic         string  `json:"approx_traffic"`
	ApproxTrafficEstimate int     `json:"approx_traffic_estimate"`
	RelevanceScore        float64 `json:"relevance_score"`
}

// SustainedTrendSignal records timeseries evidence for one candidate.
type SustainedTrendSignal struct {
	Query            string  `json:"query"`
	Source           string  `json:"source"`
	TimeWindow       string  `json:"time_window"`
	PointsCount      int     `json:"points_count"`
	RecentAverage    float64 `json:"recent_average"`
	BaselineAverage  float64 `json:"baseline_average"`
	GrowthRate       float64 `json:"growth_rate"`
	SlopePerPoint    float64 `json:"slope_per_point"`
	ConsistencyRatio float64 `json:"consistency_ratio"`
	SustainedScore   float64 `json:"sustained_score"`
	Direction        string  `json:"direction"`
	StoreRelevance   float64 `json:"store_relevance"`
}

// Sustained trend directions, mutually exclusive.
const (
	DirectionAccelerating = "accelerating"
	DirectionSteadyUp     = "steady_up"
	DirectionDeclining    = "declining"
	DirectionFlat         = "flat"
)

// MarketplaceScanResult is what a marketplace adapter returns on success.
type MarketplaceScanResult struct {
	SourceURL            string   `json:"source_url"`
	TotalResultsEstimate *int     `json:"total_results_estimate"`
	SampleProducts       []string `json:"sample_products"`
}

// Marketplace snapshot statuses.
const (
	SnapshotOK      = "ok"
	SnapshotError   = "error"
	SnapshotSkipped = "skipped"
)

// MarketplaceSnapshot records the outcome of one (keyword, marketplace) scan.
// Every scan attempt produces exactly one snapshot so downstream scoring never
// special-cases missing data.
type MarketplaceSnapshot struct {
	Marketplace          string   `json:"marketplace"`
	Query                string   `json:"query"`
	SourceURL            string   `json:"source_url"`
	Status               string   `json:"status"`
	TotalResultsEstimate *int     `json:"total_results_estimate"`
	SampleProducts       []string `json:"sample_products"`
	Warning              string   `json:"warning,omitempty"`
}
