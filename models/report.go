package models

import "time"

// Inventory recommendations ordered strongest to weakest.
const (
	RecommendAddNow         = "add_now"
	RecommendTestSmallBatch = "test_small_batch"
	RecommendWatchlist      = "watchlist"
	RecommendReject         = "reject"
)

// ProductOpportunity is one ranked row of the final report.
type ProductOpportunity struct {
	Keyword                 string                `json:"keyword"`
	ScoreTotal              float64               `json:"score_total"`
	SearchScore             float64               `json:"search_score"`
	TrendScore              float64               `json:"trend_score"`
	SustainedTrendScore     float64               `json:"sustained_trend_score"`
	MarketplaceScore        float64               `json:"marketplace_score"`
	QualityFitScore         float64               `json:"quality_fit_score"`
	InventoryRecommendation string                `json:"inventory_recommendation"`
	Sources                 []string              `json:"sources"`
	Rationale               []string              `json:"rationale"`
	MarketplaceSnapshots    []MarketplaceSnapshot `json:"marketplace_snapshots"`
}

// ProductDiscoveryReport is the top-level aggregate of a run. It echoes back
// the resolved scope and config so the report is reproducible from its own
// contents.
type ProductDiscoveryReport struct {
	RunID                 string                 `json:"run_id"`
	GeneratedAt           string                 `json:"generated_at"`
	StartedAt             string                 `json:"started_at"`
	FinishedAt            string                 `json:"finished_at"`
	Profile               StoreScope             `json:"profile"`
	Config                DiscoveryConfig        `json:"config"`
	Opportunities         []ProductOpportunity   `json:"opportunities"`
	SearchExpansions      []SearchExpansion      `json:"search_expansions"`
	TrendSignals          []TrendSignal          `json:"trend_signals"`
	SustainedTrendSignals []SustainedTrendSignal `json:"sustained_trend_signals"`
	Warnings              []string               `json:"warnings"`
}

// NowUTC returns an ISO-8601 timestamp in UTC with second precision.
func NowUTC() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}
