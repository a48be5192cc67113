// Package engine orchestrates a discovery run: candidate collection from the
// search and trend sources, relevance filtering, sustained trend analysis,
// marketplace scanning and the final scored ranking.
package engine

// Candidate intake limits.
const (
	minKeywordLength = 2
	maxKeywordLength = 80
	maxSeedKeywords  = 30
)

// Relevance gates for trend-derived candidates.
const (
	minRelevanceForTrends          = 0.25
	minRelevanceForSustainedTrends = 0.20
)

// Signal source names as they appear in candidate provenance and reports.
const (
	sourceSeedKeyword     = "seed_keyword"
	sourceGoogleSuggest   = "google_suggest"
	sourceAmazonSuggest   = "amazon_suggest"
	sourceTrendFeed       = "google_trends_rss"
	sourceTrendTimeseries = "google_trends_timeseries"
)

// searchSourceWeights ranks how much a mention in each source is worth before
// rank decay is applied.
var searchSourceWeights = map[string]float64{
	sourceSeedKeyword:   6.0,
	sourceGoogleSuggest: 5.0,
	sourceAmazonSuggest: 4.0,
	"google_trends":     3.0,
}

const searchRankMultiplier = 8.0

// Trend point composition: relevance dominates, traffic volume supports.
const (
	trendRelevanceMultiplier = 16.0
	trendTrafficMultiplier   = 12.0
)

// Sustained trend analysis windows and normalization anchors.
const (
	sustainedRecentPoints     = 8
	sustainedBaselinePoints   = 8
	sustainedMinPoints        = 16
	sustainedBaselineFloor    = 10.0
	sustainedGrowthStrong     = 0.35
	sustainedSlopeStrong      = 0.35
	maxSustainedFetchFailures = 2
)

// Sustained score component weights, summing to one.
const (
	sustainedGrowthWeight      = 0.5
	sustainedSlopeWeight       = 0.3
	sustainedConsistencyWeight = 0.2
)

// Direction classification thresholds.
const (
	acceleratingGrowthMin      = 0.20
	acceleratingSlopeMin       = 0.10
	acceleratingConsistencyMin = 0.60
	steadyGrowthMin            = 0.05
	steadySlopeMin             = 0.03
	decliningGrowthMax         = -0.10
	decliningSlopeMax          = -0.05
)

// Marketplace score composition.
const (
	marketplaceCoverageWeight     = 16.0
	marketplaceResultsWeight      = 14.0
	marketplaceSampleTitlesWeight = 2.0
	marketplaceResultCap          = 1_000_000
)

// Quality fit scoring.
const (
	qualityScoreBaseline        = 50.0
	qualityPositiveTokenBoost   = 8.0
	qualityNegativeTokenPenalty = 14.0
	qualityScoreMin             = 0.0
	qualityScoreMax             = 100.0
)

var qualityNegativeTokens = []string{
	"cheap",
	"clearance",
	"bulk",
	"wholesale",
	"dupe",
	"replica",
	"knockoff",
	"low cost",
}

var qualityPositiveTokens = []string{
	"premium",
	"organic",
	"authentic",
	"official",
	"luxury",
	"designer",
	"artisan",
	"high quality",
}

const componentScoreCap = 100.0

// Weighted total score composition.
const (
	searchScoreWeight      = 0.22
	trendScoreWeight       = 0.14
	sustainedScoreWeight   = 0.34
	marketplaceScoreWeight = 0.30
)

// Inventory recommendation thresholds.
const (
	addNowTotalMin        = 70.0
	addNowSustainedMin    = 60.0
	addNowMarketplaceMin  = 45.0
	addNowQualityMin      = 55.0
	testBatchTotalMin     = 55.0
	testBatchSustainedMin = 45.0
	testBatchQualityMin   = 45.0
	watchlistTotalMin     = 40.0
)

// Error fragments that mark a marketplace as structurally blocked for the
// remainder of a run.
var marketplaceDisableMarkers = []string{
	"missing __next_data__ script",
	"missing api key",
	"http error 403",
	"http error 429",
	"precondition failed",
	"access denied",
	"pardon our interruption",
}
