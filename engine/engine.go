package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"demandflow/logger"
	"demandflow/models"
)

// SuggestSource expands a seed keyword into related search phrases.
type SuggestSource interface {
	Name() string
	Suggestions(ctx context.Context, keyword string) ([]string, error)
}

// TrendFeed lists currently trending queries for the configured geography.
type TrendFeed interface {
	Records(ctx context.Context) ([]models.TrendRecord, error)
}

// TimeseriesSource returns interest-over-time values for a keyword, oldest
// first.
type TimeseriesSource interface {
	Series(ctx context.Context, keyword string) ([]int, error)
}

// MarketplaceScanner probes one marketplace's search results for a keyword.
type MarketplaceScanner interface {
	Marketplace() string
	Scan(ctx context.Context, keyword string) (models.MarketplaceScanResult, error)
}

// Sources bundles the upstream adapters an Engine runs against. Any of them
// may be nil in tests; the corresponding stage is then skipped with a warning.
type Sources struct {
	Suggest    []SuggestSource
	Trends     TrendFeed
	Timeseries TimeseriesSource
	Scanners   []MarketplaceScanner
}

// Engine runs the discovery pipeline for one store scope.
type Engine struct {
	config   models.DiscoveryConfig
	sources  Sources
	scanners map[string]MarketplaceScanner
	log      *logger.Entry
}

func New(config models.DiscoveryConfig, sources Sources, log *logger.Log) *Engine {
	scanners := make(map[string]MarketplaceScanner, len(sources.Scanners))
	for _, scanner := range sources.Scanners {
		scanners[scanner.Marketplace()] = scanner
	}
	return &Engine{
		config:   config,
		sources:  sources,
		scanners: scanners,
		log:      log.WithComponent("engine"),
	}
}

// run carries the mutable state of one discovery run.
type run struct {
	seeds    []string
	excluded map[string]struct{}

	mu                    sync.Mutex
	warnings              []string
	searchExpansions      []models.SearchExpansion
	trendSignals          []models.TrendSignal
	sustainedTrendSignals []models.SustainedTrendSignal
	ledger                *Ledger
}

func (r *run) warn(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Run executes the full pipeline and returns the ranked report. The context
// bounds every upstream call; in-flight fetch failures degrade to warnings,
// and a cancelled context stops the run at the next stage boundary.
func (e *Engine) Run(ctx context.Context, scope models.StoreScope) (*models.ProductDiscoveryReport, error) {
	startedAt := models.NowUTC()

	seeds := NormalizeSeedKeywords(scope.SeedKeywords)
	if len(seeds) == 0 {
		return nil, fmt.Errorf("at least one valid seed keyword is required")
	}
	if len(seeds) > maxSeedKeywords {
		return nil, fmt.Errorf("a maximum of %d seed keywords is supported", maxSeedKeywords)
	}
	for _, marketplace := range e.config.Marketplaces {
		if !models.SupportedMarketplace(marketplace) {
			return nil, fmt.Errorf("unsupported marketplace %q", marketplace)
		}
	}
	if !models.SupportedPositioningMode(scope.PositioningMode) {
		return nil, fmt.Errorf("unsupported positioning mode %q", scope.PositioningMode)
	}

	state := &run{
		seeds:                 seeds,
		excluded:              NormalizeExclusions(scope.ExcludedKeywords),
		warnings:              []string{},
		searchExpansions:      []models.SearchExpansion{},
		trendSignals:          []models.TrendSignal{},
		sustainedTrendSignals: []models.SustainedTrendSignal{},
		ledger:                NewLedger(),
	}
	for _, seed := range seeds {
		state.ledger.Add(seed, searchSourceWeights[sourceSeedKeyword], 0.0, sourceSeedKeyword, 0)
	}

	e.log.WithFields(logger.Fields{
		"store":        scope.StoreName,
		"seeds":        len(seeds),
		"marketplaces": e.config.Marketplaces,
	}).Info("Starting product discovery run")

	e.collectSearchExpansions(ctx, state)
	e.collectTrendSignals(ctx, state)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discovery run cancelled: %w", err)
	}

	filtered := e.filterCandidates(state)
	e.collectSustainedTrendSignals(ctx, state, filtered)
	shortlisted := shortlistCandidates(filtered, e.config.MaxMarketplaceTerms)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discovery run cancelled: %w", err)
	}

	opportunities := e.scoreShortlist(ctx, state, scope, shortlisted)
	sort.Slice(opportunities, func(i, j int) bool {
		if opportunities[i].ScoreTotal != opportunities[j].ScoreTotal {
			return opportunities[i].ScoreTotal > opportunities[j].ScoreTotal
		}
		return strings.ToLower(opportunities[i].Keyword) < strings.ToLower(opportunities[j].Keyword)
	})

	finishedAt := models.NowUTC()
	exclusions := make([]string, 0, len(state.excluded))
	for keyword := range state.excluded {
		exclusions = append(exclusions, keyword)
	}
	sort.Strings(exclusions)

	report := &models.ProductDiscoveryReport{
		RunID:       uuid.New().String(),
		GeneratedAt: finishedAt,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Profile: models.StoreScope{
			StoreName:        strings.TrimSpace(scope.StoreName),
			SeedKeywords:     seeds,
			TenantID:         scope.TenantID,
			AccountID:        scope.AccountID,
			ShopID:           scope.ShopID,
			PositioningMode:  scope.PositioningMode,
			ExcludedKeywords: exclusions,
		},
		Config:                e.config,
		Opportunities:         opportunities,
		SearchExpansions:      state.searchExpansions,
		TrendSignals:          state.trendSignals,
		SustainedTrendSignals: state.sustainedTrendSignals,
		Warnings:              state.warnings,
	}

	e.log.WithFields(logger.Fields{
		"run_id":        report.RunID,
		"opportunities": len(opportunities),
		"warnings":      len(state.warnings),
	}).Info("Product discovery run finished")
	return report, nil
}

// collectSearchExpansions queries every suggest source for every seed. The
// sources for one seed run concurrently; a failed source degrades to a
// warning rather than aborting the run.
func (e *Engine) collectSearchExpansions(ctx context.Context, state *run) {
	for _, seed := range state.seeds {
		// One result slot per source so the recorded expansions keep the
		// source registration order regardless of goroutine completion.
		results := make([][]string, len(e.sources.Suggest))
		var wg sync.WaitGroup
		for i, source := range e.sources.Suggest {
			wg.Add(1)
			go func(slot int, source SuggestSource, seed string) {
				defer wg.Done()
				suggestions, err := source.Suggestions(ctx, seed)
				if err != nil {
					e.log.WithError(err).WithFields(logger.Fields{
						"source": source.Name(),
						"seed":   seed,
					}).Warn("Suggest source failed")
					state.warn("%s failed for '%s': %v", source.Name(), seed, err)
					return
				}
				if len(suggestions) == 0 {
					return
				}
				results[slot] = suggestions
				applyRankedSuggestions(state.ledger, suggestions, source.Name())
			}(i, source, seed)
		}
		wg.Wait()

		for i, suggestions := range results {
			if len(suggestions) == 0 {
				continue
			}
			state.searchExpansions = append(state.searchExpansions, models.SearchExpansion{
				SeedKeyword: seed,
				Source:      e.sources.Suggest[i].Name(),
				Suggestions: suggestions,
			})
		}
	}
}

// applyRankedSuggestions converts a suggestion list into search points with
// linear rank decay: the first suggestion earns the full source weight, the
// last one weight/N.
func applyRankedSuggestions(ledger *Ledger, suggestions []string, source string) {
	weight := searchSourceWeights[source]
	total := len(suggestions)
	if total < 1 {
		total = 1
	}
	for rank, suggestion := range suggestions {
		rankBoost := float64(total-rank) / float64(total)
		ledger.Add(suggestion, weight*rankBoost, 0.0, source, 0)
	}
}

// collectTrendSignals folds relevant trend feed entries into the ledger.
// Entries below the relevance gate are ignored entirely.
func (e *Engine) collectTrendSignals(ctx context.Context, state *run) {
	if e.sources.Trends == nil {
		return
	}
	records, err := e.sources.Trends.Records(ctx)
	if err != nil {
		e.log.WithError(err).Warn("Trend feed failed")
		state.warn("trend feed failed: %v", err)
		return
	}

	for _, record := range records {
		relevance := Relevance(record.Query, state.seeds)
		if relevance < minRelevanceForTrends {
			continue
		}
		state.trendSignals = append(state.trendSignals, models.TrendSignal{
			Query:                 record.Query,
			Source:                sourceTrendFeed,
			Rank:                  record.Rank,
			ApproxTraffic:         record.ApproxTraffic,
			ApproxTrafficEstimate: record.ApproxTrafficEstimate,
			RelevanceScore:        round4(relevance),
		})
		trendPoints := relevance*trendRelevanceMultiplier +
			logScaled(record.ApproxTrafficEstimate)*trendTrafficMultiplier
		state.ledger.Add(record.Query,
			searchSourceWeights["google_trends"]*relevance,
			trendPoints, sourceTrendFeed, record.ApproxTrafficEstimate)
	}
}

// collectSustainedTrendSignals fetches interest timeseries for the most
// promising relevant candidates. Two consecutive fetch failures disable the
// stage for the remainder of the run.
func (e *Engine) collectSustainedTrendSignals(ctx context.Context, state *run, filtered []*Candidate) {
	if e.sources.Timeseries == nil {
		return
	}

	ranked := make([]*Candidate, len(filtered))
	copy(ranked, filtered)
	sort.Slice(ranked, func(i, j int) bool {
		left := ranked[i].SearchPoints + ranked[i].TrendPoints
		right := ranked[j].SearchPoints + ranked[j].TrendPoints
		if left != right {
			return left > right
		}
		return strings.ToLower(ranked[i].Keyword) < strings.ToLower(ranked[j].Keyword)
	})

	selected := make([]*Candidate, 0, e.config.MaxSustainedTrendTerms)
	for _, candidate := range ranked {
		if Relevance(candidate.Keyword, state.seeds) < minRelevanceForSustainedTrends {
			continue
		}
		selected = append(selected, candidate)
		if len(selected) >= e.config.MaxSustainedTrendTerms {
			break
		}
	}

	failureCount := 0
	for _, candidate := range selected {
		relevance := Relevance(candidate.Keyword, state.seeds)
		values, err := e.sources.Timeseries.Series(ctx, candidate.Keyword)
		if err != nil {
			e.log.WithError(err).WithFields(logger.Fields{
				"keyword": candidate.Keyword,
			}).Warn("Trend timeseries fetch failed")
			state.warn("trend timeseries failed for '%s': %v", candidate.Keyword, err)
			failureCount++
			if failureCount >= maxSustainedFetchFailures {
				state.warn("trend timeseries disabled for remaining candidates after repeated failures")
				break
			}
			continue
		}
		if len(values) < sustainedMinPoints {
			continue
		}
		metrics, ok := ComputeSustainedMetrics(values, sustainedRecentPoints, sustainedBaselinePoints)
		if !ok {
			continue
		}

		candidate.SustainedPoints += metrics.SustainedScore * relevance
		candidate.SustainedDirection = metrics.Direction
		candidate.Sources[sourceTrendTimeseries] = struct{}{}
		state.sustainedTrendSignals = append(state.sustainedTrendSignals, models.SustainedTrendSignal{
			Query:            candidate.Keyword,
			Source:           sourceTrendTimeseries,
			TimeWindow:       e.config.TrendTimeWindow,
			PointsCount:      metrics.PointsCount,
			RecentAverage:    round2(metrics.RecentAverage),
			BaselineAverage:  round2(metrics.BaselineAverage),
			GrowthRate:       round4(metrics.GrowthRate),
			SlopePerPoint:    round4(metrics.SlopePerPoint),
			ConsistencyRatio: round4(metrics.ConsistencyRatio),
			SustainedScore:   round2(metrics.SustainedScore * relevance),
			Direction:        metrics.Direction,
			StoreRelevance:   round4(relevance),
		})
	}
}

// filterCandidates drops candidates vetoed by the exclusion list.
func (e *Engine) filterCandidates(state *run) []*Candidate {
	candidates := state.ledger.Candidates()
	filtered := make([]*Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if IsExcluded(candidate.Keyword, state.excluded) {
			continue
		}
		filtered = append(filtered, candidate)
	}
	return filtered
}

// shortlistCandidates ranks by aggregate points and keeps the top
// maxCandidates for marketplace scanning.
func shortlistCandidates(candidates []*Candidate, maxCandidates int) []*Candidate {
	ranked := make([]*Candidate, len(candidates))
	copy(ranked, candidates)
	sort.Slice(ranked, func(i, j int) bool {
		left := ranked[i].SearchPoints + ranked[i].TrendPoints + ranked[i].SustainedPoints
		right := ranked[j].SearchPoints + ranked[j].TrendPoints + ranked[j].SustainedPoints
		if left != right {
			return left > right
		}
		return strings.ToLower(ranked[i].Keyword) < strings.ToLower(ranked[j].Keyword)
	})
	if len(ranked) > maxCandidates {
		ranked = ranked[:maxCandidates]
	}
	return ranked
}

// scoreShortlist scans each shortlisted candidate across the configured
// marketplaces and assembles the scored opportunities.
func (e *Engine) scoreShortlist(ctx context.Context, state *run, scope models.StoreScope, shortlisted []*Candidate) []models.ProductOpportunity {
	opportunities := make([]models.ProductOpportunity, 0, len(shortlisted))
	unavailable := make(map[string]string)

	for _, candidate := range shortlisted {
		snapshots := e.scanMarketplaces(ctx, state, candidate.Keyword, unavailable)

		marketplaceScore := scoreMarketplaceSnapshots(snapshots)
		searchScore := clamp(candidate.SearchPoints*searchRankMultiplier, 0.0, componentScoreCap)
		trendScore := clamp(candidate.TrendPoints, 0.0, componentScoreCap)
		sustainedScore := clamp(candidate.SustainedPoints, 0.0, componentScoreCap)
		qualityFitScore := scoreQualityFit(candidate.Keyword, scope.PositioningMode)
		totalScore := searchScore*searchScoreWeight +
			trendScore*trendScoreWeight +
			sustainedScore*sustainedScoreWeight +
			marketplaceScore*marketplaceScoreWeight
		recommendation := inventoryRecommendation(
			totalScore, sustainedScore, marketplaceScore, qualityFitScore, scope.PositioningMode)

		opportunities = append(opportunities, models.ProductOpportunity{
			Keyword:                 candidate.Keyword,
			ScoreTotal:              round2(totalScore),
			SearchScore:             round2(searchScore),
			TrendScore:              round2(trendScore),
			SustainedTrendScore:     round2(sustainedScore),
			MarketplaceScore:        round2(marketplaceScore),
			QualityFitScore:         round2(qualityFitScore),
			InventoryRecommendation: recommendation,
			Sources:                 candidate.SourceNames(),
			Rationale:               buildRationale(candidate, snapshots, recommendation, qualityFitScore),
			MarketplaceSnapshots:    snapshots,
		})
	}
	return opportunities
}

// scanMarketplaces probes every configured marketplace for one keyword. Once
// a marketplace reports a structural block it is skipped for all later
// keywords in the run.
func (e *Engine) scanMarketplaces(ctx context.Context, state *run, keyword string, unavailable map[string]string) []models.MarketplaceSnapshot {
	snapshots := make([]models.MarketplaceSnapshot, 0, len(e.config.Marketplaces))
	for _, marketplace := range e.config.Marketplaces {
		if reason, disabled := unavailable[marketplace]; disabled {
			snapshots = append(snapshots, models.MarketplaceSnapshot{
				Marketplace:    marketplace,
				Query:          keyword,
				Status:         models.SnapshotSkipped,
				SampleProducts: []string{},
				Warning:        reason,
			})
			continue
		}
		scanner, ok := e.scanners[marketplace]
		if !ok {
			state.warn("marketplace adapter not available for '%s'", marketplace)
			snapshots = append(snapshots, models.MarketplaceSnapshot{
				Marketplace:    marketplace,
				Query:          keyword,
				Status:         models.SnapshotError,
				SampleProducts: []string{},
				Warning:        "adapter not available",
			})
			continue
		}

		result, err := scanner.Scan(ctx, keyword)
		if err != nil {
			e.log.WithError(err).WithFields(logger.Fields{
				"marketplace": marketplace,
				"keyword":     keyword,
			}).Warn("Marketplace scan failed")
			state.warn("marketplace scan failed for '%s' on %s: %v", keyword, marketplace, err)
			if shouldDisableMarketplace(err.Error()) {
				unavailable[marketplace] = err.Error()
				state.warn("marketplace '%s' disabled for remaining keywords due to repeated-structure failure", marketplace)
			}
			snapshots = append(snapshots, models.MarketplaceSnapshot{
				Marketplace:    marketplace,
				Query:          keyword,
				Status:         models.SnapshotError,
				SampleProducts: []string{},
				Warning:        err.Error(),
			})
			continue
		}

		samples := result.SampleProducts
		if samples == nil {
			samples = []string{}
		}
		snapshots = append(snapshots, models.MarketplaceSnapshot{
			Marketplace:          marketplace,
			Query:                keyword,
			SourceURL:            result.SourceURL,
			Status:               models.SnapshotOK,
			TotalResultsEstimate: result.TotalResultsEstimate,
			SampleProducts:       samples,
		})
	}
	return snapshots
}

// shouldDisableMarketplace matches scan errors against the known structural
// block signatures.
func shouldDisableMarketplace(errorText string) bool {
	normalized := strings.ToLower(errorText)
	for _, marker := range marketplaceDisableMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
