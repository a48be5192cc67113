package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"demandflow/logger"
	"demandflow/models"
)

type stubSuggest struct {
	name        string
	suggestions map[string][]string
	err         error
}

func (s *stubSuggest) Name() string { return s.name }

func (s *stubSuggest) Suggestions(_ context.Context, keyword string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.suggestions[keyword], nil
}

type stubTrends struct {
	records []models.TrendRecord
	err     error
}

func (s *stubTrends) Records(context.Context) ([]models.TrendRecord, error) {
	return s.records, s.err
}

type stubTimeseries struct {
	series map[string][]int
	err    error
	calls  int
}

func (s *stubTimeseries) Series(_ context.Context, keyword string) ([]int, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.series[keyword], nil
}

type stubScanner struct {
	marketplace string
	results     map[string]models.MarketplaceScanResult
	errs        map[string]error
	scans       []string
}

func (s *stubScanner) Marketplace() string { return s.marketplace }

func (s *stubScanner) Scan(_ context.Context, keyword string) (models.MarketplaceScanResult, error) {
	s.scans = append(s.scans, keyword)
	if err, ok := s.errs[keyword]; ok {
		return models.MarketplaceScanResult{}, err
	}
	return s.results[keyword], nil
}

func testConfig() models.DiscoveryConfig {
	config := models.DefaultDiscoveryConfig()
	config.Marketplaces = []string{models.MarketplaceAmazon}
	return config
}

func testScope(seeds ...string) models.StoreScope {
	return models.StoreScope{
		StoreName:       "Test Store",
		SeedKeywords:    seeds,
		PositioningMode: models.PositioningBalanced,
	}
}

func growthSeries() []int {
	values := make([]int, 16)
	for i := range values {
		if i < 8 {
			values[i] = 10
		} else {
			values[i] = 20
		}
	}
	return values
}

func TestRunRanksOpportunities(t *testing.T) {
	scanner := &stubScanner{
		marketplace: models.MarketplaceAmazon,
		results: map[string]models.MarketplaceScanResult{
			"ceramic mug": {
				SourceURL:            "https://www.amazon.com/s?k=ceramic+mug",
				TotalResultsEstimate: intPtr(4000),
				SampleProducts:       []string{"Handmade Ceramic Coffee Mug"},
			},
		},
	}
	sources := Sources{
		Suggest: []SuggestSource{
			&stubSuggest{name: sourceGoogleSuggest, suggestions: map[string][]string{
				"ceramic mug": {"ceramic mug set", "ceramic mug handmade"},
			}},
			&stubSuggest{name: sourceAmazonSuggest, suggestions: map[string][]string{
				"ceramic mug": {"ceramic mug set"},
			}},
		},
		Trends: &stubTrends{records: []models.TrendRecord{
			{Query: "ceramic mug", Rank: 1, ApproxTraffic: "200K+", ApproxTrafficEstimate: 200_000},
			{Query: "celebrity gossip", Rank: 2, ApproxTraffic: "500K+", ApproxTrafficEstimate: 500_000},
		}},
		Timeseries: &stubTimeseries{series: map[string][]int{
			"ceramic mug": growthSeries(),
		}},
		Scanners: []MarketplaceScanner{scanner},
	}

	engine := New(testConfig(), sources, logger.Logger())
	report, err := engine.Run(context.Background(), testScope("ceramic mug"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.RunID == "" {
		t.Error("expected a run id")
	}
	if len(report.Opportunities) == 0 {
		t.Fatal("expected opportunities")
	}
	if report.Opportunities[0].Keyword != "ceramic mug" {
		t.Errorf("expected seed keyword ranked first, got %q", report.Opportunities[0].Keyword)
	}
	for i := 1; i < len(report.Opportunities); i++ {
		if report.Opportunities[i].ScoreTotal > report.Opportunities[i-1].ScoreTotal {
			t.Errorf("opportunities not sorted by score at index %d", i)
		}
	}

	// The irrelevant trend entry must not survive the relevance gate.
	for _, signal := range report.TrendSignals {
		if signal.Query == "celebrity gossip" {
			t.Error("irrelevant trend query should have been filtered")
		}
	}
	for _, opportunity := range report.Opportunities {
		if opportunity.Keyword == "celebrity gossip" {
			t.Error("irrelevant trend query should not become an opportunity")
		}
	}

	if len(report.SustainedTrendSignals) != 1 {
		t.Fatalf("expected one sustained signal, got %d", len(report.SustainedTrendSignals))
	}
	sustained := report.SustainedTrendSignals[0]
	if sustained.Query != "ceramic mug" || sustained.Direction != models.DirectionAccelerating {
		t.Errorf("unexpected sustained signal: %+v", sustained)
	}

	top := report.Opportunities[0]
	if top.SustainedTrendScore != 100.0 {
		t.Errorf("expected maxed sustained score for the seed, got %v", top.SustainedTrendScore)
	}
	if len(top.Rationale) == 0 || !strings.HasPrefix(top.Rationale[0], "Signal sources:") {
		t.Errorf("rationale should lead with signal sources, got %v", top.Rationale)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("expected clean run, got warnings: %v", report.Warnings)
	}
}

func TestRunExpansionOrderFollowsSeedInput(t *testing.T) {
	suggestions := map[string][]string{
		"travel tumbler": {"travel tumbler lid"},
		"ceramic mug":    {"ceramic mug set"},
	}
	sources := Sources{
		Suggest: []SuggestSource{
			&stubSuggest{name: sourceGoogleSuggest, suggestions: suggestions},
			&stubSuggest{name: sourceAmazonSuggest, suggestions: suggestions},
		},
	}
	engine := New(testConfig(), sources, logger.Logger())

	// Seeds given in non-alphabetical order; the expansion trail must keep
	// that order, with each seed's sources in registration order.
	report, err := engine.Run(context.Background(), testScope("travel tumbler", "ceramic mug"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []struct {
		seed   string
		source string
	}{
		{"travel tumbler", sourceGoogleSuggest},
		{"travel tumbler", sourceAmazonSuggest},
		{"ceramic mug", sourceGoogleSuggest},
		{"ceramic mug", sourceAmazonSuggest},
	}
	if len(report.SearchExpansions) != len(expected) {
		t.Fatalf("expected %d expansions, got %+v", len(expected), report.SearchExpansions)
	}
	for i, want := range expected {
		got := report.SearchExpansions[i]
		if got.SeedKeyword != want.seed || got.Source != want.source {
			t.Errorf("expansion %d: expected %s/%s, got %s/%s",
				i, want.seed, want.source, got.SeedKeyword, got.Source)
		}
	}
}

func TestRunValidation(t *testing.T) {
	engine := New(testConfig(), Sources{}, logger.Logger())

	if _, err := engine.Run(context.Background(), testScope()); err == nil {
		t.Error("expected error for missing seeds")
	}
	if _, err := engine.Run(context.Background(), testScope("x")); err == nil {
		t.Error("expected error when no seed survives normalization")
	}

	many := make([]string, maxSeedKeywords+1)
	for i := range many {
		many[i] = "keyword " + strings.Repeat("a", i+1)
	}
	if _, err := engine.Run(context.Background(), testScope(many...)); err == nil {
		t.Error("expected error for too many seeds")
	}

	scope := testScope("ceramic mug")
	scope.PositioningMode = "luxury"
	if _, err := engine.Run(context.Background(), scope); err == nil {
		t.Error("expected error for unknown positioning mode")
	}

	config := testConfig()
	config.Marketplaces = []string{"etsy"}
	engine = New(config, Sources{}, logger.Logger())
	if _, err := engine.Run(context.Background(), testScope("ceramic mug")); err == nil {
		t.Error("expected error for unsupported marketplace")
	}
}

func TestRunExcludesKeywords(t *testing.T) {
	sources := Sources{
		Suggest: []SuggestSource{
			&stubSuggest{name: sourceGoogleSuggest, suggestions: map[string][]string{
				"ceramic mug": {"ceramic mug replica", "ceramic mug set"},
			}},
		},
	}
	engine := New(testConfig(), sources, logger.Logger())

	scope := testScope("ceramic mug")
	scope.ExcludedKeywords = []string{"replica"}
	report, err := engine.Run(context.Background(), scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, opportunity := range report.Opportunities {
		if strings.Contains(opportunity.Keyword, "replica") {
			t.Errorf("excluded keyword surfaced: %q", opportunity.Keyword)
		}
	}
	if len(report.Profile.ExcludedKeywords) != 1 || report.Profile.ExcludedKeywords[0] != "replica" {
		t.Errorf("profile should echo normalized exclusions, got %v", report.Profile.ExcludedKeywords)
	}
}

func TestRunMarketplaceCircuitBreaker(t *testing.T) {
	scanner := &stubScanner{
		marketplace: models.MarketplaceAmazon,
		errs: map[string]error{
			"ceramic mug": errors.New("HTTP Error 429: too many requests fetching https://www.amazon.com/s"),
		},
		results: map[string]models.MarketplaceScanResult{},
	}
	sources := Sources{
		Suggest: []SuggestSource{
			&stubSuggest{name: sourceGoogleSuggest, suggestions: map[string][]string{
				"ceramic mug": {"ceramic mug set", "ceramic mug handmade"},
			}},
		},
		Scanners: []MarketplaceScanner{scanner},
	}
	engine := New(testConfig(), sources, logger.Logger())

	report, err := engine.Run(context.Background(), testScope("ceramic mug"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Opportunities) < 2 {
		t.Fatalf("expected multiple opportunities, got %d", len(report.Opportunities))
	}
	if len(scanner.scans) != 1 {
		t.Fatalf("expected exactly one scan before the breaker tripped, got %d", len(scanner.scans))
	}

	errorSnapshots := 0
	skippedSnapshots := 0
	for _, opportunity := range report.Opportunities {
		for _, snapshot := range opportunity.MarketplaceSnapshots {
			switch snapshot.Status {
			case models.SnapshotError:
				errorSnapshots++
			case models.SnapshotSkipped:
				skippedSnapshots++
			}
		}
	}
	if errorSnapshots != 1 {
		t.Errorf("expected one error snapshot, got %d", errorSnapshots)
	}
	if skippedSnapshots != len(report.Opportunities)-1 {
		t.Errorf("expected remaining keywords skipped, got %d of %d",
			skippedSnapshots, len(report.Opportunities)-1)
	}

	disabled := false
	for _, warning := range report.Warnings {
		if strings.Contains(warning, "disabled for remaining keywords") {
			disabled = true
		}
	}
	if !disabled {
		t.Error("expected a disable warning after the structural failure")
	}
}

func TestRunTransientScanErrorDoesNotTripBreaker(t *testing.T) {
	scanner := &stubScanner{
		marketplace: models.MarketplaceAmazon,
		errs: map[string]error{
			"ceramic mug": errors.New("HTTP Error 500: upstream hiccup"),
		},
		results: map[string]models.MarketplaceScanResult{},
	}
	sources := Sources{
		Suggest: []SuggestSource{
			&stubSuggest{name: sourceGoogleSuggest, suggestions: map[string][]string{
				"ceramic mug": {"ceramic mug set"},
			}},
		},
		Scanners: []MarketplaceScanner{scanner},
	}
	engine := New(testConfig(), sources, logger.Logger())

	report, err := engine.Run(context.Background(), testScope("ceramic mug"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scanner.scans) != len(report.Opportunities) {
		t.Errorf("transient errors should not disable the marketplace: %d scans for %d opportunities",
			len(scanner.scans), len(report.Opportunities))
	}
}

func TestRunTimeseriesCircuitBreaker(t *testing.T) {
	timeseries := &stubTimeseries{err: errors.New("HTTP Error 429: rate limited")}
	sources := Sources{
		Suggest: []SuggestSource{
			&stubSuggest{name: sourceGoogleSuggest, suggestions: map[string][]string{
				"ceramic mug": {"ceramic mug set", "ceramic mug handmade", "ceramic mug gift"},
			}},
		},
		Timeseries: timeseries,
	}
	engine := New(testConfig(), sources, logger.Logger())

	report, err := engine.Run(context.Background(), testScope("ceramic mug"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeseries.calls != maxSustainedFetchFailures {
		t.Errorf("expected %d fetch attempts before disabling, got %d",
			maxSustainedFetchFailures, timeseries.calls)
	}
	disabled := false
	for _, warning := range report.Warnings {
		if strings.Contains(warning, "disabled for remaining candidates") {
			disabled = true
		}
	}
	if !disabled {
		t.Error("expected a disable warning after repeated timeseries failures")
	}
	if len(report.SustainedTrendSignals) != 0 {
		t.Errorf("expected no sustained signals, got %d", len(report.SustainedTrendSignals))
	}
}

func TestRunSuggestFailureDegradesToWarning(t *testing.T) {
	sources := Sources{
		Suggest: []SuggestSource{
			&stubSuggest{name: sourceGoogleSuggest, err: errors.New("HTTP Error 403: forbidden")},
			&stubSuggest{name: sourceAmazonSuggest, suggestions: map[string][]string{
				"ceramic mug": {"ceramic mug set"},
			}},
		},
	}
	engine := New(testConfig(), sources, logger.Logger())

	report, err := engine.Run(context.Background(), testScope("ceramic mug"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[0], sourceGoogleSuggest) {
		t.Errorf("warning should name the failed source, got %q", report.Warnings[0])
	}
	if len(report.SearchExpansions) != 1 || report.SearchExpansions[0].Source != sourceAmazonSuggest {
		t.Errorf("surviving source should still contribute, got %+v", report.SearchExpansions)
	}
	if len(report.Opportunities) == 0 {
		t.Error("expected opportunities from the surviving source")
	}
}

func TestRunEmptyCandidatesStillReports(t *testing.T) {
	engine := New(testConfig(), Sources{}, logger.Logger())
	scope := testScope("ceramic mug")
	scope.ExcludedKeywords = []string{"ceramic mug"}

	report, err := engine.Run(context.Background(), scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Opportunities) != 0 {
		t.Errorf("expected no opportunities, got %d", len(report.Opportunities))
	}
	if report.StartedAt == "" || report.FinishedAt == "" {
		t.Error("report should carry run timestamps")
	}
}
