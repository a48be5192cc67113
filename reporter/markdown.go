package reporter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"demandflow/internal/phrase"
	"demandflow/models"
)

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// BuildMarkdown renders the full markdown report: the ranked opportunity
// table, copyworthy piece targets, per-opportunity detail, expansion and trend
// appendices, and collection warnings.
func BuildMarkdown(report *models.ProductDiscoveryReport) string {
	lines := []string{
		"# Product Discovery Opportunity Report",
		"",
		fmt.Sprintf("- Generated: %s", report.GeneratedAt),
		fmt.Sprintf("- Store: %s", report.Profile.StoreName),
		fmt.Sprintf("- Tenant ID: %s", orNA(report.Profile.TenantID)),
		fmt.Sprintf("- Account ID: %s", orNA(report.Profile.AccountID)),
		fmt.Sprintf("- Shop ID: %s", orNA(report.Profile.ShopID)),
		fmt.Sprintf("- Positioning Mode: %s", report.Profile.PositioningMode),
		fmt.Sprintf("- Geo: %s", report.Config.Geo),
		fmt.Sprintf("- Seed Keywords: %s", orNA(strings.Join(report.Profile.SeedKeywords, ", "))),
		fmt.Sprintf("- Marketplaces Scanned: %s", strings.Join(report.Config.Marketplaces, ", ")),
		fmt.Sprintf("- Trend Window: %s", report.Config.TrendTimeWindow),
		"",
		"## Top Opportunities",
		"",
		"| Keyword | Recommendation | Total | Search | Trend | Sustained | Marketplace | Quality Fit | Sources |",
		"| --- | --- | ---: | ---: | ---: | ---: | ---: | ---: | --- |",
	}

	if len(report.Opportunities) > 0 {
		for _, item := range report.Opportunities {
			lines = append(lines, fmt.Sprintf(
				"| %s | %s | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %s |",
				sanitizeCell(item.Keyword),
				sanitizeCell(item.InventoryRecommendation),
				item.ScoreTotal,
				item.SearchScore,
				item.TrendScore,
				item.SustainedTrendScore,
				item.MarketplaceScore,
				item.QualityFitScore,
				sanitizeCell(strings.Join(item.Sources, ", ")),
			))
		}
	} else {
		lines = append(lines, "| No opportunities detected | reject | 0 | 0 | 0 | 0 | 0 | 0 | n/a |")
	}

	lines = appendCopyworthyTargets(lines, report)

	lines = append(lines, "", "## Opportunity Detail", "")
	for _, item := range report.Opportunities {
		lines = append(lines,
			fmt.Sprintf("### %s", item.Keyword),
			"",
			fmt.Sprintf("- Total Score: %.2f", item.ScoreTotal),
			fmt.Sprintf("- Search Score: %.2f", item.SearchScore),
			fmt.Sprintf("- Trend Score: %.2f", item.TrendScore),
			fmt.Sprintf("- Sustained Trend Score: %.2f", item.SustainedTrendScore),
			fmt.Sprintf("- Marketplace Score: %.2f", item.MarketplaceScore),
			fmt.Sprintf("- Quality Fit Score: %.2f", item.QualityFitScore),
			fmt.Sprintf("- Recommendation: %s", item.InventoryRecommendation),
			fmt.Sprintf("- Signals: %s", strings.Join(item.Sources, ", ")),
			"",
			"Marketplace coverage:",
			"",
			"| Marketplace | Status | Estimated Results | Sample Products | Source |",
			"| --- | --- | ---: | --- | --- |",
		)
		for _, snapshot := range item.MarketplaceSnapshots {
			samples := make([]string, 0, len(snapshot.SampleProducts))
			for _, product := range snapshot.SampleProducts {
				samples = append(samples, sanitizeCell(product))
			}
			total := 0
			if snapshot.TotalResultsEstimate != nil {
				total = *snapshot.TotalResultsEstimate
			}
			lines = append(lines, fmt.Sprintf(
				"| %s | %s | %d | %s | %s |",
				snapshot.Marketplace,
				snapshot.Status,
				total,
				orNA(strings.Join(samples, "<br>")),
				sanitizeCell(snapshot.SourceURL),
			))
		}
		lines = append(lines, "", "Why this appears:", "")
		for _, reason := range item.Rationale {
			lines = append(lines, fmt.Sprintf("- %s", reason))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "## Most Searched Expansions", "")
	if len(report.SearchExpansions) > 0 {
		lines = append(lines,
			"| Seed Keyword | Source | Suggestions |",
			"| --- | --- | --- |",
		)
		for _, expansion := range report.SearchExpansions {
			suggestions := make([]string, 0, len(expansion.Suggestions))
			for _, suggestion := range expansion.Suggestions {
				suggestions = append(suggestions, sanitizeCell(suggestion))
			}
			lines = append(lines, fmt.Sprintf(
				"| %s | %s | %s |",
				sanitizeCell(expansion.SeedKeyword),
				sanitizeCell(expansion.Source),
				orNA(strings.Join(suggestions, ", ")),
			))
		}
	} else {
		lines = append(lines, "No suggestion data available.")
	}

	lines = append(lines, "", "## Relevant Trend Signals", "")
	if len(report.TrendSignals) > 0 {
		lines = append(lines,
			"| Query | Rank | Approx Traffic | Relevance |",
			"| --- | ---: | --- | ---: |",
		)
		for _, trend := range report.TrendSignals {
			lines = append(lines, fmt.Sprintf(
				"| %s | %d | %s | %.2f |",
				sanitizeCell(trend.Query),
				trend.Rank,
				sanitizeCell(orNA(trend.ApproxTraffic)),
				trend.RelevanceScore,
			))
		}
	} else {
		lines = append(lines, "No relevant trends matched the current seed keywords.")
	}

	lines = append(lines, "", "## Sustained Trend Evidence", "")
	if len(report.SustainedTrendSignals) > 0 {
		lines = append(lines,
			"| Query | Direction | Sustained Score | Relevance | Recent Avg | Baseline Avg | Growth | Slope | Consistency | Points |",
			"| --- | --- | ---: | ---: | ---: | ---: | ---: | ---: | ---: | ---: |",
		)
		for _, signal := range report.SustainedTrendSignals {
			lines = append(lines, fmt.Sprintf(
				"| %s | %s | %.2f | %.2f | %.2f | %.2f | %.4f | %.4f | %.4f | %d |",
				sanitizeCell(signal.Query),
				sanitizeCell(signal.Direction),
				signal.SustainedScore,
				signal.StoreRelevance,
				signal.RecentAverage,
				signal.BaselineAverage,
				signal.GrowthRate,
				signal.SlopePerPoint,
				signal.ConsistencyRatio,
				signal.PointsCount,
			))
		}
	} else {
		lines = append(lines, "No sustained trend evidence available for this run.")
	}

	lines = append(lines, "", "## Collection Warnings", "")
	if len(report.Warnings) > 0 {
		for _, warning := range report.Warnings {
			lines = append(lines, fmt.Sprintf("- %s", warning))
		}
	} else {
		lines = append(lines, "- None.")
	}

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

// copyworthyRow is one row of the piece-target table.
type copyworthyRow struct {
	rankScore      float64
	piece          string
	keyword        string
	recommendation string
	hype           string
	demand         string
	trend          string
	marketplace    string
}

// appendCopyworthyTargets lists concrete listings worth modeling new pieces
// on, ranked by opportunity strength with sustained evidence weighted in.
func appendCopyworthyTargets(lines []string, report *models.ProductDiscoveryReport) []string {
	lines = append(lines,
		"",
		"## Copyworthy Piece Targets",
		"",
		"These are concept references to model directionally, not direct 1:1 copying.",
		"",
	)

	rows := rankCopyworthyRows(report.Opportunities)
	if len(rows) == 0 {
		lines = append(lines, "No copyworthy targets available from this run.")
		return lines
	}

	lines = append(lines,
		"| Piece Concept To Model | Opportunity | Recommendation | Hype Level | Demand Evidence | Trend Evidence | Source Marketplace |",
		"| --- | --- | --- | --- | --- | --- | --- |",
	)
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf(
			"| %s | %s | %s | %s | %s | %s | %s |",
			sanitizeCell(row.piece),
			sanitizeCell(row.keyword),
			sanitizeCell(row.recommendation),
			sanitizeCell(row.hype),
			sanitizeCell(row.demand),
			sanitizeCell(row.trend),
			sanitizeCell(row.marketplace),
		))
	}
	return lines
}

func rankCopyworthyRows(opportunities []models.ProductOpportunity) []copyworthyRow {
	rows := make([]copyworthyRow, 0, len(opportunities))
	for _, item := range opportunities {
		if item.InventoryRecommendation == models.RecommendReject {
			continue
		}
		snapshot, piece := bestSnapshotForKeyword(item.MarketplaceSnapshots, item.Keyword)
		if snapshot == nil || piece == "" {
			continue
		}

		demandEstimate := 0
		if snapshot.TotalResultsEstimate != nil {
			demandEstimate = *snapshot.TotalResultsEstimate
		}
		demandText := fmt.Sprintf("listed on %s", snapshot.Marketplace)
		if demandEstimate > 0 {
			demandText = fmt.Sprintf("%s listings on %s", phrase.GroupThousands(demandEstimate), snapshot.Marketplace)
		}
		trendText := fmt.Sprintf("Search score %.1f / 100", item.SearchScore)
		if item.SustainedTrendScore > 0 {
			trendText = fmt.Sprintf("Sustained score %.1f / 100", item.SustainedTrendScore)
		}

		rows = append(rows, copyworthyRow{
			rankScore:      item.ScoreTotal + item.SustainedTrendScore*0.35,
			piece:          piece,
			keyword:        item.Keyword,
			recommendation: item.InventoryRecommendation,
			hype:           hypeLevel(item.ScoreTotal, item.SustainedTrendScore, item.SearchScore),
			demand:         demandText,
			trend:          trendText,
			marketplace:    snapshot.Marketplace,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].rankScore > rows[j].rankScore })
	if len(rows) > 5 {
		rows = rows[:5]
	}
	return rows
}

// bestSnapshotForKeyword picks the sample product most relevant to the
// keyword, breaking ties by the snapshot's demand estimate. Falls back to the
// deepest marketplace when no sample matches at all.
func bestSnapshotForKeyword(snapshots []models.MarketplaceSnapshot, keyword string) (*models.MarketplaceSnapshot, string) {
	valid := make([]*models.MarketplaceSnapshot, 0, len(snapshots))
	for i := range snapshots {
		if snapshots[i].Status == models.SnapshotOK {
			valid = append(valid, &snapshots[i])
		}
	}
	if len(valid) == 0 {
		return nil, ""
	}

	keywordTokens := tokenSet(keyword)
	var bestSnapshot *models.MarketplaceSnapshot
	bestPiece := ""
	bestRelevance := -1.0
	bestDemand := -1

	for _, snapshot := range valid {
		demand := 0
		if snapshot.TotalResultsEstimate != nil {
			demand = *snapshot.TotalResultsEstimate
		}
		for _, piece := range snapshot.SampleProducts {
			relevance := pieceRelevance(piece, keywordTokens)
			if relevance > bestRelevance {
				bestRelevance = relevance
				bestDemand = demand
				bestSnapshot = snapshot
				bestPiece = piece
				continue
			}
			if relevance == bestRelevance && demand > bestDemand {
				bestDemand = demand
				bestSnapshot = snapshot
				bestPiece = piece
			}
		}
	}
	if bestSnapshot != nil && bestPiece != "" {
		return bestSnapshot, bestPiece
	}

	sort.SliceStable(valid, func(i, j int) bool {
		left, right := 0, 0
		if valid[i].TotalResultsEstimate != nil {
			left = *valid[i].TotalResultsEstimate
		}
		if valid[j].TotalResultsEstimate != nil {
			right = *valid[j].TotalResultsEstimate
		}
		return left > right
	})
	fallback := valid[0]
	if len(fallback.SampleProducts) == 0 {
		return fallback, ""
	}
	return fallback, fallback.SampleProducts[0]
}

func pieceRelevance(piece string, keywordTokens map[string]struct{}) float64 {
	if piece == "" || len(keywordTokens) == 0 {
		return 0.0
	}
	pieceTokens := tokenSet(piece)
	if len(pieceTokens) == 0 {
		return 0.0
	}
	overlap := 0
	for token := range pieceTokens {
		if _, ok := keywordTokens[token]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(keywordTokens))
}

func hypeLevel(totalScore, sustainedScore, searchScore float64) string {
	if sustainedScore >= 75 && totalScore >= 70 {
		return "Very High"
	}
	if sustainedScore >= 55 || (totalScore >= 60 && searchScore >= 70) {
		return "High"
	}
	if totalScore >= 45 {
		return "Medium"
	}
	return "Low"
}

func tokenSet(value string) map[string]struct{} {
	tokens := tokenRe.FindAllString(strings.ToLower(value), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func sanitizeCell(value string) string {
	return strings.TrimSpace(strings.ReplaceAll(value, "|", `\|`))
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "n/a"
	}
	return value
}
