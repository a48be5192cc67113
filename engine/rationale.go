package engine

import (
	"fmt"
	"sort"
	"strings"

	"demandflow/internal/phrase"
	"demandflow/models"
)

// buildRationale produces the human-readable explanation lines for one
// opportunity, in a fixed order so reports diff cleanly between runs.
func buildRationale(candidate *Candidate, snapshots []models.MarketplaceSnapshot, recommendation string, qualityFitScore float64) []string {
	rationale := make([]string, 0, 8)
	rationale = append(rationale, fmt.Sprintf("Signal sources: %s.", strings.Join(candidate.SourceNames(), ", ")))

	if candidate.TrendHits > 0 {
		rationale = append(rationale, "Detected in Google Trends RSS with relevance to your store profile.")
	}
	if candidate.SustainedDirection != "" {
		rationale = append(rationale, fmt.Sprintf(
			"Sustained trend direction over time-series data: %s.", candidate.SustainedDirection))
	}

	available := make([]string, 0, len(snapshots))
	for _, snapshot := range snapshots {
		if snapshot.Status == models.SnapshotOK &&
			snapshot.TotalResultsEstimate != nil && *snapshot.TotalResultsEstimate > 0 {
			available = append(available, snapshot.Marketplace)
		}
	}
	if len(available) > 0 {
		sort.Strings(available)
		rationale = append(rationale, fmt.Sprintf("Active marketplace coverage: %s.", strings.Join(available, ", ")))
	}

	if strongest := bestSnapshot(snapshots); strongest != nil {
		if strongest.TotalResultsEstimate != nil {
			rationale = append(rationale, fmt.Sprintf(
				"Highest marketplace inventory signal on %s: %s estimated results.",
				strongest.Marketplace, phrase.GroupThousands(*strongest.TotalResultsEstimate)))
		}
		if len(strongest.SampleProducts) > 0 {
			rationale = append(rationale, fmt.Sprintf("Sample listing signal: %s.", strongest.SampleProducts[0]))
		}
	}

	rationale = append(rationale, fmt.Sprintf("Quality fit score: %.1f/100.", qualityFitScore))
	rationale = append(rationale, fmt.Sprintf("Inventory recommendation: %s.", recommendation))
	return rationale
}

// bestSnapshot picks the successful snapshot with the highest result count.
func bestSnapshot(snapshots []models.MarketplaceSnapshot) *models.MarketplaceSnapshot {
	var best *models.MarketplaceSnapshot
	for i := range snapshots {
		snapshot := &snapshots[i]
		if snapshot.Status != models.SnapshotOK || snapshot.TotalResultsEstimate == nil {
			continue
		}
		if best == nil || *snapshot.TotalResultsEstimate > *best.TotalResultsEstimate {
			best = snapshot
		}
	}
	return best
}
