package engine

import (
	"strings"

	"demandflow/models"
)

// scoreMarketplaceSnapshots condenses a keyword's marketplace snapshots into
// one component score: how many marketplaces carry inventory, how deep that
// inventory runs on a log scale, and how many sample listings were captured.
func scoreMarketplaceSnapshots(snapshots []models.MarketplaceSnapshot) float64 {
	coverageCount := 0
	resultSignal := 0.0
	sampleCount := 0

	for _, snapshot := range snapshots {
		if snapshot.Status != models.SnapshotOK {
			continue
		}
		if snapshot.TotalResultsEstimate != nil && *snapshot.TotalResultsEstimate > 0 {
			coverageCount++
			capped := *snapshot.TotalResultsEstimate
			if capped > marketplaceResultCap {
				capped = marketplaceResultCap
			}
			resultSignal += logScaled(capped)
		}
		sampleCount += len(snapshot.SampleProducts)
	}

	score := float64(coverageCount)*marketplaceCoverageWeight +
		resultSignal*marketplaceResultsWeight +
		float64(sampleCount)*marketplaceSampleTitlesWeight
	return clamp(score, 0.0, componentScoreCap)
}

// scoreQualityFit rates how a keyword's wording matches the store's
// positioning. Quality-positioned stores take the negative token penalty
// twice.
func scoreQualityFit(keyword, positioningMode string) float64 {
	lower := strings.ToLower(keyword)
	score := qualityScoreBaseline
	for _, token := range qualityPositiveTokens {
		if strings.Contains(lower, token) {
			score += qualityPositiveTokenBoost
		}
	}
	for _, token := range qualityNegativeTokens {
		if strings.Contains(lower, token) {
			score -= qualityNegativeTokenPenalty
		}
	}
	if positioningMode == models.PositioningQuality {
		for _, token := range qualityNegativeTokens {
			if strings.Contains(lower, token) {
				score -= qualityNegativeTokenPenalty
			}
		}
	}
	return clamp(score, qualityScoreMin, qualityScoreMax)
}

// inventoryRecommendation maps the component scores onto an action tier. The
// quality gates only apply to quality-positioned stores.
func inventoryRecommendation(totalScore, sustainedScore, marketplaceScore, qualityFitScore float64, positioningMode string) string {
	qualityRequired := positioningMode == models.PositioningQuality

	addNowQualityOK := !qualityRequired || qualityFitScore >= addNowQualityMin
	if totalScore >= addNowTotalMin &&
		sustainedScore >= addNowSustainedMin &&
		marketplaceScore >= addNowMarketplaceMin &&
		addNowQualityOK {
		return models.RecommendAddNow
	}

	testQualityOK := !qualityRequired || qualityFitScore >= testBatchQualityMin
	if totalScore >= testBatchTotalMin && sustainedScore >= testBatchSustainedMin && testQualityOK {
		return models.RecommendTestSmallBatch
	}

	if totalScore >= watchlistTotalMin {
		return models.RecommendWatchlist
	}
	return models.RecommendReject
}
