package engine

import "demandflow/models"

// SustainedMetrics summarizes a keyword's interest timeseries: how the recent
// window compares to the baseline window, the overall slope, and how
// consistently the series moves up.
type SustainedMetrics struct {
	PointsCount      int
	RecentAverage    float64
	BaselineAverage  float64
	GrowthRate       float64
	SlopePerPoint    float64
	ConsistencyRatio float64
	SustainedScore   float64
	Direction        string
}

// ComputeSustainedMetrics derives the sustained trend metrics from a value
// series, oldest first. Returns false when the series is too short to split
// into baseline and recent windows.
func ComputeSustainedMetrics(values []int, recentPoints, baselinePoints int) (SustainedMetrics, bool) {
	if len(values) < recentPoints+baselinePoints {
		return SustainedMetrics{}, false
	}

	recentSlice := values[len(values)-recentPoints:]
	baselineSlice := values[len(values)-recentPoints-baselinePoints : len(values)-recentPoints]
	if len(baselineSlice) == 0 {
		return SustainedMetrics{}, false
	}

	recentAverage := mean(recentSlice)
	baselineAverage := mean(baselineSlice)
	denominator := baselineAverage
	if denominator < sustainedBaselineFloor {
		denominator = sustainedBaselineFloor
	}
	growthRate := (recentAverage - baselineAverage) / denominator
	slopePerPoint := linearSlope(values)
	consistency := stepConsistency(values)

	return SustainedMetrics{
		PointsCount:      len(values),
		RecentAverage:    recentAverage,
		BaselineAverage:  baselineAverage,
		GrowthRate:       growthRate,
		SlopePerPoint:    slopePerPoint,
		ConsistencyRatio: consistency,
		SustainedScore:   scoreSustainedMetrics(growthRate, slopePerPoint, consistency),
		Direction:        classifyDirection(growthRate, slopePerPoint, consistency),
	}, true
}

// scoreSustainedMetrics normalizes each metric onto [-1, 1] against its
// strong anchor, combines them, and rescales the weighted sum onto [0, 100].
func scoreSustainedMetrics(growthRate, slopePerPoint, consistencyRatio float64) float64 {
	growthNormalized := clamp(growthRate/sustainedGrowthStrong, -1.0, 1.0)
	slopeNormalized := clamp(slopePerPoint/sustainedSlopeStrong, -1.0, 1.0)
	consistencyNormalized := clamp((consistencyRatio-0.5)/0.5, -1.0, 1.0)
	weighted := growthNormalized*sustainedGrowthWeight +
		slopeNormalized*sustainedSlopeWeight +
		consistencyNormalized*sustainedConsistencyWeight
	raw := ((weighted + 1.0) / 2.0) * componentScoreCap
	return clamp(raw, 0.0, componentScoreCap)
}

// classifyDirection buckets the metrics into one direction. The checks run
// strongest to weakest so every input lands in exactly one bucket.
func classifyDirection(growthRate, slopePerPoint, consistencyRatio float64) string {
	if growthRate >= acceleratingGrowthMin &&
		slopePerPoint >= acceleratingSlopeMin &&
		consistencyRatio >= acceleratingConsistencyMin {
		return models.DirectionAccelerating
	}
	if growthRate >= steadyGrowthMin && slopePerPoint >= steadySlopeMin {
		return models.DirectionSteadyUp
	}
	if growthRate <= decliningGrowthMax || slopePerPoint <= decliningSlopeMax {
		return models.DirectionDeclining
	}
	return models.DirectionFlat
}

// linearSlope is the ordinary least squares slope of value against index.
func linearSlope(values []int) float64 {
	count := len(values)
	if count < 2 {
		return 0.0
	}
	xMean := float64(count-1) / 2.0
	yMean := mean(values)
	numerator := 0.0
	denominator := 0.0
	for index, value := range values {
		xDelta := float64(index) - xMean
		numerator += xDelta * (float64(value) - yMean)
		denominator += xDelta * xDelta
	}
	if denominator <= 0 {
		return 0.0
	}
	return numerator / denominator
}

// stepConsistency is the share of steps that do not decrease. Series too
// short to have steps sit at the neutral 0.5.
func stepConsistency(values []int) float64 {
	if len(values) < 2 {
		return 0.5
	}
	nonDecreasing := 0
	for i := 1; i < len(values); i++ {
		if values[i] >= values[i-1] {
			nonDecreasing++
		}
	}
	return float64(nonDecreasing) / float64(len(values)-1)
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0
	for _, value := range values {
		sum += value
	}
	return float64(sum) / float64(len(values))
}
