package engine

import (
	"testing"

	"demandflow/models"
)

func repeatValues(value, count int) []int {
	values := make([]int, count)
	for i := range values {
		values[i] = value
	}
	return values
}

func TestComputeSustainedMetricsAccelerating(t *testing.T) {
	values := append(repeatValues(10, 8), repeatValues(20, 8)...)
	metrics, ok := ComputeSustainedMetrics(values, sustainedRecentPoints, sustainedBaselinePoints)
	if !ok {
		t.Fatal("expected metrics for a 16-point series")
	}
	if metrics.PointsCount != 16 {
		t.Errorf("expected 16 points, got %d", metrics.PointsCount)
	}
	if metrics.RecentAverage != 20.0 || metrics.BaselineAverage != 10.0 {
		t.Errorf("unexpected averages: recent=%v baseline=%v", metrics.RecentAverage, metrics.BaselineAverage)
	}
	if metrics.GrowthRate != 1.0 {
		t.Errorf("expected growth rate 1.0, got %v", metrics.GrowthRate)
	}
	if metrics.SlopePerPoint <= 0 {
		t.Errorf("expected positive slope, got %v", metrics.SlopePerPoint)
	}
	if metrics.ConsistencyRatio != 1.0 {
		t.Errorf("expected consistency 1.0, got %v", metrics.ConsistencyRatio)
	}
	if metrics.Direction != models.DirectionAccelerating {
		t.Errorf("expected accelerating, got %q", metrics.Direction)
	}
	if metrics.SustainedScore != 100.0 {
		t.Errorf("expected maxed score, got %v", metrics.SustainedScore)
	}
}

func TestComputeSustainedMetricsDeclining(t *testing.T) {
	values := append(repeatValues(20, 8), repeatValues(10, 8)...)
	metrics, ok := ComputeSustainedMetrics(values, sustainedRecentPoints, sustainedBaselinePoints)
	if !ok {
		t.Fatal("expected metrics for a 16-point series")
	}
	if metrics.GrowthRate != -0.5 {
		t.Errorf("expected growth rate -0.5, got %v", metrics.GrowthRate)
	}
	if metrics.Direction != models.DirectionDeclining {
		t.Errorf("expected declining, got %q", metrics.Direction)
	}
	if metrics.SustainedScore >= 50.0 {
		t.Errorf("declining series should score below neutral, got %v", metrics.SustainedScore)
	}
}

func TestComputeSustainedMetricsFlat(t *testing.T) {
	metrics, ok := ComputeSustainedMetrics(repeatValues(50, 16), sustainedRecentPoints, sustainedBaselinePoints)
	if !ok {
		t.Fatal("expected metrics for a 16-point series")
	}
	if metrics.GrowthRate != 0.0 || metrics.SlopePerPoint != 0.0 {
		t.Errorf("flat series should have zero growth and slope: %+v", metrics)
	}
	if metrics.Direction != models.DirectionFlat {
		t.Errorf("expected flat, got %q", metrics.Direction)
	}
}

func TestComputeSustainedMetricsLowBaselineUsesFloor(t *testing.T) {
	values := append(repeatValues(2, 8), repeatValues(12, 8)...)
	metrics, ok := ComputeSustainedMetrics(values, sustainedRecentPoints, sustainedBaselinePoints)
	if !ok {
		t.Fatal("expected metrics for a 16-point series")
	}
	// Baseline average 2 is below the denominator floor of 10.
	if metrics.GrowthRate != 1.0 {
		t.Errorf("expected floored growth rate 1.0, got %v", metrics.GrowthRate)
	}
}

func TestComputeSustainedMetricsTooShort(t *testing.T) {
	if _, ok := ComputeSustainedMetrics(repeatValues(10, 15), sustainedRecentPoints, sustainedBaselinePoints); ok {
		t.Error("expected no metrics for a series shorter than both windows")
	}
}

func TestClassifyDirectionTotality(t *testing.T) {
	known := map[string]struct{}{
		models.DirectionAccelerating: {},
		models.DirectionSteadyUp:     {},
		models.DirectionDeclining:    {},
		models.DirectionFlat:         {},
	}
	growths := []float64{-1.0, -0.1, 0.0, 0.05, 0.2, 1.0}
	slopes := []float64{-0.5, -0.05, 0.0, 0.03, 0.1, 0.5}
	consistencies := []float64{0.0, 0.5, 0.6, 1.0}
	for _, growth := range growths {
		for _, slope := range slopes {
			for _, consistency := range consistencies {
				direction := classifyDirection(growth, slope, consistency)
				if _, ok := known[direction]; !ok {
					t.Fatalf("unknown direction %q for growth=%v slope=%v consistency=%v",
						direction, growth, slope, consistency)
				}
			}
		}
	}
}
