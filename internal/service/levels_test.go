package service

import (
	"math"
	"testing"

	"tradex-go/internal/model"
)

func TestClusterLevelsMergesNearbyZones(t *testing.T) {
	got := ClusterLevels([]float64{100, 100.3, 105}, 0.5)
	want := []float64{100.15, 105}
	if len(got) != len(want) {
		t.Fatalf("Expected %d clusters, got %v", len(want), got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Cluster %d: expected %.2f, got %.4f", i, want[i], got[i])
		}
	}

	if got := ClusterLevels(nil, 0.5); got != nil {
		t.Errorf("Expected nil for empty input, got %v", got)
	}
}

func TestClusterLevelsSortsInput(t *testing.T) {
	got := ClusterLevels([]float64{105, 100.3, 100}, 0.5)
	if len(got) != 2 {
		t.Fatalf("Expected 2 clusters, got %v", got)
	}
	if math.Abs(got[0]-100.15) > 1e-9 || math.Abs(got[1]-105) > 1e-9 {
		t.Errorf("Expected [100.15, 105], got %v", got)
	}
}

func TestFindSwingPoints(t *testing.T) {
	bars := []model.Bar{
		{High: 10, Low: 9},
		{High: 11, Low: 8},
		{High: 15, Low: 4},
		{High: 12, Low: 7},
		{High: 10, Low: 9},
	}
	highs, lows := FindSwingPoints(bars, 2)
	if len(highs) != 1 || highs[0] != 15 {
		t.Errorf("Expected swing high [15], got %v", highs)
	}
	if len(lows) != 1 || lows[0] != 4 {
		t.Errorf("Expected swing low [4], got %v", lows)
	}
}

func TestFindSwingPointsRequiresStrictExtreme(t *testing.T) {
	// Flat highs never qualify as a swing
	bars := []model.Bar{
		{High: 10, Low: 5},
		{High: 10, Low: 5},
		{High: 10, Low: 5},
		{High: 10, Low: 5},
		{High: 10, Low: 5},
	}
	highs, lows := FindSwingPoints(bars, 2)
	if len(highs) != 0 || len(lows) != 0 {
		t.Errorf("Expected no swings on a flat series, got %v / %v", highs, lows)
	}
}

func TestFindSwingPointsShortSeries(t *testing.T) {
	bars := []model.Bar{{High: 10, Low: 9}, {High: 11, Low: 8}}
	highs, lows := FindSwingPoints(bars, 5)
	if highs != nil || lows != nil {
		t.Errorf("Expected no swings for a series shorter than the window")
	}
}
