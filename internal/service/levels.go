package service

import (
	"fmt"
	"sort"

	tmath "tradex-go/internal/math"
	"tradex-go/internal/model"
)

const (
	swingWindow      = 5
	clusterTolerance = 0.5 // percent
	nearLevelDefault = 2.0 // percent
	maxSwingsPerSide = 10
)

// SRLevels is the support/resistance picture for a symbol
type SRLevels struct {
	CurrentPrice      float64
	Pivot             float64
	SupportLevels     []float64
	ResistanceLevels  []float64
	NearestSupport    float64   // 0 when no level below price
	NearestResistance float64   // 0 when no level above price
}

// LevelsService detects support and resistance zones from daily bars:
// classic pivot points off the prior session combined with clustered
// swing highs/lows.
type LevelsService struct {
	data *MarketDataService
}

func NewLevelsService(data *MarketDataService) *LevelsService {
	return &LevelsService{data: data}
}

// GetLevels computes the S/R picture from 60 days of daily bars
func (s *LevelsService) GetLevels(symbol string) (*SRLevels, error) {
	bars, err := s.data.FetchDaily(symbol)
	if err != nil {
		return nil, fmt.Errorf("levels for %s: %w", symbol, err)
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("levels for %s: not enough daily bars", symbol)
	}

	// Pivots come from the prior completed session
	yesterday := bars[len(bars)-2]
	pivots := tmath.CalculateStandardPivots(yesterday.High, yesterday.Low, yesterday.Close)

	swingHighs, swingLows := FindSwingPoints(bars, swingWindow)
	if len(swingHighs) > maxSwingsPerSide {
		swingHighs = swingHighs[len(swingHighs)-maxSwingsPerSide:]
	}
	if len(swingLows) > maxSwingsPerSide {
		swingLows = swingLows[len(swingLows)-maxSwingsPerSide:]
	}

	resistance := ClusterLevels(append([]float64{pivots.R1, pivots.R2, pivots.R3}, swingHighs...), clusterTolerance)
	support := ClusterLevels(append([]float64{pivots.S1, pivots.S2, pivots.S3}, swingLows...), clusterTolerance)

	price := bars[len(bars)-1].Close
	levels := &SRLevels{
		CurrentPrice:     price,
		Pivot:            pivots.Pivot,
		SupportLevels:    support,
		ResistanceLevels: resistance,
	}
	for _, l := range support {
		if l < price && l > levels.NearestSupport {
			levels.NearestSupport = l
		}
	}
	for _, l := range resistance {
		if l > price && (levels.NearestResistance == 0 || l < levels.NearestResistance) {
			levels.NearestResistance = l
		}
	}
	return levels, nil
}

// IsNearSupport reports whether price sits within the threshold above a
// support zone, a favorable entry area
func (s *LevelsService) IsNearSupport(symbol string) (bool, *SRLevels) {
	levels, err := s.GetLevels(symbol)
	if err != nil || levels.NearestSupport == 0 {
		return false, levels
	}
	dist := (levels.CurrentPrice - levels.NearestSupport) / levels.CurrentPrice * 100
	return dist <= nearLevelDefault, levels
}

// IsNearResistance reports whether price sits within the threshold
// below a resistance zone, where fresh buys tend to stall
func (s *LevelsService) IsNearResistance(symbol string) (bool, *SRLevels) {
	levels, err := s.GetLevels(symbol)
	if err != nil || levels.NearestResistance == 0 {
		return false, levels
	}
	dist := (levels.NearestResistance - levels.CurrentPrice) / levels.CurrentPrice * 100
	return dist <= nearLevelDefault, levels
}

// FindSwingPoints returns swing highs and lows: bars whose high (low)
// exceeds (undercuts) every bar within the window on both sides
func FindSwingPoints(bars []model.Bar, window int) (swingHighs, swingLows []float64) {
	for i := window; i < len(bars)-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if bars[j].High >= bars[i].High {
				isHigh = false
			}
			if bars[j].Low <= bars[i].Low {
				isLow = false
			}
		}
		if isHigh {
			swingHighs = append(swingHighs, bars[i].High)
		}
		if isLow {
			swingLows = append(swingLows, bars[i].Low)
		}
	}
	return swingHighs, swingLows
}

// ClusterLevels merges nearby price levels into zones and returns one
// representative level per zone
func ClusterLevels(levels []float64, tolerancePct float64) []float64 {
	if len(levels) == 0 {
		return nil
	}
	sorted := append([]float64{}, levels...)
	sort.Float64s(sorted)

	var clusters []float64
	current := []float64{sorted[0]}
	for _, level := range sorted[1:] {
		last := current[len(current)-1]
		if last != 0 && (level-last)/last*100 <= tolerancePct {
			current = append(current, level)
			continue
		}
		clusters = append(clusters, mean(current))
		current = []float64{level}
	}
	clusters = append(clusters, mean(current))
	return clusters
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
