package math

// DefaultKellyCap caps the raw Kelly output when no cap is configured.
// Full Kelly is far too aggressive for a retail account regardless of
// how good the edge looks.
const DefaultKellyCap = 0.25

// CalculateOptimalF calculates the fraction of capital to risk using the
// Kelly formula: f* = (b*p - q) / b, where b is the win/loss ratio,
// p the win probability and q = 1 - p. The result is clamped to
// [0, cap]; a non-positive cap falls back to DefaultKellyCap.
func CalculateOptimalF(winRate, winLossRatio, cap float64) float64 {
	if winLossRatio <= 0 || winRate <= 0 || winRate >= 1 {
		return 0.0
	}
	if cap <= 0 {
		cap = DefaultKellyCap
	}

	b := winLossRatio
	p := winRate
	q := 1 - p

	optimalF := (b*p - q) / b

	if optimalF < 0 {
		return 0.0
	}
	if optimalF > cap {
		return cap
	}
	return optimalF
}

// ConservativeKelly returns the half-Kelly fraction for the given trade
// statistics. Half Kelly gives up a little growth for a large cut in variance.
func ConservativeKelly(winRate, avgWin, avgLoss, cap float64) float64 {
	if avgLoss <= 0 {
		return 0
	}
	return CalculateOptimalF(winRate, avgWin/avgLoss, cap) / 2.0
}
