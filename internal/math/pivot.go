package math

// PivotPoints holds the classic floor-trader pivot levels derived from
// a completed session
type PivotPoints struct {
	Pivot float64
	R1    float64
	R2    float64
	R3    float64
	S1    float64
	S2    float64
	S3    float64
}

// CalculateStandardPivots calculates standard pivot points from the
// prior session's high, low and close
func CalculateStandardPivots(high, low, close float64) PivotPoints {
	pivot := (high + low + close) / 3.0

	return PivotPoints{
		Pivot: pivot,
		R1:    (2 * pivot) - low,
		R2:    pivot + (high - low),
		R3:    high + 2*(pivot-low),
		S1:    (2 * pivot) - high,
		S2:    pivot - (high - low),
		S3:    low - 2*(high-pivot),
	}
}
