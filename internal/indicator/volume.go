package indicator

// CalculateVolumeSMA calculates the Simple Moving Average of volume
func CalculateVolumeSMA(volumes []float64, period int) []float64 {
	return CalculateSMA(volumes, period)
}

// VolumeRatio returns current volume relative to its moving average.
// A ratio above 1 means above-average activity.
func VolumeRatio(volumes []float64, period int) float64 {
	if len(volumes) == 0 {
		return 0
	}
	avg := GetLastSMA(volumes, period)
	if avg <= 0 {
		return 0
	}
	return volumes[len(volumes)-1] / avg
}
