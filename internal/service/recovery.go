package service

import (
	"log"
	"math"
	"runtime/debug"
)

// RecoverAndLog recovers from panic and logs it with context
func RecoverAndLog(context string) {
	if r := recover(); r != nil {
		log.Printf("❌ [PANIC RECOVERED] %s: %v\n%s", context, r, string(debug.Stack()))
	}
}

// ValidateFloat64 checks if a float64 is valid (not NaN or Inf)
func ValidateFloat64(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// ClampFloat64 clamps a value between min and max
func ClampFloat64(value, min, max float64) float64 {
	if !ValidateFloat64(value) {
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ValidatePrice checks if a price value is valid for trading
func ValidatePrice(price float64) bool {
	return ValidateFloat64(price) && price > 0 && price < 1e10
}
