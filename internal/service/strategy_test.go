package service

import (
	"reflect"
	"testing"

	"tradex-go/internal/model"
)

func fptr(v float64) *float64 { return &v }

func testParams(version string) StrategyParams {
	return StrategyParams{
		Version:           version,
		RSIOversold:       35,
		RSIOverbought:     70,
		RSIOverboughtV2SB: 80,
		RSIOverboughtV2B:  75,
		VolumeMultiplier:  1.0,
	}
}

// crossoverSnapshots builds a bullish SMA crossover with the given RSI
func crossoverSnapshots(rsi float64) (latest, prev model.IndicatorSnapshot) {
	prev = model.IndicatorSnapshot{
		Close:  99,
		Volume: 1000,
		SMA5:   fptr(99),
		SMA20:  fptr(100),
	}
	latest = model.IndicatorSnapshot{
		Close:     101,
		Volume:    2000,
		SMA5:      fptr(101),
		SMA20:     fptr(100),
		RSI:       fptr(rsi),
		MACD:      fptr(0.5),
		MACDSig:   fptr(0.2),
		VolumeSMA: fptr(1000),
	}
	return latest, prev
}

func TestEvaluateBarsWaitsWithoutHistory(t *testing.T) {
	s := NewStrategyService(testParams("V2"))

	bars := make([]model.Bar, 10)
	for i := range bars {
		bars[i] = model.Bar{Close: 100, High: 101, Low: 99, Volume: 1000}
	}

	sig := s.EvaluateBars("NIFTYBEES", bars, model.TrendStrongBullish)
	if sig.Type != model.SignalWait {
		t.Fatalf("Expected WAIT, got %s", sig.Type)
	}
	if len(sig.Reasons) != 1 || sig.Reasons[0] != "Insufficient data" {
		t.Errorf("Unexpected reasons: %v", sig.Reasons)
	}
}

func TestStrongBuyOnCrossover(t *testing.T) {
	s := NewStrategyService(testParams("V2"))
	latest, prev := crossoverSnapshots(32)

	sig := s.Evaluate("NIFTYBEES", latest, prev, model.TrendStrongBullish)
	if sig.Type != model.SignalStrongBuy {
		t.Fatalf("Expected STRONG_BUY, got %s (%v)", sig.Type, sig.Reasons)
	}
	if len(sig.Reasons) == 0 {
		t.Errorf("A signal must carry reasons")
	}
}

func TestV1StrongBuyOnCrossover(t *testing.T) {
	s := NewStrategyService(testParams("V1"))
	latest, prev := crossoverSnapshots(32)

	sig := s.Evaluate("NIFTYBEES", latest, prev, model.TrendBullish)
	if sig.Type != model.SignalStrongBuy {
		t.Fatalf("Expected STRONG_BUY, got %s (%v)", sig.Type, sig.Reasons)
	}
}

func TestV2RelaxedOverboughtCeiling(t *testing.T) {
	latest, prev := crossoverSnapshots(77)

	// V2 under a strong bullish trend allows RSI up to 80
	v2 := NewStrategyService(testParams("V2")).Evaluate("NIFTYBEES", latest, prev, model.TrendStrongBullish)
	if v2.Type != model.SignalBuy {
		t.Errorf("V2 expected BUY at RSI 77, got %s (%v)", v2.Type, v2.Reasons)
	}

	// V1 keeps the flat 70 ceiling
	v1 := NewStrategyService(testParams("V1")).Evaluate("NIFTYBEES", latest, prev, model.TrendStrongBullish)
	if v1.Type != model.SignalHold {
		t.Errorf("V1 expected HOLD at RSI 77, got %s (%v)", v1.Type, v1.Reasons)
	}
}

func TestSellOnCrossoverDown(t *testing.T) {
	s := NewStrategyService(testParams("V2"))

	prev := model.IndicatorSnapshot{
		Close: 101, Volume: 1000,
		SMA5: fptr(101), SMA20: fptr(100),
	}
	latest := model.IndicatorSnapshot{
		Close: 99, Volume: 1000,
		SMA5: fptr(99), SMA20: fptr(100),
		RSI:  fptr(45),
		MACD: fptr(-0.5), MACDSig: fptr(-0.2),
	}

	sig := s.Evaluate("NIFTYBEES", latest, prev, model.TrendNeutral)
	if sig.Type != model.SignalSell {
		t.Fatalf("Expected SELL, got %s (%v)", sig.Type, sig.Reasons)
	}
}

func TestSellOnBearishTrend(t *testing.T) {
	s := NewStrategyService(testParams("V2"))

	flat := model.IndicatorSnapshot{
		Close: 100, Volume: 1000,
		SMA5: fptr(100), SMA20: fptr(100),
		RSI:  fptr(50),
		MACD: fptr(-0.5), MACDSig: fptr(-0.2),
	}

	sig := s.Evaluate("NIFTYBEES", flat, flat, model.TrendBearish)
	if sig.Type != model.SignalSell {
		t.Fatalf("Expected SELL under a bearish trend, got %s (%v)", sig.Type, sig.Reasons)
	}
}

func TestHoldCarriesReasons(t *testing.T) {
	s := NewStrategyService(testParams("V2"))

	latest := model.IndicatorSnapshot{
		Close: 100, Volume: 1000,
		SMA5: fptr(99), SMA20: fptr(100),
		RSI:  fptr(50),
		MACD: fptr(0.5), MACDSig: fptr(0.2),
	}
	prev := latest

	sig := s.Evaluate("NIFTYBEES", latest, prev, model.TrendNeutral)
	if sig.Type != model.SignalHold {
		t.Fatalf("Expected HOLD, got %s (%v)", sig.Type, sig.Reasons)
	}
	if len(sig.Reasons) == 0 {
		t.Errorf("HOLD must explain itself")
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	s := NewStrategyService(testParams("V2"))
	latest, prev := crossoverSnapshots(32)

	a := s.Evaluate("NIFTYBEES", latest, prev, model.TrendStrongBullish)
	b := s.Evaluate("NIFTYBEES", latest, prev, model.TrendStrongBullish)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Same inputs produced different signals: %+v vs %+v", a, b)
	}
}
