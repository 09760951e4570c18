package service

import (
	"fmt"
	"math"

	"tradex-go/internal/indicator"
	"tradex-go/internal/model"
)

// StrategyParams are the tunable thresholds of the signal state machine.
// They are copied out of config at construction so evaluation is a pure
// function of its inputs.
type StrategyParams struct {
	Version           string // "V1" conservative, "V2" aggressive
	RSIOversold       float64
	RSIOverbought     float64
	RSIOverboughtV2SB float64
	RSIOverboughtV2B  float64
	VolumeMultiplier  float64
}

// StrategyService turns indicator snapshots plus a trend label into a
// trade signal with human-readable reasons
type StrategyService struct {
	params StrategyParams
}

func NewStrategyService(params StrategyParams) *StrategyService {
	return &StrategyService{params: params}
}

// EvaluateBars runs the state machine over raw bar history
func (s *StrategyService) EvaluateBars(symbol string, bars []model.Bar, trend model.TrendLabel) model.Signal {
	latest, prev, ok := indicator.LastTwo(bars)
	if !ok {
		return model.Signal{
			Symbol:  symbol,
			Type:    model.SignalWait,
			Reasons: []string{"Insufficient data"},
			Trend:   trend,
		}
	}
	return s.Evaluate(symbol, latest, prev, trend)
}

// Evaluate is the signal state machine proper. It never mutates its
// inputs and always returns at least one reason.
func (s *StrategyService) Evaluate(symbol string, latest, prev model.IndicatorSnapshot, trend model.TrendLabel) model.Signal {
	p := s.params

	sma5Now := deref(latest.SMA5, latest.Close)
	sma20Now := deref(latest.SMA20, latest.Close)
	sma5Prev := deref(prev.SMA5, prev.Close)
	sma20Prev := deref(prev.SMA20, prev.Close)
	rsi := deref(latest.RSI, 50)
	macd := deref(latest.MACD, 0)
	macdSignal := deref(latest.MACDSig, macd)
	volume := latest.Volume
	volumeAvg := deref(latest.VolumeSMA, 0)
	close := latest.Close
	bbLower := deref(latest.BBLower, 0)

	// Entry predicates shared by both rule tables
	smaCrossoverBuy := sma5Prev < sma20Prev && sma5Now > sma20Now
	smaCrossoverSell := sma5Prev > sma20Prev && sma5Now < sma20Now
	rsiOversold := rsi < p.RSIOversold
	rsiOK := rsi < p.RSIOverbought
	macdBullish := macd > macdSignal
	macdBearish := macd < macdSignal
	volumeOK := volumeAvg > 0 && volume > volumeAvg*p.VolumeMultiplier
	nearBBLower := bbLower > 0 && close <= bbLower*1.02

	// Pullback entries inside an established uptrend
	alreadyUptrend := sma5Now > sma20Now
	priceAboveSMA20 := close > sma20Now
	rsiPullback := rsi < 50
	rsiPullbackStrong := rsi < 40

	mtfBullish := trend == model.TrendStrongBullish || trend == model.TrendBullish
	mtfStrongBullish := trend == model.TrendStrongBullish
	mtfNeutral := trend == model.TrendNeutral
	mtfBearish := trend == model.TrendBearish

	signal := func(t model.SignalType, reasons ...string) model.Signal {
		return model.Signal{Symbol: symbol, Type: t, Reasons: reasons, Trend: trend}
	}

	// V1: conservative entries, plain overbought ceiling everywhere
	if p.Version == "V1" && mtfBullish {
		if smaCrossoverBuy && rsiOversold && macdBullish && volumeOK {
			return signal(model.SignalStrongBuy,
				"SMA Crossover", "RSI Oversold", "MACD Bullish", "Volume", "MTF Bullish")
		}
		if smaCrossoverBuy && rsiOK && macdBullish {
			return signal(model.SignalBuy,
				"SMA Crossover", "RSI OK", "MACD Bullish", "MTF Bullish")
		}
		if nearBBLower && rsiOversold && macdBullish {
			return signal(model.SignalBuy,
				"Near BB Lower", "RSI Oversold", "MACD Bullish", "MTF Bullish")
		}
		if alreadyUptrend && priceAboveSMA20 && rsiPullbackStrong && macdBullish {
			return signal(model.SignalStrongBuy,
				"Momentum Entry", "Uptrend Pullback", fmt.Sprintf("RSI Pullback (%.1f < 40)", rsi),
				"MACD Bullish", "MTF Bullish")
		}
		if alreadyUptrend && priceAboveSMA20 && rsiPullback && macdBullish {
			return signal(model.SignalBuy,
				"Momentum Entry", "Uptrend Pullback", fmt.Sprintf("RSI Pullback (%.1f < 50)", rsi),
				"MACD Bullish", "MTF Bullish")
		}
	}

	if p.Version == "V2" {
		if mtfStrongBullish {
			// Reversal entry: very oversold while still above support
			if !alreadyUptrend && rsi < 30 && priceAboveSMA20 && (macdBullish || volumeOK) {
				return signal(model.SignalStrongBuy,
					"Reversal Entry", "STRONG_BULLISH MTF",
					fmt.Sprintf("RSI Very Oversold (%.1f < 30)", rsi), "Price Above SMA20")
			}
			if smaCrossoverBuy && rsiOversold && macdBullish && volumeOK {
				return signal(model.SignalStrongBuy,
					"SMA Crossover", "RSI Oversold", "MACD Bullish", "Volume", "MTF STRONG_BULLISH")
			}
			if smaCrossoverBuy && rsi < p.RSIOverboughtV2SB && macdBullish {
				return signal(model.SignalBuy,
					"SMA Crossover", fmt.Sprintf("RSI OK (%.1f < %.0f)", rsi, p.RSIOverboughtV2SB),
					"MACD Bullish", "MTF STRONG_BULLISH")
			}
			if nearBBLower && rsiOversold && macdBullish {
				return signal(model.SignalBuy,
					"Near BB Lower", "RSI Oversold", "MACD Bullish", "MTF STRONG_BULLISH")
			}
			// MACD lags at deep oversold readings, volume confirms instead
			if rsi < 30 && priceAboveSMA20 && volumeOK {
				if macdBullish {
					return signal(model.SignalStrongBuy,
						"Oversold Entry", "STRONG_BULLISH MTF",
						fmt.Sprintf("RSI Very Oversold (%.1f < 30)", rsi), "MACD Bullish", "Volume")
				}
				if !macdBearish || math.Abs(macd-macdSignal) < 0.1 {
					return signal(model.SignalBuy,
						"Oversold Entry", "STRONG_BULLISH MTF",
						fmt.Sprintf("RSI Very Oversold (%.1f < 30)", rsi), "MACD Neutral", "Volume")
				}
			}
			if alreadyUptrend && priceAboveSMA20 && rsiPullbackStrong {
				if macdBullish {
					return signal(model.SignalStrongBuy,
						"Momentum Entry", "STRONG_BULLISH Uptrend",
						fmt.Sprintf("RSI Pullback (%.1f < 40)", rsi), "MACD Bullish")
				}
				if rsi < 35 {
					return signal(model.SignalBuy,
						"Momentum Entry", "STRONG_BULLISH Uptrend",
						fmt.Sprintf("RSI Very Oversold (%.1f < 35)", rsi), "MACD Neutral")
				}
			}
			if alreadyUptrend && priceAboveSMA20 && rsiPullback && macdBullish {
				return signal(model.SignalBuy,
					"Momentum Entry", "STRONG_BULLISH Uptrend",
					fmt.Sprintf("RSI Pullback (%.1f < 50)", rsi), "MACD Bullish")
			}
		}

		if mtfBullish {
			if !alreadyUptrend && rsi < 30 && priceAboveSMA20 && volumeOK {
				if macdBullish {
					return signal(model.SignalStrongBuy,
						"Reversal Entry", "BULLISH MTF",
						fmt.Sprintf("RSI Very Oversold (%.1f < 30)", rsi),
						"Price Above SMA20", "MACD Bullish", "Volume")
				}
				return signal(model.SignalBuy,
					"Reversal Entry", "BULLISH MTF",
					fmt.Sprintf("RSI Very Oversold (%.1f < 30)", rsi), "Price Above SMA20", "Volume")
			}
			if smaCrossoverBuy && rsiOversold && macdBullish && volumeOK {
				return signal(model.SignalStrongBuy,
					"SMA Crossover", "RSI Oversold", "MACD Bullish", "Volume", "MTF Bullish")
			}
			if smaCrossoverBuy && rsi < p.RSIOverboughtV2B && macdBullish {
				return signal(model.SignalBuy,
					"SMA Crossover", fmt.Sprintf("RSI OK (%.1f < %.0f)", rsi, p.RSIOverboughtV2B),
					"MACD Bullish", "MTF Bullish")
			}
			if rsi < 30 && priceAboveSMA20 && volumeOK {
				return signal(model.SignalBuy,
					"Oversold Entry", "BULLISH MTF",
					fmt.Sprintf("RSI Very Oversold (%.1f < 30)", rsi), "Volume", "Price Above SMA20")
			}
			if alreadyUptrend && priceAboveSMA20 && rsiPullbackStrong && macdBullish {
				return signal(model.SignalStrongBuy,
					"Momentum Entry", "BULLISH Uptrend",
					fmt.Sprintf("RSI Pullback (%.1f < 40)", rsi), "MACD Bullish")
			}
			if alreadyUptrend && priceAboveSMA20 && rsiPullback && macdBullish {
				return signal(model.SignalBuy,
					"Momentum Entry", "BULLISH Uptrend",
					fmt.Sprintf("RSI Pullback (%.1f < 50)", rsi), "MACD Bullish")
			}
		}

		// NEUTRAL trend only admits deep oversold setups
		if mtfNeutral {
			if smaCrossoverBuy && rsiOversold && macdBullish && volumeOK {
				return signal(model.SignalBuy,
					"SMA Crossover", "RSI Oversold", "MACD Bullish", "Volume", "MTF NEUTRAL Oversold Entry")
			}
			if nearBBLower && rsiOversold && macdBullish {
				return signal(model.SignalBuy,
					"Near BB Lower", "RSI Oversold", "MACD Bullish", "MTF NEUTRAL Oversold Entry")
			}
			if alreadyUptrend && priceAboveSMA20 && rsiOversold && macdBullish {
				return signal(model.SignalBuy,
					"Momentum Entry", "NEUTRAL MTF Uptrend",
					fmt.Sprintf("RSI Oversold (%.1f < %.0f)", rsi, p.RSIOversold), "MACD Bullish")
			}
		}
	}

	// Sell conditions apply in both versions
	if smaCrossoverSell && macdBearish {
		return signal(model.SignalSell, "SMA Crossover Down", "MACD Bearish")
	}
	if mtfBearish && macdBearish {
		return signal(model.SignalSell, "MTF Bearish", "MACD Bearish")
	}

	// Explain why no trade fired
	var holdReasons []string
	if p.Version == "V1" {
		if !mtfBullish {
			holdReasons = append(holdReasons, fmt.Sprintf("MTF: %s (waiting for bullish)", trend))
		}
		if !smaCrossoverBuy {
			if alreadyUptrend {
				holdReasons = append(holdReasons, "Uptrend (waiting for entry)")
			} else {
				holdReasons = append(holdReasons, "Downtrend (no buy)")
			}
		}
		if rsi > p.RSIOverbought {
			holdReasons = append(holdReasons, fmt.Sprintf("RSI Overbought (%.1f)", rsi))
		}
		if !macdBullish {
			holdReasons = append(holdReasons, "MACD Bearish")
		}
	} else {
		switch {
		case mtfBearish:
			holdReasons = append(holdReasons, fmt.Sprintf("MTF: %s (only BEARISH blocks)", trend))
		case mtfNeutral && !rsiOversold:
			holdReasons = append(holdReasons, fmt.Sprintf("MTF: %s (waiting for oversold RSI < %.0f)", trend, p.RSIOversold))
		case mtfStrongBullish && rsi > p.RSIOverboughtV2SB:
			holdReasons = append(holdReasons, fmt.Sprintf("RSI Overbought (%.1f > %.0f)", rsi, p.RSIOverboughtV2SB))
		case mtfBullish && rsi > p.RSIOverboughtV2B:
			holdReasons = append(holdReasons, fmt.Sprintf("RSI Overbought (%.1f > %.0f)", rsi, p.RSIOverboughtV2B))
		}
		if !smaCrossoverBuy {
			if alreadyUptrend {
				holdReasons = append(holdReasons, "Uptrend (waiting for entry)")
			} else {
				holdReasons = append(holdReasons, "Downtrend (no buy)")
			}
		}
		if !macdBullish {
			holdReasons = append(holdReasons, "MACD Bearish")
		}
	}

	if len(holdReasons) == 0 {
		holdReasons = []string{"No signal"}
	}
	return signal(model.SignalHold, holdReasons...)
}

func deref(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
