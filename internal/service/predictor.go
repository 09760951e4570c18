package service

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/montanaflynn/stats"

	"tradex-go/internal/model"
)

const featureCount = 9

// PredictorService estimates the win probability of a prospective entry
// with a logistic classifier trained on closed trades. Until enough
// history exists the heuristic score keeps the gate well-defined.
type PredictorService struct {
	tradeLog   *TradeLogService
	modelPath  string
	minSamples int
	threshold  float64

	trained bool
	weights []float64
	bias    float64
	means   []float64
	stds    []float64
}

type predictorModel struct {
	Trained bool      `json:"trained"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Means   []float64 `json:"means"`
	Stds    []float64 `json:"stds"`
	Samples int       `json:"samples"`
}

func NewPredictorService(tradeLog *TradeLogService, dataDir string, minSamples int, threshold float64) *PredictorService {
	p := &PredictorService{
		tradeLog:   tradeLog,
		modelPath:  filepath.Join(dataDir, "ml_model.json"),
		minSamples: minSamples,
		threshold:  threshold,
	}
	p.loadModel()
	return p
}

func (p *PredictorService) loadModel() {
	data, err := os.ReadFile(p.modelPath)
	if err != nil {
		return
	}
	var m predictorModel
	if err := json.Unmarshal(data, &m); err != nil {
		log.Printf("⚠️ [Predictor] Corrupt model file, starting untrained: %v", err)
		return
	}
	if m.Trained && len(m.Weights) == featureCount && len(m.Means) == featureCount && len(m.Stds) == featureCount {
		p.trained = true
		p.weights = m.Weights
		p.bias = m.Bias
		p.means = m.Means
		p.stds = m.Stds
	}
}

func (p *PredictorService) saveModel(samples int) error {
	m := predictorModel{
		Trained: p.trained,
		Weights: p.weights,
		Bias:    p.bias,
		Means:   p.means,
		Stds:    p.stds,
		Samples: samples,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(p.modelPath, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Trained reports whether a fitted model is loaded
func (p *PredictorService) Trained() bool { return p.trained }

// extractFeatures builds the fixed feature vector used for both
// training and prediction
func extractFeatures(snap model.IndicatorSnapshot, at time.Time) []float64 {
	rsi := deref(snap.RSI, 50)
	macd := deref(snap.MACD, 0)
	macdSignal := deref(snap.MACDSig, 0)
	sma20 := deref(snap.SMA20, snap.Close)
	atr := deref(snap.ATR, 0)
	volumeAvg := math.Max(deref(snap.VolumeSMA, 1), 1)

	distSMA20 := 0.0
	if sma20 > 0 {
		distSMA20 = (snap.Close - sma20) / sma20 * 100
	}
	atrPct := 0.0
	if snap.Close > 0 {
		atrPct = atr / snap.Close * 100
	}

	return []float64{
		rsi,
		macd,
		macdSignal,
		macd - macdSignal,
		snap.Volume / volumeAvg,
		distSMA20,
		atrPct,
		float64(at.Hour()),
		float64(at.Weekday()),
	}
}

// trainingFeatures reconstructs a feature vector from a logged trade
// row. Fields the log does not carry stay at their neutral values.
func trainingFeatures(rec model.TradeRecord) []float64 {
	snap := model.IndicatorSnapshot{Close: rec.Price, Volume: 1}
	rsi, macd := rec.RSI, rec.MACD
	snap.RSI = &rsi
	snap.MACD = &macd
	if rec.SMA20 > 0 {
		sma20 := rec.SMA20
		snap.SMA20 = &sma20
	}
	one := 1.0
	snap.VolumeSMA = &one
	return extractFeatures(snap, rec.Timestamp)
}

// Train fits the classifier on the closed-trade history. Returns false
// without error when the sample is still too small.
func (p *PredictorService) Train() (bool, error) {
	trades, err := p.tradeLog.ReadTrades()
	if err != nil {
		return false, fmt.Errorf("load training data: %w", err)
	}

	var X [][]float64
	var y []float64
	for _, t := range trades {
		// Partial sells are realized outcomes too, the same closed set
		// the learning engine replays
		if t.Action != "SELL" && t.Action != "PARTIAL_SELL" {
			continue
		}
		X = append(X, trainingFeatures(t))
		if t.PnL > 0 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	if len(X) < p.minSamples {
		log.Printf("📊 [Predictor] Not enough data to train (%d/%d trades)", len(X), p.minSamples)
		return false, nil
	}

	log.Printf("📊 [Predictor] Training on %d trades...", len(X))

	// Standardize each feature column
	means := make([]float64, featureCount)
	stds := make([]float64, featureCount)
	for j := 0; j < featureCount; j++ {
		col := make([]float64, len(X))
		for i := range X {
			col[i] = X[i][j]
		}
		means[j], _ = stats.Mean(col)
		stds[j], _ = stats.StandardDeviation(col)
		if stds[j] < 1e-9 {
			stds[j] = 1
		}
	}

	scaled := make([][]float64, len(X))
	for i := range X {
		scaled[i] = make([]float64, featureCount)
		for j := 0; j < featureCount; j++ {
			scaled[i][j] = (X[i][j] - means[j]) / stds[j]
		}
	}

	// Logistic regression by batch gradient descent
	weights := make([]float64, featureCount)
	bias := 0.0
	const (
		learningRate = 0.1
		epochs       = 500
	)
	n := float64(len(scaled))
	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, featureCount)
		gradB := 0.0
		for i, row := range scaled {
			pred := sigmoid(dot(weights, row) + bias)
			errTerm := pred - y[i]
			for j := 0; j < featureCount; j++ {
				gradW[j] += errTerm * row[j]
			}
			gradB += errTerm
		}
		for j := 0; j < featureCount; j++ {
			weights[j] -= learningRate * gradW[j] / n
		}
		bias -= learningRate * gradB / n
	}

	// Training accuracy as a sanity check
	correct := 0
	for i, row := range scaled {
		pred := sigmoid(dot(weights, row) + bias)
		if (pred >= 0.5) == (y[i] == 1) {
			correct++
		}
	}
	log.Printf("📊 [Predictor] Model trained, accuracy %.1f%%", float64(correct)/n*100)

	p.trained = true
	p.weights = weights
	p.bias = bias
	p.means = means
	p.stds = stds

	if err := p.saveModel(len(X)); err != nil {
		return true, err
	}
	return true, nil
}

// Predict returns the win probability and a confidence measure of
// |probability - 0.5| * 2
func (p *PredictorService) Predict(snap model.IndicatorSnapshot, at time.Time) (probability, confidence float64) {
	if !p.trained {
		return heuristicPredict(snap)
	}

	features := extractFeatures(snap, at)
	z := p.bias
	for j := 0; j < featureCount; j++ {
		z += p.weights[j] * (features[j] - p.means[j]) / p.stds[j]
	}
	probability = sigmoid(z)
	confidence = math.Abs(probability-0.5) * 2
	return probability, confidence
}

// ShouldTakeTrade gates an entry on the predicted win probability
func (p *PredictorService) ShouldTakeTrade(snap model.IndicatorSnapshot, at time.Time) (bool, float64, float64) {
	probability, confidence := p.Predict(snap, at)
	return probability >= p.threshold, probability, confidence
}

// heuristicPredict is the rule-based score used before the model has
// enough trades to train: 0.5 midpoint nudged by the RSI zone and the
// MACD sign
func heuristicPredict(snap model.IndicatorSnapshot) (probability, confidence float64) {
	rsi := deref(snap.RSI, 50)
	macd := deref(snap.MACD, 0)
	macdSignal := deref(snap.MACDSig, 0)

	score := 0.5

	switch {
	case rsi >= 30 && rsi <= 40:
		score += 0.15 // good buy zone
	case rsi < 30:
		score += 0.1 // oversold
	case rsi > 70:
		score -= 0.15 // overbought
	}

	if macd > macdSignal {
		score += 0.1
	} else {
		score -= 0.1
	}

	score = ClampFloat64(score, 0, 1)
	return score, math.Abs(score-0.5) * 2
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
