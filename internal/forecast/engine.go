// Package forecast implements the temperature forecasting pipeline: rolling
// feature extraction, an online ridge regression fit, recursive multi-step
// projection, and breach classification against the safe range.
package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// rampStep is the per-step increment of the naive fallback forecast.
	rampStep = 0.05
	// minAccuracyPct floors the reported accuracy figure. It is a display
	// heuristic derived from training MAE, not calibrated forecast skill.
	minAccuracyPct = 75.0
	// diurnalShift is applied per the wall-clock hour at forecast time.
	diurnalShift = 0.05
)

// Config exposes every tunable of the forecasting pipeline. Defaults mirror
// the product's fixed 2-hour horizon at 5-minute sampling.
type Config struct {
	SafeMin         float64
	SafeMax         float64
	HorizonMinutes  int
	SampleInterval  int // minutes between forecast steps
	SmoothingAlpha  float64
	WarningMargin   float64
	RidgeLambda     float64
	MinHistory      int // readings required to attempt a model fit
	MinAfterLag     int // smoothed points required beyond the lag window
	MaxLag          int
}

// DefaultConfig returns the product defaults.
func DefaultConfig() Config {
	return Config{
		SafeMin:        2.0,
		SafeMax:        8.0,
		HorizonMinutes: 120,
		SampleInterval: 5,
		SmoothingAlpha: 0.3,
		WarningMargin:  0.5,
		RidgeLambda:    1.0,
		MinHistory:     20,
		MinAfterLag:    5,
		MaxLag:         12,
	}
}

// Steps is the number of predicted points per forecast.
func (c Config) Steps() int {
	return c.HorizonMinutes / c.SampleInterval
}

// Result carries one forecast. Predictions is nil when no prediction is
// available, which callers must treat as "cannot assess risk", never as
// "no risk".
type Result struct {
	Predictions []float64
	ElapsedMS   float64
	AccuracyPct float64
}

// Available reports whether the forecast produced predictions.
func (r Result) Available() bool {
	return len(r.Predictions) > 0
}

// Engine fits a fresh model per call; it holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	cfg Config
	now func() time.Time
}

// NewEngine constructs an engine on the real clock.
func NewEngine(cfg Config) *Engine {
	return NewEngineAt(cfg, time.Now)
}

// NewEngineAt constructs an engine with an injected clock. The diurnal
// adjustment depends on the clock hour, so tests pin it for determinism.
func NewEngineAt(cfg Config, now func() time.Time) *Engine {
	return &Engine{cfg: cfg, now: now}
}

// Forecast projects the temperature series over the configured horizon.
// Temperatures are ordered oldest first. Sparse histories fall back to a
// naive linear ramp; histories too short to window return no prediction.
// Numerical fit failures also degrade to no prediction rather than an error.
func (e *Engine) Forecast(temps []float64) Result {
	start := time.Now()
	steps := e.cfg.Steps()

	if len(temps) < e.cfg.MinHistory {
		if len(temps) == 0 {
			return Result{ElapsedMS: elapsedMS(start), AccuracyPct: minAccuracyPct}
		}
		last := temps[len(temps)-1]
		preds := make([]float64, steps)
		for i := range preds {
			preds[i] = last + float64(i+1)*rampStep
		}
		return Result{Predictions: preds, ElapsedMS: elapsedMS(start), AccuracyPct: minAccuracyPct}
	}

	smoothed := Smooth(temps, e.cfg.SmoothingAlpha)

	lag := e.cfg.MaxLag
	if alt := len(smoothed) / 3; alt < lag {
		lag = alt
	}
	if len(smoothed) < lag+e.cfg.MinAfterLag {
		return Result{ElapsedMS: elapsedMS(start), AccuracyPct: minAccuracyPct}
	}

	features, err := Extract(smoothed, lag)
	if err != nil {
		return Result{ElapsedMS: elapsedMS(start), AccuracyPct: minAccuracyPct}
	}
	targets := smoothed[lag:]

	model, err := fitRidge(features, targets, e.cfg.RidgeLambda)
	if err != nil {
		return Result{ElapsedMS: elapsedMS(start), AccuracyPct: minAccuracyPct}
	}

	var absErr float64
	for i, row := range features {
		absErr += math.Abs(targets[i] - model.predict(row))
	}
	mae := absErr / float64(len(targets))
	accuracy := math.Max(minAccuracyPct, 100-mae*10)
	accuracy = math.Round(accuracy*10) / 10

	// The adjustment uses the hour at forecast time for every projected
	// step, not each step's own clock time.
	adjust := diurnalAdjustment(e.now().Hour())

	window := make([]float64, lag)
	copy(window, smoothed[len(smoothed)-lag:])

	preds := make([]float64, 0, steps)
	for i := 0; i < steps; i++ {
		next := model.predict(featureRow(window, lag)) + adjust
		preds = append(preds, next)
		copy(window, window[1:])
		window[lag-1] = next
	}

	return Result{Predictions: preds, ElapsedMS: elapsedMS(start), AccuracyPct: accuracy}
}

// Smooth applies exponentially weighted smoothing with adjusted weights:
// each output is the decay-weighted average of all observations so far.
func Smooth(series []float64, alpha float64) []float64 {
	out := make([]float64, len(series))
	decay := 1 - alpha
	var num, den float64
	for i, x := range series {
		num = x + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

func diurnalAdjustment(hour int) float64 {
	switch {
	case hour >= 20 || hour < 6:
		return -diurnalShift
	case hour >= 10 && hour < 16:
		return diurnalShift
	default:
		return 0
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// ridgeModel is an L2-regularized linear fit with an unpenalized intercept.
type ridgeModel struct {
	coef      []float64
	intercept float64
}

// fitRidge solves (XcᵀXc + λI)β = Xcᵀyc on mean-centered data. The solve is
// deterministic for a given input.
func fitRidge(features [][]float64, targets []float64, lambda float64) (*ridgeModel, error) {
	n := len(features)
	p := len(features[0])

	colMean := make([]float64, p)
	for _, row := range features {
		for j, v := range row {
			colMean[j] += v
		}
	}
	for j := range colMean {
		colMean[j] /= float64(n)
	}
	yMean := stat.Mean(targets, nil)

	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range features {
		for j, v := range row {
			x.Set(i, j, v-colMean[j])
		}
		y.SetVec(i, targets[i]-yMean)
	}

	var gram mat.Dense
	gram.Mul(x.T(), x)
	for j := 0; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &rhs); err != nil {
		return nil, err
	}

	coef := make([]float64, p)
	intercept := yMean
	for j := 0; j < p; j++ {
		coef[j] = beta.AtVec(j)
		intercept -= coef[j] * colMean[j]
	}
	return &ridgeModel{coef: coef, intercept: intercept}, nil
}

func (m *ridgeModel) predict(row []float64) float64 {
	out := m.intercept
	for j, c := range m.coef {
		out += c * row[j]
	}
	return out
}
