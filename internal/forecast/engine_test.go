package forecast

import (
	"math"
	"testing"
	"time"
)

func clockAtHour(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 1, 15, hour, 0, 0, 0, time.UTC)
	}
}

func risingScenario() []float64 {
	// 25 readings climbing linearly from 5.0 to 8.3 at 5-minute spacing.
	temps := make([]float64, 25)
	for i := range temps {
		temps[i] = 5.0 + 3.3*float64(i)/24.0
	}
	return temps
}

func TestForecastEmptyHistory(t *testing.T) {
	engine := NewEngineAt(DefaultConfig(), clockAtHour(8))
	res := engine.Forecast(nil)
	if res.Available() {
		t.Fatal("empty history must signal no prediction")
	}
	if res.AccuracyPct != minAccuracyPct {
		t.Fatalf("accuracy: want %v, got %v", minAccuracyPct, res.AccuracyPct)
	}
	if res.ElapsedMS < 0 {
		t.Fatalf("elapsed must be non-negative, got %v", res.ElapsedMS)
	}
}

func TestForecastNaiveRamp(t *testing.T) {
	engine := NewEngineAt(DefaultConfig(), clockAtHour(8))
	res := engine.Forecast([]float64{5.0, 5.0, 5.0})

	if !res.Available() {
		t.Fatal("sparse history must still produce the ramp forecast")
	}
	if len(res.Predictions) != 24 {
		t.Fatalf("expected 24 steps, got %d", len(res.Predictions))
	}
	if res.AccuracyPct != 75.0 {
		t.Fatalf("ramp accuracy must be exactly 75.0, got %v", res.AccuracyPct)
	}
	for i, v := range res.Predictions {
		want := 5.0 + float64(i+1)*0.05
		if !almostEqual(v, want) {
			t.Fatalf("step %d: want %v, got %v", i, want, v)
		}
	}
}

func TestForecastInfeasibleWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinHistory = 5
	engine := NewEngineAt(cfg, clockAtHour(8))

	// Six points: lag = 2, but 6 < 2+5 so fitting is infeasible.
	res := engine.Forecast([]float64{5, 5, 5, 5, 5, 5})
	if res.Available() {
		t.Fatal("infeasible window must signal no prediction")
	}
	if res.AccuracyPct != minAccuracyPct {
		t.Fatalf("accuracy: want %v, got %v", minAccuracyPct, res.AccuracyPct)
	}
}

func TestForecastRisingScenario(t *testing.T) {
	engine := NewEngineAt(DefaultConfig(), clockAtHour(8))
	res := engine.Forecast(risingScenario())

	if !res.Available() {
		t.Fatal("rising scenario must produce a forecast")
	}
	if len(res.Predictions) != 24 {
		t.Fatalf("expected 24 steps, got %d", len(res.Predictions))
	}
	if res.AccuracyPct < 75.0 {
		t.Fatalf("accuracy is floored at 75.0, got %v", res.AccuracyPct)
	}

	classifier := NewClassifier(DefaultConfig())
	assessment, ok := classifier.Classify(res.Predictions)
	if !ok {
		t.Fatal("rising toward the upper bound must raise an alert")
	}
	if assessment.Type != AlertHighTemp {
		t.Fatalf("expected HIGH_TEMP, got %s", assessment.Type)
	}
	if assessment.MinutesToBreach <= 0 {
		t.Fatalf("minutes to breach must be positive, got %d", assessment.MinutesToBreach)
	}
}

func TestForecastDeterministic(t *testing.T) {
	temps := risingScenario()

	first := NewEngineAt(DefaultConfig(), clockAtHour(8)).Forecast(temps)
	second := NewEngineAt(DefaultConfig(), clockAtHour(8)).Forecast(temps)

	if len(first.Predictions) != len(second.Predictions) {
		t.Fatalf("lengths differ: %d vs %d", len(first.Predictions), len(second.Predictions))
	}
	for i := range first.Predictions {
		if first.Predictions[i] != second.Predictions[i] {
			t.Fatalf("step %d differs: %v vs %v", i, first.Predictions[i], second.Predictions[i])
		}
	}
	if first.AccuracyPct != second.AccuracyPct {
		t.Fatalf("accuracy differs: %v vs %v", first.AccuracyPct, second.AccuracyPct)
	}
}

func TestForecastDiurnalAdjustment(t *testing.T) {
	temps := risingScenario()

	midday := NewEngineAt(DefaultConfig(), clockAtHour(12)).Forecast(temps)
	night := NewEngineAt(DefaultConfig(), clockAtHour(2)).Forecast(temps)
	neutral := NewEngineAt(DefaultConfig(), clockAtHour(8)).Forecast(temps)

	if !almostEqual(midday.Predictions[0], neutral.Predictions[0]+0.05) {
		t.Fatalf("day hours must shift the first step up by 0.05: %v vs %v",
			midday.Predictions[0], neutral.Predictions[0])
	}
	if !almostEqual(night.Predictions[0], neutral.Predictions[0]-0.05) {
		t.Fatalf("night hours must shift the first step down by 0.05: %v vs %v",
			night.Predictions[0], neutral.Predictions[0])
	}
}

func TestForecastConstantSeriesDoesNotPanic(t *testing.T) {
	temps := make([]float64, 30)
	for i := range temps {
		temps[i] = 5.0
	}
	engine := NewEngineAt(DefaultConfig(), clockAtHour(8))

	res := engine.Forecast(temps)
	if res.Available() {
		for _, v := range res.Predictions {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("degenerate series produced non-finite prediction %v", v)
			}
		}
	}
}

func TestSmoothAdjustedWeights(t *testing.T) {
	out := Smooth([]float64{1, 2}, 0.3)
	if !almostEqual(out[0], 1) {
		t.Fatalf("first smoothed value must equal the observation, got %v", out[0])
	}
	// Adjusted weighting: (2 + 0.7*1) / (1 + 0.7).
	if !almostEqual(out[1], 2.7/1.7) {
		t.Fatalf("second smoothed value: want %v, got %v", 2.7/1.7, out[1])
	}
}
