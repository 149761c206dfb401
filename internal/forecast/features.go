package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// featureWidth is the number of inputs the regression sees per time index.
const featureWidth = 6

// Extract builds one feature row per index i in [lag, len(series)), each
// computed over the trailing window series[i-lag:i]. The series must be
// strictly longer than the lag.
func Extract(series []float64, lag int) ([][]float64, error) {
	if lag <= 0 {
		return nil, fmt.Errorf("lag must be positive, got %d", lag)
	}
	if len(series) <= lag {
		return nil, fmt.Errorf("series length %d must exceed lag %d", len(series), lag)
	}

	rows := make([][]float64, 0, len(series)-lag)
	for i := lag; i < len(series); i++ {
		rows = append(rows, featureRow(series[i-lag:i], lag))
	}
	return rows, nil
}

// featureRow summarizes one trailing window: latest value, window mean,
// sample standard deviation, linear trend, deviation from the mean, and the
// mean of the last four observations.
func featureRow(window []float64, lag int) []float64 {
	last := window[len(window)-1]
	mean := stat.Mean(window, nil)

	recent := window
	if len(window) >= 4 {
		recent = window[len(window)-4:]
	}

	return []float64{
		last,
		mean,
		sampleStd(window),
		(last - window[0]) / float64(lag),
		last - mean,
		stat.Mean(recent, nil),
	}
}

// sampleStd is the ddof=1 standard deviation, defined as 0 for windows too
// short to have one.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sd := stat.StdDev(xs, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}
