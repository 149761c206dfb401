// Package simdata generates synthetic temperature series for demos and
// pipeline simulation.
package simdata

import (
	"math"
	"math/rand"
	"time"
)

// Point is one generated observation.
type Point struct {
	Timestamp   time.Time
	Temperature float64
}

// Options shape the generated series.
type Options struct {
	Hours int
	End   time.Time
	Seed  int64
}

// Generate produces a diurnal temperature pattern at 5-minute spacing: a
// 5°C base with a slow upward drift, a sinusoidal day/night swing peaking
// mid-afternoon, and Gaussian sensor noise. Values are rounded to two
// decimals like real sensor output. The seed makes runs reproducible.
func Generate(opts Options) []Point {
	hours := opts.Hours
	if hours <= 0 {
		hours = 24
	}
	end := opts.End
	if end.IsZero() {
		end = time.Now().UTC()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	count := hours * 12
	base := end.Add(-time.Duration(hours) * time.Hour)

	points := make([]Point, 0, count)
	for i := 0; i < count; i++ {
		ts := base.Add(time.Duration(i) * 5 * time.Minute)

		hourOfDay := float64(ts.Hour())
		daily := 1.5 * math.Sin((hourOfDay-14)*math.Pi/12)
		drift := 5.0 + float64(i)*0.001
		noise := rng.NormFloat64() * 0.3

		temp := math.Round((drift+daily+noise)*100) / 100
		points = append(points, Point{Timestamp: ts, Temperature: temp})
	}
	return points
}
