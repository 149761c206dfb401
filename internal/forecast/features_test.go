package forecast

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtractRejectsShortSeries(t *testing.T) {
	if _, err := Extract([]float64{1, 2, 3}, 3); err == nil {
		t.Fatal("series not longer than lag must be rejected")
	}
	if _, err := Extract([]float64{1, 2, 3}, 0); err == nil {
		t.Fatal("non-positive lag must be rejected")
	}
}

func TestExtractWindowStatistics(t *testing.T) {
	rows, err := Extract([]float64{1, 2, 3, 4, 5}, 2)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected one row per index in [lag, len), got %d", len(rows))
	}

	// First row covers window {1, 2}.
	row := rows[0]
	if len(row) != featureWidth {
		t.Fatalf("expected %d features, got %d", featureWidth, len(row))
	}
	if !almostEqual(row[0], 2) {
		t.Fatalf("latest value: want 2, got %v", row[0])
	}
	if !almostEqual(row[1], 1.5) {
		t.Fatalf("window mean: want 1.5, got %v", row[1])
	}
	if !almostEqual(row[2], math.Sqrt(0.5)) {
		t.Fatalf("sample std: want sqrt(0.5), got %v", row[2])
	}
	if !almostEqual(row[3], 0.5) {
		t.Fatalf("trend: want 0.5, got %v", row[3])
	}
	if !almostEqual(row[4], 0.5) {
		t.Fatalf("deviation from mean: want 0.5, got %v", row[4])
	}
	if !almostEqual(row[5], 1.5) {
		t.Fatalf("short window recent mean must equal window mean, got %v", row[5])
	}
}

func TestExtractRecentFourMean(t *testing.T) {
	rows, err := Extract([]float64{1, 2, 3, 4, 5, 6, 7}, 6)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	// Single row over window {1..6}; recent-4 mean is mean of {3,4,5,6}.
	if !almostEqual(rows[0][5], 4.5) {
		t.Fatalf("recent-4 mean: want 4.5, got %v", rows[0][5])
	}
}

func TestExtractDegenerateWindowStd(t *testing.T) {
	rows, err := Extract([]float64{3, 4}, 1)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if rows[0][2] != 0 {
		t.Fatalf("std of a single-element window must be 0, got %v", rows[0][2])
	}
}
