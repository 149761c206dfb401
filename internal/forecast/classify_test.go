package forecast

import "testing"

func flatForecast(v float64) []float64 {
	preds := make([]float64, 24)
	for i := range preds {
		preds[i] = v
	}
	return preds
}

func TestClassifyEmptyForecast(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())
	if _, ok := classifier.Classify(nil); ok {
		t.Fatal("empty forecast must not raise an alert")
	}
}

func TestClassifyBreachOutranksEarlierWarning(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())

	preds := flatForecast(5.0)
	preds[1] = 2.3 // inside the lower warning margin, earlier in time
	preds[3] = 8.2 // actual upper breach, later in time

	assessment, ok := classifier.Classify(preds)
	if !ok {
		t.Fatal("expected an alert")
	}
	if assessment.Type != AlertHighTemp {
		t.Fatalf("actual breach must outrank the earlier warning, got %s", assessment.Type)
	}
	if assessment.MinutesToBreach != 20 {
		t.Fatalf("minutes: want 20, got %d", assessment.MinutesToBreach)
	}
	if assessment.Severity != SeverityCritical {
		t.Fatalf("breach within 60 minutes must be CRITICAL, got %s", assessment.Severity)
	}
}

func TestClassifyStrictBoundaries(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())

	// Exactly safe_max is not a breach, but it is inside the warning margin.
	assessment, ok := classifier.Classify(flatForecast(8.0))
	if !ok {
		t.Fatal("value above the warning margin must alert")
	}
	if assessment.Type != AlertHighTemp || assessment.Severity != SeverityWarning {
		t.Fatalf("expected HIGH_TEMP warning, got %s/%s", assessment.Type, assessment.Severity)
	}

	// Exactly safe_max - margin triggers nothing: comparisons are strict.
	if _, ok := classifier.Classify(flatForecast(7.5)); ok {
		t.Fatal("value exactly on the warning margin must not alert")
	}
	if _, ok := classifier.Classify(flatForecast(2.5)); ok {
		t.Fatal("value exactly on the lower warning margin must not alert")
	}
}

func TestClassifyLowBreachSeverityTiers(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())

	soon := flatForecast(5.0)
	soon[0] = 1.5
	assessment, ok := classifier.Classify(soon)
	if !ok || assessment.Type != AlertLowTemp || assessment.Severity != SeverityCritical {
		t.Fatalf("imminent low breach must be LOW_TEMP critical, got %+v ok=%v", assessment, ok)
	}
	if assessment.MinutesToBreach != 5 {
		t.Fatalf("minutes: want 5, got %d", assessment.MinutesToBreach)
	}

	late := flatForecast(5.0)
	late[13] = 1.0 // 70 minutes out
	assessment, ok = classifier.Classify(late)
	if !ok || assessment.Type != AlertLowTemp || assessment.Severity != SeverityWarning {
		t.Fatalf("distant low breach must be LOW_TEMP warning, got %+v ok=%v", assessment, ok)
	}
	if assessment.MinutesToBreach != 70 {
		t.Fatalf("minutes: want 70, got %d", assessment.MinutesToBreach)
	}
}

func TestClassifyNominalForecast(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())
	if _, ok := classifier.Classify(flatForecast(5.0)); ok {
		t.Fatal("mid-range forecast must not alert")
	}
}
