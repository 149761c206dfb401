package forecast

import "testing"

func TestAdviseKnownCombinations(t *testing.T) {
	combos := []struct {
		alertType AlertType
		severity  Severity
		first     string
	}{
		{AlertHighTemp, SeverityCritical, "IMMEDIATE ACTION REQUIRED"},
		{AlertHighTemp, SeverityWarning, "PREVENTIVE ACTION NEEDED"},
		{AlertLowTemp, SeverityCritical, "IMMEDIATE ACTION REQUIRED"},
		{AlertLowTemp, SeverityWarning, "PREVENTIVE ACTION NEEDED"},
	}

	for _, combo := range combos {
		actions := Advise(combo.alertType, combo.severity)
		if len(actions) == 0 {
			t.Fatalf("%s/%s must have advisories", combo.alertType, combo.severity)
		}
		if actions[0] != combo.first {
			t.Fatalf("%s/%s first advisory: want %q, got %q", combo.alertType, combo.severity, combo.first, actions[0])
		}
	}
}

func TestAdviseFallback(t *testing.T) {
	actions := Advise(AlertType("SENSOR_ERROR"), SeverityWarning)
	if len(actions) != 4 {
		t.Fatalf("unknown combination must return the four generic actions, got %d", len(actions))
	}
	if actions[0] != "Continue monitoring temperature" {
		t.Fatalf("unexpected fallback advisory: %q", actions[0])
	}
}

func TestAdviseReturnsCopy(t *testing.T) {
	first := Advise(AlertHighTemp, SeverityCritical)
	first[0] = "mutated"
	second := Advise(AlertHighTemp, SeverityCritical)
	if second[0] == "mutated" {
		t.Fatal("advisory table must not be mutable through returned slices")
	}
}
