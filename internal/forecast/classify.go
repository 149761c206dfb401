package forecast

// AlertType identifies which safe-range bound is threatened.
type AlertType string

// Severity tiers an alert by urgency.
type Severity string

const (
	AlertHighTemp AlertType = "HIGH_TEMP"
	AlertLowTemp  AlertType = "LOW_TEMP"

	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// criticalWithinMinutes tiers a predicted breach as CRITICAL when it lands
// inside this window.
const criticalWithinMinutes = 60

// Assessment is a classified breach risk.
type Assessment struct {
	Type            AlertType
	Severity        Severity
	MinutesToBreach int
}

// Classifier scans forecast vectors against the safe range. Stateless and
// safe for concurrent use.
type Classifier struct {
	safeMin       float64
	safeMax       float64
	margin        float64
	interval      int
	warningWindow int
}

// NewClassifier builds a classifier from the forecast configuration.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		safeMin:       cfg.SafeMin,
		safeMax:       cfg.SafeMax,
		margin:        cfg.WarningMargin,
		interval:      cfg.SampleInterval,
		warningWindow: cfg.HorizonMinutes,
	}
}

// Classify scans the forecast in strict priority order: actual breaches of
// either bound first (earliest wins within a tier), then near-misses inside
// the warning margin. All comparisons are strict; a value exactly on a bound
// or margin does not trigger. The second return is false when no alert
// applies.
func (c *Classifier) Classify(preds []float64) (Assessment, bool) {
	if len(preds) == 0 {
		return Assessment{}, false
	}

	for i, v := range preds {
		if v > c.safeMax {
			return c.breach(AlertHighTemp, i), true
		}
	}
	for i, v := range preds {
		if v < c.safeMin {
			return c.breach(AlertLowTemp, i), true
		}
	}
	for i, v := range preds {
		if v > c.safeMax-c.margin {
			if minutes := c.minutes(i); minutes <= c.warningWindow {
				return Assessment{Type: AlertHighTemp, Severity: SeverityWarning, MinutesToBreach: minutes}, true
			}
			break
		}
	}
	for i, v := range preds {
		if v < c.safeMin+c.margin {
			if minutes := c.minutes(i); minutes <= c.warningWindow {
				return Assessment{Type: AlertLowTemp, Severity: SeverityWarning, MinutesToBreach: minutes}, true
			}
			break
		}
	}

	return Assessment{}, false
}

func (c *Classifier) breach(t AlertType, idx int) Assessment {
	minutes := c.minutes(idx)
	severity := SeverityWarning
	if minutes <= criticalWithinMinutes {
		severity = SeverityCritical
	}
	return Assessment{Type: t, Severity: severity, MinutesToBreach: minutes}
}

func (c *Classifier) minutes(idx int) int {
	return (idx + 1) * c.interval
}

// SampleInterval reports the minutes between forecast steps.
func (c *Classifier) SampleInterval() int {
	return c.interval
}
