package forecast

// advisories maps (alert type, severity) to its ordered action list. The set
// is closed; anything else falls back to generic monitoring guidance.
var advisories = map[AlertType]map[Severity][]string{
	AlertHighTemp: {
		SeverityCritical: {
			"IMMEDIATE ACTION REQUIRED",
			"Transfer vaccines to backup cooler immediately",
			"Add maximum ice packs to all compartments",
			"Move container to air-conditioned area (if available)",
			"Notify supervisor immediately",
			"Document the incident with photos if possible",
			"Prepare for emergency vaccine transfer",
		},
		SeverityWarning: {
			"PREVENTIVE ACTION NEEDED",
			"Add extra ice packs to vaccine carrier",
			"Move container to cooler location",
			"Monitor temperature every 15 minutes",
			"Prepare backup storage unit",
			"Check if more cooling is available",
			"Inform team about potential issue",
		},
	},
	AlertLowTemp: {
		SeverityCritical: {
			"IMMEDIATE ACTION REQUIRED",
			"Remove some ice packs immediately",
			"Move container to warmer area",
			"Use temperature stabilizers if available",
			"Notify supervisor immediately",
			"Check for vaccine freezing damage",
			"Prepare warming packs",
		},
		SeverityWarning: {
			"PREVENTIVE ACTION NEEDED",
			"Reduce number of ice packs",
			"Monitor temperature closely (every 10 minutes)",
			"Adjust container insulation",
			"Prepare warming packs nearby",
			"Check ambient temperature",
			"Consider moving to slightly warmer area",
		},
	},
}

var genericAdvisories = []string{
	"Continue monitoring temperature",
	"Maintain current storage conditions",
	"Check sensor connections",
	"Document current status",
}

// Advise returns the ordered recommended actions for an alert. Unknown
// combinations get the generic monitoring list.
func Advise(alertType AlertType, severity Severity) []string {
	if bySeverity, ok := advisories[alertType]; ok {
		if actions, ok := bySeverity[severity]; ok {
			return append([]string(nil), actions...)
		}
	}
	return append([]string(nil), genericAdvisories...)
}
