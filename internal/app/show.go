package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"coldwatch/internal/storage"
)

// Show prints a device's recent alerts, optionally with its recent readings
// and aggregate alert statistics.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if opts.DeviceID == "" {
		return errors.New("--device is required")
	}

	st, err := a.requireStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	if opts.Readings {
		readings, err := st.readings.ListReadings(ctx, opts.DeviceID, opts.Limit)
		if err != nil {
			return err
		}
		printReadings(readings)
	}

	var alerts []storage.Alert
	if opts.ActiveOnly {
		alerts, err = st.alerts.ListActiveAlerts(ctx, opts.DeviceID)
	} else {
		alerts, err = st.alerts.ListRecentAlerts(ctx, opts.DeviceID, opts.Limit)
	}
	if err != nil {
		return err
	}
	printAlerts(alerts)

	if opts.Stats {
		stats, err := st.alerts.AlertStatistics(ctx, opts.DeviceID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout,
			"alerts: %d total, %d critical, %d warning, %d resolved, false-positive rate %.1f%%\n",
			stats.Total, stats.Critical, stats.Warning, stats.Resolved, stats.FalsePositiveRate)
	}

	return nil
}

// Resolve marks one alert as handled.
func (a *App) Resolve(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("--id must be greater than zero")
	}

	st, err := a.requireStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	if err := st.alerts.ResolveAlert(ctx, id); err != nil {
		return fmt.Errorf("resolve alert %d: %w", id, err)
	}

	fmt.Fprintf(os.Stdout, "alert %d resolved\n", id)
	return nil
}

func printReadings(readings []storage.Reading) {
	if len(readings) == 0 {
		fmt.Fprintln(os.Stdout, "no readings found")
		return
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Seq\tTime (UTC)\tTemp °C\tVaccine\tLocation\tHash")
	for _, r := range readings {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Seq,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Temperature.StringFixed(2),
			r.VaccineType,
			r.Location,
			shortHash(r.CurrentHash),
		)
	}
	writer.Flush()
}

func printAlerts(alerts []storage.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTime (UTC)\tType\tSeverity\tStatus\tMinToBreach\tCurrent\tPredicted\tMessage")
	for _, alert := range alerts {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			alert.ID,
			alert.Timestamp.UTC().Format(time.RFC3339),
			alert.AlertType,
			alert.Severity,
			alert.Status,
			alert.MinutesToBreach,
			alert.CurrentTemp.StringFixed(2),
			alert.PredictedTemp.StringFixed(2),
			sanitizeInline(alert.Message),
		)
	}
	writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
