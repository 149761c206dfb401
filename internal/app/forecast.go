package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"coldwatch/internal/forecast"
	"coldwatch/internal/service"
)

// Forecast projects a device's temperature over the horizon and prints the
// result. It classifies the projection but never persists or dispatches an
// alert; that is the monitoring loop's job.
func (a *App) Forecast(ctx context.Context, opts ForecastOptions) error {
	if opts.DeviceID == "" {
		return errors.New("--device is required")
	}

	st, err := a.requireStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	svc := a.newService(st, nil, nil)

	result, readings, err := svc.RequestForecast(ctx, opts.DeviceID)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		fmt.Fprintf(os.Stdout, "no committed readings for %s\n", opts.DeviceID)
		return nil
	}
	if !result.Available() {
		fmt.Fprintf(os.Stdout, "no prediction available for %s (%d readings)\n", opts.DeviceID, len(readings))
		return nil
	}

	cfg := service.EngineConfig(a.Config)
	last := readings[len(readings)-1]

	fmt.Fprintf(os.Stdout, "device %s: %d readings, current %s°C, accuracy %.1f%%, computed in %.1fms\n",
		opts.DeviceID, len(readings), last.Temperature.StringFixed(2), result.AccuracyPct, result.ElapsedMS)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Step\tTime (UTC)\tPredicted °C")
	for i, v := range result.Predictions {
		at := last.Timestamp.Add(time.Duration(i+1) * time.Duration(cfg.SampleInterval) * time.Minute)
		fmt.Fprintf(writer, "%d\t%s\t%.2f\n", i+1, at.Format("15:04"), v)
	}
	writer.Flush()

	classifier := forecast.NewClassifier(cfg)
	assessment, alerted := classifier.Classify(result.Predictions)
	if !alerted {
		fmt.Fprintln(os.Stdout, "forecast stays within the safe range")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%s %s: breach risk in %d minutes\n",
		assessment.Severity, assessment.Type, assessment.MinutesToBreach)
	for _, action := range forecast.Advise(assessment.Type, assessment.Severity) {
		fmt.Fprintf(os.Stdout, "  - %s\n", action)
	}
	return nil
}
