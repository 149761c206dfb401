package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"coldwatch/internal/alerting"
	"coldwatch/internal/service"
	"coldwatch/internal/simdata"
)

// Simulate rehearses the full pipeline against an in-memory store: generate
// a synthetic history, commit it to the chain, forecast, classify, and print
// the outcome. With --notify and a configured channel the alert is actually
// dispatched.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	deviceID := opts.DeviceID
	if deviceID == "" {
		deviceID = "sim-device"
	}

	var notifier alerting.Notifier
	if opts.Notify {
		notifier = a.newNotifier()
		if notifier == nil {
			return errors.New("--notify requires a configured alerting channel")
		}
	}

	st := memoryStores()
	defer st.close()

	svc := a.newService(st, nil, notifier)

	points := simdata.Generate(simdata.Options{
		Hours: opts.Hours,
		End:   time.Now().UTC(),
		Seed:  opts.Seed,
	})
	for _, p := range points {
		if _, err := svc.Submit(ctx, service.SubmitRequest{
			DeviceID:    deviceID,
			Temperature: p.Temperature,
			Timestamp:   p.Timestamp,
		}); err != nil {
			return err
		}
	}

	res, err := svc.VerifyReadings(ctx, deviceID)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "committed %d synthetic readings, chain verified: %v\n", len(points), res.OK)

	outcome, err := svc.Assess(ctx, deviceID)
	if err != nil {
		return err
	}

	switch {
	case !outcome.Assessed:
		fmt.Fprintln(os.Stdout, "no prediction available")
	case outcome.Alerted:
		fmt.Fprintf(os.Stdout, "%s %s: predicted %.2f°C, breach in %d minutes (accuracy %.1f%%)\n",
			outcome.Assessment.Severity, outcome.Assessment.Type,
			outcome.PredictedTemp, outcome.Assessment.MinutesToBreach, outcome.Forecast.AccuracyPct)
		for _, action := range outcome.Actions {
			fmt.Fprintf(os.Stdout, "  - %s\n", action)
		}
	default:
		fmt.Fprintf(os.Stdout, "forecast stays within the safe range (current %.2f°C, accuracy %.1f%%)\n",
			outcome.CurrentTemp, outcome.Forecast.AccuracyPct)
	}

	return nil
}
