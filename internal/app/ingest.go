package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"coldwatch/internal/service"
	"coldwatch/internal/simdata"
)

// Submit commits one reading to the device's temperature chain and prints
// the resulting chain hash.
func (a *App) Submit(ctx context.Context, opts SubmitOptions) error {
	st, err := a.requireStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	svc := a.newService(st, nil, nil)

	req := service.SubmitRequest{
		DeviceID:    opts.DeviceID,
		Temperature: opts.Temperature,
		VaccineType: opts.VaccineType,
		Location:    opts.Location,
	}
	if opts.Timestamp != nil {
		req.Timestamp = *opts.Timestamp
	}

	hash, err := svc.Submit(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "reading committed: device=%s hash=%s\n", opts.DeviceID, hash)
	return nil
}

// Audit appends one action to the subject's audit chain.
func (a *App) Audit(ctx context.Context, opts AuditOptions) error {
	st, err := a.requireStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	svc := a.newService(st, nil, nil)

	hash, err := svc.RecordAction(ctx, opts.SubjectID, opts.Action, opts.Details)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "action recorded: subject=%s hash=%s\n", opts.SubjectID, hash)
	return nil
}

// Seed populates a device with a synthetic diurnal history so forecasts have
// something to train on.
func (a *App) Seed(ctx context.Context, opts SeedOptions) error {
	if opts.DeviceID == "" {
		return errors.New("--device is required")
	}

	st, err := a.requireStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	svc := a.newService(st, nil, nil)

	points := simdata.Generate(simdata.Options{
		Hours: opts.Hours,
		End:   time.Now().UTC(),
		Seed:  opts.Seed,
	})

	var lastHash string
	for _, p := range points {
		lastHash, err = svc.Submit(ctx, service.SubmitRequest{
			DeviceID:    opts.DeviceID,
			Temperature: p.Temperature,
			Timestamp:   p.Timestamp,
		})
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "seeded %d readings for %s, chain head %s\n", len(points), opts.DeviceID, lastHash)
	return nil
}
