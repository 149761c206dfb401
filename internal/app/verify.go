package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"coldwatch/internal/hashchain"
)

// Verify replays the selected chains and reports whether they are intact. A
// failed chain names the first compromised record; repairing it is an
// administrative action outside this tool.
func (a *App) Verify(ctx context.Context, opts VerifyOptions) error {
	if opts.DeviceID == "" && opts.SubjectID == "" {
		return errors.New("at least one of --device or --subject must be provided")
	}

	st, err := a.requireStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	svc := a.newService(st, nil, nil)
	failed := false

	if opts.DeviceID != "" {
		res, err := svc.VerifyReadings(ctx, opts.DeviceID)
		if err != nil {
			return err
		}
		printChainResult("temperature chain", opts.DeviceID, res, opts.Verbose)
		failed = failed || !res.OK
	}

	if opts.SubjectID != "" {
		res, err := svc.VerifyIntegrity(ctx, opts.SubjectID)
		if err != nil {
			return err
		}
		printChainResult("audit chain", opts.SubjectID, res, opts.Verbose)
		failed = failed || !res.OK
	}

	if failed {
		return errors.New("chain verification failed")
	}
	return nil
}

func printChainResult(kind, id string, res hashchain.Result, verbose bool) {
	if res.OK {
		fmt.Fprintf(os.Stdout, "%s %s: OK (%d records)\n", kind, id, len(res.Statuses))
	} else {
		fmt.Fprintf(os.Stdout, "%s %s: COMPROMISED at record %d (%d valid before it)\n",
			kind, id, res.FirstBad+1, len(res.Statuses))
	}

	if verbose {
		for _, status := range res.Statuses {
			fmt.Fprintf(os.Stdout, "  #%d %s %s\n", status.Seq, status.Status, status.Hash)
		}
	}
}
