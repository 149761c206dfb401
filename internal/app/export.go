package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"coldwatch/internal/storage"
)

// Export renders a device's committed readings as CSV and/or a PNG chart.
// The chart overlays the configured safe range and, when available, the
// projected temperature for the next horizon.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.DeviceID == "" {
		return errors.New("--device is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	st, err := a.requireStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	readings, err := st.readings.ListReadings(ctx, opts.DeviceID, opts.MaxPoints)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		a.Logger.Info().Str("device", opts.DeviceID).Msg("no readings found for export")
		return nil
	}

	downsampled := downsampleReadings(readings, opts.MaxPoints)
	a.Logger.Info().Int("total", len(readings)).Int("exported", len(downsampled)).Msg("exporting readings")

	if opts.CSVPath != "" {
		if err := writeReadingsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		var predictions []float64
		svc := a.newService(st, nil, nil)
		if result, _, forecastErr := svc.RequestForecast(ctx, opts.DeviceID); forecastErr == nil && result.Available() {
			predictions = result.Predictions
		}
		if err := a.writeReadingsPNG(opts.PNGPath, opts.DeviceID, downsampled, predictions); err != nil {
			return err
		}
	}

	return nil
}

func downsampleReadings(readings []storage.Reading, max int) []storage.Reading {
	if max <= 0 || len(readings) <= max {
		return readings
	}

	result := make([]storage.Reading, 0, max)
	step := float64(len(readings)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(readings) {
			idx = len(readings) - 1
		}
		result = append(result, readings[idx])
	}
	return result
}

func writeReadingsCSV(path string, readings []storage.Reading) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"seq", "timestamp", "device_id", "temperature_c", "vaccine_type", "location", "prev_hash", "current_hash"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range readings {
		record := []string{
			strconv.FormatInt(r.Seq, 10),
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.DeviceID,
			r.Temperature.StringFixed(2),
			r.VaccineType,
			r.Location,
			r.PrevHash,
			r.CurrentHash,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func (a *App) writeReadingsPNG(path, deviceID string, readings []storage.Reading, predictions []float64) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	last := readings[len(readings)-1].Timestamp
	interval := time.Duration(a.Config.Forecast.SampleInterval) * time.Minute

	span := len(readings) + len(predictions)
	x := make([]time.Time, len(readings))
	temps := make([]float64, len(readings))
	bound := make([]time.Time, 0, span)
	safeMin := make([]float64, 0, span)
	safeMax := make([]float64, 0, span)

	for i, r := range readings {
		x[i] = r.Timestamp
		temps[i] = r.Temperature.InexactFloat64()
		bound = append(bound, r.Timestamp)
		safeMin = append(safeMin, a.Config.Forecast.SafeMin)
		safeMax = append(safeMax, a.Config.Forecast.SafeMax)
	}

	forecastX := make([]time.Time, len(predictions))
	for i := range predictions {
		forecastX[i] = last.Add(time.Duration(i+1) * interval)
		bound = append(bound, forecastX[i])
		safeMin = append(safeMin, a.Config.Forecast.SafeMin)
		safeMax = append(safeMax, a.Config.Forecast.SafeMax)
	}

	tempFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Title:  "Temperature: " + deviceID,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Temperature (°C)",
			ValueFormatter: tempFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Temperature",
				XValues: x,
				YValues: temps,
			},
			chart.TimeSeries{
				Name:    "Safe min",
				XValues: bound,
				YValues: safeMin,
				Style: chart.Style{
					StrokeColor:     chart.ColorRed,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
			chart.TimeSeries{
				Name:    "Safe max",
				XValues: bound,
				YValues: safeMax,
				Style: chart.Style{
					StrokeColor:     chart.ColorRed,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}
	if len(predictions) > 0 {
		graph.Series = append(graph.Series, chart.TimeSeries{
			Name:    "Forecast",
			XValues: forecastX,
			YValues: predictions,
			Style: chart.Style{
				StrokeColor:     chart.ColorBlue,
				StrokeDashArray: []float64{2.0, 2.0},
			},
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
