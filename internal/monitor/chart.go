package monitor

import (
	"time"

	"incubator_monitor/internal/models"
)

// ChartOptions parametrizes BuildChart.
type ChartOptions struct {
	SmoothingWindow int
	Overlay         OverlayStrategy

	TempPad      float64
	TempDecimals int
	HumPad       float64
	HumDecimals  int
}

// DefaultChartOptions matches the dashboard's 24h chart.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		SmoothingWindow: 1,
		Overlay:         OverlayNearest,
		TempPad:         0.2,
		TempDecimals:    1,
		HumPad:          2,
		HumDecimals:     0,
	}
}

// ChartPoint is one displayed sample.
type ChartPoint struct {
	TS   time.Time `json:"ts"`
	Temp *float64  `json:"temp"`
	Hum  *float64  `json:"hum"`
}

// ChartAxis holds everything drawn for one channel.
type ChartAxis struct {
	Band    Band           `json:"band"`
	Domain  [2]float64     `json:"domain"`
	Overlay []OverlayPoint `json:"overlay"`
}

// Chart is the display model of a measurement series.
type Chart struct {
	Points      []ChartPoint `json:"points"`
	Temperature ChartAxis    `json:"temperature"`
	Humidity    ChartAxis    `json:"humidity"`
}

// BuildChart smooths the series, computes per-channel domains and places alert markers.
// series must be ascending by timestamp.
func BuildChart(series []models.Measurement, alerts []models.AlertRecord, tempBand, humBand Band, opts ChartOptions) Chart {
	temps := make([]*float64, len(series))
	hums := make([]*float64, len(series))
	for i, m := range series {
		temps[i], hums[i] = m.Temperature, m.Humidity
	}
	temps = MovingAverage(temps, opts.SmoothingWindow)
	hums = MovingAverage(hums, opts.SmoothingWindow)

	points := make([]ChartPoint, len(series))
	tPts := make([]Point, len(series))
	hPts := make([]Point, len(series))
	for i, m := range series {
		points[i] = ChartPoint{TS: m.Timestamp, Temp: temps[i], Hum: hums[i]}
		tPts[i] = Point{TS: m.Timestamp, Value: temps[i]}
		hPts[i] = Point{TS: m.Timestamp, Value: hums[i]}
	}

	tLo, tHi := Domain(temps, tempBand, opts.TempPad, opts.TempDecimals)
	hLo, hHi := Domain(hums, humBand, opts.HumPad, opts.HumDecimals)

	return Chart{
		Points: points,
		Temperature: ChartAxis{
			Band:    tempBand,
			Domain:  [2]float64{tLo, tHi},
			Overlay: Overlay(tPts, alerts, opts.Overlay),
		},
		Humidity: ChartAxis{
			Band:    humBand,
			Domain:  [2]float64{hLo, hHi},
			Overlay: Overlay(hPts, alerts, opts.Overlay),
		},
	}
}
