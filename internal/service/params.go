package service

import (
	"time"

	"incubator_monitor/internal/models"
	"incubator_monitor/internal/monitor"
)

// NewDevice is the input of AddDevice. Name falls back to DeviceID.
type NewDevice struct {
	DeviceID string
	Name     string
	Location string
}

// ChartQuery selects the chart window and rendering options.
type ChartQuery struct {
	Hours           int                     // default 24
	SmoothingWindow int                     // <= 1 disables smoothing
	Overlay         monitor.OverlayStrategy // nearest | interpolated
}

// DailyQuery selects the cycle and an optional day range (7, 21, 28).
// An empty CycleID falls back to the device's current cycle.
type DailyQuery struct {
	CycleID string
	Days    int
}

// DailyReport is the daily average table of one cycle.
type DailyReport struct {
	Cycle models.Cycle       `json:"cycle"`
	Days  int                `json:"days,omitempty"`
	Rows  []monitor.DailyAvg `json:"rows"`
}

// EvaluationSummary reports one pass of the evaluator over all device states.
type EvaluationSummary struct {
	Devices int           `json:"devices"`
	Logged  int           `json:"logged"`
	Failed  int           `json:"failed"`
	Took    time.Duration `json:"took"`
}

// WipeStep names one deletion of the wipe sequence.
type WipeStep string

const (
	WipeMeasurements WipeStep = "measurements"
	WipeAlerts       WipeStep = "alerts"
	WipeCycles       WipeStep = "cycles"
	WipeState        WipeStep = "device_state"
)

// WipeReport lists completed steps and, on partial failure, the step that failed.
type WipeReport struct {
	Done    []WipeStep         `json:"done"`
	Deleted map[WipeStep]int64 `json:"deleted"`
	Failed  WipeStep           `json:"failed,omitempty"`
	Error   string             `json:"error,omitempty"`
}
