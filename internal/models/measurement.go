package models

import "time"

// Measurement is one telemetry sample of a device. Written by ingestion, read-only here.
type Measurement struct {
	DeviceID    string    `json:"device_id,omitempty"`
	Timestamp   time.Time `json:"ts"`
	Temperature *float64  `json:"temp"` // °C
	Humidity    *float64  `json:"hum"`  // %
}
