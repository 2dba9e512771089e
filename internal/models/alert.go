package models

import "time"

const (
	SeverityWarn  = "warn"
	SeverityAlert = "alert"
)

// AlertRecord is an immutable entry of the alert log.
type AlertRecord struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"ts"`
	Severity  string    `json:"level"` // warn | alert
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Value     *float64  `json:"value"`
}
