package models

import "time"

// Cycle is one incubation run. EndedAt == nil means the cycle is still running.
type Cycle struct {
	ID         string     `json:"id"`
	DeviceID   string     `json:"device_id"`
	AnimalType string     `json:"animal_type"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

func (c Cycle) IsCurrent() bool { return c.EndedAt == nil }
