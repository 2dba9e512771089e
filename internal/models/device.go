package models

import "time"

type Device struct {
	DeviceID       string    `json:"device_id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	IsActive       bool      `json:"is_active"`
	CreatedBy      int       `json:"-"`
	CurrentCycleID *string   `json:"current_cycle_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// DeviceState is the latest snapshot reported by a device.
type DeviceState struct {
	DeviceID             string     `json:"device_id"`
	AnimalType           *string    `json:"animal_type"`
	AnimalLabel          *string    `json:"animal_label,omitempty"` // joined from animals
	Day                  *int       `json:"day"`
	Temperature          *float64   `json:"temp"`
	Humidity             *float64   `json:"hum"`
	TargetTemperature    *float64   `json:"target_temp"`
	TemperatureTolerance *float64   `json:"tol_temp"`
	TargetHumidity       *float64   `json:"target_hum"`
	HumidityTolerance    *float64   `json:"tol_hum"`
	LastUpdated          *time.Time `json:"updated_at"`
}

type Animal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StatePatch carries the user-editable part of DeviceState. Nil fields are left unchanged.
type StatePatch struct {
	AnimalType           *string  `json:"animal_type"`
	TargetTemperature    *float64 `json:"target_temp"`
	TemperatureTolerance *float64 `json:"tol_temp"`
	TargetHumidity       *float64 `json:"target_hum"`
	HumidityTolerance    *float64 `json:"tol_hum"`
}

func (p StatePatch) Empty() bool {
	return p.AnimalType == nil && p.TargetTemperature == nil && p.TemperatureTolerance == nil &&
		p.TargetHumidity == nil && p.HumidityTolerance == nil
}
