package monitor

import (
	"math"
	"strings"
	"time"
)

// Status is the classification of a single reading against a band.
type Status string

const (
	StatusBelow   Status = "below"
	StatusAbove   Status = "above"
	StatusWithin  Status = "within"
	StatusUnknown Status = "unknown"
)

// Channel identifies a measured quantity.
type Channel string

const (
	ChannelTemperature Channel = "temperature"
	ChannelHumidity    Channel = "humidity"
)

// Fallback bands used while a device has not reported its own target/tolerance.
const (
	DefaultTargetTemperature    = 37.8
	DefaultTemperatureTolerance = 0.5
	DefaultTargetHumidity       = 55.0
	DefaultHumidityTolerance    = 5.0

	// OnlineWindow is how fresh the last update must be for a device to count as online.
	OnlineWindow = 3 * time.Minute
)

// Band is the acceptable range of a channel.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// BandFrom derives a band from target ± tolerance.
func BandFrom(target, tolerance float64) Band {
	return Band{Min: target - tolerance, Max: target + tolerance}
}

// BandOrDefault derives a band, substituting the fallback for missing target or tolerance.
func BandOrDefault(target, tolerance *float64, defTarget, defTolerance float64) Band {
	t, tol := defTarget, defTolerance
	if target != nil {
		t = *target
	}
	if tolerance != nil {
		tol = *tolerance
	}
	return BandFrom(t, tol)
}

// Classify compares value against band. Nil and NaN values are unknown.
func Classify(value *float64, b Band) Status {
	if !valid(value) {
		return StatusUnknown
	}
	v := *value
	switch {
	case v < b.Min:
		return StatusBelow
	case v > b.Max:
		return StatusAbove
	default:
		return StatusWithin
	}
}

// Issue is a human readable out-of-band condition.
type Issue struct {
	Channel Channel `json:"channel"`
	Status  Status  `json:"status"`
	Label   string  `json:"label"`
}

var issueLabels = map[Channel]map[Status]string{
	ChannelTemperature: {StatusBelow: "Temperature low", StatusAbove: "Temperature high"},
	ChannelHumidity:    {StatusBelow: "Humidity low", StatusAbove: "Humidity high"},
}

// Issues classifies both channels and returns the out-of-band ones, temperature first.
func Issues(temp, hum *float64, tempBand, humBand Band) []Issue {
	var out []Issue
	for _, c := range []struct {
		ch   Channel
		v    *float64
		band Band
	}{
		{ChannelTemperature, temp, tempBand},
		{ChannelHumidity, hum, humBand},
	} {
		st := Classify(c.v, c.band)
		if st == StatusBelow || st == StatusAbove {
			out = append(out, Issue{Channel: c.ch, Status: st, Label: issueLabels[c.ch][st]})
		}
	}
	return out
}

// IsOnline reports whether updatedAt lies within OnlineWindow before now.
func IsOnline(updatedAt *time.Time, now time.Time) bool {
	if updatedAt == nil || updatedAt.IsZero() {
		return false
	}
	return now.Sub(*updatedAt) < OnlineWindow
}

// Pill levels.
const (
	PillOK      = "ok"
	PillWarn    = "warn"
	PillAlert   = "alert"
	PillOffline = "offline"
)

// Pill is the compact status badge of a device.
type Pill struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// PillFor summarizes issues into a badge. Issues are ignored while offline.
func PillFor(online bool, issues []Issue) Pill {
	if !online {
		return Pill{Level: PillOffline, Text: "Offline"}
	}
	if len(issues) == 0 {
		return Pill{Level: PillOK, Text: "OK"}
	}
	level := PillWarn
	labels := make([]string, 0, len(issues))
	for _, is := range issues {
		if is.Channel == ChannelTemperature {
			level = PillAlert
		}
		labels = append(labels, is.Label)
	}
	return Pill{Level: level, Text: strings.Join(labels, " + ")}
}

func valid(v *float64) bool {
	return v != nil && !math.IsNaN(*v)
}
