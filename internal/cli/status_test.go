package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"incubator_monitor/internal/models"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrintStatus(t *testing.T) {
	color.NoColor = true
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Minute)
	stale := now.Add(-time.Hour)
	hot, ok, dry := 39.0, 37.8, 30.0
	chicken := "Chicken"

	var out bytes.Buffer
	printStatus(&out, []models.DeviceState{
		{DeviceID: "hot", Temperature: &hot, Humidity: &ok, LastUpdated: &recent, AnimalLabel: &chicken},
		{DeviceID: "dry", Temperature: &ok, Humidity: &dry, LastUpdated: &recent},
		{DeviceID: "gone", Temperature: &ok, LastUpdated: &stale},
	}, now)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if assert.Len(t, lines, 4) {
		assert.Contains(t, lines[1], "Chicken")
		assert.Contains(t, lines[1], "Temperature high")
		assert.Contains(t, lines[2], "Humidity low")
		assert.Contains(t, lines[3], "Offline")
		assert.Contains(t, lines[3], "-")
	}
}

func TestFormatReading(t *testing.T) {
	v := 37.84
	assert.Equal(t, "37.8°C", formatReading(&v, "°C"))
	assert.Equal(t, "-", formatReading(nil, "%"))
	assert.Equal(t, "never", formatUpdated(nil))
}
