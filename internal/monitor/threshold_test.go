package monitor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	b := Band{Min: 37.3, Max: 38.3}

	cases := []struct {
		name string
		in   *float64
		want Status
	}{
		{"nil", nil, StatusUnknown},
		{"nan", f(math.NaN()), StatusUnknown},
		{"below", f(37.2), StatusBelow},
		{"at min", f(37.3), StatusWithin},
		{"inside", f(37.8), StatusWithin},
		{"at max", f(38.3), StatusWithin},
		{"above", f(38.31), StatusAbove},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.in, b))
		})
	}
}

func TestBandOrDefault(t *testing.T) {
	got := BandOrDefault(nil, nil, DefaultTargetTemperature, DefaultTemperatureTolerance)
	assert.InDelta(t, 37.3, got.Min, 1e-9)
	assert.InDelta(t, 38.3, got.Max, 1e-9)

	got = BandOrDefault(f(60), f(2), DefaultTargetHumidity, DefaultHumidityTolerance)
	assert.Equal(t, Band{Min: 58, Max: 62}, got)
}

func TestIssues_OrderAndLabels(t *testing.T) {
	tb := Band{Min: 37.3, Max: 38.3}
	hb := Band{Min: 50, Max: 60}

	assert.Empty(t, Issues(f(37.8), f(55), tb, hb))
	assert.Empty(t, Issues(nil, nil, tb, hb))

	got := Issues(f(39), f(45), tb, hb)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "Temperature high", got[0].Label)
		assert.Equal(t, "Humidity low", got[1].Label)
	}
}

func TestPillFor(t *testing.T) {
	tb := Band{Min: 37.3, Max: 38.3}
	hb := Band{Min: 50, Max: 60}

	assert.Equal(t, Pill{Level: PillOffline, Text: "Offline"}, PillFor(false, Issues(f(40), nil, tb, hb)))
	assert.Equal(t, Pill{Level: PillOK, Text: "OK"}, PillFor(true, nil))
	assert.Equal(t, Pill{Level: PillWarn, Text: "Humidity high"}, PillFor(true, Issues(f(37.8), f(70), tb, hb)))
	assert.Equal(t,
		Pill{Level: PillAlert, Text: "Temperature low + Humidity high"},
		PillFor(true, Issues(f(30), f(70), tb, hb)),
	)
}

func TestIsOnline(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Minute)
	stale := now.Add(-3 * time.Minute)

	assert.True(t, IsOnline(&recent, now))
	assert.False(t, IsOnline(&stale, now))
	assert.False(t, IsOnline(nil, now))
}

func TestMatchRules(t *testing.T) {
	got := MatchRules(DefaultRules, f(38.5), f(50))
	if assert.Len(t, got, 1) {
		assert.Equal(t, CodeTempHigh, got[0].Rule.Code)
		assert.Equal(t, 38.5, got[0].Value)
	}

	got = MatchRules(DefaultRules, f(36.8), f(65))
	if assert.Len(t, got, 2) {
		assert.Equal(t, CodeTempLow, got[0].Rule.Code)
		assert.Equal(t, CodeHumHigh, got[1].Rule.Code)
		assert.Equal(t, "warn", got[1].Rule.Severity)
	}

	assert.Empty(t, MatchRules(DefaultRules, f(37.5), f(40.1)))
	assert.Empty(t, MatchRules(DefaultRules, nil, f(math.NaN())))
}
