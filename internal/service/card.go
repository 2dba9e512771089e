package service

import (
	"time"

	"incubator_monitor/internal/models"
	"incubator_monitor/internal/monitor"
)

// DeviceCard is what the dashboard renders for one device.
type DeviceCard struct {
	models.Device
	State    *models.DeviceState `json:"state"`
	Online   bool                `json:"online"`
	TempBand monitor.Band        `json:"temp_band"`
	HumBand  monitor.Band        `json:"hum_band"`
	Issues   []monitor.Issue     `json:"issues"`
	Pill     monitor.Pill        `json:"pill"`
}

// Bands returns the device's temperature and humidity bands, falling back to the defaults.
func Bands(st *models.DeviceState) (monitor.Band, monitor.Band) {
	var tTarget, tTol, hTarget, hTol *float64
	if st != nil {
		tTarget, tTol = st.TargetTemperature, st.TemperatureTolerance
		hTarget, hTol = st.TargetHumidity, st.HumidityTolerance
	}
	tb := monitor.BandOrDefault(tTarget, tTol, monitor.DefaultTargetTemperature, monitor.DefaultTemperatureTolerance)
	hb := monitor.BandOrDefault(hTarget, hTol, monitor.DefaultTargetHumidity, monitor.DefaultHumidityTolerance)
	return tb, hb
}

// BuildCard evaluates st against its bands at now.
func BuildCard(d models.Device, st *models.DeviceState, now time.Time) DeviceCard {
	tb, hb := Bands(st)
	card := DeviceCard{Device: d, State: st, TempBand: tb, HumBand: hb, Issues: []monitor.Issue{}}
	if st != nil {
		card.Online = monitor.IsOnline(st.LastUpdated, now)
	}
	// offline devices report no issues
	if card.Online {
		if is := monitor.Issues(st.Temperature, st.Humidity, tb, hb); is != nil {
			card.Issues = is
		}
	}
	card.Pill = monitor.PillFor(card.Online, card.Issues)
	return card
}
