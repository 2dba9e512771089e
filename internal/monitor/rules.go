package monitor

import "incubator_monitor/internal/models"

// Alert codes of the fixed rule set.
const (
	CodeTempHigh = "TEMP_HIGH"
	CodeTempLow  = "TEMP_LOW"
	CodeHumHigh  = "HUM_HIGH"
	CodeHumLow   = "HUM_LOW"
)

// Rule is a global absolute threshold. It is independent of the per-device band.
type Rule struct {
	Code      string
	Channel   Channel
	Severity  string
	Threshold float64
	High      bool // true: value >= Threshold breaches; false: value <= Threshold
	Message   string
}

func (r Rule) breached(v float64) bool {
	if r.High {
		return v >= r.Threshold
	}
	return v <= r.Threshold
}

// DefaultRules lists, per channel, the high rule before the low rule.
var DefaultRules = []Rule{
	{Code: CodeTempHigh, Channel: ChannelTemperature, Severity: models.SeverityAlert, Threshold: 38.2, High: true, Message: "Temperature too high"},
	{Code: CodeTempLow, Channel: ChannelTemperature, Severity: models.SeverityAlert, Threshold: 36.8, Message: "Temperature too low"},
	{Code: CodeHumHigh, Channel: ChannelHumidity, Severity: models.SeverityWarn, Threshold: 65.0, High: true, Message: "Humidity high"},
	{Code: CodeHumLow, Channel: ChannelHumidity, Severity: models.SeverityWarn, Threshold: 40.0, Message: "Humidity low"},
}

// Breach is a rule matched by a reading.
type Breach struct {
	Rule  Rule
	Value float64
}

// MatchRules returns at most one breach per channel, temperature first.
func MatchRules(rules []Rule, temp, hum *float64) []Breach {
	var out []Breach
	for _, ch := range []struct {
		c Channel
		v *float64
	}{{ChannelTemperature, temp}, {ChannelHumidity, hum}} {
		if !valid(ch.v) {
			continue
		}
		for _, r := range rules {
			if r.Channel == ch.c && r.breached(*ch.v) {
				out = append(out, Breach{Rule: r, Value: *ch.v})
				break
			}
		}
	}
	return out
}
