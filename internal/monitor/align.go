package monitor

import (
	"math"
	"time"

	"incubator_monitor/internal/models"
)

// OverlayStrategy selects how an alert is placed on the series.
type OverlayStrategy string

const (
	// OverlayNearest places the alert on the sample closest in time.
	OverlayNearest OverlayStrategy = "nearest"
	// OverlayInterpolated places the alert at its own instant, interpolating between neighbours.
	OverlayInterpolated OverlayStrategy = "interpolated"
)

// ParseOverlay falls back to OverlayNearest for unknown input.
func ParseOverlay(s string) OverlayStrategy {
	if OverlayStrategy(s) == OverlayInterpolated {
		return OverlayInterpolated
	}
	return OverlayNearest
}

// Point is a single (timestamp, value) pair of a channel.
type Point struct {
	TS    time.Time
	Value *float64
}

// OverlayPoint is a chart marker for an alert.
type OverlayPoint struct {
	TS    time.Time `json:"ts"`
	Value float64   `json:"value"`
	Label string    `json:"label"`
}

// ChannelPoints projects one channel out of a measurement series.
func ChannelPoints(series []models.Measurement, ch Channel) []Point {
	out := make([]Point, len(series))
	for i, m := range series {
		v := m.Temperature
		if ch == ChannelHumidity {
			v = m.Humidity
		}
		out[i] = Point{TS: m.Timestamp, Value: v}
	}
	return out
}

// NearestIndex returns the index of the point closest to at. Only a strictly smaller
// distance replaces the incumbent, so the earliest index wins ties. -1 for an empty series.
func NearestIndex(points []Point, at time.Time) int {
	best := -1
	var bestD time.Duration
	for i, p := range points {
		d := absDuration(p.TS.Sub(at))
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Overlay maps alerts onto points using strategy and collapses markers with the same
// (timestamp, value). The first occurrence keeps its position, the last label wins.
func Overlay(points []Point, alerts []models.AlertRecord, strategy OverlayStrategy) []OverlayPoint {
	if len(points) == 0 || len(alerts) == 0 {
		return []OverlayPoint{}
	}

	type key struct {
		ts int64
		v  float64
	}
	out := make([]OverlayPoint, 0, len(alerts))
	seen := make(map[key]int, len(alerts))

	for _, a := range alerts {
		p, ok := place(points, a.Timestamp, strategy)
		if !ok {
			continue
		}
		p.Label = alertLabel(a)
		k := key{ts: p.TS.UnixNano(), v: p.Value}
		if i, dup := seen[k]; dup {
			out[i].Label = p.Label
			continue
		}
		seen[k] = len(out)
		out = append(out, p)
	}
	return out
}

func place(points []Point, at time.Time, strategy OverlayStrategy) (OverlayPoint, bool) {
	if strategy == OverlayInterpolated {
		if v, ok := interpolate(points, at); ok {
			return OverlayPoint{TS: at, Value: v}, true
		}
	}
	i := NearestIndex(points, at)
	if i < 0 || !valid(points[i].Value) {
		return OverlayPoint{}, false
	}
	return OverlayPoint{TS: points[i].TS, Value: *points[i].Value}, true
}

// interpolate linearly between the valid neighbours around at. Outside the series range
// it reports false so the caller clamps to the nearest sample.
func interpolate(points []Point, at time.Time) (float64, bool) {
	var (
		prev, next *Point
	)
	for i := range points {
		p := &points[i]
		if !valid(p.Value) {
			continue
		}
		if !p.TS.After(at) {
			prev = p
			continue
		}
		next = p
		break
	}
	if prev == nil || next == nil {
		return 0, false
	}
	if prev.TS.Equal(at) {
		return *prev.Value, true
	}
	span := next.TS.Sub(prev.TS).Seconds()
	frac := at.Sub(prev.TS).Seconds() / span
	return *prev.Value + (*next.Value-*prev.Value)*frac, true
}

func alertLabel(a models.AlertRecord) string {
	switch {
	case a.Message != "":
		return a.Message
	case a.Code != "":
		return a.Code
	default:
		return "Alert"
	}
}

// Domain returns the axis range covering both the data extrema and the band,
// padded by pad and rounded to decimals. An empty series yields the padded band.
func Domain(values []*float64, band Band, pad float64, decimals int) (float64, float64) {
	lo, hi := band.Min, band.Max
	for _, v := range values {
		if !valid(v) {
			continue
		}
		lo = math.Min(lo, *v)
		hi = math.Max(hi, *v)
	}
	// min == max is covered by the same symmetric pad.
	lo -= pad
	hi += pad
	return roundTo(lo, decimals), roundTo(hi, decimals)
}

// roundTo rounds halves up (towards +Inf), so -0.25 becomes -0.2.
func roundTo(x float64, decimals int) float64 {
	k := math.Pow(10, float64(decimals))
	return math.Floor(x*k+0.5) / k
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
