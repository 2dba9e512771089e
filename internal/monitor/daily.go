package monitor

import (
	"errors"
	"sort"
	"time"

	"incubator_monitor/internal/models"
)

// ErrNoCycleSelected is returned when daily aggregation has no cycle window to work on.
var ErrNoCycleSelected = errors.New("no cycle selected")

const dayLayout = "2006-01-02"

// DailyAvg is the per-day mean of both channels. Nil means no samples that day.
type DailyAvg struct {
	Day     string   `json:"day"`
	TempAvg *float64 `json:"temp_avg"`
	HumAvg  *float64 `json:"hum_avg"`
}

// Window is a half-open time range [Start, End). A nil End means "until now".
type Window struct {
	Start time.Time
	End   *time.Time
}

// CycleWindow returns the window of cycle, or ErrNoCycleSelected for nil.
func CycleWindow(c *models.Cycle) (Window, error) {
	if c == nil {
		return Window{}, ErrNoCycleSelected
	}
	return Window{Start: c.StartedAt, End: c.EndedAt}, nil
}

// Contains reports whether ts lies in the window, evaluated at now.
func (w Window) Contains(ts, now time.Time) bool {
	end := now
	if w.End != nil {
		end = *w.End
	}
	return !ts.Before(w.Start) && ts.Before(end)
}

// ClipDays moves the window start forward to now-days when that is later. days <= 0 is a no-op.
func (w Window) ClipDays(days int, now time.Time) Window {
	if days <= 0 {
		return w
	}
	if from := now.Add(-time.Duration(days) * 24 * time.Hour); from.After(w.Start) {
		w.Start = from
	}
	return w
}

type dayAcc struct {
	tSum, hSum float64
	tN, hN     int
}

// DailyAverages buckets samples in w by UTC calendar day.
func DailyAverages(series []models.Measurement, w Window, now time.Time) []DailyAvg {
	byDay := make(map[string]*dayAcc)
	for _, m := range series {
		if !w.Contains(m.Timestamp, now) {
			continue
		}
		day := m.Timestamp.UTC().Format(dayLayout)
		acc, ok := byDay[day]
		if !ok {
			acc = &dayAcc{}
			byDay[day] = acc
		}
		if valid(m.Temperature) {
			acc.tSum += *m.Temperature
			acc.tN++
		}
		if valid(m.Humidity) {
			acc.hSum += *m.Humidity
			acc.hN++
		}
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]DailyAvg, 0, len(days))
	for _, d := range days {
		acc := byDay[d]
		out = append(out, DailyAvg{
			Day:     d,
			TempAvg: mean1(acc.tSum, acc.tN),
			HumAvg:  mean1(acc.hSum, acc.hN),
		})
	}
	return out
}

func mean1(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := roundTo(sum/float64(n), 1)
	return &v
}
