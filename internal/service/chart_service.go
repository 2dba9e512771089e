package service

import (
	"context"
	"fmt"
	"time"

	"incubator_monitor/internal/models"
	"incubator_monitor/internal/monitor"
	"incubator_monitor/internal/repository"
)

const (
	defaultChartHours = 24
	maxChartHours     = 24 * 28
)

// AllowedDayRanges are the day ranges selectable on the daily chart. 0 means the whole cycle.
var AllowedDayRanges = []int{0, 7, 21, 28}

type ChartService struct {
	measRepo  repository.MeasurementRepo
	alertRepo repository.AlertRepo
	stateRepo repository.StateRepo
	cycleRepo repository.CycleRepo
	now       func() time.Time
}

func NewChartService(
	measRepo repository.MeasurementRepo,
	alertRepo repository.AlertRepo,
	stateRepo repository.StateRepo,
	cycleRepo repository.CycleRepo,
	deps Deps,
) *ChartService {
	deps = deps.withDefaults()
	return &ChartService{
		measRepo:  measRepo,
		alertRepo: alertRepo,
		stateRepo: stateRepo,
		cycleRepo: cycleRepo,
		now:       deps.Now,
	}
}

// Chart builds the recent-hours chart with alert markers placed on the series.
func (s *ChartService) Chart(ctx context.Context, deviceID string, q ChartQuery) (monitor.Chart, error) {
	hours := q.Hours
	if hours == 0 {
		hours = defaultChartHours
	}
	if hours < 0 || hours > maxChartHours {
		return monitor.Chart{}, fmt.Errorf("%w: hours must be between 1 and %d", ErrInvalidInput, maxChartHours)
	}

	from := s.now().Add(-time.Duration(hours) * time.Hour)
	series, err := s.measRepo.List(ctx, deviceID, from, time.Time{})
	if err != nil {
		return monitor.Chart{}, err
	}
	alerts, err := s.alertRepo.ListRange(ctx, deviceID, from, time.Time{})
	if err != nil {
		return monitor.Chart{}, err
	}
	st, err := s.stateRepo.Get(ctx, deviceID)
	if err != nil {
		return monitor.Chart{}, err
	}

	opts := monitor.DefaultChartOptions()
	if q.SmoothingWindow > 0 {
		opts.SmoothingWindow = q.SmoothingWindow
	}
	if q.Overlay != "" {
		opts.Overlay = q.Overlay
	}
	tb, hb := Bands(st)
	return monitor.BuildChart(series, alerts, tb, hb, opts), nil
}

// Daily aggregates the selected cycle (or the running one) into per-day means.
// Without a cycle it returns monitor.ErrNoCycleSelected.
func (s *ChartService) Daily(ctx context.Context, deviceID string, q DailyQuery) (DailyReport, error) {
	if !validDayRange(q.Days) {
		return DailyReport{}, fmt.Errorf("%w: days must be one of %v", ErrInvalidInput, AllowedDayRanges)
	}

	cycle, err := s.selectCycle(ctx, deviceID, q.CycleID)
	if err != nil {
		return DailyReport{}, err
	}
	w, err := monitor.CycleWindow(cycle)
	if err != nil {
		return DailyReport{}, err
	}

	now := s.now()
	w = w.ClipDays(q.Days, now)

	var to time.Time
	if w.End != nil {
		to = *w.End
	}
	series, err := s.measRepo.List(ctx, deviceID, w.Start, to)
	if err != nil {
		return DailyReport{}, err
	}

	return DailyReport{
		Cycle: *cycle,
		Days:  q.Days,
		Rows:  monitor.DailyAverages(series, w, now),
	}, nil
}

func (s *ChartService) selectCycle(ctx context.Context, deviceID, cycleID string) (*models.Cycle, error) {
	if cycleID != "" {
		c, err := s.cycleRepo.Get(ctx, cycleID)
		if err != nil {
			return nil, err
		}
		if c == nil || c.DeviceID != deviceID {
			return nil, ErrCycleNotFound
		}
		return c, nil
	}

	cycles, err := s.cycleRepo.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	for i := range cycles {
		if cycles[i].IsCurrent() {
			return &cycles[i], nil
		}
	}
	return nil, nil
}

func validDayRange(days int) bool {
	for _, d := range AllowedDayRanges {
		if d == days {
			return true
		}
	}
	return false
}

// DailyWorkbook renders the daily report as an xlsx file.
func (s *ChartService) DailyWorkbook(ctx context.Context, deviceID string, q DailyQuery) ([]byte, error) {
	report, err := s.Daily(ctx, deviceID, q)
	if err != nil {
		return nil, err
	}
	return dailyWorkbook(deviceID, report)
}
