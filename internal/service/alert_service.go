package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"incubator_monitor/internal/logger"
	"incubator_monitor/internal/metrics"
	"incubator_monitor/internal/models"
	"incubator_monitor/internal/monitor"
	"incubator_monitor/internal/notify"
	"incubator_monitor/internal/repository"
)

const (
	// DefaultCooldown is how long an alert suppresses another one with the same device and code.
	DefaultCooldown = 10 * time.Minute
	// AlertLogLimit caps the alert log view.
	AlertLogLimit = 200
	// ClearConfirmation must be typed exactly to clear a device's alert log.
	ClearConfirmation = "DELETE"

	notifyTimeout = 5 * time.Second
	// notifyInFlight bounds concurrent deliveries; evaluation blocks once it is reached.
	notifyInFlight = 8
)

type AlertService struct {
	alertRepo repository.AlertRepo
	stateRepo repository.StateRepo
	gate      AlertGate
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	log       *logger.Logger
	rules     []monitor.Rule
	cooldown  time.Duration
	now       func() time.Time

	sending chan struct{}
	pending sync.WaitGroup
}

func NewAlertService(alertRepo repository.AlertRepo, stateRepo repository.StateRepo, deps Deps) *AlertService {
	deps = deps.withDefaults()
	return &AlertService{
		alertRepo: alertRepo,
		stateRepo: stateRepo,
		gate:      deps.Gate,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		log:       deps.Log,
		rules:     monitor.DefaultRules,
		cooldown:  deps.Cooldown,
		now:       deps.Now,
		sending:   make(chan struct{}, notifyInFlight),
	}
}

// EvaluateState logs one alert per breached rule unless the same (device, code) was logged
// within the cooldown. It returns the records it inserted.
func (s *AlertService) EvaluateState(ctx context.Context, st models.DeviceState) ([]models.AlertRecord, error) {
	breaches := monitor.MatchRules(s.rules, st.Temperature, st.Humidity)
	if len(breaches) == 0 {
		return nil, nil
	}

	now := s.now()
	var (
		logged []models.AlertRecord
		errs   []error
	)
	for _, b := range breaches {
		if s.recentlyLogged(ctx, st.DeviceID, b.Rule.Code, now) {
			continue
		}

		value := b.Value
		rec := models.AlertRecord{
			DeviceID:  st.DeviceID,
			Timestamp: now,
			Severity:  b.Rule.Severity,
			Code:      b.Rule.Code,
			Message:   b.Rule.Message,
			Value:     &value,
		}
		if err := s.alertRepo.Insert(ctx, &rec); err != nil {
			s.log.Errorw("alert_insert_failed", "device_id", st.DeviceID, "code", rec.Code, "err", err)
			errs = append(errs, err)
			continue
		}
		s.metrics.AlertLogged(rec.Code)
		s.log.Infow("alert_logged", "device_id", rec.DeviceID, "code", rec.Code, "value", value)

		if s.gate != nil {
			if err := s.gate.Mark(ctx, rec.DeviceID, rec.Code, rec.Timestamp); err != nil {
				s.log.Warnw("alert_gate_mark_failed", "device_id", rec.DeviceID, "err", err)
			}
		}
		s.notify(ctx, rec)
		logged = append(logged, rec)
	}
	return logged, errors.Join(errs...)
}

// recentlyLogged checks the gate, then the alert log. Lookup failures count as "not logged".
func (s *AlertService) recentlyLogged(ctx context.Context, deviceID, code string, now time.Time) bool {
	if s.gate != nil {
		seen, err := s.gate.Seen(ctx, deviceID, code)
		switch {
		case err != nil:
			s.log.Warnw("alert_gate_lookup_failed", "device_id", deviceID, "code", code, "err", err)
		case seen:
			s.metrics.AlertSuppressed("cache")
			return true
		}
	}

	exists, err := s.alertRepo.ExistsSince(ctx, deviceID, code, now.Add(-s.cooldown))
	if err != nil {
		s.log.Warnw("alert_lookup_failed", "device_id", deviceID, "code", code, "err", err)
		return false
	}
	if exists {
		s.metrics.AlertSuppressed("db")
	}
	return exists
}

// notify delivers rec in the background so slow sinks do not stall evaluation.
func (s *AlertService) notify(ctx context.Context, rec models.AlertRecord) {
	if s.notifier == nil {
		return
	}
	select {
	case s.sending <- struct{}{}:
	case <-ctx.Done():
		s.log.Warnw("alert_notify_skipped", "alert_id", rec.ID, "err", ctx.Err())
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() { <-s.sending }()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(nctx, rec); err != nil {
			s.log.Warnw("alert_notify_failed", "alert_id", rec.ID, "err", err)
		}
	}()
}

// Flush waits for deliveries started by earlier evaluations.
func (s *AlertService) Flush() {
	s.pending.Wait()
}

func (s *AlertService) EvaluateDevice(ctx context.Context, deviceID string) ([]models.AlertRecord, error) {
	st, err := s.stateRepo.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrDeviceNotFound
	}
	s.metrics.Evaluated()
	return s.EvaluateState(ctx, *st)
}

// EvaluateAll runs one evaluation pass over every known device state.
func (s *AlertService) EvaluateAll(ctx context.Context) (EvaluationSummary, error) {
	start := time.Now()
	states, err := s.stateRepo.ListAll(ctx)
	if err != nil {
		return EvaluationSummary{}, err
	}

	sum := EvaluationSummary{Devices: len(states)}
	for _, st := range states {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		s.metrics.Evaluated()
		logged, err := s.EvaluateState(ctx, st)
		sum.Logged += len(logged)
		if err != nil {
			sum.Failed++
			s.metrics.EvaluationFailed()
		}
	}
	sum.Took = time.Since(start)
	s.log.Debugw("alerts_evaluated", "devices", sum.Devices, "logged", sum.Logged, "failed", sum.Failed, "took", sum.Took)
	return sum, nil
}

// ListAlerts returns the latest AlertLogLimit alerts of a device, newest first.
func (s *AlertService) ListAlerts(ctx context.Context, deviceID string) ([]models.AlertRecord, error) {
	return s.alertRepo.ListRecent(ctx, deviceID, AlertLogLimit)
}

// ClearAlerts deletes every alert of a device once confirmation equals ClearConfirmation.
func (s *AlertService) ClearAlerts(ctx context.Context, deviceID, confirmation string) (int64, error) {
	if confirmation != ClearConfirmation {
		return 0, ErrConfirmationMismatch
	}
	n, err := s.alertRepo.DeleteByDevice(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	s.forgetGate(ctx, deviceID)
	s.log.Infow("alerts_cleared", "device_id", deviceID, "deleted", n)
	return n, nil
}

func (s *AlertService) forgetGate(ctx context.Context, deviceID string) {
	if s.gate == nil {
		return
	}
	if err := s.gate.Forget(ctx, deviceID, ruleCodes(s.rules)); err != nil {
		s.log.Warnw("alert_gate_forget_failed", "device_id", deviceID, "err", err)
	}
}

func ruleCodes(rules []monitor.Rule) []string {
	codes := make([]string, 0, len(rules))
	for _, r := range rules {
		codes = append(codes, r.Code)
	}
	return codes
}
