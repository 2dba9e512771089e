package service

import (
	"context"
	"fmt"

	"incubator_monitor/internal/changefeed"
	"incubator_monitor/internal/logger"
	"incubator_monitor/internal/monitor"
	"incubator_monitor/internal/repository"
)

// WipeArmed is the slider position that arms a wipe.
const WipeArmed = 100

type MaintenanceService struct {
	repos *repository.Repository
	gate  AlertGate
	hub   *changefeed.Hub
	log   *logger.Logger
}

func NewMaintenanceService(repos *repository.Repository, deps Deps) *MaintenanceService {
	deps = deps.withDefaults()
	return &MaintenanceService{repos: repos, gate: deps.Gate, hub: deps.Hub, log: deps.Log}
}

type wipeStep struct {
	name WipeStep
	run  func(ctx context.Context, deviceID string) (int64, error)
}

// Wipe deletes a device's measurements, alerts, cycles and state, in that order.
// There is no rollback: the first failing step stops the sequence and the report
// lists what was already deleted.
func (s *MaintenanceService) Wipe(ctx context.Context, deviceID string, slider int) (WipeReport, error) {
	if slider != WipeArmed {
		return WipeReport{}, ErrWipeNotArmed
	}

	steps := []wipeStep{
		{WipeMeasurements, s.repos.Measurements.DeleteByDevice},
		{WipeAlerts, s.repos.Alerts.DeleteByDevice},
		{WipeCycles, s.deleteCycles},
		{WipeState, s.repos.States.Delete},
	}

	report := WipeReport{Done: []WipeStep{}, Deleted: make(map[WipeStep]int64, len(steps))}
	for _, st := range steps {
		n, err := st.run(ctx, deviceID)
		if err != nil {
			report.Failed = st.name
			report.Error = err.Error()
			s.log.Errorw("wipe_step_failed", "device_id", deviceID, "step", st.name, "done", report.Done, "err", err)
			return report, fmt.Errorf("wipe %s: %w", st.name, err)
		}
		report.Done = append(report.Done, st.name)
		report.Deleted[st.name] = n
		if st.name == WipeAlerts {
			// the log is empty now, later failures must not keep suppressing alerts
			s.forgetGate(ctx, deviceID)
		}
	}

	s.hub.Forget(deviceID)
	s.log.Infow("device_wiped", "device_id", deviceID, "deleted", report.Deleted)
	return report, nil
}

func (s *MaintenanceService) deleteCycles(ctx context.Context, deviceID string) (int64, error) {
	n, err := s.repos.Cycles.DeleteByDevice(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	return n, s.repos.Devices.SetCurrentCycle(ctx, deviceID, nil)
}

func (s *MaintenanceService) forgetGate(ctx context.Context, deviceID string) {
	if s.gate == nil {
		return
	}
	if err := s.gate.Forget(ctx, deviceID, ruleCodes(monitor.DefaultRules)); err != nil {
		s.log.Warnw("alert_gate_forget_failed", "device_id", deviceID, "err", err)
	}
}
