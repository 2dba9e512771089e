package service

import (
	"context"
	"testing"
	"time"

	"incubator_monitor/internal/changefeed"
	"incubator_monitor/internal/models"
	"incubator_monitor/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wipeFixture struct {
	devices *fakeDeviceRepo
	states  *fakeStateRepo
	meas    *fakeMeasurementRepo
	alerts  *fakeAlertRepo
	cycles  *fakeCycleRepo
	gate    *fakeGate
	hub     *changefeed.Hub
	svc     *MaintenanceService
}

func newWipeFixture() *wipeFixture {
	f := &wipeFixture{
		devices: newFakeDeviceRepo(),
		states:  newFakeStateRepo(models.DeviceState{DeviceID: "a", LastUpdated: tp(t0)}),
		meas: &fakeMeasurementRepo{series: []models.Measurement{
			sample("a", t0.Add(-time.Hour), fp(37.5), fp(55)),
			sample("a", t0, fp(37.6), fp(54)),
			sample("b", t0, fp(37.6), fp(54)),
		}},
		alerts: &fakeAlertRepo{alerts: []models.AlertRecord{{ID: "x", DeviceID: "a", Code: "TEMP_HIGH", Timestamp: t0}}},
		gate:   newFakeGate(),
		hub:    changefeed.NewHub(nil),
	}
	cur := "c1"
	f.devices.devices["a"] = models.Device{DeviceID: "a", CurrentCycleID: &cur}
	f.cycles = &fakeCycleRepo{devices: f.devices, cycles: []models.Cycle{{ID: "c1", DeviceID: "a", StartedAt: t0}}}
	f.gate.marks["a|TEMP_HIGH"] = true

	repos := &repository.Repository{
		Devices:      f.devices,
		States:       f.states,
		Measurements: f.meas,
		Alerts:       f.alerts,
		Cycles:       f.cycles,
	}
	f.svc = NewMaintenanceService(repos, Deps{Gate: f.gate, Hub: f.hub, Now: fixedNow})
	return f
}

func TestWipe_NotArmed(t *testing.T) {
	f := newWipeFixture()
	_, err := f.svc.Wipe(context.Background(), "a", 99)
	assert.ErrorIs(t, err, ErrWipeNotArmed)
	assert.Len(t, f.meas.series, 3)
}

func TestWipe_DeletesEverythingInOrder(t *testing.T) {
	f := newWipeFixture()
	f.hub.Replace(models.DeviceState{DeviceID: "a", LastUpdated: tp(t0)})

	report, err := f.svc.Wipe(context.Background(), "a", WipeArmed)
	require.NoError(t, err)

	assert.Equal(t, []WipeStep{WipeMeasurements, WipeAlerts, WipeCycles, WipeState}, report.Done)
	assert.Equal(t, int64(2), report.Deleted[WipeMeasurements])
	assert.Equal(t, int64(1), report.Deleted[WipeAlerts])
	assert.Equal(t, int64(1), report.Deleted[WipeCycles])
	assert.Equal(t, int64(1), report.Deleted[WipeState])
	assert.Empty(t, report.Failed)

	assert.Len(t, f.meas.series, 1, "other devices untouched")
	assert.Nil(t, f.devices.devices["a"].CurrentCycleID)
	assert.False(t, f.gate.marks["a|TEMP_HIGH"])
	_, ok := f.hub.Latest("a")
	assert.False(t, ok)
}

func TestWipe_StopsAtFirstFailure(t *testing.T) {
	f := newWipeFixture()
	f.alerts.deleteErr = errBoom

	report, err := f.svc.Wipe(context.Background(), "a", WipeArmed)
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, []WipeStep{WipeMeasurements}, report.Done)
	assert.Equal(t, WipeAlerts, report.Failed)
	assert.Equal(t, "boom", report.Error)

	assert.Len(t, f.meas.series, 1, "completed step is not rolled back")
	assert.Len(t, f.cycles.cycles, 1, "later steps do not run")
	assert.Contains(t, f.states.states, "a")
	assert.True(t, f.gate.marks["a|TEMP_HIGH"])
}

func TestWipe_LateFailureStillReleasesAlertGate(t *testing.T) {
	f := newWipeFixture()
	f.states.deleteErr = errBoom

	report, err := f.svc.Wipe(context.Background(), "a", WipeArmed)
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, []WipeStep{WipeMeasurements, WipeAlerts, WipeCycles}, report.Done)
	assert.Equal(t, WipeState, report.Failed)
	assert.Empty(t, f.alerts.alerts)
	assert.False(t, f.gate.marks["a|TEMP_HIGH"], "an emptied alert log must not stay gated")
}
