package handlers

import (
	"context"
	"net/http"
	"sync"

	"incubator_monitor/internal/models"
	"incubator_monitor/internal/monitor"
	"incubator_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockDevices struct {
	mu sync.Mutex

	cards     []service.DeviceCard
	linked    map[string]bool
	added     service.NewDevice
	addErr    error
	removeErr error
	patched   models.StatePatch
	patchErr  error
	listCalls int
}

func (m *mockDevices) ListDevices(context.Context, int) ([]service.DeviceCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return m.cards, nil
}
func (m *mockDevices) GetDevice(_ context.Context, _ int, id string) (service.DeviceCard, error) {
	for _, c := range m.cards {
		if c.DeviceID == id {
			return c, nil
		}
	}
	return service.DeviceCard{}, service.ErrDeviceNotFound
}
func (m *mockDevices) AddDevice(_ context.Context, _ int, in service.NewDevice) (models.Device, error) {
	m.added = in
	return models.Device{DeviceID: in.DeviceID, Name: in.Name, IsActive: true}, m.addErr
}
func (m *mockDevices) RemoveDevice(context.Context, int, string) error { return m.removeErr }
func (m *mockDevices) PatchState(_ context.Context, id string, p models.StatePatch) (models.DeviceState, error) {
	m.patched = p
	return models.DeviceState{DeviceID: id, TargetTemperature: p.TargetTemperature}, m.patchErr
}
func (m *mockDevices) CheckAccess(_ context.Context, _ int, id string) error {
	if m.linked[id] {
		return nil
	}
	return service.ErrDeviceNotFound
}

type mockAlerts struct {
	alerts       []models.AlertRecord
	logged       []models.AlertRecord
	cleared      int64
	clearErr     error
	confirmation string
}

func (m *mockAlerts) EvaluateState(context.Context, models.DeviceState) ([]models.AlertRecord, error) {
	return m.logged, nil
}
func (m *mockAlerts) EvaluateDevice(context.Context, string) ([]models.AlertRecord, error) {
	return m.logged, nil
}
func (m *mockAlerts) EvaluateAll(context.Context) (service.EvaluationSummary, error) {
	return service.EvaluationSummary{}, nil
}
func (m *mockAlerts) ListAlerts(context.Context, string) ([]models.AlertRecord, error) {
	return m.alerts, nil
}
func (m *mockAlerts) ClearAlerts(_ context.Context, _ string, confirmation string) (int64, error) {
	m.confirmation = confirmation
	return m.cleared, m.clearErr
}

type mockCharts struct {
	chart     monitor.Chart
	report    service.DailyReport
	workbook  []byte
	err       error
	lastChart service.ChartQuery
	lastDaily service.DailyQuery
}

func (m *mockCharts) Chart(_ context.Context, _ string, q service.ChartQuery) (monitor.Chart, error) {
	m.lastChart = q
	return m.chart, m.err
}
func (m *mockCharts) Daily(_ context.Context, _ string, q service.DailyQuery) (service.DailyReport, error) {
	m.lastDaily = q
	return m.report, m.err
}
func (m *mockCharts) DailyWorkbook(_ context.Context, _ string, q service.DailyQuery) ([]byte, error) {
	m.lastDaily = q
	return m.workbook, m.err
}

type mockCycles struct {
	cycles    []models.Cycle
	started   string
	err       error
	lastCycle string
	deleteErr error
}

func (m *mockCycles) ListCycles(context.Context, string) ([]models.Cycle, error) {
	return m.cycles, m.err
}
func (m *mockCycles) StartCycle(_ context.Context, id, animal string) (models.Cycle, error) {
	m.started = animal
	return models.Cycle{ID: "c1", DeviceID: id, AnimalType: animal}, m.err
}
func (m *mockCycles) EndCycle(_ context.Context, id, cycleID string) (models.Cycle, error) {
	m.lastCycle = cycleID
	return models.Cycle{ID: cycleID, DeviceID: id}, m.err
}
func (m *mockCycles) DeleteCycle(_ context.Context, _, cycleID string) error {
	m.lastCycle = cycleID
	return m.deleteErr
}

type mockMaintenance struct {
	report service.WipeReport
	err    error
	slider int
}

func (m *mockMaintenance) Wipe(_ context.Context, _ string, slider int) (service.WipeReport, error) {
	m.slider = slider
	return m.report, m.err
}

type mockAnimals struct {
	animals []models.Animal
}

func (m *mockAnimals) ListAnimals(context.Context) ([]models.Animal, error) {
	return m.animals, nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, Options{})
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
