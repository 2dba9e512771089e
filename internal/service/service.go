package service

import (
	"context"
	"errors"
	"time"

	"incubator_monitor/internal/changefeed"
	"incubator_monitor/internal/logger"
	"incubator_monitor/internal/metrics"
	"incubator_monitor/internal/models"
	"incubator_monitor/internal/monitor"
	"incubator_monitor/internal/notify"
	"incubator_monitor/internal/repository"
)

// Domain errors shared by handlers.
var (
	ErrDeviceNotFound       = errors.New("device not found")
	ErrCycleNotFound        = errors.New("cycle not found")
	ErrConfirmationMismatch = errors.New("confirmation text does not match")
	ErrWipeNotArmed         = errors.New("wipe slider must be at 100")
	ErrInvalidInput         = errors.New("invalid input")
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Devices is the dashboard view: linked devices with their latest state and status pill.
type Devices interface {
	ListDevices(ctx context.Context, userID int) ([]DeviceCard, error)
	GetDevice(ctx context.Context, userID int, deviceID string) (DeviceCard, error)
	AddDevice(ctx context.Context, userID int, in NewDevice) (models.Device, error)
	RemoveDevice(ctx context.Context, userID int, deviceID string) error
	PatchState(ctx context.Context, deviceID string, p models.StatePatch) (models.DeviceState, error)
	CheckAccess(ctx context.Context, userID int, deviceID string) error
}

// Alerts evaluates readings against the fixed rules and owns the alert log.
type Alerts interface {
	EvaluateState(ctx context.Context, st models.DeviceState) ([]models.AlertRecord, error)
	EvaluateDevice(ctx context.Context, deviceID string) ([]models.AlertRecord, error)
	EvaluateAll(ctx context.Context) (EvaluationSummary, error)
	ListAlerts(ctx context.Context, deviceID string) ([]models.AlertRecord, error)
	ClearAlerts(ctx context.Context, deviceID, confirmation string) (int64, error)
}

// Charts builds the display models of the device page.
type Charts interface {
	Chart(ctx context.Context, deviceID string, q ChartQuery) (monitor.Chart, error)
	Daily(ctx context.Context, deviceID string, q DailyQuery) (DailyReport, error)
	DailyWorkbook(ctx context.Context, deviceID string, q DailyQuery) ([]byte, error)
}

type Cycles interface {
	ListCycles(ctx context.Context, deviceID string) ([]models.Cycle, error)
	StartCycle(ctx context.Context, deviceID, animalType string) (models.Cycle, error)
	EndCycle(ctx context.Context, deviceID, cycleID string) (models.Cycle, error)
	DeleteCycle(ctx context.Context, deviceID, cycleID string) error
}

type Maintenance interface {
	Wipe(ctx context.Context, deviceID string, slider int) (WipeReport, error)
}

type Animals interface {
	ListAnimals(ctx context.Context) ([]models.Animal, error)
}

// AlertGate is an optional fast path in front of the alert log lookup.
type AlertGate interface {
	Seen(ctx context.Context, deviceID, code string) (bool, error)
	Mark(ctx context.Context, deviceID, code string, at time.Time) error
	Forget(ctx context.Context, deviceID string, codes []string) error
}

// Deps carries the collaborators that are not repositories. Zero values are valid.
type Deps struct {
	Log        *logger.Logger
	Hub        *changefeed.Hub
	Gate       AlertGate
	Notifier   notify.Notifier
	Metrics    *metrics.Metrics
	SigningKey string
	TokenTTL   time.Duration
	Cooldown   time.Duration
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Hub == nil {
		d.Hub = changefeed.NewHub(nil)
	}
	if d.Cooldown <= 0 {
		d.Cooldown = DefaultCooldown
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Devices
	Alerts
	Charts
	Cycles
	Maintenance
	Animals

	alerts *AlertService
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	deps = deps.withDefaults()
	alerts := NewAlertService(repos.Alerts, repos.States, deps)
	return &Service{
		Authorization: NewAuthService(repos.Auth, deps.SigningKey, deps.TokenTTL),
		Devices:       NewDeviceService(repos.Devices, repos.States, deps),
		Alerts:        alerts,
		Charts:        NewChartService(repos.Measurements, repos.Alerts, repos.States, repos.Cycles, deps),
		Cycles:        NewCycleService(repos.Cycles, repos.Devices, deps),
		Maintenance:   NewMaintenanceService(repos, deps),
		Animals:       NewAnimalService(repos.Animals),
		alerts:        alerts,
	}
}

// Close waits for pending alert notifications.
func (s *Service) Close() error {
	if s.alerts != nil {
		s.alerts.Flush()
	}
	return nil
}
