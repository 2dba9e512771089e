package repository

import (
	"context"
	"database/sql"
	"time"

	"incubator_monitor/internal/models"
	sqldb "incubator_monitor/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type DeviceRepo interface {
	ListForUser(ctx context.Context, userID int) ([]models.Device, error)
	Get(ctx context.Context, deviceID string) (*models.Device, error)
	Create(ctx context.Context, d models.Device) error
	Link(ctx context.Context, userID int, deviceID string) error
	Unlink(ctx context.Context, userID int, deviceID string) (int64, error)
	IsLinked(ctx context.Context, userID int, deviceID string) (bool, error)
	DeleteOrphan(ctx context.Context, deviceID string, ownerID int) (int64, error)
	SetCurrentCycle(ctx context.Context, deviceID string, cycleID *string) error
}

type StateRepo interface {
	Get(ctx context.Context, deviceID string) (*models.DeviceState, error)
	ListForUser(ctx context.Context, userID int) ([]models.DeviceState, error)
	ListAll(ctx context.Context) ([]models.DeviceState, error)
	Patch(ctx context.Context, deviceID string, p models.StatePatch) error
	Delete(ctx context.Context, deviceID string) (int64, error)
}

type MeasurementRepo interface {
	List(ctx context.Context, deviceID string, from, to time.Time) ([]models.Measurement, error)
	DeleteByDevice(ctx context.Context, deviceID string) (int64, error)
}

type AlertRepo interface {
	Insert(ctx context.Context, a *models.AlertRecord) error
	ExistsSince(ctx context.Context, deviceID, code string, since time.Time) (bool, error)
	ListRecent(ctx context.Context, deviceID string, limit int) ([]models.AlertRecord, error)
	ListRange(ctx context.Context, deviceID string, from, to time.Time) ([]models.AlertRecord, error)
	DeleteByDevice(ctx context.Context, deviceID string) (int64, error)
}

type CycleRepo interface {
	ListByDevice(ctx context.Context, deviceID string) ([]models.Cycle, error)
	Get(ctx context.Context, id string) (*models.Cycle, error)
	Start(ctx context.Context, c *models.Cycle) error
	End(ctx context.Context, id string, at time.Time) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByDevice(ctx context.Context, deviceID string) (int64, error)
}

type AnimalRepo interface {
	List(ctx context.Context) ([]models.Animal, error)
}

type Repository struct {
	Auth         Authorization
	Devices      DeviceRepo
	States       StateRepo
	Measurements MeasurementRepo
	Alerts       AlertRepo
	Cycles       CycleRepo
	Animals      AnimalRepo
}

func NewRepository(db *sql.DB, dialect sqldb.Dialect) *Repository {
	return &Repository{
		Auth:         NewUserRepository(db, dialect),
		Devices:      NewDeviceSQL(db, dialect),
		States:       NewStateSQL(db, dialect),
		Measurements: NewMeasurementSQL(db, dialect),
		Alerts:       NewAlertSQL(db, dialect),
		Cycles:       NewCycleSQL(db, dialect),
		Animals:      NewAnimalSQL(db, dialect),
	}
}
