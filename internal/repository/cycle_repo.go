package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"incubator_monitor/internal/models"
	sqldb "incubator_monitor/internal/repository/db"

	"github.com/google/uuid"
)

type CycleSQL struct {
	db      *sql.DB
	dialect sqldb.Dialect
}

func NewCycleSQL(db *sql.DB, dialect sqldb.Dialect) *CycleSQL {
	return &CycleSQL{db: db, dialect: dialect}
}

var _ CycleRepo = (*CycleSQL)(nil)

const (
	cycleColumns = `id, device_id, animal_type, started_at, ended_at`

	selectCyclesByDeviceSQL = `SELECT ` + cycleColumns + ` FROM cycles WHERE device_id = ? ORDER BY started_at DESC`
	selectCycleSQL          = `SELECT ` + cycleColumns + ` FROM cycles WHERE id = ?`
	endOpenCyclesSQL        = `UPDATE cycles SET ended_at = ? WHERE device_id = ? AND ended_at IS NULL`
	insertCycleSQL          = `INSERT INTO cycles (id, device_id, animal_type, started_at) VALUES (?, ?, ?, ?)`
	endCycleSQL             = `UPDATE cycles SET ended_at = ? WHERE id = ? AND ended_at IS NULL`
	deleteCycleSQL          = `DELETE FROM cycles WHERE id = ?`
	deleteCyclesByDeviceSQL = `DELETE FROM cycles WHERE device_id = ?`
)

func scanCycle(s rowScanner) (models.Cycle, error) {
	var (
		c     models.Cycle
		ended sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.DeviceID, &c.AnimalType, &c.StartedAt, &ended); err != nil {
		return models.Cycle{}, err
	}
	c.StartedAt = c.StartedAt.UTC()
	c.EndedAt = timePtr(ended)
	return c, nil
}

// ListByDevice returns cycles of a device, most recently started first.
func (r *CycleSQL) ListByDevice(ctx context.Context, deviceID string) ([]models.Cycle, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(selectCyclesByDeviceSQL), deviceID)
	if err != nil {
		return nil, fmt.Errorf("select cycles of %q: %w", deviceID, err)
	}
	defer rows.Close()

	out := make([]models.Cycle, 0, 8)
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a cycle by ID. Returns (nil, nil) if not found.
func (r *CycleSQL) Get(ctx context.Context, id string) (*models.Cycle, error) {
	c, err := scanCycle(r.db.QueryRowContext(ctx, r.dialect.Rebind(selectCycleSQL), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select cycle %q: %w", id, err)
	}
	return &c, nil
}

// Start ends any running cycle of the device, inserts c and points the device at it, atomically.
func (r *CycleSQL) Start(ctx context.Context, c *models.Cycle) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = time.Now().UTC()
	} else {
		c.StartedAt = c.StartedAt.UTC()
	}
	c.EndedAt = nil

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin start cycle: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(endOpenCyclesSQL), c.StartedAt, c.DeviceID); err != nil {
		return fmt.Errorf("end running cycles of %q: %w", c.DeviceID, err)
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(insertCycleSQL), c.ID, c.DeviceID, c.AnimalType, c.StartedAt); err != nil {
		return fmt.Errorf("insert cycle for %q: %w", c.DeviceID, err)
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(updateCurrentCycleSQL), c.ID, c.DeviceID); err != nil {
		return fmt.Errorf("set current cycle of %q: %w", c.DeviceID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit start cycle: %w", err)
	}
	return nil
}

// End closes a running cycle. Already ended cycles are left untouched (0 rows).
func (r *CycleSQL) End(ctx context.Context, id string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(endCycleSQL), at.UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("end cycle %q: %w", id, err)
	}
	return res.RowsAffected()
}

func (r *CycleSQL) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(deleteCycleSQL), id)
	if err != nil {
		return 0, fmt.Errorf("delete cycle %q: %w", id, err)
	}
	return res.RowsAffected()
}

func (r *CycleSQL) DeleteByDevice(ctx context.Context, deviceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(deleteCyclesByDeviceSQL), deviceID)
	if err != nil {
		return 0, fmt.Errorf("delete cycles of %q: %w", deviceID, err)
	}
	return res.RowsAffected()
}
