package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"incubator_monitor/internal/models"
	sqldb "incubator_monitor/internal/repository/db"
)

type DeviceSQL struct {
	db      *sql.DB
	dialect sqldb.Dialect
}

func NewDeviceSQL(db *sql.DB, dialect sqldb.Dialect) *DeviceSQL {
	return &DeviceSQL{db: db, dialect: dialect}
}

var _ DeviceRepo = (*DeviceSQL)(nil)

const (
	deviceColumns = `d.device_id, d.name, d.location, d.is_active, d.created_by, d.current_cycle_id, d.created_at`

	selectDevicesForUserSQL = `SELECT ` + deviceColumns + `
		FROM devices d
		JOIN user_devices ud ON ud.device_id = d.device_id
		WHERE ud.user_id = ?
		ORDER BY d.created_at ASC, d.device_id ASC`

	selectDeviceSQL = `SELECT ` + deviceColumns + ` FROM devices d WHERE d.device_id = ?`

	insertDeviceSQL = `INSERT INTO devices (device_id, name, location, is_active, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	insertUserDeviceSQL = `INSERT INTO user_devices (user_id, device_id) VALUES (?, ?)`
	deleteUserDeviceSQL = `DELETE FROM user_devices WHERE user_id = ? AND device_id = ?`
	selectUserDeviceSQL = `SELECT 1 FROM user_devices WHERE user_id = ? AND device_id = ?`

	// Only the creator may remove the row, and only once nobody is linked to it anymore.
	deleteOrphanDeviceSQL = `DELETE FROM devices
		WHERE device_id = ? AND created_by = ?
		AND NOT EXISTS (SELECT 1 FROM user_devices WHERE device_id = ?)`

	updateCurrentCycleSQL = `UPDATE devices SET current_cycle_id = ? WHERE device_id = ?`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(s rowScanner) (models.Device, error) {
	var (
		d     models.Device
		cycle sql.NullString
	)
	if err := s.Scan(&d.DeviceID, &d.Name, &d.Location, &d.IsActive, &d.CreatedBy, &cycle, &d.CreatedAt); err != nil {
		return models.Device{}, err
	}
	d.CurrentCycleID = stringPtr(cycle)
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

// ListForUser returns the devices linked to userID, oldest first.
func (r *DeviceSQL) ListForUser(ctx context.Context, userID int) ([]models.Device, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(selectDevicesForUserSQL), userID)
	if err != nil {
		return nil, fmt.Errorf("select devices for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.Device, 0, 8)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a device. Returns (nil, nil) if not found.
func (r *DeviceSQL) Get(ctx context.Context, deviceID string) (*models.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, r.dialect.Rebind(selectDeviceSQL), deviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select device %q: %w", deviceID, err)
	}
	return &d, nil
}

// Create inserts a device row. A unique violation is reported as ErrDuplicate.
func (r *DeviceSQL) Create(ctx context.Context, d models.Device) error {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(insertDeviceSQL),
		d.DeviceID, d.Name, d.Location, d.IsActive, d.CreatedBy, createdAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert device %q: %w", d.DeviceID, err)
	}
	return nil
}

// Link associates a device with a user. An existing link is reported as ErrDuplicate.
func (r *DeviceSQL) Link(ctx context.Context, userID int, deviceID string) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(insertUserDeviceSQL), userID, deviceID); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("link device %q to user %d: %w", deviceID, userID, err)
	}
	return nil
}

func (r *DeviceSQL) Unlink(ctx context.Context, userID int, deviceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(deleteUserDeviceSQL), userID, deviceID)
	if err != nil {
		return 0, fmt.Errorf("unlink device %q from user %d: %w", deviceID, userID, err)
	}
	return res.RowsAffected()
}

func (r *DeviceSQL) IsLinked(ctx context.Context, userID int, deviceID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectUserDeviceSQL), userID, deviceID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check link of device %q: %w", deviceID, err)
	}
	return true, nil
}

// DeleteOrphan removes the device row if ownerID created it and no user links remain.
func (r *DeviceSQL) DeleteOrphan(ctx context.Context, deviceID string, ownerID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(deleteOrphanDeviceSQL), deviceID, ownerID, deviceID)
	if err != nil {
		return 0, fmt.Errorf("delete device %q: %w", deviceID, err)
	}
	return res.RowsAffected()
}

func (r *DeviceSQL) SetCurrentCycle(ctx context.Context, deviceID string, cycleID *string) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(updateCurrentCycleSQL), cycleID, deviceID); err != nil {
		return fmt.Errorf("set current cycle of device %q: %w", deviceID, err)
	}
	return nil
}
