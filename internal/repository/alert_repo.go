package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"incubator_monitor/internal/models"
	sqldb "incubator_monitor/internal/repository/db"

	"github.com/google/uuid"
)

type AlertSQL struct {
	db      *sql.DB
	dialect sqldb.Dialect
}

func NewAlertSQL(db *sql.DB, dialect sqldb.Dialect) *AlertSQL {
	return &AlertSQL{db: db, dialect: dialect}
}

var _ AlertRepo = (*AlertSQL)(nil)

const (
	insertAlertSQL = `
		INSERT INTO alerts (id, device_id, ts, level, code, message, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	existsAlertSinceSQL   = `SELECT id FROM alerts WHERE device_id = ? AND code = ? AND ts >= ? LIMIT 1`
	selectRecentAlertsSQL = `SELECT id, device_id, ts, level, code, message, value FROM alerts
		WHERE device_id = ? ORDER BY ts DESC LIMIT ?`
	deleteAlertsSQL       = `DELETE FROM alerts WHERE device_id = ?`
)

// Insert appends an alert. If ID or Timestamp are empty, they're set on a.
func (r *AlertSQL) Insert(ctx context.Context, a *models.AlertRecord) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	} else {
		a.Timestamp = a.Timestamp.UTC()
	}

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(insertAlertSQL),
		a.ID,
		a.DeviceID,
		a.Timestamp,
		strings.ToLower(strings.TrimSpace(a.Severity)),
		strings.ToUpper(strings.TrimSpace(a.Code)),
		a.Message,
		a.Value,
	)
	if err != nil {
		return fmt.Errorf("insert alert %s for %q: %w", a.Code, a.DeviceID, err)
	}
	return nil
}

// ExistsSince reports whether an alert with the same device and code was logged at or after since.
func (r *AlertSQL) ExistsSince(ctx context.Context, deviceID, code string, since time.Time) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(existsAlertSinceSQL), deviceID, code, since.UTC()).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup recent %s alert of %q: %w", code, deviceID, err)
	}
	return true, nil
}

// ListRecent returns up to limit alerts of a device, newest first.
func (r *AlertSQL) ListRecent(ctx context.Context, deviceID string, limit int) ([]models.AlertRecord, error) {
	return r.query(ctx, selectRecentAlertsSQL, deviceID, limit)
}

// ListRange returns alerts in [from, to), ordered ASC. Zero bounds are open.
func (r *AlertSQL) ListRange(ctx context.Context, deviceID string, from, to time.Time) ([]models.AlertRecord, error) {
	conds := []string{"device_id = ?"}
	args := []any{deviceID}
	if !from.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "ts < ?")
		args = append(args, to.UTC())
	}
	q := `SELECT id, device_id, ts, level, code, message, value FROM alerts WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY ts ASC`
	return r.query(ctx, q, args...)
}

func (r *AlertSQL) query(ctx context.Context, q string, args ...any) ([]models.AlertRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select alerts: %w", err)
	}
	defer rows.Close()

	out := make([]models.AlertRecord, 0, 64)
	for rows.Next() {
		var (
			a     models.AlertRecord
			value sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.DeviceID, &a.Timestamp, &a.Severity, &a.Code, &a.Message, &value); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Timestamp = a.Timestamp.UTC()
		a.Value = floatPtr(value)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AlertSQL) DeleteByDevice(ctx context.Context, deviceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(deleteAlertsSQL), deviceID)
	if err != nil {
		return 0, fmt.Errorf("delete alerts of %q: %w", deviceID, err)
	}
	return res.RowsAffected()
}
