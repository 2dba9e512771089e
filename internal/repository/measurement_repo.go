package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"incubator_monitor/internal/models"
	sqldb "incubator_monitor/internal/repository/db"
)

type MeasurementSQL struct {
	db      *sql.DB
	dialect sqldb.Dialect
}

func NewMeasurementSQL(db *sql.DB, dialect sqldb.Dialect) *MeasurementSQL {
	return &MeasurementSQL{db: db, dialect: dialect}
}

var _ MeasurementRepo = (*MeasurementSQL)(nil)

const deleteMeasurementsSQL = `DELETE FROM measurements WHERE device_id = ?`

// List returns the samples of a device in [from, to), ordered ASC. Zero bounds are open.
func (r *MeasurementSQL) List(ctx context.Context, deviceID string, from, to time.Time) ([]models.Measurement, error) {
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

	q := `SELECT device_id, ts, temp, hum FROM measurements WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY ts ASC`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select measurements of %q: %w", deviceID, err)
	}
	defer rows.Close()

	out := make([]models.Measurement, 0, 256)
	for rows.Next() {
		var (
			m         models.Measurement
			temp, hum sql.NullFloat64
		)
		if err := rows.Scan(&m.DeviceID, &m.Timestamp, &temp, &hum); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		m.Temperature = floatPtr(temp)
		m.Humidity = floatPtr(hum)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MeasurementSQL) DeleteByDevice(ctx context.Context, deviceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(deleteMeasurementsSQL), deviceID)
	if err != nil {
		return 0, fmt.Errorf("delete measurements of %q: %w", deviceID, err)
	}
	return res.RowsAffected()
}
