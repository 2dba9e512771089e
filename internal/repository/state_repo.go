package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"incubator_monitor/internal/models"
	sqldb "incubator_monitor/internal/repository/db"
)

type StateSQL struct {
	db      *sql.DB
	dialect sqldb.Dialect
}

func NewStateSQL(db *sql.DB, dialect sqldb.Dialect) *StateSQL {
	return &StateSQL{db: db, dialect: dialect}
}

var _ StateRepo = (*StateSQL)(nil)

const (
	stateSelect = `SELECT s.device_id, s.animal_type, a.name, s.day, s.temp, s.hum,
		s.target_temp, s.tol_temp, s.target_hum, s.tol_hum, s.updated_at
		FROM device_state s
		LEFT JOIN animals a ON a.id = s.animal_type`

	selectStateSQL         = stateSelect + ` WHERE s.device_id = ?`
	selectStatesForUserSQL = stateSelect + `
		JOIN user_devices ud ON ud.device_id = s.device_id
		WHERE ud.user_id = ?
		ORDER BY s.device_id ASC`
	selectAllStatesSQL = stateSelect + ` ORDER BY s.device_id ASC`

	// Only supplied fields overwrite; readings and updated_at belong to the device.
	upsertStatePatchSQL = `
		INSERT INTO device_state (device_id, animal_type, target_temp, tol_temp, target_hum, tol_hum)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE SET
			animal_type = COALESCE(excluded.animal_type, device_state.animal_type),
			target_temp = COALESCE(excluded.target_temp, device_state.target_temp),
			tol_temp    = COALESCE(excluded.tol_temp, device_state.tol_temp),
			target_hum  = COALESCE(excluded.target_hum, device_state.target_hum),
			tol_hum     = COALESCE(excluded.tol_hum, device_state.tol_hum)
	`

	deleteStateSQL = `DELETE FROM device_state WHERE device_id = ?`
)

func scanState(s rowScanner) (models.DeviceState, error) {
	var (
		st                                 models.DeviceState
		animal, label                      sql.NullString
		day                                sql.NullInt64
		temp, hum, tTemp, tolT, tHum, tolH sql.NullFloat64
		updated                            sql.NullTime
	)
	if err := s.Scan(&st.DeviceID, &animal, &label, &day, &temp, &hum, &tTemp, &tolT, &tHum, &tolH, &updated); err != nil {
		return models.DeviceState{}, err
	}
	st.AnimalType = stringPtr(animal)
	st.AnimalLabel = stringPtr(label)
	st.Day = intPtr(day)
	st.Temperature = floatPtr(temp)
	st.Humidity = floatPtr(hum)
	st.TargetTemperature = floatPtr(tTemp)
	st.TemperatureTolerance = floatPtr(tolT)
	st.TargetHumidity = floatPtr(tHum)
	st.HumidityTolerance = floatPtr(tolH)
	st.LastUpdated = timePtr(updated)
	return st, nil
}

// Get fetches the latest state of a device with its animal label. Returns (nil, nil) if not found.
func (r *StateSQL) Get(ctx context.Context, deviceID string) (*models.DeviceState, error) {
	st, err := scanState(r.db.QueryRowContext(ctx, r.dialect.Rebind(selectStateSQL), deviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select state of %q: %w", deviceID, err)
	}
	return &st, nil
}

func (r *StateSQL) ListForUser(ctx context.Context, userID int) ([]models.DeviceState, error) {
	return r.list(ctx, selectStatesForUserSQL, userID)
}

func (r *StateSQL) ListAll(ctx context.Context) ([]models.DeviceState, error) {
	return r.list(ctx, selectAllStatesSQL)
}

func (r *StateSQL) list(ctx context.Context, q string, args ...any) ([]models.DeviceState, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select states: %w", err)
	}
	defer rows.Close()

	out := make([]models.DeviceState, 0, 8)
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch upserts the user-editable fields of a device state.
func (r *StateSQL) Patch(ctx context.Context, deviceID string, p models.StatePatch) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(upsertStatePatchSQL),
		deviceID,
		p.AnimalType,
		p.TargetTemperature,
		p.TemperatureTolerance,
		p.TargetHumidity,
		p.HumidityTolerance,
	)
	if err != nil {
		return fmt.Errorf("patch state of %q: %w", deviceID, err)
	}
	return nil
}

func (r *StateSQL) Delete(ctx context.Context, deviceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(deleteStateSQL), deviceID)
	if err != nil {
		return 0, fmt.Errorf("delete state of %q: %w", deviceID, err)
	}
	return res.RowsAffected()
}
