package repository

import (
	"regexp"
	"testing"
	"time"

	sqldb "incubator_monitor/internal/repository/db"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMeasurementSQL_List(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewMeasurementSQL(db, sqldb.SQLite)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT device_id, ts, temp, hum FROM measurements WHERE device_id = ? AND ts >= ? AND ts < ? ORDER BY ts ASC`)).
		WithArgs("inc-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"device_id", "ts", "temp", "hum"}).
			AddRow("inc-1", from.Add(time.Minute), 37.7, nil).
			AddRow("inc-1", from.Add(2*time.Minute), nil, 54.0))

	got, err := repo.List(ctx(t), "inc-1", from, to)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[0].Temperature == nil || *got[0].Temperature != 37.7 || got[0].Humidity != nil {
		t.Fatalf("unexpected first sample: %+v", got[0])
	}
	if got[1].Temperature != nil || got[1].Humidity == nil {
		t.Fatalf("unexpected second sample: %+v", got[1])
	}
}

func TestMeasurementSQL_DeleteByDevice(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewMeasurementSQL(db, sqldb.SQLite)

	mock.ExpectExec(regexp.QuoteMeta(deleteMeasurementsSQL)).
		WithArgs("inc-1").
		WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := repo.DeleteByDevice(ctx(t), "inc-1")
	if err != nil || n != 42 {
		t.Fatalf("DeleteByDevice: n=%d err=%v", n, err)
	}
}
