package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"incubator_monitor/internal/models"
	sqldb "incubator_monitor/internal/repository/db"

	"github.com/DATA-DOG/go-sqlmock"
)

var cycleCols = []string{"id", "device_id", "animal_type", "started_at", "ended_at"}

func TestCycleSQL_ListByDevice(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewCycleSQL(db, sqldb.SQLite)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(21 * 24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(selectCyclesByDeviceSQL)).
		WithArgs("inc-1").
		WillReturnRows(sqlmock.NewRows(cycleCols).
			AddRow("c-2", "inc-1", "duck", end, nil).
			AddRow("c-1", "inc-1", "chicken", start, end))

	got, err := repo.ListByDevice(ctx(t), "inc-1")
	if err != nil {
		t.Fatalf("ListByDevice: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(got))
	}
	if !got[0].IsCurrent() || got[1].IsCurrent() {
		t.Fatalf("unexpected current flags: %+v", got)
	}
}

func TestCycleSQL_Start_EndsPreviousAndSetsPointer(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewCycleSQL(db, sqldb.SQLite)

	at := time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(endOpenCyclesSQL)).
		WithArgs(at, "inc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertCycleSQL)).
		WithArgs("c-9", "inc-1", "quail", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(updateCurrentCycleSQL)).
		WithArgs("c-9", "inc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c := &models.Cycle{ID: "c-9", DeviceID: "inc-1", AnimalType: "quail", StartedAt: at}
	if err := repo.Start(ctx(t), c); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestCycleSQL_Start_RollsBackOnInsertError(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewCycleSQL(db, sqldb.SQLite)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(endOpenCyclesSQL)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(insertCycleSQL)).
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := repo.Start(ctx(t), &models.Cycle{DeviceID: "inc-1", AnimalType: "duck"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestCycleSQL_EndAndDelete(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewCycleSQL(db, sqldb.SQLite)

	at := time.Date(2025, 4, 22, 6, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(endCycleSQL)).
		WithArgs(at, "c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteCycleSQL)).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if n, err := repo.End(ctx(t), "c-1", at); err != nil || n != 1 {
		t.Fatalf("End: n=%d err=%v", n, err)
	}
	if n, err := repo.Delete(ctx(t), "c-1"); err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
}
