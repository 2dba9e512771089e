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

var stateCols = []string{"device_id", "animal_type", "name", "day", "temp", "hum",
	"target_temp", "tol_temp", "target_hum", "tol_hum", "updated_at"}

func TestStateSQL_Get(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewStateSQL(db, sqldb.SQLite)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
		WithArgs("inc-1").
		WillReturnRows(sqlmock.NewRows(stateCols).
			AddRow("inc-1", "chicken", "Chicken", 5, 37.9, 56.0, 37.8, 0.5, nil, nil, ts))

	st, err := repo.Get(ctx(t), "inc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st == nil {
		t.Fatalf("expected state, got nil")
	}
	if st.AnimalLabel == nil || *st.AnimalLabel != "Chicken" {
		t.Fatalf("unexpected label: %v", st.AnimalLabel)
	}
	if st.Day == nil || *st.Day != 5 {
		t.Fatalf("unexpected day: %v", st.Day)
	}
	if st.TargetHumidity != nil || st.HumidityTolerance != nil {
		t.Fatalf("expected nil humidity targets, got %v %v", st.TargetHumidity, st.HumidityTolerance)
	}
	if st.LastUpdated == nil || !st.LastUpdated.Equal(ts) {
		t.Fatalf("unexpected updated_at: %v", st.LastUpdated)
	}
}

func TestStateSQL_GetNotFound(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewStateSQL(db, sqldb.SQLite)

	mock.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
		WithArgs("x").
		WillReturnRows(sqlmock.NewRows(stateCols))

	st, err := repo.Get(ctx(t), "x")
	if err != nil || st != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", st, err)
	}
}

func TestStateSQL_ListAll_QueryError(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewStateSQL(db, sqldb.SQLite)

	mock.ExpectQuery(regexp.QuoteMeta(selectAllStatesSQL)).
		WillReturnError(errors.New("boom"))

	if _, err := repo.ListAll(ctx(t)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStateSQL_Patch(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)
	repo := NewStateSQL(db, sqldb.SQLite)

	animal := "duck"
	mock.ExpectExec(regexp.QuoteMeta(upsertStatePatchSQL)).
		WithArgs("inc-1", "duck", 37.5, nil, nil, 6.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Patch(ctx(t), "inc-1", models.StatePatch{
		AnimalType:        &animal,
		TargetTemperature: fp(37.5),
		HumidityTolerance: fp(6),
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
}
