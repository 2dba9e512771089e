package repository

import (
	"context"
	"database/sql"
	"fmt"

	"incubator_monitor/internal/models"
	sqldb "incubator_monitor/internal/repository/db"
)

type AnimalSQL struct {
	db      *sql.DB
	dialect sqldb.Dialect
}

func NewAnimalSQL(db *sql.DB, dialect sqldb.Dialect) *AnimalSQL {
	return &AnimalSQL{db: db, dialect: dialect}
}

var _ AnimalRepo = (*AnimalSQL)(nil)

const selectAnimalsSQL = `SELECT id, name FROM animals ORDER BY name ASC`

func (r *AnimalSQL) List(ctx context.Context) ([]models.Animal, error) {
	rows, err := r.db.QueryContext(ctx, selectAnimalsSQL)
	if err != nil {
		return nil, fmt.Errorf("select animals: %w", err)
	}
	defer rows.Close()

	var out []models.Animal
	for rows.Next() {
		var a models.Animal
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan animal: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
