package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"incubator_monitor/internal/models"
	sqldb "incubator_monitor/internal/repository/db"
)

type UserRepository struct {
	db      *sql.DB
	dialect sqldb.Dialect
}

func NewUserRepository(db *sql.DB, dialect sqldb.Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

// Ensure implementation of Authorization interface at compile time.
var _ Authorization = (*UserRepository)(nil)

const (
	insertUserSQL           = `INSERT INTO users (username, password_hash) VALUES (?, ?) RETURNING id`
	selectUserByUsernameSQL = `SELECT id, username, password_hash FROM users WHERE username = ?`
)

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(username, passwordHash string) (int, error) {
	var id int
	err := r.db.QueryRow(r.dialect.Rebind(insertUserSQL), username, passwordHash).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", username, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	return id, nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) if not found.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(r.dialect.Rebind(selectUserByUsernameSQL), username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return &u, nil
}
