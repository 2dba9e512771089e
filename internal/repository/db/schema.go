package db

import "strings"

// Statements are written once for SQLite; Postgres gets its column types substituted.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id {{serial}},
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS animals (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS devices (
    device_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_by INTEGER NOT NULL,
    current_cycle_id TEXT,
    created_at {{ts}} NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS user_devices (
    user_id INTEGER NOT NULL,
    device_id TEXT NOT NULL,
    PRIMARY KEY (user_id, device_id)
)`,
	`CREATE TABLE IF NOT EXISTS device_state (
    device_id TEXT PRIMARY KEY,
    animal_type TEXT,
    day INTEGER,
    temp {{real}},
    hum {{real}},
    target_temp {{real}},
    tol_temp {{real}},
    target_hum {{real}},
    tol_hum {{real}},
    updated_at {{ts}}
)`,
	`CREATE TABLE IF NOT EXISTS measurements (
    device_id TEXT NOT NULL,
    ts {{ts}} NOT NULL,
    temp {{real}},
    hum {{real}}
)`,
	`CREATE INDEX IF NOT EXISTS measurements_device_ts ON measurements (device_id, ts)`,
	`CREATE TABLE IF NOT EXISTS alerts (
    id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL,
    ts {{ts}} NOT NULL,
    level TEXT NOT NULL,
    code TEXT NOT NULL,
    message TEXT NOT NULL,
    value {{real}}
)`,
	`CREATE INDEX IF NOT EXISTS alerts_device_code_ts ON alerts (device_id, code, ts)`,
	`CREATE TABLE IF NOT EXISTS cycles (
    id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL,
    animal_type TEXT NOT NULL,
    started_at {{ts}} NOT NULL,
    ended_at {{ts}}
)`,
	`INSERT INTO animals (id, name) VALUES
    ('chicken', 'Chicken'),
    ('duck', 'Duck'),
    ('goose', 'Goose'),
    ('quail', 'Quail'),
    ('turkey', 'Turkey')
ON CONFLICT (id) DO NOTHING`,
}

var columnTypes = map[Dialect]*strings.Replacer{
	SQLite: strings.NewReplacer(
		"{{serial}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TIMESTAMP",
		"{{real}}", "REAL",
	),
	Postgres: strings.NewReplacer(
		"{{serial}}", "SERIAL PRIMARY KEY",
		"{{ts}}", "TIMESTAMPTZ",
		"{{real}}", "DOUBLE PRECISION",
	),
}

func schemaFor(d Dialect) []string {
	r := columnTypes[d]
	out := make([]string, len(schemaStatements))
	for i, s := range schemaStatements {
		out[i] = r.Replace(s)
	}
	return out
}
