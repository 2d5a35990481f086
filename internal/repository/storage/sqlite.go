package storage

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	// sqlite serializes writers anyway
	conn.SetMaxOpenConns(1)

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS q_tables (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS q_states (
			name  TEXT NOT NULL REFERENCES q_tables(name) ON DELETE CASCADE,
			state TEXT NOT NULL,
			PRIMARY KEY (name, state)
		)`,
		`CREATE TABLE IF NOT EXISTS q_values (
			name   TEXT    NOT NULL,
			state  TEXT    NOT NULL,
			action INTEGER NOT NULL,
			value  REAL    NOT NULL,
			PRIMARY KEY (name, state, action),
			FOREIGN KEY (name, state) REFERENCES q_states(name, state) ON DELETE CASCADE
		)`,
	}

	for _, query := range queries {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *Storage) Close() error {
	return that.Connection.Close()
}
