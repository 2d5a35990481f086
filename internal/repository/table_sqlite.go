package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
)

type sqlTable struct {
	conn *sql.DB
}

// NewSQLiteTableRepository stores one row per (state, action). The schema is
// created by storage.Storage.Init.
func NewSQLiteTableRepository(conn *sql.DB) TableRepository {
	return &sqlTable{
		conn: conn,
	}
}

func (that *sqlTable) Save(ctx context.Context, name string, table qlearning.Table) error {
	if err := validateName(name); err != nil {
		return err
	}

	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	if err = deleteTable(ctx, tx, name); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO q_tables (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("can't save table: %w", err)
	}

	stateStmt, err := tx.PrepareContext(ctx, `INSERT INTO q_states (name, state) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("can't prepare state insert: %w", err)
	}
	defer stateStmt.Close()

	valueStmt, err := tx.PrepareContext(ctx, `INSERT INTO q_values (name, state, action, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("can't prepare value insert: %w", err)
	}
	defer valueStmt.Close()

	for state, actions := range table {
		if _, err = stateStmt.ExecContext(ctx, name, state); err != nil {
			return fmt.Errorf("can't save state %s: %w", state, err)
		}

		for action, value := range actions {
			if _, err = valueStmt.ExecContext(ctx, name, state, action, value); err != nil {
				return fmt.Errorf("can't save value %s/%d: %w", state, action, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit table: %w", err)
	}

	return nil
}

func (that *sqlTable) Load(ctx context.Context, name string) (qlearning.Table, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var found string
	err := that.conn.QueryRowContext(ctx, `SELECT name FROM q_tables WHERE name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find table: %w", err)
	}

	table := make(qlearning.Table)

	states, err := that.conn.QueryContext(ctx, `SELECT state FROM q_states WHERE name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("can't load states: %w", err)
	}
	defer states.Close()

	for states.Next() {
		var state string
		if err = states.Scan(&state); err != nil {
			return nil, fmt.Errorf("can't scan state: %w", err)
		}
		table[state] = make(map[int]float64)
	}
	if err = states.Err(); err != nil {
		return nil, fmt.Errorf("can't load states: %w", err)
	}

	values, err := that.conn.QueryContext(ctx, `SELECT state, action, value FROM q_values WHERE name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("can't load values: %w", err)
	}
	defer values.Close()

	for values.Next() {
		var (
			state  string
			action int
			value  float64
		)
		if err = values.Scan(&state, &action, &value); err != nil {
			return nil, fmt.Errorf("can't scan value: %w", err)
		}
		if table[state] == nil {
			table[state] = make(map[int]float64)
		}
		table[state][action] = value
	}
	if err = values.Err(); err != nil {
		return nil, fmt.Errorf("can't load values: %w", err)
	}

	if err = table.Validate(); err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", name, err)
	}

	return table, nil
}

func (that *sqlTable) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	var found string
	err = tx.QueryRowContext(ctx, `SELECT name FROM q_tables WHERE name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("can't find table: %w", err)
	}

	if err = deleteTable(ctx, tx, name); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit delete: %w", err)
	}

	return nil
}

func deleteTable(ctx context.Context, tx *sql.Tx, name string) error {
	queries := []string{
		`DELETE FROM q_values WHERE name = ?`,
		`DELETE FROM q_states WHERE name = ?`,
		`DELETE FROM q_tables WHERE name = ?`,
	}

	for _, query := range queries {
		if _, err := tx.ExecContext(ctx, query, name); err != nil {
			return fmt.Errorf("can't delete table %s: %w", name, err)
		}
	}

	return nil
}
