package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
)

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrInvalidTableName = errors.New("invalid table name")
)

// TableRepository persists value tables under a name.
type TableRepository interface {
	Save(ctx context.Context, name string, table qlearning.Table) error
	Load(ctx context.Context, name string) (qlearning.Table, error)
	Delete(ctx context.Context, name string) error
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\:`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	return nil
}
