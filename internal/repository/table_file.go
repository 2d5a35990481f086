package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
)

const dataSubdir = "tictactoe-ai/tables"

type fileTable struct {
	dir string
}

// NewFileTableRepository keeps tables as <dir>/<name>.json. An empty dir uses
// the XDG data directory.
func NewFileTableRepository(dir string) TableRepository {
	return &fileTable{dir: dir}
}

func (that *fileTable) Save(_ context.Context, name string, table qlearning.Table) error {
	path, err := that.writePath(name)
	if err != nil {
		return err
	}

	data, err := qlearning.EncodeTable(table)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), name+".*.tmp")
	if err != nil {
		return fmt.Errorf("can't create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("can't write table: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("can't close table file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("can't replace table file: %w", err)
	}

	return nil
}

func (that *fileTable) Load(_ context.Context, name string) (qlearning.Table, error) {
	path, err := that.readPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't read table: %w", err)
	}

	table, err := qlearning.ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", name, err)
	}

	return table, nil
}

func (that *fileTable) Delete(_ context.Context, name string) error {
	path, err := that.readPath(name)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("can't delete table: %w", err)
	}

	return nil
}

func (that *fileTable) writePath(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	if that.dir == "" {
		path, err := xdg.DataFile(filepath.Join(dataSubdir, name+".json"))
		if err != nil {
			return "", fmt.Errorf("can't resolve data file: %w", err)
		}
		return path, nil
	}

	if err := os.MkdirAll(that.dir, 0o755); err != nil {
		return "", fmt.Errorf("can't create table directory: %w", err)
	}

	return filepath.Join(that.dir, name+".json"), nil
}

func (that *fileTable) readPath(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	if that.dir == "" {
		path, err := xdg.SearchDataFile(filepath.Join(dataSubdir, name+".json"))
		if err != nil {
			return "", ErrTableNotFound
		}
		return path, nil
	}

	return filepath.Join(that.dir, name+".json"), nil
}
