package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
)

type dbTable struct {
	client *redis.Client
}

// NewRedisTableRepository stores each table as one JSON value under "qtable:<name>".
func NewRedisTableRepository(client *redis.Client) TableRepository {
	return &dbTable{
		client: client,
	}
}

func (that *dbTable) Save(ctx context.Context, name string, table qlearning.Table) error {
	if err := validateName(name); err != nil {
		return err
	}

	tableJSON, err := qlearning.EncodeTable(table)
	if err != nil {
		return err
	}

	err = that.client.Set(ctx, tableKey(name), tableJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set table: %w", err)
	}

	return nil
}

func (that *dbTable) Load(ctx context.Context, name string) (qlearning.Table, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	response, err := that.client.Get(ctx, tableKey(name)).Bytes()

	if errors.Is(err, redis.Nil) {
		return nil, ErrTableNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get table by name: %w", err)
	}

	table, err := qlearning.ParseTable(response)
	if err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", name, err)
	}

	return table, nil
}

func (that *dbTable) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	deleted, err := that.client.Del(ctx, tableKey(name)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete table by name: %w", err)
	}

	if deleted == 0 {
		return ErrTableNotFound
	}

	return nil
}

func tableKey(name string) string {
	return "qtable:" + name
}
