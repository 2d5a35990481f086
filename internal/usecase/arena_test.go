package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
	"github.com/rocketscienceinc/tictactoe-ai/internal/service"
)

func TestArena_Play(t *testing.T) {
	arena := NewArena(discardLogger())

	t.Run("Minimax against itself always draws", func(t *testing.T) {
		// When: minimax plays both sides several times
		stats, err := arena.Play(context.Background(), service.NewMinimaxPolicy(), service.NewMinimaxPolicy(), 3)

		// Then: every game is a draw
		require.NoError(t, err)
		assert.Equal(t, Stats{Games: 3, Draws: 3}, stats)
	})

	t.Run("Minimax never loses to random play", func(t *testing.T) {
		stats, err := arena.Play(context.Background(), service.NewRandomPolicy(rand.NewSource(4)), service.NewMinimaxPolicy(), 50)
		require.NoError(t, err)
		assert.Zero(t, stats.Losses(entity.PlayerO))

		stats, err = arena.Play(context.Background(), service.NewMinimaxPolicy(), service.NewRandomPolicy(rand.NewSource(5)), 50)
		require.NoError(t, err)
		assert.Zero(t, stats.Losses(entity.PlayerX))
		assert.Equal(t, 50, stats.Games)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		stats, err := arena.Play(ctx, service.NewMinimaxPolicy(), service.NewMinimaxPolicy(), 3)

		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, stats.Games)
	})
}

func TestStats_Record(t *testing.T) {
	var stats Stats

	stats.Record(game.Status{State: game.Won, Winner: entity.PlayerX})
	stats.Record(game.Status{State: game.Won, Winner: entity.PlayerO})
	stats.Record(game.Status{State: game.Draw})
	stats.Record(game.Status{State: game.InProgress})

	assert.Equal(t, Stats{Games: 3, WinsX: 1, WinsO: 1, Draws: 1}, stats)
	assert.Equal(t, 1, stats.Wins(entity.PlayerX))
	assert.Equal(t, 1, stats.Losses(entity.PlayerX))
}
