package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
	"github.com/rocketscienceinc/tictactoe-ai/internal/service"
)

// Arena plays matches between two policies without any learning.
type Arena struct {
	logger *slog.Logger
}

func NewArena(logger *slog.Logger) *Arena {
	return &Arena{logger: logger.With("component", "arena")}
}

// Play runs games with playerX opening every game.
func (that *Arena) Play(ctx context.Context, playerX, playerO service.Policy, games int) (Stats, error) {
	log := that.logger.With("method", "Play", "x", playerX.Name(), "o", playerO.Name())

	var stats Stats
	for i := 0; i < games; i++ {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("match stopped after %d games: %w", stats.Games, err)
		}

		g, err := that.PlayGame(playerX, playerO)
		if err != nil {
			return stats, fmt.Errorf("game %d failed: %w", i+1, err)
		}

		stats.Record(g.Status())
	}

	log.Info("match finished", "games", stats.Games, "wins_x", stats.WinsX, "wins_o", stats.WinsO, "draws", stats.Draws)

	return stats, nil
}

func (that *Arena) PlayGame(playerX, playerO service.Policy) (*game.Game, error) {
	bots := map[entity.Mover]service.BotService{
		entity.PlayerX: service.NewBotService(playerX),
		entity.PlayerO: service.NewBotService(playerO),
	}

	g := game.New()
	for !g.IsFinished() {
		if _, err := bots[g.CurrentMover()].MakeTurn(g); err != nil {
			return nil, fmt.Errorf("%s failed to move: %w", g.CurrentMover(), err)
		}
	}

	return g, nil
}
