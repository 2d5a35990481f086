package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
	"github.com/rocketscienceinc/tictactoe-ai/internal/service"
)

var ErrInvalidTrainingConfig = errors.New("invalid training config")

type TrainingConfig struct {
	Side           entity.Mover
	InitialEpsilon float64
	MinEpsilon     float64
	EpsilonDecay   float64
	ReportInterval int
}

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Side:           entity.PlayerO,
		InitialEpsilon: 1.0,
		MinEpsilon:     0.05,
		EpsilonDecay:   0.999,
		ReportInterval: 1000,
	}
}

func (that TrainingConfig) validate() error {
	switch {
	case !that.Side.Valid():
		return fmt.Errorf("%w: unknown side %d", ErrInvalidTrainingConfig, that.Side)
	case that.MinEpsilon < 0 || that.InitialEpsilon > 1 || that.MinEpsilon > that.InitialEpsilon:
		return fmt.Errorf("%w: epsilon must satisfy 0 <= min <= initial <= 1", ErrInvalidTrainingConfig)
	case that.EpsilonDecay <= 0 || that.EpsilonDecay > 1:
		return fmt.Errorf("%w: epsilon decay must be within (0, 1]", ErrInvalidTrainingConfig)
	}
	return nil
}

type TrainingReport struct {
	Stats
	Epsilon   float64 `json:"epsilon"`
	TableSize int     `json:"table_size"`
}

// Trainer teaches a Q-learning agent by playing it against an opponent policy.
type Trainer struct {
	logger   *slog.Logger
	agent    *qlearning.Agent
	opponent service.BotService
	config   TrainingConfig
}

func NewTrainer(logger *slog.Logger, agent *qlearning.Agent, opponent service.Policy, config TrainingConfig) (*Trainer, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Trainer{
		logger:   logger.With("component", "trainer"),
		agent:    agent,
		opponent: service.NewBotService(opponent),
		config:   config,
	}, nil
}

// Run plays episodes games, decaying epsilon after each one. The context is
// only checked between games, so a decision and its update are never split.
// The agent's exploration rate is restored when Run returns.
func (that *Trainer) Run(ctx context.Context, episodes int) (TrainingReport, error) {
	log := that.logger.With("method", "Run")

	previousEpsilon := that.agent.ExplorationRate()
	defer func() {
		// previousEpsilon was accepted by the agent before, so it is in range
		_ = that.agent.SetExplorationRate(previousEpsilon)
	}()

	report := TrainingReport{Epsilon: that.config.InitialEpsilon}

	for episode := 0; episode < episodes; episode++ {
		if err := ctx.Err(); err != nil {
			report.TableSize = that.agent.Size()
			log.Info("training interrupted", "games", report.Games)
			return report, fmt.Errorf("training stopped after %d games: %w", report.Games, err)
		}

		if err := that.agent.SetExplorationRate(report.Epsilon); err != nil {
			return report, fmt.Errorf("failed to set exploration rate: %w", err)
		}

		g, err := that.PlayEpisode()
		if err != nil {
			return report, fmt.Errorf("episode %d failed: %w", episode+1, err)
		}

		report.Record(g.Status())
		report.Epsilon = max(that.config.MinEpsilon, report.Epsilon*that.config.EpsilonDecay)

		if that.config.ReportInterval > 0 && report.Games%that.config.ReportInterval == 0 {
			log.Info("training progress",
				"games", report.Games,
				"wins", report.Wins(that.config.Side),
				"losses", report.Losses(that.config.Side),
				"draws", report.Draws,
				"epsilon", report.Epsilon,
				"table_size", that.agent.Size(),
			)
		}
	}

	report.TableSize = that.agent.Size()
	log.Info("training finished", "games", report.Games, "table_size", report.TableSize)

	return report, nil
}

// PlayEpisode plays one training game with the agent's current exploration
// rate and returns the finished game. Each agent move is updated exactly once,
// when its outcome is known: after the opponent's reply, or straight away if
// the move ended the game.
func (that *Trainer) PlayEpisode() (*game.Game, error) {
	side := that.config.Side
	g := game.New()

	var pending *qlearning.Transition

	for !g.IsFinished() {
		if g.CurrentMover() != side {
			if _, err := that.opponent.MakeTurn(g); err != nil {
				return nil, fmt.Errorf("opponent failed: %w", err)
			}

			if pending != nil {
				if err := that.settle(pending, g); err != nil {
					return nil, err
				}
				pending = nil
			}

			continue
		}

		board := g.Board()

		action, err := that.agent.SelectAction(board, g.LegalMoves())
		if err != nil {
			return nil, fmt.Errorf("agent failed to select action: %w", err)
		}

		if err = g.ApplyMove(action, side); err != nil {
			return nil, fmt.Errorf("agent failed to make turn: %w", err)
		}

		pending = &qlearning.Transition{State: board.Key(), Action: action}
	}

	if pending != nil {
		if err := that.settle(pending, g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (that *Trainer) settle(pending *qlearning.Transition, g *game.Game) error {
	status := g.Status()

	pending.Reward = qlearning.Reward(status, that.config.Side)
	pending.Next = g.Board().Key()
	pending.NextLegal = g.LegalMoves()
	pending.Terminal = status.IsFinished()

	if _, err := that.agent.Learn(*pending); err != nil {
		return fmt.Errorf("agent failed to learn: %w", err)
	}

	return nil
}
