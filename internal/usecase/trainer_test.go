package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
	"github.com/rocketscienceinc/tictactoe-ai/internal/service"
)

var errOpponentCrashed = errors.New("opponent crashed")

type mockPolicy struct {
	mock.Mock
}

func (m *mockPolicy) Name() string {
	return m.Called().String(0)
}

func (m *mockPolicy) SelectMove(g *game.Game) (int, error) {
	args := m.Called(g.Board())
	return args.Int(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTrainer(t *testing.T) {
	agent := qlearning.NewAgent()
	opponent := service.NewRandomPolicy(rand.NewSource(1))

	t.Run("Default config is valid", func(t *testing.T) {
		_, err := NewTrainer(discardLogger(), agent, opponent, DefaultTrainingConfig())
		require.NoError(t, err)
	})

	invalid := map[string]func(c *TrainingConfig){
		"unknown side":      func(c *TrainingConfig) { c.Side = 0 },
		"min above initial": func(c *TrainingConfig) { c.MinEpsilon = 0.5; c.InitialEpsilon = 0.1 },
		"initial above one": func(c *TrainingConfig) { c.InitialEpsilon = 1.5 },
		"zero decay":        func(c *TrainingConfig) { c.EpsilonDecay = 0 },
	}

	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			config := DefaultTrainingConfig()
			mutate(&config)

			_, err := NewTrainer(discardLogger(), agent, opponent, config)
			assert.ErrorIs(t, err, ErrInvalidTrainingConfig)
		})
	}
}

func TestTrainer_PlayEpisode(t *testing.T) {
	for _, side := range []entity.Mover{entity.PlayerX, entity.PlayerO} {
		t.Run("every decision is updated once as "+side.String(), func(t *testing.T) {
			// Given: an agent whose updates copy the reward (alpha 1, gamma 0)
			agent := qlearning.NewAgent(
				qlearning.WithLearningRate(1),
				qlearning.WithDiscountFactor(0),
				qlearning.WithExplorationRate(0),
				qlearning.WithRandSource(rand.NewSource(7)),
			)
			config := DefaultTrainingConfig()
			config.Side = side
			trainer, err := NewTrainer(discardLogger(), agent, service.NewRandomPolicy(rand.NewSource(11)), config)
			require.NoError(t, err)

			// When: one episode is played
			g, err := trainer.PlayEpisode()
			require.NoError(t, err)
			require.True(t, g.IsFinished())

			// Then: one step penalty per non-final agent move and one terminal reward
			agentMoves := g.Board().Count(side.Mark())
			var steps, terminals int
			for _, actions := range agent.Export() {
				for _, value := range actions {
					switch value {
					case 0:
					case qlearning.StepReward:
						steps++
					default:
						terminals++
						assert.Equal(t, qlearning.Reward(g.Status(), side), value)
					}
				}
			}
			assert.Equal(t, agentMoves-1, steps)
			assert.Equal(t, 1, terminals)
		})
	}

	t.Run("Opponent failure aborts the episode", func(t *testing.T) {
		// Given: an opponent that always fails
		opponent := &mockPolicy{}
		opponent.On("Name").Return("broken")
		opponent.On("SelectMove", mock.Anything).Return(game.NoMove, errOpponentCrashed)

		config := DefaultTrainingConfig()
		config.Side = entity.PlayerO
		trainer, err := NewTrainer(discardLogger(), qlearning.NewAgent(), opponent, config)
		require.NoError(t, err)

		// When: an episode is played
		_, err = trainer.PlayEpisode()

		// Then: the opponent's error is returned
		require.ErrorIs(t, err, errOpponentCrashed)
		opponent.AssertCalled(t, "SelectMove", entity.Board{})
	})
}

func TestTrainer_Run(t *testing.T) {
	t.Run("Decays epsilon and restores it afterwards", func(t *testing.T) {
		// Given: an agent with a user-set exploration rate
		agent := qlearning.NewAgent(qlearning.WithExplorationRate(0.3), qlearning.WithRandSource(rand.NewSource(5)))
		config := DefaultTrainingConfig()
		config.InitialEpsilon = 1
		config.EpsilonDecay = 0.5
		config.MinEpsilon = 0.2
		trainer, err := NewTrainer(discardLogger(), agent, service.NewRandomPolicy(rand.NewSource(6)), config)
		require.NoError(t, err)

		// When: training for 5 games
		report, err := trainer.Run(context.Background(), 5)

		// Then: epsilon went 1 -> 0.5 -> 0.25 -> 0.2 and the agent's own rate is back
		require.NoError(t, err)
		assert.Equal(t, 5, report.Games)
		assert.Equal(t, report.Games, report.WinsX+report.WinsO+report.Draws)
		assert.InDelta(t, 0.2, report.Epsilon, 1e-12)
		assert.Equal(t, agent.Size(), report.TableSize)
		assert.Equal(t, 0.3, agent.ExplorationRate())
	})

	t.Run("Cancelled context stops between games", func(t *testing.T) {
		agent := qlearning.NewAgent()
		trainer, err := NewTrainer(discardLogger(), agent, service.NewRandomPolicy(rand.NewSource(1)), DefaultTrainingConfig())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := trainer.Run(ctx, 10)

		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, report.Games)
		assert.Zero(t, agent.Size())
	})

	t.Run("Training beats an untrained agent against random play", func(t *testing.T) {
		const evalGames = 2000
		arena := NewArena(discardLogger())

		// Given: a trained and an untrained agent playing X
		trained := qlearning.NewAgent(qlearning.WithRandSource(rand.NewSource(21)))
		config := DefaultTrainingConfig()
		config.Side = entity.PlayerX
		trainer, err := NewTrainer(discardLogger(), trained, service.NewRandomPolicy(rand.NewSource(22)), config)
		require.NoError(t, err)
		_, err = trainer.Run(context.Background(), 20000)
		require.NoError(t, err)

		untrained := qlearning.NewAgent(qlearning.WithRandSource(rand.NewSource(21)))

		require.NoError(t, trained.SetExplorationRate(0))
		require.NoError(t, untrained.SetExplorationRate(0))

		// When: both play the same seeded random opponent
		trainedStats, err := arena.Play(context.Background(),
			service.NewQLearningPolicy(trained), service.NewRandomPolicy(rand.NewSource(99)), evalGames)
		require.NoError(t, err)

		untrainedStats, err := arena.Play(context.Background(),
			service.NewQLearningPolicy(untrained), service.NewRandomPolicy(rand.NewSource(99)), evalGames)
		require.NoError(t, err)

		// Then: the trained agent wins clearly more often
		assert.Greater(t, trainedStats.WinsX, untrainedStats.WinsX+evalGames/10)
	})
}
