package service

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-ai/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotService_MakeTurn(t *testing.T) {
	t.Run("Random bot plays a legal move for the side to move", func(t *testing.T) {
		// Given: a new game and a seeded random bot
		g := game.New()
		bot := NewBotService(NewRandomPolicy(rand.NewSource(1)))

		// When: the bot makes a turn
		cell, err := bot.MakeTurn(g)

		// Then: X's mark is on the chosen cell and O is to move
		require.NoError(t, err)
		assert.Equal(t, entity.MarkX, g.Board()[cell])
		assert.Equal(t, entity.PlayerO, g.CurrentMover())
	})

	t.Run("Minimax bot takes the win", func(t *testing.T) {
		// Given: X can win at 2
		g, err := game.FromBoard(entity.Board{entity.MarkX, entity.MarkX, 0, entity.MarkO, entity.MarkO})
		require.NoError(t, err)
		bot := NewBotService(NewMinimaxPolicy())

		// When: the bot moves
		cell, err := bot.MakeTurn(g)

		// Then: the game is won by X
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
		assert.Equal(t, game.Won, g.Status().State)
	})

	t.Run("Finished game", func(t *testing.T) {
		// Given: a won game
		g, err := game.FromBoard(entity.Board{entity.MarkX, entity.MarkX, entity.MarkX, entity.MarkO, entity.MarkO})
		require.NoError(t, err)
		bot := NewBotService(NewMinimaxPolicy())

		// When: the bot is asked to move
		cell, err := bot.MakeTurn(g)

		// Then: ErrGameNotOngoing is returned
		assert.Equal(t, game.NoMove, cell)
		assert.ErrorIs(t, err, ErrGameNotOngoing)
	})
}

func TestPolicies_NoLegalMove(t *testing.T) {
	g, err := game.FromBoard(entity.Board{entity.MarkX, entity.MarkX, entity.MarkX, entity.MarkO, entity.MarkO})
	require.NoError(t, err)

	policies := []Policy{
		NewRandomPolicy(rand.NewSource(1)),
		NewMinimaxPolicy(),
		NewQLearningPolicy(qlearning.NewAgent()),
	}

	for _, policy := range policies {
		t.Run(policy.Name(), func(t *testing.T) {
			move, err := policy.SelectMove(g)

			assert.Equal(t, game.NoMove, move)
			assert.ErrorIs(t, err, apperror.ErrNoLegalMove)
		})
	}
}

func TestQLearningPolicy_DoesNotMutateGame(t *testing.T) {
	// Given: a game and a greedy agent
	g := game.New()
	agent := qlearning.NewAgent(qlearning.WithExplorationRate(0), qlearning.WithRandSource(rand.NewSource(3)))
	policy := NewQLearningPolicy(agent)

	// When: selecting a move
	move, err := policy.SelectMove(g)

	// Then: the move is legal, the game is untouched and the state is now known
	require.NoError(t, err)
	assert.Contains(t, g.LegalMoves(), move)
	assert.Equal(t, entity.Board{}, g.Board())
	assert.Equal(t, 1, agent.Size())
}

func TestNewPolicy(t *testing.T) {
	agent := qlearning.NewAgent()

	for _, name := range []string{RandomPolicyName, MinimaxPolicyName, QLearningPolicyName} {
		policy, err := NewPolicy(name, agent, rand.NewSource(1))
		require.NoError(t, err)
		assert.Equal(t, name, policy.Name())
	}

	_, err := NewPolicy("alphabeta", agent, nil)
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	_, err = NewPolicy(QLearningPolicyName, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
