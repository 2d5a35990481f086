package service

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-ai/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
	"github.com/rocketscienceinc/tictactoe-ai/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
)

const (
	RandomPolicyName    = "random"
	MinimaxPolicyName   = "minimax"
	QLearningPolicyName = "qlearning"
)

// Policy chooses a move for the side to move in g. It must not mutate g.
type Policy interface {
	Name() string
	SelectMove(g *game.Game) (int, error)
}

type randomPolicy struct {
	rnd *rand.Rand
}

// NewRandomPolicy picks uniformly among legal moves. A nil src seeds from the clock.
func NewRandomPolicy(src rand.Source) Policy {
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return &randomPolicy{rnd: rand.New(src)}
}

func (that *randomPolicy) Name() string {
	return RandomPolicyName
}

func (that *randomPolicy) SelectMove(g *game.Game) (int, error) {
	availableCells := g.LegalMoves()
	if len(availableCells) == 0 {
		return game.NoMove, apperror.ErrNoLegalMove
	}

	return availableCells[that.rnd.Intn(len(availableCells))], nil
}

type minimaxPolicy struct{}

func NewMinimaxPolicy() Policy {
	return minimaxPolicy{}
}

func (minimaxPolicy) Name() string {
	return MinimaxPolicyName
}

func (minimaxPolicy) SelectMove(g *game.Game) (int, error) {
	move, err := minimax.SelectMove(g.Board(), g.CurrentMover())
	if err != nil {
		return game.NoMove, fmt.Errorf("minimax search failed: %w", err)
	}
	return move, nil
}

type qlearningPolicy struct {
	agent *qlearning.Agent
}

// NewQLearningPolicy plays with agent's current exploration rate. Selecting a
// move inserts unseen pairs into the agent's table but never updates values.
func NewQLearningPolicy(agent *qlearning.Agent) Policy {
	return &qlearningPolicy{agent: agent}
}

func (that *qlearningPolicy) Name() string {
	return QLearningPolicyName
}

func (that *qlearningPolicy) SelectMove(g *game.Game) (int, error) {
	move, err := that.agent.SelectAction(g.Board(), g.LegalMoves())
	if err != nil {
		return game.NoMove, fmt.Errorf("q-learning selection failed: %w", err)
	}
	return move, nil
}

// NewPolicy resolves a policy by name.
func NewPolicy(name string, agent *qlearning.Agent, src rand.Source) (Policy, error) {
	switch name {
	case RandomPolicyName:
		return NewRandomPolicy(src), nil
	case MinimaxPolicyName:
		return NewMinimaxPolicy(), nil
	case QLearningPolicyName:
		if agent == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
		}
		return NewQLearningPolicy(agent), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}
}
