// Package qlearning implements a tabular Q-learning agent for tic-tac-toe.
//
// An Agent is not safe for concurrent use. Callers that share one agent
// between goroutines must serialize access themselves.
package qlearning

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-ai/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
)

const (
	DefaultLearningRate    = 0.1
	DefaultDiscountFactor  = 0.9
	DefaultExplorationRate = 0.3
)

const (
	WinReward  = 1.0
	LossReward = -1.0
	DrawReward = 0.5
	StepReward = -0.01
)

var ErrInvalidParameter = errors.New("hyperparameter must be within [0, 1]")

type Option func(agent *Agent)

func WithLearningRate(alpha float64) Option {
	return func(a *Agent) {
		if inUnitRange(alpha) {
			a.learningRate = alpha
		}
	}
}

func WithDiscountFactor(gamma float64) Option {
	return func(a *Agent) {
		if inUnitRange(gamma) {
			a.discountFactor = gamma
		}
	}
}

func WithExplorationRate(epsilon float64) Option {
	return func(a *Agent) {
		if inUnitRange(epsilon) {
			a.explorationRate = epsilon
		}
	}
}

// WithRandSource makes exploration and tie-breaking reproducible.
func WithRandSource(src rand.Source) Option {
	return func(a *Agent) {
		if src != nil {
			a.rnd = rand.New(src)
		}
	}
}

// WithTable starts the agent from a copy of table. Invalid tables are ignored.
func WithTable(table Table) Option {
	return func(a *Agent) {
		if table.Validate() == nil {
			a.table = table.Clone()
		}
	}
}

// Hyperparameters is a snapshot of the agent's tuning knobs.
type Hyperparameters struct {
	LearningRate    float64 `json:"learning_rate"`
	DiscountFactor  float64 `json:"discount_factor"`
	ExplorationRate float64 `json:"exploration_rate"`
}

// Transition is one agent decision and its observed outcome.
type Transition struct {
	State     string
	Action    int
	Reward    float64
	Next      string
	NextLegal []int
	Terminal  bool
}

type Agent struct {
	table Table

	learningRate    float64
	discountFactor  float64
	explorationRate float64

	rnd *rand.Rand
}

func NewAgent(options ...Option) *Agent {
	a := &Agent{ // Default values
		table:           make(Table),
		learningRate:    DefaultLearningRate,
		discountFactor:  DefaultDiscountFactor,
		explorationRate: DefaultExplorationRate,
		rnd:             rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// SelectAction picks an action epsilon-greedily. Exploitation breaks ties
// between equally valued actions uniformly at random. Every legal action of
// the state is stored with value 0 if it was not seen before.
func (that *Agent) SelectAction(board entity.Board, legal []int) (int, error) {
	if len(legal) == 0 {
		return game.NoMove, apperror.ErrNoLegalMove
	}

	if err := checkActions(board, legal); err != nil {
		return game.NoMove, err
	}

	values := that.ensure(board.Key(), legal)

	if that.rnd.Float64() < that.explorationRate {
		return legal[that.rnd.Intn(len(legal))], nil
	}

	best := math.Inf(-1)
	candidates := make([]int, 0, len(legal))
	for _, action := range legal {
		switch value := values[action]; {
		case value > best:
			best = value
			candidates = append(candidates[:0], action)
		case value == best:
			candidates = append(candidates, action)
		}
	}

	return candidates[that.rnd.Intn(len(candidates))], nil
}

// Update applies Q(s,a) += alpha * (reward + gamma * max Q(s',a') - Q(s,a))
// and returns the new Q(s,a). The bootstrap term is 0 for terminal states
// and reads unseen actions as 0 without storing them.
//
// state must be a board key with action on an empty cell, and a non-terminal
// next must be a board key whose nextLegal cells are empty. Otherwise
// ErrIllegalMove is returned and the table is left unchanged.
func (that *Agent) Update(state string, action int, reward float64, next string, nextLegal []int, terminal bool) (float64, error) {
	board, err := entity.ParseKey(state)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}

	if err = checkActions(board, []int{action}); err != nil {
		return 0, err
	}

	bootstrap := 0.0
	if !terminal {
		nextBoard, err := entity.ParseKey(next)
		if err != nil {
			return 0, fmt.Errorf("%w: next state: %w", apperror.ErrIllegalMove, err)
		}

		if err = checkActions(nextBoard, nextLegal); err != nil {
			return 0, fmt.Errorf("next state: %w", err)
		}

		if len(nextLegal) > 0 {
			bootstrap = math.Inf(-1)
			for _, nextAction := range nextLegal {
				bootstrap = max(bootstrap, that.table.Value(next, nextAction))
			}
		}
	}

	values := that.ensure(state, []int{action})

	old := values[action]
	values[action] = old + that.learningRate*(reward+that.discountFactor*bootstrap-old)

	return values[action], nil
}

// Learn is Update for a recorded transition.
func (that *Agent) Learn(t Transition) (float64, error) {
	return that.Update(t.State, t.Action, t.Reward, t.Next, t.NextLegal, t.Terminal)
}

// checkActions rejects actions that are out of range, repeated or on an occupied cell.
func checkActions(board entity.Board, actions []int) error {
	var seen [entity.BoardSize]bool
	for _, action := range actions {
		if action < 0 || action >= entity.BoardSize || board[action] != entity.EmptyCell {
			return fmt.Errorf("%w: action %d on board %s", apperror.ErrIllegalMove, action, board)
		}

		if seen[action] {
			return fmt.Errorf("%w: action %d listed twice", apperror.ErrIllegalMove, action)
		}
		seen[action] = true
	}

	return nil
}

func (that *Agent) ensure(state string, actions []int) map[int]float64 {
	values, ok := that.table[state]
	if !ok {
		values = make(map[int]float64, len(actions))
		that.table[state] = values
	}

	for _, action := range actions {
		if _, seen := values[action]; !seen {
			values[action] = 0
		}
	}

	return values
}

// Value returns Q(state, action), 0 when unseen.
func (that *Agent) Value(state string, action int) float64 {
	return that.table.Value(state, action)
}

// Size is the number of states in the table.
func (that *Agent) Size() int {
	return len(that.table)
}

func (that *Agent) Reset() {
	that.table = make(Table)
}

// Export returns a deep copy of the table.
func (that *Agent) Export() Table {
	return that.table.Clone()
}

// Import replaces the table with a deep copy of table after validating it.
// A malformed table leaves the agent unchanged.
func (that *Agent) Import(table Table) error {
	if table == nil {
		return fmt.Errorf("%w: nil table", apperror.ErrMalformedTable)
	}

	if err := table.Validate(); err != nil {
		return err
	}

	that.table = table.Clone()

	return nil
}

func (that *Agent) Hyperparameters() Hyperparameters {
	return Hyperparameters{
		LearningRate:    that.learningRate,
		DiscountFactor:  that.discountFactor,
		ExplorationRate: that.explorationRate,
	}
}

func (that *Agent) SetLearningRate(alpha float64) error {
	if !inUnitRange(alpha) {
		return fmt.Errorf("%w: learning rate %v", ErrInvalidParameter, alpha)
	}
	that.learningRate = alpha
	return nil
}

func (that *Agent) SetDiscountFactor(gamma float64) error {
	if !inUnitRange(gamma) {
		return fmt.Errorf("%w: discount factor %v", ErrInvalidParameter, gamma)
	}
	that.discountFactor = gamma
	return nil
}

func (that *Agent) SetExplorationRate(epsilon float64) error {
	if !inUnitRange(epsilon) {
		return fmt.Errorf("%w: exploration rate %v", ErrInvalidParameter, epsilon)
	}
	that.explorationRate = epsilon
	return nil
}

func (that *Agent) ExplorationRate() float64 {
	return that.explorationRate
}

// Reward scores the status reached after one of side's moves.
func Reward(status game.Status, side entity.Mover) float64 {
	switch status.State {
	case game.Won:
		if status.Winner == side {
			return WinReward
		}
		return LossReward
	case game.Draw:
		return DrawReward
	default:
		return StepReward
	}
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
