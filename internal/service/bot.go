package service

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
)

var (
	ErrGameNotOngoing = errors.New("game is not in progress")
	ErrUnknownPolicy  = errors.New("unknown policy")
)

type BotService interface {
	MakeTurn(g *game.Game) (int, error)
}

type botService struct {
	policy Policy
}

// NewBotService returns a bot that plays whichever side is to move using policy.
func NewBotService(policy Policy) BotService {
	return &botService{policy: policy}
}

func (that *botService) MakeTurn(g *game.Game) (int, error) {
	if g.IsFinished() {
		return game.NoMove, ErrGameNotOngoing
	}

	mover := g.CurrentMover()

	cell, err := that.policy.SelectMove(g)
	if err != nil {
		return game.NoMove, fmt.Errorf("%s failed to select a move: %w", that.policy.Name(), err)
	}

	if err = g.ApplyMove(cell, mover); err != nil {
		return game.NoMove, fmt.Errorf("bot failed to make turn: %w", err)
	}

	return cell, nil
}
