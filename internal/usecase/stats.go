package usecase

import (
	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
)

// Stats counts finished games by outcome.
type Stats struct {
	Games int `json:"games"`
	WinsX int `json:"wins_x"`
	WinsO int `json:"wins_o"`
	Draws int `json:"draws"`
}

func (that *Stats) Record(status game.Status) {
	switch status.State {
	case game.Won:
		if status.Winner == entity.PlayerX {
			that.WinsX++
		} else {
			that.WinsO++
		}
	case game.Draw:
		that.Draws++
	case game.InProgress:
		return
	}
	that.Games++
}

// Wins returns the number of games won by side.
func (that Stats) Wins(side entity.Mover) int {
	if side == entity.PlayerX {
		return that.WinsX
	}
	return that.WinsO
}

// Losses returns the number of games lost by side.
func (that Stats) Losses(side entity.Mover) int {
	return that.Wins(side.Opponent())
}
