// Package minimax picks moves by exhaustive game-tree search.
//
// The 3x3 tree is small enough to enumerate on every call, so there is no
// pruning, no cache and no time budget. Results depend only on the board and
// the mover.
package minimax

import (
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-ai/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
)

// NoMove is returned together with an error when the board has no legal move.
const NoMove = game.NoMove

const (
	WinScore  = 10
	LossScore = -10
	DrawScore = 0
)

// SelectMove returns the best move for maximizer on board. Among equally
// scored moves the lowest index wins.
func SelectMove(board entity.Board, maximizer entity.Mover) (int, error) {
	move, _, err := search(board, maximizer)
	return move, err
}

// Score returns the value of board for maximizer when maximizer is to move.
func Score(board entity.Board, maximizer entity.Mover) (int, error) {
	_, score, err := search(board, maximizer)
	return score, err
}

func search(board entity.Board, maximizer entity.Mover) (int, int, error) {
	if !maximizer.Valid() {
		return NoMove, 0, fmt.Errorf("%w: unknown mover %d", apperror.ErrIllegalMove, maximizer)
	}

	if status := game.Evaluate(board); status.IsFinished() {
		return NoMove, 0, fmt.Errorf("%w: board is %s", apperror.ErrNoLegalMove, status)
	}

	bestMove, bestScore := NoMove, math.MinInt
	for _, move := range board.EmptyCells() {
		board[move] = maximizer.Mark()
		score := minimax(board, 0, false, maximizer)
		board[move] = entity.EmptyCell

		if score > bestScore {
			bestScore = score
			bestMove = move
		}
	}

	return bestMove, bestScore, nil
}

// minimax scores board for maximizer. depth counts plies played after the
// root move, so faster wins and slower losses score higher.
func minimax(board entity.Board, depth int, maximizing bool, maximizer entity.Mover) int {
	status := game.Evaluate(board)
	switch status.State {
	case game.Won:
		if status.Winner == maximizer {
			return WinScore - depth
		}
		return LossScore + depth
	case game.Draw:
		return DrawScore
	case game.InProgress:
	}

	if maximizing {
		best := math.MinInt
		for _, move := range board.EmptyCells() {
			board[move] = maximizer.Mark()
			best = max(best, minimax(board, depth+1, false, maximizer))
			board[move] = entity.EmptyCell
		}
		return best
	}

	best := math.MaxInt
	minimizer := maximizer.Opponent()
	for _, move := range board.EmptyCells() {
		board[move] = minimizer.Mark()
		best = min(best, minimax(board, depth+1, true, maximizer))
		board[move] = entity.EmptyCell
	}
	return best
}
