package game

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-ai/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
)

// NoMove is the move index reported alongside an error when no move can be made.
const NoMove = -1

type State int

const (
	InProgress State = iota
	Won
	Draw
)

func (that State) String() string {
	switch that {
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Status is the outcome of a board. Winner and Line are set only when State is Won.
type Status struct {
	State  State
	Winner entity.Mover
	Line   [3]int
}

func (that Status) IsInProgress() bool {
	return that.State == InProgress
}

func (that Status) IsFinished() bool {
	return that.State != InProgress
}

func (that Status) String() string {
	if that.State == Won {
		return fmt.Sprintf("won by %s on %v", that.Winner, that.Line)
	}
	return that.State.String()
}

// Evaluate computes the status of a board. The first complete line in
// entity.WinCombos order is reported.
func Evaluate(board entity.Board) Status {
	for _, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return Status{State: Won, Winner: entity.Mover(a), Line: combo}
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range board {
		if cell == entity.EmptyCell {
			return Status{State: InProgress}
		}
	}

	return Status{State: Draw}
}

// Game owns the state machine of a single game.
type Game struct {
	board  entity.Board
	turn   entity.Mover
	status Status
}

func New() *Game {
	return &Game{
		turn:   entity.PlayerX,
		status: Status{State: InProgress},
	}
}

// FromBoard restores a game from a board snapshot. The mover is derived from
// the mark counts, and boards that alternating play cannot produce are rejected.
func FromBoard(board entity.Board) (*Game, error) {
	turn, err := entity.NextMover(board)
	if err != nil {
		return nil, err
	}

	if err = checkReachable(board); err != nil {
		return nil, err
	}

	status := Evaluate(board)
	if status.State == Won {
		// the winner made the last move and keeps the turn
		turn = status.Winner
	}

	return &Game{board: board, turn: turn, status: status}, nil
}

func checkReachable(board entity.Board) error {
	var lines [3]int
	for _, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			lines[a]++
		}
	}

	x, o := board.Count(entity.MarkX), board.Count(entity.MarkO)

	switch {
	case lines[entity.MarkX] > 0 && lines[entity.MarkO] > 0:
		return fmt.Errorf("%w: both sides have a line", apperror.ErrInvalidBoard)
	case lines[entity.MarkX] > 0 && x != o+1:
		return fmt.Errorf("%w: X won but O moved after", apperror.ErrInvalidBoard)
	case lines[entity.MarkO] > 0 && x != o:
		return fmt.Errorf("%w: O won but X moved after", apperror.ErrInvalidBoard)
	}

	return nil
}

// LegalMoves returns empty cell indices in ascending order, or nothing once the game is over.
func (that *Game) LegalMoves() []int {
	if that.status.IsFinished() {
		return []int{}
	}
	return that.board.EmptyCells()
}

// ApplyMove places mover's mark on cell. A failed move leaves the game untouched.
func (that *Game) ApplyMove(cell int, mover entity.Mover) error {
	if err := that.validateMove(cell, mover); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}

	that.board[cell] = mover.Mark()
	that.status = Evaluate(that.board)

	if that.status.IsInProgress() {
		that.turn = mover.Opponent()
	}

	return nil
}

func (that *Game) validateMove(cell int, mover entity.Mover) error {
	if that.status.IsFinished() {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= len(that.board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.turn != mover {
		return apperror.ErrNotYourTurn
	}

	if that.board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

func (that *Game) Status() Status {
	return that.status
}

// Board returns a copy of the board.
func (that *Game) Board() entity.Board {
	return that.board
}

func (that *Game) CurrentMover() entity.Mover {
	return that.turn
}

func (that *Game) IsFinished() bool {
	return that.status.IsFinished()
}
