package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-ai/internal/apperror"
)

const BoardSize = 9

// Cell is the content of one board square. Its numeric value is the wire form.
type Cell uint8

const (
	EmptyCell Cell = iota
	MarkX
	MarkO
)

// Mover is the side entitled to place the next mark. X always opens.
type Mover uint8

const (
	PlayerX Mover = Mover(MarkX)
	PlayerO Mover = Mover(MarkO)
)

// WinCombos lists the winning triples: rows, columns, then diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func (that Cell) String() string {
	switch that {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return "-"
	}
}

func (that Mover) Mark() Cell {
	return Cell(that)
}

func (that Mover) Opponent() Mover {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Mover) Valid() bool {
	return that == PlayerX || that == PlayerO
}

func (that Mover) String() string {
	return that.Mark().String()
}

// ParseMover accepts "X" or "O" in any case.
func ParseMover(s string) (Mover, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return PlayerX, nil
	case "O":
		return PlayerO, nil
	default:
		return 0, fmt.Errorf("unknown mover %q", s)
	}
}

// Board is the row-major 3x3 grid, indices 0-8.
type Board [BoardSize]Cell

// Key is the canonical state key: the nine cells as digits in index order.
func (that Board) Key() string {
	var sb strings.Builder
	sb.Grow(BoardSize)
	for _, cell := range that {
		sb.WriteByte('0' + byte(cell))
	}
	return sb.String()
}

// EmptyCells returns the indices of empty cells in ascending order.
func (that Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}
	return cells
}

func (that Board) Count(mark Cell) int {
	n := 0
	for _, cell := range that {
		if cell == mark {
			n++
		}
	}
	return n
}

func (that Board) String() string {
	var sb strings.Builder
	for i, cell := range that {
		sb.WriteString(cell.String())
		if i%3 == 2 && i != BoardSize-1 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// ParseKey decodes a state key produced by Board.Key.
func ParseKey(key string) (Board, error) {
	var board Board
	if len(key) != BoardSize {
		return board, fmt.Errorf("%w: key %q has length %d", apperror.ErrInvalidBoard, key, len(key))
	}

	for i := 0; i < BoardSize; i++ {
		c := Cell(key[i] - '0')
		if key[i] < '0' || c > MarkO {
			return board, fmt.Errorf("%w: key %q has bad cell at %d", apperror.ErrInvalidBoard, key, i)
		}
		board[i] = c
	}

	return board, nil
}

// BoardFromInts builds a board from its wire form.
func BoardFromInts(cells []int) (Board, error) {
	var board Board
	if len(cells) != BoardSize {
		return board, fmt.Errorf("%w: expected %d cells, got %d", apperror.ErrInvalidBoard, BoardSize, len(cells))
	}

	for i, v := range cells {
		if v < int(EmptyCell) || v > int(MarkO) {
			return board, fmt.Errorf("%w: cell %d has value %d", apperror.ErrInvalidBoard, i, v)
		}
		board[i] = Cell(v)
	}

	return board, nil
}

// NextMover derives the side to move from the mark counts.
func NextMover(board Board) (Mover, error) {
	x, o := board.Count(MarkX), board.Count(MarkO)
	switch x - o {
	case 0:
		return PlayerX, nil
	case 1:
		return PlayerO, nil
	default:
		return 0, fmt.Errorf("%w: %d X marks and %d O marks", apperror.ErrInvalidBoard, x, o)
	}
}
