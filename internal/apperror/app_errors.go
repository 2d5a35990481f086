package apperror

import "errors"

var (
	ErrIllegalMove    = errors.New("illegal move")
	ErrNoLegalMove    = errors.New("no legal move available")
	ErrMalformedTable = errors.New("malformed value table")

	ErrGameFinished = errors.New("game is already finished")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrInvalidBoard = errors.New("invalid board")
)
