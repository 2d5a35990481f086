package qlearning

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-ai/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
)

// Table maps a board key to the estimated value of each action seen in that state.
//
// Its JSON form is the persisted form: {"<board key>": {"<action>": value}}.
type Table map[string]map[int]float64

// Clone returns a deep copy that shares no maps with the receiver.
func (that Table) Clone() Table {
	clone := make(Table, len(that))
	for state, actions := range that {
		actionsCopy := make(map[int]float64, len(actions))
		for action, value := range actions {
			actionsCopy[action] = value
		}
		clone[state] = actionsCopy
	}
	return clone
}

// Value returns the stored estimate, or 0 for an unseen pair.
func (that Table) Value(state string, action int) float64 {
	return that[state][action]
}

// Validate reports whether every entry could have been produced by training.
func (that Table) Validate() error {
	for state, actions := range that {
		board, err := entity.ParseKey(state)
		if err != nil {
			return fmt.Errorf("%w: %w", apperror.ErrMalformedTable, err)
		}

		if actions == nil {
			return fmt.Errorf("%w: state %s has no action map", apperror.ErrMalformedTable, state)
		}

		for action, value := range actions {
			if action < 0 || action >= entity.BoardSize {
				return fmt.Errorf("%w: state %s has action %d out of range", apperror.ErrMalformedTable, state, action)
			}

			if board[action] != entity.EmptyCell {
				return fmt.Errorf("%w: state %s has action %d on an occupied cell", apperror.ErrMalformedTable, state, action)
			}

			if math.IsNaN(value) || math.IsInf(value, 0) {
				return fmt.Errorf("%w: state %s action %d has value %v", apperror.ErrMalformedTable, state, action, value)
			}
		}
	}

	return nil
}

// ParseTable decodes and validates the persisted form.
func ParseTable(data []byte) (Table, error) {
	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedTable, err)
	}

	if table == nil {
		return nil, fmt.Errorf("%w: document is not an object", apperror.ErrMalformedTable)
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}

	return table, nil
}

// EncodeTable produces the persisted form.
func EncodeTable(table Table) ([]byte, error) {
	data, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("could not marshal table: %w", err)
	}
	return data, nil
}
