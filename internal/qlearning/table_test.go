package qlearning

import (
	"math"
	"testing"

	"github.com/rocketscienceinc/tictactoe-ai/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Clone(t *testing.T) {
	// Given: a table
	table := Table{"000000000": {0: 0.5, 4: -0.25}}

	// When: cloning and mutating the clone
	clone := table.Clone()
	clone["000000000"][0] = 1
	clone["100000000"] = map[int]float64{1: 1}

	// Then: the original is untouched
	assert.Equal(t, Table{"000000000": {0: 0.5, 4: -0.25}}, table)
}

func TestTable_Validate(t *testing.T) {
	tests := map[string]Table{
		"bad key":       {"12": {0: 1}},
		"nil actions":   {"000000000": nil},
		"action range":  {"000000000": {9: 1}},
		"occupied cell": {"100000000": {0: 1}},
		"nan value":     {"000000000": {0: math.NaN()}},
		"inf value":     {"000000000": {0: math.Inf(1)}},
	}

	for name, table := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, table.Validate(), apperror.ErrMalformedTable)
		})
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Table{"120000000": {2: 0.1, 8: -0.3}, "000000000": {}}.Validate())
	})
}

func TestParseTable(t *testing.T) {
	t.Run("Persisted form round-trips", func(t *testing.T) {
		// Given: a table encoded to its persisted form
		table := Table{"120000000": {2: 0.125, 8: -0.5}}
		data, err := EncodeTable(table)
		require.NoError(t, err)
		assert.JSONEq(t, `{"120000000":{"2":0.125,"8":-0.5}}`, string(data))

		// When: parsing it back
		parsed, err := ParseTable(data)

		// Then: it is identical
		require.NoError(t, err)
		assert.Equal(t, table, parsed)
	})

	t.Run("Malformed documents", func(t *testing.T) {
		docs := []string{
			`not json`,
			`null`,
			`[1,2,3]`,
			`{"000000000":{"x":1}}`,
			`{"000000000":{"0":"high"}}`,
			`{"000000000":null}`,
			`{"000000000":{"10":1}}`,
		}

		for _, doc := range docs {
			_, err := ParseTable([]byte(doc))
			assert.ErrorIs(t, err, apperror.ErrMalformedTable, doc)
		}
	})
}
