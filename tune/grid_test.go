package tune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aweil41/modelbench/pkg/errors"
)

func TestGrid_Candidates(t *testing.T) {
	t.Run("cartesian product in deterministic order", func(t *testing.T) {
		grid := Grid{
			"b": {10, 20, 30},
			"a": {1, 2},
		}
		cands, err := grid.Candidates()
		require.NoError(t, err)
		require.Len(t, cands, 6)

		// Names sort to [a b]; b varies fastest.
		want := []map[string]float64{
			{"a": 1, "b": 10},
			{"a": 1, "b": 20},
			{"a": 1, "b": 30},
			{"a": 2, "b": 10},
			{"a": 2, "b": 20},
			{"a": 2, "b": 30},
		}
		for i, cand := range cands {
			assert.Equal(t, i, cand.ID)
			assert.Equal(t, want[i], cand.Values)
		}
	})

	t.Run("single dimension", func(t *testing.T) {
		cands, err := Grid{"neighbors": {1, 5, 9}}.Candidates()
		require.NoError(t, err)
		require.Len(t, cands, 3)
		assert.Equal(t, 5.0, cands[1].Values["neighbors"])
	})

	t.Run("empty grid yields one empty candidate", func(t *testing.T) {
		cands, err := Grid{}.Candidates()
		require.NoError(t, err)
		require.Len(t, cands, 1)
		assert.Equal(t, 0, cands[0].ID)
		assert.Empty(t, cands[0].Values)
	})

	t.Run("empty dimension is rejected", func(t *testing.T) {
		_, err := Grid{"neighbors": {}}.Candidates()
		require.Error(t, err)

		var validation *errors.ValidationError
		assert.True(t, errors.As(err, &validation))
	})

	t.Run("expansion is reproducible", func(t *testing.T) {
		grid := Grid{"x": {1, 2}, "y": {3, 4}}
		first, err := grid.Candidates()
		require.NoError(t, err)
		second, err := grid.Candidates()
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
