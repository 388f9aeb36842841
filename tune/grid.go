// Package tune implements hyperparameter grid search over k-fold
// cross-validation, and selection of the best candidate from the resulting
// metric records.
package tune

import (
	"sort"

	"github.com/aweil41/modelbench/pkg/errors"
)

// Grid maps hyperparameter names to their candidate values.
type Grid map[string][]float64

// Candidate is one point of an expanded grid.
type Candidate struct {
	// ID is the candidate's position in expansion order, starting at 0.
	ID int
	// Values maps each grid parameter to this candidate's value.
	Values map[string]float64
}

// names returns the grid's parameter names in sorted order.
func (g Grid) names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Candidates expands the grid into the cartesian product of its dimensions.
// Parameter names are ordered lexically and the last name varies fastest,
// so expansion order is deterministic regardless of map iteration. A grid
// with no parameters expands to a single empty candidate; a parameter with
// no values is a ValidationError.
func (g Grid) Candidates() ([]Candidate, error) {
	names := g.names()

	total := 1
	for _, name := range names {
		if len(g[name]) == 0 {
			return nil, errors.NewValidationError(name, "grid dimension has no values", nil)
		}
		total *= len(g[name])
	}

	cands := make([]Candidate, 0, total)
	odometer := make([]int, len(names))
	for id := 0; id < total; id++ {
		values := make(map[string]float64, len(names))
		for j, name := range names {
			values[name] = g[name][odometer[j]]
		}
		cands = append(cands, Candidate{ID: id, Values: values})

		for j := len(names) - 1; j >= 0; j-- {
			odometer[j]++
			if odometer[j] < len(g[names[j]]) {
				break
			}
			odometer[j] = 0
		}
	}
	return cands, nil
}
