// Package workflow binds a preprocessing recipe to a model specification so
// the pair fits and predicts as a unit. The recipe is prepped on whatever
// rows Fit receives, which keeps preprocessing parameters learned inside
// each resampling split.
package workflow

import (
	"fmt"

	"github.com/aweil41/modelbench/pkg/errors"
)

type paramMode int

const (
	paramDefault paramMode = iota
	paramFixed
	paramTune
)

// Param declares how one hyperparameter is supplied. The zero value leaves
// the estimator's own default in place.
type Param struct {
	value float64
	mode  paramMode
}

// Fixed pins a hyperparameter to a value.
func Fixed(v float64) Param {
	return Param{value: v, mode: paramFixed}
}

// Tune marks a hyperparameter to be filled in from a search grid.
func Tune() Param {
	return Param{mode: paramTune}
}

// IsTune reports whether the parameter is marked for tuning.
func (p Param) IsTune() bool {
	return p.mode == paramTune
}

// resolve returns the concrete value for a parameter, pulling tuned
// parameters out of the supplied candidate values. The second return is
// false when the parameter is unset and the estimator default applies.
func (p Param) resolve(op, name string, values map[string]float64) (float64, bool, error) {
	switch p.mode {
	case paramTune:
		v, ok := values[name]
		if !ok {
			return 0, false, errors.NewValueError(op, fmt.Sprintf("no value supplied for tunable parameter %q", name))
		}
		return v, true, nil
	case paramFixed:
		return p.value, true, nil
	default:
		return 0, false, nil
	}
}

// checkValues verifies the supplied hyperparameter values cover the
// tunables exactly, with no extras.
func checkValues(op string, tunables []string, values map[string]float64) error {
	if len(values) != len(tunables) {
		return errors.NewValueError(op, fmt.Sprintf("got %d hyperparameter values for %d tunables", len(values), len(tunables)))
	}
	for _, name := range tunables {
		if _, ok := values[name]; !ok {
			return errors.NewValueError(op, fmt.Sprintf("no value supplied for tunable parameter %q", name))
		}
	}
	return nil
}
