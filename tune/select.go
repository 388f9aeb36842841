package tune

import (
	"fmt"
	"math"

	"github.com/aweil41/modelbench/pkg/errors"
)

// SelectBest returns the record with the smallest mean value of the named
// metric, so it is meaningful for loss-style metrics where lower is better.
// When several records share the minimum, the earliest one in input order
// wins; callers that build records in candidate order therefore get a
// reproducible choice.
//
// An empty record collection, a record carrying a different metric, or a
// non-finite mean is an InvalidInputError.
func SelectBest(records []Record, metric string) (Record, error) {
	const op = "tune.SelectBest"

	if len(records) == 0 {
		return Record{}, errors.NewInvalidInputError(op, "no records to select from")
	}
	for _, r := range records {
		if r.Metric != metric {
			return Record{}, errors.NewInvalidInputError(op,
				fmt.Sprintf("record %q carries metric %q, want %q", r.Label, r.Metric, metric))
		}
		if math.IsNaN(r.Mean) || math.IsInf(r.Mean, 0) {
			return Record{}, errors.NewInvalidInputError(op,
				fmt.Sprintf("record %q has a non-finite %s value", r.Label, metric))
		}
	}

	best := records[0]
	for _, r := range records[1:] {
		if r.Mean < best.Mean {
			best = r
		}
	}
	return best, nil
}
