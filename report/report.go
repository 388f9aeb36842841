// Package report turns cross-validation records into a model comparison
// table ordered from best to worst.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/tune"
)

// Table is a comparison of model configurations on one metric, ordered by
// ascending mean so the best configuration comes first.
type Table struct {
	// Metric is the metric name shared by all rows.
	Metric string
	// Folds is the fold count shared by all rows.
	Folds int
	// Rows holds the records in ascending order of mean metric value.
	Rows []tune.Record
}

// Compare validates the records and builds the comparison table. All
// records must carry the same metric and fold count, distinct labels, and
// finite means; anything else is an InvalidInputError. The sort is stable,
// so records with equal means keep their input order.
func Compare(records []tune.Record) (*Table, error) {
	const op = "report.Compare"

	if len(records) == 0 {
		return nil, errors.NewInvalidInputError(op, "no records to compare")
	}

	metric := records[0].Metric
	folds := records[0].Folds
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.Metric != metric {
			return nil, errors.NewInvalidInputError(op,
				fmt.Sprintf("record %q carries metric %q, others carry %q", r.Label, r.Metric, metric))
		}
		if r.Folds != folds {
			return nil, errors.NewInvalidInputError(op,
				fmt.Sprintf("record %q was evaluated on %d folds, others on %d", r.Label, r.Folds, folds))
		}
		if seen[r.Label] {
			return nil, errors.NewInvalidInputError(op,
				fmt.Sprintf("duplicate record label %q", r.Label))
		}
		seen[r.Label] = true
		if math.IsNaN(r.Mean) || math.IsInf(r.Mean, 0) {
			return nil, errors.NewInvalidInputError(op,
				fmt.Sprintf("record %q has a non-finite %s value", r.Label, metric))
		}
	}

	rows := make([]tune.Record, len(records))
	copy(rows, records)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Mean < rows[j].Mean })

	return &Table{Metric: metric, Folds: folds, Rows: rows}, nil
}

// Best returns the table's first row. Because rows are sorted ascending by
// a stable sort, ties resolve the same way as tune.SelectBest.
func (t *Table) Best() tune.Record {
	return t.Rows[0]
}

// Render formats the table as aligned plain text.
func (t *Table) Render() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "rank\tmodel\t%s\tstd_err\tfolds\tparams\n", t.Metric)
	for i, r := range t.Rows {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%d\t%s\n",
			i+1, r.Label, r.Mean, r.StdErr, r.Folds, formatParams(r.Params))
	}
	w.Flush()

	return sb.String()
}

// formatParams renders hyperparameter values as name=value pairs in sorted
// name order.
func formatParams(params map[string]float64) string {
	if len(params) == 0 {
		return "-"
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, params[name])
	}
	return strings.Join(parts, ", ")
}
