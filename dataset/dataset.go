// Package dataset provides the in-memory tabular data model: ordered rows
// over named columns, each column numeric or categorical, with one numeric
// column designated as the prediction target. Row subsets share no storage
// with their source, so splits and folds can be processed concurrently.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aweil41/modelbench/pkg/errors"
)

// ColumnKind distinguishes numeric from categorical columns.
type ColumnKind int

const (
	// Numeric columns hold float64 values; math.NaN marks a missing cell.
	Numeric ColumnKind = iota
	// Categorical columns hold string levels; "" marks a missing cell.
	Categorical
)

// String returns the string representation of the column kind.
func (k ColumnKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is one named column of a Dataset. Exactly one of Values and Levels
// is populated, according to Kind.
type Column struct {
	Name   string
	Kind   ColumnKind
	Values []float64 // numeric cells, NaN for missing
	Levels []string  // categorical cells, "" for missing
}

// NewNumericColumn creates a numeric column.
func NewNumericColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: Numeric, Values: values}
}

// NewCategoricalColumn creates a categorical column.
func NewCategoricalColumn(name string, levels []string) Column {
	return Column{Name: name, Kind: Categorical, Levels: levels}
}

// len returns the number of cells in the column.
func (c *Column) len() int {
	if c.Kind == Numeric {
		return len(c.Values)
	}
	return len(c.Levels)
}

// missing reports whether the cell at row i is missing.
func (c *Column) missing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Values[i])
	}
	return c.Levels[i] == ""
}

// Dataset is an ordered collection of rows over named columns.
type Dataset struct {
	columns []Column
	byName  map[string]int
	target  string
	nRows   int
}

// New assembles a Dataset from columns with the named target column.
// All columns must have the same length, names must be unique, and the
// target must exist and be numeric.
func New(columns []Column, target string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, errors.NewValueError("dataset.New", "no columns")
	}

	nRows := columns[0].len()
	byName := make(map[string]int, len(columns))
	for i := range columns {
		c := &columns[i]
		if c.Name == "" {
			return nil, errors.NewValueError("dataset.New", "column with empty name")
		}
		if _, dup := byName[c.Name]; dup {
			return nil, errors.NewValueError("dataset.New", "duplicate column name '"+c.Name+"'")
		}
		if c.len() != nRows {
			return nil, errors.NewDimensionError("dataset.New", nRows, c.len(), 0)
		}
		byName[c.Name] = i
	}

	ti, ok := byName[target]
	if !ok {
		return nil, errors.NewValueError("dataset.New", "target column '"+target+"' not found")
	}
	if columns[ti].Kind != Numeric {
		return nil, errors.NewValueError("dataset.New", "target column '"+target+"' must be numeric")
	}

	return &Dataset{
		columns: columns,
		byName:  byName,
		target:  target,
		nRows:   nRows,
	}, nil
}

// NRows returns the number of rows.
func (d *Dataset) NRows() int {
	return d.nRows
}

// NCols returns the number of columns including the target.
func (d *Dataset) NCols() int {
	return len(d.columns)
}

// Target returns the name of the target column.
func (d *Dataset) Target() string {
	return d.target
}

// ColumnNames returns the column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i := range d.columns {
		names[i] = d.columns[i].Name
	}
	return names
}

// FeatureNames returns the names of all non-target columns in dataset order.
func (d *Dataset) FeatureNames() []string {
	names := make([]string, 0, len(d.columns)-1)
	for i := range d.columns {
		if d.columns[i].Name != d.target {
			names = append(names, d.columns[i].Name)
		}
	}
	return names
}

// Column returns the column with the given name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return &d.columns[i], true
}

// TargetVec returns the target column as a dense vector.
func (d *Dataset) TargetVec() *mat.VecDense {
	col := &d.columns[d.byName[d.target]]
	out := make([]float64, d.nRows)
	copy(out, col.Values)
	return mat.NewVecDense(d.nRows, out)
}

// Subset returns a new Dataset holding the rows at the given indices, in
// order, with the full column set preserved. The result owns its storage.
func (d *Dataset) Subset(indices []int) (*Dataset, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= d.nRows {
			return nil, errors.NewValueError("dataset.Subset", "row index out of range")
		}
	}

	columns := make([]Column, len(d.columns))
	for i := range d.columns {
		src := &d.columns[i]
		dst := Column{Name: src.Name, Kind: src.Kind}
		if src.Kind == Numeric {
			dst.Values = make([]float64, len(indices))
			for j, idx := range indices {
				dst.Values[j] = src.Values[idx]
			}
		} else {
			dst.Levels = make([]string, len(indices))
			for j, idx := range indices {
				dst.Levels[j] = src.Levels[idx]
			}
		}
		columns[i] = dst
	}

	return New(columns, d.target)
}

// DropMissing returns a copy without rows that have any missing cell, and
// the number of rows removed.
func (d *Dataset) DropMissing() (*Dataset, int, error) {
	keep := make([]int, 0, d.nRows)
	for i := 0; i < d.nRows; i++ {
		complete := true
		for j := range d.columns {
			if d.columns[j].missing(i) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}

	if len(keep) == d.nRows {
		sub, err := d.Subset(keep)
		return sub, 0, err
	}

	sub, err := d.Subset(keep)
	if err != nil {
		return nil, 0, err
	}
	return sub, d.nRows - len(keep), nil
}
