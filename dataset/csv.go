// This file contains CSV ingestion with header handling, missing-value
// tokens, and numeric/categorical schema inference.

package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
)

// Default tokens treated as missing cells.
var defaultNATokens = []string{"", "NA", "NaN"}

// ReadOption configures CSV reading.
type ReadOption func(*csvOptions)

type csvOptions struct {
	naTokens []string
	comma    rune
}

// WithNATokens replaces the set of tokens treated as missing values.
// The default set is "", "NA", "NaN".
func WithNATokens(tokens ...string) ReadOption {
	return func(o *csvOptions) {
		o.naTokens = tokens
	}
}

// WithComma sets the field delimiter. The default is ','.
func WithComma(comma rune) ReadOption {
	return func(o *csvOptions) {
		o.comma = comma
	}
}

// ReadCSV loads a dataset from a CSV file. The first row is the header; the
// named target column must exist and be numeric. Column kinds are inferred:
// a column is numeric when every non-missing cell parses as a float, and
// categorical otherwise.
func ReadCSV(path string, target string, opts ...ReadOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.ReadCSV: opening %s", path)
	}
	defer f.Close()

	ds, err := ReadCSVFrom(f, target, opts...)
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("dataset")
	logger.Info("dataset loaded",
		log.SourceKey, path,
		log.SamplesKey, ds.NRows(),
		log.ColumnsKey, ds.NCols(),
		log.TargetKey, target,
	)
	return ds, nil
}

// ReadCSVFrom loads a dataset from an io.Reader in CSV form.
func ReadCSVFrom(r io.Reader, target string, opts ...ReadOption) (*Dataset, error) {
	options := csvOptions{naTokens: defaultNATokens, comma: ','}
	for _, opt := range opts {
		opt(&options)
	}

	reader := csv.NewReader(r)
	reader.Comma = options.comma

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewValueError("dataset.ReadCSVFrom", "empty input")
	}
	if err != nil {
		return nil, errors.Wrap(err, "dataset.ReadCSVFrom: reading header")
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "dataset.ReadCSVFrom: reading record")
		}
		row := make([]string, len(rec))
		copy(row, rec)
		records = append(records, row)
	}

	if len(records) == 0 {
		return nil, errors.NewValueError("dataset.ReadCSVFrom", "no data rows")
	}

	na := make(map[string]bool, len(options.naTokens))
	for _, tok := range options.naTokens {
		na[tok] = true
	}

	columns := make([]Column, len(header))
	for j, name := range header {
		columns[j] = inferColumn(name, records, j, na)
	}

	return New(columns, target)
}

// inferColumn probes every non-missing cell of column j: if all parse as
// floats the column is numeric, otherwise categorical.
func inferColumn(name string, records [][]string, j int, na map[string]bool) Column {
	isNumeric := true
	for _, rec := range records {
		cell := rec[j]
		if na[cell] {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			isNumeric = false
			break
		}
	}

	if isNumeric {
		values := make([]float64, len(records))
		for i, rec := range records {
			cell := rec[j]
			if na[cell] {
				values[i] = math.NaN()
				continue
			}
			v, _ := strconv.ParseFloat(cell, 64)
			values[i] = v
		}
		return NewNumericColumn(name, values)
	}

	levels := make([]string, len(records))
	for i, rec := range records {
		cell := rec[j]
		if na[cell] {
			levels[i] = ""
			continue
		}
		levels[i] = cell
	}
	return NewCategoricalColumn(name, levels)
}
