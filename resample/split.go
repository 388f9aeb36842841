// This file contains the initial train/evaluation split, with optional
// stratification of a numeric target into quantile bins.

package resample

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/aweil41/modelbench/dataset"
	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
)

// Split is a partition of a dataset into disjoint training and evaluation
// row subsets. Train and Eval own their storage; together their indices
// cover every row of the source exactly once.
type Split struct {
	Train        *dataset.Dataset
	Eval         *dataset.Dataset
	TrainIndices []int
	EvalIndices  []int
}

// SplitOption configures TrainTestSplit.
type SplitOption func(*splitOptions)

type splitOptions struct {
	seed     uint64
	stratify bool
	bins     int
}

// WithSeed sets the shuffling seed. The default seed is 0; identical seeds
// reproduce identical splits.
func WithSeed(seed uint64) SplitOption {
	return func(o *splitOptions) {
		o.seed = seed
	}
}

// WithStratifyByTarget enables stratified sampling: the numeric target is
// binned into up to bins quantile strata and every stratum is split with the
// same train fraction as the whole dataset.
func WithStratifyByTarget(bins int) SplitOption {
	return func(o *splitOptions) {
		o.stratify = true
		o.bins = bins
	}
}

// TrainTestSplit partitions ds into a training subset holding roughly
// fraction of the rows and an evaluation subset holding the rest. The
// evaluation size is round(n*(1-fraction)), with at least one row on each
// side. Row order within each subset follows the source dataset.
func TrainTestSplit(ds *dataset.Dataset, fraction float64, opts ...SplitOption) (*Split, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, errors.NewValidationError("train_fraction", "must be in (0, 1)", fraction)
	}

	n := ds.NRows()
	if n < 2 {
		return nil, errors.NewValueError("resample.TrainTestSplit",
			"need at least 2 rows to split")
	}

	options := splitOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.stratify && options.bins < 2 {
		return nil, errors.NewValidationError("stratify_bins", "must be at least 2", options.bins)
	}

	r := rand.New(rand.NewPCG(options.seed, options.seed))

	var evalIndices []int
	if options.stratify {
		strata := targetStrata(ds, options.bins)
		for _, stratum := range strata {
			evalIndices = append(evalIndices, sampleEval(stratum, fraction, r)...)
		}
	} else {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		evalIndices = sampleEval(indices, fraction, r)
	}

	if len(evalIndices) == 0 || len(evalIndices) == n {
		return nil, errors.NewValueError("resample.TrainTestSplit",
			"split left one side empty; adjust fraction or row count")
	}

	sort.Ints(evalIndices)
	inEval := make(map[int]bool, len(evalIndices))
	for _, idx := range evalIndices {
		inEval[idx] = true
	}

	trainIndices := make([]int, 0, n-len(evalIndices))
	for i := 0; i < n; i++ {
		if !inEval[i] {
			trainIndices = append(trainIndices, i)
		}
	}

	train, err := ds.Subset(trainIndices)
	if err != nil {
		return nil, err
	}
	eval, err := ds.Subset(evalIndices)
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("resample").Debug("dataset split",
		log.OperationKey, log.OperationSplit,
		log.TrainRowsKey, len(trainIndices),
		log.EvalRowsKey, len(evalIndices),
		log.RandomSeedKey, options.seed,
	)

	return &Split{
		Train:        train,
		Eval:         eval,
		TrainIndices: trainIndices,
		EvalIndices:  evalIndices,
	}, nil
}

// sampleEval shuffles the given indices and takes the evaluation share:
// round(len*(1-fraction)) of them. It may return an empty slice for small
// strata; the caller validates the assembled split.
func sampleEval(indices []int, fraction float64, r *rand.Rand) []int {
	shuffled := make([]int, len(indices))
	copy(shuffled, indices)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	evalSize := int(math.Round(float64(len(shuffled)) * (1 - fraction)))
	if evalSize > len(shuffled) {
		evalSize = len(shuffled)
	}
	return shuffled[:evalSize]
}

// targetStrata groups row indices by quantile bins of the target column.
// Duplicate quantile cut points collapse, so the result holds at most bins
// strata, each in dataset row order.
func targetStrata(ds *dataset.Dataset, bins int) [][]int {
	y := ds.TargetVec()
	n := y.Len()

	sorted := make([]float64, n)
	for i := 0; i < n; i++ {
		sorted[i] = y.AtVec(i)
	}
	sort.Float64s(sorted)

	cuts := make([]float64, 0, bins-1)
	for b := 1; b < bins; b++ {
		q := stat.Quantile(float64(b)/float64(bins), stat.Empirical, sorted, nil)
		if len(cuts) == 0 || q > cuts[len(cuts)-1] {
			cuts = append(cuts, q)
		}
	}

	strata := make([][]int, len(cuts)+1)
	for i := 0; i < n; i++ {
		s := 0
		for _, c := range cuts {
			if y.AtVec(i) > c {
				s++
			}
		}
		strata[s] = append(strata[s], i)
	}

	out := make([][]int, 0, len(strata))
	for _, stratum := range strata {
		if len(stratum) > 0 {
			out = append(out, stratum)
		}
	}
	return out
}
