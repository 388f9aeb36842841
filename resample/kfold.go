// Package resample partitions datasets into training and evaluation subsets:
// a single seeded train/eval split, optionally stratified by the target
// column, and k-fold fold sets for cross-validation. All shuffling uses a
// seeded PCG source, so identical seeds reproduce identical partitions.
package resample

import (
	"math/rand/v2"

	"github.com/aweil41/modelbench/pkg/errors"
)

// Fold is one (training, validation) index pair of a fold set. Indices refer
// to rows of the dataset the fold set was generated for.
type Fold struct {
	TrainIndices []int
	ValIndices   []int
}

// KFold generates fold sets for k-fold cross-validation. Across the k folds
// every row index appears in the validation position exactly once.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a k-fold generator.
func NewKFold(nSplits int) *KFold {
	return &KFold{NSplits: nSplits}
}

// WithShuffle enables seeded shuffling of row indices before folds are cut.
func (kf *KFold) WithShuffle(seed uint64) *KFold {
	kf.Shuffle = true
	kf.Seed = seed
	return kf
}

// Split generates the fold set for n rows. Validation rows are contiguous
// runs of the (optionally shuffled) index permutation; the first n mod k
// folds receive one extra validation row.
func (kf *KFold) Split(n int) ([]Fold, error) {
	if kf.NSplits < 2 {
		return nil, errors.NewValidationError("n_splits", "must be at least 2", kf.NSplits)
	}
	if n < kf.NSplits {
		return nil, errors.NewValueError("resample.KFold.Split",
			"fewer rows than folds: every fold needs at least one validation row")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		r.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	start := 0
	for i := 0; i < kf.NSplits; i++ {
		valSize := foldSize
		if i < remainder {
			valSize++
		}
		end := start + valSize

		valIndices := make([]int, valSize)
		copy(valIndices, indices[start:end])

		trainIndices := make([]int, 0, n-valSize)
		trainIndices = append(trainIndices, indices[:start]...)
		trainIndices = append(trainIndices, indices[end:]...)

		folds[i] = Fold{
			TrainIndices: trainIndices,
			ValIndices:   valIndices,
		}

		start = end
	}

	return folds, nil
}
