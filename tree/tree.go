// Package tree implements CART regression trees. Splits minimize the sum of
// squared errors of the two children, found by scanning sorted feature
// values with prefix sums. Grown trees can be pruned with a cost-complexity
// penalty in the style of rpart, where the penalty is expressed as a
// fraction of the root node's error.
package tree

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/aweil41/modelbench/core/model"
	"github.com/aweil41/modelbench/core/parallel"
	"github.com/aweil41/modelbench/metrics"
	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
)

// predictThreshold is the row count below which prediction runs
// sequentially.
const predictThreshold = 1000

// TreeRegressor is a CART regression tree.
type TreeRegressor struct {
	model.BaseEstimator

	// MaxDepth limits the tree depth; 0 means no limit. The root is at
	// depth 0.
	MaxDepth int
	// MinSamplesSplit is the minimum number of rows a node needs before a
	// split is attempted.
	MinSamplesSplit int
	// MinSamplesLeaf is the minimum number of rows each child must keep.
	MinSamplesLeaf int
	// CostComplexity is the pruning penalty alpha. After growing, any
	// subtree whose error improvement per pruned leaf is at most
	// alpha * SSE(root) is collapsed. 0 disables pruning.
	CostComplexity float64

	root      *node
	nFeatures int
}

// node is one tree node. Leaves predict their mean target value.
type node struct {
	leaf      bool
	feature   int
	threshold float64
	left      *node
	right     *node

	value float64
	sse   float64
	n     int
}

// NewTreeRegressor creates a regression tree with unconstrained growth and
// no pruning.
func NewTreeRegressor() *TreeRegressor {
	return &TreeRegressor{
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		CostComplexity:  0,
	}
}

// WithMaxDepth limits the tree depth. 0 removes the limit.
func (t *TreeRegressor) WithMaxDepth(d int) *TreeRegressor {
	t.MaxDepth = d
	return t
}

// WithMinSamplesSplit sets the minimum rows a node needs before splitting.
func (t *TreeRegressor) WithMinSamplesSplit(n int) *TreeRegressor {
	t.MinSamplesSplit = n
	return t
}

// WithMinSamplesLeaf sets the minimum rows each child must keep.
func (t *TreeRegressor) WithMinSamplesLeaf(n int) *TreeRegressor {
	t.MinSamplesLeaf = n
	return t
}

// WithCostComplexity sets the pruning penalty alpha.
func (t *TreeRegressor) WithCostComplexity(alpha float64) *TreeRegressor {
	t.CostComplexity = alpha
	return t
}

// Fit grows the tree on X and y, then prunes it when a cost-complexity
// penalty is configured.
func (t *TreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "tree.TreeRegressor.Fit")

	if t.MaxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative", t.MaxDepth)
	}
	if t.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", t.MinSamplesSplit)
	}
	if t.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", t.MinSamplesLeaf)
	}
	if t.CostComplexity < 0 {
		return errors.NewValidationError("cost_complexity", "must be non-negative", t.CostComplexity)
	}

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("tree.TreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("tree.TreeRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("tree.TreeRegressor.Fit", "y must be a column vector")
	}

	Xd := mat.DenseCopyOf(X)
	yv := make([]float64, r)
	for i := 0; i < r; i++ {
		yv[i] = y.At(i, 0)
	}

	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}

	t.nFeatures = c
	t.root = t.buildNode(Xd, yv, idx, 0)
	if t.CostComplexity > 0 && t.root.sse > 0 {
		prune(t.root, t.CostComplexity*t.root.sse)
	}

	t.SetFitted()

	log.GetLoggerWithName("tree").Debug("model fitted",
		log.ModelNameKey, "decision_tree",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		"tree.depth", depth(t.root),
		"tree.leaves", leaves(t.root),
	)

	return nil
}

// split holds the best split found for one feature.
type split struct {
	gain      float64
	feature   int
	threshold float64
}

func (t *TreeRegressor) buildNode(X *mat.Dense, y []float64, idx []int, nodeDepth int) *node {
	nd := &node{n: len(idx)}

	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	nd.value = sum / float64(len(idx))
	for _, i := range idx {
		diff := y[i] - nd.value
		nd.sse += diff * diff
	}

	if len(idx) < t.MinSamplesSplit || nd.sse <= 1e-12 {
		nd.leaf = true
		return nd
	}
	if t.MaxDepth > 0 && nodeDepth >= t.MaxDepth {
		nd.leaf = true
		return nd
	}

	// Search every feature in parallel, each writing to its own slot, then
	// scan the slots in feature order so ties resolve to the lowest
	// feature index regardless of goroutine scheduling.
	_, p := X.Dims()
	results := make([]split, p)
	parallel.ForEach(p, func(f int) {
		results[f] = t.findBestSplitForFeature(X, y, idx, f, nd.sse)
	})

	best := split{feature: -1}
	for f := 0; f < p; f++ {
		if results[f].feature >= 0 && results[f].gain > best.gain {
			best = results[f]
		}
	}
	if best.feature < 0 {
		nd.leaf = true
		return nd
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X.At(i, best.feature) <= best.threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.left = t.buildNode(X, y, leftIdx, nodeDepth+1)
	nd.right = t.buildNode(X, y, rightIdx, nodeDepth+1)
	return nd
}

// findBestSplitForFeature scans the sorted values of one feature. Prefix
// sums of y and y^2 give each candidate partition's SSE in constant time.
func (t *TreeRegressor) findBestSplitForFeature(X *mat.Dense, y []float64, idx []int, f int, parentSSE float64) split {
	best := split{feature: -1}

	type pair struct {
		v float64
		y float64
	}
	pairs := make([]pair, len(idx))
	for k, i := range idx {
		pairs[k] = pair{v: X.At(i, f), y: y[i]}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

	n := len(pairs)
	prefixY := make([]float64, n+1)
	prefixY2 := make([]float64, n+1)
	for k := 0; k < n; k++ {
		prefixY[k+1] = prefixY[k] + pairs[k].y
		prefixY2[k+1] = prefixY2[k] + pairs[k].y*pairs[k].y
	}

	for s := 1; s < n; s++ {
		if pairs[s].v == pairs[s-1].v {
			continue
		}
		if s < t.MinSamplesLeaf || n-s < t.MinSamplesLeaf {
			continue
		}

		nl, nr := float64(s), float64(n-s)
		sseLeft := prefixY2[s] - prefixY[s]*prefixY[s]/nl
		sseRight := (prefixY2[n] - prefixY2[s]) - (prefixY[n]-prefixY[s])*(prefixY[n]-prefixY[s])/nr

		gain := parentSSE - sseLeft - sseRight
		if gain > best.gain {
			best = split{
				gain:      gain,
				feature:   f,
				threshold: (pairs[s-1].v + pairs[s].v) / 2,
			}
		}
	}
	return best
}

// prune collapses, bottom up, every subtree whose total error improvement
// is at most penalty per removed leaf.
func prune(nd *node, penalty float64) {
	if nd == nil || nd.leaf {
		return
	}
	prune(nd.left, penalty)
	prune(nd.right, penalty)

	subtreeSSE := subtreeError(nd)
	nLeaves := leaves(nd)
	if nd.sse-subtreeSSE <= penalty*float64(nLeaves-1) {
		nd.leaf = true
		nd.left = nil
		nd.right = nil
	}
}

func subtreeError(nd *node) float64 {
	if nd.leaf {
		return nd.sse
	}
	return subtreeError(nd.left) + subtreeError(nd.right)
}

func leaves(nd *node) int {
	if nd == nil {
		return 0
	}
	if nd.leaf {
		return 1
	}
	return leaves(nd.left) + leaves(nd.right)
}

func depth(nd *node) int {
	if nd == nil || nd.leaf {
		return 0
	}
	l, r := depth(nd.left), depth(nd.right)
	if l > r {
		return l + 1
	}
	return r + 1
}

// Predict routes each row of X down the tree and returns the leaf means as
// an n x 1 matrix.
func (t *TreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("tree.TreeRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != t.nFeatures {
		return nil, errors.NewDimensionError("tree.TreeRegressor.Predict", t.nFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, predictThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			nd := t.root
			for !nd.leaf {
				if X.At(i, nd.feature) <= nd.threshold {
					nd = nd.left
				} else {
					nd = nd.right
				}
			}
			predictions.Set(i, 0, nd.value)
		}
	})

	return predictions, nil
}

// Score returns the coefficient of determination R^2 on the given data.
func (t *TreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !t.IsFitted() {
		return 0, errors.NewNotFittedError("tree.TreeRegressor", "Score")
	}

	yPred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, yPred)
}

// NLeaves returns the number of leaves of the fitted tree.
func (t *TreeRegressor) NLeaves() int {
	return leaves(t.root)
}

// Depth returns the depth of the fitted tree. A single leaf has depth 0.
func (t *TreeRegressor) Depth() int {
	return depth(t.root)
}

// GetParams returns the model's hyperparameters.
func (t *TreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         t.MaxDepth,
		"min_samples_split": t.MinSamplesSplit,
		"min_samples_leaf":  t.MinSamplesLeaf,
		"cost_complexity":   t.CostComplexity,
	}
}
