package linear

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// createBenchmarkData builds a seeded random regression problem with a known
// linear structure plus small noise.
func createBenchmarkData(rows, cols int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64()*2.0-1.0)
		}
	}

	trueWeights := make([]float64, cols)
	for j := 0; j < cols; j++ {
		trueWeights[j] = float64(j+1) * 0.5
	}

	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0 // intercept
		for j := 0; j < cols; j++ {
			sum += X.At(i, j) * trueWeights[j]
		}
		sum += (rng.Float64() - 0.5) * 0.1
		y.Set(i, 0, sum)
	}

	return X, y
}

func BenchmarkRegressorFit(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Small_100x10", 100, 10},
		{"Small_500x10", 500, 10},
		{"Medium_1000x10", 1000, 10}, // parallel assembly threshold
		{"Medium_2000x10", 2000, 10},
		{"Large_5000x20", 5000, 20},
		{"Large_10000x20", 10000, 20},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := createBenchmarkData(size.rows, size.cols)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				lr := NewRegressor()
				if err := lr.Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRegressorPredict(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Predict_1000x10", 1000, 10},
		{"Predict_10000x20", 10000, 20},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := createBenchmarkData(size.rows, size.cols)
			lr := NewRegressor()
			if err := lr.Fit(X, y); err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := lr.Predict(X); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
