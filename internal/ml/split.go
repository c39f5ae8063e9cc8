package ml

import (
	"math"
	"math/rand"
)

// TrainTestSplit shuffles row indices 0..n-1 with the given seed and returns
// the train and test partitions. The test partition holds ceil(testFrac*n)
// rows; the same (n, testFrac, seed) always yields the same split.
func TrainTestSplit(n int, testFrac float64, seed int64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	nTest := int(math.Ceil(testFrac * float64(n)))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test
}

// Rows selects rows of X by index.
func Rows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, k := range idx {
		out[i] = X[k]
	}
	return out
}
