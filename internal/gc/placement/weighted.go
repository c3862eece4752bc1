package placement

import (
	"crypto/rand"
	"math/big"
)

// weight implements weighted random selection: weight is
// 1 - min(load_ratio, 0.99), capped so the fullest survivor still has
// nonzero probability.
func weight(loadRatio float64) float64 {
	if loadRatio > 0.99 {
		loadRatio = 0.99
	}
	return 1 - loadRatio
}

// weightedPick samples uniformly in [0, sum(weights)) using the CSPRNG and
// returns the index it lands on. Falls back to index 0 if the CSPRNG fails
// or every weight is zero.
func weightedPick(loadRatios []float64) int {
	if len(loadRatios) == 0 {
		return -1
	}
	weights := make([]float64, len(loadRatios))
	var total float64
	for i, lr := range loadRatios {
		weights[i] = weight(lr)
		total += weights[i]
	}
	if total <= 0 {
		return 0
	}

	const scale = 1 << 40
	n, err := rand.Int(rand.Reader, big.NewInt(int64(total*scale)))
	if err != nil {
		return 0
	}
	target := float64(n.Int64()) / scale

	var cum float64
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}
