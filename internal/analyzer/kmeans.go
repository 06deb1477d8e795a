package analyzer

import (
	"math"
	"math/rand"
)

// kmeans clusters binary presence vectors. The PRNG seed is fixed by the
// caller and every tie breaks toward the lower index, so identical input and
// configuration always yield identical assignments.
func kmeans(vectors [][]float64, k int, seed int64, maxIter int) []int {
	n := len(vectors)
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if maxIter <= 0 {
		maxIter = 100
	}

	dims := len(vectors[0])
	rng := rand.New(rand.NewSource(seed))

	// Initial centroids: k distinct vectors chosen by a seeded permutation.
	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(n)[:k] {
		centroids[i] = append([]float64(nil), vectors[idx]...)
	}

	assign := make([]int, n)
	for iter := 0; iter < maxIter; iter++ {
		changed := false

		for i, v := range vectors {
			best, bestDist := 0, math.MaxFloat64
			for c, centroid := range centroids {
				if d := sqDist(v, centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids as member means. An emptied cluster keeps its
		// previous centroid rather than being re-seeded, preserving determinism.
		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, v := range vectors {
			c := assign[i]
			counts[c]++
			for d, x := range v {
				next[c][d] += x
			}
		}
		for c := range next {
			if counts[c] == 0 {
				next[c] = centroids[c]
				continue
			}
			for d := range next[c] {
				next[c][d] /= float64(counts[c])
			}
		}
		centroids = next
	}

	return assign
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
