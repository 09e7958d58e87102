package vecindex

import "math"

// CosineSimilarity computes cosine similarity between two vectors,
// clamped to [-1, 1]. Mismatched dimensions or a zero-norm vector
// yield 0 (no direction, no similarity).
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0
	}
	sim := dot / denom
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim
}

// cosineDistance returns 1 - cosine similarity, the distance metric
// used by DBSCAN clustering.
func cosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// l2Normalize returns a unit-length copy of v. A zero vector is
// returned as an unmodified copy.
func l2Normalize(v []float32) []float32 {
	cp := make([]float32, len(v))
	copy(cp, v)
	var sum float64
	for _, x := range cp {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm > 0 {
		scale := float32(1 / norm)
		for i := range cp {
			cp[i] *= scale
		}
	}
	return cp
}

// MeanVector computes the element-wise mean of vectors. All vectors
// must share the same length; ok is false for an empty input or
// inconsistent lengths.
func MeanVector(vectors [][]float32) (mean []float32, ok bool) {
	if len(vectors) == 0 {
		return nil, false
	}
	dim := len(vectors[0])
	mean = make([]float32, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, false
		}
		for i, x := range v {
			mean[i] += x
		}
	}
	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean, true
}
