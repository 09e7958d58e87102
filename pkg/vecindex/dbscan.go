package vecindex

// dbscan runs DBSCAN over L2-normalized embeddings using cosine
// distance (1 - cosine similarity).
//
// Returns a cluster label per vector: positive integers for clusters,
// -1 for noise (unassigned).
func dbscan(vectors [][]float32, eps float64, minPts int) []int {
	n := len(vectors)
	if n == 0 {
		return nil
	}

	const (
		undefined = 0
		noise     = -1
	)

	labels := make([]int, n) // 0 = undefined
	clusterID := 0

	for i := 0; i < n; i++ {
		if labels[i] != undefined {
			continue
		}

		neighbors := rangeQuery(vectors, i, eps)
		if len(neighbors) < minPts {
			labels[i] = noise
			continue
		}

		clusterID++
		labels[i] = clusterID

		// Seed set: neighbors minus point i.
		seed := make([]int, 0, len(neighbors))
		for _, j := range neighbors {
			if j != i {
				seed = append(seed, j)
			}
		}

		for len(seed) > 0 {
			q := seed[0]
			seed = seed[1:]

			if labels[q] == noise {
				labels[q] = clusterID
			}
			if labels[q] != undefined {
				continue
			}
			labels[q] = clusterID

			qNeighbors := rangeQuery(vectors, q, eps)
			if len(qNeighbors) >= minPts {
				seed = append(seed, qNeighbors...)
			}
		}
	}

	return labels
}

// rangeQuery returns indices of all vectors within eps cosine distance
// of vectors[idx], including idx itself.
func rangeQuery(vectors [][]float32, idx int, eps float64) []int {
	var result []int
	q := vectors[idx]
	for i, v := range vectors {
		if cosineDistance(q, v) <= eps {
			result = append(result, i)
		}
	}
	return result
}
