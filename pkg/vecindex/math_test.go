package vecindex

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
		{"scaled", []float32{2, 0, 0}, []float32{5, 0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityEdgeCases(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("dimension mismatch: got %v, want 0", got)
	}
	if got := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("zero vector: got %v, want 0", got)
	}
}

func TestL2Normalize(t *testing.T) {
	v := l2Normalize([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("l2Normalize = %v, want [0.6 0.8]", v)
	}

	// Zero vector is returned unchanged, not NaN.
	z := l2Normalize([]float32{0, 0})
	if z[0] != 0 || z[1] != 0 {
		t.Errorf("zero vector normalized to %v", z)
	}
}

func TestMeanVector(t *testing.T) {
	mean, ok := MeanVector([][]float32{
		{1, 0, 2},
		{3, 2, 0},
	})
	if !ok {
		t.Fatal("expected ok")
	}
	want := []float32{2, 1, 1}
	for i := range want {
		if mean[i] != want[i] {
			t.Errorf("mean = %v, want %v", mean, want)
			break
		}
	}

	if _, ok := MeanVector(nil); ok {
		t.Error("expected ok=false for empty input")
	}
	if _, ok := MeanVector([][]float32{{1, 2}, {1, 2, 3}}); ok {
		t.Error("expected ok=false for inconsistent lengths")
	}
}

func TestDBSCANTwoClusters(t *testing.T) {
	// Two tight direction groups plus one outlier.
	vectors := [][]float32{
		{1, 0, 0},
		{0.99, 0.01, 0},
		{0.98, 0.02, 0},
		{0, 1, 0},
		{0.01, 0.99, 0},
		{0.02, 0.98, 0},
		{0, 0, 1}, // noise
	}
	for i, v := range vectors {
		vectors[i] = l2Normalize(v)
	}
	labels := dbscan(vectors, 0.1, 2)

	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Errorf("first group split: %v", labels)
	}
	if labels[3] != labels[4] || labels[4] != labels[5] {
		t.Errorf("second group split: %v", labels)
	}
	if labels[0] == labels[3] {
		t.Errorf("groups merged: %v", labels)
	}
	if labels[6] != -1 {
		t.Errorf("outlier label = %d, want -1 (noise)", labels[6])
	}
}

func TestDBSCANEmpty(t *testing.T) {
	if labels := dbscan(nil, 0.1, 2); labels != nil {
		t.Errorf("expected nil for empty input, got %v", labels)
	}
}
