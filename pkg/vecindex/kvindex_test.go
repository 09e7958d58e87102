package vecindex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/askthegame/voicekit/pkg/kv"
)

func newTestIndex(t *testing.T, dim int) *KV {
	t.Helper()
	idx, err := NewKV(kv.NewMemory(), Config{Dim: dim})
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestAddEmbeddingDimensionCheck(t *testing.T) {
	idx := newTestIndex(t, 3)
	_, err := idx.AddEmbedding(context.Background(), []float32{1, 0}, Meta{EpisodeID: "ep1"})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestSearchSimilarRanking(t *testing.T) {
	idx := newTestIndex(t, 3)
	ctx := context.Background()

	if _, err := idx.AddEmbedding(ctx, []float32{1, 0, 0}, Meta{EpisodeID: "ep1", Label: "Host"}); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.AddEmbedding(ctx, []float32{0, 1, 0}, Meta{EpisodeID: "ep1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.AddEmbedding(ctx, []float32{0.9, 0.1, 0}, Meta{EpisodeID: "ep2"}); err != nil {
		t.Fatal(err)
	}

	matches, err := idx.SearchSimilar(ctx, []float32{1, 0, 0}, 2, 0.5, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Label != "Host" {
		t.Errorf("top match label = %q, want Host", matches[0].Label)
	}
	if matches[1].EpisodeID != "ep2" {
		t.Errorf("second match episode = %q, want ep2", matches[1].EpisodeID)
	}
	// The orthogonal vector is below the similarity floor.
	for _, m := range matches {
		if m.Similarity < 0.5 {
			t.Errorf("match below floor: %+v", m)
		}
	}
}

func TestSearchSimilarTieBreaksByRecency(t *testing.T) {
	idx := newTestIndex(t, 2)
	ctx := context.Background()

	// Two identical vectors: the later insertion must rank first.
	first, _ := idx.AddEmbedding(ctx, []float32{1, 0}, Meta{EpisodeID: "ep1"})
	second, _ := idx.AddEmbedding(ctx, []float32{1, 0}, Meta{EpisodeID: "ep2"})

	matches, err := idx.SearchSimilar(ctx, []float32{1, 0}, 2, 0.9, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 || matches[0].RecordID != second || matches[1].RecordID != first {
		t.Errorf("tie-break order wrong: %+v", matches)
	}
}

func TestSearchSimilarTemporalBoost(t *testing.T) {
	idx := newTestIndex(t, 2)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	idx.now = func() time.Time { return base }
	oldID, _ := idx.AddEmbedding(ctx, []float32{1, 0}, Meta{EpisodeID: "old"})

	idx.now = func() time.Time { return base.AddDate(0, 0, 200) }
	recentID, _ := idx.AddEmbedding(ctx, []float32{0.995, 0.0999}, Meta{EpisodeID: "recent"})

	// Query slightly favors the old vector by raw similarity, but the
	// boost on the much fresher record flips a near-tie.
	query := []float32{1, 0.04}

	matches, err := idx.SearchSimilar(ctx, query, 2, 0.5, false)
	if err != nil {
		t.Fatal(err)
	}
	if matches[0].RecordID != oldID {
		t.Fatalf("without boost, old record should win: %+v", matches)
	}

	matches, err = idx.SearchSimilar(ctx, query, 2, 0.5, true)
	if err != nil {
		t.Fatal(err)
	}
	if matches[0].RecordID != recentID {
		t.Errorf("with boost, recent record should win near-tie: %+v", matches)
	}
}

func TestTemporalBoostBounded(t *testing.T) {
	idx := newTestIndex(t, 2)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	idx.now = func() time.Time { return base }
	strongID, _ := idx.AddEmbedding(ctx, []float32{1, 0}, Meta{EpisodeID: "strong"})

	idx.now = func() time.Time { return base.AddDate(0, 0, 300) }
	// Clearly weaker match, even if brand new: boost is bounded by
	// BoostWeight and cannot override a decisively higher similarity.
	weakID, _ := idx.AddEmbedding(ctx, []float32{0.7, 0.7}, Meta{EpisodeID: "weak"})

	matches, err := idx.SearchSimilar(ctx, []float32{1, 0}, 2, 0.2, true)
	if err != nil {
		t.Fatal(err)
	}
	if matches[0].RecordID != strongID || matches[1].RecordID != weakID {
		t.Errorf("bounded boost violated: %+v", matches)
	}
}

func TestGetStatistics(t *testing.T) {
	idx := newTestIndex(t, 2)
	ctx := context.Background()

	idx.AddEmbedding(ctx, []float32{1, 0}, Meta{Label: "Host"})
	idx.AddEmbedding(ctx, []float32{0.9, 0.1}, Meta{Label: "Host"})
	idx.AddEmbedding(ctx, []float32{0, 1}, Meta{})

	stats, err := idx.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEmbeddings != 3 {
		t.Errorf("total = %d, want 3", stats.TotalEmbeddings)
	}
	if len(stats.BySpeaker) != 2 || stats.BySpeaker[0].Label != "Host" || stats.BySpeaker[0].Count != 2 {
		t.Errorf("by_speaker = %+v", stats.BySpeaker)
	}
	if stats.BySpeaker[1].Label != "unknown" || stats.BySpeaker[1].Count != 1 {
		t.Errorf("by_speaker = %+v", stats.BySpeaker)
	}
}

func TestGetSpeakerClusters(t *testing.T) {
	idx := newTestIndex(t, 3)
	ctx := context.Background()

	// A recurring unlabeled voice (three near-identical vectors), a
	// labeled voice that must not participate, and an outlier.
	idx.AddEmbedding(ctx, []float32{1, 0, 0}, Meta{EpisodeID: "ep1"})
	idx.AddEmbedding(ctx, []float32{0.99, 0.01, 0}, Meta{EpisodeID: "ep2"})
	idx.AddEmbedding(ctx, []float32{0.98, 0.02, 0}, Meta{EpisodeID: "ep3"})
	idx.AddEmbedding(ctx, []float32{0.97, 0.03, 0}, Meta{EpisodeID: "ep4", Label: "Host"})
	outlier, _ := idx.AddEmbedding(ctx, []float32{0, 0, 1}, Meta{EpisodeID: "ep5"})

	clusters, err := idx.GetSpeakerClusters(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1: %v", len(clusters), clusters)
	}
	for id, members := range clusters {
		if len(members) != 3 {
			t.Errorf("cluster %s has %d members, want 3", id, len(members))
		}
		for _, m := range members {
			if m == outlier {
				t.Error("outlier assigned to cluster")
			}
		}
	}

	// Cluster ids are stable across re-clustering.
	again, err := idx.GetSpeakerClusters(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	for id := range clusters {
		if _, ok := again[id]; !ok {
			t.Errorf("cluster id %s not preserved on re-cluster: %v", id, again)
		}
	}
}

func TestSplitClusterGetsFreshID(t *testing.T) {
	// Four voices that cluster together under a loose similarity floor,
	// then split into two groups under a strict one. Both halves carry
	// the same prior cluster id; they must not both keep it.
	store := kv.NewMemory()
	ctx := context.Background()

	loose, err := NewKV(store, Config{Dim: 3, ClusterSimilarityFloor: 0.7})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, v := range [][]float32{
		{1, 0, 0}, {1, 0, 0},
		{0.8, 0.6, 0}, {0.8, 0.6, 0},
	} {
		id, err := loose.AddEmbedding(ctx, v, Meta{EpisodeID: "ep1"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	merged, err := loose.GetSpeakerClusters(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 {
		t.Fatalf("loose clustering = %v, want one cluster", merged)
	}
	var priorID string
	for id := range merged {
		priorID = id
	}

	strict, err := NewKV(store, Config{Dim: 3, ClusterSimilarityFloor: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	split, err := strict.GetSpeakerClusters(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(split) != 2 {
		t.Fatalf("strict clustering = %v, want two clusters", split)
	}
	if _, ok := split[priorID]; !ok {
		t.Errorf("prior id %s not retained by either half: %v", priorID, split)
	}
	seen := make(map[string]bool)
	total := 0
	for id, members := range split {
		if len(members) != 2 {
			t.Errorf("cluster %s has %d members, want 2", id, len(members))
		}
		for _, m := range members {
			if seen[m] {
				t.Errorf("record %s assigned to two clusters", m)
			}
			seen[m] = true
		}
		total += len(members)
	}
	if total != len(ids) {
		t.Errorf("clustered %d records, want %d", total, len(ids))
	}
}

func TestAssignSpeakerLabelSupersedesCluster(t *testing.T) {
	idx := newTestIndex(t, 3)
	ctx := context.Background()

	var ids []string
	for _, v := range [][]float32{{1, 0, 0}, {0.99, 0.01, 0}, {0.98, 0.02, 0}} {
		id, err := idx.AddEmbedding(ctx, v, Meta{})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if _, err := idx.GetSpeakerClusters(ctx, 3); err != nil {
		t.Fatal(err)
	}

	if err := idx.AssignSpeakerLabel(ctx, ids[0], "Jane Guest"); err != nil {
		t.Fatal(err)
	}

	matches, err := idx.SearchSimilar(ctx, []float32{1, 0, 0}, 1, 0.9, false)
	if err != nil {
		t.Fatal(err)
	}
	if matches[0].Label != "Jane Guest" || matches[0].ClusterID != "" {
		t.Errorf("label precedence violated: %+v", matches[0])
	}

	if err := idx.AssignSpeakerLabel(ctx, "nope", "X"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown record: err = %v, want ErrNotFound", err)
	}
}

func TestPruneOldEmbeddings(t *testing.T) {
	idx := newTestIndex(t, 2)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	idx.now = func() time.Time { return base.AddDate(0, 0, -365) }
	idx.AddEmbedding(ctx, []float32{1, 0}, Meta{Confidence: 0.3}) // old AND weak → pruned
	idx.AddEmbedding(ctx, []float32{0, 1}, Meta{Confidence: 0.9}) // old but strong → kept

	idx.now = func() time.Time { return base }
	idx.AddEmbedding(ctx, []float32{1, 1}, Meta{Confidence: 0.1}) // weak but recent → kept

	removed, err := idx.PruneOldEmbeddings(ctx, 180*24*time.Hour, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if idx.Len() != 2 {
		t.Errorf("Len = %d, want 2", idx.Len())
	}
}

func TestReopenLoadsPersistedRecords(t *testing.T) {
	store := kv.NewMemory()
	idx, err := NewKV(store, Config{Dim: 2})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	id, err := idx.AddEmbedding(ctx, []float32{1, 0}, Meta{EpisodeID: "ep1", Label: "Host"})
	if err != nil {
		t.Fatal(err)
	}

	// Reopen over the same store; kv.Memory has a no-op Close.
	reopened, err := NewKV(store, Config{Dim: 2})
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("Len after reopen = %d, want 1", reopened.Len())
	}
	matches, err := reopened.SearchSimilar(ctx, []float32{1, 0}, 1, 0.9, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].RecordID != id || matches[0].Label != "Host" {
		t.Errorf("reopened search = %+v", matches)
	}

	// New insertions must not reuse sequence numbers.
	id2, err := reopened.AddEmbedding(ctx, []float32{0, 1}, Meta{EpisodeID: "ep2"})
	if err != nil {
		t.Fatal(err)
	}
	if id2 == id {
		t.Error("duplicate record id after reopen")
	}
	if reopened.Len() != 2 {
		t.Errorf("Len = %d, want 2", reopened.Len())
	}
}

func TestClosedIndex(t *testing.T) {
	idx := newTestIndex(t, 2)
	ctx := context.Background()
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.AddEmbedding(ctx, []float32{1, 0}, Meta{}); !errors.Is(err, ErrClosed) {
		t.Errorf("AddEmbedding on closed = %v, want ErrClosed", err)
	}
	if _, err := idx.SearchSimilar(ctx, []float32{1, 0}, 1, 0, false); !errors.Is(err, ErrClosed) {
		t.Errorf("SearchSimilar on closed = %v, want ErrClosed", err)
	}
	// Double close is fine.
	if err := idx.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}
