package vecindex

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/askthegame/voicekit/pkg/kv"
)

// recordPrefix is the kv key prefix for embedding records. Keys embed
// the zero-padded hex sequence number so kv scan order is insertion
// order.
const recordPrefix = "emb/"

// Config controls KV index behavior.
type Config struct {
	// Dim is the embedding dimensionality, fixed by the upstream
	// embedding model. Required.
	Dim int

	// ClusterSimilarityFloor is the minimum mutual cosine similarity
	// for two unlabeled records to be cluster neighbors. Default: 0.75.
	ClusterSimilarityFloor float64

	// BoostWeight bounds the temporal boost: a boosted score is at most
	// base * (1 + BoostWeight), so the boost can reorder only near-ties.
	// Default: 0.05.
	BoostWeight float64
}

func (c *Config) defaults() error {
	if c.Dim <= 0 {
		return fmt.Errorf("vecindex: Config.Dim must be positive, got %d", c.Dim)
	}
	if c.ClusterSimilarityFloor == 0 {
		c.ClusterSimilarityFloor = 0.75
	}
	if c.BoostWeight == 0 {
		c.BoostWeight = 0.05
	}
	return nil
}

// KV is an [Index] implementation that keeps all records in memory for
// search and persists them through a [kv.Store].
//
// All mutation (insert, label assignment, clustering, pruning) is
// serialized behind a single write lock; searches take a read lock over
// the in-memory snapshot, so two concurrent episode runs cannot
// interleave partial writes and a search never sees a half-written
// record.
type KV struct {
	cfg   Config
	store kv.Store
	now   func() time.Time

	mu          sync.RWMutex
	closed      bool
	records     []*Record
	byID        map[string]*Record
	nextSeq     uint64
	nextCluster int
}

// NewKV opens an index over the given store, loading any existing
// records.
func NewKV(store kv.Store, cfg Config) (*KV, error) {
	if err := cfg.defaults(); err != nil {
		return nil, err
	}
	idx := &KV{
		cfg:   cfg,
		store: store,
		now:   time.Now,
		byID:  make(map[string]*Record),
	}
	ctx := context.Background()
	for entry, err := range store.Scan(ctx, recordPrefix) {
		if err != nil {
			return nil, fmt.Errorf("vecindex: load records: %w", err)
		}
		var rec Record
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			return nil, fmt.Errorf("vecindex: decode record %s: %w", entry.Key, err)
		}
		if len(rec.Vector) != cfg.Dim {
			return nil, fmt.Errorf("%w: stored record %s has dim %d, index dim %d",
				ErrDimensionMismatch, rec.ID, len(rec.Vector), cfg.Dim)
		}
		r := rec
		idx.records = append(idx.records, &r)
		idx.byID[r.ID] = &r
		if r.Seq >= idx.nextSeq {
			idx.nextSeq = r.Seq + 1
		}
		if n, ok := clusterNumber(r.ClusterID); ok && n >= idx.nextCluster {
			idx.nextCluster = n
		}
	}
	return idx, nil
}

func recordKey(seq uint64) string {
	return fmt.Sprintf("%s%016x", recordPrefix, seq)
}

// clusterNumber parses the numeric suffix of a "cluster_NNN" id.
func clusterNumber(id string) (int, bool) {
	const p = "cluster_"
	if !strings.HasPrefix(id, p) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(p):])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (idx *KV) AddEmbedding(ctx context.Context, vector []float32, meta Meta) (string, error) {
	if len(vector) != idx.cfg.Dim {
		return "", fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), idx.cfg.Dim)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return "", ErrClosed
	}

	cp := make([]float32, len(vector))
	copy(cp, vector)
	rec := &Record{
		ID:         uuid.NewString(),
		Seq:        idx.nextSeq,
		Vector:     cp,
		EpisodeID:  meta.EpisodeID,
		Timestamp:  meta.Timestamp,
		Duration:   meta.Duration,
		Confidence: meta.Confidence,
		Label:      meta.Label,
		Text:       meta.Text,
		CreatedAt:  idx.now().UTC(),
	}

	data, err := msgpack.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("vecindex: encode record: %w", err)
	}
	if err := idx.store.Set(ctx, recordKey(rec.Seq), data); err != nil {
		return "", fmt.Errorf("vecindex: persist record: %w", err)
	}

	idx.nextSeq++
	idx.records = append(idx.records, rec)
	idx.byID[rec.ID] = rec
	return rec.ID, nil
}

func (idx *KV) SearchSimilar(_ context.Context, vector []float32, topK int, minSimilarity float64, temporalBoost bool) ([]Match, error) {
	if len(vector) != idx.cfg.Dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), idx.cfg.Dim)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, ErrClosed
	}
	if len(idx.records) == 0 || topK <= 0 {
		return nil, nil
	}

	now := idx.now()
	type scored struct {
		rec   *Record
		score float64
	}
	results := make([]scored, 0, len(idx.records))
	for _, rec := range idx.records {
		sim := CosineSimilarity(vector, rec.Vector)
		// The similarity floor applies to the base similarity; the boost
		// only reorders candidates already above it.
		if sim < minSimilarity {
			continue
		}
		score := sim
		if temporalBoost {
			score = idx.boost(sim, rec.CreatedAt, now)
		}
		results = append(results, scored{rec: rec, score: score})
	}

	// Rank by boosted score descending; ties break by insertion
	// recency, most recent first.
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].rec.Seq > results[j].rec.Seq
	})
	if len(results) > topK {
		results = results[:topK]
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		m := Match{
			RecordID:   r.rec.ID,
			Similarity: r.score,
			EpisodeID:  r.rec.EpisodeID,
			Label:      r.rec.Label,
		}
		// Label takes precedence: a labeled record never reports its
		// (stale) cluster membership.
		if r.rec.Label == "" {
			m.ClusterID = r.rec.ClusterID
		}
		matches[i] = m
	}
	return matches, nil
}

// boost applies the temporal ranking adjustment:
//
//	score' = score * (1 + w / (1 + ageDays))
//
// Monotonically decreasing in the record's age and bounded by w, so a
// strictly higher base similarity can only be overtaken within a
// (1 + w) relative margin.
func (idx *KV) boost(score float64, createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return score * (1 + idx.cfg.BoostWeight/(1+ageDays))
}

func (idx *KV) GetStatistics(_ context.Context) (Stats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return Stats{}, ErrClosed
	}

	counts := make(map[string]int)
	for _, rec := range idx.records {
		switch {
		case rec.Label != "":
			counts[rec.Label]++
		case rec.ClusterID != "":
			counts[rec.ClusterID]++
		default:
			counts["unknown"]++
		}
	}

	stats := Stats{TotalEmbeddings: len(idx.records)}
	for label, n := range counts {
		stats.BySpeaker = append(stats.BySpeaker, SpeakerCount{Label: label, Count: n})
	}
	sort.Slice(stats.BySpeaker, func(i, j int) bool {
		if stats.BySpeaker[i].Count != stats.BySpeaker[j].Count {
			return stats.BySpeaker[i].Count > stats.BySpeaker[j].Count
		}
		return stats.BySpeaker[i].Label < stats.BySpeaker[j].Label
	})
	return stats, nil
}

func (idx *KV) GetSpeakerClusters(ctx context.Context, minClusterSize int) (map[string][]string, error) {
	if minClusterSize < 2 {
		minClusterSize = 2
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil, ErrClosed
	}

	// Only unlabeled records participate: a label supersedes clustering.
	var unlabeled []*Record
	for _, rec := range idx.records {
		if rec.Label == "" {
			unlabeled = append(unlabeled, rec)
		}
	}
	if len(unlabeled) < minClusterSize {
		return map[string][]string{}, nil
	}

	normed := make([][]float32, len(unlabeled))
	for i, rec := range unlabeled {
		normed[i] = l2Normalize(rec.Vector)
	}
	eps := 1 - idx.cfg.ClusterSimilarityFloor
	labels := dbscan(normed, eps, minClusterSize)

	// Group members per dbscan cluster label.
	groups := make(map[int][]*Record)
	for i, l := range labels {
		if l > 0 {
			groups[l] = append(groups[l], unlabeled[i])
		}
	}
	order := make([]int, 0, len(groups))
	for l := range groups {
		order = append(order, l)
	}
	sort.Ints(order)

	out := make(map[string][]string)
	used := make(map[string]bool)
	var dirty []*Record
	for _, l := range order {
		members := groups[l]
		if len(members) < minClusterSize {
			continue
		}
		clusterID := idx.clusterIDFor(members, used)
		used[clusterID] = true
		ids := make([]string, 0, len(members))
		for _, rec := range members {
			ids = append(ids, rec.ID)
			if rec.ClusterID != clusterID {
				rec.ClusterID = clusterID
				dirty = append(dirty, rec)
			}
		}
		sort.Strings(ids)
		out[clusterID] = ids
	}

	if len(dirty) > 0 {
		entries := make([]kv.Entry, 0, len(dirty))
		for _, rec := range dirty {
			data, err := msgpack.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("vecindex: encode record: %w", err)
			}
			entries = append(entries, kv.Entry{Key: recordKey(rec.Seq), Value: data})
		}
		if err := idx.store.BatchSet(ctx, entries); err != nil {
			return nil, fmt.Errorf("vecindex: persist cluster assignment: %w", err)
		}
	}
	return out, nil
}

// clusterIDFor picks the cluster id for a group: the most common
// existing id among members when one exists (keeps ids stable across
// re-clustering runs), otherwise a freshly allocated one. Ids already
// claimed by another group this run are skipped, so a cluster that
// splits into two groups cannot hand the same id to both.
func (idx *KV) clusterIDFor(members []*Record, used map[string]bool) string {
	counts := make(map[string]int)
	for _, rec := range members {
		if rec.ClusterID != "" && !used[rec.ClusterID] {
			counts[rec.ClusterID]++
		}
	}
	best, bestN := "", 0
	for id, n := range counts {
		if n > bestN || (n == bestN && id < best) {
			best, bestN = id, n
		}
	}
	if best != "" {
		return best
	}
	idx.nextCluster++
	return fmt.Sprintf("cluster_%03d", idx.nextCluster)
}

func (idx *KV) AssignSpeakerLabel(ctx context.Context, recordID, label string) error {
	if label == "" {
		return fmt.Errorf("vecindex: empty label for record %s", recordID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}

	rec, ok := idx.byID[recordID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	rec.Label = label
	// Label supersedes cluster membership from now on.
	rec.ClusterID = ""

	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("vecindex: encode record: %w", err)
	}
	if err := idx.store.Set(ctx, recordKey(rec.Seq), data); err != nil {
		return fmt.Errorf("vecindex: persist label: %w", err)
	}
	return nil
}

func (idx *KV) PruneOldEmbeddings(ctx context.Context, maxAge time.Duration, minConfidence float64) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return 0, ErrClosed
	}

	cutoff := idx.now().Add(-maxAge)
	var keep []*Record
	var removeKeys []string
	for _, rec := range idx.records {
		// Both conditions must hold: old age alone or low confidence
		// alone never removes evidence.
		if rec.CreatedAt.Before(cutoff) && rec.Confidence < minConfidence {
			removeKeys = append(removeKeys, recordKey(rec.Seq))
			continue
		}
		keep = append(keep, rec)
	}
	if len(removeKeys) == 0 {
		return 0, nil
	}

	if err := idx.store.BatchDelete(ctx, removeKeys); err != nil {
		return 0, fmt.Errorf("vecindex: prune: %w", err)
	}
	idx.records = keep
	idx.byID = make(map[string]*Record, len(keep))
	for _, rec := range keep {
		idx.byID[rec.ID] = rec
	}
	return len(removeKeys), nil
}

func (idx *KV) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

func (idx *KV) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	idx.closed = true
	return idx.store.Close()
}

var _ Index = (*KV)(nil)
