// Package vecindex implements the persistent voice-embedding index used
// for cross-episode speaker identity resolution.
//
// The index stores one [Record] per observed speaker appearance: the
// embedding vector plus episode provenance (episode id, timestamp,
// duration, confidence) and identity state (human-assigned label or
// machine-assigned cluster id). It supports cosine similarity search
// with an optional temporal boost, DBSCAN clustering of recurring
// unlabeled voices, human label assignment, and age/confidence pruning.
//
// Identity precedence at query time is fixed: a label always wins over
// cluster membership, and assigning a label clears the record's cluster
// id. See [Index.AssignSpeakerLabel].
//
// The [KV] implementation keeps all records in memory for search and
// persists them through a [kv.Store] (BadgerDB in production, memory in
// tests). Writes are serialized; searches read a consistent snapshot and
// never observe a partially-written record.
package vecindex

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors.
var (
	// ErrDimensionMismatch is returned when a vector does not match the
	// configured index dimensionality.
	ErrDimensionMismatch = errors.New("vecindex: vector dimension mismatch")

	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("vecindex: record not found")

	// ErrClosed is returned by operations on a closed index.
	ErrClosed = errors.New("vecindex: index closed")
)

// Record is a stored voice embedding with provenance and identity state.
// Immutable once written except for Label and ClusterID, which later
// human or clustering assignment may set.
type Record struct {
	// ID is the unique record identifier (UUID).
	ID string `msgpack:"id" json:"id"`

	// Seq is a monotonic insertion sequence number, used for
	// most-recent-wins tie-breaking in search.
	Seq uint64 `msgpack:"seq" json:"seq"`

	// Vector is the voice embedding. Its length always equals the
	// configured index dimensionality.
	Vector []float32 `msgpack:"vector" json:"-"`

	// EpisodeID identifies the episode the embedding came from.
	EpisodeID string `msgpack:"episode_id" json:"episode_id"`

	// Timestamp is the representative position within the episode, in
	// seconds from episode start.
	Timestamp float64 `msgpack:"timestamp" json:"timestamp"`

	// Duration is the representative utterance duration in seconds.
	Duration float64 `msgpack:"duration" json:"duration"`

	// Confidence is the provenance confidence recorded at insert time.
	Confidence float64 `msgpack:"confidence" json:"confidence"`

	// Label is the persistent speaker identity, empty if unknown.
	// Set either at insert (resolver write-back of a resolved identity)
	// or later by human assignment.
	Label string `msgpack:"label,omitempty" json:"label,omitempty"`

	// ClusterID groups recurring-but-unlabeled voices. Empty when the
	// record is labeled or not yet clustered.
	ClusterID string `msgpack:"cluster_id,omitempty" json:"cluster_id,omitempty"`

	// Text is a short transcript snippet kept for operator review.
	Text string `msgpack:"text,omitempty" json:"text,omitempty"`

	// CreatedAt is the insertion wall-clock time.
	CreatedAt time.Time `msgpack:"created_at" json:"created_at"`
}

// Meta carries the provenance fields for a new record.
type Meta struct {
	EpisodeID  string
	Timestamp  float64
	Duration   float64
	Confidence float64

	// Label, when non-empty, marks the record as a known identity at
	// insert time.
	Label string

	// Text is an optional transcript snippet (truncated by the caller).
	Text string
}

// Match is a single similarity search result.
type Match struct {
	RecordID string `json:"record_id"`

	// Similarity is the cosine similarity to the query after any
	// temporal boost, in [-1, ~1+boost].
	Similarity float64 `json:"similarity"`

	Label     string `json:"label,omitempty"`
	ClusterID string `json:"cluster_id,omitempty"`
	EpisodeID string `json:"episode_id,omitempty"`
}

// SpeakerCount is a per-identity record count.
type SpeakerCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Stats summarizes index contents.
type Stats struct {
	TotalEmbeddings int            `json:"total_embeddings"`
	BySpeaker       []SpeakerCount `json:"by_speaker"`
}

// Index is the embedding index contract the identity resolver depends
// on. Implementations must be safe for concurrent use: writes are
// serialized, and a search never observes a partially-written record.
type Index interface {
	// AddEmbedding inserts a new record and returns its id.
	// The vector length must equal the index dimensionality.
	AddEmbedding(ctx context.Context, vector []float32, meta Meta) (string, error)

	// SearchSimilar returns up to topK records ranked by cosine
	// similarity to the query, descending, excluding matches below
	// minSimilarity. Ties break by insertion recency (most recent
	// first). When temporalBoost is set, ranking favors records whose
	// insertion time is closer to now; the boost is monotonically
	// decreasing in time distance and bounded, so it can reorder only
	// near-ties.
	SearchSimilar(ctx context.Context, vector []float32, topK int, minSimilarity float64, temporalBoost bool) ([]Match, error)

	// GetStatistics returns record counts, per identity label.
	GetStatistics(ctx context.Context) (Stats, error)

	// GetSpeakerClusters groups unlabeled records into clusters of
	// mutually similar voices with at least minClusterSize members,
	// persists the cluster assignment, and returns cluster id →
	// member record ids. Used to surface recurring guests for human
	// labeling.
	GetSpeakerClusters(ctx context.Context, minClusterSize int) (map[string][]string, error)

	// AssignSpeakerLabel sets a human-confirmed label on a record.
	// The record's cluster id is cleared: label takes precedence over
	// cluster membership in all future searches.
	AssignSpeakerLabel(ctx context.Context, recordID, label string) error

	// PruneOldEmbeddings removes records that are BOTH older than
	// maxAge AND below minConfidence, and returns the removed count.
	// Recent or high-confidence evidence is always retained.
	PruneOldEmbeddings(ctx context.Context, maxAge time.Duration, minConfidence float64) (int, error)

	// Close releases resources held by the index.
	Close() error
}
