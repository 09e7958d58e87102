// Package identity resolves anonymous per-episode speaker labels to
// persistent cross-episode identities.
//
// For each local speaker found in an episode, the [Resolver] builds a
// composite voice embedding from a bounded sample of that speaker's
// utterances, searches the embedding index for the nearest known voice,
// and applies a fixed decision precedence: known label > recurring
// cluster > fresh unknown tag. Every resolution writes a new record
// back to the index so future episodes can match against it.
//
// When the index or the embedding model is unavailable, resolution
// degrades to a pure utterance-count heuristic; the [Resolution.Method]
// tag makes the degraded path distinguishable from an index-backed one.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/askthegame/voicekit/pkg/transcript"
)

// ErrIndexUnavailable wraps index failures that triggered the heuristic
// fallback.
var ErrIndexUnavailable = errors.New("identity: embedding index unavailable")

// Span references an audio range within an episode for embedding
// extraction.
type Span struct {
	EpisodeID string
	Start     float64
	End       float64
}

// Embedder is the acoustic-model capability that turns an audio span
// into a fixed-length voice embedding. Supplied by the external
// embedding collaborator; implementations must be safe for concurrent
// use.
type Embedder interface {
	Extract(ctx context.Context, span Span) ([]float32, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, span Span) ([]float32, error)

// Extract implements Embedder.
func (f EmbedderFunc) Extract(ctx context.Context, span Span) ([]float32, error) {
	return f(ctx, span)
}

// Method tags how a resolution was produced.
type Method string

const (
	// MethodIndex means identities were resolved against the embedding
	// index.
	MethodIndex Method = "index"

	// MethodHeuristic means the index or embedder was unavailable and
	// identities were assigned by the utterance-count heuristic.
	MethodHeuristic Method = "heuristic"
)

// Resolution is the outcome of resolving one episode.
type Resolution struct {
	EpisodeID string `json:"episode_id"`

	// Mapping maps local speaker id to resolved identity: a known
	// label, a cluster id, or a synthetic Unknown_/Guest_ tag.
	Mapping map[int]string `json:"mapping"`

	// Method records whether the index or the heuristic produced the
	// mapping.
	Method Method `json:"method"`
}

// GuestTag returns the synthetic identity for a local speaker that
// could not be resolved (no embedding, per-speaker failure, heuristic
// non-primary).
func GuestTag(speaker int) string {
	return fmt.Sprintf("Guest_%d", speaker)
}

// UnknownTag returns the synthetic identity for a first-time voice with
// no index match.
func UnknownTag(speaker int) string {
	return fmt.Sprintf("Unknown_%d", speaker)
}

// IdentifiedUtterance is an utterance decorated with its resolved
// speaker identity.
type IdentifiedUtterance struct {
	transcript.Utterance

	Identity string `json:"identified_speaker"`
}

// ApplyMapping decorates utterances with the resolved identity of their
// local speaker. Speakers missing from the mapping get a Guest_ tag.
// The input utterances are not mutated.
func ApplyMapping(utterances []transcript.Utterance, res *Resolution) []IdentifiedUtterance {
	out := make([]IdentifiedUtterance, len(utterances))
	for i, u := range utterances {
		identity, ok := res.Mapping[u.Speaker]
		if !ok {
			identity = GuestTag(u.Speaker)
		}
		out[i] = IdentifiedUtterance{Utterance: u, Identity: identity}
	}
	return out
}

// SpeakerStatistics counts utterances per resolved identity.
func SpeakerStatistics(identified []IdentifiedUtterance) map[string]int {
	stats := make(map[string]int)
	for _, u := range identified {
		stats[u.Identity]++
	}
	return stats
}

// primarySpeaker returns the local speaker id with the most utterances;
// ties break toward the lowest id. ok is false for an empty map.
func primarySpeaker(groups map[int][]transcript.Utterance) (int, bool) {
	if len(groups) == 0 {
		return 0, false
	}
	ids := sortedSpeakers(groups)
	best := ids[0]
	for _, id := range ids[1:] {
		if len(groups[id]) > len(groups[best]) {
			best = id
		}
	}
	return best, true
}

// sortedSpeakers returns the local speaker ids in ascending order, for
// deterministic iteration.
func sortedSpeakers(groups map[int][]transcript.Utterance) []int {
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
