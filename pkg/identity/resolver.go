package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/askthegame/voicekit/pkg/transcript"
	"github.com/askthegame/voicekit/pkg/vecindex"
)

// Config controls identity resolution.
type Config struct {
	// PrimaryLabel is the known primary speaker identity (the host in a
	// two-speaker format). When set and no resolved identity matches
	// it, the local speaker with the most utterances is reassigned to
	// it as a safety net.
	PrimaryLabel string `yaml:"primary_label"`

	// MaxSamples bounds how many utterances feed the composite
	// embedding per speaker. More samples trade latency for
	// robustness. Default: 3.
	MaxSamples int `yaml:"max_samples"`

	// TopK is how many index matches to retrieve. Default: 3.
	TopK int `yaml:"top_k"`

	// MinSimilarity is the similarity floor for index matches,
	// conceptually the same knob as the triage low threshold.
	// Default: 0.75.
	MinSimilarity float64 `yaml:"min_similarity"`

	// TemporalBoost enables recency-biased ranking in index search.
	TemporalBoost bool `yaml:"temporal_boost"`

	// InsertConfidence is the provenance confidence recorded on
	// write-back records. Default: 0.8.
	InsertConfidence float64 `yaml:"insert_confidence"`
}

func (c *Config) defaults() {
	if c.MaxSamples == 0 {
		c.MaxSamples = 3
	}
	if c.TopK == 0 {
		c.TopK = 3
	}
	if c.MinSimilarity == 0 {
		c.MinSimilarity = 0.75
	}
	if c.InsertConfidence == 0 {
		c.InsertConfidence = 0.8
	}
}

// textSnippetLen caps the transcript snippet stored on write-back
// records.
const textSnippetLen = 100

// Resolver maps local speaker ids to persistent identities using an
// embedding index.
//
// Resolve may be called concurrently for different episodes; index
// write serialization is the index's responsibility. At most one
// resolution pass per episode is the caller's contract.
type Resolver struct {
	cfg      Config
	index    vecindex.Index
	embedder Embedder
	logger   *slog.Logger
}

// NewResolver creates a Resolver. index and embedder may be nil, in
// which case every resolution uses the heuristic fallback.
func NewResolver(cfg Config, index vecindex.Index, embedder Embedder, logger *slog.Logger) *Resolver {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{cfg: cfg, index: index, embedder: embedder, logger: logger}
}

// Resolve maps every local speaker in the episode's utterances to an
// identity. It returns an error only on cancellation; index failures
// degrade to the heuristic fallback (tagged on the Resolution).
func (r *Resolver) Resolve(ctx context.Context, utterances []transcript.Utterance, episodeID string) (*Resolution, error) {
	groups := transcript.GroupBySpeaker(utterances)

	if r.index == nil || r.embedder == nil {
		r.logger.Warn("identity: index or embedder unavailable, using heuristic fallback",
			"episode", episodeID)
		return r.heuristic(groups, episodeID), nil
	}

	res := &Resolution{
		EpisodeID: episodeID,
		Mapping:   make(map[int]string, len(groups)),
		Method:    MethodIndex,
	}

	for _, speaker := range sortedSpeakers(groups) {
		// Abortable between speakers; each index insert is atomic, so
		// cancellation never leaves a partially-written record.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		identity, err := r.resolveSpeaker(ctx, speaker, groups[speaker], episodeID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Index unavailable mid-run: degrade the whole episode to
			// the heuristic so the output is internally consistent.
			r.logger.Warn("identity: index search failed, degrading to heuristic",
				"episode", episodeID, "speaker", speaker, "err", err)
			return r.heuristic(groups, episodeID), nil
		}
		res.Mapping[speaker] = identity
	}

	r.applyPrimaryFallback(res, groups)
	return res, nil
}

// resolveSpeaker resolves one local speaker: composite embedding, index
// search, decision, write-back.
func (r *Resolver) resolveSpeaker(ctx context.Context, speaker int, utts []transcript.Utterance, episodeID string) (string, error) {
	samples := utts
	if len(samples) > r.cfg.MaxSamples {
		samples = samples[:r.cfg.MaxSamples]
	}

	var vectors [][]float32
	for _, u := range samples {
		vec, err := r.embedder.Extract(ctx, Span{EpisodeID: episodeID, Start: u.Start, End: u.End})
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.logger.Warn("identity: embedding extraction failed, skipping utterance",
				"episode", episodeID, "speaker", speaker, "start", u.Start, "err", err)
			continue
		}
		vectors = append(vectors, vec)
	}
	if len(vectors) == 0 {
		// No embedding could be built; skip search and write-back.
		return GuestTag(speaker), nil
	}

	composite, ok := vecindex.MeanVector(vectors)
	if !ok {
		return GuestTag(speaker), nil
	}

	matches, err := r.index.SearchSimilar(ctx, composite, r.cfg.TopK, r.cfg.MinSimilarity, r.cfg.TemporalBoost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	identity := UnknownTag(speaker)
	if len(matches) > 0 {
		best := matches[0]
		switch {
		case best.Label != "":
			identity = best.Label
		case best.ClusterID != "":
			identity = best.ClusterID
		}
		r.logger.Info("identity: speaker matched",
			"episode", episodeID, "speaker", speaker,
			"identity", identity, "similarity", best.Similarity)
	}

	// Write back so future episodes can match this voice. Unknown tags
	// stay unlabeled; anything else (known label or cluster id) is
	// recorded as the identity.
	var start, dur float64
	for _, u := range samples {
		start += u.Start
		dur += u.Duration()
	}
	n := float64(len(samples))
	meta := vecindex.Meta{
		EpisodeID:  episodeID,
		Timestamp:  start / n,
		Duration:   dur / n,
		Confidence: r.cfg.InsertConfidence,
		Text:       snippet(utts[0].Text),
	}
	if !strings.HasPrefix(identity, "Unknown_") && !strings.HasPrefix(identity, "Guest_") {
		meta.Label = identity
	}
	if _, err := r.index.AddEmbedding(ctx, composite, meta); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return identity, nil
}

// applyPrimaryFallback reassigns the most-talkative local speaker to
// the primary identity when no speaker resolved to it. In a
// two-speaker format the dominant voice should never be left
// unidentified because of index misses.
func (r *Resolver) applyPrimaryFallback(res *Resolution, groups map[int][]transcript.Utterance) {
	if r.cfg.PrimaryLabel == "" || len(res.Mapping) == 0 {
		return
	}
	for _, identity := range res.Mapping {
		if identity == r.cfg.PrimaryLabel {
			return
		}
	}
	primary, ok := primarySpeaker(groups)
	if !ok {
		return
	}
	r.logger.Info("identity: primary not found in index, assigning to dominant speaker",
		"speaker", primary, "identity", r.cfg.PrimaryLabel)
	res.Mapping[primary] = r.cfg.PrimaryLabel
}

// heuristic assigns the primary identity to the speaker with the most
// utterances and Guest_ tags to the rest.
func (r *Resolver) heuristic(groups map[int][]transcript.Utterance, episodeID string) *Resolution {
	res := &Resolution{
		EpisodeID: episodeID,
		Mapping:   make(map[int]string, len(groups)),
		Method:    MethodHeuristic,
	}
	primary, ok := primarySpeaker(groups)
	if !ok {
		return res
	}
	for speaker := range groups {
		if speaker == primary && r.cfg.PrimaryLabel != "" {
			res.Mapping[speaker] = r.cfg.PrimaryLabel
		} else {
			res.Mapping[speaker] = GuestTag(speaker)
		}
	}
	return res
}

// snippet truncates text to at most textSnippetLen bytes, backing off
// to a rune boundary so a multi-byte sequence is never split.
func snippet(text string) string {
	if len(text) <= textSnippetLen {
		return text
	}
	cut := textSnippetLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
