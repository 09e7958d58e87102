// Package triage classifies transcription segments into quality tiers
// using a configurable confidence policy.
//
// Each segment is evaluated independently against an ordered rule list
// (empty-segment drop, short-segment override, duration cap, confidence
// thresholds) and routed into one of three buckets: passed, flagged, or
// dropped, each with a fixed reason code.
//
// The batch contract is fail-open: an unexpected batch-level failure
// returns all input segments as passed rather than discarding data. This
// is a deliberate availability-over-strictness trade-off; the event is
// logged so operators can observe it.
package triage

import (
	"context"
	"log/slog"
	"time"

	"github.com/askthegame/voicekit/pkg/transcript"
)

// Decision is the triage outcome for a segment.
type Decision string

const (
	Passed  Decision = "passed"
	Flagged Decision = "flagged"
	Dropped Decision = "dropped"
)

// Reason is a fixed reason code attached to every triage decision.
type Reason string

const (
	ReasonEmptySegment      Reason = "empty_segment"
	ReasonTooFewWords       Reason = "too_few_words"
	ReasonExcessiveDuration Reason = "excessive_duration"
	ReasonNoConfidenceData  Reason = "no_confidence_data"
	ReasonHighConfidence    Reason = "high_confidence"
	ReasonMediumConfidence  Reason = "medium_confidence"
	ReasonLowConfidence     Reason = "low_confidence"
	ReasonEvaluationError   Reason = "evaluation_error"
)

// Result is a decorated copy of a segment carrying its triage decision.
// The original segment is never mutated.
type Result struct {
	Segment transcript.Segment `json:"segment"`

	Decision Decision `json:"filter_decision"`
	Reason   Reason   `json:"filter_reason"`

	// Confidence is the aggregated confidence score, nil when no score
	// could be computed (empty segment, evaluation error).
	Confidence *float64 `json:"calculated_confidence"`

	// EvaluatedAt is the decision timestamp.
	EvaluatedAt time.Time `json:"filter_timestamp"`
}

// Filter evaluates segments against a validated configuration.
// It is safe for concurrent use; all state is per-call.
type Filter struct {
	cfg    Config
	logger *slog.Logger
}

// NewFilter creates a Filter. The configuration is validated here and
// construction fails on any violation; evaluation never re-checks it.
func NewFilter(cfg Config, logger *slog.Logger) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{cfg: cfg, logger: logger}, nil
}

// Config returns the configuration the filter was constructed with.
func (f *Filter) Config() Config { return f.cfg }

// Evaluate classifies a single segment. The decision is a pure function
// of (confidence, word count, duration) under the ordered rules; the
// returned confidence is nil when no score could be computed.
//
// A panic while evaluating is recovered and reported as
// Dropped/evaluation_error so one malformed segment cannot abort a batch.
func (f *Filter) Evaluate(seg transcript.Segment) (decision Decision, reason Reason, confidence *float64) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("triage: segment evaluation panicked", "panic", r,
				"start", seg.Start, "end", seg.End)
			decision, reason, confidence = Dropped, ReasonEvaluationError, nil
		}
	}()

	if len(seg.Words) == 0 {
		return Dropped, ReasonEmptySegment, nil
	}

	score, ok := Confidence(seg.Words, f.cfg.Method)
	wordCount := seg.WordCount()

	if wordCount < f.cfg.MinWords {
		// High-confidence short segments proceed to threshold evaluation.
		override := wordCount >= f.cfg.MinWordsHighConfidence &&
			ok && score >= f.cfg.ShortSegmentConfidenceThreshold
		if !override {
			return Flagged, ReasonTooFewWords, confPtr(score, ok)
		}
	}

	if seg.Duration() > f.cfg.MaxDuration {
		return Flagged, ReasonExcessiveDuration, confPtr(score, ok)
	}

	if !ok {
		return Dropped, ReasonNoConfidenceData, nil
	}

	switch {
	case score >= f.cfg.HighThreshold:
		return Passed, ReasonHighConfidence, &score
	case score >= f.cfg.LowThreshold:
		return Flagged, ReasonMediumConfidence, &score
	default:
		return Dropped, ReasonLowConfidence, &score
	}
}

// FilterSegments triages a batch of segments into passed, flagged, and
// dropped buckets. Per-segment failures degrade that segment to
// Dropped/evaluation_error; an unexpected batch-level failure degrades to
// fail-open (every input segment returned as passed) and is logged at
// error level. FilterSegments itself never returns an error.
//
// The returned RunStats are owned by this call; nothing is shared across
// runs. Evaluation is abortable between segments via ctx: on cancellation
// the remaining segments are returned as passed (fail-open) and the
// cancellation is recorded on the stats.
func (f *Filter) FilterSegments(ctx context.Context, segments []transcript.Segment) (passed, flagged, dropped []Result, stats *RunStats) {
	stats = newRunStats(f.cfg, len(segments))
	start := time.Now()
	defer func() {
		stats.WallClock = time.Since(start)
		if r := recover(); r != nil {
			// Fail-open: on an unexpected batch failure every input
			// segment is returned as passed. Logged so the degradation is
			// observable, never silent.
			f.logger.Error("triage: batch failed, failing open (all segments passed)", "panic", r)
			passed = failOpen(segments)
			flagged, dropped = nil, nil
			stats.FailedOpen = true
		}
	}()

	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			f.logger.Error("triage: batch cancelled, failing open for remaining segments",
				"evaluated", i, "remaining", len(segments)-i, "err", err)
			passed = append(passed, failOpen(segments[i:])...)
			stats.FailedOpen = true
			break
		}

		decision, reason, conf := f.Evaluate(seg)
		res := Result{
			Segment:     seg,
			Decision:    decision,
			Reason:      reason,
			Confidence:  conf,
			EvaluatedAt: time.Now().UTC(),
		}
		switch decision {
		case Passed:
			passed = append(passed, res)
		case Flagged:
			flagged = append(flagged, res)
		case Dropped:
			dropped = append(dropped, res)
		}
		stats.observe(decision, reason, conf)
	}

	f.logger.Info("triage: batch complete",
		"total", len(segments),
		"passed", len(passed), "flagged", len(flagged), "dropped", len(dropped))
	return passed, flagged, dropped, stats
}

// failOpen wraps raw segments as passed results with no reason code.
func failOpen(segments []transcript.Segment) []Result {
	now := time.Now().UTC()
	out := make([]Result, len(segments))
	for i, seg := range segments {
		out[i] = Result{Segment: seg, Decision: Passed, EvaluatedAt: now}
	}
	return out
}

func confPtr(score float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &score
}
