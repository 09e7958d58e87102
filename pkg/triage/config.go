package triage

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by [NewFilter] when the configuration is
// rejected. Configuration errors are fatal at construction; they are never
// degraded at evaluation time.
var ErrInvalidConfig = errors.New("triage: invalid config")

// Method selects how a segment confidence score is aggregated from its
// per-word scores.
type Method string

const (
	// MethodAverage is the arithmetic mean of per-word confidences.
	MethodAverage Method = "average"

	// MethodWeighted is the duration-weighted mean. Word durations are
	// floored at 10ms so collapsed timestamps cannot zero out a weight.
	MethodWeighted Method = "weighted"

	// MethodMedian is the statistical median of per-word confidences.
	MethodMedian Method = "median"

	// MethodPercentile is the 25th percentile (value at floor(0.25*n) of
	// the ascending-sorted scores). It favors the lower quartile to catch
	// segments with low-confidence outliers.
	MethodPercentile Method = "percentile"
)

// Config controls segment triage behavior.
type Config struct {
	// HighThreshold is the minimum aggregated confidence for a segment to
	// pass. Default: 0.85.
	HighThreshold float64 `yaml:"high_threshold"`

	// LowThreshold is the minimum aggregated confidence for a segment to
	// be flagged rather than dropped. Default: 0.75.
	LowThreshold float64 `yaml:"low_threshold"`

	// MinWords is the minimum word count below which a segment is flagged,
	// unless the short-segment override applies. Default: 3.
	MinWords int `yaml:"min_words"`

	// MinWordsHighConfidence is the minimum word count for the
	// short-segment override. Default: 2.
	MinWordsHighConfidence int `yaml:"min_words_high_confidence"`

	// ShortSegmentConfidenceThreshold is the minimum confidence for the
	// short-segment override. A segment with fewer than MinWords but at
	// least MinWordsHighConfidence words and confidence at or above this
	// value proceeds to threshold evaluation instead of being flagged.
	// Default: 0.9.
	ShortSegmentConfidenceThreshold float64 `yaml:"short_segment_confidence_threshold"`

	// MaxDuration is the segment duration in seconds above which a segment
	// is flagged. Default: 30.
	MaxDuration float64 `yaml:"max_duration"`

	// Method selects the confidence aggregation method. Default: average.
	Method Method `yaml:"confidence_method"`
}

// DefaultConfig returns the default triage configuration.
func DefaultConfig() Config {
	return Config{
		HighThreshold:                   0.85,
		LowThreshold:                    0.75,
		MinWords:                        3,
		MinWordsHighConfidence:          2,
		ShortSegmentConfidenceThreshold: 0.9,
		MaxDuration:                     30.0,
		Method:                          MethodAverage,
	}
}

// Validate checks configuration invariants. It returns an error wrapping
// [ErrInvalidConfig] on the first violation found.
func (c Config) Validate() error {
	if !(0 <= c.LowThreshold && c.LowThreshold <= c.HighThreshold && c.HighThreshold <= 1) {
		return fmt.Errorf("%w: thresholds must satisfy 0 <= low (%v) <= high (%v) <= 1",
			ErrInvalidConfig, c.LowThreshold, c.HighThreshold)
	}
	if c.MinWords < 1 {
		return fmt.Errorf("%w: min_words must be >= 1, got %d", ErrInvalidConfig, c.MinWords)
	}
	if c.MinWordsHighConfidence < 1 {
		return fmt.Errorf("%w: min_words_high_confidence must be >= 1, got %d",
			ErrInvalidConfig, c.MinWordsHighConfidence)
	}
	if c.ShortSegmentConfidenceThreshold < 0 || c.ShortSegmentConfidenceThreshold > 1 {
		return fmt.Errorf("%w: short_segment_confidence_threshold must be in [0, 1], got %v",
			ErrInvalidConfig, c.ShortSegmentConfidenceThreshold)
	}
	if c.MaxDuration <= 0 {
		return fmt.Errorf("%w: max_duration must be > 0, got %v", ErrInvalidConfig, c.MaxDuration)
	}
	switch c.Method {
	case MethodAverage, MethodWeighted, MethodMedian, MethodPercentile:
	default:
		return fmt.Errorf("%w: unknown confidence method %q", ErrInvalidConfig, c.Method)
	}
	return nil
}
