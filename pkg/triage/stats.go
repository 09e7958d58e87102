package triage

import (
	"sort"
	"time"
)

// RunStats accumulates counters for a single FilterSegments invocation.
// A RunStats is owned exclusively by the run that produced it; merging is
// order-independent (sums and histograms only), so parallel evaluation can
// combine per-shard stats with Merge.
type RunStats struct {
	Total   int `json:"total_segments"`
	Passed  int `json:"passed"`
	Flagged int `json:"flagged"`
	Dropped int `json:"dropped"`

	FlaggedReasons map[Reason]int `json:"flagged_reasons"`
	DroppedReasons map[Reason]int `json:"dropped_reasons"`

	// Confidences collects every computed confidence score for
	// distribution reporting.
	Confidences []float64 `json:"confidence_scores"`

	// Thresholds is a snapshot of the configuration the run used.
	Thresholds Config `json:"thresholds"`

	// WallClock is the batch processing duration.
	WallClock time.Duration `json:"processing_duration"`

	// FailedOpen records that the fail-open policy was applied: the batch
	// failed or was cancelled and input segments were returned as passed.
	FailedOpen bool `json:"failed_open,omitempty"`
}

func newRunStats(cfg Config, total int) *RunStats {
	return &RunStats{
		Total:          total,
		FlaggedReasons: make(map[Reason]int),
		DroppedReasons: make(map[Reason]int),
		Thresholds:     cfg,
	}
}

func (s *RunStats) observe(decision Decision, reason Reason, conf *float64) {
	switch decision {
	case Passed:
		s.Passed++
	case Flagged:
		s.Flagged++
		s.FlaggedReasons[reason]++
	case Dropped:
		s.Dropped++
		s.DroppedReasons[reason]++
	}
	if conf != nil {
		s.Confidences = append(s.Confidences, *conf)
	}
}

// Merge folds other into s. Both commutative and associative, so shards
// evaluated in parallel can be combined in any order.
func (s *RunStats) Merge(other *RunStats) {
	s.Passed += other.Passed
	s.Flagged += other.Flagged
	s.Dropped += other.Dropped
	for r, n := range other.FlaggedReasons {
		s.FlaggedReasons[r] += n
	}
	for r, n := range other.DroppedReasons {
		s.DroppedReasons[r] += n
	}
	s.Confidences = append(s.Confidences, other.Confidences...)
	s.FailedOpen = s.FailedOpen || other.FailedOpen
}

// Distribution summarizes the confidence samples of a run.
type Distribution struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// ConfidenceDistribution computes mean/median/quartiles over the run's
// confidence samples. ok is false when the run produced no samples.
func (s *RunStats) ConfidenceDistribution() (Distribution, bool) {
	if len(s.Confidences) == 0 {
		return Distribution{}, false
	}
	sorted := make([]float64, len(s.Confidences))
	copy(sorted, s.Confidences)
	sort.Float64s(sorted)
	return Distribution{
		Mean:   mean(sorted),
		Median: median(sorted),
		P25:    quantile(sorted, 0.25),
		P75:    quantile(sorted, 0.75),
	}, true
}

// quantile returns the q-quantile of ascending-sorted vals using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
