package triage

import (
	"sort"

	"github.com/askthegame/voicekit/pkg/transcript"
)

// minWordDuration floors per-word durations used as weights so that
// collapsed or out-of-order ASR timestamps cannot produce zero or
// negative weights.
const minWordDuration = 0.01

// Confidence aggregates a single confidence score for a word list under
// the given method. ok is false only when words is empty.
//
// Per-word confidences are clamped into [0, 1]; a word with no reported
// confidence contributes 0.0. An unrecognized method falls back to
// [MethodAverage]; this is a policy choice, not an error, since
// construction-time validation already rejects unknown methods and the
// path only matters for callers bypassing [Config.Validate].
func Confidence(words []transcript.Word, method Method) (score float64, ok bool) {
	if len(words) == 0 {
		return 0, false
	}

	confs := make([]float64, 0, len(words))
	durs := make([]float64, 0, len(words))
	for _, w := range words {
		c, _ := w.Conf()
		confs = append(confs, c)
		durs = append(durs, w.Duration(minWordDuration))
	}

	switch method {
	case MethodWeighted:
		if len(confs) != len(durs) {
			return mean(confs), true
		}
		var weighted, total float64
		for i, c := range confs {
			weighted += c * durs[i]
			total += durs[i]
		}
		if total <= 0 {
			return 0, true
		}
		return weighted / total, true

	case MethodMedian:
		return median(confs), true

	case MethodPercentile:
		sorted := make([]float64, len(confs))
		copy(sorted, confs)
		sort.Float64s(sorted)
		return sorted[int(0.25*float64(len(sorted)))], true

	case MethodAverage:
		return mean(confs), true

	default:
		return mean(confs), true
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// median returns the statistical median: the middle value for odd n, the
// mean of the two middle values for even n. The input is not modified.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
