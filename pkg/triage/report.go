package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/askthegame/voicekit/pkg/artifact"
)

// maxSampleDropped caps how many dropped segments the report quotes.
const maxSampleDropped = 5

// SaveResults persists the triaged segment lists as JSON plus a
// human-readable report to the given artifact store. Files are named
// {prefix}_segments_{bucket}.json and {prefix}_filter_report.txt where
// prefix is "{episodeID}_{timestamp}" (or just the timestamp when
// episodeID is empty).
//
// Returns the prefix used, so callers can locate the artifacts.
func SaveResults(ctx context.Context, store artifact.Store, episodeID string,
	passed, flagged, dropped []Result, stats *RunStats) (string, error) {

	prefix := time.Now().UTC().Format("20060102_150405")
	if episodeID != "" {
		prefix = episodeID + "_" + prefix
	}

	buckets := []struct {
		name    string
		results []Result
	}{
		{"passed", passed},
		{"flagged", flagged},
		{"dropped", dropped},
	}
	for _, b := range buckets {
		data, err := json.MarshalIndent(b.results, "", "  ")
		if err != nil {
			return "", fmt.Errorf("triage: marshal %s segments: %w", b.name, err)
		}
		path := fmt.Sprintf("%s_segments_%s.json", prefix, b.name)
		if err := artifact.WriteFile(ctx, store, path, data); err != nil {
			return "", err
		}
	}

	report := RenderReport(stats, dropped)
	path := prefix + "_filter_report.txt"
	if err := artifact.WriteFile(ctx, store, path, report); err != nil {
		return "", err
	}
	return prefix, nil
}

// RenderReport formats a human-readable run report: counts, percentages,
// confidence distribution, reason breakdowns, sample dropped segments,
// and tuning hints.
func RenderReport(stats *RunStats, dropped []Result) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Confidence Filtering Report - %s\n", time.Now().UTC().Format("2006-01-02 15:04:05"))
	buf.WriteString("============================================================\n")
	fmt.Fprintf(&buf, "Processing Duration: %.1fs\n", stats.WallClock.Seconds())
	fmt.Fprintf(&buf, "Total Segments: %d\n", stats.Total)
	if stats.FailedOpen {
		buf.WriteString("WARNING: fail-open applied, some or all segments passed unfiltered\n")
	}
	buf.WriteString("\n")

	buf.WriteString("RESULTS:\n")
	if stats.Total > 0 {
		pct := func(n int) float64 { return 100 * float64(n) / float64(stats.Total) }
		fmt.Fprintf(&buf, "- Passed: %d (%.1f%%)\n", stats.Passed, pct(stats.Passed))
		fmt.Fprintf(&buf, "- Flagged: %d (%.1f%%)\n", stats.Flagged, pct(stats.Flagged))
		fmt.Fprintf(&buf, "- Dropped: %d (%.1f%%)\n", stats.Dropped, pct(stats.Dropped))
	}
	buf.WriteString("\n")

	if dist, ok := stats.ConfidenceDistribution(); ok {
		buf.WriteString("CONFIDENCE STATISTICS:\n")
		fmt.Fprintf(&buf, "- Mean: %.3f\n", dist.Mean)
		fmt.Fprintf(&buf, "- Median: %.3f\n", dist.Median)
		fmt.Fprintf(&buf, "- 25th percentile: %.3f\n", dist.P25)
		fmt.Fprintf(&buf, "- 75th percentile: %.3f\n", dist.P75)
		buf.WriteString("\n")
	}

	cfg := stats.Thresholds
	buf.WriteString("THRESHOLDS USED:\n")
	fmt.Fprintf(&buf, "- High: %g\n", cfg.HighThreshold)
	fmt.Fprintf(&buf, "- Low: %g\n", cfg.LowThreshold)
	fmt.Fprintf(&buf, "- Min words: %d\n", cfg.MinWords)
	fmt.Fprintf(&buf, "- Min words (high conf): %d\n", cfg.MinWordsHighConfidence)
	fmt.Fprintf(&buf, "- Short segment threshold: %g\n", cfg.ShortSegmentConfidenceThreshold)
	fmt.Fprintf(&buf, "- Max duration: %gs\n", cfg.MaxDuration)
	fmt.Fprintf(&buf, "- Method: %s\n\n", cfg.Method)

	writeReasons(&buf, "FLAGGED REASONS:", stats.FlaggedReasons)
	writeReasons(&buf, "DROPPED REASONS:", stats.DroppedReasons)

	if len(dropped) > 0 {
		buf.WriteString("SAMPLE DROPPED SEGMENTS:\n")
		n := len(dropped)
		if n > maxSampleDropped {
			n = maxSampleDropped
		}
		for _, res := range dropped[:n] {
			mins := int(res.Segment.Start) / 60
			secs := int(res.Segment.Start) % 60
			text := truncate(res.Segment.Text, 50)
			conf := 0.0
			if res.Confidence != nil {
				conf = *res.Confidence
			}
			fmt.Fprintf(&buf, "- [%02d:%02d] %q... (conf: %.2f)\n", mins, secs, text, conf)
		}
		buf.WriteString("\n")
	}

	buf.WriteString("TUNING HINTS:\n")
	if stats.Total > 0 && float64(stats.Dropped)/float64(stats.Total) > 0.15 {
		buf.WriteString("- Consider lowering thresholds if >15% dropped\n")
	}
	buf.WriteString("- Review flagged segments for pattern analysis\n")

	return buf.Bytes()
}

// truncate caps text at n bytes, backing off to a rune boundary so a
// multi-byte sequence is never split.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

func writeReasons(buf *bytes.Buffer, header string, reasons map[Reason]int) {
	if len(reasons) == 0 {
		return
	}
	type rc struct {
		reason Reason
		count  int
	}
	sorted := make([]rc, 0, len(reasons))
	for r, n := range reasons {
		sorted = append(sorted, rc{r, n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].reason < sorted[j].reason
	})
	buf.WriteString(header + "\n")
	for _, e := range sorted {
		fmt.Fprintf(buf, "- %s: %d\n", e.reason, e.count)
	}
	buf.WriteString("\n")
}
