package triage

import (
	"context"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/askthegame/voicekit/pkg/artifact"
	"github.com/askthegame/voicekit/pkg/transcript"
)

func TestSaveResults(t *testing.T) {
	store, err := artifact.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	f := mustFilter(t, DefaultConfig())
	segments := []transcript.Segment{
		seg(0, 5, 0.9, 0.9, 0.9),
		seg(5, 10, 0.2, 0.2, 0.2),
	}
	segments[1].Text = "mumbled aside nobody could hear"
	passed, flagged, dropped, stats := f.FilterSegments(context.Background(), segments)

	prefix, err := SaveResults(context.Background(), store, "ep042", passed, flagged, dropped, stats)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(prefix, "ep042_") {
		t.Errorf("prefix = %q, want ep042_ prefix", prefix)
	}

	for _, name := range []string{
		prefix + "_segments_passed.json",
		prefix + "_segments_flagged.json",
		prefix + "_segments_dropped.json",
		prefix + "_filter_report.txt",
	} {
		ok, err := store.Exists(context.Background(), name)
		if err != nil || !ok {
			t.Errorf("artifact %s missing (err=%v)", name, err)
		}
	}

	rc, err := store.Read(context.Background(), prefix+"_filter_report.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	report, _ := io.ReadAll(rc)

	for _, want := range []string{
		"Total Segments: 2",
		"RESULTS:",
		"- Passed: 1 (50.0%)",
		"THRESHOLDS USED:",
		"DROPPED REASONS:",
		"low_confidence: 1",
		"SAMPLE DROPPED SEGMENTS:",
		"mumbled aside",
		"TUNING HINTS:",
	} {
		if !strings.Contains(string(report), want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestRenderReportHighDropRateHint(t *testing.T) {
	s := newRunStats(DefaultConfig(), 10)
	for i := 0; i < 8; i++ {
		s.observe(Dropped, ReasonLowConfidence, fp(0.1))
	}
	for i := 0; i < 2; i++ {
		s.observe(Passed, ReasonHighConfidence, fp(0.9))
	}
	report := string(RenderReport(s, nil))
	if !strings.Contains(report, "Consider lowering thresholds") {
		t.Errorf("expected drop-rate tuning hint:\n%s", report)
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	// 3-byte runes so a 50-byte cap falls mid-rune: the cut must back
	// off to a boundary, never emitting a partial sequence.
	long := strings.Repeat("あ", 20) // 60 bytes
	got := truncate(long, 50)
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if len(got) != 48 {
		t.Errorf("truncate length = %d bytes, want 48", len(got))
	}

	if got := truncate("short", 50); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
}

func TestRenderReportSampleDroppedSegments(t *testing.T) {
	s := newRunStats(DefaultConfig(), 1)
	s.observe(Dropped, ReasonLowConfidence, fp(0.1))
	dropped := []Result{{
		Segment:    transcript.Segment{Start: 65, End: 70, Text: strings.Repeat("あ", 20)},
		Decision:   Dropped,
		Reason:     ReasonLowConfidence,
		Confidence: fp(0.1),
	}}

	report := RenderReport(s, dropped)
	if !utf8.Valid(report) {
		t.Errorf("report contains invalid UTF-8:\n%s", report)
	}
	if !strings.Contains(string(report), "[01:05]") {
		t.Errorf("expected sample timestamp in report:\n%s", report)
	}
}
