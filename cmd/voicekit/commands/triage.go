package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/askthegame/voicekit/pkg/transcript"
	"github.com/askthegame/voicekit/pkg/triage"
)

var (
	triageEpisode string
	triageReport  bool
)

var triageCmd = &cobra.Command{
	Use:   "triage <segments.json>",
	Short: "Bucket transcript segments by confidence",
	Long: `Evaluate each segment of a transcript against the configured
confidence thresholds and bucket it as passed, flagged, or dropped.

The input is a JSON array of segments with word-level confidence:

  [{"speaker": 0, "start": 0.0, "end": 4.2, "text": "...",
    "words": [{"start": 0.0, "end": 0.4, "confidence": 0.93}, ...]}]

Three segment lists and a human-readable filter report are written to
the configured output store, keyed by episode id.

Examples:
  voicekit triage ep001_segments.json --episode ep001
  voicekit triage ep001_segments.json --episode ep001 --report`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read segments: %w", err)
		}
		var segments []transcript.Segment
		if err := json.Unmarshal(data, &segments); err != nil {
			return fmt.Errorf("parse segments: %w", err)
		}

		filter, err := triage.NewFilter(cfg.Triage, slog.Default())
		if err != nil {
			return err
		}
		passed, flagged, dropped, stats := filter.FilterSegments(ctx, segments)

		store, err := openArtifacts(cfg)
		if err != nil {
			return err
		}
		prefix, err := triage.SaveResults(ctx, store, triageEpisode, passed, flagged, dropped, stats)
		if err != nil {
			return fmt.Errorf("save results: %w", err)
		}

		fmt.Printf("Triaged %d segments: %d passed, %d flagged, %d dropped.\n",
			stats.Total, stats.Passed, stats.Flagged, stats.Dropped)
		fmt.Printf("Artifacts written under %s\n", prefix)
		if triageReport {
			os.Stdout.Write(triage.RenderReport(stats, dropped))
		}
		return nil
	},
}

func init() {
	triageCmd.Flags().StringVar(&triageEpisode, "episode", "episode", "episode id used to key output artifacts")
	triageCmd.Flags().BoolVar(&triageReport, "report", false, "print the filter report to stdout")

	rootCmd.AddCommand(triageCmd)
}
