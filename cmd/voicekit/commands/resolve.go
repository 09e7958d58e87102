package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/askthegame/voicekit/pkg/artifact"
	"github.com/askthegame/voicekit/pkg/identity"
	"github.com/askthegame/voicekit/pkg/transcript"
)

var resolveEpisode string

// resolveUtterance is one entry of the resolve input file: an utterance
// plus the voice embedding extracted for it upstream.
type resolveUtterance struct {
	transcript.Utterance
	Embedding []float32 `json:"embedding,omitempty"`
}

// indexEmbeddings keys each entry's embedding by its full span so two
// utterances sharing a start time cannot claim each other's embedding.
// Entries with truly identical spans are rejected rather than silently
// overwritten.
func indexEmbeddings(entries []resolveUtterance, episodeID string) (map[identity.Span][]float32, error) {
	out := make(map[identity.Span][]float32, len(entries))
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			continue
		}
		span := identity.Span{EpisodeID: episodeID, Start: e.Start, End: e.End}
		if _, dup := out[span]; dup {
			return nil, fmt.Errorf("duplicate utterance span %.2f-%.2fs", e.Start, e.End)
		}
		out[span] = e.Embedding
	}
	return out, nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <utterances.json>",
	Short: "Map an episode's local speakers to persistent identities",
	Long: `Resolve the diarized speakers of one episode against the
voice-embedding index, producing a local-speaker → identity mapping.

The input is a JSON array of utterances; each may carry the voice
embedding extracted for it:

  [{"speaker": 0, "start": 0.0, "end": 4.2, "text": "...",
    "embedding": [0.12, -0.08, ...]}]

Utterances without embeddings fall back to the primary-speaker
heuristic. New voices are written back to the index so later episodes
can recognize them. The identified transcript is written to
{episode}_identified.json in the output store.

Examples:
  voicekit resolve ep001_utterances.json --episode ep001`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read utterances: %w", err)
		}
		var entries []resolveUtterance
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parse utterances: %w", err)
		}

		utterances := make([]transcript.Utterance, len(entries))
		for i, e := range entries {
			utterances[i] = e.Utterance
		}
		embeddings, err := indexEmbeddings(entries, resolveEpisode)
		if err != nil {
			return err
		}

		idx, err := openIndex(cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		embedder := identity.EmbedderFunc(func(_ context.Context, span identity.Span) ([]float32, error) {
			v, ok := embeddings[span]
			if !ok {
				return nil, fmt.Errorf("no embedding for utterance at %.2fs", span.Start)
			}
			return v, nil
		})

		resolver := identity.NewResolver(cfg.Identity, idx, embedder, slog.Default())
		res, err := resolver.Resolve(ctx, utterances, resolveEpisode)
		if err != nil {
			return err
		}

		identified := identity.ApplyMapping(utterances, res)
		store, err := openArtifacts(cfg)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(identified, "", "  ")
		if err != nil {
			return err
		}
		name := resolveEpisode + "_identified.json"
		if err := artifact.WriteFile(ctx, store, name, out); err != nil {
			return fmt.Errorf("save identified transcript: %w", err)
		}

		fmt.Printf("Resolved %d speakers (%s):\n", len(res.Mapping), res.Method)
		speakers := make([]int, 0, len(res.Mapping))
		for s := range res.Mapping {
			speakers = append(speakers, s)
		}
		sort.Ints(speakers)
		for _, s := range speakers {
			fmt.Printf("  speaker %d -> %s\n", s, res.Mapping[s])
		}
		fmt.Printf("Identified transcript written to %s\n", name)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveEpisode, "episode", "episode", "episode id")

	rootCmd.AddCommand(resolveCmd)
}
