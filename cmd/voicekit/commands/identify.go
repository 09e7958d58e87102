package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/askthegame/voicekit/cmd/voicekit/internal/config"
	"github.com/askthegame/voicekit/pkg/speakerid"
)

var identifyLabel string

// newSpeakerClient builds the platform client from the speaker_platform
// config section.
func newSpeakerClient(cfg *config.Config) (*speakerid.Client, error) {
	sp := cfg.SpeakerPlatform
	if sp.APIKey == "" {
		return nil, fmt.Errorf("speaker platform not configured: set speaker_platform.api_key in config")
	}
	var opts []speakerid.Option
	if sp.BaseURL != "" {
		opts = append(opts, speakerid.WithBaseURL(sp.BaseURL))
	}
	return speakerid.NewClient(sp.APIKey, opts...), nil
}

// newSpeakerPlatform layers the configured alias table and enrollment
// policy over the platform client.
func newSpeakerPlatform(cfg *config.Config) (*speakerid.Memory, error) {
	client, err := newSpeakerClient(cfg)
	if err != nil {
		return nil, err
	}
	m := speakerid.NewMemory(client, cfg.SpeakerPlatform.Aliases, slog.Default())
	m.AutoEnroll = cfg.SpeakerPlatform.AutoEnroll
	return m, nil
}

var identifyCmd = &cobra.Command{
	Use:   "identify <wav-uri>",
	Short: "Identify a speaker via the remote platform",
	Long: `Identify the speaker in an audio snippet through the remote speaker
platform. A matched raw platform id is mapped through the configured
alias table; an unknown voice is auto-enrolled under the provisional
label when speaker_platform.auto_enroll is set.

Requires speaker_platform.api_key in the config file.

Examples:
  voicekit identify s3://bucket/ep001/spk0.wav
  voicekit identify s3://bucket/ep001/spk2.wav --label Speaker_2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		m, err := newSpeakerPlatform(cfg)
		if err != nil {
			return err
		}

		result, err := m.IdentifyOrEnroll(cmd.Context(), identifyLabel, args[0])
		if err != nil {
			return err
		}
		switch result.Decision {
		case speakerid.DecisionMatch:
			fmt.Printf("Matched %s (score %.2f).\n", result.Identity, result.Score)
		case speakerid.DecisionEnrolled:
			fmt.Printf("Unknown voice enrolled as %s.\n", result.Identity)
		default:
			fmt.Println("No match.")
		}
		return nil
	},
}

var enrollCmd = &cobra.Command{
	Use:   "enroll <name> <wav-uri>",
	Short: "Enroll a speaker voiceprint on the remote platform",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		client, err := newSpeakerClient(cfg)
		if err != nil {
			return err
		}

		id, err := client.Enroll(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Enrolled %q as %s.\n", args[0], id)
		return nil
	},
}

func init() {
	identifyCmd.Flags().StringVar(&identifyLabel, "label", "Speaker_0", "provisional local label used when auto-enrolling")

	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(enrollCmd)
}
