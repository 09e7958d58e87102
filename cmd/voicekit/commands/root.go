package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/askthegame/voicekit/cmd/voicekit/internal/config"
	"github.com/askthegame/voicekit/pkg/artifact"
	"github.com/askthegame/voicekit/pkg/kv"
	"github.com/askthegame/voicekit/pkg/vecindex"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "voicekit",
	Short: "Transcript triage and speaker identity tooling",
	Long: `voicekit - confidence-based transcript triage and cross-episode
speaker identity resolution over a persistent voice-embedding index.

Commands:
  triage    Bucket transcript segments into passed/flagged/dropped
  resolve   Map an episode's local speakers to persistent identities
  clusters  Group unlabeled voice embeddings into recurring speakers
  label     Assign a human-verified name to an embedding record
  identify  Identify a speaker via the remote platform
  enroll    Enroll a speaker voiceprint on the remote platform
  prune     Remove old low-confidence embeddings from the index
  stats     Show index statistics
  config    Manage configuration

Configuration is read from ~/.voicekit/config.yaml (override with
--config). Run 'voicekit config init' to write the defaults.

Examples:
  voicekit triage ep001_segments.json
  voicekit resolve ep001_utterances.json --episode ep001
  voicekit clusters --min-size 3
  voicekit label 7f3c... "Alex Hormozi"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.voicekit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(configPath)
	if err != nil {
		// Deferred: commands that need config get a clear error via
		// GetConfig(), and 'voicekit version' keeps working.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// openIndex opens the persistent embedding index configured in cfg.
// The caller must Close it.
func openIndex(cfg *config.Config) (*vecindex.KV, error) {
	dir, err := config.ExpandPath(cfg.IndexDir)
	if err != nil {
		return nil, err
	}
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("open index at %s: %w", dir, err)
	}
	idx, err := vecindex.NewKV(store, vecindex.Config{
		Dim:                    cfg.Dim,
		ClusterSimilarityFloor: cfg.Index.ClusterSimilarityFloor,
		BoostWeight:            cfg.Index.BoostWeight,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return idx, nil
}

// openArtifacts builds the artifact store for triage outputs. An
// output_dir of the form s3://bucket/prefix selects S3; anything else
// is a local directory.
func openArtifacts(cfg *config.Config) (artifact.Store, error) {
	if strings.HasPrefix(cfg.OutputDir, "s3://") {
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(cfg.OutputDir, "s3://"), "/")
		if bucket == "" {
			return nil, fmt.Errorf("invalid s3 output_dir %q: want s3://bucket[/prefix]", cfg.OutputDir)
		}
		client := s3.New(s3.Options{
			Region: cfg.S3.Region,
			Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     cfg.S3.AccessKeyID,
					SecretAccessKey: cfg.S3.SecretAccessKey,
				}, nil
			}),
			BaseEndpoint: endpointOrNil(cfg.S3.Endpoint),
		})
		return artifact.NewS3(client, bucket, prefix), nil
	}
	dir, err := config.ExpandPath(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	return artifact.NewDir(dir)
}

func endpointOrNil(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return &endpoint
}
