// Package config loads the voicekit CLI configuration.
//
// Configuration lives in a single YAML file, by default
// ~/.voicekit/config.yaml:
//
//	index_dir: ~/.voicekit/index
//	output_dir: ./transcripts
//	dim: 256
//	triage:
//	  high_threshold: 0.85
//	  low_threshold: 0.75
//	identity:
//	  primary_label: "Alex Hormozi"
//	index:
//	  cluster_similarity_floor: 0.75
//	  boost_weight: 0.05
//	prune:
//	  max_age_days: 180
//	  min_confidence: 0.7
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/askthegame/voicekit/pkg/identity"
	"github.com/askthegame/voicekit/pkg/triage"
)

// IndexConfig holds the vector index tuning knobs.
type IndexConfig struct {
	// ClusterSimilarityFloor is the minimum cosine similarity for two
	// unlabeled embeddings to be cluster neighbors.
	ClusterSimilarityFloor float64 `yaml:"cluster_similarity_floor"`

	// BoostWeight bounds the recency boost applied during search.
	BoostWeight float64 `yaml:"boost_weight"`
}

// PruneConfig holds the index retention policy.
type PruneConfig struct {
	// MaxAgeDays is the age beyond which low-confidence embeddings are
	// eligible for removal.
	MaxAgeDays int `yaml:"max_age_days"`

	// MinConfidence is the confidence below which old embeddings are
	// eligible for removal.
	MinConfidence float64 `yaml:"min_confidence"`
}

// S3Config holds credentials for an S3-compatible object store used
// when output_dir is an s3:// URI. Endpoint is optional and selects a
// non-AWS store (MinIO, R2).
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// SpeakerPlatformConfig holds credentials and the alias table for the
// remote speaker identification platform. Optional; local index
// resolution works without it.
type SpeakerPlatformConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`

	// Aliases maps raw platform speaker ids to canonical identities;
	// the alias always wins over the platform's raw id.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// AutoEnroll controls whether unknown voices are enrolled under
	// their locally-known provisional label during identification.
	AutoEnroll bool `yaml:"auto_enroll"`
}

// Config is the full CLI configuration.
type Config struct {
	// IndexDir is the directory holding the embedding index database.
	IndexDir string `yaml:"index_dir"`

	// OutputDir is where triage artifacts (segment lists, reports) are
	// written. An s3:// URI selects the S3 artifact store instead.
	OutputDir string `yaml:"output_dir"`

	// Dim is the embedding dimensionality of the upstream voice model.
	Dim int `yaml:"dim"`

	Triage          triage.Config         `yaml:"triage"`
	Identity        identity.Config       `yaml:"identity"`
	Index           IndexConfig           `yaml:"index"`
	Prune           PruneConfig           `yaml:"prune"`
	S3              S3Config              `yaml:"s3,omitempty"`
	SpeakerPlatform SpeakerPlatformConfig `yaml:"speaker_platform,omitempty"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		IndexDir:        "~/.voicekit/index",
		OutputDir:       ".",
		Dim:             256,
		Triage:          triage.DefaultConfig(),
		Identity:        identity.Config{},
		Index:           IndexConfig{ClusterSimilarityFloor: 0.75, BoostWeight: 0.05},
		Prune:           PruneConfig{MaxAgeDays: 180, MinConfidence: 0.7},
		SpeakerPlatform: SpeakerPlatformConfig{AutoEnroll: true},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".voicekit", "config.yaml"), nil
}

// Load reads the config file at path. An empty path means the default
// location; a missing file yields [Default] without error.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// ExpandPath resolves a leading ~/ against the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
