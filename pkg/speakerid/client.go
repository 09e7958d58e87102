// Package speakerid is a client for a remote speaker identification
// platform: identify a voice from an audio snippet, enroll new
// voiceprints, and apply a human-curated alias table over the
// platform's raw speaker ids.
//
// Every network call carries an explicit timeout and a capped
// exponential backoff retry policy. Rate limits (429), upstream
// failures (5xx), and transport errors are retried; authentication
// failures surface immediately as a typed [*Error].
package speakerid

import (
	"context"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default speaker platform API base URL.
	DefaultBaseURL = "https://api.pyannote.ai/speaker-platform"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default maximum number of retries.
	DefaultMaxRetries = 3
)

// Decision is the platform's identification verdict.
type Decision string

const (
	// DecisionMatch means the voice matched an enrolled speaker.
	DecisionMatch Decision = "match"

	// DecisionUnknown means the voice matched no enrolled speaker.
	DecisionUnknown Decision = "unknown"

	// DecisionEnrolled is produced client-side by
	// [Memory.IdentifyOrEnroll] when an unknown voice was auto-enrolled.
	DecisionEnrolled Decision = "enrolled"
)

// IdentifyResult is the outcome of an identification call.
type IdentifyResult struct {
	// Identity is the platform's global speaker id, after any alias
	// substitution.
	Identity string `json:"speaker_id_global"`

	// Score is the platform's match confidence.
	Score float64 `json:"score"`

	// Decision is the identification verdict.
	Decision Decision `json:"decision"`
}

// Client is the speaker platform API client.
type Client struct {
	http *httpClient
}

// clientConfig holds the client configuration.
type clientConfig struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
}

// Option is a function that configures the client.
type Option func(*clientConfig)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) { c.timeout = timeout }
}

// WithRetry sets the maximum number of retries for transient errors.
func WithRetry(maxRetries int) Option {
	return func(c *clientConfig) { c.maxRetries = maxRetries }
}

// NewClient creates a speaker platform client. The apiKey is the bearer
// token issued by the platform.
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	return &Client{http: newHTTPClient(cfg)}
}

// Identify identifies the speaker in an audio snippet.
func (c *Client) Identify(ctx context.Context, wavURI string) (*IdentifyResult, error) {
	req := struct {
		WavURI string `json:"wav_uri"`
	}{WavURI: wavURI}

	var result IdentifyResult
	if err := c.http.request(ctx, http.MethodPost, "/identify", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Enroll enrolls a new speaker voiceprint under the given name and
// returns the platform's global speaker id.
func (c *Client) Enroll(ctx context.Context, name, wavURI string) (string, error) {
	req := struct {
		Name   string `json:"name"`
		WavURI string `json:"wav_uri"`
	}{Name: name, WavURI: wavURI}

	var result struct {
		Identity string `json:"speaker_id_global"`
	}
	if err := c.http.request(ctx, http.MethodPost, "/enroll", req, &result); err != nil {
		return "", err
	}
	return result.Identity, nil
}
