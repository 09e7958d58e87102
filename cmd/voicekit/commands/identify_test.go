package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/askthegame/voicekit/cmd/voicekit/internal/config"
	"github.com/askthegame/voicekit/pkg/speakerid"
)

func TestNewSpeakerPlatformRequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	if _, err := newSpeakerPlatform(cfg); err == nil {
		t.Error("expected error without api_key")
	}
}

func TestNewSpeakerPlatformAppliesConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identify":
			json.NewEncoder(w).Encode(map[string]any{
				"speaker_id_global": "Alex",
				"score":             0.93,
				"decision":          "match",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.SpeakerPlatform = config.SpeakerPlatformConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Aliases:    map[string]string{"Alex": "alex_hormozi"},
		AutoEnroll: true,
	}

	m, err := newSpeakerPlatform(cfg)
	if err != nil {
		t.Fatal(err)
	}
	result, err := m.IdentifyOrEnroll(context.Background(), "Speaker_0", "s3://b/a.wav")
	if err != nil {
		t.Fatal(err)
	}
	if result.Identity != "alex_hormozi" {
		t.Errorf("identity = %q, want configured alias alex_hormozi", result.Identity)
	}
	if result.Decision != speakerid.DecisionMatch {
		t.Errorf("decision = %s", result.Decision)
	}
}

func TestNewSpeakerPlatformAutoEnrollDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/enroll" {
			t.Error("enroll called with auto_enroll disabled")
		}
		json.NewEncoder(w).Encode(map[string]any{"decision": "unknown"})
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.SpeakerPlatform = config.SpeakerPlatformConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	}

	m, err := newSpeakerPlatform(cfg)
	if err != nil {
		t.Fatal(err)
	}
	result, err := m.IdentifyOrEnroll(context.Background(), "Speaker_1", "s3://b/a.wav")
	if err != nil {
		t.Fatal(err)
	}
	if result.Decision != speakerid.DecisionUnknown {
		t.Errorf("decision = %s, want unknown", result.Decision)
	}
}
