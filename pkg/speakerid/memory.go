package speakerid

import (
	"context"
	"log/slog"
)

// Memory layers the human-curated alias table and the auto-enrollment
// policy over the raw platform client.
//
// Aliases map platform speaker id variants (e.g. "alex", "Alex
// Hormozi") to a canonical id ("alex_hormozi"); precedence is fixed:
// the alias always wins over the platform's raw id.
type Memory struct {
	client  *Client
	aliases map[string]string

	// AutoEnroll controls whether unknown voices are enrolled under
	// their locally-known provisional label.
	AutoEnroll bool

	logger *slog.Logger
}

// NewMemory creates a Memory over the given client. aliases may be nil.
func NewMemory(client *Client, aliases map[string]string, logger *slog.Logger) *Memory {
	if aliases == nil {
		aliases = make(map[string]string)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{client: client, aliases: aliases, AutoEnroll: true, logger: logger}
}

// IdentifyOrEnroll identifies a speaker, applying the alias table to a
// match, and enrolls unknown voices under localLabel when auto-enroll
// is enabled (the result decision becomes [DecisionEnrolled]).
func (m *Memory) IdentifyOrEnroll(ctx context.Context, localLabel, wavURI string) (*IdentifyResult, error) {
	result, err := m.client.Identify(ctx, wavURI)
	if err != nil {
		return nil, err
	}

	if canonical, ok := m.aliases[result.Identity]; ok {
		result.Identity = canonical
	}

	if result.Decision == DecisionUnknown && m.AutoEnroll {
		enrolled, err := m.client.Enroll(ctx, localLabel, wavURI)
		if err != nil {
			return nil, err
		}
		m.logger.Info("speakerid: enrolled unknown speaker",
			"local_label", localLabel, "identity", enrolled)
		result.Identity = enrolled
		result.Decision = DecisionEnrolled
	}
	return result, nil
}
