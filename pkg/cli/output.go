package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat selects how structured results are printed.
type OutputFormat string

const (
	// FormatText renders styled human-readable output (default).
	FormatText OutputFormat = "text"
	// FormatJSON outputs as JSON.
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs as YAML.
	FormatYAML OutputFormat = "yaml"
)

// Output marshals result in the given format and writes it to w
// (stdout when nil). FormatText is the caller's job; Output rejects it.
func Output(result any, format OutputFormat, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
