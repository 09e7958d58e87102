package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderSections(t *testing.T) {
	s := NewStyles(DefaultTheme)
	out := s.RenderSections([]Section{
		{Title: "Index", Rows: []Row{
			{Label: "Embeddings", Value: "42"},
			{Label: "Speakers", Value: "3"},
		}},
	})
	for _, want := range []string{"Index", "Embeddings", "42", "Speakers", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(map[string]int{"total": 7}, FormatJSON, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"total": 7`) {
		t.Errorf("json output = %q", buf.String())
	}
}

func TestOutputYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(map[string]int{"total": 7}, FormatYAML, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "total: 7") {
		t.Errorf("yaml output = %q", buf.String())
	}
}

func TestOutputRejectsText(t *testing.T) {
	if err := Output(nil, FormatText, &bytes.Buffer{}); err == nil {
		t.Error("expected error for text format")
	}
}
