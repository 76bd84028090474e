package formatting_test

import (
	"errors"
	"testing"

	"github.com/nexliaai/corretor/pkg/formatting"
)

type sample struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "fenced block with prose",
			input: "Segue o resultado:\n```json\n{\"a\":1}\n```\nQualquer dúvida, estou à disposição.",
			want:  `{"a":1}`,
		},
		{
			name:  "source references removed",
			input: `{"numero_apolice":"123【4:2†source】"}`,
			want:  `{"numero_apolice":"123"}`,
		},
		{
			name:  "leading and trailing prose",
			input: `Aqui está: {"a":{"b":2}} espero ter ajudado`,
			want:  `{"a":{"b":2}}`,
		},
		{
			name:  "no braces",
			input: "  sem json  ",
			want:  "sem json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatting.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  sample
	}{
		{"direct JSON", `{"name":"direct","value":42}`, sample{"direct", 42}},
		{"whitespace", `  {"name":"padded","value":1}  `, sample{"padded", 1}},
		{"fenced with language tag", "```json\n{\"name\":\"fenced\",\"value\":7}\n```", sample{"fenced", 7}},
		{"fenced without language tag", "```\n{\"name\":\"bare\",\"value\":3}\n```", sample{"bare", 3}},
		{"surrounding prose", "Result:\n```json\n{\"name\":\"wrapped\",\"value\":5}\n```\nDone.", sample{"wrapped", 5}},
		{"unfenced prose", `The data is {"name":"inline","value":9}.`, sample{"inline", 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.Parse[sample](tt.input)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFailures(t *testing.T) {
	inputs := map[string]string{
		"not json":        "not json at all",
		"empty":           "",
		"broken in fence": "```json\n{broken\n```",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := formatting.Parse[sample](input)
			if !errors.Is(err, formatting.ErrParseFailed) {
				t.Errorf("error = %v, want ErrParseFailed", err)
			}
		})
	}
}
