// Package formatting parses model output into JSON and reads human-written
// byte sizes from configuration.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly or after sanitization.
var ErrParseFailed = errors.New("failed to parse response")

var (
	jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")
	sourceRefRegex = regexp.MustCompile(`【[^】]*】`)
)

// Sanitize reduces model output to the JSON object it carries.
// The content of the first markdown code fence is preferred when present,
// bracketed source references such as 【4:2†source】 are removed, and the
// result is cut to the span between the first '{' and the last '}'.
// Content without braces is returned trimmed but otherwise unchanged.
func Sanitize(content string) string {
	text := strings.TrimSpace(content)

	if m := jsonBlockRegex.FindStringSubmatch(text); len(m) >= 2 {
		text = strings.TrimSpace(m[1])
	}

	text = sourceRefRegex.ReplaceAllString(text, "")

	if i := strings.Index(text, "{"); i >= 0 {
		text = text[i:]
	}
	if i := strings.LastIndex(text, "}"); i >= 0 {
		text = text[:i+1]
	}

	return strings.TrimSpace(text)
}

// Parse attempts to unmarshal content as JSON into T.
// If direct parsing fails, the content is sanitized and parsing is retried.
// Returns ErrParseFailed if both attempts fail.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	var retry T
	if err := json.Unmarshal([]byte(Sanitize(content)), &retry); err == nil {
		return retry, nil
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
