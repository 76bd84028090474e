package extraction

import (
	"encoding/json"
	"fmt"

	"github.com/nexliaai/corretor/pkg/formatting"
)

// Parsed is a validated extraction: the typed payload plus the normalized
// JSON object that is stored on the document.
type Parsed struct {
	Payload *Payload
	JSON    json.RawMessage
}

// Parse sanitizes provider text, validates it against the category schema,
// and decodes it. Every failure wraps ErrMalformedExtraction; callers keep
// the raw text for diagnostics only.
func Parse(c Category, text string) (*Parsed, error) {
	doc, err := formatting.Parse[map[string]any](text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedExtraction)
	}

	return ParseObject(c, doc)
}

// ParseObject validates and decodes an already structured payload, such as
// extracted_data delivered in a callback body.
func ParseObject(c Category, doc map[string]any) (*Parsed, error) {
	if err := Validate(c, doc); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}

	payload, err := Decode(c, raw)
	if err != nil {
		return nil, err
	}

	return &Parsed{Payload: payload, JSON: raw}, nil
}
