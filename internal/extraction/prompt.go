package extraction

import (
	"context"
	"fmt"
	"strings"
)

// Overrides supplies operator-managed instruction overrides. ok is false
// when the category has no active override.
type Overrides interface {
	Instructions(ctx context.Context, category string) (text string, ok bool, err error)
}

// ComposePrompt joins the instructions for c (the active override when one
// exists, otherwise the default) with the immutable response specification.
// A nil overrides source uses the defaults.
func ComposePrompt(ctx context.Context, overrides Overrides, c Category) (string, error) {
	instructions := Instructions(c)

	if overrides != nil {
		text, ok, err := overrides.Instructions(ctx, string(c))
		if err != nil {
			return "", fmt.Errorf("load instruction override: %w", err)
		}
		if ok && strings.TrimSpace(text) != "" {
			instructions = text
		}
	}

	return instructions + "\n\n" + Spec(c), nil
}
