package provider

import (
	"context"
	"fmt"
)

// Generator is the contract the generation pipeline needs from a
// text-to-image provider: a prompt in, raw image bytes out.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Error is a typed failure from the provider carrying the upstream HTTP
// status and whatever detail the provider returned in its body.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Detail)
}
