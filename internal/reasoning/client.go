package reasoning

import (
	"context"
	"errors"
)

// Request carries a rendered prompt to the reasoning service. Template
// identifies which prompt produced the payload so providers and logs can
// distinguish call sites without inspecting the prompt text.
type Request struct {
	Template string
	Prompt   string
	// WantJSON asks the provider for a JSON-object response where supported.
	WantJSON bool
}

// Client abstracts the external reasoning service. Responses are free-form
// text; callers are responsible for strict parsing.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("reasoning service not configured")

// PlaceholderClient is a stub implementation used when no provider is wired.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotConfigured
}
