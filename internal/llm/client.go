package llm

import (
	"context"
	"time"

	"github.com/joseph-ayodele/docparser/internal/common"
)

// InferenceClient is the text-completion capability used by every pipeline stage.
// Invoke blocks until the provider answers, fails, or ctx is done.
type InferenceClient interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to InferenceClient.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

func (f ClientFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type timeoutClient struct {
	next    InferenceClient
	timeout time.Duration
}

// WithTimeout bounds every Invoke on next by d. d <= 0 returns next unchanged.
func WithTimeout(next InferenceClient, d time.Duration) InferenceClient {
	if d <= 0 {
		return next
	}
	return &timeoutClient{next: next, timeout: d}
}

func (c *timeoutClient) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := common.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.next.Invoke(ctx, prompt)
}
