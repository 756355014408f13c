// Package llmtest provides a scriptable InferenceClient for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"
)

// Stub answers by prompt prefix and records every prompt it sees.
// Prompts starting with "Identify" go to Classify, "Generate" to Summarize,
// "Answer" to Answer. A non-nil *Err field makes that task fail.
type Stub struct {
	Classify  string
	Summarize string
	Answer    string

	ClassifyErr  error
	SummarizeErr error
	AnswerErr    error

	// Before, if set, runs before every reply (for blocking or counting).
	Before func(ctx context.Context, prompt string) error

	mu      sync.Mutex
	prompts []string
}

func (s *Stub) Invoke(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.Before != nil {
		if err := s.Before(ctx, prompt); err != nil {
			return "", err
		}
	}
	switch {
	case strings.HasPrefix(prompt, "Identify"):
		return s.Classify, s.ClassifyErr
	case strings.HasPrefix(prompt, "Generate"):
		return s.Summarize, s.SummarizeErr
	default:
		return s.Answer, s.AnswerErr
	}
}

// Prompts returns a copy of every prompt received, in order.
func (s *Stub) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Calls is len(Prompts()).
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
