package assessment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dealrisk-backend/internal/reasoning"
)

// scriptedReasoner returns one queued result per call.
type scriptedReasoner struct {
	calls   int
	results []scriptedResult
}

type scriptedResult struct {
	resp string
	err  error
}

func (s *scriptedReasoner) Complete(ctx context.Context, req reasoning.Request) (string, error) {
	if s.calls >= len(s.results) {
		return "", fmt.Errorf("unexpected call %d", s.calls+1)
	}
	r := s.results[s.calls]
	s.calls++
	return r.resp, r.err
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	base := &scriptedReasoner{results: []scriptedResult{
		{err: errors.New("openai: http status 503")},
		{err: errors.New("openai: status 429 rate limit exceeded")},
		{resp: "ok"},
	}}
	client := newRetryingReasoner(base, 3, time.Millisecond, "sub-1", "req-1")

	resp, err := client.Complete(context.Background(), reasoning.Request{Template: "chunk_company"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("resp = %q, want ok", resp)
	}
	if base.calls != 3 {
		t.Fatalf("calls = %d, want 3", base.calls)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	base := &scriptedReasoner{results: []scriptedResult{
		{err: errors.New("connection reset by peer")},
		{err: errors.New("connection reset by peer")},
	}}
	client := newRetryingReasoner(base, 2, time.Millisecond, "sub-1", "req-1")

	_, err := client.Complete(context.Background(), reasoning.Request{Template: "round1_questions"})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if base.calls != 2 {
		t.Fatalf("calls = %d, want 2", base.calls)
	}
}

func TestRetrySkipsNonRetryableError(t *testing.T) {
	base := &scriptedReasoner{results: []scriptedResult{
		{err: fmt.Errorf("complete: %w", reasoning.ErrNotConfigured)},
	}}
	client := newRetryingReasoner(base, 5, time.Millisecond, "sub-1", "req-1")

	_, err := client.Complete(context.Background(), reasoning.Request{Template: "chunk_context"})
	if !errors.Is(err, reasoning.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
	if base.calls != 1 {
		t.Fatalf("calls = %d, want 1", base.calls)
	}
}

func TestShouldRetryReasoning(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{reasoning.ErrNotConfigured, false},
		{context.DeadlineExceeded, true},
		{errors.New("openai: http status 500"), true},
		{errors.New("openai: status 429"), true},
		{errors.New("rate limit reached"), true},
		{errors.New("connection refused"), true},
		{errors.New("unexpected eof"), true},
		{errors.New("openai: http status 400 invalid request"), false},
		{errors.New("parse company assessment: score 150 out of range"), false},
	}
	for _, tc := range cases {
		if got := shouldRetryReasoning(tc.err); got != tc.want {
			t.Errorf("shouldRetryReasoning(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestSanitizeErrorFlattensAndTruncates(t *testing.T) {
	if got := sanitizeError(errors.New("line one\nline two")); got != "line one line two" {
		t.Fatalf("got %q", got)
	}
	long := errors.New(string(make([]byte, 400)))
	if got := sanitizeError(long); len(got) != 303 {
		t.Fatalf("len = %d, want 303", len(got))
	}
}
