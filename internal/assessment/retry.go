package assessment

import (
	"context"
	"errors"
	"log"
	"net"
	"strings"
	"time"

	"dealrisk-backend/internal/reasoning"
	"dealrisk-backend/internal/shared/metrics"
)

type retryingReasoner struct {
	base         reasoning.Client
	maxAttempts  int
	backoff      time.Duration
	submissionID string
	requestID    string
}

// newRetryingReasoner wraps a reasoning client with bounded fixed-backoff
// retries for transient failures. Parse failures never reach this layer.
func newRetryingReasoner(base reasoning.Client, maxAttempts int, backoff time.Duration, submissionID, requestID string) reasoning.Client {
	if base == nil {
		return nil
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return retryingReasoner{
		base:         base,
		maxAttempts:  maxAttempts,
		backoff:      backoff,
		submissionID: submissionID,
		requestID:    requestID,
	}
}

func (r retryingReasoner) Complete(ctx context.Context, req reasoning.Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		resp, err := r.base.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !shouldRetryReasoning(err) || attempt == r.maxAttempts {
			return "", err
		}
		metrics.IncReasoningRetry()
		log.Printf("reasoning retry attempt=%d template=%s request_id=%s submission_id=%s error=%s",
			attempt, req.Template, r.requestID, r.submissionID, sanitizeError(err))
		select {
		case <-time.After(r.backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

func shouldRetryReasoning(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, reasoning.ErrNotConfigured) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "status 429") || strings.Contains(msg, "rate limit") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "reasoning") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}

// sanitizeError flattens an error message to a single log-safe line.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return msg
}
