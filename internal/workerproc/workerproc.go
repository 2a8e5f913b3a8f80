package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"dealrisk-backend/internal/assessment"
	"dealrisk-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingSubmissionID indicates a message missing the submission id.
type ErrMissingSubmissionID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingSubmissionID) Error() string { return "missing submission id" }

// ErrProcess indicates step execution failed after successful parsing.
type ErrProcess struct {
	SubmissionID string
	Step         string
	RequestID    string
	Err          error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process step"
	}
	return "process step: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.SubmissionID) == "" {
		return msg, meta, ErrMissingSubmissionID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage parses a queue payload and runs its workflow step. Steps that
// fire against an already-advanced submission report the mismatch but are not
// retried: the state check, not the queue, is the idempotency guard.
func HandleMessage(ctx context.Context, svc *assessment.Service, body string) error {
	if svc == nil {
		return errors.New("assessment service not configured")
	}

	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}

	ctxWithRequest := assessment.WithRequestID(ctx, msg.RequestID)
	if err := svc.RunStep(ctxWithRequest, msg.SubmissionID, msg.Step); err != nil {
		if errors.Is(err, assessment.ErrInvalidTransition) {
			return nil
		}
		return ErrProcess{SubmissionID: msg.SubmissionID, Step: msg.Step, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
