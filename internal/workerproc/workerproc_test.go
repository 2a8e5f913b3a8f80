package workerproc

import (
	"context"
	"errors"
	"testing"

	"dealrisk-backend/internal/assessment"
	"dealrisk-backend/internal/queue"
)

func TestParseMessage(t *testing.T) {
	body := `{"submissionId": "sub-1", "step": "initial_analysis", "requestId": "req-1", "version": 1}`
	msg, meta, err := ParseMessage(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.SubmissionID != "sub-1" || msg.Step != queue.StepInitialAnalysis {
		t.Fatalf("unexpected message %+v", msg)
	}
	if meta.BodyLen != len(body) || meta.BodySHA == "" {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestParseMessageEmptyBody(t *testing.T) {
	for _, body := range []string{"", "   ", "\n"} {
		_, _, err := ParseMessage(body)
		var emptyErr ErrEmptyBody
		if !errors.As(err, &emptyErr) {
			t.Errorf("ParseMessage(%q) = %v, want ErrEmptyBody", body, err)
		}
	}
}

func TestParseMessageDecodeFailure(t *testing.T) {
	_, _, err := ParseMessage("{broken")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestParseMessageMissingSubmissionID(t *testing.T) {
	_, _, err := ParseMessage(`{"step": "finalize", "requestId": "req-1"}`)
	var missingErr ErrMissingSubmissionID
	if !errors.As(err, &missingErr) {
		t.Fatalf("err = %v, want ErrMissingSubmissionID", err)
	}
	if missingErr.RequestID != "req-1" {
		t.Fatalf("request id = %q", missingErr.RequestID)
	}
}

func newWorkerService(t *testing.T) *assessment.Service {
	t.Helper()
	return &assessment.Service{Repo: assessment.NewMemoryRepo()}
}

func TestHandleMessageStaleStepIsNotAnError(t *testing.T) {
	svc := newWorkerService(t)
	sub, err := svc.Create(context.Background(), assessment.CreateInput{
		Company: assessment.CompanyInfo{Name: "Acme"},
		Deal:    assessment.DealContext{Description: "a deal"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The submission never entered analysis, so the step is stale. The
	// message must be treated as done so the queue deletes it.
	body := `{"submissionId": "` + sub.ID + `", "step": "initial_analysis", "version": 1}`
	if err := HandleMessage(context.Background(), svc, body); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestHandleMessageUnknownSubmission(t *testing.T) {
	svc := newWorkerService(t)

	body := `{"submissionId": "missing", "step": "finalize", "requestId": "req-9", "version": 1}`
	err := HandleMessage(context.Background(), svc, body)
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("err = %v, want ErrProcess", err)
	}
	if procErr.SubmissionID != "missing" || procErr.Step != queue.StepFinalize {
		t.Fatalf("unexpected process error %+v", procErr)
	}
}

func TestHandleMessageParseFailurePassesThrough(t *testing.T) {
	svc := newWorkerService(t)
	var emptyErr ErrEmptyBody
	if err := HandleMessage(context.Background(), svc, ""); !errors.As(err, &emptyErr) {
		t.Fatalf("err = %v, want ErrEmptyBody", err)
	}
}

func TestHandleMessageNilService(t *testing.T) {
	if err := HandleMessage(context.Background(), nil, "{}"); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestComputeMeta(t *testing.T) {
	meta := ComputeMeta("")
	if meta.BodyLen != 0 || meta.BodySHA != "" {
		t.Fatalf("empty meta = %+v", meta)
	}
	meta = ComputeMeta("payload")
	if meta.BodyLen != 7 || len(meta.BodySHA) != 64 {
		t.Fatalf("meta = %+v", meta)
	}
}
