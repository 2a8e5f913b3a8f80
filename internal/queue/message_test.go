package queue

import "testing"

func TestMessageRoundTrip(t *testing.T) {
	in := Message{
		SubmissionID: "sub-1",
		Step:         StepGenerateRound2,
		RequestID:    "req-1",
		EnqueuedAt:   "2026-08-30T12:00:00Z",
		Version:      1,
	}
	data, err := EncodeMessage(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestDecodeMessageRejectsInvalidJSON(t *testing.T) {
	if _, err := DecodeMessage([]byte("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDecodeMessageFieldNames(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"submissionId": "sub-2", "step": "finalize", "requestId": "req-2", "version": 1}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.SubmissionID != "sub-2" || msg.Step != StepFinalize || msg.RequestID != "req-2" {
		t.Fatalf("unexpected message %+v", msg)
	}
}
