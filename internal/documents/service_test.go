package documents

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"dealrisk-backend/internal/extract"
	"dealrisk-backend/internal/shared/storage/object/local"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func newTestDocService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		Store: local.New(t.TempDir()),
		Repo:  NewMemoryRepo(),
	}
}

func TestUploadRequiresFileName(t *testing.T) {
	svc := newTestDocService(t)
	_, _, err := svc.Upload(context.Background(), "sub-1", "  ", strings.NewReader("data"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUploadPNGStoredWithoutText(t *testing.T) {
	svc := newTestDocService(t)

	doc, text, err := svc.Upload(context.Background(), "sub-1", "scan.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.MimeType != "image/png" {
		t.Fatalf("mime = %q", doc.MimeType)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty for an image", text)
	}
	if doc.ExtractedTextKey != "" || doc.ExtractedAt != nil {
		t.Fatalf("image must not carry extracted text: %+v", doc)
	}
	if doc.SizeBytes != int64(len(pngHeader)) {
		t.Fatalf("size = %d", doc.SizeBytes)
	}

	docs, err := svc.List(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != doc.ID {
		t.Fatalf("list = %+v", docs)
	}
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	svc := newTestDocService(t)

	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxUploadBytes)...)
	_, _, err := svc.Upload(context.Background(), "sub-1", "huge.png", bytes.NewReader(payload))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc := newTestDocService(t)

	_, _, err := svc.Upload(context.Background(), "sub-1", "notes.txt", strings.NewReader("plain text notes"))
	if !errors.Is(err, extract.ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestListRequiresSubmissionID(t *testing.T) {
	svc := newTestDocService(t)
	if _, err := svc.List(context.Background(), ""); err == nil {
		t.Fatal("expected error for missing submission id")
	}
}

func TestListScopedToSubmission(t *testing.T) {
	svc := newTestDocService(t)
	ctx := context.Background()

	if _, _, err := svc.Upload(ctx, "sub-a", "a.png", bytes.NewReader(pngHeader)); err != nil {
		t.Fatalf("upload a: %v", err)
	}
	if _, _, err := svc.Upload(ctx, "sub-b", "b.png", bytes.NewReader(pngHeader)); err != nil {
		t.Fatalf("upload b: %v", err)
	}

	docs, err := svc.List(ctx, "sub-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].FileName != "a.png" {
		t.Fatalf("list = %+v", docs)
	}
}
