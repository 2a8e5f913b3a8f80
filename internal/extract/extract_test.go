package extract

import (
	"context"
	"errors"
	"testing"
)

func TestAllowed(t *testing.T) {
	cases := map[string]bool{
		"application/pdf":           true,
		"image/png":                 true,
		"image/jpeg":                true,
		"image/jpg":                 true,
		"application/pdf; q=0.9":    true,
		"text/plain; charset=utf-8": false,
		"application/zip":           false,
		"":                          false,
	}
	for mime, want := range cases {
		if got := Allowed(mime); got != want {
			t.Errorf("Allowed(%q) = %v, want %v", mime, got, want)
		}
	}
}

func TestNormalizeMimeTypeFallsBackToExtension(t *testing.T) {
	cases := []struct {
		mime, name, want string
	}{
		{"application/octet-stream", "deal.pdf", "application/pdf"},
		{"application/octet-stream", "SCAN.PNG", "image/png"},
		{"", "photo.JPG", "image/jpeg"},
		{"application/octet-stream", "readme.md", "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := normalizeMimeType(tc.mime, tc.name); got != tc.want {
			t.Errorf("normalizeMimeType(%q, %q) = %q, want %q", tc.mime, tc.name, got, tc.want)
		}
	}
}

func TestExtractTextFromBytesImageHasNoTextLayer(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png", "scan.png")
	if !errors.Is(err, ErrNoTextLayer) {
		t.Fatalf("err = %v, want ErrNoTextLayer", err)
	}
	var extractErr *Error
	if !errors.As(err, &extractErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if extractErr.FileName != "scan.png" {
		t.Fatalf("file name = %q", extractErr.FileName)
	}
}

func TestExtractTextFromBytesRejectsUnknownType(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("hello"), "text/plain", "notes.txt")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestExtractTextFromBytesRejectsCorruptPDF(t *testing.T) {
	if _, err := ExtractTextFromBytes(context.Background(), []byte("%PDF-1.4 broken"), "application/pdf", "deal.pdf"); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}
