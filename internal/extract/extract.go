package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"dealrisk-backend/internal/shared/storage/object"
)

const (
	mimePDF  = "application/pdf"
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
)

// ErrUnsupportedType is returned for files outside the upload allowlist.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrNoTextLayer indicates a file that is stored but yields no machine-readable
// text here; image OCR is delegated to an external service.
var ErrNoTextLayer = errors.New("no extractable text layer")

// Error is a typed extraction failure carrying the offending file's identity.
type Error struct {
	FileName string
	MimeType string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.FileName, e.MimeType, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Allowed reports whether the MIME type is on the upload allowlist.
func Allowed(mimeType string) bool {
	switch normalizeMimeType(mimeType, "") {
	case mimePDF, mimePNG, mimeJPEG:
		return true
	default:
		return false
	}
}

// ExtractText pulls text from a stored object and persists a derived .extracted.txt copy.
// PDF parsing uses github.com/ledongthuc/pdf.
func ExtractText(ctx context.Context, store object.ObjectStore, fileKey string, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, fileKey)
	if err != nil {
		return "", &Error{FileName: fileName, MimeType: mimeType, Err: err}
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", &Error{FileName: fileName, MimeType: mimeType, Err: fmt.Errorf("read: %w", err)}
	}

	text, err := ExtractTextFromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return "", err
	}

	extractedKey := fileKey + ".extracted.txt"
	if err := saveExtracted(ctx, store, extractedKey, text); err != nil {
		return "", &Error{FileName: fileName, MimeType: mimeType, Err: err}
	}

	return text, nil
}

// ExtractTextFromBytes extracts text from an in-memory payload.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := normalizeMimeType(mimeType, fileName)
	switch normalized {
	case mimePDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", &Error{FileName: fileName, MimeType: normalized, Err: err}
		}
		return text, nil
	case mimePNG, mimeJPEG:
		// Images are stored for the record; OCR lives behind the external
		// ingestion collaborator and its output arrives as an enriched chunk.
		return "", &Error{FileName: fileName, MimeType: normalized, Err: ErrNoTextLayer}
	default:
		return "", &Error{FileName: fileName, MimeType: normalized, Err: ErrUnsupportedType}
	}
}

type keySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

func saveExtracted(ctx context.Context, store object.ObjectStore, key string, text string) error {
	saver, ok := store.(keySaver)
	if !ok {
		return errors.New("object store does not support SaveWithKey")
	}
	reader := strings.NewReader(text)
	_, err := saver.SaveWithKey(ctx, key, "text/plain; charset=utf-8", reader)
	return err
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func normalizeMimeType(mimeType string, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case mimePDF, mimePNG, mimeJPEG:
		return clean
	case "image/jpg":
		return mimeJPEG
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".png":
		return mimePNG
	case ".jpg", ".jpeg":
		return mimeJPEG
	default:
		return clean
	}
}
