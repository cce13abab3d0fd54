package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	ContentTypeText = "text/plain"
	ContentTypePDF  = "application/pdf"
)

var (
	// ErrUnsupportedType is returned for uploads that are neither plain text nor PDF.
	ErrUnsupportedType = errors.New("unsupported file type (only PDF and TXT allowed)")
	// ErrNoText is returned for PDFs where no page yields text, such as scanned images.
	ErrNoText = errors.New("no extractable text in file")
)

// ContentType resolves the upload's media type, inferring it from the filename
// extension when the client sent none.
func ContentType(filename, declared string) (string, error) {
	if declared == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".txt":
			return ContentTypeText, nil
		case ".pdf":
			return ContentTypePDF, nil
		default:
			return "", ErrUnsupportedType
		}
	}
	// Drop parameters such as "; charset=utf-8".
	mediaType := strings.TrimSpace(strings.SplitN(declared, ";", 2)[0])
	switch strings.ToLower(mediaType) {
	case ContentTypeText:
		return ContentTypeText, nil
	case ContentTypePDF:
		return ContentTypePDF, nil
	default:
		return "", ErrUnsupportedType
	}
}

// Text returns the readable text of an upload.
func Text(contentType string, content []byte) (string, error) {
	if contentType == ContentTypePDF {
		return pdfText(content)
	}
	return string(content), nil
}

func pdfText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		// Pages that fail to decode are dropped; the rest still make useful notes.
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", ErrNoText
	}
	return strings.Join(pages, "\n\n"), nil
}
