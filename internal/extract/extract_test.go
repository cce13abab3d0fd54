package extract

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		declared string
		want     string
		wantErr  bool
	}{
		{"declared text", "notes.bin", "text/plain", ContentTypeText, false},
		{"declared text with charset", "notes.txt", "text/plain; charset=utf-8", ContentTypeText, false},
		{"declared pdf", "paper.pdf", "application/pdf", ContentTypePDF, false},
		{"missing type txt", "notes.TXT", "", ContentTypeText, false},
		{"missing type md", "notes.md", "", "", true},
		{"missing type pdf", "paper.pdf", "", ContentTypePDF, false},
		{"missing type docx", "paper.docx", "", "", true},
		{"declared msword", "paper.doc", "application/msword", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContentType(tt.filename, tt.declared)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Fatalf("expected ErrUnsupportedType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTextPlain(t *testing.T) {
	got, err := Text(ContentTypeText, []byte("Photosynthesis converts light."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Photosynthesis converts light." {
		t.Errorf("unexpected text %q", got)
	}
}

func TestTextInvalidPDF(t *testing.T) {
	if _, err := Text(ContentTypePDF, []byte("definitely not a pdf")); err == nil {
		t.Error("expected error for invalid pdf")
	}
}

// textlessPDF builds a one-page PDF whose page has no content stream.
func textlessPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestTextPDFWithoutText(t *testing.T) {
	_, err := Text(ContentTypePDF, textlessPDF())
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}
