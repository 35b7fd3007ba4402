package normalize

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestPreparePDFInline(t *testing.T) {
	n := New("soffice")
	data := []byte("%PDF-1.4 fake body")

	res, err := n.Prepare(context.Background(), Attachment{
		Data:      data,
		MediaType: "application/pdf",
		FileName:  "resume.pdf",
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if res.Strategy != StrategyPDFInline {
		t.Fatalf("strategy = %q, want %q", res.Strategy, StrategyPDFInline)
	}
	if len(res.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(res.Parts))
	}
	if res.Parts[0].MIMEType != "application/pdf" {
		t.Fatalf("part mime = %q", res.Parts[0].MIMEType)
	}
	if !bytes.Equal(res.Parts[0].Data, data) {
		t.Fatal("pdf bytes must pass through unmodified")
	}
	if res.Converted != nil {
		t.Fatal("inline pdf needs no conversion artifact")
	}
}

func TestPrepareUnsupportedFormat(t *testing.T) {
	n := New("soffice")

	tests := []struct {
		name      string
		mediaType string
		fileName  string
	}{
		{name: "png image", mediaType: "image/png", fileName: "photo.png"},
		{name: "plain text", mediaType: "text/plain", fileName: "notes.txt"},
		{name: "unknown binary", mediaType: "application/octet-stream", fileName: "payload.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Prepare(context.Background(), Attachment{
				Data:      []byte("data"),
				MediaType: tt.mediaType,
				FileName:  tt.fileName,
			})
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func TestPrepareEmptyAttachment(t *testing.T) {
	n := New("soffice")
	_, err := n.Prepare(context.Background(), Attachment{MediaType: "application/pdf"})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPrepareDocxTextFallback(t *testing.T) {
	// An unavailable conversion binary forces the text-extraction path.
	n := New("/nonexistent/soffice")
	docXML := `<?xml version="1.0"?><document>` +
		`<p><r><t>Jane Doe</t></r></p>` +
		`<tbl><tr><tc><p><r><t>Go</t></r></p></tc><tc><p><r><t>Postgres</t></r></p></tc></tr></tbl>` +
		`</document>`
	data := buildDocx(t, docXML)

	res, err := n.Prepare(context.Background(), Attachment{
		Data:      data,
		MediaType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		FileName:  "resume.docx",
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if res.Strategy != StrategyWordText {
		t.Fatalf("strategy = %q, want %q", res.Strategy, StrategyWordText)
	}
	if len(res.Parts) != 1 || res.Parts[0].Text == "" {
		t.Fatalf("expected a single text part, got %+v", res.Parts)
	}
	for _, want := range []string{"Jane Doe", "Go", "Postgres"} {
		if !strings.Contains(res.Parts[0].Text, want) {
			t.Fatalf("extracted text missing %q: %q", want, res.Parts[0].Text)
		}
	}
}

func TestPrepareDocFallbackFails(t *testing.T) {
	// Legacy .doc bytes are not a zip archive, so when conversion is
	// unavailable there is nothing left to try.
	n := New("/nonexistent/soffice")
	_, err := n.Prepare(context.Background(), Attachment{
		Data:      []byte{0xd0, 0xcf, 0x11, 0xe0},
		MediaType: "application/msword",
		FileName:  "resume.doc",
	})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDetectFormatByExtension(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		fileName  string
		want      string
	}{
		{name: "zip docx", mediaType: "application/zip", fileName: "cv.docx", want: mimeDOCX},
		{name: "octet pdf", mediaType: "application/octet-stream", fileName: "cv.pdf", want: mimePDF},
		{name: "empty mime doc", mediaType: "", fileName: "cv.doc", want: mimeDOC},
		{name: "declared wins", mediaType: "application/pdf", fileName: "cv.docx", want: mimePDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.mediaType, tt.fileName); got != tt.want {
				t.Fatalf("detectFormat(%q, %q) = %q, want %q", tt.mediaType, tt.fileName, got, tt.want)
			}
		})
	}
}

func TestStripDocxXMLTableCells(t *testing.T) {
	raw := `<document><tbl><tr><tc><p><t>left</t></p></tc><tc><p><t>right</t></p></tc></tr></tbl></document>`
	got := stripDocxXML(raw)
	if got != "left\nright" {
		t.Fatalf("stripDocxXML = %q, want %q", got, "left\nright")
	}
}
