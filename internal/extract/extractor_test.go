package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

// buildDocx assembles a minimal word-processing document in memory.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	ct, err := zw.Create("[Content_Types].xml")
	if err != nil {
		t.Fatalf("create content types: %v", err)
	}
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	if err != nil {
		t.Fatalf("write content types: %v", err)
	}

	doc, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	_, err = doc.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body>
</w:document>`))
	if err != nil {
		t.Fatalf("write document.xml: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocxRoundTrip(t *testing.T) {
	data := buildDocx(t, "Experienced Go developer with 5 years of experience. Contact: jane@example.com")

	e := NewExtractor(nil)
	doc, err := e.Extract(data, "docx")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if !strings.Contains(doc.Text, "Go developer") {
		t.Errorf("text = %q, want CV body", doc.Text)
	}
	if doc.Meta.FileType != "docx" {
		t.Errorf("file type = %q, want docx", doc.Meta.FileType)
	}
	if doc.Meta.FileSize != int64(len(data)) {
		t.Errorf("file size = %d, want %d", doc.Meta.FileSize, len(data))
	}
	if doc.Entities == nil || doc.Entities.Email != "jane@example.com" {
		t.Errorf("entities = %+v, want email extracted", doc.Entities)
	}
}

func TestExtractSniffsWithoutHint(t *testing.T) {
	data := buildDocx(t, "Plain CV text")

	e := NewExtractor(nil)
	doc, err := e.Extract(data, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if doc.Meta.FileType != "docx" {
		t.Errorf("file type = %q, want docx via sniffing", doc.Meta.FileType)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewExtractor(nil)

	testCases := []struct {
		name string
		data []byte
		hint string
	}{
		{name: "unknown extension", data: []byte("plain text"), hint: "txt"},
		{name: "no hint and no magic", data: []byte("plain text"), hint: ""},
		{name: "image file", data: []byte("\x89PNG\r\n"), hint: "png"},
		{name: "pdf bytes behind a txt name", data: []byte("%PDF-1.4 content"), hint: "cv.txt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Extract(tc.data, tc.hint)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Extract() error = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
}

func TestExtractCorruptDocument(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract([]byte("PK\x03\x04not actually a zip"), "docx")
	if !errors.Is(err, ErrCorruptDocument) {
		t.Errorf("Extract() error = %v, want ErrCorruptDocument", err)
	}
}

func TestExtractDocxWithoutContentTypes(t *testing.T) {
	// A structurally valid ZIP missing its [Content_Types].xml part makes
	// the parser panic; the extractor must turn that into an error.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	doc, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	if _, err := doc.Write([]byte(`<w:document/>`)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	e := NewExtractor(nil)
	_, err = e.Extract(buf.Bytes(), "docx")
	if !errors.Is(err, ErrCorruptDocument) {
		t.Errorf("Extract() error = %v, want ErrCorruptDocument", err)
	}
}

func TestFormatFromHint(t *testing.T) {
	testCases := []struct {
		hint string
		want string
	}{
		{hint: "pdf", want: "pdf"},
		{hint: "PDF", want: "pdf"},
		{hint: "docx", want: "docx"},
		{hint: "doc", want: "docx"},
		{hint: "resume.pdf", want: "pdf"},
		{hint: "cvs/abc-123.docx", want: "docx"},
		{hint: "txt", want: ""},
		{hint: "", want: ""},
	}

	for _, tc := range testCases {
		if got := formatFromHint(tc.hint); got != tc.want {
			t.Errorf("formatFromHint(%q) = %q, want %q", tc.hint, got, tc.want)
		}
	}
}

func TestSniffFormat(t *testing.T) {
	if got := sniffFormat([]byte("%PDF-1.7 rest")); got != "pdf" {
		t.Errorf("sniffFormat(pdf magic) = %q", got)
	}
	if got := sniffFormat([]byte("PK\x03\x04rest")); got != "docx" {
		t.Errorf("sniffFormat(zip magic) = %q", got)
	}
	if got := sniffFormat([]byte("hello")); got != "" {
		t.Errorf("sniffFormat(text) = %q", got)
	}
}
