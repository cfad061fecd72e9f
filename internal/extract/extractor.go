package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"code.sajari.com/docconv"
)

// Sentinel errors for document extraction.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptDocument   = errors.New("corrupt document")
)

// Meta describes the original CV file.
type Meta struct {
	FileType string `json:"file_type"` // pdf or docx
	FileSize int64  `json:"file_size"`
	Pages    int    `json:"pages,omitempty"`
}

// Document is the result of text extraction plus best-effort entity extraction.
type Document struct {
	Text     string    `json:"text"`
	Entities *Entities `json:"entities,omitempty"`
	Meta     Meta      `json:"meta"`
}

// Extractor converts raw CV bytes into a Document. The entity pass is
// pluggable so the regex dictionaries can be swapped for a real NER model
// without touching the pipeline.
type Extractor struct {
	entities EntityExtractor
}

// NewExtractor creates an Extractor with the given entity strategy. A nil
// strategy selects the built-in regex extractor.
func NewExtractor(entities EntityExtractor) *Extractor {
	if entities == nil {
		entities = NewRegexEntityExtractor()
	}
	return &Extractor{entities: entities}
}

var mimeByFormat = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Extract parses the CV bytes into text and entities. The hint is a file
// extension ("pdf", "docx", or a filename); it is authoritative when present.
// Content sniffing runs only when no hint is given.
func (e *Extractor) Extract(data []byte, hint string) (*Document, error) {
	var format string
	if strings.TrimSpace(hint) == "" {
		format = sniffFormat(data)
	} else {
		format = formatFromHint(hint)
	}

	mimeType, ok := mimeByFormat[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, hint)
	}

	res, err := convert(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	doc := &Document{
		Text: res.Body,
		Meta: Meta{
			FileType: format,
			FileSize: int64(len(data)),
		},
	}
	if pages, ok := res.Meta["Pages"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(pages)); err == nil {
			doc.Meta.Pages = n
		}
	}

	// Entity extraction is best-effort and never fails; missing matches
	// simply leave fields empty.
	doc.Entities = e.entities.Extract(doc.Text)

	return doc, nil
}

// convert runs docconv with panic containment: the DOCX parser dereferences
// nil on a ZIP that lacks its [Content_Types].xml part.
func convert(data []byte, mimeType string) (res *docconv.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return docconv.Convert(bytes.NewReader(data), mimeType, true)
}

// formatFromHint reduces a hint (extension or filename) to a supported format.
// "doc" maps to the docx extraction path, same as the word-processing branch
// of the upstream system.
func formatFromHint(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if idx := strings.LastIndex(hint, "."); idx != -1 {
		hint = hint[idx+1:]
	}
	switch hint {
	case "pdf":
		return "pdf"
	case "docx", "doc":
		return "docx"
	default:
		return ""
	}
}

// sniffFormat inspects magic bytes when no extension hint is available.
// DOCX files are ZIP containers.
func sniffFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return "pdf"
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return "docx"
	default:
		return ""
	}
}

// FormatFromPath extracts the extension hint from a storage path or URL.
func FormatFromPath(path string) string {
	if idx := strings.LastIndex(path, "."); idx != -1 {
		return path[idx+1:]
	}
	return ""
}
