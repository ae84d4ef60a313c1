// Package parser extracts plain text from uploaded files. Parsers are
// looked up by MIME type, which is derived from the file extension.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

const (
	MimePlain    = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeCSV      = "text/csv"
	MimeHTML     = "text/html"
	MimePDF      = "application/pdf"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeUnknown  = "application/octet-stream"
)

var (
	// ErrUnsupported is returned for files no parser handles.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrTooLarge is returned when a compressed file inflates past its cap.
	ErrTooLarge = errors.New("extracted content too large")
)

type Parser interface {
	// Parse returns the text content of the file.
	Parse(filename string, content []byte) (string, error)
	CanParse(mimeType string) bool
	MimeType() string
}

type Registry struct {
	mu         sync.RWMutex
	parsers    map[string]Parser
	maxExtract int64
}

type Option func(*Registry)

// WithMaxExtractBytes caps how far a compressed upload may inflate.
func WithMaxExtractBytes(n int64) Option {
	return func(r *Registry) { r.maxExtract = n }
}

// NewRegistry returns a registry with the text, HTML, PDF and DOCX parsers.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{parsers: map[string]Parser{}}
	for _, o := range opts {
		o(r)
	}
	r.Register(NewTextParser())
	r.Register(NewHTMLParser())
	r.Register(NewPDFParser())
	r.Register(NewDOCXParser().WithMaxXMLBytes(r.maxExtract))
	return r
}

func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.MimeType()] = p
}

func (r *Registry) ByMimeType(mimeType string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.parsers[mimeType]; ok {
		return p
	}
	for _, p := range r.parsers {
		if p.CanParse(mimeType) {
			return p
		}
	}
	return nil
}

// Supported reports whether filename has an extension some parser handles.
func (r *Registry) Supported(filename string) bool {
	return r.ByMimeType(MimeTypeFromExtension(filepath.Ext(filename))) != nil
}

// Parse picks a parser from the file extension.
func (r *Registry) Parse(filename string, content []byte) (string, error) {
	return r.ParseMime(MimeTypeFromExtension(filepath.Ext(filename)), filename, content)
}

func (r *Registry) ParseMime(mimeType, filename string, content []byte) (string, error) {
	p := r.ByMimeType(mimeType)
	if p == nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}
	text, err := p.Parse(filename, content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func MimeTypeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".txt", ".text":
		return MimePlain
	case ".md", ".markdown":
		return MimeMarkdown
	case ".csv":
		return MimeCSV
	case ".html", ".htm":
		return MimeHTML
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	default:
		return MimeUnknown
	}
}

// ExtensionFor is the inverse of MimeTypeFromExtension for fetched content.
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case MimePlain:
		return ".txt"
	case MimeMarkdown:
		return ".md"
	case MimeCSV:
		return ".csv"
	case MimeHTML:
		return ".html"
	case MimePDF:
		return ".pdf"
	case MimeDOCX:
		return ".docx"
	}
	return ""
}
