package parser

import (
	"strings"
	"unicode/utf8"
)

// TextParser passes plain text, markdown and CSV through.
type TextParser struct{}

func NewTextParser() *TextParser { return &TextParser{} }

func (p *TextParser) Parse(_ string, content []byte) (string, error) {
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), ""))
	}
	s := strings.TrimPrefix(string(content), "\ufeff")
	return strings.ReplaceAll(s, "\r\n", "\n"), nil
}

func (p *TextParser) CanParse(mimeType string) bool {
	switch mimeType {
	case MimePlain, MimeMarkdown, MimeCSV:
		return true
	}
	return false
}

func (p *TextParser) MimeType() string { return MimePlain }
