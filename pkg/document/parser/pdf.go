package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

type PDFParser struct{}

func NewPDFParser() *PDFParser { return &PDFParser{} }

func (p *PDFParser) Parse(_ string, content []byte) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, perr := page.GetPlainText(nil)
		if perr != nil {
			// a broken page should not lose the rest of the document
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("pdf has no extractable text (%d pages)", reader.NumPage())
	}
	return sb.String(), nil
}

func (p *PDFParser) CanParse(mimeType string) bool { return mimeType == MimePDF }

func (p *PDFParser) MimeType() string { return MimePDF }
