package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

var (
	docxParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	docxRun       = regexp.MustCompile(`(?s)<w:t(?: [^>]*)?>(.*?)</w:t>|<w:tab/>|<w:br/>`)
)

// DefaultMaxXMLBytes caps the inflated size of word/document.xml.
const DefaultMaxXMLBytes = 64 << 20

// DOCXParser reads the text runs of word/document.xml.
type DOCXParser struct {
	maxXML int64
}

func NewDOCXParser() *DOCXParser { return &DOCXParser{maxXML: DefaultMaxXMLBytes} }

// WithMaxXMLBytes sets the inflate cap; n <= 0 keeps the default.
func (p *DOCXParser) WithMaxXMLBytes(n int64) *DOCXParser {
	if n > 0 {
		p.maxXML = n
	}
	return p
}

func (p *DOCXParser) Parse(_ string, content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var body []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		if f.UncompressedSize64 > uint64(p.maxXML) {
			return "", fmt.Errorf("%w: document.xml is %d bytes, limit %d", ErrTooLarge, f.UncompressedSize64, p.maxXML)
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		body, err = io.ReadAll(io.LimitReader(rc, p.maxXML+1))
		rc.Close()
		if err != nil {
			return "", err
		}
		if int64(len(body)) > p.maxXML {
			return "", fmt.Errorf("%w: document.xml exceeds %d bytes", ErrTooLarge, p.maxXML)
		}
		break
	}
	if body == nil {
		return "", errors.New("docx: word/document.xml missing")
	}

	var paras []string
	for _, para := range docxParagraph.FindAll(body, -1) {
		var sb strings.Builder
		for _, m := range docxRun.FindAllSubmatch(para, -1) {
			switch {
			case bytes.Equal(m[0], []byte("<w:tab/>")):
				sb.WriteByte('\t')
			case bytes.Equal(m[0], []byte("<w:br/>")):
				sb.WriteByte('\n')
			default:
				sb.WriteString(html.UnescapeString(string(m[1])))
			}
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			paras = append(paras, line)
		}
	}
	return strings.Join(paras, "\n\n"), nil
}

func (p *DOCXParser) CanParse(mimeType string) bool { return mimeType == MimeDOCX }

func (p *DOCXParser) MimeType() string { return MimeDOCX }
