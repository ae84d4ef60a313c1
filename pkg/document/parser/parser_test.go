package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><w:document><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestMimeTypeFromExtension(t *testing.T) {
	assert.Equal(t, MimePDF, MimeTypeFromExtension(".PDF"))
	assert.Equal(t, MimeMarkdown, MimeTypeFromExtension(".md"))
	assert.Equal(t, MimeDOCX, MimeTypeFromExtension(".docx"))
	assert.Equal(t, MimeUnknown, MimeTypeFromExtension(".exe"))
	assert.Equal(t, ".html", ExtensionFor(MimeHTML))
}

func TestRegistry_Text(t *testing.T) {
	r := NewRegistry()
	got, err := r.Parse("notes.md", []byte("\ufeff# Title\r\nbody\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "# Title\nbody", got)

	got, err = r.Parse("rows.csv", []byte("a,b\n1,2"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", got)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	_, err := r.Parse("tool.exe", []byte{0x4d, 0x5a})
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.False(t, r.Supported("tool.exe"))
	assert.True(t, r.Supported("offer.DOCX"))
}

func TestHTMLParser_MainContent(t *testing.T) {
	page := `<html><head><title>Harbour renewal</title><style>p{}</style></head>
<body><nav>Home | About</nav>
<main><h1>Harbour renewal</h1><p>We redesigned the <b>ferry terminal</b>.</p>
<ul><li>Co-design</li><li>Prototyping</li></ul><script>track()</script></main>
<footer>© Halogen</footer></body></html>`

	title, text, err := NewHTMLParser().Convert([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Harbour renewal", title)
	assert.Contains(t, text, "# Harbour renewal")
	assert.Contains(t, text, "**ferry terminal**")
	assert.Contains(t, text, "Co-design")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "Halogen")
}

func TestHTMLParser_TitleFromHeading(t *testing.T) {
	title, _, err := NewHTMLParser().Convert([]byte(`<body><h1>Only heading</h1><p>x</p></body>`))
	require.NoError(t, err)
	assert.Equal(t, "Only heading", title)
}

func TestDOCXParser(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Tender for</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve"> R&amp;D services</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Deadline</w:t><w:tab/><w:t>2024-10-01</w:t></w:r></w:p>` +
		`<w:p></w:p>`
	got, err := NewRegistry().Parse("tender.docx", docx(t, body))
	require.NoError(t, err)
	assert.Equal(t, "Tender for R&D services\n\nDeadline\t2024-10-01", got)
}

func TestDOCXParser_Broken(t *testing.T) {
	_, err := NewDOCXParser().Parse("x.docx", []byte("not a zip"))
	assert.Error(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, _ = zw.Create("other.xml")
	require.NoError(t, zw.Close())
	_, err = NewDOCXParser().Parse("x.docx", buf.Bytes())
	assert.Error(t, err)
}

func TestDOCXParser_InflateCap(t *testing.T) {
	// long runs of spaces compress to almost nothing
	padded := docx(t, `<w:p><w:r><w:t>hi</w:t></w:r></w:p>`+strings.Repeat(" ", 2<<20))
	require.Less(t, len(padded), 64<<10)

	_, err := NewRegistry(WithMaxExtractBytes(1<<20)).Parse("bomb.docx", padded)
	assert.ErrorIs(t, err, ErrTooLarge)

	got, err := NewRegistry().Parse("bomb.docx", padded)
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestPDFParser_RejectsGarbage(t *testing.T) {
	_, err := NewRegistry().Parse("scan.pdf", []byte("%PDF-1.4 truncated"))
	assert.Error(t, err)
}
