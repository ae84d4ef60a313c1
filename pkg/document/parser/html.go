package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

var excessiveLines = regexp.MustCompile(`\n{3,}`)

// noise is removed before conversion.
const noise = "script, style, noscript, nav, header, footer, aside, form, iframe, " +
	".nav, .navbar, .sidebar, .menu, .footer, .breadcrumb, .advertisement, .share, .comments"

// HTMLParser converts the main content of a page to markdown.
type HTMLParser struct {
	conv *md.Converter
}

func NewHTMLParser() *HTMLParser {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &HTMLParser{conv: conv}
}

func (p *HTMLParser) Parse(_ string, content []byte) (string, error) {
	_, text, err := p.Convert(content)
	return text, err
}

// Convert returns the page title and its main content as markdown.
func (p *HTMLParser) Convert(content []byte) (title, markdown string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find(noise).Remove()

	sel := doc.Find("main, article, [role=main]").First()
	if sel.Length() == 0 {
		sel = doc.Find("body")
	}
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	inner, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", "", err
	}
	markdown, err = p.conv.ConvertString(inner)
	if err != nil {
		return "", "", fmt.Errorf("html to markdown: %w", err)
	}
	markdown = cleanMarkdown(markdown)
	if title == "" {
		title = markdownTitle(markdown)
	}
	return title, markdown, nil
}

func (p *HTMLParser) CanParse(mimeType string) bool {
	return mimeType == MimeHTML || mimeType == "application/xhtml+xml"
}

func (p *HTMLParser) MimeType() string { return MimeHTML }

func cleanMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	s = excessiveLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}

func markdownTitle(s string) string {
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "# ") {
			return strings.TrimSpace(l[2:])
		}
	}
	return ""
}
