package serviceImp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/parser"
)

const fetchTimeout = 20 * time.Second

// hostAllowed matches the host or any of its subdomains against the list.
func hostAllowed(host string, allow []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, a := range allow {
		a = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(a), "*."))
		if a != "" && (host == a || strings.HasSuffix(host, "."+a)) {
			return true
		}
	}
	return false
}

func (s *Svc) IngestURL(ctx context.Context, rawURL, user string) (*entities.Document, bool, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false, apperr.Invalid("url must be an absolute http(s) url")
	}
	if !hostAllowed(u.Hostname(), s.cfg.AllowedDomains) {
		return nil, false, apperr.Forbidden(fmt.Sprintf("domain %s is not allowed", u.Hostname()))
	}

	body, mimeType, err := s.fetch(ctx, u)
	if err != nil {
		return nil, false, err
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." || !strings.Contains(name, ".") {
		name = u.Hostname()
	}
	if ext := parser.ExtensionFor(mimeType); ext != "" && !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}

	d := &entities.Document{Filename: name, MimeType: mimeType, SourceURL: u.String(), UploadedBy: user}
	return s.save(ctx, d, body, func() (string, error) {
		if mimeType != parser.MimeHTML {
			return s.parsers.ParseMime(mimeType, name, body)
		}
		title, text, err := readableText(body, u)
		if err != nil {
			s.log.Debug("readability failed, using page text", zap.String("url", u.String()), zap.Error(err))
			title, text, err = mainText(body)
			if err != nil {
				return "", err
			}
		}
		if title != "" {
			d.Filename = title + ".html"
		}
		return text, nil
	})
}

func (s *Svc) fetch(ctx context.Context, u *url.URL) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", apperr.Invalid("bad url")
	}
	req.Header.Set("User-Agent", "halokm-ingest/1.0")
	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, "", apperr.Upstream("fetch url", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", apperr.Upstream("fetch url", fmt.Errorf("status %d", resp.StatusCode))
	}
	max := s.cfg.MaxUploadBytes
	if resp.ContentLength > max {
		return nil, "", tooLarge(max)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, max+1))
	if err != nil {
		return nil, "", apperr.Upstream("read url", err)
	}
	if int64(len(b)) > max {
		return nil, "", tooLarge(max)
	}

	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case ct == "" || ct == parser.MimeHTML || ct == "application/xhtml+xml":
		ct = parser.MimeHTML
	case ct == parser.MimePlain, ct == parser.MimeMarkdown, ct == parser.MimePDF, ct == parser.MimeDOCX:
	default:
		return nil, "", apperr.Invalidf("unsupported content type %q", ct)
	}
	return b, ct, nil
}

// readableText extracts the article body the way a reader view would.
func readableText(body []byte, u *url.URL) (string, string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", "", err
	}
	text := cleanWhitespace(article.TextContent)
	if len([]rune(text)) < 200 {
		return "", "", fmt.Errorf("readable text too short (%d chars)", len([]rune(text)))
	}
	return strings.TrimSpace(article.Title), text, nil
}

// mainText collects headings, paragraphs and list items from main/article,
// or the whole page when neither exists.
func mainText(body []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	var parts []string
	sel := doc.Find("main, article")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	sel.Find("h1,h2,h3,p,li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return title, cleanWhitespace(strings.Join(parts, "\n")), nil
}

var wsRX = regexp.MustCompile(`[ \t]*\n[ \t\n]*`)

func cleanWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(wsRX.ReplaceAllString(s, "\n"))
}
