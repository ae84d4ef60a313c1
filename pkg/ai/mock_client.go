// pkg/ai/mock_client.go

package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/metrics"
)

// mockClient answers without any network call. Output is derived from the
// input text so the studio workflow can run end to end offline. Calls are
// counted in metrics like real ones.
type mockClient struct{}

func NewMock() Client { return &mockClient{} }

func (m *mockClient) Name() string { return "mock" }

func (m *mockClient) SummarizeDocument(ctx context.Context, category, filename, text string) (_ *EntrySuggestion, err error) {
	defer metrics.ObserveAI(OpSummarizeDocument, time.Now(), &err)
	if strings.TrimSpace(text) == "" {
		return nil, NewFatalError(errors.New("document has no text"))
	}
	title := firstLine(text)
	if title == "" {
		title = titleFromFilename(filename)
	}
	s := &EntrySuggestion{
		Title:       title,
		Description: firstParagraph(text, 400),
		Summary:     clip(collapse(text), 600),
		Tags:        keywords(text, 5),
	}
	if category == entities.CategoryPerson {
		s.Email = emailPattern.FindString(text)
	}
	return s, nil
}

func (m *mockClient) AnalyzeTender(ctx context.Context, text string) (_ *TenderBrief, err error) {
	defer metrics.ObserveAI(OpAnalyzeTender, time.Now(), &err)
	if strings.TrimSpace(text) == "" {
		return nil, NewFatalError(errors.New("tender has no text"))
	}
	b := &TenderBrief{
		Title:    firstLine(text),
		Summary:  firstParagraph(text, 600),
		Keywords: keywords(text, 8),
	}
	for _, line := range strings.Split(text, "\n") {
		l := strings.TrimSpace(line)
		low := strings.ToLower(l)
		switch {
		case strings.HasPrefix(low, "client:"):
			b.ClientName = strings.TrimSpace(l[len("client:"):])
		case strings.HasPrefix(low, "deadline:"):
			b.Deadline = strings.TrimSpace(l[len("deadline:"):])
		case strings.HasPrefix(l, "- "), strings.HasPrefix(l, "• "), strings.HasPrefix(l, "* "):
			b.Requirements = append(b.Requirements, strings.TrimSpace(strings.TrimLeft(l, "-•* ")))
		case strings.Contains(low, " must ") || strings.Contains(low, " shall "):
			b.Requirements = append(b.Requirements, l)
		}
	}
	return b, nil
}

var mockSections = []string{
	"Understanding of the assignment",
	"Approach and methods",
	"Team",
	"Relevant references",
	"Plan and deliverables",
	"Price",
}

func (m *mockClient) OutlineOffer(ctx context.Context, oc OfferContext) (_ []string, err error) {
	defer metrics.ObserveAI(OpOutlineOffer, time.Now(), &err)
	return append([]string(nil), mockSections...), nil
}

func (m *mockClient) DraftOffer(ctx context.Context, oc OfferContext) (_ string, err error) {
	defer metrics.ObserveAI(OpDraftOffer, time.Now(), &err)
	if oc.Analysis == nil {
		return "", NewFatalError(errors.New("no analysis"))
	}
	sections := oc.Analysis.Outline
	if len(sections) == 0 {
		sections = mockSections
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Offer: %s\n\n", oc.Analysis.Title)
	for _, s := range sections {
		fmt.Fprintf(&sb, "## %s\n\n", s)
		switch strings.ToLower(s) {
		case "understanding of the assignment":
			sb.WriteString(oc.Analysis.Summary + "\n\n")
		case "relevant references", "team", "approach and methods":
			for _, e := range oc.Knowledge {
				fmt.Fprintf(&sb, "- %s (%s)\n", e.Title, e.Category)
			}
			sb.WriteString("\n")
		default:
			sb.WriteString("To be completed.\n\n")
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (m *mockClient) Rewrite(ctx context.Context, text, instruction string) (_ string, err error) {
	defer metrics.ObserveAI(OpRewrite, time.Now(), &err)
	return strings.TrimSpace(text), nil
}

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

func firstLine(text string) string {
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(strings.TrimLeft(l, "# ")); l != "" {
			return clip(l, 120)
		}
	}
	return ""
}

func firstParagraph(text string, max int) string {
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = collapse(p); p != "" {
			return clip(p, max)
		}
	}
	return ""
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

var stopwords = map[string]bool{
	"about": true, "after": true, "their": true, "there": true, "these": true, "which": true,
	"where": true, "while": true, "would": true, "should": true, "could": true, "other": true,
	"with": true, "from": true, "that": true, "this": true, "have": true, "will": true, "shall": true,
}

// keywords returns the n most frequent words longer than four letters.
func keywords(text string, n int) []string {
	counts := map[string]int{}
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) > 4 && !stopwords[w] {
			counts[w]++
		}
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
