package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/metrics"
)

type fakeCompleter struct {
	reply string
	err   error
	last  ChatRequest
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, req ChatRequest) (string, error) {
	f.last = req
	return f.reply, f.err
}

func TestSummarizeDocument_ParsesFencedJSON(t *testing.T) {
	fc := &fakeCompleter{reply: "Here you go:\n```json\n{\"title\":\"Harbour Park\",\"summary\":\"Park design.\",\"tags\":[\"Landscape\",\"park\"],\"client_name\":\"City of Oslo\",\"start_date\":\"2023-04-01\",}\n```"}
	c := New(fc, nil, nil)

	s, err := c.SummarizeDocument(context.Background(), entities.CategoryProject, "harbour.pdf", "some text")
	require.NoError(t, err)
	assert.Equal(t, "Harbour Park", s.Title)
	assert.Equal(t, "City of Oslo", s.ClientName)
	assert.True(t, fc.last.JSON)
	assert.Contains(t, fc.last.User, `category "project"`)
	assert.Contains(t, fc.last.User, "client_name")
	assert.Contains(t, fc.last.User, "harbour.pdf")

	e := s.ToEntry(entities.CategoryProject)
	assert.Equal(t, []string{"landscape", "park"}, e.Tags)
	require.NotNil(t, e.StartDate)
	assert.Equal(t, 2023, e.StartDate.Year())
}

func TestSummarizeDocument_FallsBackToFilenameTitle(t *testing.T) {
	c := New(&fakeCompleter{reply: `{"summary":"x"}`}, nil, nil)
	s, err := c.SummarizeDocument(context.Background(), entities.CategoryMethod, "design_sprint-guide.docx", "text")
	require.NoError(t, err)
	assert.Equal(t, "design sprint guide", s.Title)
}

func TestSummarizeDocument_Errors(t *testing.T) {
	c := New(&fakeCompleter{reply: "no json here"}, nil, nil)
	_, err := c.SummarizeDocument(context.Background(), entities.CategoryClient, "a.txt", "text")
	assert.True(t, IsFatal(err))

	_, err = c.SummarizeDocument(context.Background(), entities.CategoryClient, "a.txt", "   ")
	assert.True(t, IsFatal(err))

	boom := NewTransientError(errors.New("boom"))
	c = New(&fakeCompleter{err: boom}, nil, nil)
	_, err = c.SummarizeDocument(context.Background(), entities.CategoryClient, "a.txt", "text")
	assert.ErrorIs(t, err, boom)
}

func TestOutlineOffer_AcceptsObjectOrArray(t *testing.T) {
	oc := OfferContext{Analysis: &entities.TenderAnalysis{Title: "School", Summary: "New school"}}

	c := New(&fakeCompleter{reply: `{"sections":["## Approach","Team",""]}`}, nil, nil)
	got, err := c.OutlineOffer(context.Background(), oc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Approach", "Team"}, got)

	c = New(&fakeCompleter{reply: `["Intro","Price"]`}, nil, nil)
	got, err = c.OutlineOffer(context.Background(), oc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro", "Price"}, got)
}

func TestDraftOffer_RendersBriefAndStripsFence(t *testing.T) {
	deadline := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	fc := &fakeCompleter{reply: "```markdown\n## Approach\nWe will.\n```"}
	c := New(fc, nil, nil)
	oc := OfferContext{
		Analysis: &entities.TenderAnalysis{
			Title: "Library", ClientName: "Bergen", Deadline: &deadline,
			Requirements: []string{"Universal design"}, Outline: []string{"Approach"},
		},
		Knowledge: []entities.KnowledgeEntry{{Category: entities.CategoryMethod, Title: "Co-design", Summary: "Workshops"}},
	}

	md, err := c.DraftOffer(context.Background(), oc)
	require.NoError(t, err)
	assert.Equal(t, "## Approach\nWe will.", md)
	assert.False(t, fc.last.JSON)
	for _, want := range []string{"TENDER: Library", "DEADLINE: 2025-03-01", "- Universal design", "[method] Co-design: Workshops"} {
		assert.Contains(t, fc.last.User, want)
	}
}

func TestParsePrompts_RequiresEveryOperation(t *testing.T) {
	_, err := ParsePrompts([]byte("rewrite:\n  user: hi\n"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing"))

	p := MustDefaultPrompts()
	req, err := p.Render(OpRewrite, map[string]any{"Text": "abc", "Instruction": "shorter"})
	require.NoError(t, err)
	assert.Contains(t, req.User, "Instruction: shorter")
	assert.NotEmpty(t, req.System)
}

func TestMock_AnalyzeTenderAndDraft(t *testing.T) {
	m := NewMock()
	text := "New City Library\nClient: Bergen kommune\nDeadline: 2025-06-01\n\nThe library must be accessible.\n- Universal design\n- Timber structure\n"
	b, err := m.AnalyzeTender(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "New City Library", b.Title)
	assert.Equal(t, "Bergen kommune", b.ClientName)
	assert.Equal(t, "2025-06-01", b.Deadline)
	assert.Contains(t, b.Requirements, "Universal design")
	assert.NotEmpty(t, b.Keywords)

	md, err := m.DraftOffer(context.Background(), OfferContext{Analysis: &entities.TenderAnalysis{Title: b.Title, Summary: b.Summary}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# Offer: New City Library"))
}

func TestMock_CountsCalls(t *testing.T) {
	okCalls := metrics.AICalls.WithLabelValues(OpRewrite, "ok")
	failedCalls := metrics.AICalls.WithLabelValues(OpAnalyzeTender, "error")
	ok0, failed0 := testutil.ToFloat64(okCalls), testutil.ToFloat64(failedCalls)

	m := NewMock()
	_, err := m.Rewrite(context.Background(), " text ", "shorter")
	require.NoError(t, err)
	_, err = m.AnalyzeTender(context.Background(), "   ")
	require.Error(t, err)

	assert.Equal(t, ok0+1, testutil.ToFloat64(okCalls))
	assert.Equal(t, failed0+1, testutil.ToFloat64(failedCalls))
}

func TestTruncateForPrompt(t *testing.T) {
	long := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
	out := truncateForPrompt(long, 100)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 60)))
	assert.True(t, strings.HasSuffix(out, "[Content truncated...]"))
	assert.Equal(t, "short", truncateForPrompt("short", 100))
}
