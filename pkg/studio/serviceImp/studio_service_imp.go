package serviceImp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/ai"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/events"
	searchsvc "github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/service"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/repository"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/service"
)

const (
	defaultSuggestions = 8
	maxSuggestions     = 30
	defaultLockTTL     = 2 * time.Minute
)

// suggestCategories are the entry kinds an offer draws on.
var suggestCategories = []string{
	entities.CategoryMethod, entities.CategoryProject, entities.CategoryPerson, entities.CategoryClient,
}

type Searcher interface {
	Search(ctx context.Context, query string, k int, categories []string) ([]searchsvc.Hit, error)
}

type Documents interface {
	Text(id uint) (string, error)
}

type Entries interface {
	Create(ctx context.Context, e *entities.KnowledgeEntry, user string) (*entities.KnowledgeEntry, error)
	FindByTitle(category, title string) (*entities.KnowledgeEntry, error)
}

type Linker interface {
	Link(a, b uint) error
}

type Deps struct {
	Repo    repository.StudioRepository
	LLM     ai.Client
	Search  Searcher
	Docs    Documents
	Entries Entries
	Links   Linker
	Events  events.Publisher
	LockTTL time.Duration
	Log     *zap.Logger
	Now     func() time.Time
}

type Svc struct {
	r       repository.StudioRepository
	llm     ai.Client
	search  Searcher
	docs    Documents
	entries Entries
	links   Linker
	pub     events.Publisher
	ttl     time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func New(d Deps) *Svc {
	s := &Svc{
		r: d.Repo, llm: d.LLM, search: d.Search, docs: d.Docs, entries: d.Entries, links: d.Links,
		pub: d.Events, ttl: d.LockTTL, log: d.Log, now: d.Now,
	}
	if s.pub == nil {
		s.pub = events.Nop()
	}
	if s.ttl <= 0 {
		s.ttl = defaultLockTTL
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("studio")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

var _ service.StudioService = (*Svc)(nil)

func analysisNotFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("analysis", id)
	}
	return err
}

func draftNotFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("draft", id)
	}
	return err
}

func finalized(a *entities.TenderAnalysis) error {
	if a.Status == entities.AnalysisFinalized {
		details := map[string]any{"analysis_id": a.ID}
		if a.OfferEntryID != nil {
			details["offer_entry_id"] = *a.OfferEntryID
		}
		return apperr.Conflict("analysis is already finalized", details)
	}
	return nil
}

func (s *Svc) analysis(id uint) (*entities.TenderAnalysis, error) {
	a, err := s.r.FindAnalysis(id)
	return a, analysisNotFound(err, id)
}

func (s *Svc) AnalyzeTender(ctx context.Context, in service.AnalyzeInput, user string) (*entities.TenderAnalysis, error) {
	text := in.Text
	if in.DocumentID != nil {
		t, err := s.docs.Text(*in.DocumentID)
		if err != nil {
			return nil, err
		}
		text = t
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Invalid("document_id or text is required")
	}

	brief, err := s.llm.AnalyzeTender(ctx, text)
	if err != nil {
		return nil, apperr.Upstream("analyze tender", err)
	}
	title := strings.TrimSpace(brief.Title)
	if title == "" {
		title = "Untitled tender"
	}
	a := &entities.TenderAnalysis{
		DocumentID:         in.DocumentID,
		Title:              title,
		ClientName:         strings.TrimSpace(brief.ClientName),
		Deadline:           entities.ParseDate(brief.Deadline),
		Summary:            strings.TrimSpace(brief.Summary),
		Requirements:       brief.Requirements,
		EvaluationCriteria: brief.EvaluationCriteria,
		Deliverables:       brief.Deliverables,
		Keywords:           brief.Keywords,
		Status:             entities.AnalysisAnalyzed,
		CreatedBy:          user,
	}
	if err := s.r.CreateAnalysis(a); err != nil {
		return nil, err
	}
	s.log.Info("tender analyzed", zap.Uint("analysis_id", a.ID), zap.Int("requirements", len(a.Requirements)))
	s.pub.Publish(ctx, events.AnalysisCreated, map[string]any{"id": a.ID, "title": a.Title, "created_by": user})
	return a, nil
}

func (s *Svc) ListAnalyses() ([]entities.TenderAnalysis, error) {
	as, err := s.r.ListAnalyses()
	if as == nil && err == nil {
		as = []entities.TenderAnalysis{}
	}
	return as, err
}

func (s *Svc) GetAnalysis(id uint) (*entities.TenderAnalysis, error) { return s.analysis(id) }

func (s *Svc) DeleteAnalysis(ctx context.Context, id uint) error {
	return analysisNotFound(s.r.DeleteAnalysis(id), id)
}

func suggestQuery(a *entities.TenderAnalysis) string {
	parts := []string{a.Title}
	parts = append(parts, a.Keywords...)
	reqs := a.Requirements
	if len(reqs) > 5 {
		reqs = reqs[:5]
	}
	parts = append(parts, reqs...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (s *Svc) SuggestKnowledge(ctx context.Context, analysisID uint, k int) ([]service.Suggestion, error) {
	a, err := s.analysis(analysisID)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = defaultSuggestions
	}
	if k > maxSuggestions {
		k = maxSuggestions
	}
	q := suggestQuery(a)
	if q == "" {
		return []service.Suggestion{}, nil
	}
	hits, err := s.search.Search(ctx, q, k, suggestCategories)
	if err != nil {
		return nil, err
	}
	out := make([]service.Suggestion, 0, len(hits))
	for _, h := range hits {
		out = append(out, service.Suggestion{Entry: h.Entry, Score: h.Score, Snippet: h.Snippet})
	}
	return out, nil
}

func (s *Svc) SelectKnowledge(ctx context.Context, analysisID uint, ids []uint) (*entities.TenderAnalysis, error) {
	a, err := s.analysis(analysisID)
	if err != nil {
		return nil, err
	}
	if err := finalized(a); err != nil {
		return nil, err
	}
	seen := map[uint]bool{}
	uniq := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	found, err := s.r.EntriesByIDs(uniq)
	if err != nil {
		return nil, err
	}
	if len(found) != len(uniq) {
		have := map[uint]bool{}
		for _, e := range found {
			have[e.ID] = true
		}
		var missing []uint
		for _, id := range uniq {
			if !have[id] {
				missing = append(missing, id)
			}
		}
		return nil, apperr.New(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown entry ids",
			map[string]any{"invalid_ids": missing})
	}
	a.SelectedEntryIDs = uniq
	a.Status = entities.AnalysisKnowledgeSelected
	if err := s.r.UpdateAnalysis(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Svc) offerContext(a *entities.TenderAnalysis) (ai.OfferContext, error) {
	knowledge, err := s.r.EntriesByIDs(a.SelectedEntryIDs)
	if err != nil {
		return ai.OfferContext{}, err
	}
	return ai.OfferContext{Analysis: a, Knowledge: knowledge}, nil
}

func (s *Svc) outline(ctx context.Context, a *entities.TenderAnalysis) error {
	oc, err := s.offerContext(a)
	if err != nil {
		return err
	}
	sections, err := s.llm.OutlineOffer(ctx, oc)
	if err != nil {
		return apperr.Upstream("outline offer", err)
	}
	if len(sections) == 0 {
		return apperr.Upstream("outline offer", errors.New("model returned no sections"))
	}
	a.Outline = sections
	return nil
}

func (s *Svc) GenerateOutline(ctx context.Context, analysisID uint) (*entities.TenderAnalysis, error) {
	a, err := s.analysis(analysisID)
	if err != nil {
		return nil, err
	}
	if err := finalized(a); err != nil {
		return nil, err
	}
	if err := s.outline(ctx, a); err != nil {
		return nil, err
	}
	a.Status = entities.AnalysisOutlined
	if err := s.r.UpdateAnalysis(a); err != nil {
		return nil, err
	}
	return a, nil
}

// GenerateDraft writes the offer text. A first call creates the draft at
// version 1; later calls add a version to the same draft.
func (s *Svc) GenerateDraft(ctx context.Context, analysisID uint, user string) (*entities.Draft, error) {
	a, err := s.analysis(analysisID)
	if err != nil {
		return nil, err
	}
	if err := finalized(a); err != nil {
		return nil, err
	}
	if len(a.Outline) == 0 {
		if err := s.outline(ctx, a); err != nil {
			return nil, err
		}
	}
	oc, err := s.offerContext(a)
	if err != nil {
		return nil, err
	}
	content, err := s.llm.DraftOffer(ctx, oc)
	if err != nil {
		return nil, apperr.Upstream("draft offer", err)
	}

	title := "Offer: " + a.Title
	d, err := s.r.DraftByAnalysis(a.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		d = &entities.Draft{AnalysisID: a.ID, Title: title, Content: content, UpdatedBy: user}
		if err := s.r.CreateDraft(d, "generated"); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if d, _, err = s.r.SaveVersion(d.ID, content, "", user, "regenerated"); err != nil {
			return nil, err
		}
	}

	a.Status = entities.AnalysisDrafted
	if err := s.r.UpdateAnalysis(a); err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, events.DraftSaved, map[string]any{
		"draft_id": d.ID, "analysis_id": a.ID, "version": d.Version, "editor": user,
	})
	return d, nil
}

func (s *Svc) RewriteSection(ctx context.Context, draftID uint, text, instruction string) (string, error) {
	if _, err := s.GetDraft(draftID); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperr.Invalid("text is required")
	}
	if strings.TrimSpace(instruction) == "" {
		return "", apperr.Invalid("instruction is required")
	}
	out, err := s.llm.Rewrite(ctx, text, instruction)
	if err != nil {
		return "", apperr.Upstream("rewrite section", err)
	}
	return out, nil
}
