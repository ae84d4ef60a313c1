package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/events"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/link"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/service"
)

func (s *Svc) GetDraft(id uint) (*entities.Draft, error) {
	d, err := s.r.FindDraft(id)
	return d, draftNotFound(err, id)
}

func (s *Svc) DraftForAnalysis(analysisID uint) (*entities.Draft, error) {
	if _, err := s.analysis(analysisID); err != nil {
		return nil, err
	}
	d, err := s.r.DraftByAnalysis(analysisID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("draft for analysis", analysisID)
	}
	return d, err
}

func (s *Svc) save(ctx context.Context, draftID uint, content, title, editor, note string, base int) (*service.SaveResult, error) {
	d, prev, err := s.r.SaveVersion(draftID, content, strings.TrimSpace(title), editor, note)
	if err != nil {
		return nil, draftNotFound(err, draftID)
	}
	res := &service.SaveResult{
		Draft:           d,
		Version:         d.Version,
		PreviousVersion: prev,
		Stale:           base > 0 && base < prev,
	}
	if res.Stale {
		s.log.Info("stale draft save", zap.Uint("draft_id", d.ID), zap.Int("base", base),
			zap.Int("overwrote", prev), zap.String("editor", editor))
	}
	s.pub.Publish(ctx, events.DraftSaved, map[string]any{
		"draft_id": d.ID, "analysis_id": d.AnalysisID, "version": d.Version, "editor": editor, "stale": res.Stale,
	})
	return res, nil
}

// SaveDraft always writes; a stale base version is reported, not rejected.
// The editing lock is not consulted.
func (s *Svc) SaveDraft(ctx context.Context, draftID uint, in service.SaveInput, editor string) (*service.SaveResult, error) {
	if in.BaseVersion < 0 {
		return nil, apperr.Invalid("base_version must not be negative")
	}
	return s.save(ctx, draftID, in.Content, in.Title, editor, strings.TrimSpace(in.Note), in.BaseVersion)
}

func (s *Svc) ListVersions(draftID uint) ([]entities.DraftVersion, error) {
	if _, err := s.GetDraft(draftID); err != nil {
		return nil, err
	}
	vs, err := s.r.ListVersions(draftID)
	if vs == nil && err == nil {
		vs = []entities.DraftVersion{}
	}
	return vs, err
}

func (s *Svc) GetVersion(draftID uint, version int) (*entities.DraftVersion, error) {
	v, err := s.r.GetVersion(draftID, version)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("draft %d version", draftID), version)
	}
	return v, err
}

// RestoreVersion saves the content of an old version as a new version.
func (s *Svc) RestoreVersion(ctx context.Context, draftID uint, version int, editor string) (*service.SaveResult, error) {
	v, err := s.GetVersion(draftID, version)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, draftID, v.Content, "", editor, fmt.Sprintf("restored from version %d", version), 0)
}

func (s *Svc) lockState(d *entities.Draft) *service.LockState {
	if d.EditingBy == "" || d.EditingSince == nil {
		return &service.LockState{}
	}
	exp := d.EditingSince.Add(s.ttl)
	if s.now().After(exp) {
		return &service.LockState{}
	}
	return &service.LockState{Held: true, EditingBy: d.EditingBy, EditingSince: d.EditingSince, ExpiresAt: &exp}
}

// ClaimLock takes the advisory lock when it is free, expired, already held
// by editor (a heartbeat) or force is set. Otherwise it reports the holder
// as a conflict and writes nothing.
func (s *Svc) ClaimLock(draftID uint, editor string, force bool) (*service.LockState, error) {
	editor = strings.TrimSpace(editor)
	if editor == "" {
		return nil, apperr.Invalid("editor is required")
	}
	d, err := s.GetDraft(draftID)
	if err != nil {
		return nil, err
	}
	cur := s.lockState(d)
	if cur.Held && cur.EditingBy != editor && !force {
		cur.Conflict = true
		return cur, nil
	}
	now := s.now().UTC()
	if err := s.r.SetLock(draftID, editor, &now); err != nil {
		return nil, draftNotFound(err, draftID)
	}
	if cur.Held && cur.EditingBy != editor {
		s.log.Info("editing lock taken over", zap.Uint("draft_id", draftID),
			zap.String("from", cur.EditingBy), zap.String("to", editor))
	}
	exp := now.Add(s.ttl)
	return &service.LockState{Held: true, EditingBy: editor, EditingSince: &now, ExpiresAt: &exp}, nil
}

// ReleaseLock clears the caller's lock. Another editor's live lock is left
// alone unless force is set.
func (s *Svc) ReleaseLock(draftID uint, editor string, force bool) (*service.LockState, error) {
	d, err := s.GetDraft(draftID)
	if err != nil {
		return nil, err
	}
	cur := s.lockState(d)
	if cur.Held && cur.EditingBy != strings.TrimSpace(editor) && !force {
		cur.Conflict = true
		return cur, nil
	}
	if d.EditingBy != "" {
		if err := s.r.SetLock(draftID, "", nil); err != nil {
			return nil, draftNotFound(err, draftID)
		}
	}
	return &service.LockState{}, nil
}

func (s *Svc) LockStatus(draftID uint) (*service.LockState, error) {
	d, err := s.GetDraft(draftID)
	if err != nil {
		return nil, err
	}
	return s.lockState(d), nil
}

// FinalizeDraft turns the draft into an offer entry linked to the selected
// knowledge and the tender's client.
func (s *Svc) FinalizeDraft(ctx context.Context, draftID uint, user string) (*service.FinalizeResult, error) {
	d, err := s.GetDraft(draftID)
	if err != nil {
		return nil, err
	}
	a, err := s.analysis(d.AnalysisID)
	if err != nil {
		return nil, err
	}
	if err := finalized(a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Content) == "" {
		return nil, apperr.Invalid("draft is empty")
	}

	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = strings.TrimSpace(d.Title)
	}
	tags := a.Keywords
	if len(tags) > 8 {
		tags = tags[:8]
	}
	offer, err := s.entries.Create(ctx, &entities.KnowledgeEntry{
		Category:         entities.CategoryOffer,
		Title:            title,
		Description:      d.Content,
		Summary:          a.Summary,
		Tags:             tags,
		Deadline:         a.Deadline,
		OfferStatus:      "pending",
		SourceDocumentID: a.DocumentID,
	}, user)
	if err != nil {
		return nil, err
	}

	a.Status = entities.AnalysisFinalized
	a.OfferEntryID = &offer.ID
	if err := s.r.UpdateAnalysis(a); err != nil {
		return nil, err
	}

	linked := s.linkOffer(offer, a)
	s.log.Info("draft finalized", zap.Uint("draft_id", d.ID), zap.Uint("offer_id", offer.ID), zap.Int("links", len(linked)))
	s.pub.Publish(ctx, events.DraftFinalized, map[string]any{
		"draft_id": d.ID, "analysis_id": a.ID, "offer_entry_id": offer.ID, "linked_ids": linked,
	})
	return &service.FinalizeResult{Analysis: a, Offer: offer, LinkedIDs: linked}, nil
}

// linkOffer links the offer to every selected entry whose category pairs
// with offers, plus the client named in the analysis. Failed links are
// logged and skipped; the offer already exists.
func (s *Svc) linkOffer(offer *entities.KnowledgeEntry, a *entities.TenderAnalysis) []uint {
	linked := []uint{}
	done := map[uint]bool{}
	try := func(e entities.KnowledgeEntry) {
		if done[e.ID] {
			return
		}
		if _, ok := link.KindFor(entities.CategoryOffer, e.Category); !ok {
			return
		}
		if err := s.links.Link(offer.ID, e.ID); err != nil {
			s.log.Warn("link offer", zap.Uint("offer_id", offer.ID), zap.Uint("entry_id", e.ID), zap.Error(err))
			return
		}
		done[e.ID] = true
		linked = append(linked, e.ID)
	}

	selected, err := s.r.EntriesByIDs(a.SelectedEntryIDs)
	if err != nil {
		s.log.Warn("load selected entries", zap.Error(err))
	}
	for _, e := range selected {
		try(e)
	}
	if name := strings.TrimSpace(a.ClientName); name != "" {
		if c, err := s.entries.FindByTitle(entities.CategoryClient, name); err == nil {
			try(*c)
		}
	}
	return linked
}
