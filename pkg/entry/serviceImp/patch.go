package serviceImp

import (
	"strings"
	"time"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/service"
)

func patchDate(field string, v *string, dst **time.Time) error {
	if v == nil {
		return nil
	}
	if strings.TrimSpace(*v) == "" {
		*dst = nil
		return nil
	}
	t := entities.ParseDate(*v)
	if t == nil {
		return apperr.Invalidf("%s: expected YYYY-MM-DD, got %q", field, *v)
	}
	*dst = t
	return nil
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setList(dst *[]string, v *[]string) {
	if v != nil {
		*dst = *v
	}
}

func applyPatch(cur *entities.KnowledgeEntry, p service.EntryPatch) error {
	setStr(&cur.Title, p.Title)
	setStr(&cur.Description, p.Description)
	setStr(&cur.Summary, p.Summary)
	setList(&cur.Tags, p.Tags)
	setStr(&cur.Status, p.Status)

	setStr(&cur.ClientName, p.ClientName)
	setStr(&cur.Location, p.Location)
	if err := patchDate("start_date", p.StartDate, &cur.StartDate); err != nil {
		return err
	}
	if err := patchDate("end_date", p.EndDate, &cur.EndDate); err != nil {
		return err
	}

	if err := patchDate("deadline", p.Deadline, &cur.Deadline); err != nil {
		return err
	}
	if p.Value != nil {
		cur.Value = p.Value
	}
	setStr(&cur.Currency, p.Currency)
	setStr(&cur.OfferStatus, p.OfferStatus)

	setStr(&cur.Domain, p.Domain)
	setList(&cur.Steps, p.Steps)

	setStr(&cur.Industry, p.Industry)
	setStr(&cur.Website, p.Website)

	setStr(&cur.Role, p.Role)
	setStr(&cur.Email, p.Email)
	setStr(&cur.Phone, p.Phone)
	setList(&cur.Expertise, p.Expertise)
	return nil
}
