// Package sheet moves knowledge entries in and out of spreadsheets.
package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

const listSep = ";"

// Column is one spreadsheet column bound to an entry field.
type Column struct {
	Header  string
	Aliases []string
	get     func(e *entities.KnowledgeEntry) string
	set     func(e *entities.KnowledgeEntry, v string) error
}

func strCol(header string, aliases []string, field func(e *entities.KnowledgeEntry) *string) Column {
	return Column{Header: header, Aliases: aliases,
		get: func(e *entities.KnowledgeEntry) string { return *field(e) },
		set: func(e *entities.KnowledgeEntry, v string) error { *field(e) = v; return nil },
	}
}

func listCol(header string, aliases []string, field func(e *entities.KnowledgeEntry) *[]string) Column {
	return Column{Header: header, Aliases: aliases,
		get: func(e *entities.KnowledgeEntry) string { return strings.Join(*field(e), listSep+" ") },
		set: func(e *entities.KnowledgeEntry, v string) error { *field(e) = splitList(v); return nil },
	}
}

func dateCol(header string, aliases []string, field func(e *entities.KnowledgeEntry) **time.Time) Column {
	return Column{Header: header, Aliases: aliases,
		get: func(e *entities.KnowledgeEntry) string {
			if t := *field(e); t != nil {
				return t.Format("2006-01-02")
			}
			return ""
		},
		set: func(e *entities.KnowledgeEntry, v string) error {
			if strings.TrimSpace(v) == "" {
				return nil
			}
			t := parseCellDate(v)
			if t == nil {
				return fmt.Errorf("%s: cannot read date %q", strings.ToLower(header), v)
			}
			*field(e) = t
			return nil
		},
	}
}

// splitList accepts ";", "," or newlines between items.
func splitList(v string) []string {
	f := strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == ',' || r == '\n' })
	out := make([]string, 0, len(f))
	for _, s := range f {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseCellDate also reads Excel serial day numbers, which is what a
// date-formatted cell gives back when read raw.
func parseCellDate(v string) *time.Time {
	if t := entities.ParseDate(v); t != nil {
		return t
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && n > 0 && n < 100000 {
		t := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(n))
		return &t
	}
	return nil
}

var common = func() []Column {
	title := strCol("Title", []string{"name", "navn", "tittel"}, func(e *entities.KnowledgeEntry) *string { return &e.Title })
	desc := strCol("Description", []string{"desc", "beskrivelse", "details"}, func(e *entities.KnowledgeEntry) *string { return &e.Description })
	sum := strCol("Summary", []string{"abstract", "sammendrag"}, func(e *entities.KnowledgeEntry) *string { return &e.Summary })
	tags := listCol("Tags", []string{"keywords", "tag", "stikkord"}, func(e *entities.KnowledgeEntry) *[]string { return &e.Tags })
	status := strCol("Status", []string{"state"}, func(e *entities.KnowledgeEntry) *string { return &e.Status })
	return []Column{title, desc, sum, tags, status}
}()

var byCategory = map[string][]Column{
	entities.CategoryProject: {
		strCol("Client", []string{"client_name", "customer", "kunde"}, func(e *entities.KnowledgeEntry) *string { return &e.ClientName }),
		strCol("Location", []string{"place", "sted"}, func(e *entities.KnowledgeEntry) *string { return &e.Location }),
		dateCol("Start date", []string{"start", "from"}, func(e *entities.KnowledgeEntry) **time.Time { return &e.StartDate }),
		dateCol("End date", []string{"end", "to"}, func(e *entities.KnowledgeEntry) **time.Time { return &e.EndDate }),
	},
	entities.CategoryOffer: {
		dateCol("Deadline", []string{"due", "due_date", "frist"}, func(e *entities.KnowledgeEntry) **time.Time { return &e.Deadline }),
		{Header: "Value", Aliases: []string{"amount", "price", "verdi"},
			get: func(e *entities.KnowledgeEntry) string {
				if e.Value == nil {
					return ""
				}
				return strconv.FormatFloat(*e.Value, 'f', -1, 64)
			},
			set: func(e *entities.KnowledgeEntry, v string) error {
				v = strings.ReplaceAll(strings.TrimSpace(v), " ", "")
				if v == "" {
					return nil
				}
				f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
				if err != nil {
					return fmt.Errorf("value: cannot read number %q", v)
				}
				e.Value = &f
				return nil
			},
		},
		strCol("Currency", []string{"valuta"}, func(e *entities.KnowledgeEntry) *string { return &e.Currency }),
		strCol("Offer status", []string{"result", "outcome"}, func(e *entities.KnowledgeEntry) *string { return &e.OfferStatus }),
	},
	entities.CategoryMethod: {
		strCol("Domain", []string{"field", "area"}, func(e *entities.KnowledgeEntry) *string { return &e.Domain }),
		listCol("Steps", []string{"step", "phases"}, func(e *entities.KnowledgeEntry) *[]string { return &e.Steps }),
	},
	entities.CategoryClient: {
		strCol("Industry", []string{"sector", "bransje"}, func(e *entities.KnowledgeEntry) *string { return &e.Industry }),
		strCol("Website", []string{"url", "web", "homepage"}, func(e *entities.KnowledgeEntry) *string { return &e.Website }),
	},
	entities.CategoryPerson: {
		strCol("Role", []string{"position", "rolle"}, func(e *entities.KnowledgeEntry) *string { return &e.Role }),
		strCol("Email", []string{"e-mail", "mail", "epost"}, func(e *entities.KnowledgeEntry) *string { return &e.Email }),
		strCol("Phone", []string{"mobile", "telefon", "tlf"}, func(e *entities.KnowledgeEntry) *string { return &e.Phone }),
		listCol("Expertise", []string{"skills", "kompetanse"}, func(e *entities.KnowledgeEntry) *[]string { return &e.Expertise }),
	},
}

// Columns lists the columns written for a category, common ones first.
func Columns(category string) []Column {
	out := append([]Column(nil), common...)
	return append(out, byCategory[category]...)
}

// normHeader folds case, BOM, spaces, dashes and underscores.
func normHeader(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
