package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
)

// ImportResult holds the parsed rows. Skipped counts rows without a title.
type ImportResult struct {
	Entries []entities.KnowledgeEntry
	Skipped int
}

// Import reads a CSV or XLSX file (chosen by extension) into entries.
// Headers are matched through Columns and their aliases. When category is
// empty every row must name one in a "Category" column.
func Import(filename string, r io.Reader, category string) (*ImportResult, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category != "" && !entities.ValidCategory(category) {
		return nil, apperr.Invalidf("unknown category %q", category)
	}
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r, category)
	default:
		return nil, apperr.Invalidf("unsupported sheet type %q, want .csv or .xlsx", ext)
	}
	if err != nil {
		return nil, apperr.Invalidf("read %s: %v", filepath.Base(filename), err)
	}
	if len(rows) == 0 {
		return nil, apperr.Invalid("sheet is empty")
	}
	return parseRows(rows, category)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

// readXLSX prefers a sheet named after the category and falls back to the
// first sheet.
func readXLSX(r io.Reader, category string) ([][]string, error) {
	x, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer x.Close()
	list := x.GetSheetList()
	if len(list) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := list[0]
	for _, name := range list {
		if category != "" && strings.EqualFold(strings.TrimSpace(name), category) {
			sheet = name
			break
		}
	}
	return x.GetRows(sheet)
}

func parseRows(rows [][]string, category string) (*ImportResult, error) {
	hmap := map[string]int{}
	for i, h := range rows[0] {
		if k := normHeader(h); k != "" {
			if _, dup := hmap[k]; !dup {
				hmap[k] = i
			}
		}
	}
	findAny := func(keys ...string) int {
		for _, k := range keys {
			if idx, ok := hmap[normHeader(k)]; ok {
				return idx
			}
		}
		return -1
	}

	catCol := findAny("Category", "type", "kategori")
	if category == "" && catCol == -1 {
		return nil, apperr.Invalid("no category given and the sheet has no Category column")
	}
	titleCol := findAny(append([]string{common[0].Header}, common[0].Aliases...)...)
	if titleCol == -1 {
		return nil, apperr.Invalidf("sheet has no Title column; found headers %v", rows[0])
	}

	// resolve column indexes once per category that shows up
	bound := map[string][]int{}
	indexes := func(cat string) []int {
		if idx, ok := bound[cat]; ok {
			return idx
		}
		cols := Columns(cat)
		idx := make([]int, len(cols))
		for i, c := range cols {
			idx[i] = findAny(append([]string{c.Header}, c.Aliases...)...)
		}
		bound[cat] = idx
		return idx
	}

	res := &ImportResult{Entries: []entities.KnowledgeEntry{}}
	for n, rec := range rows[1:] {
		line := n + 2
		get := func(idx int) string {
			if idx < 0 || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		if get(titleCol) == "" {
			res.Skipped++
			continue
		}
		cat := category
		if cat == "" {
			cat = strings.ToLower(get(catCol))
			if !entities.ValidCategory(cat) {
				return nil, apperr.Invalidf("row %d: unknown category %q", line, get(catCol))
			}
		}
		e := entities.KnowledgeEntry{Category: cat}
		for i, c := range Columns(cat) {
			idx := indexes(cat)[i]
			if idx == -1 {
				continue
			}
			if err := c.set(&e, get(idx)); err != nil {
				return nil, apperr.Invalidf("row %d: %v", line, err)
			}
		}
		e.Normalize()
		res.Entries = append(res.Entries, e)
	}
	return res, nil
}

// Creator stores one imported entry.
type Creator interface {
	Create(ctx context.Context, e *entities.KnowledgeEntry, user string) (*entities.KnowledgeEntry, error)
}

// Load creates every entry in order and keeps going past failures. The
// returned errors name the failing titles.
func Load(ctx context.Context, c Creator, entries []entities.KnowledgeEntry, user string) (int, []error) {
	created := 0
	var errs []error
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return created, append(errs, err)
		}
		if _, err := c.Create(ctx, &entries[i], user); err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", entries[i].Title, err))
			continue
		}
		created++
	}
	return created, errs
}
