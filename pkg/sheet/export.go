package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

const MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export writes one sheet per category, each with a bold frozen header row.
// Empty categories still get a sheet so the file doubles as an import
// template. categories defaults to all of them.
func Export(entries []entities.KnowledgeEntry, categories []string) (*excelize.File, error) {
	if len(categories) == 0 {
		categories = entities.Categories
	}
	rows := map[string][]*entities.KnowledgeEntry{}
	for i := range entries {
		e := &entries[i]
		rows[e.Category] = append(rows[e.Category], e)
	}

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	for i, cat := range categories {
		if !entities.ValidCategory(cat) {
			f.Close()
			return nil, fmt.Errorf("unknown category %q", cat)
		}
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), cat)
		} else {
			_, err = f.NewSheet(cat)
		}
		if err == nil {
			err = writeSheet(f, cat, rows[cat], bold)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", cat, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, entries []*entities.KnowledgeEntry, style int) error {
	cols := Columns(sheet)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.Header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	if err := f.SetColWidth(sheet, "A", lastCol, 24); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	for r, e := range entries {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c.get(e)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
