package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
)

const (
	sheetName = "Funnel Dashboard"

	noteText = "Please note that this funnel describes the journey of a user and not a consent request."

	// First body row in the sheet; rows 1-7 hold the summary block and the
	// two-level header.
	bodyStart = 8
)

// Cell backgrounds of the fixed report layout.
const (
	fillHeaderGray  = "#D9D9D9"
	fillSuccess     = "#AAECC6"
	fillDropoffDark = "#F5C8A7"
	fillDropoffSoft = "#FAE4D3"
)

// Exporter renders a funnel table into the fixed styled workbook layout.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

type styleSet struct {
	gray      int
	green     int
	dark      int
	light     int
	border    int
	noteGray  int
	notePlain int
	stageGray int
}

// Render produces the styled workbook for one funnel table.
func (e *Exporter) Render(table domain.FunnelTable) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	widths := []struct {
		col   string
		width float64
	}{
		{"A", 45}, {"B", 45}, {"C", 14}, {"D", 15}, {"E", 55}, {"F", 14}, {"G", 16},
	}
	for _, w := range widths {
		if err := f.SetColWidth(sheetName, w.col, w.col, w.width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := e.writeSummary(f, styles, table); err != nil {
		return nil, err
	}
	if err := e.writeHeader(f, styles); err != nil {
		return nil, err
	}
	if err := e.writeBody(f, styles, table.Rows); err != nil {
		return nil, err
	}
	return f, nil
}

// Write renders the table and saves the workbook at path.
func (e *Exporter) Write(table domain.FunnelTable, path string) error {
	f, err := e.Render(table)
	if err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write workbook %s: %w", path, err)
	}
	return f.Close()
}

func (e *Exporter) writeSummary(f *excelize.File, styles styleSet, table domain.FunnelTable) error {
	// Row 1 stays blank as a spacer.
	f.SetCellValue(sheetName, "A2", "Summary")
	f.SetCellValue(sheetName, "B2", "% of initial users")
	if err := f.SetCellStyle(sheetName, "A2", "B2", styles.gray); err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "D2", "E2"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "D2", "Note")
	if err := f.SetCellStyle(sheetName, "D2", "E2", styles.noteGray); err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A3", "Percentage of initial users who approved the consent")
	f.SetCellValue(sheetName, "B3", table.ApprovedPct)
	f.SetCellValue(sheetName, "A4", "Percentage of initial users who shared their data")
	f.SetCellValue(sheetName, "B4", table.SharedPct)
	if err := f.SetCellStyle(sheetName, "A3", "B4", styles.border); err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "D3", "E3"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "D3", noteText)
	return f.SetCellStyle(sheetName, "D3", "E3", styles.notePlain)
}

func (e *Exporter) writeHeader(f *excelize.File, styles styleSet) error {
	// Two-level header: a merged band naming the two sides, then the columns.
	if err := f.MergeCell(sheetName, "C6", "D6"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "C6", "Successful Users")
	if err := f.SetCellStyle(sheetName, "C6", "D6", styles.gray); err != nil {
		return err
	}
	if err := f.MergeCell(sheetName, "F6", "G6"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "F6", "Dropped off Users")
	if err := f.SetCellStyle(sheetName, "F6", "G6", styles.gray); err != nil {
		return err
	}

	headers := []string{"Stage", "Positive Action", "Count", "% of initial users", "Dropoff Cause", "Count", "% of initial users"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 7)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, h)
	}
	return f.SetCellStyle(sheetName, "A7", "G7", styles.gray)
}

func (e *Exporter) writeBody(f *excelize.File, styles styleSet, rows []domain.FunnelRow) error {
	for i, row := range rows {
		r := bodyStart + i

		f.SetCellValue(sheetName, cell("A", r), row.Stage)
		f.SetCellValue(sheetName, cell("B", r), row.PositiveAction)
		setMetric(f, cell("C", r), cell("D", r), row.Success)
		f.SetCellValue(sheetName, cell("E", r), row.DropoffCause)
		setMetric(f, cell("F", r), cell("G", r), row.Dropoff)

		if err := f.SetCellStyle(sheetName, cell("A", r), cell("A", r), styles.gray); err != nil {
			return err
		}
		if row.Sub {
			if err := f.SetCellStyle(sheetName, cell("B", r), cell("D", r), styles.border); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, cell("E", r), cell("E", r), styles.light); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, cell("F", r), cell("G", r), styles.border); err != nil {
				return err
			}
		} else {
			if err := f.SetCellStyle(sheetName, cell("B", r), cell("D", r), styles.green); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, cell("E", r), cell("G", r), styles.dark); err != nil {
				return err
			}
		}
	}

	// Stretch each stage name over its sub-dropoff rows.
	for i := 0; i < len(rows); {
		if rows[i].Sub {
			i++
			continue
		}
		subs := 0
		for i+subs+1 < len(rows) && rows[i+subs+1].Sub {
			subs++
		}
		if subs > 0 {
			top := cell("A", bodyStart+i)
			bottom := cell("A", bodyStart+i+subs)
			if err := f.MergeCell(sheetName, top, bottom); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, top, bottom, styles.stageGray); err != nil {
				return err
			}
		}
		i += subs + 1
	}
	return nil
}

// setMetric writes a count/percentage pair, leaving unmeasured cells blank
// rather than zero.
func setMetric(f *excelize.File, countCell, pctCell string, m domain.Metric) {
	if !m.Valid {
		f.SetCellValue(sheetName, countCell, "")
		f.SetCellValue(sheetName, pctCell, "")
		return
	}
	f.SetCellValue(sheetName, countCell, m.Count)
	f.SetCellValue(sheetName, pctCell, m.Pct)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func newStyleSet(f *excelize.File) (styleSet, error) {
	border := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}
	align := &excelize.Alignment{Horizontal: "left", Vertical: "center"}
	wrapAlign := &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true}

	filled := func(color string, alignment *excelize.Alignment) (int, error) {
		return f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border:    border,
			Alignment: alignment,
		})
	}

	var (
		s   styleSet
		err error
	)
	if s.gray, err = filled(fillHeaderGray, align); err != nil {
		return s, err
	}
	if s.green, err = filled(fillSuccess, align); err != nil {
		return s, err
	}
	if s.dark, err = filled(fillDropoffDark, align); err != nil {
		return s, err
	}
	if s.light, err = filled(fillDropoffSoft, align); err != nil {
		return s, err
	}
	if s.border, err = f.NewStyle(&excelize.Style{Border: border, Alignment: align}); err != nil {
		return s, err
	}
	if s.noteGray, err = filled(fillHeaderGray, wrapAlign); err != nil {
		return s, err
	}
	if s.notePlain, err = f.NewStyle(&excelize.Style{Border: border, Alignment: wrapAlign}); err != nil {
		return s, err
	}
	if s.stageGray, err = filled(fillHeaderGray, wrapAlign); err != nil {
		return s, err
	}
	return s, nil
}
