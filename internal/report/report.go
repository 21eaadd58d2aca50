// Package report exports a compose/rebase trace to an .xlsx workbook via
// github.com/xuri/excelize/v2, for human review of a CLI session's
// history alongside internal/auditlog's raw call log.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"github.com/kasuganosora/seqfield/pkg/mark"
)

// Row is one before/after line of a single operator call: the operator's
// two input marks (as rendered summaries) and the output mark they
// produced.
type Row struct {
	Operator string
	Before1  mark.Mark
	Before2  mark.Mark
	After    mark.Mark
}

const sheetName = "trace"

// WriteTrace renders rows to an xlsx workbook at path, one worksheet row
// per Row plus a header.
func WriteTrace(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetName)
	headers := []string{"#", "operator", "before (base/change)", "before (next/over)", "after"}
	for i, h := range headers {
		cellRef, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("report: header cell %d: %w", i, err)
		}
		if err := f.SetCellValue(sheetName, cellRef, h); err != nil {
			return fmt.Errorf("report: writing header %d: %w", i, err)
		}
	}

	for i, r := range rows {
		row := i + 2
		values := []any{i, r.Operator, summarize(r.Before1), summarize(r.Before2), summarize(r.After)}
		for col, v := range values {
			cellRef, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("report: row %d cell %d: %w", i, col, err)
			}
			if err := f.SetCellValue(sheetName, cellRef, v); err != nil {
				return fmt.Errorf("report: writing row %d cell %d: %w", i, col, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: saving %s: %w", path, err)
	}
	return nil
}

// summarize renders a mark as a short human-readable string: its effect
// kind, count, and (when present) the atom ID it carries.
func summarize(m mark.Mark) string {
	if m.Effect == nil {
		return ""
	}
	id := effectAtom(m.Effect)
	if id == "" {
		return fmt.Sprintf("%s x%d", m.Effect.Kind(), m.Count)
	}
	return fmt.Sprintf("%s(%s) x%d", m.Effect.Kind(), id, m.Count)
}

func effectAtom(e mark.Effect) string {
	switch v := e.(type) {
	case mark.InsertEffect:
		return v.ID.String()
	case mark.RemoveEffect:
		return v.ID.String()
	case mark.MoveOutEffect:
		return v.ID.String()
	case mark.MoveInEffect:
		return v.ID.String()
	case mark.PinEffect:
		return v.ID.String()
	case mark.AttachAndDetachEffect:
		return effectAtom(v.Attach) + "->" + effectAtom(v.Detach)
	default:
		return ""
	}
}
