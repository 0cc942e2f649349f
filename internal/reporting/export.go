package reporting

import (
	"fmt"
	"io"

	"github.com/globalreino/attendance/backend/internal/records"
	"github.com/xuri/excelize/v2"
)

const historySheet = "Histórico"

var historyHeaders = []string{"Data", "Hora", "Filial", "Presentes", "Decisões", "Visitantes", "Visitantes Kids"}

// WriteHistoryWorkbook streams the full history view as an XLSX workbook,
// most recent record first, one row per meeting.
func WriteHistoryWorkbook(all []records.MeetingRecord, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return fmt.Errorf("reporting: new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("reporting: drop default sheet: %w", err)
	}

	for col, header := range historyHeaders {
		if err := setCell(f, col+1, 1, header); err != nil {
			return err
		}
	}

	for row, r := range History(all) {
		values := []interface{}{r.Date, r.Time, r.BranchID, r.TotalPeople, r.Decisions, r.Visitors, r.KidsVisitors}
		for col, value := range values {
			if err := setCell(f, col+1, row+2, value); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("reporting: write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("reporting: cell name: %w", err)
	}
	if err := f.SetCellValue(historySheet, cell, value); err != nil {
		return fmt.Errorf("reporting: set cell: %w", err)
	}
	return nil
}
