package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetRevenue     = "Revenue"
	sheetOutstanding = "Outstanding"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteWorkbook renders both reports into one workbook, one sheet each.
func WriteWorkbook(w io.Writer, rev Revenue, out Outstanding) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetRevenue); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetOutstanding); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return err
	}

	if err := writeRows(f, sheetRevenue, []any{"Period", "Amount", "Termins"}, len(rev.Periods), func(i int) []any {
		p := rev.Periods[i]
		return []any{p.Period, p.Amount.InexactFloat64(), p.Count}
	}); err != nil {
		return err
	}
	totalRow := len(rev.Periods) + 2
	_ = f.SetCellValue(sheetRevenue, fmt.Sprintf("A%d", totalRow), "Total")
	_ = f.SetCellValue(sheetRevenue, fmt.Sprintf("B%d", totalRow), rev.Total.InexactFloat64())
	_ = f.SetCellStyle(sheetRevenue, "A1", "C1", bold)
	_ = f.SetCellStyle(sheetRevenue, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("A%d", totalRow), bold)
	_ = f.SetCellStyle(sheetRevenue, "B2", fmt.Sprintf("B%d", totalRow), money)

	headers := []any{"Number", "Title", "Status", "Total", "Paid", "Remaining", "Overpaid"}
	if err := writeRows(f, sheetOutstanding, headers, len(out.Rows), func(i int) []any {
		r := out.Rows[i]
		return []any{
			r.Number, r.Title, string(r.Status),
			r.Total.InexactFloat64(), r.PaidTotal.InexactFloat64(), r.Remaining.InexactFloat64(),
			r.Overpaid,
		}
	}); err != nil {
		return err
	}
	last := len(out.Rows) + 1
	_ = f.SetCellStyle(sheetOutstanding, "A1", "G1", bold)
	if last > 1 {
		_ = f.SetCellStyle(sheetOutstanding, "D2", fmt.Sprintf("F%d", last), money)
	}
	_ = f.SetColWidth(sheetOutstanding, "B", "B", 40)

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, headers []any, n int, row func(i int) []any) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
