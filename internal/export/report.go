// Package export renders a menu's month as an XLSX workbook.
package export

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"laporan/internal/core"
	"laporan/internal/ledger"
)

const sheetName = "Laporan"

var headers = []string{"Tanggal", "Keterangan", "Tag", "Masuk", "Keluar", "Saldo"}

// Report is one menu's entries for one month plus its period figures.
type Report struct {
	Category core.Category
	Period   core.Date
	Entries  []core.Entry // dated inside Period, oldest first
	Summary  ledger.PeriodSummary
}

// BuildReport keeps the entries of period's month and computes its summary
// over the full history.
func BuildReport(cat core.Category, entries []core.Entry, period core.Date) Report {
	start := period.MonthStart()
	end := start.NextMonth()

	var inPeriod []core.Entry
	for _, e := range entries {
		if !e.Date.Before(start) && e.Date.Before(end) {
			inPeriod = append(inPeriod, e)
		}
	}
	sort.SliceStable(inPeriod, func(i, j int) bool {
		if inPeriod[i].Date.Equal(inPeriod[j].Date.Time) {
			return inPeriod[i].CreatedAt.Before(inPeriod[j].CreatedAt)
		}
		return inPeriod[i].Date.Before(inPeriod[j].Date)
	})

	return Report{
		Category: cat,
		Period:   start,
		Entries:  inPeriod,
		Summary:  ledger.ComputePeriodSummary(entries, start),
	}
}

// Filename is the suggested download name.
func (r Report) Filename() string {
	return fmt.Sprintf("laporan-%s-%s.xlsx", r.Category.ID, r.Period.Period())
}

// Workbook lays the report out on a single sheet: title, header, opening
// balance, one row per entry with a running balance, totals, closing balance.
func (r Report) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	row := 1
	write := func(col int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheetName, cell, v)
	}
	boldRow := func() error {
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(headers), row)
		return f.SetCellStyle(sheetName, first, last, bold)
	}

	if err := write(1, fmt.Sprintf("Laporan %s - %s", r.Category.Label, r.Period.Period())); err != nil {
		return nil, err
	}
	if err := boldRow(); err != nil {
		return nil, err
	}

	row = 3
	for i, h := range headers {
		if err := write(i+1, h); err != nil {
			return nil, err
		}
	}
	if err := boldRow(); err != nil {
		return nil, err
	}

	row++
	balance := r.Summary.Opening
	if err := writeRow(write, "", "Saldo Awal", "", "", "", balance.Rupiah()); err != nil {
		return nil, err
	}

	for _, e := range r.Entries {
		row++
		balance = core.Money{Cents: balance.Cents + e.Signed()}
		in, out := "", ""
		if e.Direction == core.In {
			in = e.Amount.Rupiah()
		} else {
			out = e.Amount.Rupiah()
		}
		if err := writeRow(write, e.Date.String(), e.Description, e.Tag, in, out, balance.Rupiah()); err != nil {
			return nil, err
		}
	}

	row++
	if err := writeRow(write, "", "Total", "", r.Summary.IncomeTotal.Rupiah(), r.Summary.ExpenseTotal.Rupiah(), ""); err != nil {
		return nil, err
	}
	if err := boldRow(); err != nil {
		return nil, err
	}
	row++
	if err := writeRow(write, "", "Saldo Akhir", "", "", "", r.Summary.Closing.Rupiah()); err != nil {
		return nil, err
	}
	if err := boldRow(); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "B", 48)
	_ = f.SetColWidth(sheetName, "C", "C", 20)
	_ = f.SetColWidth(sheetName, "D", "F", 18)
	return f, nil
}

func writeRow(write func(int, any) error, values ...string) error {
	for i, v := range values {
		if v == "" {
			continue
		}
		if err := write(i+1, v); err != nil {
			return err
		}
	}
	return nil
}

// WriteTo streams the workbook to w.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	f, err := r.Workbook()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := f.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("xlsx write: %w", err)
	}
	return n, nil
}

// Bytes returns the workbook as XLSX bytes.
func (r Report) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
