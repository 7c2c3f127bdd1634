package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

const (
	dataSheet   = "Data"
	totalsSheet = "Totals"
)

// Export writes rows in the given format followed by their totals. Totals are computed
// from rows alone, so exporting the same rows twice yields the same totals.
func Export(w io.Writer, format Format, rows []domain.ChartRow, compare bool) error {
	table := newTable(rows, compare)
	switch format {
	case FormatCSV:
		return writeCSV(w, table)
	case FormatXLSX:
		return writeXLSX(w, table)
	case FormatPDF:
		return writePDF(w, table)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

type table struct {
	header []string
	rows   [][]string
	totals domain.ChartTotals
}

func newTable(rows []domain.ChartRow, compare bool) table {
	t := table{
		header: []string{"fileName", "apples", "trees"},
		totals: aggregate.ChartTotalsOf(rows, compare),
	}
	if compare {
		t.header = append(t.header, "applesComparison", "treesComparison")
	}
	for _, r := range rows {
		line := []string{r.FileName, strconv.Itoa(r.Apples), strconv.Itoa(r.Trees)}
		if compare {
			line = append(line, intString(r.ApplesComparison), intString(r.TreesComparison))
		}
		t.rows = append(t.rows, line)
	}
	return t
}

func writeCSV(w io.Writer, t table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(append(t.rows,
		[]string{"Total Apples", strconv.Itoa(t.totals.Apples)},
		[]string{"Total Trees", strconv.Itoa(t.totals.Trees)},
	)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, t table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, dataSheet, 1, t.header); err != nil {
		return err
	}
	for i, row := range t.rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			if j == 0 {
				values[j] = v
				continue
			}
			n, _ := strconv.Atoi(v)
			values[j] = n
		}
		if err := setRow(f, dataSheet, i+2, values); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(totalsSheet); err != nil {
		return fmt.Errorf("add totals sheet: %w", err)
	}
	if err := setRow(f, totalsSheet, 1, []string{"totalApples", "totalTrees"}); err != nil {
		return err
	}
	if err := setRow(f, totalsSheet, 2, []interface{}{t.totals.Apples, t.totals.Trees}); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func writePDF(w io.Writer, t table) error {
	const (
		rowHeight = 8.0
		margin    = 10.0
	)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetFont("Helvetica", "", 10)
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()
	colWidth := (pageWidth - 2*margin) / float64(len(t.header))

	header := func(cols []string, width float64) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(41, 128, 185)
		pdf.SetTextColor(255, 255, 255)
		for _, col := range cols {
			pdf.CellFormat(width, rowHeight, col, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
	}

	header(t.header, colWidth)
	for _, row := range t.rows {
		if pdf.GetY()+rowHeight > pageHeight-margin {
			pdf.AddPage()
			header(t.header, colWidth)
		}
		for _, v := range row {
			pdf.CellFormat(colWidth, rowHeight, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if pdf.GetY()+10+2*rowHeight > pageHeight-margin {
		pdf.AddPage()
	} else {
		pdf.Ln(10)
	}
	totalsWidth := (pageWidth - 2*margin) / 2
	header([]string{"Total Apples", "Total Trees"}, totalsWidth)
	pdf.CellFormat(totalsWidth, rowHeight, strconv.Itoa(t.totals.Apples), "1", 0, "L", false, 0, "")
	pdf.CellFormat(totalsWidth, rowHeight, strconv.Itoa(t.totals.Trees), "1", 0, "L", false, 0, "")
	pdf.Ln(-1)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func intString(v *int) string {
	if v == nil {
		return "0"
	}
	return strconv.Itoa(*v)
}
