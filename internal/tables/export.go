package tables

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"configllm/internal/csvexport"
	"configllm/internal/domain"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Sheet names in the XLSX export.
const (
	SheetTables  = "Tables"
	SheetSummary = "Summary"
)

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// WriteCSV writes the merged table as BOM-prefixed CSV.
func WriteCSV(w io.Writer, m *Merged) error {
	if _, err := w.Write(csvexport.BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	cw := csvexport.NewWriter(w)
	if err := cw.WriteTable(m.Header, m.Rows); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with the merged table on the Tables sheet and,
// when summaryPath names an existing summary log, its rows on a Summary sheet.
func WriteXLSX(w io.Writer, m *Merged, summaryPath string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetTables); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := writeSheet(f, SheetTables, m.Header, m.Rows); err != nil {
		return err
	}

	if summaryPath != "" {
		header, rows, err := csvexport.ReadTable(summaryPath)
		switch {
		case err == nil:
			if _, err := f.NewSheet(SheetSummary); err != nil {
				return fmt.Errorf("creating summary sheet: %w", err)
			}
			if err := writeSheet(f, SheetSummary, header, rows); err != nil {
				return err
			}
		case !os.IsNotExist(err):
			return fmt.Errorf("reading summary log: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, n, err)
	}
	return nil
}

// Export writes m in the given format.
func Export(w io.Writer, m *Merged, format, summaryPath string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, m)
	case FormatXLSX:
		return WriteXLSX(w, m, summaryPath)
	default:
		return fmt.Errorf("format %q: %w", format, domain.ErrInvalidFormat)
	}
}
