package infra

// report_export.go renders the daily stock report as a spreadsheet (excelize)
// or a printable A4 table (fpdf). Both return the file bytes so handlers can
// stream them and the email worker can attach them.

import (
	"bytes"
	"fmt"
	"strings"

	"stockbook/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

var reportHeadings = []string{"Item", "Unit", "Opening", "Sales", "Closing", "Current"}

// ReportFileName is the download name for a report in format ("xlsx" or "pdf").
func ReportFileName(report *dto.StockReportResponse, format string) string {
	return fmt.Sprintf("stock-report-%s.%s", report.Date, format)
}

// RenderReport dispatches on format and returns the file with its content type.
func RenderReport(report *dto.StockReportResponse, title, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case "xlsx":
		b, err := RenderReportXLSX(report, title)
		return b, ContentTypeXLSX, err
	case "pdf":
		b, err := RenderReportPDF(report, title)
		return b, ContentTypePDF, err
	default:
		return nil, "", fmt.Errorf("unsupported report format %q", format)
	}
}

// ── XLSX ──────────────────────────────────────────────────────────────────────

func RenderReportXLSX(report *dto.StockReportResponse, title string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	if err := f.SetCellValue(sheet, "A1", fmt.Sprintf("%s: %s", title, report.Date)); err != nil {
		return nil, err
	}
	for i, h := range reportHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "F3", bold); err != nil {
		return nil, err
	}

	for i, row := range report.Report {
		values := []interface{}{
			row.ItemName,
			row.ItemUnit,
			row.OpeningStock.InexactFloat64(),
			row.Sales.InexactFloat64(),
			row.ClosingStock.InexactFloat64(),
			row.CurrentQuantity.InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+4)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ── PDF ───────────────────────────────────────────────────────────────────────

func RenderReportPDF(report *dto.StockReportResponse, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Stock report for "+report.Date.String(), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	widths := []float64{contentW * 0.32, contentW * 0.12, contentW * 0.14, contentW * 0.14, contentW * 0.14, contentW * 0.14}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range reportHeadings {
		align := "R"
		if i < 2 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 6, h, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range report.Report {
		name := row.ItemName
		if len(name) > 40 {
			name = name[:39] + "..."
		}
		pdf.CellFormat(widths[0], 5, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 5, tr(row.ItemUnit), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 5, row.OpeningStock.String(), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 5, row.Sales.String(), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 5, row.ClosingStock.String(), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 5, row.CurrentQuantity.String(), "", 1, "R", false, 0, "")
	}
	if len(report.Report) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(contentW, 6, "No items", "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render report: %w", err)
	}
	return buf.Bytes(), nil
}
