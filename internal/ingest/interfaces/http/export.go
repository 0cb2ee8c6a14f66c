package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	ingest "iot-ingest-cloud/internal/ingest/domain"
)

// BuildErrorReportPDF renders a minimal PDF listing ingest error notes.
func BuildErrorReportPDF(notes []ingest.ErrorNote, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Ingest Error Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Notes: %d", len(notes)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "Raw ID", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Received", "1", 0, "C", false, 0, "")
	pdf.CellFormat(120, 6, "Error", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, note := range notes {
		message := note.Error
		if len(message) > 90 {
			message = message[:90]
		}
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", note.RawID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, note.ReceivedAt.Format(time.RFC3339), "1", 0, "C", false, 0, "")
		pdf.CellFormat(120, 6, message, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildErrorReportXLSX renders a minimal XLSX listing ingest error notes.
func BuildErrorReportXLSX(notes []ingest.ErrorNote, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "errors"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Ingest Error Report")
	_ = f.SetCellValue(sheet, "B1", generatedAt.Format(time.RFC3339))
	_ = f.SetCellValue(sheet, "A3", "Raw ID")
	_ = f.SetCellValue(sheet, "B3", "Received")
	_ = f.SetCellValue(sheet, "C3", "Error")
	for i, note := range notes {
		row := i + 4
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), note.RawID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), note.ReceivedAt.Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), note.Error)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
