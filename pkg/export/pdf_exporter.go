package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pdfFontFamily = "portal"

// PDFExporter renders datasets into a tabular PDF.
type PDFExporter struct {
	fontPath string
}

// NewPDFExporter constructs a PDF exporter using the core Arial font, which
// only covers Latin text.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// NewPDFExporterWithFont uses a TrueType font so Cyrillic labels render.
func NewPDFExporterWithFont(path string) *PDFExporter {
	return &PDFExporter{fontPath: path}
}

// Render creates a landscape PDF with an optional title and a table whose rows
// grow to fit multi-line cells.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)

	family := "Arial"
	if e.fontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", e.fontPath)
		pdf.AddUTF8Font(pdfFontFamily, "B", e.fontPath)
		family = pdfFontFamily
	}
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(data.Headers))

	pdf.SetFont(family, "B", 9)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	const lineHeight = 4.5
	pdf.SetFont(family, "", 7)
	for _, row := range data.Rows {
		lines := 1
		for _, header := range data.Headers {
			if n := len(pdf.SplitLines([]byte(row[header]), colWidth-2)); n > lines {
				lines = n
			}
		}
		height := float64(lines) * lineHeight
		if _, y := pdf.GetXY(); y+height > 200 {
			pdf.AddPage()
		}
		x, y := pdf.GetXY()
		for i, header := range data.Headers {
			cx := x + float64(i)*colWidth
			pdf.Rect(cx, y, colWidth, height, "D")
			pdf.SetXY(cx+1, y)
			pdf.MultiCell(colWidth-2, lineHeight, strings.TrimSpace(row[header]), "", "L", false)
		}
		pdf.SetXY(x, y+height)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
