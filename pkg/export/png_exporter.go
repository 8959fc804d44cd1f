package export

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	pngWidth      = 1600
	pngMargin     = 20.0
	pngTitleSpace = 40.0
	pngLineHeight = 16.0
	pngCellPad    = 6.0
)

var (
	pngBackground = color.RGBA{245, 246, 248, 255}
	pngHeaderFill = color.RGBA{220, 224, 230, 255}
	pngGridLine   = color.RGBA{150, 150, 150, 255}
	pngText       = color.RGBA{30, 34, 38, 255}
)

// PNGExporter draws datasets as a table image.
type PNGExporter struct {
	fontPath string
	fontSize float64
}

// NewPNGExporter uses the built-in bitmap face, which only covers Latin text.
func NewPNGExporter() *PNGExporter {
	return &PNGExporter{}
}

// NewPNGExporterWithFont loads a TrueType face so Cyrillic labels render.
func NewPNGExporterWithFont(path string, size float64) *PNGExporter {
	if size <= 0 {
		size = 13
	}
	return &PNGExporter{fontPath: path, fontSize: size}
}

// Render draws the table below an optional title.
func (e *PNGExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("png requires at least one header")
	}

	measure := gg.NewContext(pngWidth, 100)
	if err := e.setFace(measure); err != nil {
		return nil, err
	}
	colWidth := (pngWidth - 2*pngMargin) / float64(len(data.Headers))
	wrapWidth := colWidth - 2*pngCellPad

	wrapped := make([][][]string, len(data.Rows))
	heights := make([]float64, len(data.Rows))
	total := pngMargin*2 + pngTitleSpace + pngLineHeight + 2*pngCellPad
	for r, row := range data.Rows {
		wrapped[r] = make([][]string, len(data.Headers))
		lines := 1
		for c, header := range data.Headers {
			var cell []string
			for _, part := range strings.Split(row[header], "\n") {
				cell = append(cell, measure.WordWrap(part, wrapWidth)...)
			}
			wrapped[r][c] = cell
			if len(cell) > lines {
				lines = len(cell)
			}
		}
		heights[r] = float64(lines)*pngLineHeight + 2*pngCellPad
		total += heights[r]
	}

	dc := gg.NewContext(pngWidth, int(total))
	if err := e.setFace(dc); err != nil {
		return nil, err
	}
	dc.SetColor(pngBackground)
	dc.Clear()

	dc.SetColor(pngText)
	if title != "" {
		dc.DrawStringAnchored(title, pngWidth/2, pngMargin+pngTitleSpace/2, 0.5, 0.5)
	}

	y := pngMargin + pngTitleSpace
	headerHeight := pngLineHeight + 2*pngCellPad
	for c, header := range data.Headers {
		x := pngMargin + float64(c)*colWidth
		dc.SetColor(pngHeaderFill)
		dc.DrawRectangle(x, y, colWidth, headerHeight)
		dc.Fill()
		e.drawBorder(dc, x, y, colWidth, headerHeight)
		dc.SetColor(pngText)
		dc.DrawStringAnchored(header, x+colWidth/2, y+headerHeight/2, 0.5, 0.35)
	}
	y += headerHeight

	for r := range data.Rows {
		for c := range data.Headers {
			x := pngMargin + float64(c)*colWidth
			e.drawBorder(dc, x, y, colWidth, heights[r])
			dc.SetColor(pngText)
			for i, line := range wrapped[r][c] {
				dc.DrawString(line, x+pngCellPad, y+pngCellPad+float64(i+1)*pngLineHeight-4)
			}
		}
		y += heights[r]
	}

	buf := &bytes.Buffer{}
	if err := dc.EncodePNG(buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PNGExporter) setFace(dc *gg.Context) error {
	if e.fontPath == "" {
		dc.SetFontFace(basicfont.Face7x13)
		return nil
	}
	if err := dc.LoadFontFace(e.fontPath, e.fontSize); err != nil {
		return fmt.Errorf("load font %s: %w", e.fontPath, err)
	}
	return nil
}

func (e *PNGExporter) drawBorder(dc *gg.Context, x, y, w, h float64) {
	dc.SetColor(pngGridLine)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()
}
