package export

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Pair", "Mon", "Tue"},
		Rows: []map[string]string{
			{"Pair": "1\n08:30-10:00", "Mon": "Algebra\nRoom 101", "Tue": ""},
			{"Pair": "2\n10:10-11:40", "Mon": "", "Tue": "Physics, lab\nRoom 7"},
		},
	}
}

func TestCSVExporterWritesHeaderAndRows(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, "Pair,Mon,Tue", lines[0])
	assert.Contains(t, string(out), `"Physics, lab`)
}

func TestCSVExporterOptions(t *testing.T) {
	out, err := NewCSVExporter(WithBOM(), WithComma(';')).Render(Dataset{
		Headers: []string{"День", "Дисциплина"},
		Rows:    []map[string]string{{"День": "Понедельник", "Дисциплина": "Алгебра"}},
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "День;Дисциплина\nПонедельник;Алгебра\n", string(out[len(utf8BOM):]))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
	_, err = NewPNGExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Week 2025-03-10")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPNGExporterProducesImage(t *testing.T) {
	out, err := NewPNGExporter().Render(sampleDataset(), "Week 2025-03-10")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, pngWidth, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), 100)
}

func TestPNGExporterMissingFont(t *testing.T) {
	_, err := NewPNGExporterWithFont("/nonexistent/font.ttf", 12).Render(sampleDataset(), "")
	assert.Error(t, err)
}
