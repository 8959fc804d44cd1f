package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/pkg/export"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

type tableRendererStub struct {
	data  export.Dataset
	title string
	err   error
}

func (s *tableRendererStub) Render(data export.Dataset, title string) ([]byte, error) {
	s.data = data
	s.title = title
	return []byte("rendered"), s.err
}

func exportView() WeekView {
	conflicting := algebraEvent()
	conflicting.ID = 2
	conflicting.HasConflict = true
	g := grid.Build([]models.Event{algebraEvent(), conflicting}, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), nil)
	return WeekView{Grid: g}
}

func TestParseExportFormat(t *testing.T) {
	f, ok := ParseExportFormat(" PNG ")
	assert.True(t, ok)
	assert.Equal(t, ExportPNG, f)
	_, ok = ParseExportFormat("xlsx")
	assert.False(t, ok)
}

func TestExportServiceCSVListsEvents(t *testing.T) {
	svc := NewExportService(nil, nil, nil, nil)

	file, err := svc.Week(exportView(), ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "timetable-2025-03-10.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Дата,День,Пара,Время"))
	assert.Contains(t, lines[1], "2025-03-10,Понедельник,3,12:10-13:40,Алгебра,Лекция,101,Главный корпус")
	assert.True(t, strings.HasSuffix(lines[2], ",да"))
}

func TestExportServiceGridDatasetForPDF(t *testing.T) {
	pdf := &tableRendererStub{}
	svc := NewExportService(nil, nil, pdf, nil)

	file, err := svc.Week(exportView(), ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "Расписание: 10 марта 2025 - 16 марта 2025", pdf.title)

	require.Len(t, pdf.data.Headers, 8)
	assert.Equal(t, "Пн 10.03", pdf.data.Headers[1])
	require.Len(t, pdf.data.Rows, grid.PeriodCount)
	assert.Equal(t, "1\n08:30-10:00", pdf.data.Rows[0]["Пара"])
	cell := pdf.data.Rows[2]["Пн 10.03"]
	assert.Contains(t, cell, "Алгебра (Лекция)")
	assert.Contains(t, cell, "! конфликт")
	assert.Empty(t, pdf.data.Rows[2]["Вт 11.03"])
}

func TestExportServicePNGRendersImage(t *testing.T) {
	svc := NewExportService(nil, nil, nil, nil)

	file, err := svc.Week(exportView(), ExportPNG)
	require.NoError(t, err)
	assert.Equal(t, "image/png", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("\x89PNG")))
}

func TestExportServiceErrors(t *testing.T) {
	svc := NewExportService(nil, nil, &tableRendererStub{err: errors.New("boom")}, nil)

	_, err := svc.Week(exportView(), ExportFormat("xlsx"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Week(exportView(), ExportPDF)
	assert.Error(t, err)
}
