package service

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/pkg/export"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

// ExportFormat names a downloadable rendition of the week.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
	ExportPNG ExportFormat = "png"
)

// ParseExportFormat accepts csv, pdf or png in any case.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case ExportCSV, ExportPDF, ExportPNG:
		return f, true
	}
	return "", false
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type tableRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Columns of the flat event list.
const (
	colDate       = "Дата"
	colDay        = "День"
	colPair       = "Пара"
	colTime       = "Время"
	colDiscipline = "Дисциплина"
	colWorkKind   = "Вид занятия"
	colRoom       = "Аудитория"
	colBuilding   = "Корпус"
	colLecturers  = "Преподаватели"
	colGroups     = "Группы"
	colConflict   = "Конфликт"
)

var eventColumns = []string{colDate, colDay, colPair, colTime, colDiscipline, colWorkKind, colRoom, colBuilding, colLecturers, colGroups, colConflict}

// ExportService renders week views for download.
type ExportService struct {
	csv    csvRenderer
	pdf    tableRenderer
	png    tableRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the built-in exporters.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf, png tableRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if png == nil {
		png = export.NewPNGExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, png: png, logger: logger}
}

// Week renders the view in the requested format. CSV is a flat event list;
// PDF and PNG draw the grid.
func (s *ExportService) Week(view WeekView, format ExportFormat) (*ExportFile, error) {
	name := "timetable-" + view.Grid.Week.From()
	title := "Расписание: " + view.Grid.WeekTitle()

	var (
		file ExportFile
		err  error
	)
	switch format {
	case ExportCSV:
		file = ExportFile{Filename: name + ".csv", ContentType: "text/csv; charset=utf-8"}
		file.Data, err = s.csv.Render(EventDataset(view.Grid))
	case ExportPDF:
		file = ExportFile{Filename: name + ".pdf", ContentType: "application/pdf"}
		file.Data, err = s.pdf.Render(GridDataset(view.Grid), title)
	case ExportPNG:
		file = ExportFile{Filename: name + ".png", ContentType: "image/png"}
		file.Data, err = s.png.Render(GridDataset(view.Grid), title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if err != nil {
		s.logger.Error("week export failed", zap.String("format", string(format)), zap.String("week", view.Grid.Week.String()), zap.Error(err))
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}
	s.logger.Info("week exported", zap.String("format", string(format)), zap.String("week", view.Grid.Week.String()), zap.Int("bytes", len(file.Data)))
	return &file, nil
}

// EventDataset lists placed events day by day in pair order.
func EventDataset(g grid.Grid) export.Dataset {
	data := export.Dataset{Headers: eventColumns}
	for _, day := range g.Days {
		for _, event := range day.Events() {
			slot := event.TimeSlot
			data.Rows = append(data.Rows, map[string]string{
				colDate:       day.Date.Format("2006-01-02"),
				colDay:        grid.DayName(day.Date),
				colPair:       strconv.Itoa(slot.PairNumber),
				colTime:       eventTime(g.Periods, event),
				colDiscipline: event.DisciplineName(),
				colWorkKind:   workKindName(event),
				colRoom:       roomNumber(event),
				colBuilding:   buildingName(event),
				colLecturers:  lecturerNames(event),
				colGroups:     groupCodes(event),
				colConflict:   conflictMark(event),
			})
		}
	}
	return data
}

// GridDataset lays the week out as one row per pair and one column per day.
func GridDataset(g grid.Grid) export.Dataset {
	headers := make([]string, 0, len(g.Days)+1)
	headers = append(headers, colPair)
	for _, day := range g.Days {
		headers = append(headers, grid.ShortDayName(day.Date)+" "+grid.DayMonth(day.Date))
	}

	data := export.Dataset{Headers: headers}
	for _, row := range g.Rows() {
		record := map[string]string{
			colPair: fmt.Sprintf("%d\n%s", row.Period.Number, grid.TimeRange(row.Period.Start, row.Period.End)),
		}
		for i, cell := range row.Cells {
			var parts []string
			for _, event := range cell.Events {
				parts = append(parts, cardText(event))
			}
			record[headers[i+1]] = strings.Join(parts, "\n\n")
		}
		data.Rows = append(data.Rows, record)
	}
	return data
}

func cardText(e models.Event) string {
	lines := []string{e.DisciplineName()}
	if kind := workKindName(e); kind != "" {
		lines[0] += " (" + kind + ")"
	}
	if place := strings.TrimSpace(roomNumber(e) + " " + buildingName(e)); place != "" {
		lines = append(lines, place)
	}
	if names := lecturerNames(e); names != "" {
		lines = append(lines, names)
	}
	if e.HasConflict {
		lines = append(lines, "! конфликт")
	}
	return strings.Join(lines, "\n")
}

func eventTime(periods grid.Periods, e models.Event) string {
	if e.TimeSlot != nil && e.TimeSlot.TimeStart != "" {
		return grid.TimeRange(e.TimeSlot.TimeStart, e.TimeSlot.TimeEnd)
	}
	if e.TimeSlot != nil {
		if p, ok := periods.Lookup(e.TimeSlot.PairNumber); ok {
			return grid.TimeRange(p.Start, p.End)
		}
	}
	return ""
}

func workKindName(e models.Event) string {
	if e.WorkKind == nil {
		return ""
	}
	return e.WorkKind.Name
}

func roomNumber(e models.Event) string {
	if e.Room == nil {
		return ""
	}
	return e.Room.Number
}

func buildingName(e models.Event) string {
	if e.Room == nil || e.Room.Building == nil {
		return ""
	}
	return e.Room.Building.Name
}

func lecturerNames(e models.Event) string {
	names := make([]string, 0, len(e.Lecturers))
	for _, l := range e.Lecturers {
		names = append(names, l.FIO)
	}
	return strings.Join(names, ", ")
}

func groupCodes(e models.Event) string {
	codes := make([]string, 0, len(e.Groups))
	for _, g := range e.Groups {
		codes = append(codes, g.Code)
	}
	return strings.Join(codes, ", ")
}

func conflictMark(e models.Event) string {
	if e.HasConflict {
		return "да"
	}
	return ""
}
