// Package web embeds the portal's HTML templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
)

// BuildingLabelLimit is the number of runes of a building name shown on an
// event card.
const BuildingLabelLimit = 15

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses every page template with the portal helpers.
func Templates() (*template.Template, error) {
	return template.New("portal").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
}

// Static serves the stylesheet and icons.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Funcs is the template function map.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatTime": grid.FormatTime,
		"timeRange":  grid.TimeRange,
		"truncate":   grid.Truncate,
		"shortDay":   grid.ShortDayName,
		"dayName":    grid.DayName,
		"dayMonth":   grid.DayMonth,
		"longDate":   grid.LongDate,
		"isoDate":    func(t time.Time) string { return t.Format("2006-01-02") },
		"dateTime":   func(t time.Time) string { return t.Format("02.01.2006 15:04") },
		"building":   buildingLabel,
		"lecturers":  lecturerNames,
		"groups":     groupCodes,
		"derefID": func(id *int64) int64 {
			if id == nil {
				return 0
			}
			return *id
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"eq64": func(a *int64, b int64) bool { return a != nil && *a == b },
	}
}

func buildingLabel(e models.Event) string {
	if e.Room == nil || e.Room.Building == nil {
		return ""
	}
	return grid.Truncate(e.Room.Building.Name, BuildingLabelLimit)
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
