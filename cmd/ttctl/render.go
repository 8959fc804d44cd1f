package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
)

const (
	emptyMark     = "—"
	conflictMark  = " (!)"
	noClasses     = "Нет занятий"
	cellWidth     = 24
	buildingWidth = 15
)

func render(w io.Writer, g grid.Grid, layout grid.Layout) error {
	if _, err := fmt.Fprintf(w, "Неделя: %s\n\n", g.WeekTitle()); err != nil {
		return err
	}
	var err error
	if layout == grid.LayoutStacked {
		err = renderStacked(w, g)
	} else {
		err = renderTable(w, g)
	}
	if err != nil {
		return err
	}
	return renderExcluded(w, g.Excluded)
}

// renderTable prints pairs as rows and days as columns. Each cell lists the
// disciplines of its events.
func renderTable(w io.Writer, g grid.Grid) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"Пара"}
	for _, day := range g.Days {
		label := grid.ShortDayName(day.Date) + " " + grid.DayMonth(day.Date)
		if day.Today {
			label += " *"
		}
		header = append(header, label)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range g.Rows() {
		line := []string{fmt.Sprintf("%d %s", row.Period.Number, grid.TimeRange(row.Period.Start, row.Period.End))}
		for _, cell := range row.Cells {
			line = append(line, cellText(cell))
		}
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	return tw.Flush()
}

func cellText(cell grid.Cell) string {
	if cell.Empty() {
		return emptyMark
	}
	names := make([]string, 0, len(cell.Events))
	for _, e := range cell.Events {
		names = append(names, grid.Truncate(e.DisciplineName(), cellWidth))
	}
	text := strings.Join(names, " / ")
	if cell.HasConflict() {
		text += conflictMark
	}
	return text
}

// renderStacked prints one block per day with its events in pair order.
func renderStacked(w io.Writer, g grid.Grid) error {
	for _, day := range g.Days {
		heading := grid.DayName(day.Date) + ", " + grid.DayMonth(day.Date)
		if day.Today {
			heading += " (сегодня)"
		}
		if _, err := fmt.Fprintln(w, heading); err != nil {
			return err
		}
		events := day.Events()
		if len(events) == 0 {
			fmt.Fprintf(w, "  %s\n", noClasses)
		}
		for _, e := range events {
			fmt.Fprintf(w, "  %s\n", eventLine(e, g.Periods))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func eventLine(e models.Event, periods grid.Periods) string {
	pair := e.TimeSlot.PairNumber
	span := grid.TimeRange(e.TimeSlot.TimeStart, e.TimeSlot.TimeEnd)
	if span == "" {
		if p, ok := periods.Lookup(pair); ok {
			span = grid.TimeRange(p.Start, p.End)
		}
	}
	parts := []string{fmt.Sprintf("%d  %s  %s", pair, span, e.DisciplineName())}
	if e.WorkKind != nil {
		parts[0] += " (" + e.WorkKind.Name + ")"
	}
	if e.Room != nil {
		room := e.Room.Number
		if e.Room.Building != nil {
			room += ", " + grid.Truncate(e.Room.Building.Name, buildingWidth)
		}
		parts = append(parts, room)
	}
	lecturers := make([]string, 0, len(e.Lecturers))
	for _, l := range e.Lecturers {
		lecturers = append(lecturers, l.FIO)
	}
	if len(lecturers) > 0 {
		parts = append(parts, strings.Join(lecturers, ", "))
	}
	groups := make([]string, 0, len(e.Groups))
	for _, gr := range e.Groups {
		groups = append(groups, gr.Code)
	}
	if len(groups) > 0 {
		parts = append(parts, strings.Join(groups, ", "))
	}
	line := strings.Join(parts, " · ")
	if e.HasConflict {
		line += conflictMark
	}
	return line
}

func renderExcluded(w io.Writer, excluded []grid.Exclusion) error {
	if len(excluded) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\nНе размещено в сетке: %d\n", len(excluded)); err != nil {
		return err
	}
	for _, ex := range excluded {
		line := fmt.Sprintf("  #%d: %s", ex.EventID, ex.Reason)
		if ex.Value != "" {
			line += " (" + ex.Value + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
