// Package grid buckets timetable events into a week by day and pair number.
package grid

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/internal/week"
)

// Reasons an event could not be placed.
const (
	ReasonMissingTimeSlot = "missing time slot"
	ReasonMissingDate     = "missing date"
	ReasonInvalidDate     = "unparseable date"
	ReasonInvalidPair     = "pair number out of range"
	ReasonOutsideWeek     = "outside week"
)

// lenientDate also accepts single digit month and day.
const lenientDate = "2006-1-2"

// Cell holds the events of one day and pair. A cell without events renders
// the empty marker.
type Cell struct {
	Date   time.Time
	Period Period
	Events []models.Event
}

// Empty reports whether the cell has no events.
func (c Cell) Empty() bool { return len(c.Events) == 0 }

// HasConflict reports whether any event in the cell is flagged.
func (c Cell) HasConflict() bool {
	for _, e := range c.Events {
		if e.HasConflict {
			return true
		}
	}
	return false
}

// Row is one pair across the seven days.
type Row struct {
	Period Period
	Cells  []Cell
}

// Day is one date with its cells in pair order.
type Day struct {
	Date  time.Time
	Today bool
	Cells []Cell
}

// Events lists the day's events ordered by pair number.
func (d Day) Events() []models.Event {
	var out []models.Event
	for _, c := range d.Cells {
		out = append(out, c.Events...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimeSlot.PairNumber < out[j].TimeSlot.PairNumber
	})
	return out
}

// Exclusion records an event that was left out of the grid.
type Exclusion struct {
	EventID int64  `json:"event_id"`
	Reason  string `json:"reason"`
	Value   string `json:"value,omitempty"`
}

// Grid is the 7 x 8 view of a week.
type Grid struct {
	Week     week.Range
	Periods  Periods
	Days     []Day
	Excluded []Exclusion
	Placed   int
}

// Build buckets events into the week starting at weekStart using the default
// bell schedule.
func Build(events []models.Event, weekStart time.Time, logger *zap.Logger) Grid {
	return BuildWith(DefaultPeriods, events, weekStart, logger)
}

// BuildWith is Build with an explicit bell schedule. Events are matched on the
// exact civil date of their time slot and their pair number.
func BuildWith(periods Periods, events []models.Event, weekStart time.Time, logger *zap.Logger) Grid {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(periods) != PeriodCount {
		periods = DefaultPeriods
	}

	r := week.Of(weekStart)
	g := Grid{Week: r, Periods: periods, Days: make([]Day, 7)}
	for i, date := range r.Days() {
		cells := make([]Cell, PeriodCount)
		for p := range cells {
			period, ok := periods.Lookup(p + 1)
			if !ok {
				period = Period{Number: p + 1}
			}
			cells[p] = Cell{Date: date, Period: period}
		}
		g.Days[i] = Day{Date: date, Cells: cells}
	}

	for _, event := range events {
		day, pair, reason, value := locate(event, r)
		if reason != "" {
			g.exclude(logger, event.ID, reason, value)
			continue
		}
		cell := &g.Days[day].Cells[pair-1]
		cell.Events = append(cell.Events, event)
		g.Placed++
	}

	logger.Debug("grid built",
		zap.String("week", r.String()),
		zap.Int("events", len(events)),
		zap.Int("placed", g.Placed),
		zap.Int("excluded", len(g.Excluded)),
	)
	return g
}

func locate(event models.Event, r week.Range) (day, pair int, reason, value string) {
	slot := event.TimeSlot
	if slot == nil {
		return 0, 0, ReasonMissingTimeSlot, ""
	}
	if slot.Date == "" {
		return 0, 0, ReasonMissingDate, ""
	}
	date, err := time.Parse(lenientDate, slot.Date)
	if err != nil {
		return 0, 0, ReasonInvalidDate, slot.Date
	}
	if slot.PairNumber < 1 || slot.PairNumber > PeriodCount {
		return 0, 0, ReasonInvalidPair, slot.Date
	}
	for i, d := range r.Days() {
		if sameDay(d, date) {
			return i, slot.PairNumber, "", ""
		}
	}
	return 0, 0, ReasonOutsideWeek, slot.Date
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (g *Grid) exclude(logger *zap.Logger, id int64, reason, value string) {
	g.Excluded = append(g.Excluded, Exclusion{EventID: id, Reason: reason, Value: value})
	level := logger.Warn
	if reason == ReasonOutsideWeek {
		level = logger.Debug
	}
	level("event excluded from grid",
		zap.Int64("event_id", id),
		zap.String("reason", reason),
		zap.String("value", value),
	)
}

// Cell returns the cell for a day index (0 = Monday) and pair number.
func (g Grid) Cell(day, pair int) (Cell, bool) {
	if day < 0 || day >= len(g.Days) || pair < 1 || pair > PeriodCount {
		return Cell{}, false
	}
	return g.Days[day].Cells[pair-1], true
}

// Rows arranges the grid pair by pair for the table layout.
func (g Grid) Rows() []Row {
	rows := make([]Row, PeriodCount)
	for p := range rows {
		row := Row{Period: g.Days[0].Cells[p].Period, Cells: make([]Cell, len(g.Days))}
		for d, day := range g.Days {
			row.Cells[d] = day.Cells[p]
		}
		rows[p] = row
	}
	return rows
}

// Empty reports whether no event was placed.
func (g Grid) Empty() bool { return g.Placed == 0 }

// MarkToday flags the day matching today's civil date.
func (g *Grid) MarkToday(today time.Time) {
	for i := range g.Days {
		g.Days[i].Today = sameDay(g.Days[i].Date, today)
	}
}
