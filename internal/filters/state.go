// Package filters holds the active week and filter selections of one browsing
// session.
package filters

import (
	"time"

	"github.com/noah-isme/sma-timetable-portal/internal/week"
)

// Dimension names a single optional filter. The value doubles as the query
// parameter and favorite snapshot key.
type Dimension string

const (
	DimensionGroup    Dimension = "group_id"
	DimensionLecturer Dimension = "lecturer_id"
	DimensionRoom     Dimension = "room_id"
	DimensionBuilding Dimension = "building_id"
	DimensionStream   Dimension = "stream_id"
	DimensionWorkKind Dimension = "work_kind_id"
)

// Dimensions lists every filter dimension in display order.
var Dimensions = []Dimension{
	DimensionGroup,
	DimensionLecturer,
	DimensionRoom,
	DimensionBuilding,
	DimensionStream,
	DimensionWorkKind,
}

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	for _, known := range Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

// State is a snapshot of the active filters. A nil dimension is unset; a set
// dimension always holds a positive identifier.
type State struct {
	WeekStart  time.Time `json:"week_start"`
	DateFrom   string    `json:"date_from"`
	DateTo     string    `json:"date_to"`
	GroupID    *int64    `json:"group_id,omitempty"`
	LecturerID *int64    `json:"lecturer_id,omitempty"`
	RoomID     *int64    `json:"room_id,omitempty"`
	BuildingID *int64    `json:"building_id,omitempty"`
	StreamID   *int64    `json:"stream_id,omitempty"`
	WorkKindID *int64    `json:"work_kind_id,omitempty"`
}

// Week returns the active week range.
func (s State) Week() week.Range {
	return week.Of(s.WeekStart)
}

// Get returns the value of a dimension, nil when unset or unknown.
func (s State) Get(d Dimension) *int64 {
	if p := s.field(d); p != nil {
		return *p
	}
	return nil
}

// Favorite converts the set dimensions into a favorite snapshot.
func (s State) Favorite() map[string]any {
	out := make(map[string]any)
	for _, d := range Dimensions {
		if v := s.Get(d); v != nil {
			out[string(d)] = *v
		}
	}
	return out
}

// Empty reports whether no dimension is set.
func (s State) Empty() bool {
	for _, d := range Dimensions {
		if s.Get(d) != nil {
			return false
		}
	}
	return true
}

func (s *State) field(d Dimension) **int64 {
	switch d {
	case DimensionGroup:
		return &s.GroupID
	case DimensionLecturer:
		return &s.LecturerID
	case DimensionRoom:
		return &s.RoomID
	case DimensionBuilding:
		return &s.BuildingID
	case DimensionStream:
		return &s.StreamID
	case DimensionWorkKind:
		return &s.WorkKindID
	default:
		return nil
	}
}

func (s *State) setWeek(r week.Range) {
	s.WeekStart = r.Start
	s.DateFrom = r.From()
	s.DateTo = r.To()
}

func positive(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	v := id
	return &v
}
