// Package timetable turns filter state into timetable requests and tracks the
// latest result per session.
package timetable

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
)

// upstreamDimensions are the filters sent to the timetable endpoint, in key
// order. The work kind is applied locally.
var upstreamDimensions = []filters.Dimension{
	filters.DimensionGroup,
	filters.DimensionLecturer,
	filters.DimensionRoom,
	filters.DimensionBuilding,
	filters.DimensionStream,
}

// Query is the request derived from a filter state.
type Query struct {
	DateFrom string
	DateTo   string
	state    filters.State
}

// FromState derives the query for the given filters.
func FromState(state filters.State) Query {
	return Query{DateFrom: state.DateFrom, DateTo: state.DateTo, state: state}
}

// Enabled reports whether the query may be sent. Both bounds are required and
// must be ordered.
func (q Query) Enabled() bool {
	return q.DateFrom != "" && q.DateTo != "" && q.DateFrom <= q.DateTo
}

// Values are the query parameters: the date bounds and every set dimension.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.DateFrom != "" {
		v.Set("date_from", q.DateFrom)
	}
	if q.DateTo != "" {
		v.Set("date_to", q.DateTo)
	}
	for _, d := range upstreamDimensions {
		if id := q.state.Get(d); id != nil {
			v.Set(string(d), strconv.FormatInt(*id, 10))
		}
	}
	return v
}

// Encode is the canonical query string.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// Key identifies the query. Two states with the same key produce the same
// request.
func (q Query) Key() string {
	parts := []string{"timetable", q.DateFrom, q.DateTo}
	for _, d := range upstreamDimensions {
		if id := q.state.Get(d); id != nil {
			parts = append(parts, strconv.FormatInt(*id, 10))
		} else {
			parts = append(parts, "-")
		}
	}
	return strings.Join(parts, ":")
}

// WorkKindID is the locally applied work kind filter.
func (q Query) WorkKindID() *int64 {
	return q.state.Get(filters.DimensionWorkKind)
}

// Filter applies the local work kind filter.
func (q Query) Filter(events []models.Event) []models.Event {
	kind := q.WorkKindID()
	if kind == nil {
		return events
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.WorkKindID == *kind || (e.WorkKind != nil && e.WorkKind.ID == *kind) {
			out = append(out, e)
		}
	}
	return out
}
