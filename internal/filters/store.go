package filters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/week"
)

// Clock reports the current time.
type Clock func() time.Time

// Store owns one FilterState. Every mutation goes through its methods and is
// observable immediately by State.
type Store struct {
	mu     sync.RWMutex
	state  State
	clock  Clock
	logger *zap.Logger
}

// NewStore creates a store positioned on the current week with no filters.
func NewStore(clock Clock, logger *zap.Logger) *Store {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{clock: clock, logger: logger}
	s.state.setWeek(week.Of(clock()))
	return s
}

// State returns a copy of the current filters.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyState(s.state)
}

// Restore replaces the state with a previously captured snapshot. Week bounds
// are recomputed from WeekStart and non-positive ids are dropped.
func (s *Store) Restore(state State) {
	next := State{}
	if state.WeekStart.IsZero() {
		next.setWeek(week.Of(s.clock()))
	} else {
		next.setWeek(week.Of(state.WeekStart))
	}
	for _, d := range Dimensions {
		if v := state.Get(d); v != nil {
			*next.field(d) = positive(*v)
		}
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// SetWeekDate moves to the week containing date.
func (s *Store) SetWeekDate(date time.Time) {
	r := week.Of(date)
	s.mu.Lock()
	s.state.setWeek(r)
	s.mu.Unlock()
	s.logger.Debug("filters: week set", zap.Time("date", date), zap.Stringer("week", r))
}

// SetCurrentWeek moves to the week containing today.
func (s *Store) SetCurrentWeek() {
	r := week.Of(s.clock())
	s.mu.Lock()
	s.state.setWeek(r)
	s.mu.Unlock()
	s.logger.Debug("filters: current week", zap.Stringer("week", r))
}

// NextWeek shifts the week forward by seven days.
func (s *Store) NextWeek() {
	s.mu.Lock()
	r := s.state.Week().Next()
	s.state.setWeek(r)
	s.mu.Unlock()
	s.logger.Debug("filters: next week", zap.Stringer("week", r))
}

// PrevWeek shifts the week back by seven days.
func (s *Store) PrevWeek() {
	s.mu.Lock()
	r := s.state.Week().Prev()
	s.state.setWeek(r)
	s.mu.Unlock()
	s.logger.Debug("filters: previous week", zap.Stringer("week", r))
}

// SetPeriod applies an explicit date range. The range is normalised to the
// Monday week of its earlier bound before it is committed.
func (s *Store) SetPeriod(from, to time.Time) {
	if !to.IsZero() && to.Before(from) {
		from = to
	}
	r := week.Of(from)
	s.mu.Lock()
	s.state.setWeek(r)
	s.mu.Unlock()
	s.logger.Debug("filters: period set", zap.Time("from", from), zap.Time("to", to), zap.Stringer("week", r))
}

// Set assigns a dimension. A non-positive id clears it.
func (s *Store) Set(d Dimension, id int64) error {
	s.mu.Lock()
	field := s.state.field(d)
	if field == nil {
		s.mu.Unlock()
		return fmt.Errorf("unknown filter dimension %q", d)
	}
	*field = positive(id)
	s.mu.Unlock()
	s.logger.Debug("filters: dimension set", zap.String("dimension", string(d)), zap.Int64("id", id))
	return nil
}

// Clear unsets a dimension.
func (s *Store) Clear(d Dimension) error {
	return s.Set(d, 0)
}

func (s *Store) SetGroupID(id int64)    { _ = s.Set(DimensionGroup, id) }
func (s *Store) SetLecturerID(id int64) { _ = s.Set(DimensionLecturer, id) }
func (s *Store) SetRoomID(id int64)     { _ = s.Set(DimensionRoom, id) }
func (s *Store) SetBuildingID(id int64) { _ = s.Set(DimensionBuilding, id) }
func (s *Store) SetStreamID(id int64)   { _ = s.Set(DimensionStream, id) }
func (s *Store) SetWorkKindID(id int64) { _ = s.Set(DimensionWorkKind, id) }

// ApplyDimension sets a dimension from raw form input. Empty, non-numeric and
// non-positive values clear the dimension.
func (s *Store) ApplyDimension(name, raw string) error {
	d := Dimension(strings.TrimSpace(name))
	if !d.Valid() {
		return fmt.Errorf("unknown filter dimension %q", name)
	}
	return s.Set(d, ParseID(raw))
}

// ApplyFavorite replaces every dimension with the values of a favorite
// snapshot. The active week is kept.
func (s *Store) ApplyFavorite(snapshot map[string]any) {
	s.mu.Lock()
	for _, d := range Dimensions {
		*s.state.field(d) = positive(idFromAny(snapshot[string(d)]))
	}
	s.mu.Unlock()
	s.logger.Debug("filters: favorite applied", zap.Any("filters", snapshot))
}

// Reset returns to the current week with every dimension cleared.
func (s *Store) Reset() {
	next := State{}
	next.setWeek(week.Of(s.clock()))
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	s.logger.Debug("filters: reset", zap.Stringer("week", next.Week()))
}

// ParseID turns form input into an identifier, 0 when the input is not a
// positive integer.
func ParseID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func idFromAny(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		if n != float64(int64(n)) {
			return 0
		}
		return int64(n)
	case json.Number:
		id, err := n.Int64()
		if err != nil {
			return 0
		}
		return id
	case string:
		return ParseID(n)
	default:
		return 0
	}
}

func copyState(in State) State {
	out := in
	for _, d := range Dimensions {
		if v := in.Get(d); v != nil {
			*out.field(d) = positive(*v)
		}
	}
	return out
}
