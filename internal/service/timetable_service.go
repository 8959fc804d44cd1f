package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

type eventHistoryClient interface {
	EventHistory(ctx context.Context, eventID int64) ([]models.ChangeLog, error)
}

type feedMetrics interface {
	SetActiveFeeds(n int)
}

// TimetableConfig tunes how long a page waits for the API before rendering
// the in-flight state.
type TimetableConfig struct {
	Periods    grid.Periods
	RenderWait time.Duration
	Clock      func() time.Time
}

// WeekView is everything a page needs to draw one week.
type WeekView struct {
	State      filters.State      `json:"filters"`
	Query      string             `json:"query"`
	Snapshot   timetable.Snapshot `json:"-"`
	Status     timetable.Status   `json:"status"`
	Error      string             `json:"error,omitempty"`
	Grid       grid.Grid          `json:"-"`
	Events     []models.Event     `json:"events"`
	Excluded   []grid.Exclusion   `json:"excluded,omitempty"`
	Superseded bool               `json:"superseded,omitempty"`
}

// Stale reports whether the feed was last asked for another filter state, in
// which case the view shows nothing of that state's result.
func (v WeekView) Stale() bool {
	return v.Superseded
}

// TimetableService loads session feeds and arranges them into week grids.
type TimetableService struct {
	feeds   *timetable.Registry
	history eventHistoryClient
	metrics feedMetrics
	periods grid.Periods
	wait    time.Duration
	clock   func() time.Time
	logger  *zap.Logger
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(feeds *timetable.Registry, history eventHistoryClient, metrics feedMetrics, cfg TimetableConfig, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if len(cfg.Periods) != grid.PeriodCount {
		cfg.Periods = grid.DefaultPeriods
	}
	return &TimetableService{
		feeds:   feeds,
		history: history,
		metrics: metrics,
		periods: cfg.Periods,
		wait:    cfg.RenderWait,
		clock:   cfg.Clock,
		logger:  logger,
	}
}

// Periods is the bell schedule in use.
func (s *TimetableService) Periods() grid.Periods { return s.periods }

// Week starts a load for state on the feed stored under feedKey and waits up
// to the configured render wait.
// When the API is slower the view carries the loading or updating snapshot
// and the load keeps running; a later Poll picks up the result.
func (s *TimetableService) Week(ctx context.Context, feedKey string, state filters.State) WeekView {
	feed := s.feeds.Get(feedKey)
	s.publishFeeds()

	if s.wait <= 0 {
		return s.view(state, feed.Load(ctx, state))
	}

	done := make(chan timetable.Snapshot, 1)
	loadCtx := context.WithoutCancel(ctx)
	go func() { done <- feed.Load(loadCtx, state) }()

	timer := time.NewTimer(s.wait)
	defer timer.Stop()
	select {
	case snap := <-done:
		return s.view(state, snap)
	case <-timer.C:
		return s.view(state, feed.Current())
	case <-ctx.Done():
		return s.view(state, feed.Current())
	}
}

// Poll renders the feed's current snapshot without waiting for the API. When
// the feed last ran for another filter state and is idle, a load for state is
// started in the background and the view reports loading.
func (s *TimetableService) Poll(feedKey string, state filters.State) WeekView {
	feed := s.feeds.Get(feedKey)
	s.publishFeeds()
	snap := feed.Current()
	if snap.Query != timetable.FromState(state).Encode() && !snap.Busy() {
		go feed.Load(context.Background(), state)
	}
	return s.view(state, snap)
}

func (s *TimetableService) view(state filters.State, snap timetable.Snapshot) WeekView {
	query := timetable.FromState(state).Encode()
	superseded := snap.Query != query
	if superseded {
		s.logger.Debug("timetable snapshot belongs to another query",
			zap.String("query", query),
			zap.String("snapshot_query", snap.Query),
			zap.String("snapshot_status", string(snap.Status)),
		)
		snap = timetable.Snapshot{Status: timetable.StatusLoading, Query: query}
	}

	g := grid.BuildWith(s.periods, snap.Events, state.WeekStart, s.logger)
	g.MarkToday(s.clock())
	v := WeekView{
		State:      state,
		Query:      query,
		Snapshot:   snap,
		Status:     snap.Status,
		Error:      snap.Message(),
		Grid:       g,
		Events:     snap.Events,
		Excluded:   g.Excluded,
		Superseded: superseded,
	}
	if v.Events == nil {
		v.Events = []models.Event{}
	}
	return v
}

// History returns the change log of one event.
func (s *TimetableService) History(ctx context.Context, eventID int64) ([]models.ChangeLog, error) {
	if eventID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid event id")
	}
	return s.history.EventHistory(ctx, eventID)
}

// PinnedFeedKey names the feed of a page pinned to one dimension so that it
// never supersedes the session's main week.
func PinnedFeedKey(sessionID string, d filters.Dimension, id int64) string {
	return sessionID + ":" + string(d) + ":" + strconv.FormatInt(id, 10)
}

// Forget drops the feeds of a finished session, pinned pages included.
func (s *TimetableService) Forget(sessionID string) {
	s.feeds.Drop(sessionID)
	s.publishFeeds()
}

// Sweep drops feeds idle for longer than ttl.
func (s *TimetableService) Sweep(ttl time.Duration) int {
	removed := s.feeds.Sweep(ttl)
	s.publishFeeds()
	if removed > 0 {
		s.logger.Info("idle timetable feeds removed", zap.Int("removed", removed), zap.Int("active", s.feeds.Len()))
	}
	return removed
}

func (s *TimetableService) publishFeeds() {
	if s.metrics != nil {
		s.metrics.SetActiveFeeds(s.feeds.Len())
	}
}
