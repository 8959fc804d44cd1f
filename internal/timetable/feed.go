package timetable

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

// Status is the lifecycle of the timetable view.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusUpdating Status = "updating"
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
)

// Fetcher performs the timetable request.
type Fetcher interface {
	Timetable(ctx context.Context, params url.Values) ([]models.Event, error)
}

// Snapshot is what the view renders.
type Snapshot struct {
	Status    Status         `json:"status"`
	Events    []models.Event `json:"events"`
	Err       error          `json:"-"`
	Query     string         `json:"query"`
	Attempts  int            `json:"attempts"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Message returns the terminal error message, empty otherwise.
func (s Snapshot) Message() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Busy reports whether a request is in flight.
func (s Snapshot) Busy() bool {
	return s.Status == StatusLoading || s.Status == StatusUpdating
}

// FeedConfig tunes retries.
type FeedConfig struct {
	Retries    int
	RetryDelay time.Duration
	Logger     *zap.Logger
	Clock      func() time.Time
}

// Feed runs timetable requests for one session. Every Load supersedes the
// previous one; a response is applied only while its request is the latest.
type Feed struct {
	fetcher    Fetcher
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger
	clock      func() time.Time

	mu         sync.Mutex
	generation uint64
	snapshot   Snapshot
	hasData    bool
}

// NewFeed builds a feed.
func NewFeed(fetcher Fetcher, cfg FeedConfig) *Feed {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Feed{
		fetcher:    fetcher,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		clock:      cfg.Clock,
		snapshot:   Snapshot{Status: StatusIdle},
	}
}

// Current returns the latest applied snapshot.
func (f *Feed) Current() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

// Load fetches the timetable for state. A disabled query never reaches the
// fetcher. When a newer Load starts before this one finishes, the returned
// snapshot is the newer request's state and this response is dropped.
func (f *Feed) Load(ctx context.Context, state filters.State) Snapshot {
	q := FromState(state)
	if !q.Enabled() {
		f.mu.Lock()
		f.generation++
		f.snapshot = Snapshot{Status: StatusIdle, Query: q.Encode()}
		f.hasData = false
		snap := f.snapshot
		f.mu.Unlock()
		f.logger.Debug("timetable query disabled", zap.String("query", q.Encode()))
		return snap
	}

	f.mu.Lock()
	f.generation++
	gen := f.generation
	status := StatusLoading
	if f.hasData {
		status = StatusUpdating
	}
	f.snapshot.Status = status
	f.snapshot.Query = q.Encode()
	f.snapshot.Err = nil
	f.mu.Unlock()

	events, attempts, err := f.fetch(ctx, q)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		f.logger.Debug("timetable response superseded",
			zap.String("query", q.Encode()),
			zap.Uint64("generation", gen),
			zap.Uint64("latest", f.generation),
		)
		return f.snapshot
	}

	if err != nil {
		f.snapshot = Snapshot{Status: StatusError, Err: err, Query: q.Encode(), Attempts: attempts, UpdatedAt: f.clock()}
		f.hasData = false
		f.logger.Warn("timetable request failed", zap.String("query", q.Encode()), zap.Int("attempts", attempts), zap.Error(err))
		return f.snapshot
	}

	f.snapshot = Snapshot{Status: StatusSuccess, Events: q.Filter(events), Query: q.Encode(), Attempts: attempts, UpdatedAt: f.clock()}
	f.hasData = true
	return f.snapshot
}

func (f *Feed) fetch(ctx context.Context, q Query) ([]models.Event, int, error) {
	var lastErr error
	for attempt := 1; attempt <= f.retries+1; attempt++ {
		events, err := f.fetcher.Timetable(ctx, q.Values())
		if err == nil {
			return events, attempt, nil
		}
		lastErr = err
		if !retryable(err) || attempt > f.retries {
			return nil, attempt, lastErr
		}

		f.logger.Debug("timetable request retry", zap.Int("attempt", attempt), zap.Error(err))
		timer := time.NewTimer(f.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, attempt, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, f.retries + 1, lastErr
}

// retryable is false for failures a repeated request cannot fix: cancellation,
// malformed payloads and 4xx answers.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, appErrors.ErrMalformedResponse) {
		return false
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code == appErrors.ErrUpstream.Code && appErr.Status < http.StatusInternalServerError {
		return false
	}
	return true
}
