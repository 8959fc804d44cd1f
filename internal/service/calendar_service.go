package service

import (
	"bytes"
	"context"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

type calendarClient interface {
	Subscribe(ctx context.Context, kind models.FilterKind, id int64) (*models.Subscription, error)
	Feed(ctx context.Context, icsURL string) ([]byte, error)
}

// DefaultPreviewLimit bounds the entries shown under a new subscription.
const DefaultPreviewLimit = 10

// CalendarService requests calendar subscriptions and previews their feeds.
type CalendarService struct {
	client calendarClient
	logger *zap.Logger
	clock  func() time.Time
}

// NewCalendarService constructs a CalendarService.
func NewCalendarService(client calendarClient, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{client: client, logger: logger, clock: time.Now}
}

// Subscribe asks the API for an ICS URL following a group, lecturer or stream.
func (s *CalendarService) Subscribe(ctx context.Context, kind models.FilterKind, id int64) (*models.Subscription, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "filter kind must be group, lecturer or stream")
	}
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "filter id must be positive")
	}
	return s.client.Subscribe(ctx, kind, id)
}

// Preview downloads the feed and returns up to limit entries that have not
// ended yet, earliest first. Entries without a usable start are skipped.
func (s *CalendarService) Preview(ctx context.Context, icsURL string, limit int) ([]models.FeedEntry, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	raw, err := s.client.Feed(ctx, icsURL)
	if err != nil {
		return nil, err
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(raw))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedResponse.Code, appErrors.ErrMalformedResponse.Status, "calendar feed could not be parsed")
	}

	now := s.clock()
	entries := make([]models.FeedEntry, 0, len(cal.Events()))
	for _, event := range cal.Events() {
		start, err := event.GetStartAt()
		if err != nil {
			s.logger.Debug("skipping feed entry without start", zap.String("uid", event.Id()), zap.Error(err))
			continue
		}
		end, err := event.GetEndAt()
		if err != nil || end.Before(start) {
			end = start
		}
		if end.Before(now) {
			continue
		}
		entries = append(entries, models.FeedEntry{
			UID:      event.Id(),
			Summary:  propertyValue(event, ics.ComponentPropertySummary),
			Location: propertyValue(event, ics.ComponentPropertyLocation),
			Start:    start,
			End:      end,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Start.Before(entries[j].Start) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func propertyValue(event *ics.VEvent, prop ics.ComponentProperty) string {
	if p := event.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}
