package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

type calendarClientStub struct {
	feed    string
	kind    models.FilterKind
	fetched string
}

func (s *calendarClientStub) Subscribe(ctx context.Context, kind models.FilterKind, id int64) (*models.Subscription, error) {
	s.kind = kind
	return &models.Subscription{Token: "abc", ICSURL: "https://api.example.edu/calendar/abc.ics", SubscriptionID: id}, nil
}

func (s *calendarClientStub) Feed(ctx context.Context, icsURL string) ([]byte, error) {
	s.fetched = icsURL
	return []byte(s.feed), nil
}

func icsFeed(events ...string) string {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//timetable//RU"}
	for _, e := range events {
		lines = append(lines, strings.Split(e, "\n")...)
	}
	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

func icsEvent(uid, summary, start, end string) string {
	return strings.Join([]string{
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:20250301T000000Z",
		"DTSTART:" + start,
		"DTEND:" + end,
		"SUMMARY:" + summary,
		"LOCATION:101",
		"END:VEVENT",
	}, "\n")
}

func TestCalendarServiceSubscribeValidates(t *testing.T) {
	client := &calendarClientStub{}
	svc := NewCalendarService(client, nil)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, models.FilterKind("room"), 1)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Subscribe(ctx, models.FilterKindGroup, 0)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	sub, err := svc.Subscribe(ctx, models.FilterKindLecturer, 7)
	require.NoError(t, err)
	assert.Equal(t, models.FilterKindLecturer, client.kind)
	assert.Equal(t, int64(7), sub.SubscriptionID)
}

func TestCalendarServicePreviewListsUpcomingEntries(t *testing.T) {
	client := &calendarClientStub{feed: icsFeed(
		icsEvent("past@tt", "Прошедшая", "20250301T083000Z", "20250301T100000Z"),
		icsEvent("late@tt", "Физика", "20250312T121000Z", "20250312T134000Z"),
		icsEvent("early@tt", "Алгебра", "20250310T083000Z", "20250310T100000Z"),
	)}
	svc := NewCalendarService(client, nil)
	svc.clock = func() time.Time { return time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) }

	entries, err := svc.Preview(context.Background(), "https://api.example.edu/calendar/abc.ics", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "early@tt", entries[0].UID)
	assert.Equal(t, "Алгебра", entries[0].Summary)
	assert.Equal(t, "101", entries[0].Location)
	assert.Equal(t, "late@tt", entries[1].UID)
	assert.Equal(t, "https://api.example.edu/calendar/abc.ics", client.fetched)
}

func TestCalendarServicePreviewRespectsLimit(t *testing.T) {
	client := &calendarClientStub{feed: icsFeed(
		icsEvent("a@tt", "A", "20250310T083000Z", "20250310T100000Z"),
		icsEvent("b@tt", "B", "20250311T083000Z", "20250311T100000Z"),
	)}
	svc := NewCalendarService(client, nil)
	svc.clock = func() time.Time { return time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) }

	entries, err := svc.Preview(context.Background(), "https://x/y.ics", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a@tt", entries[0].UID)
}
