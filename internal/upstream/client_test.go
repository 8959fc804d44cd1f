package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

type observerStub struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *observerStub) ObserveUpstreamCall(endpoint string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = map[string]int{}
	}
	o.calls[endpoint] = status
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *observerStub) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	obs := &observerStub{}
	client, err := New(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, Metrics: obs})
	require.NoError(t, err)
	return client, obs
}

const timetableBody = `[{
	"id": 7,
	"discipline_id": 1, "work_kind_id": 2, "room_id": 3, "time_slot_id": 4,
	"status": "scheduled",
	"discipline": {"id": 1, "name": "Математический анализ"},
	"work_kind": {"id": 2, "name": "Лекция", "color_hex": "#3b82f6"},
	"room": {"id": 3, "number": "1220", "building": {"id": 9, "name": "Главный корпус", "address": "наб. Северной Двины, 17"}},
	"time_slot": {"id": 4, "date": "2025-03-10", "pair_number": 3, "time_start": "12:10", "time_end": "13:40"},
	"lecturers": [{"id": 5, "fio": "Иванов И.И."}],
	"groups": [{"id": 42, "code": "151101"}],
	"subgroups": [], "streams": [],
	"has_conflict": true, "conflicting_event_ids": [8]
}]`

func TestTimetableSendsQueryAndDecodes(t *testing.T) {
	var gotQuery string
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/timetable", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, timetableBody)
	})

	params := url.Values{"date_from": {"2025-03-10"}, "date_to": {"2025-03-16"}, "group_id": {"42"}}
	events, err := client.Timetable(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, "date_from=2025-03-10&date_to=2025-03-16&group_id=42", gotQuery)
	require.Len(t, events, 1)
	assert.True(t, events[0].HasConflict)
	assert.Equal(t, "Главный корпус", events[0].Room.Building.Name)
	assert.Equal(t, 3, events[0].TimeSlot.PairNumber)
	assert.Equal(t, http.StatusOK, obs.calls["timetable"])
}

func TestMalformedPayloads(t *testing.T) {
	bodies := map[string]string{
		"object instead of list": `{"events": []}`,
		"string instead of list": `"events"`,
		"not json":               `<html>`,
		"truncated":              `[{"id": 1}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			_, err := client.Timetable(context.Background(), nil)
			require.Error(t, err)
			assert.True(t, IsMalformed(err))
			assert.ErrorIs(t, err, appErrors.ErrMalformedResponse)
		})
	}
}

func TestTimetableDropsMalformedEvents(t *testing.T) {
	broken := strings.Replace(strings.Replace(timetableBody, `"id": 7`, `"id": 8`, 1), `"fio": "Иванов И.И."`, `"fio": ""`, 1)
	body := "[" + strings.Trim(timetableBody, "[]") + "," +
		strings.Trim(broken, "[]") + "," +
		`{"discipline_id": 1},` +
		`{"id": "seven"}` + "]"
	core, logs := observer.New(zap.WarnLevel)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL, Logger: zap.New(core)})
	require.NoError(t, err)

	events, err := client.Timetable(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.EqualValues(t, 7, events[0].ID)

	dropped := logs.FilterMessage("dropping malformed timetable event").All()
	require.Len(t, dropped, 3)
	assert.EqualValues(t, 8, dropped[0].ContextMap()["event_id"])
	assert.EqualValues(t, 1, dropped[0].ContextMap()["index"])
	assert.Contains(t, dropped[0].ContextMap()["error"], "FIO")
}

func TestUnparseableSlotDateIsLeftToTheGrid(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id": 1, "time_slot": {"date": "not-a-date", "pair_number": 1}}]`)
	})
	events, err := client.Timetable(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "not-a-date", events[0].TimeSlot.Date)
}

func TestNon2xxCarriesDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail": "Неверный email или пароль"}`)
	})

	_, err := client.Login(context.Background(), models.LoginRequest{Email: "a@b.c", Password: "x"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "Неверный email или пароль", appErr.Message)
}

func TestValidationDetailList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail": [{"msg": "field required"}, {"msg": "value is not a valid email"}]}`)
	})
	_, err := client.Register(context.Background(), models.RegisterRequest{})
	assert.Equal(t, "field required; value is not a valid email", appErrors.FromError(err).Message)
}

func TestServerErrorMapsToBadGateway(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := client.Groups(context.Background())
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client, err := New(Config{BaseURL: base})
	require.NoError(t, err)
	_, err = client.Buildings(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrTransport)
}

func TestContextCancellationIsTransport(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Lecturers(ctx)
	assert.ErrorIs(t, err, appErrors.ErrTransport)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestBearerTokenIsAttached(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/favorites":
			_, _ = io.WriteString(w, `[{"id": 1, "user_id": 2, "name": "Моя группа", "filters": {"group_id": 42}, "created_at": "2025-03-01T10:00:00Z"}]`)
		case "/api/notifications/unread-count":
			_, _ = io.WriteString(w, `{"count": 3}`)
		default:
			_, _ = io.WriteString(w, `{"message": "ok"}`)
		}
	})

	favs, err := client.Favorites(context.Background(), "secret")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.EqualValues(t, 42, favs[0].Filters["group_id"])

	count, err := client.UnreadCount(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, client.MarkAllRead(context.Background(), "secret"))
	require.NoError(t, client.DeleteFavorite(context.Background(), "secret", 1))
}

func TestGroupNullIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/groups/5", r.URL.Path)
		_, _ = io.WriteString(w, `null`)
	})
	_, err := client.Group(context.Background(), 5)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSearchRequiresTwoCharacters(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Ив", r.URL.Query().Get("q"))
		_, _ = io.WriteString(w, `{"lecturers": [{"id": 1, "fio": "Иванов И.И."}], "disciplines": [], "rooms": [], "buildings": []}`)
	})

	_, err := client.Search(context.Background(), " И ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	res, err := client.Search(context.Background(), "Ив")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total())
}

func TestImportHTMLUploadsMultipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		raw, _ := io.ReadAll(file)
		assert.Equal(t, "schedule.html", header.Filename)
		assert.Equal(t, "<table></table>", string(raw))
		_, _ = io.WriteString(w, `{"message": "Импорт завершен", "events_created": 12, "errors_count": 0, "warnings_count": 2, "entities_created": {"groups": 1}}`)
	})

	res, err := client.ImportHTML(context.Background(), "", "schedule.html", strings.NewReader("<table></table>"))
	require.NoError(t, err)
	assert.Equal(t, 12, res.EventsCreated)
	assert.Equal(t, 2, res.WarningsCount)
}

func TestSubscribeAndFeed(t *testing.T) {
	var feedURL string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/calendar/subscribe":
			assert.Equal(t, "group", r.URL.Query().Get("filter_kind"))
			assert.Equal(t, "42", r.URL.Query().Get("filter_id"))
			_, _ = io.WriteString(w, `{"token": "abc", "ics_url": "`+feedURL+`", "subscription_id": 1}`)
		case "/api/calendar/ics":
			w.Header().Set("Content-Type", "text/calendar")
			_, _ = io.WriteString(w, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")
		}
	})
	feedURL = client.BaseURL() + "/api/calendar/ics?group_id=42"

	sub, err := client.Subscribe(context.Background(), models.FilterKindGroup, 42)
	require.NoError(t, err)
	assert.Equal(t, feedURL, sub.ICSURL)

	body, err := client.Feed(context.Background(), sub.ICSURL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")

	_, err = client.Subscribe(context.Background(), "faculty", 1)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "/api"})
	assert.Error(t, err)
}

func TestSummarizeRedactsSecrets(t *testing.T) {
	q := url.Values{"token": {"abc"}, "date_from": {"2025-03-10"}}
	assert.Equal(t, "date_from=2025-03-10 token=***", summarize(q))
}
