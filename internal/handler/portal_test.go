package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/middleware"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/internal/service"
	"github.com/noah-isme/sma-timetable-portal/internal/session"
	"github.com/noah-isme/sma-timetable-portal/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/signer"
	"github.com/noah-isme/sma-timetable-portal/web"
)

var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type apiEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func algebraEvent() models.Event {
	return models.Event{
		ID:          1,
		Discipline:  &models.DisciplineRef{ID: 1, Name: "Алгебра"},
		WorkKind:    &models.WorkKindRef{ID: 2, Name: "Лекция", ColorHex: "#007bff"},
		Room:        &models.RoomRef{ID: 3, Number: "101", Building: &models.BuildingRef{ID: 1, Name: "Главный учебный корпус"}},
		TimeSlot:    &models.TimeSlot{Date: "2025-03-10", PairNumber: 3, TimeStart: "12:10:00", TimeEnd: "13:40:00"},
		Lecturers:   []models.LecturerRef{{ID: 7, FIO: "Иванов И.И."}},
		Groups:      []models.GroupRef{{ID: 42, Code: "ИВТ-21"}},
		HasConflict: true,
	}
}

type fetcherStub struct {
	mu      sync.Mutex
	events  []models.Event
	err     error
	gate    chan struct{}
	queries []url.Values
}

func (s *fetcherStub) Timetable(ctx context.Context, params url.Values) ([]models.Event, error) {
	s.mu.Lock()
	s.queries = append(s.queries, params)
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return s.events, s.err
}

func (s *fetcherStub) EventHistory(ctx context.Context, eventID int64) ([]models.ChangeLog, error) {
	return []models.ChangeLog{{ID: 9, Entity: "event", EntityID: eventID}}, nil
}

func (s *fetcherStub) lastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return nil
	}
	return s.queries[len(s.queries)-1]
}

type referenceStub struct {
	refs   models.References
	search *models.SearchResult
	query  string
}

func (s *referenceStub) References(context.Context) (*models.References, error) {
	refs := s.refs
	return &refs, nil
}

func (s *referenceStub) Groups(context.Context) ([]models.Group, error) {
	return s.refs.Groups, nil
}

func (s *referenceStub) Group(_ context.Context, id int64) (*models.Group, error) {
	for i := range s.refs.Groups {
		if s.refs.Groups[i].ID == id {
			return &s.refs.Groups[i], nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (s *referenceStub) Lecturer(_ context.Context, id int64) (*models.Lecturer, error) {
	for i := range s.refs.Lecturers {
		if s.refs.Lecturers[i].ID == id {
			return &s.refs.Lecturers[i], nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (s *referenceStub) Search(_ context.Context, q string) (*models.SearchResult, error) {
	s.query = q
	if s.search == nil {
		return &models.SearchResult{}, nil
	}
	return s.search, nil
}

type accountStub struct {
	loginErr   error
	favorites  []models.Favorite
	saved      []string
	deleted    []int64
	unread     int
	read       []int64
	readAll    bool
	lastToken  string
	tokenValue string
}

func (s *accountStub) credential() *session.Credential {
	return &session.Credential{
		Token:     s.tokenValue,
		User:      models.User{ID: 5, Email: "student@example.com", FIO: "Петров П.П.", Role: "student"},
		ExpiresAt: testNow.Add(time.Hour),
	}
}

func (s *accountStub) Login(context.Context, models.LoginRequest) (*session.Credential, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.credential(), nil
}

func (s *accountStub) Register(context.Context, models.RegisterRequest) (*session.Credential, error) {
	return s.credential(), nil
}

func (s *accountStub) Favorites(_ context.Context, token string) ([]models.Favorite, error) {
	s.lastToken = token
	if token == "" {
		return []models.Favorite{}, nil
	}
	return s.favorites, nil
}

func (s *accountStub) SaveFavorite(_ context.Context, token, name string, state filters.State) (*models.Favorite, error) {
	s.lastToken = token
	s.saved = append(s.saved, name)
	return &models.Favorite{ID: 11, Name: name, Filters: state.Favorite()}, nil
}

func (s *accountStub) Favorite(_ context.Context, token string, id int64) (*models.Favorite, error) {
	for i := range s.favorites {
		if s.favorites[i].ID == id {
			return &s.favorites[i], nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (s *accountStub) DeleteFavorite(_ context.Context, token string, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *accountStub) Notifications(_ context.Context, token string, unreadOnly bool) ([]models.Notification, error) {
	if token == "" {
		return []models.Notification{}, nil
	}
	return []models.Notification{{ID: 3, Type: "event_changed", Title: "Перенос занятия", Message: "Алгебра перенесена"}}, nil
}

func (s *accountStub) UnreadCount(_ context.Context, token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	return s.unread, nil
}

func (s *accountStub) MarkRead(_ context.Context, token string, id int64) error {
	s.read = append(s.read, id)
	return nil
}

func (s *accountStub) MarkAllRead(context.Context, string) error {
	s.readAll = true
	return nil
}

type adminClientStub struct {
	filename string
	body     string
	token    string
	filter   models.ChangeLogFilter
}

func (s *adminClientStub) ChangeLog(_ context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, error) {
	s.filter = filter
	actor := "admin@example.com"
	return []models.ChangeLog{{ID: 1, Entity: "event", EntityID: 7, Actor: &actor, ChangeAt: testNow}}, nil
}

func (s *adminClientStub) ImportHTML(_ context.Context, token, filename string, content io.Reader) (*models.ImportResult, error) {
	raw, _ := io.ReadAll(content)
	s.token, s.filename, s.body = token, filename, string(raw)
	return &models.ImportResult{Message: "ok", EventsCreated: 12}, nil
}

func (s *adminClientStub) ImportStatus(context.Context) (*models.ImportStatus, error) {
	return &models.ImportStatus{EventsCreated: 12, Warnings: []string{"пустая ячейка"}}, nil
}

type maintenanceStub struct {
	triggered []string
	err       error
}

func (s *maintenanceStub) Trigger(jobType string) error {
	if s.err != nil {
		return s.err
	}
	s.triggered = append(s.triggered, jobType)
	return nil
}

func (s *maintenanceStub) Next() []time.Time { return []time.Time{testNow.Add(time.Minute)} }

type calendarStub struct {
	previewErr error
	kind       models.FilterKind
	id         int64
}

func (s *calendarStub) Subscribe(_ context.Context, kind models.FilterKind, id int64) (*models.Subscription, error) {
	if !kind.Valid() || id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid subscription filter")
	}
	s.kind, s.id = kind, id
	return &models.Subscription{Token: "tok", ICSURL: "https://api.example.com/calendar/tok.ics", SubscriptionID: 4}, nil
}

func (s *calendarStub) Preview(context.Context, string, int) ([]models.FeedEntry, error) {
	if s.previewErr != nil {
		return nil, s.previewErr
	}
	return []models.FeedEntry{{UID: "1", Summary: "Алгебра", Start: testNow.Add(2 * time.Hour), End: testNow.Add(3 * time.Hour)}}, nil
}

type fixtures struct {
	fetcher  *fetcherStub
	refs     *referenceStub
	account  *accountStub
	admin    *adminClientStub
	jobs     *maintenanceStub
	calendar *calendarStub
	checks   map[string]HealthCheck
}

func newFixtures() *fixtures {
	return &fixtures{
		fetcher: &fetcherStub{events: []models.Event{algebraEvent()}},
		refs: &referenceStub{refs: models.References{
			Groups:    []models.Group{{ID: 42, Code: "ИВТ-21", Name: "Информатика", Active: true}, {ID: 43, Code: "ПМ-22", Active: true}},
			Lecturers: []models.Lecturer{{ID: 7, FIO: "Иванов И.И.", Active: true}},
			WorkKinds: []models.WorkKind{{ID: 2, Name: "Лекция", ColorHex: "#007bff"}},
		}},
		account:  &accountStub{tokenValue: "token-123", unread: 4},
		admin:    &adminClientStub{},
		jobs:     &maintenanceStub{},
		calendar: &calendarStub{},
		checks:   map[string]HealthCheck{},
	}
}

func (f *fixtures) handlers(renderWait time.Duration) Handlers {
	metrics := service.NewMetricsService()
	registry := timetable.NewRegistry(func() *timetable.Feed {
		return timetable.NewFeed(f.fetcher, timetable.FeedConfig{Clock: testClock})
	})
	weeks := service.NewTimetableService(registry, f.fetcher, metrics, service.TimetableConfig{
		RenderWait: renderWait,
		Clock:      testClock,
	}, nil)
	return Handlers{
		Timetable:  NewTimetableHandler(weeks, f.refs, testClock),
		References: NewReferenceHandler(f.refs, 2, testClock),
		Calendar:   NewCalendarHandler(f.calendar, f.refs, 5, testClock),
		Export:     NewExportHandler(weeks, service.NewExportService(nil, nil, nil, nil), testClock),
		Metrics:    NewMetricsHandler(metrics, f.checks),
		Admin:      NewAdminHandler(service.NewAdminService(f.admin, nil), f.jobs, testClock),
		Account:    NewAccountHandler(f.account, testClock, nil),
	}
}

// testPortal is a router with the session and viewport middleware that keeps
// the session cookie between requests like a browser.
type testPortal struct {
	engine   *gin.Engine
	sessions *session.MemoryStore
	cookies  []*http.Cookie
}

func newTestPortal(t *testing.T, variant string, h Handlers) *testPortal {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tmpl, err := web.Templates()
	require.NoError(t, err)

	store := session.NewMemoryStore()
	manager := session.NewManager(store, signer.New("test-secret"), session.ManagerConfig{TTL: time.Hour, Clock: testClock})
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.ClientHints(variant, grid.DefaultBreakpoint))
	r.Use(middleware.Session(manager, middleware.CookieConfig{Name: "tt_session"}, nil))
	RegisterRoutes(r, variant, h, testClock)
	return &testPortal{engine: r, sessions: store}
}

func (p *testPortal) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range p.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	p.engine.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		p.cookies = cookies
	}
	return rec
}

func (p *testPortal) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html")
	return p.do(req)
}

func (p *testPortal) getJSON(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	return p.do(req)
}

func (p *testPortal) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return p.do(req)
}

func (p *testPortal) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return p.do(req)
}

// currentSession returns the stored session behind the current cookie.
func (p *testPortal) currentSession(t *testing.T) *session.Session {
	t.Helper()
	require.NotEmpty(t, p.cookies)
	id := strings.SplitN(p.cookies[0].Value, ".", 2)[0]
	s, err := p.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	return s
}
