package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/session"
	"github.com/noah-isme/sma-timetable-portal/pkg/signer"
)

func newSessionRouter(t *testing.T, store *session.MemoryStore, handler gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager := session.NewManager(store, signer.New("secret"), session.ManagerConfig{TTL: time.Hour})
	router := gin.New()
	router.Use(Session(manager, CookieConfig{Name: "tt_session"}, nil))
	router.GET("/", handler)
	router.POST("/", handler)
	return router
}

func TestSessionMiddlewareIssuesCookieAndPersistsChanges(t *testing.T) {
	store := session.NewMemoryStore()
	router := newSessionRouter(t, store, func(c *gin.Context) {
		s := CurrentSession(c)
		require.NotNil(t, s)
		if c.Request.Method == http.MethodPost {
			id := int64(42)
			s.Filters.GroupID = &id
			MarkSessionDirty(c)
		}
		c.String(http.StatusOK, s.ID)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tt_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	sessionID := first.Body.String()
	assert.Equal(t, 1, store.Len())

	post := httptest.NewRequest(http.MethodPost, "/", nil)
	post.AddCookie(cookies[0])
	second := httptest.NewRecorder()
	router.ServeHTTP(second, post)
	assert.Equal(t, sessionID, second.Body.String())
	renewed := second.Result().Cookies()
	require.Len(t, renewed, 1)
	assert.Equal(t, cookies[0].Value, renewed[0].Value)

	saved, err := store.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, saved.Filters.GroupID)
	assert.Equal(t, int64(42), *saved.Filters.GroupID)
}

type touchRecordingStore struct {
	*session.MemoryStore
	touched []string
	ttl     time.Duration
}

func (s *touchRecordingStore) Touch(ctx context.Context, id string, ttl time.Duration) error {
	s.touched = append(s.touched, id)
	s.ttl = ttl
	return s.MemoryStore.Touch(ctx, id, ttl)
}

func TestSessionMiddlewareRenewsUnchangedSessions(t *testing.T) {
	store := &touchRecordingStore{MemoryStore: session.NewMemoryStore()}
	manager := session.NewManager(store, signer.New("secret"), session.ManagerConfig{TTL: time.Hour})
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Session(manager, CookieConfig{Name: "tt_session"}, nil))
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, CurrentSession(c).ID) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := first.Result().Cookies()[0]
	sessionID := first.Body.String()
	assert.Empty(t, store.touched)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, sessionID, rec.Body.String())
	}

	assert.Equal(t, []string{sessionID, sessionID}, store.touched)
	assert.Equal(t, time.Hour, store.ttl)
}

func TestRequireCredentialRedirectsPagesAndRejectsAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextSessionKey, &session.Session{ID: "s"})
		c.Next()
	})
	guard := RequireCredential("/login", nil)
	router.GET("/favorites", guard, func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/favorites", guard, func(c *gin.Context) { c.Status(http.StatusOK) })

	page := httptest.NewRecorder()
	router.ServeHTTP(page, httptest.NewRequest(http.MethodGet, "/favorites", nil))
	assert.Equal(t, http.StatusSeeOther, page.Code)
	assert.Equal(t, "/login?next=%2Ffavorites", page.Header().Get("Location"))

	api := httptest.NewRecorder()
	router.ServeHTTP(api, httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil))
	assert.Equal(t, http.StatusUnauthorized, api.Code)

	withBearer := httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil)
	withBearer.Header.Set("Authorization", "Bearer abc")
	ok := httptest.NewRecorder()
	router.ServeHTTP(ok, withBearer)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/timetable/group/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/timetable/group/42", nil))
	assert.Equal(t, "/timetable/group/:id", observer.path)
	assert.Equal(t, http.StatusOK, observer.status)
}

func TestClientHintsClassifiesViewport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ClientHints("admin", 768))
	var got grid.Viewport
	router.GET("/", func(c *gin.Context) {
		got = ViewportFrom(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Sec-CH-UA-Mobile", "?1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, grid.ViewportMobile, got)
	assert.Equal(t, "admin", rec.Header().Get("X-App-Variant"))
	assert.Contains(t, rec.Header().Get("Accept-CH"), "Sec-CH-UA-Mobile")
}

func TestAPIMetaCollectsRequestDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ClientHints("account", 768))
	router.Use(APIMeta())
	var meta map[string]interface{}
	router.GET("/api/v1/timetable", func(c *gin.Context) {
		SetMeta(c, "placed", 3)
		meta = Meta(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/timetable", nil)
	req.Header.Set("Sec-CH-UA-Mobile", "?1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, meta)
	assert.Equal(t, "account", meta["variant"])
	assert.Equal(t, grid.ViewportMobile, meta["viewport"])
	assert.Equal(t, 3, meta["placed"])
	assert.Contains(t, meta, "elapsed_ms")
	assert.NotContains(t, meta, "request_id")
}

func TestMetaOutsideAPIGroupIsNil(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, Meta(c))
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(_ string, path string, status int, _ time.Duration) {
	o.path = path
	o.status = status
}
