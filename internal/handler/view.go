package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/middleware"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/middleware/requestid"
)

// Navigation keys.
const (
	navTimetable     = "timetable"
	navGroups        = "groups"
	navChangeLog     = "changelog"
	navImport        = "import"
	navSearch        = "search"
	navSubscriptions = "subscriptions"
	navFavorites     = "favorites"
	navNotifications = "notifications"
	navLogin         = "login"
	navRegister      = "register"
)

// unreadCountKey holds the header badge counter set by UnreadBadge.
const unreadCountKey = "unread_count"

// Page is the data every template receives.
type Page struct {
	Title       string
	Active      string
	Variant     string
	Viewport    grid.Viewport
	User        *models.User
	UnreadCount int
	Flash       string
	Error       string
	RequestID   string
	// Refresh reloads the page after a short delay while a request runs.
	Refresh string
	Data    interface{}
}

// Admin reports whether the admin route set is active.
func (p Page) Admin() bool { return p.Variant == "admin" }

// flashMessages maps the flash codes carried across redirects to text.
var flashMessages = map[string]string{
	"filters":        "Фильтры обновлены",
	"favorite_saved": "Избранное сохранено",
	"favorite_gone":  "Избранное удалено",
	"favorite_used":  "Фильтры из избранного применены",
	"read":           "Уведомление отмечено как прочитанное",
	"read_all":       "Все уведомления прочитаны",
	"logged_out":     "Вы вышли из системы",
	"refresh":        "Обновление справочников запущено",
}

func newPage(c *gin.Context, clock func() time.Time, title, active string, data interface{}) Page {
	p := Page{
		Title:       title,
		Active:      active,
		Variant:     middleware.VariantFrom(c),
		Viewport:    middleware.ViewportFrom(c),
		RequestID:   requestid.Value(c),
		Flash:       flashMessages[c.Query("flash")],
		UnreadCount: c.GetInt(unreadCountKey),
		Data:        data,
	}
	if s := middleware.CurrentSession(c); s.Authenticated(clock()) {
		user := s.Credential.User
		p.User = &user
	}
	return p
}

// render writes a page with the given status.
func render(c *gin.Context, status int, name string, page Page) {
	c.Header("Cache-Control", "no-store")
	c.HTML(status, name, page)
}

// renderError shows the error page with the error's HTTP status.
func renderError(c *gin.Context, clock func() time.Time, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	page := newPage(c, clock, "Ошибка", "", nil)
	page.Error = appErr.Message
	render(c, appErr.Status, "error.html", page)
}

// redirectBack sends the browser to a local return path or fallback.
func redirectBack(c *gin.Context, fallback string) {
	c.Redirect(http.StatusSeeOther, safeReturn(c.PostForm("return"), fallback))
}

// safeReturn accepts only local absolute paths.
func safeReturn(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return fallback
	}
	return raw
}

// filterStore rebuilds the session's filter store for one request.
func filterStore(c *gin.Context, clock func() time.Time) *filters.Store {
	store := filters.NewStore(clock, nil)
	if s := middleware.CurrentSession(c); s != nil {
		store.Restore(s.Filters)
	}
	return store
}

// saveFilters writes the store back into the session.
func saveFilters(c *gin.Context, store *filters.Store) {
	if s := middleware.CurrentSession(c); s != nil {
		s.Filters = store.State()
		middleware.MarkSessionDirty(c)
	}
}

func sessionID(c *gin.Context) string {
	if s := middleware.CurrentSession(c); s != nil {
		return s.ID
	}
	return ""
}
