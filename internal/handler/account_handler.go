package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/middleware"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/internal/session"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/response"
)

type accountService interface {
	Login(ctx context.Context, req models.LoginRequest) (*session.Credential, error)
	Register(ctx context.Context, req models.RegisterRequest) (*session.Credential, error)
	Favorites(ctx context.Context, token string) ([]models.Favorite, error)
	SaveFavorite(ctx context.Context, token, name string, state filters.State) (*models.Favorite, error)
	Favorite(ctx context.Context, token string, id int64) (*models.Favorite, error)
	DeleteFavorite(ctx context.Context, token string, id int64) error
	Notifications(ctx context.Context, token string, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, token string) (int, error)
	MarkRead(ctx context.Context, token string, id int64) error
	MarkAllRead(ctx context.Context, token string) error
}

// AuthPage is the data of the login and registration forms.
type AuthPage struct {
	Email string
	FIO   string
	Next  string
}

// FavoritesPage is the data of the favorites list.
type FavoritesPage struct {
	Favorites []models.Favorite
	Current   filters.State
}

// NotificationsPage is the data of the notifications list.
type NotificationsPage struct {
	Notifications []models.Notification
	UnreadOnly    bool
}

// AccountHandler serves login, favorites and notifications.
type AccountHandler struct {
	service accountService
	clock   func() time.Time
	logger  *zap.Logger
}

// NewAccountHandler builds the handler.
func NewAccountHandler(service accountService, clock func() time.Time, logger *zap.Logger) *AccountHandler {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{service: service, clock: clock, logger: logger}
}

func (h *AccountHandler) token(c *gin.Context) string {
	return middleware.Token(c, h.clock())
}

// UnreadBadge loads the unread notification counter for page requests. A
// failing count never blocks the page.
func (h *AccountHandler) UnreadBadge() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && middleware.WantsHTML(c) {
			if token := h.token(c); token != "" {
				count, err := h.service.UnreadCount(c.Request.Context(), token)
				if err != nil {
					h.logger.Debug("unread count unavailable", zap.Error(err))
				} else {
					c.Set(unreadCountKey, count)
				}
			}
		}
		c.Next()
	}
}

// LoginPage shows the login form.
func (h *AccountHandler) LoginPage(c *gin.Context) {
	render(c, http.StatusOK, "login.html", newPage(c, h.clock, "Вход", navLogin, AuthPage{Next: safeReturn(c.Query("next"), "")}))
}

// Login signs in from the form and stores the credential in the session.
func (h *AccountHandler) Login(c *gin.Context) {
	req := models.LoginRequest{Email: c.PostForm("email"), Password: c.PostForm("password")}
	next := safeReturn(c.PostForm("next"), "/timetable")
	cred, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.formError(c, "login.html", "Вход", navLogin, AuthPage{Email: req.Email, Next: next}, err)
		return
	}
	h.signIn(c, cred)
	c.Redirect(http.StatusSeeOther, next)
}

// RegisterPage shows the registration form.
func (h *AccountHandler) RegisterPage(c *gin.Context) {
	render(c, http.StatusOK, "register.html", newPage(c, h.clock, "Регистрация", navRegister, AuthPage{}))
}

// Register creates an account from the form and signs it in.
func (h *AccountHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		h.formError(c, "register.html", "Регистрация", navRegister, AuthPage{Email: c.PostForm("email"), FIO: c.PostForm("fio")},
			appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration form"))
		return
	}
	cred, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.formError(c, "register.html", "Регистрация", navRegister, AuthPage{Email: req.Email, FIO: req.FIO}, err)
		return
	}
	h.signIn(c, cred)
	c.Redirect(http.StatusSeeOther, "/timetable")
}

// Logout drops the credential and keeps the filters.
func (h *AccountHandler) Logout(c *gin.Context) {
	if s := middleware.CurrentSession(c); s != nil && s.Credential != nil {
		s.Credential = nil
		middleware.MarkSessionDirty(c)
	}
	c.Redirect(http.StatusSeeOther, "/timetable?flash=logged_out")
}

func (h *AccountHandler) signIn(c *gin.Context, cred *session.Credential) {
	if s := middleware.CurrentSession(c); s != nil {
		s.Credential = cred
		middleware.MarkSessionDirty(c)
	}
	h.logger.Info("user signed in", zap.Int64("user_id", cred.User.ID), zap.Time("expires_at", cred.ExpiresAt))
}

// formError re-renders a form with the error inline. Upstream auth failures
// keep their 401 so the message reads as a rejected login.
func (h *AccountHandler) formError(c *gin.Context, name, title, active string, data AuthPage, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	page := newPage(c, h.clock, title, active, data)
	page.Error = appErr.Message
	render(c, appErr.Status, name, page)
}

// FavoritesPage lists saved favorites.
func (h *AccountHandler) FavoritesPage(c *gin.Context) {
	favorites, err := h.service.Favorites(c.Request.Context(), h.token(c))
	if err != nil {
		renderError(c, h.clock, err)
		return
	}
	data := FavoritesPage{Favorites: favorites, Current: filterStore(c, h.clock).State()}
	render(c, http.StatusOK, "favorites.html", newPage(c, h.clock, "Избранное", navFavorites, data))
}

// SaveFavoritePage saves the session's filters under the posted name.
func (h *AccountHandler) SaveFavoritePage(c *gin.Context) {
	state := filterStore(c, h.clock).State()
	if _, err := h.service.SaveFavorite(c.Request.Context(), h.token(c), c.PostForm("name"), state); err != nil {
		renderError(c, h.clock, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/favorites?flash=favorite_saved")
}

// ApplyFavoritePage restores the filters of a favorite and opens the week.
func (h *AccountHandler) ApplyFavoritePage(c *gin.Context) {
	favorite, err := h.service.Favorite(c.Request.Context(), h.token(c), filters.ParseID(c.Param("id")))
	if err != nil {
		renderError(c, h.clock, err)
		return
	}
	store := filterStore(c, h.clock)
	store.ApplyFavorite(favorite.Filters)
	saveFilters(c, store)
	c.Redirect(http.StatusSeeOther, "/timetable?flash=favorite_used")
}

// DeleteFavoritePage removes a favorite.
func (h *AccountHandler) DeleteFavoritePage(c *gin.Context) {
	if err := h.service.DeleteFavorite(c.Request.Context(), h.token(c), filters.ParseID(c.Param("id"))); err != nil {
		renderError(c, h.clock, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/favorites?flash=favorite_gone")
}

// NotificationsPage lists notifications, optionally unread only.
func (h *AccountHandler) NotificationsPage(c *gin.Context) {
	unreadOnly := c.Query("unread") == "1"
	items, err := h.service.Notifications(c.Request.Context(), h.token(c), unreadOnly)
	if err != nil {
		renderError(c, h.clock, err)
		return
	}
	data := NotificationsPage{Notifications: items, UnreadOnly: unreadOnly}
	render(c, http.StatusOK, "notifications.html", newPage(c, h.clock, "Уведомления", navNotifications, data))
}

// MarkReadPage marks one notification as read.
func (h *AccountHandler) MarkReadPage(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), h.token(c), filters.ParseID(c.Param("id"))); err != nil {
		renderError(c, h.clock, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/notifications?flash=read")
}

// MarkAllReadPage marks every notification as read.
func (h *AccountHandler) MarkAllReadPage(c *gin.Context) {
	if err := h.service.MarkAllRead(c.Request.Context(), h.token(c)); err != nil {
		renderError(c, h.clock, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/notifications?flash=read_all")
}

type favoriteRequest struct {
	Name string `json:"name" binding:"required"`
}

// Me godoc
// @Summary Signed-in user
// @Tags Account
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if !s.Authenticated(h.clock()) {
		response.JSON(c, http.StatusOK, nil, map[string]interface{}{"authenticated": false})
		return
	}
	response.JSON(c, http.StatusOK, s.Credential.User, map[string]interface{}{
		"authenticated": true,
		"expires_at":    s.Credential.ExpiresAt,
	})
}

// LoginJSON godoc
// @Summary Sign in and bind the credential to the session
// @Tags Account
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AccountHandler) LoginJSON(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload"))
		return
	}
	cred, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.signIn(c, cred)
	response.JSON(c, http.StatusOK, cred.User, map[string]interface{}{"expires_at": cred.ExpiresAt})
}

// Favorites godoc
// @Summary List favorites
// @Tags Account
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /favorites [get]
func (h *AccountHandler) Favorites(c *gin.Context) {
	favorites, err := h.service.Favorites(c.Request.Context(), h.token(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, favorites, nil)
}

// SaveFavorite godoc
// @Summary Save the current filters as a favorite
// @Tags Account
// @Accept json
// @Produce json
// @Param payload body favoriteRequest true "Favorite name"
// @Success 201 {object} response.Envelope
// @Router /favorites [post]
func (h *AccountHandler) SaveFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid favorite payload"))
		return
	}
	favorite, err := h.service.SaveFavorite(c.Request.Context(), h.token(c), req.Name, filterStore(c, h.clock).State())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, favorite)
}

// ApplyFavorite godoc
// @Summary Restore the filters of a favorite
// @Tags Account
// @Produce json
// @Param id path int true "Favorite ID"
// @Success 200 {object} response.Envelope
// @Router /favorites/{id}/apply [post]
func (h *AccountHandler) ApplyFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	favorite, err := h.service.Favorite(c.Request.Context(), h.token(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	store := filterStore(c, h.clock)
	store.ApplyFavorite(favorite.Filters)
	saveFilters(c, store)
	response.JSON(c, http.StatusOK, store.State(), nil)
}

// DeleteFavorite godoc
// @Summary Delete a favorite
// @Tags Account
// @Param id path int true "Favorite ID"
// @Success 204
// @Router /favorites/{id} [delete]
func (h *AccountHandler) DeleteFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteFavorite(c.Request.Context(), h.token(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Notifications godoc
// @Summary List notifications
// @Tags Account
// @Produce json
// @Param unread_only query bool false "Only unread"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *AccountHandler) Notifications(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(strings.TrimSpace(c.Query("unread_only")))
	items, err := h.service.Notifications(c.Request.Context(), h.token(c), unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// UnreadCount godoc
// @Summary Unread notification counter
// @Tags Account
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *AccountHandler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), h.token(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.UnreadCount{Count: count}, nil)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Account
// @Param id path int true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (h *AccountHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), h.token(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead godoc
// @Summary Mark every notification as read
// @Tags Account
// @Success 204
// @Router /notifications/mark-all-read [post]
func (h *AccountHandler) MarkAllRead(c *gin.Context) {
	if err := h.service.MarkAllRead(c.Request.Context(), h.token(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
