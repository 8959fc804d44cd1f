package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-portal/internal/middleware"
	"github.com/noah-isme/sma-timetable-portal/pkg/config"
)

// Handlers bundles the handlers mounted by RegisterRoutes. Admin is only
// read for the admin variant and Account only for the account variant.
type Handlers struct {
	Timetable  *TimetableHandler
	References *ReferenceHandler
	Calendar   *CalendarHandler
	Export     *ExportHandler
	Metrics    *MetricsHandler
	Admin      *AdminHandler
	Account    *AccountHandler
}

// RegisterRoutes mounts the common routes and the route set of variant. The
// two sets never share a router.
func RegisterRoutes(r *gin.Engine, variant string, h Handlers, clock func() time.Time) {
	if clock == nil {
		clock = time.Now
	}
	if variant == config.VariantAccount && h.Account != nil {
		r.Use(h.Account.UnreadBadge())
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/timetable") })
	r.GET("/timetable", h.Timetable.Page)
	r.GET("/timetable/group/:id", h.Timetable.GroupPage)
	r.GET("/timetable/lecturer/:id", h.Timetable.LecturerPage)
	r.POST("/filters", h.Timetable.UpdateFilters)
	r.GET("/search", h.References.SearchPage)
	r.GET("/subscriptions", h.Calendar.Page)
	r.POST("/subscriptions", h.Calendar.Subscribe)
	r.GET("/export/:format", h.Export.Export)

	api := r.Group("/api/v1")
	api.Use(middleware.APIMeta())
	api.GET("/timetable", h.Timetable.Timetable)
	api.GET("/filters", h.Timetable.Filters)
	api.POST("/filters", h.Timetable.SetFilters)
	api.GET("/periods", h.Timetable.Periods)
	api.GET("/events/:id/history", h.Timetable.History)
	api.GET("/references", h.References.References)
	api.GET("/groups", h.References.Groups)
	api.GET("/groups/:id", h.References.Group)
	api.GET("/lecturers/:id", h.References.Lecturer)
	api.GET("/search", h.References.Search)
	api.POST("/calendar/subscribe", h.Calendar.SubscribeJSON)
	api.GET("/metrics", h.Metrics.Snapshot)

	switch variant {
	case config.VariantAccount:
		registerAccount(r, api, h.Account, clock)
	default:
		registerAdmin(r, api, h.References, h.Admin)
	}
}

func registerAdmin(r *gin.Engine, api *gin.RouterGroup, refs *ReferenceHandler, h *AdminHandler) {
	r.GET("/groups", refs.GroupsPage)
	r.POST("/groups/refresh", h.RefreshReferences)
	r.GET("/changelog", h.ChangeLogPage)
	r.GET("/import", h.ImportPage)
	r.POST("/import", h.UploadPage)

	api.GET("/changelog", h.ChangeLog)
	api.POST("/import", h.Import)
	api.GET("/import/status", h.ImportStatus)
	api.GET("/maintenance", h.Maintenance)
	api.POST("/maintenance/:job", h.TriggerJob)
}

func registerAccount(r *gin.Engine, api *gin.RouterGroup, h *AccountHandler, clock func() time.Time) {
	guard := middleware.RequireCredential("/login", clock)

	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)
	r.POST("/logout", h.Logout)

	r.GET("/favorites", h.FavoritesPage)
	r.POST("/favorites", guard, h.SaveFavoritePage)
	r.POST("/favorites/:id/apply", guard, h.ApplyFavoritePage)
	r.POST("/favorites/:id/delete", guard, h.DeleteFavoritePage)
	r.GET("/notifications", h.NotificationsPage)
	r.POST("/notifications/:id/read", guard, h.MarkReadPage)
	r.POST("/notifications/read-all", guard, h.MarkAllReadPage)

	api.GET("/me", h.Me)
	api.POST("/auth/login", h.LoginJSON)
	api.GET("/favorites", h.Favorites)
	api.POST("/favorites", guard, h.SaveFavorite)
	api.POST("/favorites/:id/apply", guard, h.ApplyFavorite)
	api.DELETE("/favorites/:id", guard, h.DeleteFavorite)
	api.GET("/notifications", h.Notifications)
	api.GET("/notifications/unread-count", h.UnreadCount)
	api.POST("/notifications/:id/read", guard, h.MarkRead)
	api.POST("/notifications/mark-all-read", guard, h.MarkAllRead)
}
