package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/response"
)

type calendarService interface {
	Subscribe(ctx context.Context, kind models.FilterKind, id int64) (*models.Subscription, error)
	Preview(ctx context.Context, icsURL string, limit int) ([]models.FeedEntry, error)
}

type referenceReader interface {
	References(ctx context.Context) (*models.References, error)
}

// SubscriptionPage is the data of the calendar subscription view.
type SubscriptionPage struct {
	Kind         models.FilterKind
	ID           int64
	Refs         *models.References
	Subscription *models.Subscription
	Preview      []models.FeedEntry
	PreviewError string
}

// SubscriptionResult is a subscription together with its upcoming entries.
type SubscriptionResult struct {
	Subscription *models.Subscription `json:"subscription"`
	Preview      []models.FeedEntry   `json:"preview"`
}

// CalendarHandler serves calendar subscriptions.
type CalendarHandler struct {
	service    calendarService
	references referenceReader
	limit      int
	clock      func() time.Time
}

// NewCalendarHandler builds the handler. limit bounds the preview entries.
func NewCalendarHandler(service calendarService, references referenceReader, limit int, clock func() time.Time) *CalendarHandler {
	if clock == nil {
		clock = time.Now
	}
	return &CalendarHandler{service: service, references: references, limit: limit, clock: clock}
}

// Page shows the subscription form, preselected from the session filters.
func (h *CalendarHandler) Page(c *gin.Context) {
	data := SubscriptionPage{Refs: h.refs(c)}
	state := filterStore(c, h.clock).State()
	switch {
	case state.GroupID != nil:
		data.Kind, data.ID = models.FilterKindGroup, *state.GroupID
	case state.LecturerID != nil:
		data.Kind, data.ID = models.FilterKindLecturer, *state.LecturerID
	case state.StreamID != nil:
		data.Kind, data.ID = models.FilterKindStream, *state.StreamID
	default:
		data.Kind = models.FilterKindGroup
	}
	render(c, http.StatusOK, "subscriptions.html", newPage(c, h.clock, "Подписка на календарь", navSubscriptions, data))
}

// Subscribe requests a subscription from the form and previews its feed. A
// failing preview still shows the URL.
func (h *CalendarHandler) Subscribe(c *gin.Context) {
	data := SubscriptionPage{
		Kind: models.FilterKind(c.PostForm("filter_kind")),
		ID:   filters.ParseID(c.PostForm("filter_id")),
		Refs: h.refs(c),
	}
	page := newPage(c, h.clock, "Подписка на календарь", navSubscriptions, nil)
	sub, err := h.service.Subscribe(c.Request.Context(), data.Kind, data.ID)
	if err != nil {
		appErr := appErrors.FromError(err)
		_ = c.Error(err)
		page.Error = appErr.Message
		page.Data = data
		render(c, appErr.Status, "subscriptions.html", page)
		return
	}
	data.Subscription = sub
	entries, err := h.service.Preview(c.Request.Context(), sub.ICSURL, h.limit)
	if err != nil {
		_ = c.Error(err)
		data.PreviewError = appErrors.FromError(err).Message
	}
	data.Preview = entries
	page.Data = data
	render(c, http.StatusOK, "subscriptions.html", page)
}

func (h *CalendarHandler) refs(c *gin.Context) *models.References {
	refs, err := h.references.References(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return &models.References{}
	}
	return refs
}

// SubscribeJSON godoc
// @Summary Request a calendar subscription and preview its feed
// @Tags Calendar
// @Produce json
// @Param filter_kind query string true "group, lecturer or stream"
// @Param filter_id query int true "Filter ID"
// @Success 200 {object} response.Envelope
// @Router /calendar/subscribe [post]
func (h *CalendarHandler) SubscribeJSON(c *gin.Context) {
	kind := models.FilterKind(c.Query("filter_kind"))
	id := filters.ParseID(c.Query("filter_id"))
	sub, err := h.service.Subscribe(c.Request.Context(), kind, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	result := SubscriptionResult{Subscription: sub, Preview: []models.FeedEntry{}}
	var meta map[string]interface{}
	if entries, err := h.service.Preview(c.Request.Context(), sub.ICSURL, h.limit); err != nil {
		_ = c.Error(err)
		meta = map[string]interface{}{"preview_error": appErrors.FromError(err).Message}
	} else {
		result.Preview = entries
	}
	response.JSON(c, http.StatusOK, result, meta)
}
