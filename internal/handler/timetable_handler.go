package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/middleware"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/internal/service"
	"github.com/noah-isme/sma-timetable-portal/internal/week"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/response"
)

type weekService interface {
	Week(ctx context.Context, feedKey string, state filters.State) service.WeekView
	Poll(feedKey string, state filters.State) service.WeekView
	History(ctx context.Context, eventID int64) ([]models.ChangeLog, error)
	Periods() grid.Periods
}

type referenceLister interface {
	References(ctx context.Context) (*models.References, error)
	Group(ctx context.Context, id int64) (*models.Group, error)
	Lecturer(ctx context.Context, id int64) (*models.Lecturer, error)
}

// FilterUpdate is one change to the session's filters. Form posts carry the
// dimensions as top level fields; JSON clients use Dimensions.
type FilterUpdate struct {
	Week       string            `json:"week,omitempty" form:"week"`
	Date       string            `json:"date,omitempty" form:"date"`
	DateFrom   string            `json:"date_from,omitempty" form:"date_from"`
	DateTo     string            `json:"date_to,omitempty" form:"date_to"`
	Reset      bool              `json:"reset,omitempty" form:"reset"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}

// Apply runs the update against store. Validation happens before anything
// is changed.
func (u FilterUpdate) Apply(store *filters.Store) error {
	switch u.Week {
	case "", "next", "prev", "current":
	default:
		return appErrors.Clone(appErrors.ErrValidation, "week must be next, prev or current")
	}
	var date, from, to time.Time
	var err error
	if u.Date != "" {
		if date, err = week.ParseDate(u.Date); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
		}
	}
	if (u.DateFrom == "") != (u.DateTo == "") {
		return appErrors.Clone(appErrors.ErrValidation, "date_from and date_to go together")
	}
	if u.DateFrom != "" {
		if from, err = week.ParseDate(u.DateFrom); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date_from must use YYYY-MM-DD")
		}
		if to, err = week.ParseDate(u.DateTo); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date_to must use YYYY-MM-DD")
		}
	}
	for name := range u.Dimensions {
		if !filters.Dimension(name).Valid() {
			return appErrors.Clone(appErrors.ErrValidation, "unknown filter "+name)
		}
	}

	if u.Reset {
		store.Reset()
	}
	switch u.Week {
	case "next":
		store.NextWeek()
	case "prev":
		store.PrevWeek()
	case "current":
		store.SetCurrentWeek()
	}
	if !date.IsZero() {
		store.SetWeekDate(date)
	}
	if !from.IsZero() {
		store.SetPeriod(from, to)
	}
	for name, raw := range u.Dimensions {
		_ = store.ApplyDimension(name, raw)
	}
	return nil
}

// TimetablePage is the data of the week view.
type TimetablePage struct {
	View     service.WeekView
	Refs     *models.References
	Layout   grid.Layout
	Heading  string
	Base     string
	Path     string
	Pinned   bool
	PrevDate string
	NextDate string
}

// Busy reports whether the page should poll for the running request.
func (p TimetablePage) Busy() bool { return p.View.Snapshot.Busy() }

// PollURL reloads the page without starting another request.
func (p TimetablePage) PollURL() string {
	if strings.Contains(p.Path, "?") {
		return p.Path + "&poll=1"
	}
	return p.Path + "?poll=1"
}

// TimetableHandler serves the week grid and the filter mutations.
type TimetableHandler struct {
	timetable  weekService
	references referenceLister
	clock      func() time.Time
}

// NewTimetableHandler builds the handler.
func NewTimetableHandler(timetable weekService, references referenceLister, clock func() time.Time) *TimetableHandler {
	if clock == nil {
		clock = time.Now
	}
	return &TimetableHandler{timetable: timetable, references: references, clock: clock}
}

// Page renders the session's week.
func (h *TimetableHandler) Page(c *gin.Context) {
	state := filterStore(c, h.clock).State()
	h.renderWeek(c, sessionID(c), state, "Расписание", "", c.Request.URL.Path, false)
}

// GroupPage renders the week of one group.
func (h *TimetableHandler) GroupPage(c *gin.Context) {
	id := filters.ParseID(c.Param("id"))
	group, err := h.references.Group(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.clock, err)
		return
	}
	store := h.pinnedStore(c)
	store.SetGroupID(id)
	heading := "Группа " + group.Code
	key := service.PinnedFeedKey(sessionID(c), filters.DimensionGroup, id)
	h.renderWeek(c, key, store.State(), heading, heading, c.Request.URL.Path, true)
}

// LecturerPage renders the week of one lecturer.
func (h *TimetableHandler) LecturerPage(c *gin.Context) {
	id := filters.ParseID(c.Param("id"))
	lecturer, err := h.references.Lecturer(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.clock, err)
		return
	}
	store := h.pinnedStore(c)
	store.SetLecturerID(id)
	heading := "Преподаватель " + lecturer.FIO
	key := service.PinnedFeedKey(sessionID(c), filters.DimensionLecturer, id)
	h.renderWeek(c, key, store.State(), heading, heading, c.Request.URL.Path, true)
}

// pinnedStore starts from the session's week, or the date query parameter,
// with no dimensions set.
func (h *TimetableHandler) pinnedStore(c *gin.Context) *filters.Store {
	store := filters.NewStore(h.clock, nil)
	store.SetWeekDate(filterStore(c, h.clock).State().WeekStart)
	if raw := c.Query("date"); raw != "" {
		if date, err := week.ParseDate(raw); err == nil {
			store.SetWeekDate(date)
		}
	}
	return store
}

func (h *TimetableHandler) renderWeek(c *gin.Context, feedKey string, state filters.State, title, heading, path string, pinned bool) {
	view := h.load(c, feedKey, state)
	refs, err := h.references.References(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		refs = &models.References{}
	}

	r := state.Week()
	data := TimetablePage{
		View:     view,
		Refs:     refs,
		Layout:   middleware.ViewportFrom(c).Layout(),
		Heading:  heading,
		Base:     path,
		Path:     path,
		Pinned:   pinned,
		PrevDate: r.Prev().From(),
		NextDate: r.Next().From(),
	}
	if pinned {
		data.Path = path + "?date=" + r.From()
	}
	page := newPage(c, h.clock, title, navTimetable, data)
	if data.Busy() {
		page.Refresh = data.PollURL()
	}
	render(c, http.StatusOK, "timetable.html", page)
}

func (h *TimetableHandler) load(c *gin.Context, feedKey string, state filters.State) service.WeekView {
	if c.Query("poll") == "1" {
		return h.timetable.Poll(feedKey, state)
	}
	return h.timetable.Week(c.Request.Context(), feedKey, state)
}

// UpdateFilters applies a filter form and returns to the page it came from.
func (h *TimetableHandler) UpdateFilters(c *gin.Context) {
	update := FilterUpdate{
		Week:     c.PostForm("week"),
		Date:     c.PostForm("date"),
		DateFrom: c.PostForm("date_from"),
		DateTo:   c.PostForm("date_to"),
		Reset:    c.PostForm("reset") != "",
	}
	_ = c.Request.ParseForm()
	for _, d := range filters.Dimensions {
		if values, ok := c.Request.PostForm[string(d)]; ok && len(values) > 0 {
			if update.Dimensions == nil {
				update.Dimensions = make(map[string]string)
			}
			update.Dimensions[string(d)] = values[0]
		}
	}

	store := filterStore(c, h.clock)
	if err := update.Apply(store); err != nil {
		renderError(c, h.clock, err)
		return
	}
	saveFilters(c, store)
	redirectBack(c, "/timetable")
}

// Timetable godoc
// @Summary Week view for the session's filters
// @Tags Timetable
// @Produce json
// @Param poll query string false "1 to read the running request without starting another"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Timetable(c *gin.Context) {
	state := filterStore(c, h.clock).State()
	view := h.load(c, sessionID(c), state)
	middleware.SetMeta(c, "placed", view.Grid.Placed)
	response.JSON(c, http.StatusOK, view, middleware.Meta(c))
}

// Filters godoc
// @Summary Current filter state
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /filters [get]
func (h *TimetableHandler) Filters(c *gin.Context) {
	response.JSON(c, http.StatusOK, filterStore(c, h.clock).State(), nil)
}

// SetFilters godoc
// @Summary Change the filter state
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body FilterUpdate true "Filter update"
// @Success 200 {object} response.Envelope
// @Router /filters [post]
func (h *TimetableHandler) SetFilters(c *gin.Context) {
	var update FilterUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter payload"))
		return
	}
	store := filterStore(c, h.clock)
	if err := update.Apply(store); err != nil {
		response.Error(c, err)
		return
	}
	saveFilters(c, store)
	response.JSON(c, http.StatusOK, store.State(), nil)
}

// Periods godoc
// @Summary Bell schedule
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *TimetableHandler) Periods(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.timetable.Periods(), nil)
}

// History godoc
// @Summary Change history of one event
// @Tags Timetable
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/history [get]
func (h *TimetableHandler) History(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid event id"))
		return
	}
	entries, err := h.timetable.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
