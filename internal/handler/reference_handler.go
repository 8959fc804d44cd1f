package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/response"
)

type referenceService interface {
	References(ctx context.Context) (*models.References, error)
	Groups(ctx context.Context) ([]models.Group, error)
	Group(ctx context.Context, id int64) (*models.Group, error)
	Lecturer(ctx context.Context, id int64) (*models.Lecturer, error)
	Search(ctx context.Context, q string) (*models.SearchResult, error)
}

// SearchPage is the data of the search view.
type SearchPage struct {
	Query    string
	Result   *models.SearchResult
	TooShort bool
}

// GroupsPage is the data of the groups list.
type GroupsPage struct {
	Groups []models.Group
	Filter string
}

// ReferenceHandler serves groups, lecturers and search.
type ReferenceHandler struct {
	service   referenceService
	minSearch int
	clock     func() time.Time
}

// NewReferenceHandler builds the handler. minSearch is the shortest query
// forwarded to the API.
func NewReferenceHandler(service referenceService, minSearch int, clock func() time.Time) *ReferenceHandler {
	if clock == nil {
		clock = time.Now
	}
	return &ReferenceHandler{service: service, minSearch: minSearch, clock: clock}
}

// GroupsPage lists groups, optionally narrowed by a code fragment.
func (h *ReferenceHandler) GroupsPage(c *gin.Context) {
	groups, err := h.service.Groups(c.Request.Context())
	if err != nil {
		renderError(c, h.clock, err)
		return
	}
	filter := strings.TrimSpace(c.Query("q"))
	if filter != "" {
		needle := strings.ToLower(filter)
		matched := groups[:0:0]
		for _, g := range groups {
			if strings.Contains(strings.ToLower(g.Code), needle) || strings.Contains(strings.ToLower(g.Name), needle) {
				matched = append(matched, g)
			}
		}
		groups = matched
	}
	render(c, http.StatusOK, "groups.html", newPage(c, h.clock, "Группы", navGroups, GroupsPage{Groups: groups, Filter: filter}))
}

// SearchPage runs the free-text search.
func (h *ReferenceHandler) SearchPage(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	data := SearchPage{Query: q}
	switch {
	case q == "":
	case len([]rune(q)) < h.minSearch:
		data.TooShort = true
	default:
		result, err := h.service.Search(c.Request.Context(), q)
		if err != nil {
			renderError(c, h.clock, err)
			return
		}
		data.Result = result
	}
	render(c, http.StatusOK, "search.html", newPage(c, h.clock, "Поиск", navSearch, data))
}

// References godoc
// @Summary Reference lists for the filter bar
// @Tags References
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /references [get]
func (h *ReferenceHandler) References(c *gin.Context) {
	refs, err := h.service.References(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refs, nil)
}

// Groups godoc
// @Summary List groups
// @Tags References
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *ReferenceHandler) Groups(c *gin.Context) {
	groups, err := h.service.Groups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Group godoc
// @Summary Get a group
// @Tags References
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *ReferenceHandler) Group(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	group, err := h.service.Group(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Lecturer godoc
// @Summary Get a lecturer
// @Tags References
// @Produce json
// @Param id path int true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id} [get]
func (h *ReferenceHandler) Lecturer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	lecturer, err := h.service.Lecturer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}

// Search godoc
// @Summary Free-text search over lecturers, groups, disciplines, rooms and buildings
// @Tags References
// @Produce json
// @Param q query string true "Query, at least two characters"
// @Success 200 {object} response.Envelope
// @Router /search [get]
func (h *ReferenceHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len([]rune(q)) < h.minSearch {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "query is too short"))
		return
	}
	result, err := h.service.Search(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"total": result.Total()})
}

// pathID parses the :id parameter and answers 400 when it is not a positive
// integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid id"))
		return 0, false
	}
	return id, true
}
