package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-portal/internal/middleware"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/jobs"
	"github.com/noah-isme/sma-timetable-portal/pkg/response"
)

// MaxImportSize caps uploaded timetable exports.
const MaxImportSize = 20 << 20

type adminService interface {
	ChangeLog(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, error)
	Import(ctx context.Context, token, filename string, content io.Reader) (*models.ImportResult, error)
	ImportStatus(ctx context.Context) (*models.ImportStatus, error)
}

type maintenanceTrigger interface {
	Trigger(jobType string) error
	Next() []time.Time
}

// ChangeLogPage is the data of the change log view.
type ChangeLogPage struct {
	Filter  models.ChangeLogFilter
	Entries []models.ChangeLog
}

// ImportPage is the data of the import view.
type ImportPage struct {
	Status *models.ImportStatus
	Result *models.ImportResult
}

// AdminHandler serves the change log, imports and manual maintenance.
type AdminHandler struct {
	service     adminService
	maintenance maintenanceTrigger
	clock       func() time.Time
}

// NewAdminHandler builds the handler. maintenance may be nil.
func NewAdminHandler(service adminService, maintenance maintenanceTrigger, clock func() time.Time) *AdminHandler {
	if clock == nil {
		clock = time.Now
	}
	return &AdminHandler{service: service, maintenance: maintenance, clock: clock}
}

// ChangeLogPage lists audit entries matching the query filter.
func (h *AdminHandler) ChangeLogPage(c *gin.Context) {
	var filter models.ChangeLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		renderError(c, h.clock, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change log filter"))
		return
	}
	entries, err := h.service.ChangeLog(c.Request.Context(), filter)
	if err != nil {
		renderError(c, h.clock, err)
		return
	}
	render(c, http.StatusOK, "changelog.html", newPage(c, h.clock, "Журнал изменений", navChangeLog, ChangeLogPage{Filter: filter, Entries: entries}))
}

// ImportPage shows the upload form and the last import.
func (h *AdminHandler) ImportPage(c *gin.Context) {
	page := newPage(c, h.clock, "Импорт расписания", navImport, nil)
	data := ImportPage{}
	status, err := h.service.ImportStatus(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		page.Error = appErrors.FromError(err).Message
	}
	data.Status = status
	page.Data = data
	render(c, http.StatusOK, "import.html", page)
}

// UploadPage imports a file posted from the form and shows the outcome.
func (h *AdminHandler) UploadPage(c *gin.Context) {
	page := newPage(c, h.clock, "Импорт расписания", navImport, nil)
	result, err := h.upload(c)
	if err != nil {
		appErr := appErrors.FromError(err)
		_ = c.Error(err)
		page.Error = appErr.Message
		page.Data = ImportPage{}
		render(c, appErr.Status, "import.html", page)
		return
	}
	data := ImportPage{Result: result}
	if status, err := h.service.ImportStatus(c.Request.Context()); err == nil {
		data.Status = status
	}
	page.Data = data
	render(c, http.StatusOK, "import.html", page)
}

func (h *AdminHandler) upload(c *gin.Context) (*models.ImportResult, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "choose a file to import")
	}
	if header.Size > MaxImportSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is too large")
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload")
	}
	defer file.Close()
	return h.service.Import(c.Request.Context(), middleware.Token(c, h.clock()), header.Filename, file)
}

// ChangeLog godoc
// @Summary List change log entries
// @Tags Admin
// @Produce json
// @Param entity query string false "Entity name"
// @Param entity_id query int false "Entity ID"
// @Param actor query string false "Actor"
// @Param date_from query string false "From date (YYYY-MM-DD)"
// @Param date_to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /changelog [get]
func (h *AdminHandler) ChangeLog(c *gin.Context) {
	var filter models.ChangeLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change log filter"))
		return
	}
	entries, err := h.service.ChangeLog(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"total": len(entries)})
}

// Import godoc
// @Summary Import an HTML timetable export
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "HTML export"
// @Success 201 {object} response.Envelope
// @Router /import [post]
func (h *AdminHandler) Import(c *gin.Context) {
	result, err := h.upload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ImportStatus godoc
// @Summary Outcome of the last import
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /import/status [get]
func (h *AdminHandler) ImportStatus(c *gin.Context) {
	status, err := h.service.ImportStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Maintenance godoc
// @Summary Next scheduled maintenance runs
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance [get]
func (h *AdminHandler) Maintenance(c *gin.Context) {
	if h.maintenance == nil {
		response.JSON(c, http.StatusOK, []time.Time{}, nil)
		return
	}
	response.JSON(c, http.StatusOK, h.maintenance.Next(), nil)
}

// TriggerJob godoc
// @Summary Run a maintenance job now
// @Tags Admin
// @Produce json
// @Param job path string true "references.refresh or feeds.sweep"
// @Success 202 {object} response.Envelope
// @Router /maintenance/{job} [post]
func (h *AdminHandler) TriggerJob(c *gin.Context) {
	if h.maintenance == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "maintenance is disabled"))
		return
	}
	job := c.Param("job")
	if err := h.maintenance.Trigger(job); err != nil {
		if errors.Is(err, jobs.ErrPending) {
			response.JSON(c, http.StatusAccepted, gin.H{"job": job, "pending": true}, nil)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"job": job, "pending": false}, nil)
}

// RefreshReferences starts a reference refresh from the groups page.
func (h *AdminHandler) RefreshReferences(c *gin.Context) {
	if h.maintenance != nil {
		if err := h.maintenance.Trigger(service.JobRefreshReferences); err != nil && !errors.Is(err, jobs.ErrPending) {
			renderError(c, h.clock, err)
			return
		}
	}
	c.Redirect(http.StatusSeeOther, "/groups?flash=refresh")
}
