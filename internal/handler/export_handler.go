package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/service"
	"github.com/noah-isme/sma-timetable-portal/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

type weekLoader interface {
	Week(ctx context.Context, sessionID string, state filters.State) service.WeekView
}

type weekExporter interface {
	Week(view service.WeekView, format service.ExportFormat) (*service.ExportFile, error)
}

// ErrExportNotReady is returned while the week is still loading.
var ErrExportNotReady = appErrors.New("EXPORT_NOT_READY", http.StatusServiceUnavailable, "timetable is still loading, try again shortly")

// ExportHandler streams the session's week as CSV, PDF or PNG.
type ExportHandler struct {
	timetable weekLoader
	exporter  weekExporter
	clock     func() time.Time
}

// NewExportHandler builds the handler.
func NewExportHandler(timetable weekLoader, exporter weekExporter, clock func() time.Time) *ExportHandler {
	if clock == nil {
		clock = time.Now
	}
	return &ExportHandler{timetable: timetable, exporter: exporter, clock: clock}
}

// Export godoc
// @Summary Download the session's week
// @Tags Timetable
// @Produce octet-stream
// @Param format path string true "csv, pdf or png"
// @Success 200 {file} file
// @Router /export/{format} [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format, ok := service.ParseExportFormat(c.Param("format"))
	if !ok {
		h.fail(c, appErrors.Clone(appErrors.ErrNotFound, "unknown export format"))
		return
	}

	view := h.timetable.Week(c.Request.Context(), sessionID(c), filterStore(c, h.clock).State())
	switch {
	case view.Status == timetable.StatusError:
		h.fail(c, appErrors.Clone(appErrors.ErrTransport, view.Error))
		return
	case view.Snapshot.Busy() || view.Stale():
		c.Header("Retry-After", "2")
		h.fail(c, ErrExportNotReady)
		return
	}

	file, err := h.exporter.Week(view, format)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *ExportHandler) fail(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	c.String(appErr.Status, appErr.Message)
}
