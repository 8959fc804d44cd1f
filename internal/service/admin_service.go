package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/internal/week"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

type adminClient interface {
	ChangeLog(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, error)
	ImportHTML(ctx context.Context, token, filename string, content io.Reader) (*models.ImportResult, error)
	ImportStatus(ctx context.Context) (*models.ImportStatus, error)
}

// AdminService covers the change log and timetable import screens.
type AdminService struct {
	client adminClient
	logger *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(client adminClient, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{client: client, logger: logger}
}

// ChangeLog lists audit entries. Malformed dates are rejected before the API
// sees them.
func (s *AdminService) ChangeLog(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, error) {
	filter.Entity = strings.TrimSpace(filter.Entity)
	filter.Actor = strings.TrimSpace(filter.Actor)
	for _, raw := range []string{filter.DateFrom, filter.DateTo} {
		if raw == "" {
			continue
		}
		if _, err := week.ParseDate(raw); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dates must use YYYY-MM-DD")
		}
	}
	if filter.EntityID < 0 {
		filter.EntityID = 0
	}
	return s.client.ChangeLog(ctx, filter)
}

// Import uploads an HTML timetable export.
func (s *AdminService) Import(ctx context.Context, token, filename string, content io.Reader) (*models.ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".html" && ext != ".htm" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only .html files can be imported")
	}
	result, err := s.client.ImportHTML(ctx, token, filepath.Base(filename), content)
	if err != nil {
		s.logger.Warn("timetable import failed", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}
	s.logger.Info("timetable imported",
		zap.String("filename", filename),
		zap.Int("events_created", result.EventsCreated),
		zap.Int("errors", result.ErrorsCount),
		zap.Int("warnings", result.WarningsCount),
	)
	return result, nil
}

// ImportStatus describes the last import.
func (s *AdminService) ImportStatus(ctx context.Context) (*models.ImportStatus, error) {
	return s.client.ImportStatus(ctx)
}
