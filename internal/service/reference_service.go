package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

const (
	referencesCacheKey     = "references:all"
	referencesCachePattern = "references:*"
)

type referenceClient interface {
	Buildings(ctx context.Context) ([]models.Building, error)
	Groups(ctx context.Context) ([]models.Group, error)
	Lecturers(ctx context.Context) ([]models.Lecturer, error)
	WorkKinds(ctx context.Context) ([]models.WorkKind, error)
	Rooms(ctx context.Context) ([]models.Room, error)
	Streams(ctx context.Context) ([]models.Stream, error)
	Group(ctx context.Context, id int64) (*models.Group, error)
	Lecturer(ctx context.Context, id int64) (*models.Lecturer, error)
	Search(ctx context.Context, q string) (*models.SearchResult, error)
}

type referenceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// ReferenceService serves the lists behind the filter bar. The lists change
// rarely, so they are cached and refreshed on a schedule.
type ReferenceService struct {
	client referenceClient
	cache  referenceCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewReferenceService constructs a ReferenceService. cache may be nil.
func NewReferenceService(client referenceClient, cache referenceCache, ttl time.Duration, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{client: client, cache: cache, ttl: ttl, logger: logger}
}

// References returns every reference list, from cache when possible.
func (s *ReferenceService) References(ctx context.Context) (*models.References, error) {
	if s.cache != nil {
		var cached models.References
		if hit, err := s.cache.Get(ctx, referencesCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh reloads every list from the API and replaces the cached copy.
func (s *ReferenceService) Refresh(ctx context.Context) (*models.References, error) {
	refs := &models.References{}
	var err error
	if refs.Buildings, err = s.client.Buildings(ctx); err != nil {
		return nil, fmt.Errorf("load buildings: %w", err)
	}
	if refs.Groups, err = s.client.Groups(ctx); err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	if refs.Lecturers, err = s.client.Lecturers(ctx); err != nil {
		return nil, fmt.Errorf("load lecturers: %w", err)
	}
	if refs.WorkKinds, err = s.client.WorkKinds(ctx); err != nil {
		return nil, fmt.Errorf("load work kinds: %w", err)
	}
	if refs.Rooms, err = s.client.Rooms(ctx); err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	if refs.Streams, err = s.client.Streams(ctx); err != nil {
		return nil, fmt.Errorf("load streams: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, referencesCacheKey, refs, s.ttl)
	}
	s.logger.Info("reference lists loaded",
		zap.Int("buildings", len(refs.Buildings)),
		zap.Int("groups", len(refs.Groups)),
		zap.Int("lecturers", len(refs.Lecturers)),
		zap.Int("work_kinds", len(refs.WorkKinds)),
		zap.Int("rooms", len(refs.Rooms)),
		zap.Int("streams", len(refs.Streams)),
	)
	return refs, nil
}

// Invalidate drops the cached lists.
func (s *ReferenceService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, referencesCachePattern)
}

// Groups returns the group list.
func (s *ReferenceService) Groups(ctx context.Context) ([]models.Group, error) {
	refs, err := s.References(ctx)
	if err != nil {
		return nil, err
	}
	return refs.Groups, nil
}

// Group returns one group by id.
func (s *ReferenceService) Group(ctx context.Context, id int64) (*models.Group, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid group id")
	}
	return s.client.Group(ctx, id)
}

// Lecturer returns one lecturer by id.
func (s *ReferenceService) Lecturer(ctx context.Context, id int64) (*models.Lecturer, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lecturer id")
	}
	return s.client.Lecturer(ctx, id)
}

// Search runs the free-text search. A blank query yields an empty result.
func (s *ReferenceService) Search(ctx context.Context, q string) (*models.SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return &models.SearchResult{}, nil
	}
	return s.client.Search(ctx, q)
}
