package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

type referenceClientStub struct {
	calls    int
	err      error
	searched string
}

func (s *referenceClientStub) Buildings(ctx context.Context) ([]models.Building, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []models.Building{{ID: 1, Name: "Главный корпус"}}, nil
}

func (s *referenceClientStub) Groups(ctx context.Context) ([]models.Group, error) {
	return []models.Group{{ID: 42, Code: "ИВТ-21"}}, nil
}

func (s *referenceClientStub) Lecturers(ctx context.Context) ([]models.Lecturer, error) {
	return []models.Lecturer{{ID: 7, FIO: "Иванов И.И."}}, nil
}

func (s *referenceClientStub) WorkKinds(ctx context.Context) ([]models.WorkKind, error) {
	return []models.WorkKind{{ID: 1, Name: "Лекция", ColorHex: "#007bff"}}, nil
}

func (s *referenceClientStub) Rooms(ctx context.Context) ([]models.Room, error) {
	return []models.Room{{ID: 3, Number: "101", BuildingID: 1}}, nil
}

func (s *referenceClientStub) Streams(ctx context.Context) ([]models.Stream, error) {
	return []models.Stream{{ID: 5, Name: "Поток 1"}}, nil
}

func (s *referenceClientStub) Group(ctx context.Context, id int64) (*models.Group, error) {
	return &models.Group{ID: id, Code: "ИВТ-21"}, nil
}

func (s *referenceClientStub) Lecturer(ctx context.Context, id int64) (*models.Lecturer, error) {
	return &models.Lecturer{ID: id, FIO: "Иванов И.И."}, nil
}

func (s *referenceClientStub) Search(ctx context.Context, q string) (*models.SearchResult, error) {
	s.searched = q
	return &models.SearchResult{Groups: []models.Group{{ID: 42, Code: "ИВТ-21"}}}, nil
}

func newReferenceService(client *referenceClientStub) (*ReferenceService, *MetricsService) {
	metrics := NewMetricsService()
	cache := NewCacheService(repository.NewMemoryCacheRepository(), metrics, time.Minute, nil, true)
	return NewReferenceService(client, cache, time.Minute, nil), metrics
}

func TestReferenceServiceCachesLists(t *testing.T) {
	client := &referenceClientStub{}
	svc, metrics := newReferenceService(client)
	ctx := context.Background()

	first, err := svc.References(ctx)
	require.NoError(t, err)
	second, err := svc.References(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, "ИВТ-21", second.Groups[0].Code)
	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestReferenceServiceInvalidateForcesReload(t *testing.T) {
	client := &referenceClientStub{}
	svc, _ := newReferenceService(client)
	ctx := context.Background()

	_, err := svc.References(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Groups(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, client.calls)
}

func TestReferenceServiceWithoutCache(t *testing.T) {
	client := &referenceClientStub{}
	svc := NewReferenceService(client, nil, time.Minute, nil)

	_, err := svc.References(context.Background())
	require.NoError(t, err)
	_, err = svc.References(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, client.calls)
}

func TestReferenceServicePropagatesErrors(t *testing.T) {
	client := &referenceClientStub{err: appErrors.ErrTransport}
	svc, _ := newReferenceService(client)

	_, err := svc.References(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrTransport))
}

func TestReferenceServiceSearchAndLookups(t *testing.T) {
	client := &referenceClientStub{}
	svc, _ := newReferenceService(client)
	ctx := context.Background()

	empty, err := svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total())
	assert.Empty(t, client.searched)

	res, err := svc.Search(ctx, " ИВТ ")
	require.NoError(t, err)
	assert.Equal(t, "ИВТ", client.searched)
	assert.Equal(t, 1, res.Total())

	_, err = svc.Group(ctx, 0)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	lecturer, err := svc.Lecturer(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), lecturer.ID)
}
