package upstream

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

func (c *Client) Buildings(ctx context.Context) ([]models.Building, error) {
	var out []models.Building
	if err := c.getJSON(ctx, "buildings", "/api/buildings", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Groups(ctx context.Context) ([]models.Group, error) {
	var out []models.Group
	if err := c.getJSON(ctx, "groups", "/api/groups", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Lecturers(ctx context.Context) ([]models.Lecturer, error) {
	var out []models.Lecturer
	if err := c.getJSON(ctx, "lecturers", "/api/lecturers", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WorkKinds(ctx context.Context) ([]models.WorkKind, error) {
	var out []models.WorkKind
	if err := c.getJSON(ctx, "work_kinds", "/api/work-kinds", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Rooms(ctx context.Context) ([]models.Room, error) {
	var out []models.Room
	if err := c.getJSON(ctx, "rooms", "/api/rooms", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Streams(ctx context.Context) ([]models.Stream, error) {
	var out []models.Stream
	if err := c.getJSON(ctx, "streams", "/api/streams", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Group looks up one group. A null body is reported as not found.
func (c *Client) Group(ctx context.Context, id int64) (*models.Group, error) {
	var out *models.Group
	if err := c.getJSON(ctx, "group", "/api/groups/"+strconv.FormatInt(id, 10), nil, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	return out, nil
}

// Lecturer looks up one lecturer. A null body is reported as not found.
func (c *Client) Lecturer(ctx context.Context, id int64) (*models.Lecturer, error) {
	var out *models.Lecturer
	if err := c.getJSON(ctx, "lecturer", "/api/lecturers/"+strconv.FormatInt(id, 10), nil, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
	}
	return out, nil
}

// MinSearchLength is the shortest query the search endpoint accepts.
const MinSearchLength = 2

// Search runs the free-text search.
func (c *Client) Search(ctx context.Context, q string) (*models.SearchResult, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < MinSearchLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, "search query must have at least 2 characters")
	}
	var out models.SearchResult
	if err := c.getJSON(ctx, "search", "/api/search", map[string][]string{"q": {q}}, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
