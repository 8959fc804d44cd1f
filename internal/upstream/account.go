package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
)

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.postJSON(ctx, "auth_login", "/api/auth/login", req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.postJSON(ctx, "auth_register", "/api/auth/register", req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Favorites(ctx context.Context, token string) ([]models.Favorite, error) {
	var out []models.Favorite
	if err := c.getJSON(ctx, "favorites", "/api/favorites", nil, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateFavorite(ctx context.Context, token string, req models.FavoriteCreate) (*models.Favorite, error) {
	var out models.Favorite
	if err := c.postJSON(ctx, "favorites_create", "/api/favorites", req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteFavorite(ctx context.Context, token string, id int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/api/favorites/" + strconv.FormatInt(id, 10),
		token:    token,
		endpoint: "favorites_delete",
	}, nil)
}

// Notifications lists the user's notifications. unreadOnly restricts the list
// to unread entries.
func (c *Client) Notifications(ctx context.Context, token string, unreadOnly bool) ([]models.Notification, error) {
	var q url.Values
	if unreadOnly {
		q = url.Values{"read": {"false"}}
	}
	var out []models.Notification
	if err := c.getJSON(ctx, "notifications", "/api/notifications", q, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UnreadCount(ctx context.Context, token string) (int, error) {
	var out models.UnreadCount
	if err := c.getJSON(ctx, "notifications_unread", "/api/notifications/unread-count", nil, token, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MarkRead(ctx context.Context, token string, id int64) error {
	path := "/api/notifications/" + strconv.FormatInt(id, 10) + "/read"
	return c.postJSON(ctx, "notifications_read", path, nil, token, nil)
}

func (c *Client) MarkAllRead(ctx context.Context, token string) error {
	return c.postJSON(ctx, "notifications_read_all", "/api/notifications/mark-all-read", nil, token, nil)
}
