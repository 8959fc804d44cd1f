package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

// Subscribe asks the API for a calendar feed URL following one entity.
func (c *Client) Subscribe(ctx context.Context, kind models.FilterKind, id int64) (*models.Subscription, error) {
	if !kind.Valid() || id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subscription needs a filter kind and a positive id")
	}
	q := url.Values{"filter_kind": {string(kind)}, "filter_id": {strconv.FormatInt(id, 10)}}
	var out models.Subscription
	if err := c.getJSON(ctx, "calendar_subscribe", "/api/calendar/subscribe", q, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Feed downloads the ICS document behind a subscription URL.
func (c *Client) Feed(ctx context.Context, icsURL string) ([]byte, error) {
	target, err := url.Parse(icsURL)
	if err != nil || target.Host == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid feed url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe("calendar_feed", 0, duration)
		c.logger.Warn("calendar feed failed", zap.String("host", target.Host), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, appErrors.ErrTransport.Message)
	}
	defer resp.Body.Close()
	c.observe("calendar_feed", resp.StatusCode, duration)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("calendar feed rejected", zap.String("host", target.Host), zap.Int("status", resp.StatusCode))
		return nil, appErrors.Upstream(resp.StatusCode, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, appErrors.ErrTransport.Message)
	}
	c.logger.Info("calendar feed fetched", zap.String("host", target.Host), zap.Int("bytes", len(body)), zap.Duration("duration", duration))
	return body, nil
}
