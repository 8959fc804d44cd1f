package upstream

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
)

// Timetable returns the events matching params. A body that is not a JSON
// array is malformed; single events that fail to decode or validate are
// dropped and logged.
func (c *Client) Timetable(ctx context.Context, params url.Values) ([]models.Event, error) {
	var items []json.RawMessage
	if err := c.getJSON(ctx, "timetable", "/api/timetable", params, "", &items); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(items))
	for i, item := range items {
		var event models.Event
		err := json.Unmarshal(item, &event)
		if err == nil {
			err = c.validate.Struct(event)
		}
		if err != nil {
			c.logger.Warn("dropping malformed timetable event",
				zap.Int("index", i),
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// EventHistory returns the change log of one event, newest first.
func (c *Client) EventHistory(ctx context.Context, eventID int64) ([]models.ChangeLog, error) {
	var out []models.ChangeLog
	path := "/api/events/" + strconv.FormatInt(eventID, 10) + "/history"
	if err := c.getJSON(ctx, "event_history", path, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}
