package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

func TestSubscriptionPagePreselectsSessionGroup(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))
	portal.postForm("/filters", url.Values{"group_id": {"43"}})

	rec := portal.get("/subscriptions")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="43" selected>ПМ-22</option>`)
}

func TestSubscribeShowsURLAndPreview(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	rec := portal.postForm("/subscriptions", url.Values{"filter_kind": {"lecturer"}, "filter_id": {"7"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.FilterKindLecturer, f.calendar.kind)
	assert.Equal(t, int64(7), f.calendar.id)
	assert.Contains(t, rec.Body.String(), "https://api.example.com/calendar/tok.ics")
	assert.Contains(t, rec.Body.String(), "12.03.2025 12:00</strong> Алгебра")
}

func TestSubscribeKeepsURLWhenPreviewFails(t *testing.T) {
	f := newFixtures()
	f.calendar.previewErr = appErrors.Clone(appErrors.ErrMalformedResponse, "calendar feed could not be parsed")
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	rec := portal.postForm("/subscriptions", url.Values{"filter_kind": {"group"}, "filter_id": {"42"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://api.example.com/calendar/tok.ics")
	assert.Contains(t, rec.Body.String(), "calendar feed could not be parsed")

	invalid := portal.postForm("/subscriptions", url.Values{"filter_kind": {"room"}, "filter_id": {"1"}})
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}

func TestSubscribeJSON(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	rec := portal.postJSON("/api/v1/calendar/subscribe?filter_kind=stream&filter_id=5", `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var result SubscriptionResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &result))
	assert.Equal(t, int64(4), result.Subscription.SubscriptionID)
	assert.Len(t, result.Preview, 1)
}
