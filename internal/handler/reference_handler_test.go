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
)

func TestGroupsPageFiltersByCode(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	rec := portal.get("/groups?q=" + url.QueryEscape("пм"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ПМ-22")
	assert.NotContains(t, rec.Body.String(), "ИВТ-21")
	assert.Contains(t, rec.Body.String(), `href="/timetable/group/43"`)
}

func TestSearchPage(t *testing.T) {
	f := newFixtures()
	f.refs.search = &models.SearchResult{
		Lecturers: []models.Lecturer{{ID: 7, FIO: "Иванов И.И."}},
		Rooms:     []models.SearchRoom{{ID: 3, Number: "101", Building: &models.BuildingRef{ID: 1, Name: "Главный"}}},
	}
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	short := portal.get("/search?q=" + url.QueryEscape("и"))
	require.Equal(t, http.StatusOK, short.Code)
	assert.Contains(t, short.Body.String(), "не меньше двух символов")
	assert.Empty(t, f.refs.query)

	rec := portal.get("/search?q=" + url.QueryEscape(" Иван "))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Иван", f.refs.query)
	assert.Contains(t, rec.Body.String(), `href="/timetable/lecturer/7"`)
	assert.Contains(t, rec.Body.String(), "101 · Главный")
}

func TestSearchJSON(t *testing.T) {
	f := newFixtures()
	f.refs.search = &models.SearchResult{Groups: []models.Group{{ID: 42, Code: "ИВТ-21"}}}
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	short := portal.getJSON("/api/v1/search?q=x")
	assert.Equal(t, http.StatusBadRequest, short.Code)

	rec := portal.getJSON("/api/v1/search?q=" + url.QueryEscape("ИВТ"))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, float64(1), env.Meta["total"])
}

func TestReferenceLookups(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	rec := portal.getJSON("/api/v1/groups/42")
	require.Equal(t, http.StatusOK, rec.Code)
	var group models.Group
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &group))
	assert.Equal(t, "ИВТ-21", group.Code)

	assert.Equal(t, http.StatusBadRequest, portal.getJSON("/api/v1/groups/0").Code)
	assert.Equal(t, http.StatusNotFound, portal.getJSON("/api/v1/lecturers/99").Code)

	refs := portal.getJSON("/api/v1/references")
	require.Equal(t, http.StatusOK, refs.Code)
	assert.Contains(t, refs.Body.String(), `"work_kinds"`)
}
