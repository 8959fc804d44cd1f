package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-portal/internal/service"
	"github.com/noah-isme/sma-timetable-portal/pkg/config"
	"github.com/noah-isme/sma-timetable-portal/pkg/jobs"
)

func multipartUpload(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportForwardsFileAndToken(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	req := multipartUpload(t, "/api/v1/import", "week.html", "<table></table>")
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := portal.do(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "week.html", f.admin.filename)
	assert.Equal(t, "<table></table>", f.admin.body)
	assert.Equal(t, "admin-token", f.admin.token)
	assert.Contains(t, rec.Body.String(), `"events_created":12`)
}

func TestImportRejectsNonHTML(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	rec := portal.do(multipartUpload(t, "/api/v1/import", "week.xlsx", "binary"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.admin.filename)

	missing, _ := http.NewRequest(http.MethodPost, "/api/v1/import", nil)
	assert.Equal(t, http.StatusBadRequest, portal.do(missing).Code)
}

func TestImportPageShowsResultAndStatus(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	page := portal.get("/import")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "пустая ячейка")

	req := multipartUpload(t, "/import", "week.htm", "<table></table>")
	req.Header.Set("Accept", "text/html")
	rec := portal.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Создано событий: 12")
}

func TestChangeLogPassesFilter(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	rec := portal.get("/changelog?entity=event&entity_id=7&actor=+admin+&date_from=2025-03-01")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "event", f.admin.filter.Entity)
	assert.Equal(t, int64(7), f.admin.filter.EntityID)
	assert.Equal(t, "admin", f.admin.filter.Actor)
	assert.Contains(t, rec.Body.String(), "admin@example.com")

	bad := portal.getJSON("/api/v1/changelog?date_from=01.03.2025")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestTriggerJob(t *testing.T) {
	f := newFixtures()
	portal := newTestPortal(t, config.VariantAdmin, f.handlers(0))

	rec := portal.postJSON("/api/v1/maintenance/"+service.JobSweepFeeds, `{}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{service.JobSweepFeeds}, f.jobs.triggered)

	f.jobs.err = jobs.ErrPending
	pending := portal.postJSON("/api/v1/maintenance/"+service.JobSweepFeeds, `{}`)
	require.Equal(t, http.StatusAccepted, pending.Code)
	assert.Contains(t, pending.Body.String(), `"pending":true`)

	refresh := portal.postForm("/groups/refresh", nil)
	assert.Equal(t, http.StatusSeeOther, refresh.Code)
	assert.Equal(t, "/groups?flash=refresh", refresh.Header().Get("Location"))
}

func TestVariantsDoNotShareRoutes(t *testing.T) {
	f := newFixtures()
	admin := newTestPortal(t, config.VariantAdmin, f.handlers(0))
	account := newTestPortal(t, config.VariantAccount, f.handlers(0))

	assert.Equal(t, http.StatusNotFound, admin.get("/login").Code)
	assert.Equal(t, http.StatusNotFound, admin.get("/favorites").Code)
	assert.Equal(t, http.StatusNotFound, account.get("/changelog").Code)
	assert.Equal(t, http.StatusNotFound, account.get("/groups").Code)

	assert.Equal(t, http.StatusOK, admin.get("/groups").Code)
	assert.Equal(t, http.StatusOK, account.get("/login").Code)
	assert.Equal(t, "account", account.get("/timetable").Header().Get("X-App-Variant"))
}
