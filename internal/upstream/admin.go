package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
)

// ChangeLog returns the audit trail narrowed by filter.
func (c *Client) ChangeLog(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, error) {
	q := url.Values{}
	if filter.Entity != "" {
		q.Set("entity", filter.Entity)
	}
	if filter.EntityID > 0 {
		q.Set("entity_id", strconv.FormatInt(filter.EntityID, 10))
	}
	if filter.Actor != "" {
		q.Set("actor", filter.Actor)
	}
	if filter.DateFrom != "" {
		q.Set("date_from", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q.Set("date_to", filter.DateTo)
	}
	var out []models.ChangeLog
	if err := c.getJSON(ctx, "changelog", "/api/changelog", q, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ImportHTML uploads an HTML timetable for server-side import.
func (c *Client) ImportHTML(ctx context.Context, token, filename string, content io.Reader) (*models.ImportResult, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy import file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	var out models.ImportResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/import/html",
		body:        buf,
		contentType: writer.FormDataContentType(),
		token:       token,
		endpoint:    "import_html",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportStatus returns the outcome of the last import.
func (c *Client) ImportStatus(ctx context.Context) (*models.ImportStatus, error) {
	var out models.ImportStatus
	if err := c.getJSON(ctx, "import_status", "/api/import/status", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
