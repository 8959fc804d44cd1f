// Package upstream is the typed client of the timetable REST API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

const maxBodyBytes = 8 << 20

// Observer receives one sample per upstream call.
type Observer interface {
	ObserveUpstreamCall(endpoint string, status int, duration time.Duration)
}

// Config configures the client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Logger     *zap.Logger
	Metrics    Observer
	HTTPClient *http.Client
}

// Client calls the timetable API. Every payload is decoded into explicit
// types and validated before it is returned.
type Client struct {
	base     *url.URL
	http     *http.Client
	logger   *zap.Logger
	metrics  Observer
	validate *validator.Validate
}

// New builds a client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = cfg.Timeout

	return &Client{
		base:     base,
		http:     httpClient,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		validate: validator.New(),
	}, nil
}

// BaseURL is the configured API origin.
func (c *Client) BaseURL() string {
	return c.base.String()
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	token       string
	endpoint    string
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, token string, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query, token: token, endpoint: endpoint}, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, payload any, token string, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(raw)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
		token:       token,
		endpoint:    endpoint,
	}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.base.JoinPath(r.path)
	if len(r.query) > 0 {
		target.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target.String(), r.body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	fields := []zap.Field{
		zap.String("method", r.method),
		zap.String("path", target.Path),
		zap.String("params", summarize(r.query)),
		zap.Duration("duration", duration),
	}
	if err != nil {
		c.observe(r.endpoint, 0, duration)
		c.logger.Warn("upstream request failed", append(fields, zap.Error(err))...)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return appErrors.Wrap(ctxErr, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, appErrors.ErrTransport.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, appErrors.ErrTransport.Message)
	}
	defer resp.Body.Close()
	c.observe(r.endpoint, resp.StatusCode, duration)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.Warn("upstream body read failed", append(fields, zap.Int("status", resp.StatusCode), zap.Error(err))...)
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, appErrors.ErrTransport.Message)
	}

	fields = append(fields, zap.Int("status", resp.StatusCode), zap.Int("bytes", len(raw)))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("upstream request rejected", fields...)
		return appErrors.Upstream(resp.StatusCode, detail(raw))
	}
	c.logger.Info("upstream request", fields...)

	if out == nil {
		return nil
	}
	if err := c.decode(raw, out); err != nil {
		c.logger.Warn("upstream payload malformed", append(fields, zap.String("endpoint", r.endpoint), zap.Error(err))...)
		return err
	}
	return nil
}

// decode unmarshals and validates a payload. A slice fails as a whole when
// any element is invalid; raw item lists are left to the caller.
func (c *Client) decode(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrMalformedResponse.Code, appErrors.ErrMalformedResponse.Status, appErrors.ErrMalformedResponse.Message)
	}
	if _, ok := out.(*[]json.RawMessage); ok {
		return nil
	}

	value := reflect.ValueOf(out)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	var err error
	switch value.Kind() {
	case reflect.Slice:
		err = c.validate.Var(value.Interface(), "dive")
	case reflect.Struct:
		err = c.validate.Struct(value.Interface())
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrMalformedResponse.Code, appErrors.ErrMalformedResponse.Status, appErrors.ErrMalformedResponse.Message)
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveUpstreamCall(endpoint, status, duration)
	}
}

// detail extracts the human readable message of an error body. Both
// {"detail": "..."} and validation lists {"detail": [{"msg": "..."}]} are
// understood.
func detail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		return text
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

var redactedParams = map[string]bool{"token": true, "password": true}

// summarize lists query parameters for logs in key order.
func summarize(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.Join(q[k], ",")
		if redactedParams[k] {
			v = "***"
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

// IsMalformed reports whether err is a payload shape failure.
func IsMalformed(err error) bool {
	return errors.Is(err, appErrors.ErrMalformedResponse)
}
