package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	contentTypeJSON   = "application/json"
	contentTypeLDJSON = "application/ld+json"
)

// ErrNetwork marks transport failures and 5xx responses. Read paths treat it
// as "no data"; write paths surface it and keep prior state.
var ErrNetwork = errors.New("backend request failed")

// ValidationError carries backend-reported field errors verbatim, keyed by
// field name.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "backend rejected request"
}

// Client is a typed HTTP client for the Cyna commerce backend. All
// authenticated calls send Authorization: Bearer <token>.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func New(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

type request struct {
	method      string
	path        string
	token       string
	contentType string
	body        any
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}
	if req.body != nil {
		ct := req.contentType
		if ct == "" {
			ct = contentTypeJSON
		}
		httpReq.Header.Set("Content-Type", ct)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s response: %v", ErrNetwork, req.method, req.path, err)
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.Error("backend error", slog.String("path", req.path), slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s %s returned %d", ErrNetwork, req.method, req.path, resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return decodeValidationError(raw)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s returned %d", req.method, req.path, resp.StatusCode)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

func decodeValidationError(raw []byte) error {
	var payload struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || (payload.Message == "" && len(payload.Errors) == 0) {
		return &ValidationError{Message: "invalid request"}
	}
	return &ValidationError{Message: payload.Message, Fields: payload.Errors}
}
