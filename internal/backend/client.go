// Package backend is the HTTP client for the itinerary backend.
package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/itinerary"
)

// DefaultHealthTimeout bounds a health check when the client has none configured.
const DefaultHealthTimeout = 5 * time.Second

// PlanRequest is the body of POST /api/plan.
type PlanRequest struct {
	Destinations []itinerary.Destination `json:"destinations"`
	Preferences  string                  `json:"preferences"`
}

// PDFRequest is the body of POST /api/generate-pdf.
type PDFRequest struct {
	Markdown   string `json:"markdown"`
	OutputPath string `json:"output_path,omitempty"`
}

// PDFResponse is the success body of POST /api/generate-pdf.
type PDFResponse struct {
	Success bool   `json:"success"`
	PDFPath string `json:"pdf_path"`
}

// HealthResponse is the success body of GET /health.
type HealthResponse struct {
	Status    string `json:"status,omitempty"`
	LLMLoaded bool   `json:"llm_loaded"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}

// Options configures a Client.
type Options struct {
	// RequestTimeout bounds plan and PDF requests. Zero means no client-side limit.
	RequestTimeout time.Duration
	// HealthTimeout bounds health checks. Zero means DefaultHealthTimeout.
	HealthTimeout time.Duration
	Logger        *slog.Logger
}

// Client talks to the backend over HTTP.
type Client struct {
	http          *resty.Client
	baseURL       string
	healthTimeout time.Duration
	logger        *slog.Logger
}

// New creates a client for the backend at baseURL (e.g. http://127.0.0.1:8000).
func New(baseURL string, opts Options) *Client {
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = DefaultHealthTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if opts.RequestTimeout > 0 {
		httpClient.SetTimeout(opts.RequestTimeout)
	}

	return &Client{
		http:          httpClient,
		baseURL:       baseURL,
		healthTimeout: opts.HealthTimeout,
		logger:        opts.Logger,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Plan asks the backend to generate an itinerary.
// Non-2xx responses return a BACKEND error carrying the backend's detail message;
// transport failures return BACKEND_UNAVAILABLE.
func (c *Client) Plan(ctx context.Context, req PlanRequest) (*itinerary.Itinerary, error) {
	if req.Destinations == nil {
		req.Destinations = []itinerary.Destination{}
	}

	res, err := c.post(ctx, "/api/plan", req)
	if err != nil {
		return nil, err
	}

	var it itinerary.Itinerary
	if err := json.Unmarshal(res.Body(), &it); err != nil {
		c.logger.Error("unexpected plan response from backend", "error", err)
		return nil, errors.NewBackend(res.StatusCode(), "backend returned an invalid itinerary")
	}
	return &it, nil
}

// GeneratePDF asks the backend to render markdown as a PDF.
func (c *Client) GeneratePDF(ctx context.Context, req PDFRequest) (*PDFResponse, error) {
	res, err := c.post(ctx, "/api/generate-pdf", req)
	if err != nil {
		return nil, err
	}

	var out PDFResponse
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		c.logger.Error("unexpected pdf response from backend", "error", err)
		return nil, errors.NewBackend(res.StatusCode(), "backend returned an invalid PDF response")
	}
	return &out, nil
}

// Health queries GET /health. Any failure, including a non-2xx status, is an error;
// callers treat errors as "offline".
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return nil, errors.NewBackendUnavailable(err)
	}
	if !res.IsSuccess() {
		return nil, errors.NewBackend(res.StatusCode(), detailFrom(res.Body()))
	}

	var out HealthResponse
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, errors.NewBackend(res.StatusCode(), "backend returned an invalid health response")
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*resty.Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		c.logger.Error("backend request failed", "path", path, "error", err)
		return nil, errors.NewBackendUnavailable(err)
	}

	if !res.IsSuccess() {
		c.logger.Error("backend returned error", "path", path, "status_code", res.StatusCode(), "body", res.String())
		return nil, errors.NewBackend(res.StatusCode(), detailFrom(res.Body()))
	}
	return res, nil
}

// detailFrom extracts the user-facing message from an error body of the form {"detail": ...}.
// Validation errors carry a list of objects instead of a string; those are returned as JSON text.
func detailFrom(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Detail == nil {
		return ""
	}
	if s, ok := e.Detail.(string); ok {
		return s
	}
	b, err := json.Marshal(e.Detail)
	if err != nil {
		return ""
	}
	return string(b)
}
