package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/product-proxy/internal/metrics"
	"github.com/Checker-Finance/product-proxy/internal/rate"
)

// Response is the outcome of a request that reached the server.
type Response struct {
	Status int
	Body   []byte
}

// Successful reports whether Status is in the 2xx range.
func (r *Response) Successful() bool {
	return r.Status >= 200 && r.Status < 300
}

// DecodeJSON unmarshals the response body into out.
func (r *Response) DecodeJSON(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

// Executor performs single-attempt JSON requests with rate limiting and metrics.
// It never retries; callers decide what a non-2xx status means.
type Executor struct {
	logger  *zap.Logger
	limiter *rate.Limiter
	http    *http.Client
	tag     string
}

// New creates an Executor. A nil limiter disables rate limiting.
func New(logger *zap.Logger, limiter *rate.Limiter, httpClient *http.Client, tag string) *Executor {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Executor{
		logger:  logger,
		limiter: limiter,
		http:    httpClient,
		tag:     tag,
	}
}

// Do sends method to url with body JSON-encoded (nil sends no body).
// The error is non-nil only when no HTTP response was obtained.
func (e *Executor) Do(ctx context.Context, operation, method, url string, body any) (*Response, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		metrics.IncUpstreamRequest(operation, method, "error")
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := e.http.Do(req)
	metrics.ObserveDuration(metrics.UpstreamRequestDuration, start, operation, method)
	if err != nil {
		metrics.IncUpstreamRequest(operation, method, "error")
		e.logger.Warn(e.tag+".http_failed",
			zap.String("operation", operation),
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncUpstreamRequest(operation, method, "error")
		return nil, fmt.Errorf("read body: %w", err)
	}

	metrics.IncUpstreamRequest(operation, method, strconv.Itoa(resp.StatusCode))
	e.logger.Debug(e.tag+".http_done",
		zap.String("operation", operation),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{Status: resp.StatusCode, Body: data}, nil
}
