package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Checker-Finance/product-proxy/internal/httpclient"
	"github.com/Checker-Finance/product-proxy/internal/metrics"
	"github.com/Checker-Finance/product-proxy/pkg/model"
)

// Client talks to the upstream product API rooted at a fixed base URL.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
}

// NewClient constructs a client for baseURL. An empty or malformed base URL
// is accepted; every call will then fail.
func NewClient(logger *zap.Logger, exec *httpclient.Executor, baseURL string) *Client {
	return &Client{
		logger:  logger,
		exec:    exec,
		baseURL: baseURL,
	}
}

// List fetches every product.
// GET {baseUrl}
func (c *Client) List(ctx context.Context) ([]model.UpstreamProduct, error) {
	resp, err := c.exec.Do(ctx, "list", http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	if !resp.Successful() {
		return nil, &Error{Op: "list", Status: resp.Status, Body: string(resp.Body)}
	}

	var out []model.UpstreamProduct
	if err := resp.DecodeJSON(&out); err != nil {
		c.logger.Warn("upstream.list.decode_failed",
			zap.Error(err),
			zap.String("body", string(resp.Body)))
		return nil, &Error{Op: "list", Status: resp.Status, Err: err}
	}
	return out, nil
}

// Create posts a new product.
// POST {baseUrl}
func (c *Client) Create(ctx context.Context, p model.CreatePayload) error {
	resp, err := c.exec.Do(ctx, "create", http.MethodPost, c.baseURL, p)
	if err != nil {
		return &Error{Op: "create", Err: err}
	}
	if !resp.Successful() {
		c.logger.Warn("upstream.create.rejected",
			zap.Int("status", resp.Status),
			zap.String("body", string(resp.Body)))
		return &Error{Op: "create", Status: resp.Status, Body: string(resp.Body)}
	}
	return nil
}

// Update replaces a product with PUT, falling back once to PATCH when the
// PUT answers with an error status. The PATCH outcome is the final one.
// PUT|PATCH {baseUrl}/{id}
func (c *Client) Update(ctx context.Context, id string, p model.UpdatePayload) error {
	target := c.resourceURL(id)

	c.logger.Info("upstream.update.sending",
		zap.String("url", target),
		zap.Any("payload", p))

	resp, err := c.exec.Do(ctx, "update", http.MethodPut, target, p)
	if err == nil && !resp.Successful() && resp.Status >= 400 {
		c.logger.Info("upstream.update.put_failed_trying_patch",
			zap.Int("status", resp.Status))
		metrics.IncUpdateFallback()
		resp, err = c.exec.Do(ctx, "update", http.MethodPatch, target, p)
	}
	if err != nil {
		c.logger.Warn("upstream.update.failed", zap.String("url", target), zap.Error(err))
		return &Error{Op: "update", Err: err}
	}

	c.logger.Info("upstream.update.response",
		zap.Int("status", resp.Status),
		zap.String("body", string(resp.Body)))

	if !resp.Successful() {
		return &Error{Op: "update", Status: resp.Status, Body: string(resp.Body)}
	}
	return nil
}

// Delete removes a product.
// DELETE {baseUrl}/{id}
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.exec.Do(ctx, "delete", http.MethodDelete, c.resourceURL(id), nil)
	if err != nil {
		return &Error{Op: "delete", Err: err}
	}
	if !resp.Successful() {
		c.logger.Warn("upstream.delete.rejected",
			zap.String("id", id),
			zap.Int("status", resp.Status))
		return &Error{Op: "delete", Status: resp.Status, Body: string(resp.Body)}
	}
	return nil
}

// resourceURL joins the base URL and an escaped id with exactly one slash.
func (c *Client) resourceURL(id string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + url.PathEscape(id)
}
