// Package commerce reads product and stock data from the Wix Stores API.
//
// The catalog is walked page by page through the products query endpoint.
// The walk is bounded by a fixed page count so it terminates even when the
// API keeps reporting more results. Requests are throttled with a token
// bucket.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/JonMunkholm/feedsync/internal/config"
	"github.com/JonMunkholm/feedsync/internal/logging"
)

const productsQueryPath = "/stores/v1/products/query"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// APIError is a non-2xx response from the store API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wix api error (status %d): %s", e.Status, e.Body)
}

// HTTPStatus returns the upstream status code.
func (e *APIError) HTTPStatus() int { return e.Status }

// Client is a store API client. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	siteID      string
	pageSize    int
	maxPages    int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sends client logs to l instead of the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client from the commerce configuration.
func New(cfg config.CommerceConfig, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		siteID:      cfg.SiteID,
		pageSize:    cfg.PageSize,
		maxPages:    cfg.MaxPages,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
	if c.pageSize <= 0 {
		c.pageSize = 100
	}
	if c.maxPages <= 0 {
		c.maxPages = 1
	}
	switch {
	case cfg.RequestsPerSecond <= 0:
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	case cfg.Burst < 1:
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// walkCatalog calls visit with every product page in order. It stops after
// the last page, after maxPages pages, or when visit returns false.
func (c *Client) walkCatalog(ctx context.Context, visit func([]wixProduct) bool) error {
	offset, total := 0, 0
	for page := 0; page < c.maxPages; page++ {
		resp, err := c.queryProducts(ctx, offset)
		if err != nil {
			return err
		}
		if len(resp.Products) == 0 {
			return nil
		}
		if !visit(resp.Products) {
			return nil
		}
		offset += len(resp.Products)
		if len(resp.Products) < c.pageSize {
			return nil
		}
		if resp.TotalResults > 0 && offset >= resp.TotalResults {
			return nil
		}
		total = resp.TotalResults
	}
	// Products past the bound are reported as unavailable.
	c.log(ctx).Warn("catalog walk stopped at page bound",
		"pages", c.maxPages,
		"offset", offset,
		"total_results", total,
	)
	return nil
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logging.FromContext(ctx)
}

type productsQuery struct {
	Query struct {
		Paging struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		} `json:"paging"`
	} `json:"query"`
}

func (c *Client) queryProducts(ctx context.Context, offset int) (*productsResponse, error) {
	var q productsQuery
	q.Query.Paging.Limit = c.pageSize
	q.Query.Paging.Offset = offset

	body, err := c.doRequest(ctx, http.MethodPost, productsQueryPath, q)
	if err != nil {
		return nil, err
	}
	var resp productsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse products response: %w", err)
	}
	return &resp, nil
}

// doRequest performs an authenticated, rate-limited JSON request.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("wix-site-id", c.siteID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &APIError{Status: resp.StatusCode, Body: msg}
	}
	return respBody, nil
}

// Wix data structures
type productsResponse struct {
	Products     []wixProduct `json:"products"`
	TotalResults int          `json:"totalResults"`
}

type wixProduct struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	SKU      string       `json:"sku"`
	Stock    *wixStock    `json:"stock"`
	Variants []wixVariant `json:"variants"`
}

type wixStock struct {
	InStock  bool     `json:"inStock"`
	Quantity *float64 `json:"quantity"`
}

// wixVariant covers both variant layouts the API returns: stock nested under
// "stock" with the SKU under "variant", or everything at the top level.
type wixVariant struct {
	ID       string    `json:"id"`
	SKU      string    `json:"sku"`
	Stock    *wixStock `json:"stock"`
	InStock  bool      `json:"inStock"`
	Quantity *float64  `json:"quantity"`
	Variant  *struct {
		SKU string `json:"sku"`
	} `json:"variant"`
}

func (v wixVariant) sku() string {
	if s := strings.TrimSpace(v.SKU); s != "" {
		return s
	}
	if v.Variant != nil {
		return strings.TrimSpace(v.Variant.SKU)
	}
	return ""
}

func quantity(q *float64) int {
	if q == nil {
		return 0
	}
	return int(*q)
}
