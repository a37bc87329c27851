package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
)

const (
	defaultOpenFoodFactsBaseURL       = "https://world.openfoodfacts.org"
	responseBodyReadLimit       int64 = 1024
)

// OpenFoodFactsClient queries the Open Food Facts v2 product API.
type OpenFoodFactsClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures optional client behavior.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithBaseURL overrides the registry base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			o.baseURL = trimmed
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		trimmed := strings.TrimSpace(userAgent)
		if trimmed != "" {
			o.userAgent = trimmed
		}
	}
}

func applyOptions(defaultBase string, opts []Option) clientOptions {
	resolved := clientOptions{
		baseURL:    defaultBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	if resolved.httpClient == nil {
		resolved.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if resolved.baseURL == "" {
		resolved.baseURL = defaultBase
	}
	return resolved
}

// NewOpenFoodFactsClient builds an Open Food Facts registry client.
func NewOpenFoodFactsClient(opts ...Option) *OpenFoodFactsClient {
	resolved := applyOptions(defaultOpenFoodFactsBaseURL, opts)
	return &OpenFoodFactsClient{
		httpClient: resolved.httpClient,
		baseURL:    resolved.baseURL,
		userAgent:  resolved.userAgent,
	}
}

// Name identifies the registry.
func (c *OpenFoodFactsClient) Name() string {
	return "openfoodfacts"
}

// Lookup fetches a product by barcode via /api/v2/product/{barcode}.
func (c *OpenFoodFactsClient) Lookup(ctx context.Context, barcode string) (*Product, error) {
	trimmed := strings.TrimSpace(barcode)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	endpoint := fmt.Sprintf("%s/api/v2/product/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build open food facts request")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute open food facts request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "open food facts request failed")
	}

	var apiResp struct {
		Status  int    `json:"status"`
		Code    string `json:"code"`
		Product struct {
			ProductName string `json:"product_name"`
			Brands      string `json:"brands"`
			Categories  string `json:"categories"`
		} `json:"product"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode open food facts response")
	}

	// status 0 means the code is unknown to Open Food Facts.
	if apiResp.Status != 1 || apiResp.Product.ProductName == "" {
		return nil, ErrNotFound
	}

	return &Product{
		Barcode:  trimmed,
		Name:     apiResp.Product.ProductName,
		Brand:    firstCSV(apiResp.Product.Brands),
		Category: firstCSV(apiResp.Product.Categories),
	}, nil
}

func firstCSV(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}
