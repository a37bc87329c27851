package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
)

const defaultUPCItemDBBaseURL = "https://api.upcitemdb.com/prod/trial"

// UPCItemDBClient queries the UPCitemdb trial lookup API.
type UPCItemDBClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewUPCItemDBClient builds a UPCitemdb registry client.
func NewUPCItemDBClient(opts ...Option) *UPCItemDBClient {
	resolved := applyOptions(defaultUPCItemDBBaseURL, opts)
	return &UPCItemDBClient{
		httpClient: resolved.httpClient,
		baseURL:    resolved.baseURL,
		userAgent:  resolved.userAgent,
	}
}

// Name identifies the registry.
func (c *UPCItemDBClient) Name() string {
	return "upcitemdb"
}

// Lookup fetches a product by barcode via /lookup?upc={code}.
func (c *UPCItemDBClient) Lookup(ctx context.Context, barcode string) (*Product, error) {
	trimmed := strings.TrimSpace(barcode)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	endpoint := fmt.Sprintf("%s/lookup?upc=%s", strings.TrimRight(c.baseURL, "/"), url.QueryEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build upcitemdb request")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute upcitemdb request")
	}
	defer func() { _ = resp.Body.Close() }()

	// The trial API answers 404 for unknown codes and 429 when rate limited.
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "upcitemdb request failed")
	}

	var apiResp struct {
		Code  string `json:"code"`
		Total int    `json:"total"`
		Items []struct {
			Title       string  `json:"title"`
			Brand       string  `json:"brand"`
			Category    string  `json:"category"`
			LowestPrice float64 `json:"lowest_recorded_price"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upcitemdb response")
	}

	if apiResp.Total == 0 || len(apiResp.Items) == 0 || apiResp.Items[0].Title == "" {
		return nil, ErrNotFound
	}

	item := apiResp.Items[0]
	product := &Product{
		Barcode:  trimmed,
		Name:     item.Title,
		Brand:    strings.TrimSpace(item.Brand),
		Category: lastCategorySegment(item.Category),
	}
	if item.LowestPrice > 0 {
		price := decimal.NewFromFloat(item.LowestPrice).Round(2)
		product.Price = &price
	}
	return product, nil
}

// lastCategorySegment keeps the most specific segment of UPCitemdb's
// "Food, Beverages & Tobacco > Beverages > Soda" category paths.
func lastCategorySegment(path string) string {
	segments := strings.Split(path, ">")
	return strings.TrimSpace(segments[len(segments)-1])
}
