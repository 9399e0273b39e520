package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/pkg/httputil"
	"github.com/wonny/printdesk/backend/pkg/logger"
)

// Client reads competing supplier prices from the pricing catalog
// ⭐ SSOT: 가격 카탈로그 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a catalog client for baseURL
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// priceResponse is the catalog's wire format
type priceResponse struct {
	ProductKey      string       `json:"product_key"`
	Quantity        int          `json:"quantity"`
	CategoryAverage *float64     `json:"category_average"`
	Prices          []priceQuote `json:"prices"`
}

type priceQuote struct {
	SupplierID int64   `json:"supplier_id"`
	UnitPrice  float64 `json:"unit_price"`
}

// GetPriceSnapshot fetches prices for the item's product/quantity.
// An item without a product key has nothing to compare; nil is returned without a request.
func (c *Client) GetPriceSnapshot(ctx context.Context, item contracts.ItemContext) (*contracts.PriceSnapshot, error) {
	if item.ProductKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("product", item.ProductKey)
	if item.Quantity > 0 {
		params.Set("quantity", strconv.Itoa(item.Quantity))
	}
	if item.Category != "" {
		params.Set("category", item.Category)
	}
	fullURL := fmt.Sprintf("%s/api/prices?%s", c.baseURL, params.Encode())

	var resp priceResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("catalog prices for %s: %w", item.ProductKey, err)
	}

	snapshot := &contracts.PriceSnapshot{
		ProductKey:      resp.ProductKey,
		Quantity:        resp.Quantity,
		Prices:          make(map[int64]float64, len(resp.Prices)),
		CategoryAverage: resp.CategoryAverage,
		FetchedAt:       c.now(),
	}
	if snapshot.ProductKey == "" {
		snapshot.ProductKey = item.ProductKey
	}
	if snapshot.Quantity == 0 {
		snapshot.Quantity = item.Quantity
	}

	skipped := 0
	for _, q := range resp.Prices {
		// 0 이하 가격은 비교 대상 아님
		if q.UnitPrice <= 0 {
			skipped++
			continue
		}
		snapshot.Prices[q.SupplierID] = q.UnitPrice
	}

	c.logger.WithFields(map[string]interface{}{
		"item_id": item.ItemID,
		"product": item.ProductKey,
		"quotes":  len(snapshot.Prices),
		"skipped": skipped,
	}).Debug("Catalog prices fetched")

	return snapshot, nil
}
