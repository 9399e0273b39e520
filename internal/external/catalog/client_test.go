package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/pkg/httputil"
	"github.com/wonny/printdesk/backend/pkg/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	httpClient := httputil.New(logger.Nop(), time.Second).WithRetry(1, time.Millisecond)
	return NewClient(httpClient, nil, server.URL+"/")
}

func TestGetPriceSnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/prices", r.URL.Path)
		assert.Equal(t, "bc-90x50-matte", r.URL.Query().Get("product"))
		assert.Equal(t, "500", r.URL.Query().Get("quantity"))
		assert.Equal(t, "business_cards", r.URL.Query().Get("category"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"product_key": "bc-90x50-matte",
			"quantity": 500,
			"category_average": 41.5,
			"prices": [
				{"supplier_id": 1, "unit_price": 39.0},
				{"supplier_id": 2, "unit_price": 44.0},
				{"supplier_id": 3, "unit_price": 0}
			]
		}`))
	})

	item := contracts.ItemContext{ItemID: 9, Category: "business_cards", ProductKey: "bc-90x50-matte", Quantity: 500}
	snap, err := client.GetPriceSnapshot(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "bc-90x50-matte", snap.ProductKey)
	assert.Equal(t, 500, snap.Quantity)
	require.NotNil(t, snap.CategoryAverage)
	assert.Equal(t, 41.5, *snap.CategoryAverage)
	assert.Equal(t, map[int64]float64{1: 39, 2: 44}, snap.Prices)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestGetPriceSnapshot_NoProductKey(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	snap, err := client.GetPriceSnapshot(context.Background(), contracts.ItemContext{ItemID: 1})
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.False(t, called)
}

func TestGetPriceSnapshot_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "catalog down", http.StatusServiceUnavailable)
	})

	_, err := client.GetPriceSnapshot(context.Background(), contracts.ItemContext{ProductKey: "flyer-a5"})

	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestGetPriceSnapshot_BadJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices": "nope"}`))
	})

	_, err := client.GetPriceSnapshot(context.Background(), contracts.ItemContext{ProductKey: "flyer-a5"})
	assert.Error(t, err)
}
