package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/JonMunkholm/feedsync/internal/config"
	"github.com/JonMunkholm/feedsync/internal/core"
)

// catalogServer serves products in pages according to the request paging.
func catalogServer(t *testing.T, products []map[string]any, total int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.Method != http.MethodPost || r.URL.Path != productsQueryPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("wix-site-id"); got != "site" {
			t.Errorf("wix-site-id = %q", got)
		}

		var q productsQuery
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			t.Errorf("decode query: %v", err)
		}
		start := q.Query.Paging.Offset
		end := start + q.Query.Paging.Limit
		if start > len(products) {
			start = len(products)
		}
		if end > len(products) {
			end = len(products)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"products":     products[start:end],
			"totalResults": total,
		})
	}))
}

func testClient(url string, pageSize, maxPages int, opts ...Option) *Client {
	return New(config.CommerceConfig{
		BaseURL:     url,
		AccessToken: "token",
		SiteID:      "site",
		PageSize:    pageSize,
		MaxPages:    maxPages,
	}, opts...)
}

func TestGetInventory_Shapes(t *testing.T) {
	products := []map[string]any{
		{
			"id": "p1", "sku": "SIMPLE",
			"stock": map[string]any{"inStock": true, "quantity": 5},
		},
		{
			"id": "p2", "sku": "PARENT",
			"stock": map[string]any{"inStock": false},
			"variants": []map[string]any{
				{"id": "v1", "variant": map[string]any{"sku": "NESTED"}, "stock": map[string]any{"inStock": true, "quantity": 2}},
				{"id": "v2", "sku": " FLAT ", "inStock": true, "quantity": 7},
				{"id": "v3", "sku": "OTHER", "inStock": true},
			},
		},
		{"id": "p3", "sku": "NOSTOCK"},
	}
	var calls int32
	srv := catalogServer(t, products, len(products), &calls)
	defer srv.Close()

	c := testClient(srv.URL, 100, 5)
	got, err := c.GetInventory(context.Background(), []string{"SIMPLE", "NESTED", "FLAT", "NOSTOCK", "MISSING"})
	if err != nil {
		t.Fatalf("GetInventory() error = %v", err)
	}

	want := []core.InventoryRecord{
		{SKU: "SIMPLE", InStock: true, Quantity: 5, Source: core.SourceProduct},
		{SKU: "NESTED", InStock: true, Quantity: 2, Source: core.SourceVariant},
		{SKU: "FLAT", InStock: true, Quantity: 7, Source: core.SourceInventory},
		{SKU: "NOSTOCK", InStock: false, Quantity: 0, Source: core.SourceProduct},
	}
	if len(got) != len(want) {
		t.Fatalf("records = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestGetInventory_EmptyRequestSkipsAPI(t *testing.T) {
	var calls int32
	srv := catalogServer(t, nil, 0, &calls)
	defer srv.Close()

	got, err := testClient(srv.URL, 10, 5).GetInventory(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("records = %#v, want empty slice", got)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestWalkCatalog_Paging(t *testing.T) {
	var products []map[string]any
	for i := 0; i < 5; i++ {
		products = append(products, map[string]any{"id": string(rune('a' + i)), "sku": string(rune('A' + i))})
	}

	tests := []struct {
		name      string
		total     int
		maxPages  int
		wantCalls int32
		wantWarn  bool
	}{
		{"stops on short page", 5, 10, 3, false},
		{"stops at total", 4, 10, 2, false},
		{"total reached on last allowed page", 4, 2, 2, false},
		{"bounded by max pages", 1000, 2, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := catalogServer(t, products, tt.total, &calls)
			defer srv.Close()

			var logs bytes.Buffer
			client := testClient(srv.URL, 2, tt.maxPages, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

			seen := 0
			err := client.walkCatalog(context.Background(), func(p []wixProduct) bool {
				seen += len(p)
				return true
			})
			if err != nil {
				t.Fatal(err)
			}
			if n := atomic.LoadInt32(&calls); n != tt.wantCalls {
				t.Errorf("requests = %d, want %d (saw %d products)", n, tt.wantCalls, seen)
			}
			warned := strings.Contains(logs.String(), "catalog walk stopped at page bound")
			if warned != tt.wantWarn {
				t.Errorf("page bound warning = %v, want %v; logs: %s", warned, tt.wantWarn, logs.String())
			}
			if tt.wantWarn && !strings.Contains(logs.String(), "offset=4") {
				t.Errorf("warning should carry the offset reached; logs: %s", logs.String())
			}
		})
	}
}

func TestGetInventory_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 10, 5).GetInventory(context.Background(), []string{"A"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.HTTPStatus() != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.HTTPStatus())
	}
}

func TestProductsBySKUs(t *testing.T) {
	products := []map[string]any{
		{"id": "p1", "name": "Lamp", "sku": "L1"},
		{"id": "p2", "name": "Chair", "sku": "C0", "variants": []map[string]any{
			{"id": "v1", "variant": map[string]any{"sku": "C1"}, "stock": map[string]any{"inStock": true, "quantity": 3}},
		}},
		{"id": "p3", "name": "Desk", "sku": "D1"},
	}
	var calls int32
	srv := catalogServer(t, products, len(products), &calls)
	defer srv.Close()

	got, err := testClient(srv.URL, 100, 5).ProductsBySKUs(context.Background(), []string{"L1", "C1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p2" {
		t.Fatalf("products = %+v", got)
	}
	v := got[1].Variants
	if len(v) != 1 || v[0].SKU != "C1" || !v[0].InStock || v[0].Quantity != 3 {
		t.Errorf("variants = %+v", v)
	}
	if got[0].Variants == nil {
		t.Error("variants should encode as an empty array")
	}
}
