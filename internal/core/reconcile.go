package core

import (
	"context"
	"strings"
)

// StockSource identifies which upstream shape produced a record. Lower
// values take precedence when several records share a SKU.
type StockSource int

const (
	SourceVariant StockSource = iota
	SourceInventory
	SourceProduct
)

func (s StockSource) String() string {
	switch s {
	case SourceVariant:
		return "variant"
	case SourceInventory:
		return "inventory"
	case SourceProduct:
		return "product"
	default:
		return "unknown"
	}
}

// InventoryRecord is the normalized stock signal for one SKU.
type InventoryRecord struct {
	SKU      string
	InStock  bool
	Quantity int
	Source   StockSource
}

// InventoryLookup resolves stock for a set of SKUs in one batched call.
// Unmatched SKUs are absent from the result. An empty set yields an empty
// result.
type InventoryLookup interface {
	GetInventory(ctx context.Context, skus []string) ([]InventoryRecord, error)
}

// Reconciliation is the SKU-keyed join of requested SKUs and records.
type Reconciliation struct {
	BySKU     map[string]InventoryRecord
	Unmatched []string
}

// Lookup returns the record for sku.
func (r Reconciliation) Lookup(sku string) (InventoryRecord, bool) {
	rec, ok := r.BySKU[sku]
	return rec, ok
}

// InStock reports whether sku has a record whose InStock flag is set.
// A missing record counts as out of stock.
func (r Reconciliation) InStock(sku string) bool {
	rec, ok := r.BySKU[sku]
	return ok && rec.InStock
}

// Reconcile joins skus with records. Records for SKUs that were not requested
// are ignored. When several records match a SKU, a variant record beats an
// inventory record, which beats a product record; ties keep the first.
// Unmatched lists the requested SKUs without a record, in request order.
func Reconcile(skus []string, records []InventoryRecord) Reconciliation {
	wanted := make(map[string]bool, len(skus))
	for _, s := range skus {
		wanted[s] = true
	}

	by := make(map[string]InventoryRecord, len(skus))
	for _, rec := range records {
		key := strings.TrimSpace(rec.SKU)
		if key == "" || !wanted[key] {
			continue
		}
		rec.SKU = key
		if cur, ok := by[key]; ok && cur.Source <= rec.Source {
			continue
		}
		by[key] = rec
	}

	var unmatched []string
	for _, s := range skus {
		if _, ok := by[s]; !ok {
			unmatched = append(unmatched, s)
		}
	}
	return Reconciliation{BySKU: by, Unmatched: unmatched}
}
