package commerce

import (
	"context"
	"strings"

	"github.com/JonMunkholm/feedsync/internal/core"
)

var _ core.InventoryLookup = (*Client)(nil)

// GetInventory implements core.InventoryLookup. The catalog cannot be
// filtered by SKU, so it is walked in full and matched in memory. Each
// product contributes one record per matching variant and one for its own
// SKU; core.Reconcile picks between them.
func (c *Client) GetInventory(ctx context.Context, skus []string) ([]core.InventoryRecord, error) {
	if len(skus) == 0 {
		return []core.InventoryRecord{}, nil
	}
	wanted := skuSet(skus)

	records := []core.InventoryRecord{}
	err := c.walkCatalog(ctx, func(products []wixProduct) bool {
		for _, p := range products {
			records = append(records, productRecords(p, wanted)...)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func productRecords(p wixProduct, wanted map[string]bool) []core.InventoryRecord {
	var out []core.InventoryRecord
	for _, v := range p.Variants {
		if !wanted[v.sku()] {
			continue
		}
		if v.Stock != nil {
			out = append(out, fromVariant(v))
		} else {
			out = append(out, fromFlat(v))
		}
	}
	if sku := strings.TrimSpace(p.SKU); wanted[sku] {
		out = append(out, fromProduct(p))
	}
	return out
}

// fromVariant adapts a variant with a nested stock object.
func fromVariant(v wixVariant) core.InventoryRecord {
	return core.InventoryRecord{
		SKU:      v.sku(),
		InStock:  v.Stock.InStock,
		Quantity: quantity(v.Stock.Quantity),
		Source:   core.SourceVariant,
	}
}

// fromFlat adapts a record carrying inStock and quantity at the top level.
func fromFlat(v wixVariant) core.InventoryRecord {
	return core.InventoryRecord{
		SKU:      v.sku(),
		InStock:  v.InStock,
		Quantity: quantity(v.Quantity),
		Source:   core.SourceInventory,
	}
}

// fromProduct adapts a product's own stock object. A product without one is
// out of stock.
func fromProduct(p wixProduct) core.InventoryRecord {
	rec := core.InventoryRecord{SKU: strings.TrimSpace(p.SKU), Source: core.SourceProduct}
	if p.Stock != nil {
		rec.InStock = p.Stock.InStock
		rec.Quantity = quantity(p.Stock.Quantity)
	}
	return rec
}

func skuSet(skus []string) map[string]bool {
	set := make(map[string]bool, len(skus))
	for _, s := range skus {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = true
		}
	}
	return set
}
