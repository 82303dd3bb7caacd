package commerce

import (
	"context"
	"strings"
)

// Product is a catalog product as returned by ProductsBySKUs.
type Product struct {
	ID       string    `json:"id"`
	SKU      string    `json:"sku"`
	Name     string    `json:"name"`
	Variants []Variant `json:"variants"`
}

// Variant is one purchasable option of a product.
type Variant struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	InStock  bool   `json:"inStock"`
	Quantity int    `json:"quantity"`
}

// ProductsBySKUs returns the catalog products whose own SKU or any variant
// SKU is in skus, in catalog order.
func (c *Client) ProductsBySKUs(ctx context.Context, skus []string) ([]Product, error) {
	out := []Product{}
	if len(skus) == 0 {
		return out, nil
	}
	wanted := skuSet(skus)

	err := c.walkCatalog(ctx, func(products []wixProduct) bool {
		for _, p := range products {
			if matchesProduct(p, wanted) {
				out = append(out, toProduct(p))
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchesProduct(p wixProduct, wanted map[string]bool) bool {
	if wanted[strings.TrimSpace(p.SKU)] {
		return true
	}
	for _, v := range p.Variants {
		if wanted[v.sku()] {
			return true
		}
	}
	return false
}

func toProduct(p wixProduct) Product {
	out := Product{
		ID:       p.ID,
		SKU:      strings.TrimSpace(p.SKU),
		Name:     p.Name,
		Variants: make([]Variant, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		rec := fromFlat(v)
		if v.Stock != nil {
			rec = fromVariant(v)
		}
		out.Variants = append(out.Variants, Variant{
			ID:       v.ID,
			SKU:      rec.SKU,
			InStock:  rec.InStock,
			Quantity: rec.Quantity,
		})
	}
	return out
}
