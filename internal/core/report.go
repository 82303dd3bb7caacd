package core

import (
	"context"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

// ReportStatus classifies a report row against commerce inventory.
type ReportStatus string

const (
	StatusInStock    ReportStatus = "instock"
	StatusOutOfStock ReportStatus = "outstock"
	StatusNotFound   ReportStatus = "warn"
)

// UnnamedProduct is shown when no name column resolves.
const UnnamedProduct = "(Без назви)"

// ReportRow is one Import row with its stock status.
type ReportRow struct {
	Code     string
	SKU      string
	Name     string
	PriceRaw string
	Price    float64
	Status   ReportStatus
	Quantity int
}

// StockReport is the operator view of every SKU row in the Import sheet.
// Empty is set when the sheet has no data rows.
type StockReport struct {
	Empty          bool
	Rows           []ReportRow
	InventoryCount int
	Unmatched      []string
}

// BuildStockReport lists every Import row that has a SKU, in sheet order,
// with the commerce stock status. Unlike the stock feed, a missing SKU
// column is an error here.
func BuildStockReport(ctx context.Context, importTable, controlTable sheet.Table, lookup InventoryLookup) (*StockReport, error) {
	if !importTable.HasData() {
		return &StockReport{Empty: true}, nil
	}

	header := importTable.Index()
	feedNames := BuildFeedNameIndex(controlTable)

	skuCol := SKUColumn.Resolve(header, feedNames)
	if skuCol < 0 {
		return nil, &SchemaError{Sheet: "Import", Column: SKUColumn.Name}
	}
	nameCol := NameColumn.Resolve(header, feedNames)
	priceCol := PriceColumn.Resolve(header, feedNames)
	codeCol := CodeColumn.Resolve(header, feedNames)

	var rows []ReportRow
	for _, r := range importTable.Data() {
		sku := r.At(skuCol).Trimmed()
		if sku == "" {
			continue
		}
		row := ReportRow{
			Code: r.At(codeCol).String(),
			SKU:  sku,
			Name: UnnamedProduct,
		}
		if nameCol >= 0 {
			row.Name = r.At(nameCol).String()
		}
		if priceCol >= 0 {
			row.PriceRaw = r.At(priceCol).String()
			row.Price = CleanPrice(row.PriceRaw)
		}
		rows = append(rows, row)
	}

	skus, _ := CollectSKUs(importTable, skuCol)
	records, err := lookup.GetInventory(ctx, skus)
	if err != nil {
		return nil, WrapUpstream(ServiceCommerce, "get inventory", err)
	}
	stock := Reconcile(skus, records)

	for i := range rows {
		rec, ok := stock.Lookup(rows[i].SKU)
		switch {
		case !ok:
			rows[i].Status = StatusNotFound
		case rec.InStock:
			rows[i].Status = StatusInStock
			rows[i].Quantity = rec.Quantity
		default:
			rows[i].Status = StatusOutOfStock
			rows[i].Quantity = rec.Quantity
		}
	}

	return &StockReport{
		Rows:           rows,
		InventoryCount: len(records),
		Unmatched:      stock.Unmatched,
	}, nil
}
