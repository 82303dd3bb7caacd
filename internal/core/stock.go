package core

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

// Stock feed keys with special handling.
const (
	keyCode            = "code"
	keyMaxPayInParts   = "max_pay_in_parts"
	keyDaysToDispatch  = "days_to_dispatch"
	keyDeliveryMethods = "delivery_methods"
	keyAvailability    = "availability"
	keyPrice           = "price"
	keyOldPrice        = "old_price"
	keyWarranty        = "warranty_period"
)

// reservedStockKeys are computed per entry and cannot be overridden by a
// mapped column.
var reservedStockKeys = map[string]bool{
	keyCode: true, keyMaxPayInParts: true, keyDaysToDispatch: true,
	keyDeliveryMethods: true, keyAvailability: true,
}

// StockField is one mapped key/value pair of a stock entry.
type StockField struct {
	Key   string
	Value any
}

// StockEntry is one SKU record of the stock feed. It marshals with a fixed
// key order: code, business constants, mapped fields, availability.
type StockEntry struct {
	Code            string
	MaxPayInParts   int
	DaysToDispatch  int
	DeliveryMethods []DeliveryMethod
	Fields          []StockField
	Price           float64
	Availability    bool
}

// Field returns the value of a mapped field.
func (e StockEntry) Field(key string) (any, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// set replaces an existing key in place or appends a new one.
func (e *StockEntry) set(key string, v any) {
	for i := range e.Fields {
		if e.Fields[i].Key == key {
			e.Fields[i].Value = v
			return
		}
	}
	e.Fields = append(e.Fields, StockField{Key: key, Value: v})
}

// MarshalJSON implements json.Marshaler.
func (e StockEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, v any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	methods := e.DeliveryMethods
	if methods == nil {
		methods = []DeliveryMethod{}
	}
	head := []StockField{
		{keyCode, e.Code},
		{keyMaxPayInParts, e.MaxPayInParts},
		{keyDaysToDispatch, e.DaysToDispatch},
		{keyDeliveryMethods, methods},
	}
	for _, f := range head {
		if err := write(f.Key, f.Value); err != nil {
			return nil, err
		}
	}
	for _, f := range e.Fields {
		if err := write(f.Key, f.Value); err != nil {
			return nil, err
		}
	}
	if err := write(keyAvailability, e.Availability); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// StockFeed is the stock JSON document.
type StockFeed struct {
	Total int          `json:"total"`
	Data  []StockEntry `json:"data"`
}

// EmptyStockFeed is returned when the Import sheet has no usable SKU column.
func EmptyStockFeed() StockFeed {
	return StockFeed{Total: 0, Data: []StockEntry{}}
}

// Encode renders the feed as two-space indented JSON.
func (f StockFeed) Encode() ([]byte, error) {
	if f.Data == nil {
		f.Data = []StockEntry{}
	}
	return json.MarshalIndent(f, "", "  ")
}

// StockInput carries everything the stock feed needs besides inventory.
type StockInput struct {
	Import         sheet.Table
	Controls       ControlMap
	FeedNames      FeedNameIndex
	Delivery       []DeliveryMethod
	DaysToDispatch int
	MaxPayInParts  int
}

// CollectSKUs returns unique trimmed SKUs in first-seen order together with
// the first row carrying each one.
func CollectSKUs(t sheet.Table, col int) ([]string, map[string]sheet.Row) {
	var skus []string
	rows := make(map[string]sheet.Row)
	for _, row := range t.Data() {
		sku := row.At(col).Trimmed()
		if sku == "" {
			continue
		}
		if _, seen := rows[sku]; seen {
			continue
		}
		skus = append(skus, sku)
		rows[sku] = row
	}
	return skus, rows
}

// BuildStockFeed assembles the stock feed. The inventory lookup is called
// once with every unique SKU. A missing SKU column yields an empty feed.
func BuildStockFeed(ctx context.Context, in StockInput, lookup InventoryLookup) (StockFeed, error) {
	if !in.Import.HasData() {
		return EmptyStockFeed(), nil
	}
	col := SKUColumn.Resolve(in.Import.Index(), in.FeedNames)
	if col < 0 {
		return EmptyStockFeed(), nil
	}

	skus, rows := CollectSKUs(in.Import, col)
	records, err := lookup.GetInventory(ctx, skus)
	if err != nil {
		return StockFeed{}, WrapUpstream(ServiceCommerce, "get inventory", err)
	}
	stock := Reconcile(skus, records)

	header := in.Import.Header()
	feed := EmptyStockFeed()
	for _, sku := range skus {
		e := buildStockEntry(sku, header, rows[sku], in)
		e.Availability = stock.InStock(sku)
		if e.Price <= 0 {
			continue
		}
		feed.Data = append(feed.Data, e)
	}
	feed.Total = len(feed.Data)
	return feed, nil
}

func buildStockEntry(sku string, header []string, row sheet.Row, in StockInput) StockEntry {
	e := StockEntry{
		Code:            sku,
		MaxPayInParts:   in.MaxPayInParts,
		DaysToDispatch:  in.DaysToDispatch,
		DeliveryMethods: in.Delivery,
	}
	for i, h := range header {
		ctl, ok := in.Controls.Lookup(h)
		if !ok || reservedStockKeys[ctl.TargetName] {
			continue
		}
		key := ctl.TargetName
		cell := row.At(i)

		switch key {
		case keyPrice:
			e.Price = CleanPrice(cell.String())
			e.set(key, e.Price)
		case keyOldPrice:
			if p := CleanPrice(cell.String()); p != 0 {
				e.set(key, p)
			} else {
				e.set(key, nil)
			}
		case keyWarranty:
			if !cell.IsEmpty() {
				e.set(key, digitsOnly(cell.String()))
			}
		default:
			if !cell.IsEmpty() {
				e.set(key, cell.Value())
			}
		}
	}
	return e
}

// digitsOnly keeps the decimal digits of s and parses them. No digits, or a
// value that overflows, gives 0.
func digitsOnly(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}
