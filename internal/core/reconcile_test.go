package core

import (
	"reflect"
	"testing"
)

func TestReconcile(t *testing.T) {
	skus := []string{"A", "B", "C", "D"}
	records := []InventoryRecord{
		{SKU: "A", InStock: false, Source: SourceProduct},
		{SKU: " A ", InStock: true, Quantity: 4, Source: SourceVariant},
		{SKU: "B", InStock: true, Quantity: 1, Source: SourceInventory},
		{SKU: "B", InStock: false, Source: SourceInventory},
		{SKU: "Z", InStock: true, Source: SourceVariant},
		{SKU: "", InStock: true, Source: SourceVariant},
		{SKU: "D", InStock: false, Quantity: 0, Source: SourceProduct},
	}

	r := Reconcile(skus, records)

	if len(r.BySKU) != 3 {
		t.Errorf("matched = %d, want 3", len(r.BySKU))
	}
	a, ok := r.Lookup("A")
	if !ok || a.Source != SourceVariant || !a.InStock || a.SKU != "A" {
		t.Errorf("A = %+v, want trimmed variant record", a)
	}
	if b, _ := r.Lookup("B"); !b.InStock {
		t.Error("tie between equal sources should keep the first record")
	}
	if _, ok := r.Lookup("Z"); ok {
		t.Error("unrequested SKU should be ignored")
	}
	if r.InStock("C") {
		t.Error("unmatched SKU must not be in stock")
	}
	if r.InStock("D") {
		t.Error("D is out of stock")
	}
	if want := []string{"C"}; !reflect.DeepEqual(r.Unmatched, want) {
		t.Errorf("Unmatched = %v, want %v", r.Unmatched, want)
	}
}

func TestReconcile_Empty(t *testing.T) {
	r := Reconcile(nil, nil)
	if len(r.BySKU) != 0 || len(r.Unmatched) != 0 {
		t.Errorf("Reconcile(nil, nil) = %+v, want empty", r)
	}
}

func TestStockSourceString(t *testing.T) {
	if SourceVariant.String() != "variant" || SourceProduct.String() != "product" || StockSource(9).String() != "unknown" {
		t.Error("unexpected StockSource names")
	}
}
