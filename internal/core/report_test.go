package core

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

func TestBuildStockReport(t *testing.T) {
	control := sheet.NewTable(
		[]string{"Import field", "XML feed", "Stock feed", "Feed name"},
		[]string{"Артикул", "TRUE", "TRUE", "sku"},
		[]string{"Назва", "TRUE", "FALSE", "title"},
		[]string{"Ціна", "TRUE", "TRUE", "price"},
	)
	importTable := sheet.NewTable(
		[]string{"code", "Артикул", "Назва", "Ціна"},
		[]string{"1", "A1", "Lamp", "1 000 грн"},
		[]string{"2", "A2", "Chair", "abc"},
		[]string{"3", "A1", "Lamp again", "900"},
		[]string{"4", "", "No SKU", "10"},
		[]string{"5", "A3", "Gone", ""},
	)
	lookup := &fakeLookup{records: []InventoryRecord{
		{SKU: "A1", InStock: true, Quantity: 7, Source: SourceVariant},
		{SKU: "A2", InStock: false, Source: SourceProduct},
	}}

	report, err := BuildStockReport(context.Background(), importTable, control, lookup)
	if err != nil {
		t.Fatalf("BuildStockReport() error = %v", err)
	}

	if len(lookup.calls) != 1 {
		t.Fatalf("inventory lookups = %d, want 1", len(lookup.calls))
	}
	if want := []string{"A1", "A2", "A3"}; !reflect.DeepEqual(lookup.calls[0], want) {
		t.Errorf("requested = %v, want %v", lookup.calls[0], want)
	}

	want := []ReportRow{
		{Code: "1", SKU: "A1", Name: "Lamp", PriceRaw: "1 000 грн", Price: 1000, Status: StatusInStock, Quantity: 7},
		{Code: "2", SKU: "A2", Name: "Chair", PriceRaw: "abc", Price: 0, Status: StatusOutOfStock},
		{Code: "3", SKU: "A1", Name: "Lamp again", PriceRaw: "900", Price: 900, Status: StatusInStock, Quantity: 7},
		{Code: "5", SKU: "A3", Name: "Gone", Status: StatusNotFound},
	}
	if !reflect.DeepEqual(report.Rows, want) {
		t.Errorf("Rows =\n%+v\nwant\n%+v", report.Rows, want)
	}
	if report.InventoryCount != 2 {
		t.Errorf("InventoryCount = %d, want 2", report.InventoryCount)
	}
	if want := []string{"A3"}; !reflect.DeepEqual(report.Unmatched, want) {
		t.Errorf("Unmatched = %v, want %v", report.Unmatched, want)
	}
}

func TestBuildStockReport_NameFallback(t *testing.T) {
	importTable := sheet.NewTable(
		[]string{"SKU"},
		[]string{"A1"},
	)
	report, err := BuildStockReport(context.Background(), importTable, sheet.Table{}, &fakeLookup{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Rows) != 1 || report.Rows[0].Name != UnnamedProduct {
		t.Errorf("rows = %+v, want unnamed product", report.Rows)
	}
}

func TestBuildStockReport_Empty(t *testing.T) {
	lookup := &fakeLookup{}
	report, err := BuildStockReport(context.Background(), sheet.NewTable([]string{"SKU"}), sheet.Table{}, lookup)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Empty {
		t.Error("report should be marked empty")
	}
	if len(lookup.calls) != 0 {
		t.Error("inventory should not be queried for an empty sheet")
	}
}

func TestBuildStockReport_MissingSKUColumn(t *testing.T) {
	importTable := sheet.NewTable(
		[]string{"Назва"},
		[]string{"Lamp"},
	)
	_, err := BuildStockReport(context.Background(), importTable, sheet.Table{}, &fakeLookup{})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}
	if se.Column != "SKU" {
		t.Errorf("Column = %q, want SKU", se.Column)
	}
}
