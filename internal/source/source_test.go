// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/retailscope/internal/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(&config.DatabaseConfig{Path: ":memory:", QueryTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

const testCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART,6,2010-12-01 08:26:00,2.55,17850,United Kingdom
536365,71053,WHITE METAL LANTERN,6,2010-12-01 08:26:00,3.39,17850,United Kingdom
C536379,D,Discount,-1,2010-12-01 09:41:00,27.50,14527,United Kingdom
536366,22633,HAND WARMER,6,2010-12-01 08:28:00,1.85,,United Kingdom
536367,84879,ASSORTED COLOUR BIRD,32,2010-12-02 08:34:00,1.69,13047,France
`

func writeTestCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestCSVCleansRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	loaded, err := s.IngestCSV(ctx, writeTestCSV(t))
	if err != nil {
		t.Fatalf("IngestCSV() error = %v", err)
	}

	// Five raw rows; the cancellation and the missing-customer row drop.
	if loaded != 3 {
		t.Errorf("loaded = %d, want 3", loaded)
	}

	txns, err := s.Transactions(ctx)
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txns))
	}

	for _, tx := range txns {
		if tx.CustomerID == "" {
			t.Error("transaction with empty customer id survived cleaning")
		}
		if tx.InvoiceID[0] == 'C' {
			t.Errorf("cancelled invoice %s survived cleaning", tx.InvoiceID)
		}
	}

	// Stable ordering: by invoice date, then invoice id, then stock code.
	if txns[0].StockCode != "71053" || txns[1].StockCode != "85123A" {
		t.Errorf("unexpected order: %s then %s", txns[0].StockCode, txns[1].StockCode)
	}
	if txns[2].CustomerID != "13047" {
		t.Errorf("last transaction customer = %s, want 13047", txns[2].CustomerID)
	}
}

func TestCatalog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.IngestCSV(ctx, writeTestCSV(t)); err != nil {
		t.Fatal(err)
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}

	if got := catalog["85123A"]; got != "WHITE HANGING HEART" {
		t.Errorf("catalog[85123A] = %q, want WHITE HANGING HEART", got)
	}
	if _, ok := catalog["D"]; ok {
		t.Error("cancelled-invoice product leaked into catalog")
	}
}

func TestSinkAggregations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.IngestCSV(ctx, writeTestCSV(t)); err != nil {
		t.Fatal(err)
	}

	monthly, err := s.MonthlySales(ctx)
	if err != nil {
		t.Fatalf("MonthlySales() error = %v", err)
	}
	if len(monthly) != 1 {
		t.Fatalf("got %d months, want 1", len(monthly))
	}
	wantRevenue := 6*2.55 + 6*3.39 + 32*1.69
	if diff := monthly[0].Revenue - wantRevenue; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("revenue = %v, want %v", monthly[0].Revenue, wantRevenue)
	}
	if monthly[0].Invoices != 2 {
		t.Errorf("invoices = %d, want 2 distinct", monthly[0].Invoices)
	}

	products, err := s.TopProducts(ctx, 2)
	if err != nil {
		t.Fatalf("TopProducts() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].StockCode != "84879" {
		t.Errorf("top product = %s, want 84879 (revenue %v)", products[0].StockCode, products[0].Revenue)
	}

	countries, err := s.TopCountries(ctx, 5)
	if err != nil {
		t.Fatalf("TopCountries() error = %v", err)
	}
	if len(countries) != 2 {
		t.Fatalf("got %d countries, want 2", len(countries))
	}
	if countries[0].Country != "France" {
		t.Errorf("top country = %s, want France", countries[0].Country)
	}
	if countries[1].Customers != 1 {
		t.Errorf("UK distinct customers = %d, want 1", countries[1].Customers)
	}
}

func TestCountLinesEmptyStore(t *testing.T) {
	s := openTestStore(t)

	n, err := s.CountLines(context.Background())
	if err != nil {
		t.Fatalf("CountLines() error = %v", err)
	}
	if n != 0 {
		t.Errorf("CountLines() = %d, want 0", n)
	}
}

func writeTestXLSX(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	rows := [][]interface{}{
		{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"},
		{"536365", "85123A", "WHITE HANGING HEART", 6, "2010-12-01 08:26:00", 2.55, "17850", "United Kingdom"},
		{"C536379", "D", "Discount", -1, "2010-12-01 09:41:00", 27.5, "14527", "United Kingdom"},
		{"536366", "22633", "HAND WARMER", 6, "2010-12-01 08:28:00", 1.85, "", "United Kingdom"},
		{"536367", "84879", "ASSORTED COLOUR BIRD", 32, "2010-12-02 08:34:00", 1.69, "13047.0", "France"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestXLSXCleansRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	loaded, err := s.IngestXLSX(ctx, writeTestXLSX(t), "")
	if err != nil {
		t.Fatalf("IngestXLSX() error = %v", err)
	}
	if loaded != 2 {
		t.Errorf("loaded = %d, want 2", loaded)
	}

	txns, err := s.Transactions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txns))
	}

	// Float-formatted customer id is normalized.
	if txns[1].CustomerID != "13047" {
		t.Errorf("customer id = %q, want 13047", txns[1].CustomerID)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input  string
		wantOK bool
		want   time.Time
	}{
		{"2010-12-01 08:26:00", true, time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)},
		{"1/2/2006 15:04", true, time.Date(2006, 1, 2, 15, 4, 0, 0, time.UTC)},
		{"2010-12-01", true, time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC)},
		{"40513", true, time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC)}, // Excel serial
		{"not a date", false, time.Time{}},
		{"", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("parseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRowCleaning(t *testing.T) {
	header := normalizeHeader([]string{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"})

	tests := []struct {
		name   string
		cols   []string
		wantOK bool
	}{
		{
			name:   "clean row",
			cols:   []string{"536365", "85123A", "HEART", "6", "2010-12-01 08:26:00", "2.55", "17850", "UK"},
			wantOK: true,
		},
		{
			name:   "cancelled invoice",
			cols:   []string{"C536379", "D", "Discount", "-1", "2010-12-01 09:41:00", "27.5", "14527", "UK"},
			wantOK: false,
		},
		{
			name:   "missing customer",
			cols:   []string{"536366", "22633", "WARMER", "6", "2010-12-01 08:28:00", "1.85", "", "UK"},
			wantOK: false,
		},
		{
			name:   "unparseable quantity",
			cols:   []string{"536367", "84879", "BIRD", "lots", "2010-12-02 08:34:00", "1.69", "13047", "FR"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := parseRow(header, tt.cols); ok != tt.wantOK {
				t.Errorf("parseRow() ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}
