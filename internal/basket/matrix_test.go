// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package basket

import (
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/retailscope/internal/models"
)

func line(customer, code string, qty int) models.Transaction {
	return models.Transaction{
		CustomerID:  customer,
		StockCode:   code,
		Quantity:    qty,
		UnitPrice:   1,
		InvoiceID:   customer + "-" + code,
		InvoiceDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildMatrixBinaryIncidence(t *testing.T) {
	txns := []models.Transaction{
		line("A", "X", 1),
		line("A", "X", 500), // large quantities still collapse to presence
		line("A", "Y", 3),
		line("B", "X", 1),
	}

	m := BuildMatrix(txns)

	if !m.Has("A", "X") || !m.Has("A", "Y") || !m.Has("B", "X") {
		t.Error("expected incidences missing")
	}
	if m.Has("B", "Y") {
		t.Error("B never bought Y")
	}
	if got := m.NumCustomers(); got != 2 {
		t.Errorf("NumCustomers() = %d, want 2", got)
	}
	if got := m.Products(); !reflect.DeepEqual(got, []string{"X", "Y"}) {
		t.Errorf("Products() = %v, want [X Y]", got)
	}
	if got := m.Customers(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Customers() = %v, want [A B]", got)
	}
}

func TestBuildMatrixNetQuantityThreshold(t *testing.T) {
	txns := []models.Transaction{
		// Purchase fully returned: net zero, no incidence.
		line("A", "X", 3),
		line("A", "X", -3),
		// Net positive across lines.
		line("A", "Y", 5),
		line("A", "Y", -2),
		// Return only: net negative.
		line("B", "Z", -1),
	}

	m := BuildMatrix(txns)

	if m.Has("A", "X") {
		t.Error("net-zero quantity must not create an incidence")
	}
	if !m.Has("A", "Y") {
		t.Error("net-positive quantity must create an incidence")
	}
	if m.Has("B", "Z") {
		t.Error("net-negative quantity must not create an incidence")
	}

	// B has no qualifying purchases: absent row, not a zero row.
	if m.Purchased("B") != nil {
		t.Errorf("Purchased(B) = %v, want nil", m.Purchased("B"))
	}
	if got := m.NumCustomers(); got != 1 {
		t.Errorf("NumCustomers() = %d, want 1", got)
	}
}

func TestBuildMatrixEmptyInput(t *testing.T) {
	m := BuildMatrix(nil)
	if m.NumCustomers() != 0 || len(m.Products()) != 0 {
		t.Errorf("empty input produced non-empty matrix: %d customers, %d products",
			m.NumCustomers(), len(m.Products()))
	}
}
