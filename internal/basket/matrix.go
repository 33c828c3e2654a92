// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package basket builds the customer-by-product purchase incidence matrix
// and mines co-purchase association rules from it.
package basket

import (
	"sort"

	"github.com/tomtom215/retailscope/internal/models"
)

// Matrix is the binary purchase incidence matrix: a customer "has" a product
// iff their cumulative purchased quantity is strictly positive. The matrix is
// stored sparsely as sets in both orientations.
type Matrix struct {
	// byCustomer maps customer id to the set of products purchased.
	byCustomer map[string]map[string]struct{}

	// byProduct maps stock code to the set of purchasing customers.
	byProduct map[string]map[string]struct{}

	customers []string
	products  []string
}

// BuildMatrix aggregates quantity per (customer, product) pair and keeps the
// pairs whose summed quantity is positive. Customers or products with no
// qualifying pair simply have no row or column.
func BuildMatrix(txns []models.Transaction) *Matrix {
	quantities := make(map[string]map[string]int)
	for _, tx := range txns {
		row := quantities[tx.CustomerID]
		if row == nil {
			row = make(map[string]int)
			quantities[tx.CustomerID] = row
		}
		row[tx.StockCode] += tx.Quantity
	}

	m := &Matrix{
		byCustomer: make(map[string]map[string]struct{}),
		byProduct:  make(map[string]map[string]struct{}),
	}

	for customer, row := range quantities {
		for product, qty := range row {
			if qty <= 0 {
				continue
			}

			if m.byCustomer[customer] == nil {
				m.byCustomer[customer] = make(map[string]struct{})
			}
			m.byCustomer[customer][product] = struct{}{}

			if m.byProduct[product] == nil {
				m.byProduct[product] = make(map[string]struct{})
			}
			m.byProduct[product][customer] = struct{}{}
		}
	}

	m.customers = sortedKeys(m.byCustomer)
	m.products = sortedKeys(m.byProduct)

	return m
}

// NumCustomers returns the number of customers with at least one purchase.
func (m *Matrix) NumCustomers() int {
	return len(m.customers)
}

// Customers returns the customer ids in sorted order.
// The returned slice is shared; callers must not modify it.
func (m *Matrix) Customers() []string {
	return m.customers
}

// Products returns the stock codes in sorted order.
// The returned slice is shared; callers must not modify it.
func (m *Matrix) Products() []string {
	return m.products
}

// Has reports whether the customer has purchased the product.
func (m *Matrix) Has(customerID, stockCode string) bool {
	_, ok := m.byCustomer[customerID][stockCode]
	return ok
}

// Purchased returns the customer's product set, or nil when the customer has
// no row in the matrix. The returned map is shared; callers must not modify
// it.
func (m *Matrix) Purchased(customerID string) map[string]struct{} {
	return m.byCustomer[customerID]
}

// ProductCustomers returns the set of customers who purchased the product.
// The returned map is shared; callers must not modify it.
func (m *Matrix) ProductCustomers(stockCode string) map[string]struct{} {
	return m.byProduct[stockCode]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
