// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/retailscope/internal/models"
)

// Transactions returns the clean order-line table. Rows come back in
// (invoice_date, invoice_id, stock_code) order so every downstream stage
// sees a stable sequence.
func (s *Store) Transactions(ctx context.Context) ([]models.Transaction, error) {
	query := `
		SELECT
			customer_id,
			stock_code,
			COALESCE(description, '') AS description,
			quantity,
			unit_price,
			invoice_id,
			invoice_date,
			COALESCE(country, '') AS country
		FROM order_lines
		ORDER BY invoice_date, invoice_id, stock_code
	`

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.CustomerID, &t.StockCode, &t.Description,
			&t.Quantity, &t.UnitPrice, &t.InvoiceID, &t.InvoiceDate, &t.Country); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, nil
}

// Catalog returns the product catalog: stock code to the earliest non-empty
// description on file for that code.
func (s *Store) Catalog(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT stock_code, min_by(description, invoice_date) AS description
		FROM order_lines
		WHERE description IS NOT NULL AND TRIM(description) <> ''
		GROUP BY stock_code
	`

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	catalog := make(map[string]string)
	for rows.Next() {
		var code string
		var desc sql.NullString
		if err := rows.Scan(&code, &desc); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		if desc.Valid {
			catalog[code] = desc.String
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}

	return catalog, nil
}

// MonthlySales returns revenue and distinct-invoice counts per calendar
// month, oldest first. This is one of the cross-cutting reports the sink
// consumes alongside the segmented table.
func (s *Store) MonthlySales(ctx context.Context) ([]models.MonthlySales, error) {
	query := `
		SELECT
			date_trunc('month', invoice_date) AS month,
			SUM(quantity * unit_price) AS revenue,
			COUNT(DISTINCT invoice_id) AS invoices
		FROM order_lines
		GROUP BY month
		ORDER BY month
	`

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query monthly sales: %w", err)
	}
	defer rows.Close()

	var out []models.MonthlySales
	for rows.Next() {
		var m models.MonthlySales
		if err := rows.Scan(&m.Month, &m.Revenue, &m.Invoices); err != nil {
			return nil, fmt.Errorf("scan monthly sales: %w", err)
		}
		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly sales: %w", err)
	}

	return out, nil
}

// TopProducts returns the highest-revenue products, revenue descending.
func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.ProductRevenue, error) {
	query := `
		SELECT
			stock_code,
			COALESCE(min_by(description, invoice_date), '') AS description,
			SUM(quantity * unit_price) AS revenue,
			SUM(quantity) AS units_sold
		FROM order_lines
		GROUP BY stock_code
		ORDER BY revenue DESC, stock_code
		LIMIT ?
	`

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer rows.Close()

	var out []models.ProductRevenue
	for rows.Next() {
		var p models.ProductRevenue
		if err := rows.Scan(&p.StockCode, &p.Description, &p.Revenue, &p.UnitsSold); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top products: %w", err)
	}

	return out, nil
}

// TopCountries returns the highest-revenue countries, revenue descending.
func (s *Store) TopCountries(ctx context.Context, limit int) ([]models.CountryRevenue, error) {
	query := `
		SELECT
			COALESCE(country, '') AS country,
			SUM(quantity * unit_price) AS revenue,
			COUNT(DISTINCT customer_id) AS customers
		FROM order_lines
		GROUP BY country
		ORDER BY revenue DESC, country
		LIMIT ?
	`

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top countries: %w", err)
	}
	defer rows.Close()

	var out []models.CountryRevenue
	for rows.Next() {
		var c models.CountryRevenue
		if err := rows.Scan(&c.Country, &c.Revenue, &c.Customers); err != nil {
			return nil, fmt.Errorf("scan top country: %w", err)
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top countries: %w", err)
	}

	return out, nil
}
