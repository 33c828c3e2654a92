// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/retailscope/internal/logging"
	"github.com/tomtom215/retailscope/internal/metrics"
)

// ingestCSVQuery bulk-loads the dataset with DuckDB's CSV reader. Cleaning
// happens in the WHERE clause: no customer id means the row is unusable for
// per-customer analysis, and invoice ids starting with 'C' are cancellations.
// CustomerID often round-trips through spreadsheets as a float ("17850.0"),
// so the trailing ".0" is stripped.
const ingestCSVQuery = `
INSERT INTO order_lines (invoice_id, stock_code, description, quantity, invoice_date, unit_price, customer_id, country)
SELECT
	CAST(InvoiceNo AS VARCHAR),
	CAST(StockCode AS VARCHAR),
	CAST(Description AS VARCHAR),
	CAST(Quantity AS INTEGER),
	CAST(InvoiceDate AS TIMESTAMP),
	CAST(UnitPrice AS DOUBLE),
	regexp_replace(CAST(CustomerID AS VARCHAR), '\.0$', ''),
	CAST(Country AS VARCHAR)
FROM read_csv(?, header = true, sample_size = -1)
WHERE CustomerID IS NOT NULL
  AND TRIM(CAST(CustomerID AS VARCHAR)) <> ''
  AND CAST(InvoiceNo AS VARCHAR) NOT LIKE 'C%'`

// IngestCSV loads and cleans a CSV transaction file in a single DuckDB
// statement and returns the number of rows loaded.
func (s *Store) IngestCSV(ctx context.Context, path string) (int, error) {
	start := time.Now()

	res, err := s.conn.ExecContext(ctx, ingestCSVQuery, path)
	if err != nil {
		return 0, fmt.Errorf("ingest csv %s: %w", path, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ingest csv %s: rows affected: %w", path, err)
	}

	metrics.IngestDuration.WithLabelValues("csv").Observe(time.Since(start).Seconds())
	logging.Info().Str("path", path).Int64("rows", rows).Msg("CSV ingested")

	return int(rows), nil
}

// insertQuery is the per-row insert used by the XLSX path.
const insertQuery = `
INSERT INTO order_lines (invoice_id, stock_code, description, quantity, invoice_date, unit_price, customer_id, country)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// IngestXLSX loads and cleans a spreadsheet transaction file row by row and
// returns the number of rows loaded. The empty sheet name selects the first
// worksheet.
func (s *Store) IngestXLSX(ctx context.Context, path, sheet string) (int, error) {
	start := time.Now()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return 0, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var header []string
	var loaded, skipped int

	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}

		if header == nil {
			header = normalizeHeader(cols)
			continue
		}

		rec, ok := parseRow(header, cols)
		if !ok {
			skipped++
			continue
		}

		if _, err := stmt.ExecContext(ctx, rec.invoiceID, rec.stockCode, rec.description,
			rec.quantity, rec.invoiceDate, rec.unitPrice, rec.customerID, rec.country); err != nil {
			return 0, fmt.Errorf("insert row: %w", err)
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}

	metrics.IngestDuration.WithLabelValues("xlsx").Observe(time.Since(start).Seconds())
	logging.Info().Str("path", path).Str("sheet", sheet).
		Int("rows", loaded).Int("skipped", skipped).Msg("XLSX ingested")

	return loaded, nil
}

// rawRecord is one parsed spreadsheet row.
type rawRecord struct {
	invoiceID   string
	stockCode   string
	description string
	quantity    int
	invoiceDate time.Time
	unitPrice   float64
	customerID  string
	country     string
}

// normalizeHeader lowercases header cells and strips spaces so both
// "InvoiceNo" and "invoice no" resolve to the same column.
func normalizeHeader(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c)), " ", "")
	}
	return out
}

// parseRow maps a data row through the header and applies the cleaning
// rules. Returns ok=false for rows that are dropped.
func parseRow(header, cols []string) (rawRecord, bool) {
	get := func(name string) string {
		for i, h := range header {
			if h == name && i < len(cols) {
				return strings.TrimSpace(cols[i])
			}
		}
		return ""
	}

	var rec rawRecord

	rec.customerID = strings.TrimSuffix(get("customerid"), ".0")
	if rec.customerID == "" {
		return rec, false
	}

	rec.invoiceID = get("invoiceno")
	if rec.invoiceID == "" || strings.HasPrefix(rec.invoiceID, "C") {
		return rec, false
	}

	rec.stockCode = get("stockcode")
	if rec.stockCode == "" {
		return rec, false
	}

	qty, err := strconv.Atoi(get("quantity"))
	if err != nil {
		return rec, false
	}
	rec.quantity = qty

	price, err := strconv.ParseFloat(get("unitprice"), 64)
	if err != nil {
		return rec, false
	}
	rec.unitPrice = price

	date, ok := parseDate(get("invoicedate"))
	if !ok {
		return rec, false
	}
	rec.invoiceDate = date

	rec.description = get("description")
	rec.country = get("country")

	return rec, true
}

// dateLayouts covers the formats spreadsheet exports of the dataset use.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006 15:04",
	"01-02-06 15:04",
	"2006-01-02",
}

// parseDate tries the known date layouts, then Excel's serial-number form.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Excel serial date: days since 1899-12-30.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		days := int(serial)
		frac := serial - float64(days)
		return epoch.AddDate(0, 0, days).Add(time.Duration(frac * 24 * float64(time.Hour))), true
	}

	return time.Time{}, false
}
