// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package rfm reduces the transaction table to one Recency/Frequency/Monetary
// profile per customer.
package rfm

import (
	"sort"
	"time"

	"github.com/tomtom215/retailscope/internal/models"
)

// customerAccumulator collects per-customer aggregates during the single pass
// over the transaction table.
type customerAccumulator struct {
	lastInvoice time.Time
	invoices    map[string]struct{}
	monetary    float64
}

// Calculate produces one RFM profile per distinct customer.
//
// The analysis instant is max(invoice_date) + 24h, so every recency is at
// least one day and log1p downstream never sees a zero. Frequency counts
// distinct invoice ids, not line items. Customers whose net spend is zero or
// negative are dropped.
//
// An empty input yields an empty result, not an error. The output is sorted
// by customer id so repeated runs are reproducible.
func Calculate(txns []models.Transaction) []models.RFMProfile {
	if len(txns) == 0 {
		return nil
	}

	var maxDate time.Time
	accs := make(map[string]*customerAccumulator)

	for _, tx := range txns {
		if tx.InvoiceDate.After(maxDate) {
			maxDate = tx.InvoiceDate
		}

		acc := accs[tx.CustomerID]
		if acc == nil {
			acc = &customerAccumulator{invoices: make(map[string]struct{})}
			accs[tx.CustomerID] = acc
		}

		if tx.InvoiceDate.After(acc.lastInvoice) {
			acc.lastInvoice = tx.InvoiceDate
		}
		acc.invoices[tx.InvoiceID] = struct{}{}
		acc.monetary += tx.TotalPrice()
	}

	analysisDate := maxDate.Add(24 * time.Hour)

	profiles := make([]models.RFMProfile, 0, len(accs))
	for customerID, acc := range accs {
		if acc.monetary <= 0 {
			continue
		}

		profiles = append(profiles, models.RFMProfile{
			CustomerID: customerID,
			Recency:    wholeDays(analysisDate.Sub(acc.lastInvoice)),
			Frequency:  len(acc.invoices),
			Monetary:   acc.monetary,
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CustomerID < profiles[j].CustomerID
	})

	return profiles
}

// wholeDays truncates a duration to whole days, matching the day arithmetic
// of the recency definition. Integer division keeps the result exact for
// arbitrarily large spans.
func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
