// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package models defines the domain records shared across the analysis
// pipeline: order lines, RFM profiles, cluster summaries, association rules
// and recommendations.
//
// All types are plain data carriers. Components receive and return values of
// these types without mutating their inputs; each pipeline stage produces a
// fresh collection.
package models

import "time"

// Transaction is a single cleaned order line from the transaction source.
//
// The source guarantees that CustomerID is non-empty, cancelled invoices have
// been removed, and Quantity/UnitPrice reflect the shipped line.
type Transaction struct {
	// CustomerID identifies the purchasing customer.
	CustomerID string `json:"customer_id"`

	// StockCode is the product identifier (e.g. "85123A").
	StockCode string `json:"stock_code"`

	// Description is the human-readable product name. May be empty.
	Description string `json:"description,omitempty"`

	// Quantity is the number of units on this line. Negative quantities
	// represent returns that survived cancellation filtering.
	Quantity int `json:"quantity"`

	// UnitPrice is the per-unit price in the dataset's currency.
	UnitPrice float64 `json:"unit_price"`

	// InvoiceID identifies the invoice this line belongs to.
	InvoiceID string `json:"invoice_id"`

	// InvoiceDate is when the invoice was issued.
	InvoiceDate time.Time `json:"invoice_date"`

	// Country is the customer's shipping country.
	Country string `json:"country,omitempty"`
}

// TotalPrice returns the extended line amount (quantity x unit price).
func (t Transaction) TotalPrice() float64 {
	return float64(t.Quantity) * t.UnitPrice
}

// RFMProfile summarizes one customer's purchase history with the three
// classic behavioral metrics.
type RFMProfile struct {
	// CustomerID identifies the customer.
	CustomerID string `json:"customer_id"`

	// Recency is the number of whole days between the customer's most
	// recent invoice and the analysis instant. Always >= 1 because the
	// analysis instant is one day past the newest invoice in the dataset.
	Recency int `json:"recency"`

	// Frequency is the number of distinct invoices, not line items.
	Frequency int `json:"frequency"`

	// Monetary is the customer's total spend. Always > 0; customers with
	// zero or negative net spend are excluded during calculation.
	Monetary float64 `json:"monetary"`
}

// SegmentedProfile is an RFM profile augmented with its cluster assignment.
type SegmentedProfile struct {
	RFMProfile

	// ClusterID is the raw cluster index assigned by the clustering
	// algorithm (0..k-1). Arbitrary across runs with different seeds.
	ClusterID int `json:"cluster_id"`

	// Segment is the behavioral label derived from the cluster's mean
	// monetary rank, not from the raw cluster id.
	Segment string `json:"segment"`
}

// ClusterSummary describes one cluster by the means of the original
// (untransformed) RFM metrics of its members.
type ClusterSummary struct {
	// ClusterID is the raw cluster index.
	ClusterID int `json:"cluster_id"`

	// Segment is the label assigned to this cluster.
	Segment string `json:"segment"`

	// Size is the number of customers in the cluster.
	Size int `json:"size"`

	// MeanRecency is the mean recency in days.
	MeanRecency float64 `json:"mean_recency"`

	// MeanFrequency is the mean distinct-invoice count.
	MeanFrequency float64 `json:"mean_frequency"`

	// MeanMonetary is the mean total spend. Summaries are reported in
	// descending MeanMonetary order.
	MeanMonetary float64 `json:"mean_monetary"`
}

// AssociationRule is a mined co-purchase rule: customers who bought every
// item in Antecedent also tend to buy the items in Consequent.
//
// Antecedent and Consequent are disjoint, sorted stock-code sets.
type AssociationRule struct {
	// Antecedent is the "if" side of the rule.
	Antecedent []string `json:"antecedent"`

	// Consequent is the "then" side of the rule.
	Consequent []string `json:"consequent"`

	// Support is the fraction of customers whose purchases contain both
	// sides of the rule.
	Support float64 `json:"support"`

	// Confidence is P(consequent | antecedent).
	Confidence float64 `json:"confidence"`

	// Lift is the ratio of observed to expected co-occurrence under
	// independence. Lift > 1 indicates positive association.
	Lift float64 `json:"lift"`
}

// Recommendation is one ranked product suggestion for a customer.
type Recommendation struct {
	// StockCode is the recommended product.
	StockCode string `json:"stock_code"`

	// Description is the product name, or "Unknown Product" when the
	// catalog has no description for the stock code.
	Description string `json:"description"`

	// Lift is the recommendation score: the maximum lift across all rules
	// that produced this candidate.
	Lift float64 `json:"lift"`
}

// MonthlySales is one row of the monthly revenue report.
type MonthlySales struct {
	// Month is the first day of the month.
	Month time.Time `json:"month"`

	// Revenue is the summed line totals for the month.
	Revenue float64 `json:"revenue"`

	// Invoices is the number of distinct invoices in the month.
	Invoices int `json:"invoices"`
}

// ProductRevenue is one row of the top-products report.
type ProductRevenue struct {
	// StockCode is the product identifier.
	StockCode string `json:"stock_code"`

	// Description is the product name. May be empty.
	Description string `json:"description,omitempty"`

	// Revenue is the summed line totals for the product.
	Revenue float64 `json:"revenue"`

	// UnitsSold is the summed quantity.
	UnitsSold int `json:"units_sold"`
}

// CountryRevenue is one row of the top-countries report.
type CountryRevenue struct {
	// Country is the shipping country.
	Country string `json:"country"`

	// Revenue is the summed line totals for the country.
	Revenue float64 `json:"revenue"`

	// Customers is the number of distinct customers.
	Customers int `json:"customers"`
}
