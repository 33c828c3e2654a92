// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package reports writes analysis results to disk.
//
// Three export formats are supported and can be combined:
//
//   - json: the full result as analysis.json plus a summary.json with run
//     metadata and the gathered pipeline metrics
//   - csv: one file per report table
//   - xlsx: a single multi-sheet workbook
package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/retailscope/internal/config"
	"github.com/tomtom215/retailscope/internal/logging"
	"github.com/tomtom215/retailscope/internal/metrics"
	"github.com/tomtom215/retailscope/internal/models"
	"github.com/tomtom215/retailscope/internal/pipeline"
)

// Exporter writes run results into an output directory.
type Exporter struct {
	dir     string
	formats []string
}

// NewExporter creates an Exporter for the configured directory and formats.
func NewExporter(cfg *config.OutputConfig) *Exporter {
	return &Exporter{dir: cfg.Dir, formats: cfg.Formats}
}

// Export writes every configured format and returns the paths written.
func (e *Exporter) Export(result *pipeline.Result) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", e.dir, err)
	}

	var written []string
	for _, format := range e.formats {
		var (
			paths []string
			err   error
		)
		switch format {
		case "json":
			paths, err = e.exportJSON(result)
		case "csv":
			paths, err = e.exportCSV(result)
		case "xlsx":
			paths, err = e.exportXLSX(result)
		default:
			err = fmt.Errorf("unknown export format %q", format)
		}
		if err != nil {
			return written, fmt.Errorf("export %s: %w", format, err)
		}
		written = append(written, paths...)
	}

	logging.Info().Str("dir", e.dir).Strs("files", written).Msg("Reports written")

	return written, nil
}

// runSummary is the summary.json payload: run metadata plus metrics.
type runSummary struct {
	RunID        string            `json:"run_id"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  time.Time         `json:"completed_at"`
	OrderLines   int               `json:"order_lines"`
	Customers    int               `json:"customers"`
	Clusters     int               `json:"clusters"`
	Itemsets     int               `json:"itemsets"`
	Rules        int               `json:"rules"`
	Metrics      []metrics.Summary `json:"metrics,omitempty"`
	MetricsError string            `json:"metrics_error,omitempty"`
}

func (e *Exporter) exportJSON(result *pipeline.Result) ([]string, error) {
	analysisPath := filepath.Join(e.dir, "analysis.json")
	if err := writeJSON(analysisPath, result); err != nil {
		return nil, err
	}

	summary := runSummary{
		RunID:       result.RunID,
		StartedAt:   result.StartedAt,
		CompletedAt: result.CompletedAt,
		OrderLines:  result.OrderLines,
		Customers:   len(result.Profiles),
		Clusters:    len(result.Clusters),
		Itemsets:    len(result.Itemsets),
		Rules:       len(result.Rules),
	}
	samples, err := metrics.Gather()
	if err != nil {
		summary.MetricsError = err.Error()
	} else {
		summary.Metrics = samples
	}

	summaryPath := filepath.Join(e.dir, "summary.json")
	if err := writeJSON(summaryPath, summary); err != nil {
		return nil, err
	}

	return []string{analysisPath, summaryPath}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// reportTables flattens the result into named tables shared by the CSV and
// XLSX exporters.
func reportTables(result *pipeline.Result) []struct {
	name string
	rows [][]string
} {
	return []struct {
		name string
		rows [][]string
	}{
		{"segments", segmentRows(result.Profiles)},
		{"clusters", clusterRows(result.Clusters)},
		{"rules", ruleRows(result.Rules)},
		{"recommendations", recommendationRows(result.SampleCustomerID, result.SampleRecommendations)},
		{"monthly_sales", monthlySalesRows(result.MonthlySales)},
		{"top_products", productRows(result.TopProducts)},
		{"top_countries", countryRows(result.TopCountries)},
	}
}

func (e *Exporter) exportCSV(result *pipeline.Result) ([]string, error) {
	var written []string
	for _, table := range reportTables(result) {
		path := filepath.Join(e.dir, table.name+".csv")
		if err := writeCSV(path, table.rows); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) exportXLSX(result *pipeline.Result) ([]string, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, table := range reportTables(result) {
		sheet := sheetName(table.name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}

		for r, row := range table.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, fmt.Errorf("address row %d: %w", r+1, err)
			}
			cells := make([]any, len(row))
			for c, v := range row {
				cells[c] = v
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return nil, fmt.Errorf("write sheet %s row %d: %w", sheet, r+1, err)
			}
		}
	}

	path := filepath.Join(e.dir, "report.xlsx")
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save %s: %w", path, err)
	}

	return []string{path}, nil
}

// sheetName turns a snake_case table name into a worksheet title.
func sheetName(table string) string {
	parts := strings.Split(table, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

func segmentRows(profiles []models.SegmentedProfile) [][]string {
	rows := [][]string{{"customer_id", "recency", "frequency", "monetary", "cluster_id", "segment"}}
	for _, p := range profiles {
		rows = append(rows, []string{
			p.CustomerID,
			strconv.Itoa(p.Recency),
			strconv.Itoa(p.Frequency),
			formatFloat(p.Monetary),
			strconv.Itoa(p.ClusterID),
			p.Segment,
		})
	}
	return rows
}

func clusterRows(clusters []models.ClusterSummary) [][]string {
	rows := [][]string{{"segment", "cluster_id", "size", "mean_recency", "mean_frequency", "mean_monetary"}}
	for _, c := range clusters {
		rows = append(rows, []string{
			c.Segment,
			strconv.Itoa(c.ClusterID),
			strconv.Itoa(c.Size),
			formatFloat(c.MeanRecency),
			formatFloat(c.MeanFrequency),
			formatFloat(c.MeanMonetary),
		})
	}
	return rows
}

func ruleRows(rules []models.AssociationRule) [][]string {
	rows := [][]string{{"antecedent", "consequent", "support", "confidence", "lift"}}
	for _, r := range rules {
		rows = append(rows, []string{
			strings.Join(r.Antecedent, "+"),
			strings.Join(r.Consequent, "+"),
			formatFloat(r.Support),
			formatFloat(r.Confidence),
			formatFloat(r.Lift),
		})
	}
	return rows
}

func recommendationRows(customerID string, recs []models.Recommendation) [][]string {
	rows := [][]string{{"customer_id", "rank", "stock_code", "description", "lift"}}
	for i, r := range recs {
		rows = append(rows, []string{
			customerID,
			strconv.Itoa(i + 1),
			r.StockCode,
			r.Description,
			formatFloat(r.Lift),
		})
	}
	return rows
}

func monthlySalesRows(sales []models.MonthlySales) [][]string {
	rows := [][]string{{"month", "revenue", "invoices"}}
	for _, m := range sales {
		rows = append(rows, []string{
			m.Month.Format("2006-01"),
			formatFloat(m.Revenue),
			strconv.Itoa(m.Invoices),
		})
	}
	return rows
}

func productRows(products []models.ProductRevenue) [][]string {
	rows := [][]string{{"stock_code", "description", "revenue", "units_sold"}}
	for _, p := range products {
		rows = append(rows, []string{
			p.StockCode,
			p.Description,
			formatFloat(p.Revenue),
			strconv.Itoa(p.UnitsSold),
		})
	}
	return rows
}

func countryRows(countries []models.CountryRevenue) [][]string {
	rows := [][]string{{"country", "revenue", "customers"}}
	for _, c := range countries {
		rows = append(rows, []string{
			c.Country,
			formatFloat(c.Revenue),
			strconv.Itoa(c.Customers),
		})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
