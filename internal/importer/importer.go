// Package importer bulk-creates catalog products from a CSV file through the
// operator API, optionally stocking them at one branch.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"minishop-gateway/internal/domain"
	operatorsvc "minishop-gateway/internal/service/operator"
)

// ProductWriter creates one catalog product.
type ProductWriter interface {
	CreateProduct(ctx context.Context, in operatorsvc.ProductInput) (domain.Product, error)
}

// StockWriter adds stock for a product at a branch.
type StockWriter interface {
	Replenish(ctx context.Context, branchID, productID string, quantity float64) error
}

// Column aliases, matched case-insensitively.
var columns = map[string][]string{
	"name":     {"name", "title"},
	"price":    {"price"},
	"imageUrl": {"imageurl", "image_url", "image"},
	"quantity": {"quantity", "stock", "qty"},
}

// CSVImporter reads name,price[,imageUrl][,quantity] rows.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
	stock    StockWriter
	branchID string
	logger   *zap.Logger
}

type Option func(*CSVImporter)

// WithBranchStock replenishes each created product at branchID by the
// row's quantity column.
func WithBranchStock(branchID string, stock StockWriter) Option {
	return func(i *CSVImporter) {
		i.branchID = strings.TrimSpace(branchID)
		i.stock = stock
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(i *CSVImporter) { i.logger = l }
}

func NewCSVImporter(r io.Reader, products ProductWriter, opts ...Option) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	imp := &CSVImporter{reader: csvr, products: products, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

type csvRow struct {
	line     int
	Name     string
	Price    string
	ImageURL string
	Quantity float64
}

// Result counts what a run did.
type Result struct {
	Created int
	Stocked int
	Skipped int
}

// Run creates a product per row. Blank rows are skipped; the first failing
// row stops the run and is reported with its line number.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result
	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return res, errors.New("csv has no name column")
	}
	if _, ok := index["price"]; !ok {
		return res, errors.New("csv has no price column")
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		row, err := parseRow(record, index, line)
		if err != nil {
			return res, err
		}
		if row == nil {
			res.Skipped++
			continue
		}
		stocked, err := i.save(ctx, row)
		if err != nil {
			return res, err
		}
		res.Created++
		if stocked {
			res.Stocked++
		}
	}
	return res, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) (bool, error) {
	p, err := i.products.CreateProduct(ctx, operatorsvc.ProductInput{
		Name:     row.Name,
		Price:    row.Price,
		ImageURL: row.ImageURL,
	})
	if err != nil {
		return false, fmt.Errorf("line %d: create %q: %w", row.line, row.Name, err)
	}
	i.logger.Info("product created", zap.Int("line", row.line), zap.String("id", p.ID), zap.String("name", p.Name))

	if i.stock == nil || i.branchID == "" || row.Quantity <= 0 {
		return false, nil
	}
	if p.ID == "" {
		return false, fmt.Errorf("line %d: backend returned no id for %q", row.line, row.Name)
	}
	if err := i.stock.Replenish(ctx, i.branchID, p.ID, row.Quantity); err != nil {
		return false, fmt.Errorf("line %d: stock %q: %w", row.line, row.Name, err)
	}
	return true, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for pos, h := range headers {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for canonical, aliases := range columns {
			for _, a := range aliases {
				if h == a {
					if _, seen := idx[canonical]; !seen {
						idx[canonical] = pos
					}
				}
			}
		}
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	row := &csvRow{
		line:     line,
		Name:     pick(record, index, "name"),
		Price:    pick(record, index, "price"),
		ImageURL: pick(record, index, "imageUrl"),
	}
	qty := pick(record, index, "quantity")
	if row.Name == "" && row.Price == "" && row.ImageURL == "" && qty == "" {
		return nil, nil
	}
	if qty != "" {
		q, ok := domain.ParseDecimal(qty)
		if !ok || q < 0 {
			return nil, fmt.Errorf("line %d: invalid quantity %q", line, qty)
		}
		row.Quantity = q
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
