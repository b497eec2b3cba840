// Package stockfeed loads stock lot files and imports them as new batches.
package stockfeed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"swimshop/internal/model"
)

// Loader reads one stock feed file.
type Loader interface {
	// Load reads a gzipped feed and returns one batch per lot line.
	Load(ctx context.Context, path string) ([]model.StockBatch, error)
}

// parseFeed reads "product_id,quantity" lines. Blank lines and lines starting
// with # are skipped.
func parseFeed(ctx context.Context, r io.Reader, source string) ([]model.StockBatch, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var batches []model.StockBatch
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		// Check context cancellation periodically
		if lineNo%100_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		batch, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, lineNo, err)
		}
		batches = append(batches, batch)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading stock feed %s: %w", source, err)
	}

	return batches, nil
}

func parseLine(line string) (model.StockBatch, error) {
	productField, quantityField, ok := strings.Cut(line, ",")
	if !ok {
		return model.StockBatch{}, fmt.Errorf("expected product_id,quantity, got %q", line)
	}

	productID, err := strconv.ParseInt(strings.TrimSpace(productField), 10, 64)
	if err != nil || productID <= 0 {
		return model.StockBatch{}, fmt.Errorf("invalid product id %q", productField)
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(quantityField))
	if err != nil || quantity <= 0 {
		return model.StockBatch{}, fmt.Errorf("invalid quantity %q", quantityField)
	}

	return model.StockBatch{ProductID: productID, Quantity: quantity}, nil
}
