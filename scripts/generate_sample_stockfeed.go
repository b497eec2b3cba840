//go:build ignore

package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Writes sample stock feeds for cmd/stockimport.
// Product 1 gets lots in both files, product 2 only in the first, product 3
// only in the second.
//
//	go run scripts/generate_sample_stockfeed.go
func main() {
	dataDir := "data/stockfeeds"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	feeds := map[string][]string{
		"warehouse-north.gz": {
			"# product_id,quantity",
			"1,5",
			"1,10",
			"2,3",
		},
		"warehouse-south.gz": {
			"# product_id,quantity",
			"1,10",
			"3,20",
		},
	}

	for filename, lines := range feeds {
		path := filepath.Join(dataDir, filename)
		if err := writeFeed(path, lines); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		fmt.Printf("Created %s with %d lines\n", path, len(lines))
	}
}

func writeFeed(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	for _, line := range lines {
		if _, err := fmt.Fprintln(gz, line); err != nil {
			return err
		}
	}
	return gz.Close()
}
