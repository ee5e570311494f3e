package record

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads a product catalog from disk. The format is chosen by file
// extension: .json, .csv, or .xml/.rss for an existing shopping feed.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read products file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return LoadJSON(bytes.NewReader(data))
	case ".csv":
		return LoadCSV(bytes.NewReader(data))
	case ".xml", ".rss", ".atom":
		return NewCatalogParser().Run(data)
	default:
		return nil, fmt.Errorf("unsupported products file extension %q", ext)
	}
}

// LoadJSON decodes an array of flat JSON objects.
func LoadJSON(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return records, nil
}

// LoadCSV reads a header row followed by one product per row. Every cell is
// kept as a string; empty cells are left out of the record.
func LoadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		rec := Record{}
		for i, cell := range row {
			if i >= len(header) || cell == "" {
				continue
			}
			rec[strings.TrimSpace(header[i])] = String(cell)
		}
		records = append(records, rec)
	}

	return records, nil
}

// FileSource reads the catalog from a file on every Load so that edits are
// picked up by the next generation run.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Path == "" {
		return nil, fmt.Errorf("no products file configured")
	}
	return LoadFile(s.Path)
}
