package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Table is a results file read back for display
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named column, or -1
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ReadTable reads a CSV table written by the exporter
func ReadTable(reader io.Reader) (*Table, error) {
	csvReader := csv.NewReader(reader)
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// ReadTableFile reads a CSV table from disk
func ReadTableFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()
	return ReadTable(file)
}
