// Package feeder loads tabular test data that tours reference through
// {{field}} placeholders.
package feeder

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Record is a single row of named fields.
type Record map[string]string

// Dataset is an immutable set of records. It may be shared between workers;
// each worker reads it through its own Cursor.
type Dataset struct {
	records []Record
}

// ErrEmpty is returned when a data file holds no records.
var ErrEmpty = errors.New("feeder: no records")

// Load reads a dataset of the given type ("csv" or "json").
func Load(path, kind string) (*Dataset, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "csv":
		return LoadCSV(path)
	case "json":
		return LoadJSON(path)
	default:
		return nil, fmt.Errorf("feeder: unsupported type %q", kind)
	}
}

// LoadCSV reads a CSV file whose first row names the fields.
func LoadCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: CSV needs a header row and at least one data row", ErrEmpty)
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", i+2, len(row), len(header))
		}
		record := make(Record, len(header))
		for j, field := range header {
			record[field] = row[j]
		}
		records = append(records, record)
	}
	return &Dataset{records: records}, nil
}

// LoadJSON reads a JSON array of flat objects. Values are stringified.
func LoadJSON(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open JSON file: %w", err)
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: JSON array is empty", ErrEmpty)
	}

	records := make([]Record, 0, len(raw))
	for i, obj := range raw {
		if len(obj) == 0 {
			return nil, fmt.Errorf("record %d is empty", i)
		}
		record := make(Record, len(obj))
		for k, v := range obj {
			record[k] = fmt.Sprint(v)
		}
		records = append(records, record)
	}
	return &Dataset{records: records}, nil
}

// NewDataset wraps in-memory records.
func NewDataset(records ...Record) *Dataset {
	return &Dataset{records: records}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Cursor returns a round-robin reader starting at offset. Workers pass their
// id so concurrent workers start on different rows.
func (d *Dataset) Cursor(offset int) *Cursor {
	if d.Len() == 0 {
		return &Cursor{}
	}
	if offset < 0 {
		offset = -offset
	}
	return &Cursor{records: d.records, next: offset % len(d.records)}
}

// Cursor iterates a Dataset and wraps around at the end. It is owned by one
// worker and not safe for concurrent use.
type Cursor struct {
	records []Record
	next    int
}

// Next returns the next record, or nil for an empty dataset.
func (c *Cursor) Next() Record {
	if c == nil || len(c.records) == 0 {
		return nil
	}
	rec := c.records[c.next]
	c.next = (c.next + 1) % len(c.records)
	return rec
}
