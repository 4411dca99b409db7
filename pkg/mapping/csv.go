// Package mapping builds identifier mapping tables from CSV files and keeps
// them in a per-user store so later runs can refer to them by name.
package mapping

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVOptions selects the source and target columns of a mapping CSV.
type CSVOptions struct {
	// Header skips the first row.
	Header bool
	// Source and Target are zero-based column indexes. Both zero means
	// columns 0 and 1.
	Source, Target int
	// Comma overrides the field delimiter. Zero means ','.
	Comma rune
}

// DefaultCSVOptions reads columns 0 and 1 below a header row.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Header: true, Source: 0, Target: 1}
}

// FromCSV reads a two-column identifier mapping. Later rows override
// earlier ones for the same source identifier; rows with an empty source
// are skipped.
func FromCSV(r io.Reader, opts CSVOptions) (map[string]string, error) {
	src, dst := opts.Source, opts.Target
	if src == 0 && dst == 0 {
		dst = 1
	}
	if src < 0 || dst < 0 || src == dst {
		return nil, fmt.Errorf("invalid columns (%d, %d)", src, dst)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	out := make(map[string]string)
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read mapping csv: %w", err)
		}
		if row == 0 && opts.Header {
			continue
		}
		if len(rec) <= max(src, dst) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: want at least %d columns, got %d", line, max(src, dst)+1, len(rec))
		}
		key := strings.TrimSpace(rec[src])
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(rec[dst])
	}
}
