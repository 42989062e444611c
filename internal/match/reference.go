// Package match reconciles extracted document text against a small reference
// table using a language model as a fuzzy-matching oracle.
package match

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMalformedTable marks a reference table whose header is unusable. Callers
// skip the matching pass on this error instead of failing the loop.
var ErrMalformedTable = errors.New("reference table malformed")

// IsMalformedTable reports whether err stems from an unusable reference table.
func IsMalformedTable(err error) bool {
	return errors.Is(err, ErrMalformedTable)
}

// RequiredColumns must all appear in the header row (case-insensitive).
var RequiredColumns = []string{"date", "description", "amount", "total"}

// ReferenceTable is one parsed reference file. Rows excludes the header, so
// row numbers reported by the oracle are 1-based indexes into Rows.
type ReferenceTable struct {
	Header    []string
	Rows      [][]string
	Delimiter rune
}

// LoadReferenceTable reads and validates a delimited reference file. The
// table is re-read on every matching pass; edits take effect without restart.
func LoadReferenceTable(path string, delimiter rune) (*ReferenceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delimiter
	r.FieldsPerRecord = -1 // extra columns pass through
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedTable)
	}

	header := records[0]
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	return &ReferenceTable{
		Header:    header,
		Rows:      records[1:],
		Delimiter: delimiter,
	}, nil
}

func validateHeader(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrMalformedTable, strings.Join(missing, ", "))
	}
	return nil
}

// RowInRange reports whether a 1-based row number points at a data row.
func (t *ReferenceTable) RowInRange(n int) bool {
	return n >= 1 && n <= len(t.Rows)
}

// RawRow returns the 1-based data row joined with the table delimiter,
// suitable for the matched-row artifact.
func (t *ReferenceTable) RawRow(n int) string {
	if !t.RowInRange(n) {
		return ""
	}
	return strings.Join(t.Rows[n-1], string(t.Delimiter))
}

// Serialize renders the data rows for prompt embedding, one numbered line per
// row, so the oracle can reference rows unambiguously.
func (t *ReferenceTable) Serialize() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Header, string(t.Delimiter)))
	for i, row := range t.Rows {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%d: %s", i+1, strings.Join(row, string(t.Delimiter))))
	}
	return b.String()
}
