package annotate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Columns appended to every table when similarity expansion is enabled.
const (
	ColOriginCompound = "origin_compound"
	ColSimilarity     = "similarity"
)

// FailureStage identifies where in the search a compound or record failed.
type FailureStage string

const (
	StageResolve   FailureStage = "resolve"
	StageFetch     FailureStage = "fetch"
	StageNormalize FailureStage = "normalize"
)

// Failure records a per-compound or per-record problem attached to a table.
// Failures never abort a run; they surface in the run report.
type Failure struct {
	Identifier string       `json:"identifier"`
	Source     string       `json:"source,omitempty"`
	Stage      FailureStage `json:"stage"`
	Message    string       `json:"message"`
}

// Table is the in-memory result table for one search: the shared 10-column
// prefix plus the type's extra columns. Appends deduplicate by full-row
// equality and serialize through a single lock so row order stays the order
// of appends.
type Table struct {
	typ       Type
	extraCols []string

	mu       sync.Mutex
	rows     []Row
	seen     map[string]struct{}
	failures []Failure
}

// NewTable creates an empty table for the given annotation type and extra
// columns. Pass the expansion columns too when similarity expansion is on.
func NewTable(typ Type, extraCols []string) *Table {
	return &Table{
		typ:       typ,
		extraCols: append([]string(nil), extraCols...),
		seen:      make(map[string]struct{}),
	}
}

// Type returns the annotation type this table holds.
func (t *Table) Type() Type { return t.typ }

// Header returns the full column list: shared prefix then extras.
func (t *Table) Header() []string {
	return append(append([]string(nil), SharedColumns...), t.extraCols...)
}

// ExtraColumns returns the type-specific columns of this table.
func (t *Table) ExtraColumns() []string {
	return append([]string(nil), t.extraCols...)
}

// Append adds rows, dropping exact duplicates. It returns the number of
// rows actually appended and fails if a row violates the shared schema or
// its extras do not match the table's extra columns.
func (t *Table) Append(rows ...Row) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	added := 0
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return added, err
		}
		if len(row.Extras) != len(t.extraCols) {
			return added, fmt.Errorf("row has %d extras, table %s has %d extra columns",
				len(row.Extras), t.typ, len(t.extraCols))
		}
		key := rowKey(row)
		if _, dup := t.seen[key]; dup {
			continue
		}
		t.seen[key] = struct{}{}
		t.rows = append(t.rows, row)
		added++
	}
	return added, nil
}

// rowKey builds the dedup key over shared+extra columns.
func rowKey(row Row) string {
	parts := append(row.shared(), row.Extras...)
	return strings.Join(parts, "\x1f")
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Rows returns a copy of the rows in append order.
func (t *Table) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Row(nil), t.rows...)
}

// RecordFailure attaches a partial-failure record to the table.
func (t *Table) RecordFailure(f Failure) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = append(t.failures, f)
}

// Failures returns a copy of the recorded failures.
func (t *Table) Failures() []Failure {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Failure(nil), t.failures...)
}

// Write renders the table with the given delimiter.
func (t *Table) Write(w io.Writer, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows() {
		if err := cw.Write(append(row.shared(), row.Extras...)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, choosing the delimiter from the
// extension: tab for .tsv, comma otherwise.
func (t *Table) WriteFile(path string) error {
	delim := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		delim = '\t'
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table file: %w", err)
	}

	werr := t.Write(f, delim)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return fmt.Errorf("close table file: %w", cerr)
	}
	return nil
}
