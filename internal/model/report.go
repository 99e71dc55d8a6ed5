package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/okarpov/athanor/internal/annotate"
)

// RunReport aggregates what happened across every search in a batch run.
// A run always completes and writes whatever tables it could build; this
// report is the required companion that makes partial data visible.
type RunReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Cancelled  bool      `json:"cancelled,omitempty"`

	Compounds  int `json:"compounds"`           // input compounds after resolution
	Unresolved int `json:"unresolved"`          // identifiers the resolver rejected
	Expanded   int `json:"expanded,omitempty"`  // neighbors added by similarity expansion

	Searches []SearchReport `json:"searches"`

	UnresolvedIdentifiers []string `json:"unresolved_identifiers,omitempty"`
}

// SearchReport summarizes one configured search.
type SearchReport struct {
	Key      string             `json:"key"`
	Class    string             `json:"class"`
	Type     annotate.Type      `json:"type"`
	Source   string             `json:"source"`
	Rows     int                `json:"rows"`
	Failures []annotate.Failure `json:"failures,omitempty"`
}

// TotalRows sums rows across all searches.
func (r *RunReport) TotalRows() int {
	n := 0
	for _, s := range r.Searches {
		n += s.Rows
	}
	return n
}

// TotalFailures sums recorded failures across all searches, plus compounds
// the resolver rejected.
func (r *RunReport) TotalFailures() int {
	n := r.Unresolved
	for _, s := range r.Searches {
		n += len(s.Failures)
	}
	return n
}

// WriteJSON writes the report to path.
func (r *RunReport) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Markdown renders a human-readable summary of the run.
func (r *RunReport) Markdown() string {
	var b strings.Builder

	b.WriteString("# Athanor run report\n\n")
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Finished: %s\n", r.FinishedAt.Format(time.RFC3339))
	if r.Cancelled {
		b.WriteString("- **Run was cancelled; tables are partial.**\n")
	}
	fmt.Fprintf(&b, "- Compounds: %d (%d unresolved", r.Compounds, r.Unresolved)
	if r.Expanded > 0 {
		fmt.Fprintf(&b, ", %d added by similarity expansion", r.Expanded)
	}
	b.WriteString(")\n")
	fmt.Fprintf(&b, "- Rows: %d across %d searches\n\n", r.TotalRows(), len(r.Searches))

	b.WriteString("| key | type | source | rows | failures |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, s := range r.Searches {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d |\n",
			s.Key, s.Type, s.Source, s.Rows, len(s.Failures))
	}

	if r.TotalFailures() > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, id := range r.UnresolvedIdentifiers {
			fmt.Fprintf(&b, "- `%s`: unresolved identifier\n", id)
		}
		for _, s := range r.Searches {
			fails := append([]annotate.Failure(nil), s.Failures...)
			sort.SliceStable(fails, func(i, j int) bool {
				return fails[i].Identifier < fails[j].Identifier
			})
			for _, f := range fails {
				fmt.Fprintf(&b, "- `%s` [%s/%s]: %s\n", f.Identifier, s.Key, f.Stage, f.Message)
			}
		}
	}

	return b.String()
}
