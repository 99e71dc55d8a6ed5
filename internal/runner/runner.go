// Package runner orchestrates a batch run: identifier resolution, optional
// similarity expansion, and the concurrent execution of every search over
// every compound. Rows commit to each table in submission order regardless
// of which worker finished first.
package runner

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/resolve"
	"github.com/okarpov/athanor/internal/search"
)

// subject is one compound a search runs against, with its expansion
// provenance. For input compounds the origin is the compound itself at
// weight 1.
type subject struct {
	compound resolve.Compound
	origin   string
	weight   float64
	expanded bool
}

// Runner executes searches over resolved compounds.
type Runner struct {
	Resolver   resolve.Resolver
	Similarity resolve.Similarity
	Config     *model.Config
	Progress   io.Writer
}

// Tables maps search keys to their result tables.
type Tables map[string]*annotate.Table

// searchJob runs one search for one compound.
type searchJob struct {
	index   int
	search  *search.Search
	subject subject
}

type searchResult struct {
	index    int
	rows     []annotate.Row
	failures []annotate.Failure
}

func (r *searchResult) Index() int { return r.index }

func (j *searchJob) Execute(ctx context.Context) Result {
	if ctx.Err() != nil {
		return &searchResult{index: j.index}
	}
	rows, failures := j.search.RunCompound(ctx, j.subject.compound)
	return &searchResult{index: j.index, rows: rows, failures: failures}
}

// Run resolves identifiers and executes every search. The run never aborts
// on per-compound trouble: failures land in the tables and the report, and
// cancellation marks the report instead of discarding partial tables.
func (r *Runner) Run(ctx context.Context, identifiers []string, searches []*search.Search) (Tables, *model.RunReport, error) {
	report := &model.RunReport{StartedAt: time.Now()}

	subjects, err := r.resolveAll(ctx, identifiers, report)
	if err != nil {
		return nil, nil, err
	}

	expand := r.Config.Similarity.Expand && r.Similarity != nil
	if expand {
		subjects, err = r.expandAll(ctx, subjects, report)
		if err != nil {
			return nil, nil, err
		}
	}

	tables := make(Tables, len(searches))
	for _, s := range searches {
		tables[s.Key] = s.NewTable(expand)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(searches))
	for _, s := range searches {
		s := s
		g.Go(func() error {
			return r.runSearch(gctx, s, subjects, tables[s.Key], expand)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for _, s := range searches {
		table := tables[s.Key]
		report.Searches = append(report.Searches, model.SearchReport{
			Key:      s.Key,
			Class:    s.Class,
			Type:     s.Type,
			Source:   s.Source.Name(),
			Rows:     table.Len(),
			Failures: table.Failures(),
		})
	}

	report.FinishedAt = time.Now()
	report.Cancelled = ctx.Err() != nil
	return tables, report, nil
}

func (r *Runner) resolveAll(ctx context.Context, identifiers []string, report *model.RunReport) ([]subject, error) {
	subjects := make([]subject, 0, len(identifiers))
	for _, id := range identifiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		compound, err := r.Resolver.Resolve(ctx, id)
		if err != nil {
			report.Unresolved++
			report.UnresolvedIdentifiers = append(report.UnresolvedIdentifiers, id)
			r.progressf("? %s: %v\n", id, err)
			continue
		}
		subjects = append(subjects, subject{
			compound: compound,
			origin:   compound.ID,
			weight:   1,
		})
	}
	report.Compounds = len(subjects)
	return subjects, nil
}

// expandAll appends similarity neighbors after the input compounds,
// skipping neighbors already present as inputs.
func (r *Runner) expandAll(ctx context.Context, subjects []subject, report *model.RunReport) ([]subject, error) {
	present := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		present[subjectKey(s.compound)] = true
	}

	out := subjects
	for _, s := range subjects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		neighbors, err := r.Similarity.Similar(ctx, s.compound.ID, r.Config.Similarity.Threshold)
		if err != nil {
			r.progressf("? expand %s: %v\n", s.compound.ID, err)
			continue
		}
		for _, n := range neighbors {
			if present[subjectKey(n.Compound)] {
				continue
			}
			present[subjectKey(n.Compound)] = true
			out = append(out, subject{
				compound: n.Compound,
				origin:   s.compound.ID,
				weight:   n.Weight,
				expanded: true,
			})
			report.Expanded++
		}
	}
	return out, nil
}

func (r *Runner) runSearch(ctx context.Context, s *search.Search, subjects []subject, table *annotate.Table, expand bool) error {
	workers := r.Config.Concurrency.Workers
	if limit := r.Config.Concurrency.PerSource; limit > 0 && limit < workers {
		workers = limit
	}
	if limit := s.Source.MaxConcurrent(); limit > 0 && limit < workers {
		workers = limit
	}

	jobs := make([]Job, len(subjects))
	for i, sub := range subjects {
		jobs[i] = &searchJob{index: i, search: s, subject: sub}
	}
	results := NewPool(workers).Run(ctx, jobs)
	sort.Slice(results, func(i, j int) bool { return results[i].Index() < results[j].Index() })

	for _, res := range results {
		sr := res.(*searchResult)
		sub := subjects[sr.index]
		for _, f := range sr.failures {
			table.RecordFailure(f)
		}
		rows := sr.rows
		if expand {
			rows = withExpansion(rows, sub)
		}
		if _, err := table.Append(rows...); err != nil {
			return fmt.Errorf("search %q: %w", s.Key, err)
		}
	}
	r.progressf("* %s: %d rows, %d failures\n", s.Key, table.Len(), len(table.Failures()))
	return nil
}

// subjectKey identifies a compound for dedup: the InChIKey when known,
// otherwise the compound id (database-id inputs resolve without one).
func subjectKey(c resolve.Compound) string {
	if c.InChIKey != "" {
		return c.InChIKey
	}
	return c.ID
}

// withExpansion appends the origin_compound and similarity columns.
func withExpansion(rows []annotate.Row, sub subject) []annotate.Row {
	weight := strconv.FormatFloat(sub.weight, 'f', 3, 64)
	out := make([]annotate.Row, len(rows))
	for i, row := range rows {
		extras := append(append([]string(nil), row.Extras...), sub.origin, weight)
		out[i] = annotate.Row{Triple: row.Triple, Extras: extras}
	}
	return out
}

func (r *Runner) progressf(format string, args ...any) {
	if r.Progress != nil {
		fmt.Fprintf(r.Progress, format, args...)
	}
}
