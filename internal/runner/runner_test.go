package runner

import (
	"context"
	"testing"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/normalize"
	"github.com/okarpov/athanor/internal/resolve"
	"github.com/okarpov/athanor/internal/search"
	"github.com/okarpov/athanor/internal/source"
)

// orderedSource returns one trial per compound, so table rows mirror the
// order compounds were submitted in.
type orderedSource struct{}

func (orderedSource) Name() string                           { return "Fake :: trials" }
func (orderedSource) Type() annotate.Type                    { return annotate.TypeTrials }
func (orderedSource) RecognizedOptions() []string            { return nil }
func (orderedSource) CheckOptions(opts source.Options) error { return opts.CheckKeys(nil) }
func (orderedSource) MaxConcurrent() int                     { return 8 }

func (orderedSource) Fetch(_ context.Context, compound resolve.Compound, _ source.Options) ([]source.RawRecord, error) {
	rec := source.TrialRecord{
		Molecule:   source.CompoundRecord{ID: compound.ID, Name: compound.Name},
		CTID:       "NCT-" + compound.ID,
		Conditions: "Pain",
		Phase:      "Phase 2",
		Status:     "Completed",
	}
	return []source.RawRecord{{ID: rec.CTID, Payload: rec}}, nil
}

func trialsSearch(t *testing.T) *search.Search {
	t.Helper()
	norm, err := normalize.For(annotate.TypeTrials)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	return &search.Search{
		Key:     "trials",
		Class:   "trials",
		Type:    annotate.TypeTrials,
		Source:  orderedSource{},
		Norm:    norm,
		Options: source.Options{},
	}
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Concurrency.Workers = 4
	return cfg
}

var testKeys = []string{
	"BSYNRYMUTXBXSQ-UHFFFAOYSA-N",
	"QVGXLLKOCUKJST-UHFFFAOYSA-N",
	"RZVAJINKPMORJF-UHFFFAOYSA-N",
	"HEFNNWSXXWATRW-UHFFFAOYSA-N",
}

func TestRunCommitsInSubmissionOrder(t *testing.T) {
	run := &Runner{Resolver: resolve.Passthrough{}, Config: testConfig()}

	tables, report, err := run.Run(context.Background(), testKeys, []*search.Search{trialsSearch(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rows := tables["trials"].Rows()
	if len(rows) != len(testKeys) {
		t.Fatalf("expected %d rows, got %d", len(testKeys), len(rows))
	}
	for i, key := range testKeys {
		if rows[i].InChIKey != key {
			t.Errorf("row %d: inchikey %s, want %s", i, rows[i].InChIKey, key)
		}
	}
	if report.Compounds != len(testKeys) || report.Unresolved != 0 {
		t.Errorf("report compounds = %d, unresolved = %d", report.Compounds, report.Unresolved)
	}
	if len(report.Searches) != 1 || report.Searches[0].Rows != len(testKeys) {
		t.Errorf("unexpected search report: %+v", report.Searches)
	}
}

func TestRunRecordsUnresolved(t *testing.T) {
	run := &Runner{Resolver: resolve.Passthrough{}, Config: testConfig()}

	ids := append([]string{"not-an-inchikey"}, testKeys[0])
	tables, report, err := run.Run(context.Background(), ids, []*search.Search{trialsSearch(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Unresolved != 1 || len(report.UnresolvedIdentifiers) != 1 {
		t.Errorf("unresolved not recorded: %+v", report)
	}
	if report.UnresolvedIdentifiers[0] != "not-an-inchikey" {
		t.Errorf("wrong unresolved identifier: %v", report.UnresolvedIdentifiers)
	}
	if tables["trials"].Len() != 1 {
		t.Errorf("resolved compound should still produce rows, got %d", tables["trials"].Len())
	}
}

func TestRunSimilarityExpansion(t *testing.T) {
	origin := testKeys[0]
	neighborKey := testKeys[1]

	similarity := resolve.NewStaticSimilarity(map[string][]resolve.Neighbor{
		origin: {
			{Compound: resolve.Compound{ID: neighborKey, InChIKey: neighborKey}, Weight: 0.92},
			{Compound: resolve.Compound{ID: testKeys[2], InChIKey: testKeys[2]}, Weight: 0.80},
		},
	})

	cfg := testConfig()
	cfg.Similarity.Expand = true
	cfg.Similarity.Threshold = 0.9
	run := &Runner{Resolver: resolve.Passthrough{}, Similarity: similarity, Config: cfg}

	tables, report, err := run.Run(context.Background(), []string{origin}, []*search.Search{trialsSearch(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Expanded != 1 {
		t.Fatalf("expected 1 neighbor above threshold, got %d", report.Expanded)
	}

	table := tables["trials"]
	header := table.Header()
	if header[len(header)-2] != annotate.ColOriginCompound || header[len(header)-1] != annotate.ColSimilarity {
		t.Fatalf("expansion columns missing: %v", header)
	}

	rows := table.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected origin + neighbor rows, got %d", len(rows))
	}
	originExtras := rows[0].Extras
	if originExtras[len(originExtras)-2] != origin || originExtras[len(originExtras)-1] != "1.000" {
		t.Errorf("origin row extras = %v", originExtras)
	}
	neighborExtras := rows[1].Extras
	if neighborExtras[len(neighborExtras)-2] != origin || neighborExtras[len(neighborExtras)-1] != "0.920" {
		t.Errorf("neighbor row extras = %v", neighborExtras)
	}
}

func TestRunMultipleSearches(t *testing.T) {
	norm, err := normalize.For(annotate.TypeTrials)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	second := &search.Search{
		Key:     "trials-again",
		Class:   "clinical",
		Type:    annotate.TypeTrials,
		Source:  orderedSource{},
		Norm:    norm,
		Options: source.Options{},
	}

	run := &Runner{Resolver: resolve.Passthrough{}, Config: testConfig()}
	tables, report, err := run.Run(context.Background(), testKeys[:2],
		[]*search.Search{trialsSearch(t), second})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if tables["trials"].Len() != 2 || tables["trials-again"].Len() != 2 {
		t.Errorf("tables = %d/%d rows", tables["trials"].Len(), tables["trials-again"].Len())
	}
	if len(report.Searches) != 2 {
		t.Errorf("expected 2 search reports, got %d", len(report.Searches))
	}
	// search_class is the one field that differs between the two tables.
	if tables["trials-again"].Rows()[0].SearchClass != "clinical" {
		t.Errorf("search class not stamped: %+v", tables["trials-again"].Rows()[0])
	}
}
