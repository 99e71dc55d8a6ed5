package normalize

import (
	"testing"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/source"
)

func TestDGIdbFanOut(t *testing.T) {
	rec := source.DGIdbRecord{
		Molecule:     source.CompoundRecord{ID: "2244", Name: "Aspirin"},
		GeneClaimID:  "PTGS2",
		GeneName:     "PTGS2",
		Interactions: "inhibitor,antagonist",
		ClaimSource:  "ChemblInteractions",
	}
	rows, err := dgidbNormalizer{}.Normalize(
		source.RawRecord{ID: "PTGS2", Payload: rec},
		testContext(annotate.TypeDGIdb, source.Options{}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per interaction kind, got %d", len(rows))
	}
	if rows[0].Predicate != "inhibitor for" || rows[1].Predicate != "antagonist for" {
		t.Errorf("predicates = %q, %q", rows[0].Predicate, rows[1].Predicate)
	}
	if rows[0].RecordID == rows[1].RecordID {
		t.Error("fanned-out rows must have distinct record ids")
	}
}

func TestCTDGeneTaxaFilter(t *testing.T) {
	rec := source.CTDGeneRecord{
		Molecule:    source.CompoundRecord{ID: "2244", Name: "Aspirin"},
		GeneSymbol:  "PTGS1",
		Interaction: "decreases activity",
		TaxonName:   "Mus musculus",
		TaxonID:     10090,
	}

	rows, err := ctdGeneNormalizer{}.Normalize(
		source.RawRecord{ID: "ctd:1", Payload: rec},
		testContext(annotate.TypeCTDGene, source.Options{"taxa": []any{int64(9606)}}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 0 {
		t.Error("expected mouse record filtered when taxa=[9606]")
	}

	rows, err = ctdGeneNormalizer{}.Normalize(
		source.RawRecord{ID: "ctd:1", Payload: rec},
		testContext(annotate.TypeCTDGene, source.Options{}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row without taxa filter, got %d", len(rows))
	}
	if rows[0].ObjectID != "" || rows[0].ObjectName != "PTGS1" {
		t.Errorf("expected empty object_id with gene symbol name, got %q/%q",
			rows[0].ObjectID, rows[0].ObjectName)
	}
}

func TestTrialPhaseParsing(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"Phase 3", 3},
		{"Phase 2/Phase 3", 3},
		{"phase 1", 1},
		{"Not Applicable", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := trialPhase(tt.label); got != tt.want {
			t.Errorf("trialPhase(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestTrialNormalize(t *testing.T) {
	rec := source.TrialRecord{
		Molecule:   source.CompoundRecord{ID: "2244", Name: "Aspirin"},
		CTID:       "NCT00000541",
		Conditions: "Myocardial Infarction|Stroke",
		Phase:      "Phase 3",
		Status:     "Completed",
	}

	rows, err := trialNormalizer{}.Normalize(
		source.RawRecord{ID: "NCT00000541", Payload: rec},
		testContext(annotate.TypeTrials, source.Options{}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per condition, got %d", len(rows))
	}
	if rows[0].Predicate != "phase-3 trial for" || rows[0].ObjectName != "Myocardial Infarction" {
		t.Errorf("row 0 = %q %q", rows[0].Predicate, rows[0].ObjectName)
	}

	rows, err = trialNormalizer{}.Normalize(
		source.RawRecord{ID: "NCT00000541", Payload: rec},
		testContext(annotate.TypeTrials, source.Options{"min_phase": int64(4)}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 0 {
		t.Error("expected phase-3 trial filtered at min_phase 4")
	}

	rows, err = trialNormalizer{}.Normalize(
		source.RawRecord{ID: "NCT00000541", Payload: rec},
		testContext(annotate.TypeTrials, source.Options{"statuses": []any{"Recruiting"}}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 0 {
		t.Error("expected completed trial filtered by statuses")
	}
}

func TestLiteratureMinArticles(t *testing.T) {
	rec := source.LiteratureRecord{
		Molecule:     source.CompoundRecord{ID: "2244", Name: "Aspirin"},
		Kind:         "disease",
		TermID:       "D009203",
		TermName:     "Myocardial Infarction",
		ArticleCount: 5,
		Score:        812,
	}

	rows, err := literatureNormalizer{}.Normalize(
		source.RawRecord{ID: "lit:1", Payload: rec},
		testContext(annotate.TypeLiterature, source.Options{"min_articles": int64(10)}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 0 {
		t.Error("expected record below min_articles filtered")
	}

	rows, err = literatureNormalizer{}.Normalize(
		source.RawRecord{ID: "lit:1", Payload: rec},
		testContext(annotate.TypeLiterature, source.Options{}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 1 || rows[0].Predicate != annotate.PredCoOccursWith {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestAcuteEffectSplit(t *testing.T) {
	rec := source.AcuteEffectRecord{
		Molecule: source.CompoundRecord{ID: "2244", Name: "Aspirin"},
		Effect:   "BEHAVIORAL: SOMNOLENCE; GASTROINTESTINAL: NAUSEA OR VOMITING",
		Organism: "rat",
		TestType: "LD50",
		Route:    "oral",
		Dose:     "200 mg/kg",
	}
	rows, err := acuteEffectNormalizer{}.Normalize(
		source.RawRecord{ID: "acute:1", Payload: rec},
		testContext(annotate.TypeAcuteEffects, source.Options{}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per effect clause, got %d", len(rows))
	}
	if rows[1].ObjectName != "GASTROINTESTINAL: NAUSEA OR VOMITING" {
		t.Errorf("row 1 object = %q", rows[1].ObjectName)
	}
	if rows[0].Predicate != annotate.PredAcuteEffect {
		t.Errorf("predicate = %q", rows[0].Predicate)
	}
}

func TestClassNormalize(t *testing.T) {
	rec := source.ClassRecord{
		Molecule:  source.CompoundRecord{ID: "2244", Name: "Aspirin"},
		Hierarchy: "MeSH Tree",
		NodeID:    "D02.241.223.100",
		Name:      "Salicylates",
		Level:     4,
	}
	rows, err := classNormalizer{}.Normalize(
		source.RawRecord{ID: "class:1", Payload: rec},
		testContext(annotate.TypeClasses, source.Options{}),
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 1 || rows[0].Predicate != annotate.PredHasClass {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].Extras[0] != "MeSH Tree" || rows[0].Extras[1] != "4" {
		t.Errorf("extras = %v", rows[0].Extras)
	}
}

func TestEveryTypeHasNormalizer(t *testing.T) {
	types := []annotate.Type{
		annotate.TypeActivity, annotate.TypeMechanism, annotate.TypeATC,
		annotate.TypeIndication, annotate.TypeDrugbankTargets,
		annotate.TypeDrugbankDDI, annotate.TypeDGIdb, annotate.TypeCTDGene,
		annotate.TypeTrials, annotate.TypeLiterature, annotate.TypeAcuteEffects,
		annotate.TypeProperties, annotate.TypeClasses, annotate.TypeG2PInteractions,
		annotate.TypeHMDBProperties, annotate.TypeHMDBTissues,
	}
	for _, typ := range types {
		if _, err := For(typ); err != nil {
			t.Errorf("no normalizer for %s: %v", typ, err)
		}
	}
	if _, err := For(annotate.TypeMetaAll); err == nil {
		t.Error("meta types must not have normalizers")
	}
}
