package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/source"
)

type drugbankTargetNormalizer struct{}

func (drugbankTargetNormalizer) Type() annotate.Type { return annotate.TypeDrugbankTargets }

func (drugbankTargetNormalizer) ExtraColumns() []string {
	return []string{"gene_symbol", "action", "drugbank_id"}
}

func (n drugbankTargetNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.DrugbankTargetRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a DrugBank target record")
	}
	name := r.TargetName
	if name == "" {
		name = r.GeneSymbol
	}
	if name == "" {
		return nil, sc.malformed(rec.ID, "target record without a target name")
	}

	t := sc.triple(rec.ID,
		annotate.InteractionPredicate(normalizeKind(r.Action)),
		r.ProteinID, name, r.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{r.GeneSymbol, r.Action, r.DBID}}}, nil
}

type drugbankDDINormalizer struct{}

func (drugbankDDINormalizer) Type() annotate.Type { return annotate.TypeDrugbankDDI }

func (drugbankDDINormalizer) ExtraColumns() []string {
	return []string{"description"}
}

func (n drugbankDDINormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.DrugbankDDIRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a DrugBank DDI record")
	}
	if r.DrugName == "" {
		return nil, sc.malformed(rec.ID, "interaction without a partner drug name")
	}

	t := sc.triple(rec.ID, annotate.PredInteractsWith, r.DBID, r.DrugName, r.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{r.Description}}}, nil
}

type dgidbNormalizer struct{}

func (dgidbNormalizer) Type() annotate.Type { return annotate.TypeDGIdb }

func (dgidbNormalizer) ExtraColumns() []string {
	return []string{"interaction_kind", "claim_source"}
}

// Normalize fans one DGIdb row out to one triple per interaction kind.
func (n dgidbNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.DGIdbRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a DGIdb record")
	}
	if r.GeneName == "" {
		return nil, sc.malformed(rec.ID, "interaction without a gene name")
	}

	kinds := strings.Split(r.Interactions, ",")
	if r.Interactions == "" {
		kinds = []string{""}
	}

	rows := make([]annotate.Row, 0, len(kinds))
	for _, kind := range kinds {
		kind = normalizeKind(kind)
		t := sc.triple(
			source.FormatRecordID(rec.ID, kind),
			annotate.InteractionPredicate(kind),
			r.GeneClaimID, r.GeneName, r.Molecule,
		)
		rows = append(rows, annotate.Row{Triple: t, Extras: []string{kind, r.ClaimSource}})
	}
	return rows, nil
}

type ctdGeneNormalizer struct{}

func (ctdGeneNormalizer) Type() annotate.Type { return annotate.TypeCTDGene }

func (ctdGeneNormalizer) ExtraColumns() []string {
	return []string{"interaction", "taxon_name", "taxon_id"}
}

func (n ctdGeneNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.CTDGeneRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a CTD record")
	}
	if r.GeneSymbol == "" {
		return nil, sc.malformed(rec.ID, "interaction without a gene symbol")
	}

	taxa, err := sc.Options.StringSet("taxa")
	if err != nil {
		return nil, err
	}
	if taxa != nil && !taxa[itoa(r.TaxonID)] {
		return nil, nil
	}

	// CTD has no stable target id for the gene; object_name carries it.
	t := sc.triple(rec.ID, annotate.PredInteractionOther, "", r.GeneSymbol, r.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{
		r.Interaction,
		r.TaxonName,
		itoa(r.TaxonID),
	}}}, nil
}

var trialPhasePattern = regexp.MustCompile(`[Pp]hase\s+([0-4])`)

// trialPhase extracts the highest phase number from a free-text phase
// label like "Phase 2/Phase 3". Zero means unknown.
func trialPhase(label string) int {
	max := 0
	for _, m := range trialPhasePattern.FindAllStringSubmatch(label, -1) {
		if p, err := strconv.Atoi(m[1]); err == nil && p > max {
			max = p
		}
	}
	return max
}

type trialNormalizer struct{}

func (trialNormalizer) Type() annotate.Type { return annotate.TypeTrials }

func (trialNormalizer) ExtraColumns() []string {
	return []string{"phase", "status"}
}

// Normalize emits one triple per condition the trial studies.
func (n trialNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.TrialRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a trial record")
	}

	phase := trialPhase(r.Phase)
	minPhase, err := sc.Options.Int("min_phase", 0)
	if err != nil {
		return nil, err
	}
	if phase < minPhase {
		return nil, nil
	}

	statuses, err := sc.Options.StringSet("statuses")
	if err != nil {
		return nil, err
	}
	if statuses != nil && !statuses[r.Status] {
		return nil, nil
	}

	conditions := strings.Split(r.Conditions, "|")
	var rows []annotate.Row
	for _, cond := range conditions {
		cond = strings.TrimSpace(cond)
		if cond == "" {
			continue
		}
		t := sc.triple(
			source.FormatRecordID(rec.ID, cond),
			annotate.TrialPredicate(phase),
			"", cond, r.Molecule,
		)
		rows = append(rows, annotate.Row{Triple: t, Extras: []string{
			strconv.Itoa(phase),
			r.Status,
		}})
	}
	if len(rows) == 0 {
		return nil, sc.malformed(rec.ID, "trial without conditions")
	}
	return rows, nil
}

type literatureNormalizer struct{}

func (literatureNormalizer) Type() annotate.Type { return annotate.TypeLiterature }

func (literatureNormalizer) ExtraColumns() []string {
	return []string{"kind", "article_count", "score"}
}

func (n literatureNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.LiteratureRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a literature record")
	}

	minArticles, err := sc.Options.Int("min_articles", 0)
	if err != nil {
		return nil, err
	}
	if r.ArticleCount < minArticles {
		return nil, nil
	}

	name := r.TermName
	if name == "" {
		name = r.TermID
	}

	t := sc.triple(rec.ID, annotate.PredCoOccursWith, r.TermID, name, r.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{
		r.Kind,
		strconv.Itoa(r.ArticleCount),
		strconv.Itoa(r.Score),
	}}}, nil
}

type acuteEffectNormalizer struct{}

func (acuteEffectNormalizer) Type() annotate.Type { return annotate.TypeAcuteEffects }

func (acuteEffectNormalizer) ExtraColumns() []string {
	return []string{"organism", "test_type", "route", "dose"}
}

func (n acuteEffectNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.AcuteEffectRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not an acute effect record")
	}
	if r.Effect == "" {
		return nil, nil
	}

	// Effects come as "BEHAVIORAL: SOMNOLENCE"; each clause is one triple.
	var rows []annotate.Row
	for _, effect := range strings.Split(r.Effect, ";") {
		effect = strings.TrimSpace(effect)
		if effect == "" {
			continue
		}
		t := sc.triple(
			source.FormatRecordID(rec.ID, effect),
			annotate.PredAcuteEffect,
			"", effect, r.Molecule,
		)
		rows = append(rows, annotate.Row{Triple: t, Extras: []string{
			r.Organism,
			r.TestType,
			r.Route,
			r.Dose,
		}})
	}
	return rows, nil
}

type propertyNormalizer struct{}

func (propertyNormalizer) Type() annotate.Type { return annotate.TypeProperties }

func (propertyNormalizer) ExtraColumns() []string {
	return []string{"value", "unit"}
}

func (n propertyNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.ComputedPropertyRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a property record")
	}
	if r.Name == "" || r.Value == "" {
		return nil, sc.malformed(rec.ID, "property without a name or value")
	}

	t := sc.triple(rec.ID, annotate.PredHasProperty, "", r.Name, r.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{r.Value, r.Unit}}}, nil
}

type classNormalizer struct{}

func (classNormalizer) Type() annotate.Type { return annotate.TypeClasses }

func (classNormalizer) ExtraColumns() []string {
	return []string{"hierarchy", "level"}
}

func (n classNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.ClassRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a class record")
	}
	if r.Name == "" {
		return nil, sc.malformed(rec.ID, "class node without a name")
	}

	t := sc.triple(rec.ID, annotate.PredHasClass, r.NodeID, r.Name, r.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{
		r.Hierarchy,
		strconv.Itoa(r.Level),
	}}}, nil
}
