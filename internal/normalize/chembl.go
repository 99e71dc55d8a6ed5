package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/source"
)

// allowedRelations are the standard relations kept for activity records;
// lower bounds (>, >=) say nothing about where activity actually sits.
var allowedRelations = map[string]bool{"=": true, "<": true, "<=": true}

type activityNormalizer struct{}

func (activityNormalizer) Type() annotate.Type { return annotate.TypeActivity }

func (activityNormalizer) ExtraColumns() []string {
	return []string{"standard_type", "standard_relation", "pchembl", "target_organism", "taxon_id"}
}

func (n activityNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	act, ok := rec.Payload.(source.ActivityRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not an activity record")
	}
	if act.AssayType != "B" || !allowedRelations[act.StandardRelation] {
		return nil, nil
	}
	if act.DataValidityComment != "" {
		return nil, nil
	}
	if act.TargetChemblID == "" || act.TargetPrefName == "" {
		return nil, sc.malformed(rec.ID, "activity without a named target")
	}

	pchembl, err := strconv.ParseFloat(act.PChemblValue, 64)
	if err != nil {
		return nil, sc.malformed(rec.ID, fmt.Sprintf("bad pchembl_value %q", act.PChemblValue))
	}
	minPchembl, err := sc.Options.Float("min_pchembl", 0)
	if err != nil {
		return nil, err
	}
	if pchembl < minPchembl {
		return nil, nil
	}

	// Entries match either the NCBI taxon id or the organism name.
	taxa, err := sc.Options.Strings("taxa")
	if err != nil {
		return nil, err
	}
	if len(taxa) > 0 && !taxonMatch(taxa, act.TargetTaxID, act.TargetOrganism) {
		return nil, nil
	}

	t := sc.triple(rec.ID, annotate.PredActivityAt, act.TargetChemblID, act.TargetPrefName, act.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{
		act.StandardType,
		act.StandardRelation,
		act.PChemblValue,
		act.TargetOrganism,
		act.TargetTaxID,
	}}}, nil
}

// mechanismPredicates maps ChEMBL action types to predicates: the action
// type itself, lowercased. Unknown action types fall back to the generic
// interaction predicate rather than inventing a phrase.
var mechanismPredicates = map[string]string{
	"AGONIST":                       "agonist",
	"ANTAGONIST":                    "antagonist",
	"PARTIAL AGONIST":               "partial agonist",
	"INVERSE AGONIST":               "inverse agonist",
	"INHIBITOR":                     "inhibitor",
	"ACTIVATOR":                     "activator",
	"BLOCKER":                       "blocker",
	"OPENER":                        "opener",
	"MODULATOR":                     "modulator",
	"POSITIVE ALLOSTERIC MODULATOR": "positive allosteric modulator",
	"NEGATIVE ALLOSTERIC MODULATOR": "negative allosteric modulator",
	"POSITIVE MODULATOR":            "positive modulator",
	"NEGATIVE MODULATOR":            "negative modulator",
	"SUBSTRATE":                     "substrate",
	"RELEASING AGENT":               "releasing agent",
	"STABILISER":                    "stabiliser",
}

type mechanismNormalizer struct{}

func (mechanismNormalizer) Type() annotate.Type { return annotate.TypeMechanism }

func (mechanismNormalizer) ExtraColumns() []string {
	return []string{"action_type", "target_type", "target_organism", "direct_interaction"}
}

func (n mechanismNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	mec, ok := rec.Payload.(source.MechanismRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a mechanism record")
	}
	if mec.TargetChemblID == "" || mec.TargetName == "" {
		return nil, sc.malformed(rec.ID, "mechanism without a named target")
	}

	predicate, ok := mechanismPredicates[mec.ActionType]
	if !ok {
		predicate = annotate.PredInteractionOther
	}

	t := sc.triple(rec.ID, predicate, mec.TargetChemblID, mec.TargetName, mec.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{
		mec.ActionType,
		mec.TargetType,
		mec.TargetOrganism,
		boolStr(mec.DirectInteraction),
	}}}, nil
}

type atcNormalizer struct{}

func (atcNormalizer) Type() annotate.Type { return annotate.TypeATC }

func (atcNormalizer) ExtraColumns() []string {
	return []string{"atc_code", "who_name"}
}

// Normalize emits one row per requested ATC level. Levels default to all
// four named levels of the code.
func (n atcNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	atc, ok := rec.Payload.(source.ATCRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not an ATC record")
	}

	levels, err := sc.Options.Ints("levels")
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		levels = []int{1, 2, 3, 4}
	}

	codes := [...]string{atc.Level1, atc.Level2, atc.Level3, atc.Level4}
	names := [...]string{atc.Level1Description, atc.Level2Description, atc.Level3Description, atc.Level4Description}

	var rows []annotate.Row
	for _, level := range levels {
		code, name := codes[level-1], names[level-1]
		if code == "" || name == "" {
			continue
		}
		t := sc.triple(
			source.FormatRecordID(atc.Code, "L"+strconv.Itoa(level)),
			annotate.ATCPredicate(level),
			code, name, atc.Molecule,
		)
		rows = append(rows, annotate.Row{Triple: t, Extras: []string{atc.Code, atc.WhoName}})
	}
	return rows, nil
}

type indicationNormalizer struct{}

func (indicationNormalizer) Type() annotate.Type { return annotate.TypeIndication }

func (indicationNormalizer) ExtraColumns() []string {
	return []string{"max_phase", "efo_id", "efo_term"}
}

func (n indicationNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	ind, ok := rec.Payload.(source.IndicationRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not an indication record")
	}

	minPhase, err := sc.Options.Int("min_phase", 0)
	if err != nil {
		return nil, err
	}
	if ind.MaxPhaseForInd < minPhase {
		return nil, nil
	}

	objectID, objectName := ind.MeshID, ind.MeshHeading
	if objectName == "" {
		objectID, objectName = ind.EfoID, ind.EfoTerm
	}
	if objectName == "" {
		return nil, sc.malformed(rec.ID, "indication without a disease name")
	}

	t := sc.triple(rec.ID, annotate.PredHasIndication, objectID, objectName, ind.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{
		strconv.Itoa(ind.MaxPhaseForInd),
		ind.EfoID,
		ind.EfoTerm,
	}}}, nil
}

func taxonMatch(taxa []string, taxID, organism string) bool {
	for _, t := range taxa {
		if t == taxID || strings.EqualFold(t, organism) {
			return true
		}
	}
	return false
}

// normalizeKind lowercases an interaction kind for predicate building.
func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
