package normalize

import (
	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/source"
)

type g2pNormalizer struct{}

func (g2pNormalizer) Type() annotate.Type { return annotate.TypeG2PInteractions }

func (g2pNormalizer) ExtraColumns() []string {
	return []string{"species", "affinity", "affinity_type", "primary_target", "endogenous"}
}

func (n g2pNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.G2PInteractionRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not a Guide to Pharmacology record")
	}
	if r.TargetName == "" {
		return nil, sc.malformed(rec.ID, "interaction without a target name")
	}

	species, err := sc.Options.StringSet("species")
	if err != nil {
		return nil, err
	}
	if species != nil && !species[r.TargetSpecies] {
		return nil, nil
	}

	primaryOnly, err := sc.Options.Bool("primary_only", false)
	if err != nil {
		return nil, err
	}
	if primaryOnly && !r.PrimaryTarget {
		return nil, nil
	}

	kind := r.Kind
	if kind == "" {
		kind = r.Action
	}

	targetID := ""
	if r.TargetID != 0 {
		targetID = itoa(r.TargetID)
	}

	t := sc.triple(rec.ID,
		annotate.InteractionPredicate(normalizeKind(kind)),
		targetID, r.TargetName, r.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{
		r.TargetSpecies,
		r.Affinity,
		r.AffinityType,
		boolStr(r.PrimaryTarget),
		boolStr(r.Endogenous),
	}}}, nil
}
