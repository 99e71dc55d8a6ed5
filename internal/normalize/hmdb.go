package normalize

import (
	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/source"
)

type hmdbPropertyNormalizer struct{}

func (hmdbPropertyNormalizer) Type() annotate.Type { return annotate.TypeHMDBProperties }

func (hmdbPropertyNormalizer) ExtraColumns() []string {
	return []string{"value", "experimental"}
}

func (n hmdbPropertyNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.HMDBPropertyRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not an HMDB property record")
	}

	experimentalOnly, err := sc.Options.Bool("experimental_only", false)
	if err != nil {
		return nil, err
	}
	if experimentalOnly && !r.Experimental {
		return nil, nil
	}

	t := sc.triple(rec.ID, annotate.PredHasProperty, "", r.Kind, r.Molecule)
	return []annotate.Row{{Triple: t, Extras: []string{
		r.Value,
		boolStr(r.Experimental),
	}}}, nil
}

type hmdbTissueNormalizer struct{}

func (hmdbTissueNormalizer) Type() annotate.Type { return annotate.TypeHMDBTissues }

func (hmdbTissueNormalizer) ExtraColumns() []string { return nil }

func (n hmdbTissueNormalizer) Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error) {
	r, ok := rec.Payload.(source.HMDBTissueRecord)
	if !ok {
		return nil, sc.malformed(rec.ID, "not an HMDB tissue record")
	}
	if r.Tissue == "" {
		return nil, sc.malformed(rec.ID, "tissue record without a tissue name")
	}

	t := sc.triple(rec.ID, annotate.PredFoundInTissue, "", r.Tissue, r.Molecule)
	return []annotate.Row{{Triple: t, Extras: nil}}, nil
}
