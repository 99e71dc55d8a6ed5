package source

import (
	"sort"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/fetch"
	"github.com/okarpov/athanor/internal/model"
)

// Registry holds one adapter per annotation type and expands composite
// types into their members.
type Registry struct {
	sources map[annotate.Type]Source
}

// NewRegistry wires every adapter against the shared HTTP client.
func NewRegistry(fc *fetch.Client) *Registry {
	r := &Registry{sources: make(map[annotate.Type]Source)}
	for _, s := range []Source{
		NewChemblActivity(fc),
		NewChemblMechanism(fc),
		NewChemblATC(fc),
		NewChemblIndication(fc),
		NewPubchemDrugbankTargets(fc),
		NewPubchemDrugbankDDI(fc),
		NewPubchemDGIdb(fc),
		NewPubchemCTDGene(fc),
		NewPubchemTrials(fc),
		NewPubchemLiterature(fc),
		NewPubchemAcuteEffects(fc),
		NewPubchemProperties(fc),
		NewPubchemClasses(fc),
		NewG2PInteractions(fc),
		NewHMDBProperties(fc),
		NewHMDBTissues(fc),
	} {
		r.sources[s.Type()] = s
	}
	return r
}

// metaMembers defines what each composite type expands to. meta:targets
// covers the target-interaction families; meta:all covers every concrete
// type.
var metaMembers = map[annotate.Type][]annotate.Type{
	annotate.TypeMetaTargets: {
		annotate.TypeMechanism,
		annotate.TypeDrugbankTargets,
		annotate.TypeDGIdb,
		annotate.TypeCTDGene,
		annotate.TypeG2PInteractions,
	},
	annotate.TypeMetaAll: {
		annotate.TypeActivity,
		annotate.TypeMechanism,
		annotate.TypeATC,
		annotate.TypeIndication,
		annotate.TypeDrugbankTargets,
		annotate.TypeDrugbankDDI,
		annotate.TypeDGIdb,
		annotate.TypeCTDGene,
		annotate.TypeTrials,
		annotate.TypeLiterature,
		annotate.TypeAcuteEffects,
		annotate.TypeProperties,
		annotate.TypeClasses,
		annotate.TypeG2PInteractions,
		annotate.TypeHMDBProperties,
		annotate.TypeHMDBTissues,
	},
}

// Lookup returns the adapter for a concrete annotation type.
func (r *Registry) Lookup(typ annotate.Type) (Source, error) {
	s, ok := r.sources[typ]
	if !ok {
		return nil, model.Configf("unknown annotation type %q", typ)
	}
	return s, nil
}

// Expand resolves a type to the list of concrete types it stands for.
// Concrete types expand to themselves.
func (r *Registry) Expand(typ annotate.Type) ([]annotate.Type, error) {
	if members, ok := metaMembers[typ]; ok {
		return members, nil
	}
	if _, ok := r.sources[typ]; !ok {
		return nil, model.Configf("unknown annotation type %q", typ)
	}
	return []annotate.Type{typ}, nil
}

// Types lists every registered concrete type, sorted.
func (r *Registry) Types() []annotate.Type {
	out := make([]annotate.Type, 0, len(r.sources))
	for t := range r.sources {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
