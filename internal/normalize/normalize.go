// Package normalize turns raw source records into semantic triples. One
// normalizer per annotation type; each owns its extra-column schema and its
// predicate mapping, both closed sets.
package normalize

import (
	"strconv"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/resolve"
	"github.com/okarpov/athanor/internal/source"
)

// Context carries the search provenance and the resolved compound into
// normalization. Every triple built from it inherits the same search_key,
// search_class and data_source.
type Context struct {
	Key      string
	Class    string
	Type     annotate.Type
	Source   string
	Compound resolve.Compound
	Options  source.Options
}

// triple builds the shared part of a row. compound_id and compound_name
// come from the source's own record of the compound, falling back to the
// resolver's identity when the source carries none. The inchikey runs the
// other way: the resolver's key wins, and the source's key covers
// compounds that were resolved from a bare database id.
func (sc Context) triple(recordID, predicate, objectID, objectName string, mol source.CompoundRecord) annotate.Triple {
	id, name := mol.ID, mol.Name
	if id == "" {
		id = sc.Compound.ID
	}
	if name == "" {
		name = sc.Compound.Name
	}
	inchikey := sc.Compound.InChIKey
	if inchikey == "" {
		inchikey = mol.InChIKey
	}
	return annotate.Triple{
		RecordID:     recordID,
		InChIKey:     inchikey,
		CompoundID:   id,
		CompoundName: name,
		Predicate:    predicate,
		ObjectID:     objectID,
		ObjectName:   objectName,
		SearchKey:    sc.Key,
		SearchClass:  sc.Class,
		DataSource:   sc.Source,
	}
}

// malformed wraps a payload problem in the standard record error.
func (sc Context) malformed(recordID, reason string) error {
	return &model.MalformedRecordError{Source: sc.Source, RecordID: recordID, Reason: reason}
}

// Normalizer converts one raw record into zero or more rows. A record may
// legitimately normalize to nothing when an option filters it out.
type Normalizer interface {
	Type() annotate.Type
	ExtraColumns() []string
	Normalize(rec source.RawRecord, sc Context) ([]annotate.Row, error)
}

var normalizers = map[annotate.Type]Normalizer{}

func register(n Normalizer) { normalizers[n.Type()] = n }

func init() {
	register(activityNormalizer{})
	register(mechanismNormalizer{})
	register(atcNormalizer{})
	register(indicationNormalizer{})
	register(drugbankTargetNormalizer{})
	register(drugbankDDINormalizer{})
	register(dgidbNormalizer{})
	register(ctdGeneNormalizer{})
	register(trialNormalizer{})
	register(literatureNormalizer{})
	register(acuteEffectNormalizer{})
	register(propertyNormalizer{})
	register(classNormalizer{})
	register(g2pNormalizer{})
	register(hmdbPropertyNormalizer{})
	register(hmdbTissueNormalizer{})
}

// For returns the normalizer for a concrete annotation type.
func For(typ annotate.Type) (Normalizer, error) {
	n, ok := normalizers[typ]
	if !ok {
		return nil, model.Configf("no normalizer for annotation type %q", typ)
	}
	return n, nil
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
