package annotate

import "fmt"

// Type names an annotation category, e.g. "chembl:mechanism".
// Each type has its own predicate vocabulary and extra-column schema.
type Type string

const (
	TypeActivity        Type = "chembl:activity"
	TypeMechanism       Type = "chembl:mechanism"
	TypeATC             Type = "chembl:atc"
	TypeIndication      Type = "chembl:indication"
	TypeDrugbankTargets Type = "pubchem:drugbank-targets"
	TypeDrugbankDDI     Type = "pubchem:drugbank-ddi"
	TypeDGIdb           Type = "pubchem:dgidb"
	TypeCTDGene         Type = "pubchem:ctd-gene"
	TypeTrials          Type = "pubchem:trials"
	TypeLiterature      Type = "pubchem:literature"
	TypeAcuteEffects    Type = "pubchem:acute-effects"
	TypeProperties      Type = "pubchem:properties"
	TypeClasses         Type = "pubchem:classes"
	TypeG2PInteractions Type = "g2p:interactions"
	TypeHMDBProperties  Type = "hmdb:properties"
	TypeHMDBTissues     Type = "hmdb:tissues"

	// Composite types fan out to several concrete types.
	TypeMetaTargets Type = "meta:targets"
	TypeMetaAll     Type = "meta:all"
)

// IsMeta reports whether the type is a composite that expands to other types.
func (t Type) IsMeta() bool {
	return t == TypeMetaTargets || t == TypeMetaAll
}

// SharedColumns is the fixed 10-column prefix shared by every result table.
// Type-specific columns are appended after it, never interleaved.
var SharedColumns = []string{
	"record_id",
	"inchikey",
	"compound_id",
	"compound_name",
	"predicate",
	"object_id",
	"object_name",
	"search_key",
	"search_class",
	"data_source",
}

// Triple is a single subject-predicate-object statement about a compound.
// Triples are immutable once constructed: normalizers build them, tables
// only deduplicate them.
type Triple struct {
	RecordID     string `json:"record_id"`
	InChIKey     string `json:"inchikey"`
	CompoundID   string `json:"compound_id"`
	CompoundName string `json:"compound_name"`
	Predicate    string `json:"predicate"`
	ObjectID     string `json:"object_id,omitempty"`
	ObjectName   string `json:"object_name"`
	SearchKey    string `json:"search_key"`
	SearchClass  string `json:"search_class"`
	DataSource   string `json:"data_source"`
}

// Validate checks the shared-schema invariant: all shared fields present,
// except ObjectID which may be empty as long as ObjectName is not.
func (t Triple) Validate() error {
	switch {
	case t.RecordID == "":
		return fmt.Errorf("triple missing record_id")
	case t.InChIKey == "":
		return fmt.Errorf("triple missing inchikey")
	case t.CompoundID == "":
		return fmt.Errorf("triple missing compound_id")
	case t.Predicate == "":
		return fmt.Errorf("triple missing predicate")
	case t.ObjectName == "":
		return fmt.Errorf("triple missing object_name")
	case t.SearchKey == "":
		return fmt.Errorf("triple missing search_key")
	case t.SearchClass == "":
		return fmt.Errorf("triple missing search_class")
	case t.DataSource == "":
		return fmt.Errorf("triple missing data_source")
	}
	return nil
}

// shared returns the triple's values in SharedColumns order.
func (t Triple) shared() []string {
	return []string{
		t.RecordID,
		t.InChIKey,
		t.CompoundID,
		t.CompoundName,
		t.Predicate,
		t.ObjectID,
		t.ObjectName,
		t.SearchKey,
		t.SearchClass,
		t.DataSource,
	}
}

// Row is a triple plus its type-specific extra values, aligned with the
// owning table's extra columns.
type Row struct {
	Triple
	Extras []string
}
