package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/fetch"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/resolve"
)

const (
	pubchemPug             = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
	pubchemSDQ             = "https://pubchem.ncbi.nlm.nih.gov/sdq/sdqagent.cgi"
	pubchemLinkDB          = "https://pubchem.ncbi.nlm.nih.gov/link_db/link_db_server.cgi"
	pubchemClassifications = "https://pubchem.ncbi.nlm.nih.gov/classification/cgi/classifications.fcgi"
)

// pubchemClient wraps the PubChem PUG, SDQ, link_db and classification
// endpoints shared by the PubChem-backed adapters.
type pubchemClient struct {
	fc    *fetch.Client
	retry fetch.RetryPolicy
}

func newPubchemClient(fc *fetch.Client) *pubchemClient {
	// PubChem throttles aggressively; back off slowly.
	return &pubchemClient{
		fc:    fc,
		retry: fetch.RetryPolicy{Attempts: 6, BaseDelay: 2 * time.Second},
	}
}

// compound resolves an InChIKey to its PubChem CID and title. PubChem has
// no lookup path for foreign database ids, so those need a resolver file.
func (c *pubchemClient) compound(ctx context.Context, source, inchikey string) (int64, CompoundRecord, error) {
	if inchikey == "" {
		return 0, CompoundRecord{}, fmt.Errorf("PubChem lookup needs an InChIKey: %w", model.ErrUnknownCompound)
	}
	var cids struct {
		IdentifierList struct {
			CID []int64 `json:"CID"`
		} `json:"IdentifierList"`
	}
	u := fmt.Sprintf("%s/compound/inchikey/%s/cids/JSON", pubchemPug, url.PathEscape(inchikey))
	if err := c.fc.GetJSON(ctx, source, u, c.retry, &cids); err != nil {
		return 0, CompoundRecord{}, err
	}
	if len(cids.IdentifierList.CID) == 0 {
		return 0, CompoundRecord{}, fmt.Errorf("%s: %w", inchikey, model.ErrNotFound)
	}
	cid := cids.IdentifierList.CID[0]

	var props struct {
		PropertyTable struct {
			Properties []struct {
				Title string `json:"Title"`
			} `json:"Properties"`
		} `json:"PropertyTable"`
	}
	u = fmt.Sprintf("%s/compound/cid/%d/property/Title/JSON", pubchemPug, cid)
	if err := c.fc.GetJSON(ctx, source, u, c.retry, &props); err != nil {
		return 0, CompoundRecord{}, err
	}

	rec := CompoundRecord{ID: itoa(cid)}
	if len(props.PropertyTable.Properties) > 0 {
		rec.Name = props.PropertyTable.Properties[0].Title
	}
	return cid, rec, nil
}

// sdqRows queries one SDQ collection for all rows attached to a CID.
func (c *pubchemClient) sdqRows(ctx context.Context, source, collection string, cid int64) ([]json.RawMessage, error) {
	query := fmt.Sprintf(
		`{"select":"*","collection":%q,"where":{"ands":[{"cid":%q}]},"start":1,"limit":10000}`,
		collection, strconv.FormatInt(cid, 10),
	)
	u := fmt.Sprintf("%s?infmt=json&outfmt=json&query=%s", pubchemSDQ, url.QueryEscape(query))

	var resp struct {
		SDQOutputSet []struct {
			Rows []json.RawMessage `json:"rows"`
		} `json:"SDQOutputSet"`
	}
	if err := c.fc.GetJSON(ctx, source, u, c.retry, &resp); err != nil {
		return nil, err
	}
	if len(resp.SDQOutputSet) == 0 {
		return nil, nil
	}
	return resp.SDQOutputSet[0].Rows, nil
}

// DrugbankTargetRecord is one DrugBank target interaction as republished
// by PubChem's drugbank collection.
type DrugbankTargetRecord struct {
	Molecule         CompoundRecord
	DBID             string `json:"dbid"`
	Action           string `json:"action"`
	GeneSymbol       string `json:"genesymbol"`
	ProteinID        string `json:"protid"`
	TargetName       string `json:"targetname"`
	GeneralFunction  string `json:"generalfunc"`
	SpecificFunction string `json:"specificfunc"`
}

// PubchemDrugbankTargets serves pubchem:drugbank-targets.
type PubchemDrugbankTargets struct {
	client *pubchemClient
}

func NewPubchemDrugbankTargets(fc *fetch.Client) *PubchemDrugbankTargets {
	return &PubchemDrugbankTargets{client: newPubchemClient(fc)}
}

func (s *PubchemDrugbankTargets) Name() string                { return "DrugBank :: target interactions" }
func (s *PubchemDrugbankTargets) Type() annotate.Type         { return annotate.TypeDrugbankTargets }
func (s *PubchemDrugbankTargets) RecognizedOptions() []string { return nil }
func (s *PubchemDrugbankTargets) MaxConcurrent() int          { return 2 }

func (s *PubchemDrugbankTargets) CheckOptions(opts Options) error {
	return opts.CheckKeys(s.RecognizedOptions())
}

func (s *PubchemDrugbankTargets) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	cid, rec, err := s.client.compound(ctx, s.Name(), compound.InChIKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.client.sdqRows(ctx, s.Name(), "drugbank", cid)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(rows))
	for i, row := range rows {
		var r DrugbankTargetRecord
		if err := json.Unmarshal(row, &r); err != nil {
			continue
		}
		r.Molecule = rec
		id := r.DBID
		if id == "" {
			id = FormatRecordID(rec.ID, "drugbank", strconv.Itoa(i))
		}
		records = append(records, RawRecord{ID: id, Payload: r})
	}
	return records, nil
}

// DrugbankDDIRecord is one DrugBank drug-drug interaction.
type DrugbankDDIRecord struct {
	Molecule    CompoundRecord
	DBID        string `json:"dbid2"`
	DrugName    string `json:"name"`
	Description string `json:"descr"`
}

// PubchemDrugbankDDI serves pubchem:drugbank-ddi.
type PubchemDrugbankDDI struct {
	client *pubchemClient
}

func NewPubchemDrugbankDDI(fc *fetch.Client) *PubchemDrugbankDDI {
	return &PubchemDrugbankDDI{client: newPubchemClient(fc)}
}

func (s *PubchemDrugbankDDI) Name() string                { return "DrugBank :: drug/drug interactions" }
func (s *PubchemDrugbankDDI) Type() annotate.Type         { return annotate.TypeDrugbankDDI }
func (s *PubchemDrugbankDDI) RecognizedOptions() []string { return nil }
func (s *PubchemDrugbankDDI) MaxConcurrent() int          { return 2 }

func (s *PubchemDrugbankDDI) CheckOptions(opts Options) error {
	return opts.CheckKeys(s.RecognizedOptions())
}

func (s *PubchemDrugbankDDI) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	cid, rec, err := s.client.compound(ctx, s.Name(), compound.InChIKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.client.sdqRows(ctx, s.Name(), "drugbankddi", cid)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(rows))
	for i, row := range rows {
		var r DrugbankDDIRecord
		if err := json.Unmarshal(row, &r); err != nil {
			continue
		}
		r.Molecule = rec
		id := r.DBID
		if id == "" {
			id = FormatRecordID(rec.ID, "ddi", strconv.Itoa(i))
		}
		records = append(records, RawRecord{ID: id, Payload: r})
	}
	return records, nil
}

// DGIdbRecord is one DGIdb drug/gene interaction.
type DGIdbRecord struct {
	Molecule     CompoundRecord
	GeneClaimID  string `json:"gid"`
	GeneName     string `json:"genename"`
	Interactions string `json:"interactions"` // comma-separated kinds
	ClaimSource  string `json:"sources"`
}

// PubchemDGIdb serves pubchem:dgidb.
type PubchemDGIdb struct {
	client *pubchemClient
}

func NewPubchemDGIdb(fc *fetch.Client) *PubchemDGIdb {
	return &PubchemDGIdb{client: newPubchemClient(fc)}
}

func (s *PubchemDGIdb) Name() string                { return "DGIdb :: drug/gene interactions" }
func (s *PubchemDGIdb) Type() annotate.Type         { return annotate.TypeDGIdb }
func (s *PubchemDGIdb) RecognizedOptions() []string { return nil }
func (s *PubchemDGIdb) MaxConcurrent() int          { return 2 }

func (s *PubchemDGIdb) CheckOptions(opts Options) error {
	return opts.CheckKeys(s.RecognizedOptions())
}

func (s *PubchemDGIdb) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	cid, rec, err := s.client.compound(ctx, s.Name(), compound.InChIKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.client.sdqRows(ctx, s.Name(), "dgidb", cid)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(rows))
	for i, row := range rows {
		var r DGIdbRecord
		if err := json.Unmarshal(row, &r); err != nil {
			continue
		}
		r.Molecule = rec
		id := r.GeneClaimID
		if id == "" {
			id = FormatRecordID(rec.ID, "dgidb", strconv.Itoa(i))
		}
		records = append(records, RawRecord{ID: id, Payload: r})
	}
	return records, nil
}

// CTDGeneRecord is one CTD chemical/gene interaction.
type CTDGeneRecord struct {
	Molecule    CompoundRecord
	GeneSymbol  string `json:"genesymbol"`
	Interaction string `json:"interaction"`
	TaxonName   string `json:"taxname"`
	TaxonID     int64  `json:"taxid"`
}

// PubchemCTDGene serves pubchem:ctd-gene.
type PubchemCTDGene struct {
	client *pubchemClient
}

func NewPubchemCTDGene(fc *fetch.Client) *PubchemCTDGene {
	return &PubchemCTDGene{client: newPubchemClient(fc)}
}

func (s *PubchemCTDGene) Name() string                { return "CTD :: chemical/gene interactions" }
func (s *PubchemCTDGene) Type() annotate.Type         { return annotate.TypeCTDGene }
func (s *PubchemCTDGene) RecognizedOptions() []string { return []string{"taxa"} }
func (s *PubchemCTDGene) MaxConcurrent() int          { return 2 }

func (s *PubchemCTDGene) CheckOptions(opts Options) error {
	if err := opts.CheckKeys(s.RecognizedOptions()); err != nil {
		return err
	}
	_, err := opts.Strings("taxa")
	return err
}

func (s *PubchemCTDGene) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	cid, rec, err := s.client.compound(ctx, s.Name(), compound.InChIKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.client.sdqRows(ctx, s.Name(), "ctdchemicalgene", cid)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(rows))
	for i, row := range rows {
		var r CTDGeneRecord
		if err := json.Unmarshal(row, &r); err != nil {
			continue
		}
		r.Molecule = rec
		records = append(records, RawRecord{
			ID:      FormatRecordID(rec.ID, "ctd", strconv.Itoa(i)),
			Payload: r,
		})
	}
	return records, nil
}

// TrialRecord is one ClinicalTrials.gov record linked to a compound.
type TrialRecord struct {
	Molecule   CompoundRecord
	CTID       string `json:"ctid"`
	Title      string `json:"title"`
	Conditions string `json:"conditions"` // pipe-separated
	Phase      string `json:"phase"`
	Status     string `json:"status"`
}

// PubchemTrials serves pubchem:trials.
type PubchemTrials struct {
	client *pubchemClient
}

func NewPubchemTrials(fc *fetch.Client) *PubchemTrials {
	return &PubchemTrials{client: newPubchemClient(fc)}
}

func (s *PubchemTrials) Name() string                { return "ClinicalTrials.gov :: trials" }
func (s *PubchemTrials) Type() annotate.Type         { return annotate.TypeTrials }
func (s *PubchemTrials) RecognizedOptions() []string { return []string{"min_phase", "statuses"} }
func (s *PubchemTrials) MaxConcurrent() int          { return 2 }

func (s *PubchemTrials) CheckOptions(opts Options) error {
	if err := opts.CheckKeys(s.RecognizedOptions()); err != nil {
		return err
	}
	if err := checkPhase(opts); err != nil {
		return err
	}
	_, err := opts.Strings("statuses")
	return err
}

func (s *PubchemTrials) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	cid, rec, err := s.client.compound(ctx, s.Name(), compound.InChIKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.client.sdqRows(ctx, s.Name(), "clinicaltrials", cid)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(rows))
	for i, row := range rows {
		var r TrialRecord
		if err := json.Unmarshal(row, &r); err != nil {
			continue
		}
		r.Molecule = rec
		id := r.CTID
		if id == "" {
			id = FormatRecordID(rec.ID, "trial", strconv.Itoa(i))
		}
		records = append(records, RawRecord{ID: id, Payload: r})
	}
	return records, nil
}

// LiteratureRecord is one literature co-occurrence neighbor. TermID is
// empty for free-text terms; only TermName is guaranteed.
type LiteratureRecord struct {
	Molecule     CompoundRecord
	Kind         string // chemical, gene, or disease
	TermID       string
	TermName     string
	ArticleCount int
	Score        int
}

var literatureLinksets = map[string]string{
	"chemical": "ChemicalNeighbor",
	"gene":     "ChemicalGeneSymbolNeighbor",
	"disease":  "ChemicalDiseaseNeighbor",
}

// PubchemLiterature serves pubchem:literature from the link_db
// co-occurrence linksets.
type PubchemLiterature struct {
	client *pubchemClient
}

func NewPubchemLiterature(fc *fetch.Client) *PubchemLiterature {
	return &PubchemLiterature{client: newPubchemClient(fc)}
}

func (s *PubchemLiterature) Name() string                { return "PubChem :: literature co-occurrences" }
func (s *PubchemLiterature) Type() annotate.Type         { return annotate.TypeLiterature }
func (s *PubchemLiterature) RecognizedOptions() []string { return []string{"kinds", "min_articles"} }
func (s *PubchemLiterature) MaxConcurrent() int          { return 2 }

func (s *PubchemLiterature) CheckOptions(opts Options) error {
	if err := opts.CheckKeys(s.RecognizedOptions()); err != nil {
		return err
	}
	kinds, err := opts.Strings("kinds")
	if err != nil {
		return err
	}
	for _, k := range kinds {
		if _, ok := literatureLinksets[k]; !ok {
			return model.Configf("option \"kinds\": unknown kind %q (want chemical, gene, disease)", k)
		}
	}
	if _, err := opts.Int("min_articles", 0); err != nil {
		return err
	}
	return nil
}

func (s *PubchemLiterature) Fetch(ctx context.Context, compound resolve.Compound, opts Options) ([]RawRecord, error) {
	cid, rec, err := s.client.compound(ctx, s.Name(), compound.InChIKey)
	if err != nil {
		return nil, err
	}

	kinds, err := opts.Strings("kinds")
	if err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		kinds = []string{"chemical", "gene", "disease"}
	}

	var records []RawRecord
	for _, kind := range kinds {
		linkset := literatureLinksets[kind]
		u := fmt.Sprintf("%s?format=JSON&type=%s&operation=GetAllLinks&id_1=%d", pubchemLinkDB, linkset, cid)

		var resp struct {
			LinkDataSet struct {
				LinkData []struct {
					ID2      map[string]string `json:"ID_2"`
					Evidence map[string]struct {
						ArticleCount      int `json:"ArticleCount"`
						CooccurrenceScore int `json:"CooccurrenceScore"`
					} `json:"Evidence"`
				} `json:"LinkData"`
			} `json:"LinkDataSet"`
		}
		if err := s.client.fc.GetJSON(ctx, s.Name(), u, s.client.retry, &resp); err != nil {
			return nil, err
		}

		for i, link := range resp.LinkDataSet.LinkData {
			r := LiteratureRecord{Molecule: rec, Kind: kind}
			// ID_2 carries one identifying entry; MeSH ids come with a
			// name, plain terms come alone.
			if mesh, ok := link.ID2["MeSH"]; ok {
				r.TermID = mesh
			}
			for k, v := range link.ID2 {
				if k != "MeSH" && r.TermName == "" {
					r.TermName = v
				}
			}
			if ev, ok := link.Evidence[linkset]; ok {
				r.ArticleCount = ev.ArticleCount
				r.Score = ev.CooccurrenceScore
			}
			if r.TermName == "" && r.TermID == "" {
				continue
			}
			records = append(records, RawRecord{
				ID:      FormatRecordID(rec.ID, "lit", kind, strconv.Itoa(i)),
				Payload: r,
			})
		}
	}
	return records, nil
}

// AcuteEffectRecord is one ChemIDplus acute toxicity record.
type AcuteEffectRecord struct {
	Molecule CompoundRecord
	Effect   string `json:"effect"`
	Organism string `json:"organism"`
	TestType string `json:"testtype"`
	Route    string `json:"route"`
	Dose     string `json:"dose"`
}

// PubchemAcuteEffects serves pubchem:acute-effects.
type PubchemAcuteEffects struct {
	client *pubchemClient
}

func NewPubchemAcuteEffects(fc *fetch.Client) *PubchemAcuteEffects {
	return &PubchemAcuteEffects{client: newPubchemClient(fc)}
}

func (s *PubchemAcuteEffects) Name() string                { return "ChemIDplus :: acute effects" }
func (s *PubchemAcuteEffects) Type() annotate.Type         { return annotate.TypeAcuteEffects }
func (s *PubchemAcuteEffects) RecognizedOptions() []string { return nil }
func (s *PubchemAcuteEffects) MaxConcurrent() int          { return 2 }

func (s *PubchemAcuteEffects) CheckOptions(opts Options) error {
	return opts.CheckKeys(s.RecognizedOptions())
}

func (s *PubchemAcuteEffects) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	cid, rec, err := s.client.compound(ctx, s.Name(), compound.InChIKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.client.sdqRows(ctx, s.Name(), "chemidplus", cid)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(rows))
	for i, row := range rows {
		var r AcuteEffectRecord
		if err := json.Unmarshal(row, &r); err != nil {
			continue
		}
		r.Molecule = rec
		records = append(records, RawRecord{
			ID:      FormatRecordID(rec.ID, "acute", strconv.Itoa(i)),
			Payload: r,
		})
	}
	return records, nil
}

// ComputedPropertyRecord is one computed physical property.
type ComputedPropertyRecord struct {
	Molecule CompoundRecord
	Name     string
	Value    string
	Unit     string
}

// pubchemProperties is the fixed set of computed properties fetched per
// compound, with their display names and units.
var pubchemProperties = []struct {
	field string
	name  string
	unit  string
}{
	{"MolecularWeight", "molecular weight", "g/mol"},
	{"XLogP", "XLogP", ""},
	{"TPSA", "topological polar surface area", "Å²"},
	{"HBondDonorCount", "hydrogen bond donor count", ""},
	{"HBondAcceptorCount", "hydrogen bond acceptor count", ""},
	{"RotatableBondCount", "rotatable bond count", ""},
	{"Complexity", "complexity", ""},
}

// PubchemProperties serves pubchem:properties.
type PubchemProperties struct {
	client *pubchemClient
}

func NewPubchemProperties(fc *fetch.Client) *PubchemProperties {
	return &PubchemProperties{client: newPubchemClient(fc)}
}

func (s *PubchemProperties) Name() string                { return "PubChem :: computed properties" }
func (s *PubchemProperties) Type() annotate.Type         { return annotate.TypeProperties }
func (s *PubchemProperties) RecognizedOptions() []string { return nil }
func (s *PubchemProperties) MaxConcurrent() int          { return 2 }

func (s *PubchemProperties) CheckOptions(opts Options) error {
	return opts.CheckKeys(s.RecognizedOptions())
}

func (s *PubchemProperties) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	cid, rec, err := s.client.compound(ctx, s.Name(), compound.InChIKey)
	if err != nil {
		return nil, err
	}

	fields := ""
	for i, p := range pubchemProperties {
		if i > 0 {
			fields += ","
		}
		fields += p.field
	}
	u := fmt.Sprintf("%s/compound/cid/%d/property/%s/JSON", pubchemPug, cid, fields)

	var resp struct {
		PropertyTable struct {
			Properties []map[string]any `json:"Properties"`
		} `json:"PropertyTable"`
	}
	if err := s.client.fc.GetJSON(ctx, s.Name(), u, s.client.retry, &resp); err != nil {
		return nil, err
	}
	if len(resp.PropertyTable.Properties) == 0 {
		return nil, nil
	}
	values := resp.PropertyTable.Properties[0]

	var records []RawRecord
	for _, p := range pubchemProperties {
		v, ok := values[p.field]
		if !ok {
			continue
		}
		records = append(records, RawRecord{
			ID: FormatRecordID(rec.ID, "prop", p.field),
			Payload: ComputedPropertyRecord{
				Molecule: rec,
				Name:     p.name,
				Value:    fmt.Sprintf("%v", v),
				Unit:     p.unit,
			},
		})
	}
	return records, nil
}

// ClassRecord is one node of a chemical classification hierarchy.
type ClassRecord struct {
	Molecule  CompoundRecord
	Hierarchy string
	NodeID    string
	Name      string
	Level     int
}

// classificationHierarchies maps hierarchy names to PubChem hierarchy ids.
var classificationHierarchies = map[string]int{
	"MeSH Tree":      1,
	"ChEBI Ontology": 2,
}

// PubchemClasses serves pubchem:classes from the classification endpoint.
type PubchemClasses struct {
	client *pubchemClient
}

func NewPubchemClasses(fc *fetch.Client) *PubchemClasses {
	return &PubchemClasses{client: newPubchemClient(fc)}
}

func (s *PubchemClasses) Name() string                { return "PubChem :: chemical classes" }
func (s *PubchemClasses) Type() annotate.Type         { return annotate.TypeClasses }
func (s *PubchemClasses) RecognizedOptions() []string { return []string{"hierarchies"} }
func (s *PubchemClasses) MaxConcurrent() int          { return 2 }

func (s *PubchemClasses) CheckOptions(opts Options) error {
	if err := opts.CheckKeys(s.RecognizedOptions()); err != nil {
		return err
	}
	names, err := opts.Strings("hierarchies")
	if err != nil {
		return err
	}
	for _, n := range names {
		if _, ok := classificationHierarchies[n]; !ok {
			return model.Configf("option \"hierarchies\": unknown hierarchy %q", n)
		}
	}
	return nil
}

func (s *PubchemClasses) Fetch(ctx context.Context, compound resolve.Compound, opts Options) ([]RawRecord, error) {
	cid, rec, err := s.client.compound(ctx, s.Name(), compound.InChIKey)
	if err != nil {
		return nil, err
	}

	names, err := opts.Strings("hierarchies")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = []string{"MeSH Tree", "ChEBI Ontology"}
	}

	var records []RawRecord
	for _, name := range names {
		hid := classificationHierarchies[name]
		u := fmt.Sprintf(
			"%s?format=json&hid=%d&search_uid_type=cid&search_uid=%d&search_type=list&response_type=display",
			pubchemClassifications, hid, cid,
		)

		var resp struct {
			Hierarchies struct {
				Hierarchy []struct {
					SourceName string `json:"SourceName"`
					Node       []struct {
						NodeID      string `json:"NodeID"`
						Information struct {
							Name string `json:"Name"`
						} `json:"Information"`
					} `json:"Node"`
				} `json:"Hierarchy"`
			} `json:"Hierarchies"`
		}
		if err := s.client.fc.GetJSON(ctx, s.Name(), u, s.client.retry, &resp); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			return nil, err
		}

		for _, h := range resp.Hierarchies.Hierarchy {
			for level, node := range h.Node {
				if node.Information.Name == "" {
					continue
				}
				records = append(records, RawRecord{
					ID: FormatRecordID(rec.ID, "class", strconv.Itoa(hid), node.NodeID),
					Payload: ClassRecord{
						Molecule:  rec,
						Hierarchy: name,
						NodeID:    node.NodeID,
						Name:      node.Information.Name,
						Level:     level + 1,
					},
				})
			}
		}
	}
	return records, nil
}
