package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/fetch"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/resolve"
)

const chemblBase = "https://www.ebi.ac.uk/chembl/api/data"

// chemblClient wraps the ChEMBL REST API shared by the four ChEMBL
// adapters: molecule lookup plus paginated endpoint queries.
type chemblClient struct {
	fc    *fetch.Client
	base  string
	retry fetch.RetryPolicy
}

func newChemblClient(fc *fetch.Client) *chemblClient {
	return &chemblClient{
		fc:    fc,
		base:  chemblBase,
		retry: fetch.RetryPolicy{Attempts: 5, BaseDelay: time.Second},
	}
}

type chemblMolecule struct {
	MoleculeChemblID   string `json:"molecule_chembl_id"`
	PrefName           string `json:"pref_name"`
	MoleculeStructures struct {
		StandardInchiKey string `json:"standard_inchi_key"`
	} `json:"molecule_structures"`
	MoleculeHierarchy *struct {
		ParentChemblID string `json:"parent_chembl_id"`
	} `json:"molecule_hierarchy"`
	ATCClassifications []string `json:"atc_classifications"`
}

// molecule resolves a compound to its ChEMBL molecule, following the
// molecule hierarchy to the parent form (salts map to their parent). The
// molecule endpoint accepts both InChIKeys and ChEMBL ids, so a compound
// resolved from a bare CHEMBL id works without a structure lookup.
func (c *chemblClient) molecule(ctx context.Context, source string, compound resolve.Compound) (chemblMolecule, error) {
	key := compound.InChIKey
	if key == "" {
		key = compound.ID
	}
	if key == "" {
		return chemblMolecule{}, fmt.Errorf("compound without an identifier: %w", model.ErrUnknownCompound)
	}

	var mol chemblMolecule
	u := fmt.Sprintf("%s/molecule/%s.json", c.base, url.PathEscape(key))
	if err := c.fc.GetJSON(ctx, source, u, c.retry, &mol); err != nil {
		return chemblMolecule{}, err
	}
	if mol.MoleculeHierarchy != nil && mol.MoleculeHierarchy.ParentChemblID != "" &&
		mol.MoleculeHierarchy.ParentChemblID != mol.MoleculeChemblID {
		u = fmt.Sprintf("%s/molecule/%s.json", c.base, mol.MoleculeHierarchy.ParentChemblID)
		if err := c.fc.GetJSON(ctx, source, u, c.retry, &mol); err != nil {
			return chemblMolecule{}, err
		}
	}
	if mol.MoleculeChemblID == "" {
		return chemblMolecule{}, fmt.Errorf("%s: %w", key, model.ErrNotFound)
	}
	return mol, nil
}

func (mol chemblMolecule) compound() CompoundRecord {
	return CompoundRecord{
		ID:       mol.MoleculeChemblID,
		Name:     mol.PrefName,
		InChIKey: mol.MoleculeStructures.StandardInchiKey,
	}
}

type chemblPageMeta struct {
	Next string `json:"next"`
}

// chemblPageLimit bounds pagination so a pathological compound cannot spin
// the adapter forever.
const chemblPageLimit = 50

// ActivityRecord is one ChEMBL binding activity measurement.
type ActivityRecord struct {
	Molecule            CompoundRecord
	ActivityID          int64  `json:"activity_id"`
	AssayType           string `json:"assay_type"`
	StandardRelation    string `json:"standard_relation"`
	StandardType        string `json:"standard_type"`
	PChemblValue        string `json:"pchembl_value"`
	TargetChemblID      string `json:"target_chembl_id"`
	TargetPrefName      string `json:"target_pref_name"`
	TargetOrganism      string `json:"target_organism"`
	TargetTaxID         string `json:"target_tax_id"`
	SrcID               int    `json:"src_id"`
	DataValidityComment string `json:"data_validity_comment"`
}

// ChemblActivity serves chembl:activity.
type ChemblActivity struct {
	client *chemblClient
}

func NewChemblActivity(fc *fetch.Client) *ChemblActivity {
	return &ChemblActivity{client: newChemblClient(fc)}
}

func (s *ChemblActivity) Name() string                { return "ChEMBL :: activity" }
func (s *ChemblActivity) Type() annotate.Type         { return annotate.TypeActivity }
func (s *ChemblActivity) RecognizedOptions() []string { return []string{"taxa", "min_pchembl"} }
func (s *ChemblActivity) MaxConcurrent() int          { return 4 }

func (s *ChemblActivity) CheckOptions(opts Options) error {
	if err := opts.CheckKeys(s.RecognizedOptions()); err != nil {
		return err
	}
	if _, err := opts.Strings("taxa"); err != nil {
		return err
	}
	_, err := opts.Float("min_pchembl", 0)
	return err
}

func (s *ChemblActivity) Fetch(ctx context.Context, compound resolve.Compound, opts Options) ([]RawRecord, error) {
	mol, err := s.client.molecule(ctx, s.Name(), compound)
	if err != nil {
		return nil, err
	}

	// Server-side filters mirror the assay constraints; taxa and pchembl
	// thresholds are applied during normalization.
	params := url.Values{}
	params.Set("molecule_chembl_id", mol.MoleculeChemblID)
	params.Set("assay_type", "B")
	params.Set("pchembl_value__isnull", "false")
	params.Set("target_organism__isnull", "false")
	params.Set("limit", "100")
	next := fmt.Sprintf("%s/activity.json?%s", s.client.base, params.Encode())

	var records []RawRecord
	for page := 0; next != "" && page < chemblPageLimit; page++ {
		var resp struct {
			PageMeta   chemblPageMeta   `json:"page_meta"`
			Activities []ActivityRecord `json:"activities"`
		}
		if err := s.client.fc.GetJSON(ctx, s.Name(), next, s.client.retry, &resp); err != nil {
			return nil, err
		}
		for _, act := range resp.Activities {
			act.Molecule = mol.compound()
			records = append(records, RawRecord{ID: itoa(act.ActivityID), Payload: act})
		}
		next = ""
		if resp.PageMeta.Next != "" {
			next = "https://www.ebi.ac.uk" + resp.PageMeta.Next
		}
	}
	return records, nil
}

// MechanismRecord is one ChEMBL mechanism of action, with the target
// already dereferenced.
type MechanismRecord struct {
	Molecule          CompoundRecord
	MecID             int64  `json:"mec_id"`
	ActionType        string `json:"action_type"`
	MechanismOfAction string `json:"mechanism_of_action"`
	DirectInteraction bool   `json:"direct_interaction"`
	TargetChemblID    string `json:"target_chembl_id"`
	TargetName        string
	TargetType        string
	TargetOrganism    string
}

// ChemblMechanism serves chembl:mechanism.
type ChemblMechanism struct {
	client *chemblClient
}

func NewChemblMechanism(fc *fetch.Client) *ChemblMechanism {
	return &ChemblMechanism{client: newChemblClient(fc)}
}

func (s *ChemblMechanism) Name() string                { return "ChEMBL :: mechanisms" }
func (s *ChemblMechanism) Type() annotate.Type         { return annotate.TypeMechanism }
func (s *ChemblMechanism) RecognizedOptions() []string { return nil }
func (s *ChemblMechanism) MaxConcurrent() int          { return 4 }

func (s *ChemblMechanism) CheckOptions(opts Options) error {
	return opts.CheckKeys(s.RecognizedOptions())
}

func (s *ChemblMechanism) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	mol, err := s.client.molecule(ctx, s.Name(), compound)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Mechanisms []MechanismRecord `json:"mechanisms"`
	}
	u := fmt.Sprintf("%s/mechanism.json?molecule_chembl_id=%s&limit=100", s.client.base, mol.MoleculeChemblID)
	if err := s.client.fc.GetJSON(ctx, s.Name(), u, s.client.retry, &resp); err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(resp.Mechanisms))
	for _, mec := range resp.Mechanisms {
		mec.Molecule = mol.compound()
		if mec.TargetChemblID != "" {
			target, err := s.target(ctx, mec.TargetChemblID)
			if err != nil {
				return nil, err
			}
			mec.TargetName = target.PrefName
			mec.TargetType = target.TargetType
			mec.TargetOrganism = target.Organism
		}
		records = append(records, RawRecord{ID: itoa(mec.MecID), Payload: mec})
	}
	return records, nil
}

type chemblTarget struct {
	PrefName   string `json:"pref_name"`
	TargetType string `json:"target_type"`
	Organism   string `json:"organism"`
}

func (s *ChemblMechanism) target(ctx context.Context, targetID string) (chemblTarget, error) {
	var target chemblTarget
	u := fmt.Sprintf("%s/target/%s.json", s.client.base, targetID)
	err := s.client.fc.GetJSON(ctx, s.Name(), u, s.client.retry, &target)
	return target, err
}

// ATCRecord is one ATC classification of a compound, with the code's
// per-level descriptions dereferenced from the atc_class endpoint.
type ATCRecord struct {
	Molecule          CompoundRecord
	Code              string `json:"level5"`
	Level1            string `json:"level1"`
	Level2            string `json:"level2"`
	Level3            string `json:"level3"`
	Level4            string `json:"level4"`
	Level1Description string `json:"level1_description"`
	Level2Description string `json:"level2_description"`
	Level3Description string `json:"level3_description"`
	Level4Description string `json:"level4_description"`
	WhoName           string `json:"who_name"`
}

// ChemblATC serves chembl:atc.
type ChemblATC struct {
	client *chemblClient
}

func NewChemblATC(fc *fetch.Client) *ChemblATC {
	return &ChemblATC{client: newChemblClient(fc)}
}

func (s *ChemblATC) Name() string                { return "ChEMBL :: ATCs" }
func (s *ChemblATC) Type() annotate.Type         { return annotate.TypeATC }
func (s *ChemblATC) RecognizedOptions() []string { return []string{"levels"} }
func (s *ChemblATC) MaxConcurrent() int          { return 4 }

func (s *ChemblATC) CheckOptions(opts Options) error {
	if err := opts.CheckKeys(s.RecognizedOptions()); err != nil {
		return err
	}
	levels, err := opts.Ints("levels")
	if err != nil {
		return err
	}
	for _, l := range levels {
		if l < 1 || l > 4 {
			return model.Configf("option \"levels\": want levels in 1..4, got %d", l)
		}
	}
	return nil
}

func (s *ChemblATC) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	mol, err := s.client.molecule(ctx, s.Name(), compound)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(mol.ATCClassifications))
	for _, code := range mol.ATCClassifications {
		var rec ATCRecord
		u := fmt.Sprintf("%s/atc_class/%s.json", s.client.base, url.PathEscape(code))
		if err := s.client.fc.GetJSON(ctx, s.Name(), u, s.client.retry, &rec); err != nil {
			return nil, err
		}
		rec.Molecule = mol.compound()
		if rec.Code == "" {
			rec.Code = code
		}
		records = append(records, RawRecord{ID: rec.Code, Payload: rec})
	}
	return records, nil
}

// IndicationRecord is one ChEMBL drug indication.
type IndicationRecord struct {
	Molecule       CompoundRecord
	DrugIndID      int64  `json:"drugind_id"`
	MaxPhaseForInd int    `json:"max_phase_for_ind"`
	MeshID         string `json:"mesh_id"`
	MeshHeading    string `json:"mesh_heading"`
	EfoID          string `json:"efo_id"`
	EfoTerm        string `json:"efo_term"`
}

// ChemblIndication serves chembl:indication.
type ChemblIndication struct {
	client *chemblClient
}

func NewChemblIndication(fc *fetch.Client) *ChemblIndication {
	return &ChemblIndication{client: newChemblClient(fc)}
}

func (s *ChemblIndication) Name() string                { return "ChEMBL :: indications" }
func (s *ChemblIndication) Type() annotate.Type         { return annotate.TypeIndication }
func (s *ChemblIndication) RecognizedOptions() []string { return []string{"min_phase"} }
func (s *ChemblIndication) MaxConcurrent() int          { return 4 }

func (s *ChemblIndication) CheckOptions(opts Options) error {
	if err := opts.CheckKeys(s.RecognizedOptions()); err != nil {
		return err
	}
	return checkPhase(opts)
}

func (s *ChemblIndication) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	mol, err := s.client.molecule(ctx, s.Name(), compound)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("molecule_chembl_id", mol.MoleculeChemblID)
	params.Set("limit", "100")
	next := fmt.Sprintf("%s/drug_indication.json?%s", s.client.base, params.Encode())

	var records []RawRecord
	for page := 0; next != "" && page < chemblPageLimit; page++ {
		var resp struct {
			PageMeta        chemblPageMeta     `json:"page_meta"`
			DrugIndications []IndicationRecord `json:"drug_indications"`
		}
		if err := s.client.fc.GetJSON(ctx, s.Name(), next, s.client.retry, &resp); err != nil {
			return nil, err
		}
		for _, ind := range resp.DrugIndications {
			ind.Molecule = mol.compound()
			records = append(records, RawRecord{ID: itoa(ind.DrugIndID), Payload: ind})
		}
		next = ""
		if resp.PageMeta.Next != "" {
			next = "https://www.ebi.ac.uk" + resp.PageMeta.Next
		}
	}
	return records, nil
}
