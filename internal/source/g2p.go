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

const g2pBase = "https://www.guidetopharmacology.org/services"

// G2PInteractionRecord is one ligand/target interaction from the IUPHAR/BPS
// Guide to Pharmacology.
type G2PInteractionRecord struct {
	Molecule      CompoundRecord
	InteractionID int64   `json:"interactionId"`
	TargetID      int64   `json:"targetId"`
	TargetName    string  `json:"target"`
	TargetSpecies string  `json:"targetSpecies"`
	Kind          string  `json:"type"`
	Action        string  `json:"action"`
	Affinity      string  `json:"affinity"`
	AffinityType  string  `json:"affinityType"`
	PrimaryTarget bool    `json:"primaryTarget"`
	Endogenous    bool    `json:"endogenous"`
	Concentration float64 `json:"concentration"`
}

// G2PInteractions serves g2p:interactions.
type G2PInteractions struct {
	fc    *fetch.Client
	retry fetch.RetryPolicy
}

func NewG2PInteractions(fc *fetch.Client) *G2PInteractions {
	return &G2PInteractions{
		fc:    fc,
		retry: fetch.RetryPolicy{Attempts: 4, BaseDelay: time.Second},
	}
}

func (s *G2PInteractions) Name() string        { return "Guide to Pharmacology :: interactions" }
func (s *G2PInteractions) Type() annotate.Type { return annotate.TypeG2PInteractions }
func (s *G2PInteractions) MaxConcurrent() int  { return 3 }

func (s *G2PInteractions) RecognizedOptions() []string {
	return []string{"species", "primary_only"}
}

func (s *G2PInteractions) CheckOptions(opts Options) error {
	if err := opts.CheckKeys(s.RecognizedOptions()); err != nil {
		return err
	}
	if _, err := opts.Strings("species"); err != nil {
		return err
	}
	_, err := opts.Bool("primary_only", false)
	return err
}

func (s *G2PInteractions) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	if compound.InChIKey == "" {
		return nil, fmt.Errorf("ligand lookup needs an InChIKey: %w", model.ErrUnknownCompound)
	}
	var ligands []struct {
		LigandID int64  `json:"ligandId"`
		Name     string `json:"name"`
	}
	u := fmt.Sprintf("%s/ligands?inchikey=%s", g2pBase, url.QueryEscape(compound.InChIKey))
	if err := s.fc.GetJSON(ctx, s.Name(), u, s.retry, &ligands); err != nil {
		return nil, err
	}
	if len(ligands) == 0 {
		return nil, fmt.Errorf("%s: %w", compound.InChIKey, model.ErrNotFound)
	}
	ligand := ligands[0]
	rec := CompoundRecord{ID: itoa(ligand.LigandID), Name: ligand.Name}

	var interactions []G2PInteractionRecord
	u = fmt.Sprintf("%s/ligands/%d/interactions", g2pBase, ligand.LigandID)
	if err := s.fc.GetJSON(ctx, s.Name(), u, s.retry, &interactions); err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(interactions))
	for _, r := range interactions {
		r.Molecule = rec
		records = append(records, RawRecord{ID: itoa(r.InteractionID), Payload: r})
	}
	return records, nil
}
