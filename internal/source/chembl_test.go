package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okarpov/athanor/internal/cache"
	"github.com/okarpov/athanor/internal/fetch"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/resolve"
)

func testFetchClient() *fetch.Client {
	cfg := model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "athanor-test",
		MaxBodyBytes: 1 << 20,
	}
	return fetch.NewClient(cfg, cache.Nop{}, fetch.NewLimiter(1000, 100))
}

const testInChIKey = "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"

// fakeChembl serves the handful of ChEMBL endpoints the adapters touch.
func fakeChembl(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/molecule/"+testInChIKey+".json", func(w http.ResponseWriter, r *http.Request) {
		// A salt form that points at its parent molecule.
		fmt.Fprint(w, `{
			"molecule_chembl_id": "CHEMBL2296002",
			"pref_name": "ASPIRIN SODIUM",
			"molecule_hierarchy": {"parent_chembl_id": "CHEMBL25"}
		}`)
	})
	mux.HandleFunc("/molecule/CHEMBL25.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"molecule_chembl_id": "CHEMBL25",
			"pref_name": "ASPIRIN",
			"molecule_structures": {"standard_inchi_key": "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"},
			"atc_classifications": ["N02BA01"]
		}`)
	})
	mux.HandleFunc("/activity.json", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("molecule_chembl_id"); got != "CHEMBL25" {
			t.Errorf("activity queried for %q", got)
		}
		fmt.Fprint(w, `{
			"page_meta": {"next": null},
			"activities": [{
				"activity_id": 101,
				"assay_type": "B",
				"standard_relation": "=",
				"standard_type": "IC50",
				"pchembl_value": "5.20",
				"target_chembl_id": "CHEMBL230",
				"target_pref_name": "Cyclooxygenase-2",
				"target_organism": "Homo sapiens",
				"target_tax_id": "9606"
			}]
		}`)
	})
	mux.HandleFunc("/mechanism.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"mechanisms": [{
				"mec_id": 13,
				"action_type": "INHIBITOR",
				"mechanism_of_action": "Cyclooxygenase inhibitor",
				"direct_interaction": true,
				"target_chembl_id": "CHEMBL230"
			}]
		}`)
	})
	mux.HandleFunc("/target/CHEMBL230.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"pref_name": "Cyclooxygenase-2",
			"target_type": "SINGLE PROTEIN",
			"organism": "Homo sapiens"
		}`)
	})
	mux.HandleFunc("/atc_class/N02BA01.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"level5": "N02BA01",
			"level1": "N", "level1_description": "NERVOUS SYSTEM",
			"level2": "N02", "level2_description": "ANALGESICS",
			"level3": "N02B", "level3_description": "OTHER ANALGESICS AND ANTIPYRETICS",
			"level4": "N02BA", "level4_description": "Salicylic acid and derivatives",
			"who_name": "acetylsalicylic acid"
		}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return httptest.NewServer(mux)
}

func testChemblCompound() resolve.Compound {
	return resolve.Compound{ID: testInChIKey, InChIKey: testInChIKey}
}

func TestChemblActivityFetch(t *testing.T) {
	srv := fakeChembl(t)
	defer srv.Close()

	s := NewChemblActivity(testFetchClient())
	s.client.base = srv.URL
	s.client.retry = fetch.RetryPolicy{Attempts: 1, BaseDelay: time.Millisecond}

	records, err := s.Fetch(context.Background(), testChemblCompound(), Options{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	act, ok := records[0].Payload.(ActivityRecord)
	if !ok {
		t.Fatalf("payload type %T", records[0].Payload)
	}
	// Salt forms resolve to the parent molecule.
	if act.Molecule.ID != "CHEMBL25" || act.Molecule.Name != "ASPIRIN" {
		t.Errorf("molecule = %+v", act.Molecule)
	}
	if act.TargetChemblID != "CHEMBL230" || act.PChemblValue != "5.20" {
		t.Errorf("activity = %+v", act)
	}
}

func TestChemblMechanismFetchDereferencesTarget(t *testing.T) {
	srv := fakeChembl(t)
	defer srv.Close()

	s := NewChemblMechanism(testFetchClient())
	s.client.base = srv.URL
	s.client.retry = fetch.RetryPolicy{Attempts: 1, BaseDelay: time.Millisecond}

	records, err := s.Fetch(context.Background(), testChemblCompound(), Options{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	mec := records[0].Payload.(MechanismRecord)
	if mec.TargetName != "Cyclooxygenase-2" || mec.TargetOrganism != "Homo sapiens" {
		t.Errorf("target not dereferenced: %+v", mec)
	}
}

func TestChemblATCFetch(t *testing.T) {
	srv := fakeChembl(t)
	defer srv.Close()

	s := NewChemblATC(testFetchClient())
	s.client.base = srv.URL
	s.client.retry = fetch.RetryPolicy{Attempts: 1, BaseDelay: time.Millisecond}

	records, err := s.Fetch(context.Background(), testChemblCompound(), Options{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	atc := records[0].Payload.(ATCRecord)
	if atc.Code != "N02BA01" || atc.Level3Description == "" {
		t.Errorf("atc = %+v", atc)
	}
}

func TestChemblFetchByDatabaseID(t *testing.T) {
	srv := fakeChembl(t)
	defer srv.Close()

	s := NewChemblActivity(testFetchClient())
	s.client.base = srv.URL
	s.client.retry = fetch.RetryPolicy{Attempts: 1, BaseDelay: time.Millisecond}

	// A bare ChEMBL id resolves without an InChIKey; the adapter looks the
	// molecule up by id and reports the key from the molecule record.
	records, err := s.Fetch(context.Background(), resolve.Compound{ID: "CHEMBL25"}, Options{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	act := records[0].Payload.(ActivityRecord)
	if act.Molecule.ID != "CHEMBL25" || act.Molecule.InChIKey != testInChIKey {
		t.Errorf("molecule = %+v", act.Molecule)
	}
}

func TestChemblUnknownCompound(t *testing.T) {
	srv := fakeChembl(t)
	defer srv.Close()

	s := NewChemblActivity(testFetchClient())
	s.client.base = srv.URL
	s.client.retry = fetch.RetryPolicy{Attempts: 1, BaseDelay: time.Millisecond}

	unknown := resolve.Compound{ID: "QQQQQQQQQQQQQQ-QQQQQQQQQQ-Q", InChIKey: "QQQQQQQQQQQQQQ-QQQQQQQQQQ-Q"}
	_, err := s.Fetch(context.Background(), unknown, Options{})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
