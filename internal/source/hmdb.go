package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/fetch"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/resolve"
)

const hmdbBase = "https://hmdb.ca"

var hmdbIDPattern = regexp.MustCompile(`^HMDB[0-9]{7}$`)

// hmdbClient resolves compounds to HMDB accessions and fetches metabolite
// cards. HMDB has no identifier-lookup API, so unknown accessions go
// through the site search page.
type hmdbClient struct {
	fc    *fetch.Client
	retry fetch.RetryPolicy
}

func newHMDBClient(fc *fetch.Client) *hmdbClient {
	return &hmdbClient{
		fc:    fc,
		retry: fetch.RetryPolicy{Attempts: 4, BaseDelay: time.Second},
	}
}

type hmdbProperty struct {
	Kind   string `xml:"kind"`
	Value  string `xml:"value"`
	Source string `xml:"source"`
}

type hmdbMetabolite struct {
	Accession              string         `xml:"accession"`
	Name                   string         `xml:"name"`
	InChIKey               string         `xml:"inchikey"`
	ExperimentalProperties []hmdbProperty `xml:"experimental_properties>property"`
	PredictedProperties    []hmdbProperty `xml:"predicted_properties>property"`
	TissueLocations        []string       `xml:"biological_properties>tissue_locations>tissue"`
}

func (c *hmdbClient) metabolite(ctx context.Context, source string, compound resolve.Compound) (*hmdbMetabolite, error) {
	accession := compound.ID
	if !hmdbIDPattern.MatchString(accession) {
		if compound.InChIKey == "" {
			return nil, fmt.Errorf("%q: %w", compound.ID, model.ErrUnknownCompound)
		}
		found, err := c.search(ctx, source, compound.InChIKey)
		if err != nil {
			return nil, err
		}
		accession = found
	}

	var m hmdbMetabolite
	u := fmt.Sprintf("%s/metabolites/%s.xml", hmdbBase, accession)
	if err := c.fc.GetXML(ctx, source, u, c.retry, &m); err != nil {
		return nil, err
	}
	if m.Accession == "" {
		m.Accession = accession
	}
	return &m, nil
}

// search scrapes the metabolite search page for the first accession
// matching the InChIKey.
func (c *hmdbClient) search(ctx context.Context, source, inchikey string) (string, error) {
	u := fmt.Sprintf("%s/unearth/q?query=%s&searcher=metabolites", hmdbBase, url.QueryEscape(inchikey))
	doc, err := c.fc.GetHTML(ctx, source, u, c.retry)
	if err != nil {
		return "", err
	}
	if acc := findMetaboliteLink(doc); acc != "" {
		return acc, nil
	}
	return "", fmt.Errorf("%s: %w", inchikey, model.ErrNotFound)
}

func findMetaboliteLink(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key != "href" {
				continue
			}
			idx := strings.Index(attr.Val, "/metabolites/HMDB")
			if idx < 0 {
				continue
			}
			acc := attr.Val[idx+len("/metabolites/"):]
			if cut := strings.IndexAny(acc, "/?#"); cut >= 0 {
				acc = acc[:cut]
			}
			if hmdbIDPattern.MatchString(acc) {
				return acc
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if acc := findMetaboliteLink(child); acc != "" {
			return acc
		}
	}
	return ""
}

// HMDBPropertyRecord is one measured or predicted metabolite property.
type HMDBPropertyRecord struct {
	Molecule     CompoundRecord
	Kind         string
	Value        string
	Experimental bool
}

// HMDBProperties serves hmdb:properties.
type HMDBProperties struct {
	client *hmdbClient
}

func NewHMDBProperties(fc *fetch.Client) *HMDBProperties {
	return &HMDBProperties{client: newHMDBClient(fc)}
}

func (s *HMDBProperties) Name() string                { return "HMDB :: properties" }
func (s *HMDBProperties) Type() annotate.Type         { return annotate.TypeHMDBProperties }
func (s *HMDBProperties) RecognizedOptions() []string { return []string{"experimental_only"} }
func (s *HMDBProperties) MaxConcurrent() int          { return 2 }

func (s *HMDBProperties) CheckOptions(opts Options) error {
	if err := opts.CheckKeys(s.RecognizedOptions()); err != nil {
		return err
	}
	_, err := opts.Bool("experimental_only", false)
	return err
}

func (s *HMDBProperties) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	m, err := s.client.metabolite(ctx, s.Name(), compound)
	if err != nil {
		return nil, err
	}
	rec := CompoundRecord{ID: m.Accession, Name: m.Name, InChIKey: m.InChIKey}

	var records []RawRecord
	add := func(props []hmdbProperty, experimental bool) {
		for _, p := range props {
			if p.Kind == "" || p.Value == "" {
				continue
			}
			records = append(records, RawRecord{
				ID: FormatRecordID(m.Accession, "prop", p.Kind),
				Payload: HMDBPropertyRecord{
					Molecule:     rec,
					Kind:         p.Kind,
					Value:        p.Value,
					Experimental: experimental,
				},
			})
		}
	}
	add(m.ExperimentalProperties, true)
	add(m.PredictedProperties, false)
	return records, nil
}

// HMDBTissueRecord is one tissue the metabolite has been detected in.
type HMDBTissueRecord struct {
	Molecule CompoundRecord
	Tissue   string
}

// HMDBTissues serves hmdb:tissues.
type HMDBTissues struct {
	client *hmdbClient
}

func NewHMDBTissues(fc *fetch.Client) *HMDBTissues {
	return &HMDBTissues{client: newHMDBClient(fc)}
}

func (s *HMDBTissues) Name() string                { return "HMDB :: tissue locations" }
func (s *HMDBTissues) Type() annotate.Type         { return annotate.TypeHMDBTissues }
func (s *HMDBTissues) RecognizedOptions() []string { return nil }
func (s *HMDBTissues) MaxConcurrent() int          { return 2 }

func (s *HMDBTissues) CheckOptions(opts Options) error {
	return opts.CheckKeys(s.RecognizedOptions())
}

func (s *HMDBTissues) Fetch(ctx context.Context, compound resolve.Compound, _ Options) ([]RawRecord, error) {
	m, err := s.client.metabolite(ctx, s.Name(), compound)
	if err != nil {
		return nil, err
	}
	rec := CompoundRecord{ID: m.Accession, Name: m.Name, InChIKey: m.InChIKey}

	records := make([]RawRecord, 0, len(m.TissueLocations))
	for _, tissue := range m.TissueLocations {
		tissue = strings.TrimSpace(tissue)
		if tissue == "" {
			continue
		}
		records = append(records, RawRecord{
			ID:      FormatRecordID(m.Accession, "tissue", tissue),
			Payload: HMDBTissueRecord{Molecule: rec, Tissue: tissue},
		})
	}
	return records, nil
}
