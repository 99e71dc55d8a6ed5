package resolve

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/okarpov/athanor/internal/model"
)

// Passthrough is the default resolver. InChIKeys resolve to themselves,
// with the key doubling as the internal compound ID; ChEMBL and HMDB ids
// pass through as compound IDs and the owning source looks them up
// natively, filling in the InChIKey from its own record. Names and full
// InChI strings need a resolver file.
type Passthrough struct{}

// Resolve classifies the identifier and builds the compound accordingly.
func (Passthrough) Resolve(_ context.Context, identifier string) (Compound, error) {
	switch Classify(identifier) {
	case KindInChIKey:
		return Compound{ID: identifier, InChIKey: identifier}, nil
	case KindChEMBL, KindHMDB:
		return Compound{ID: identifier}, nil
	default:
		return Compound{}, fmt.Errorf("%q: %w", identifier, model.ErrUnknownCompound)
	}
}

// StaticResolver resolves identifiers from an in-memory mapping, loadable
// from a TSV file of identifier, compound id, inchikey, name.
type StaticResolver struct {
	byIdentifier map[string]Compound
}

// NewStaticResolver builds a resolver over the given mapping.
func NewStaticResolver(compounds map[string]Compound) *StaticResolver {
	m := make(map[string]Compound, len(compounds))
	for k, v := range compounds {
		m[k] = v
	}
	return &StaticResolver{byIdentifier: m}
}

// LoadResolverFile reads a compound mapping from a TSV file. Blank lines
// and #-comments are skipped.
func LoadResolverFile(path string) (*StaticResolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open compound map: %w", err)
	}
	defer func() { _ = f.Close() }()

	byIdentifier := make(map[string]Compound)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("compound map line %d: want at least 3 tab-separated fields", lineNo)
		}
		c := Compound{ID: fields[1], InChIKey: fields[2]}
		if len(fields) > 3 {
			c.Name = fields[3]
		}
		if !IsInChIKey(c.InChIKey) {
			return nil, fmt.Errorf("compound map line %d: %q is not an InChIKey", lineNo, c.InChIKey)
		}
		byIdentifier[fields[0]] = c
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read compound map: %w", err)
	}
	return &StaticResolver{byIdentifier: byIdentifier}, nil
}

// Resolve looks the identifier up in the mapping, falling back to
// passthrough for identifiers not listed.
func (r *StaticResolver) Resolve(ctx context.Context, identifier string) (Compound, error) {
	if c, ok := r.byIdentifier[identifier]; ok {
		return c, nil
	}
	return Passthrough{}.Resolve(ctx, identifier)
}

// StaticSimilarity serves neighbor sets from an in-memory mapping, loadable
// from a TSV file of compound id, neighbor id, neighbor inchikey, weight.
type StaticSimilarity struct {
	neighbors map[string][]Neighbor
}

// NewStaticSimilarity builds a similarity service over the given mapping.
func NewStaticSimilarity(neighbors map[string][]Neighbor) *StaticSimilarity {
	m := make(map[string][]Neighbor, len(neighbors))
	for k, v := range neighbors {
		m[k] = append([]Neighbor(nil), v...)
	}
	return &StaticSimilarity{neighbors: m}
}

// LoadSimilarityFile reads a neighbor mapping from a TSV file.
func LoadSimilarityFile(path string) (*StaticSimilarity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open similarity map: %w", err)
	}
	defer func() { _ = f.Close() }()

	neighbors := make(map[string][]Neighbor)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return nil, fmt.Errorf("similarity map line %d: want 4 tab-separated fields", lineNo)
		}
		weight, err := strconv.ParseFloat(fields[3], 64)
		if err != nil || weight < 0 || weight > 1 {
			return nil, fmt.Errorf("similarity map line %d: bad weight %q", lineNo, fields[3])
		}
		neighbors[fields[0]] = append(neighbors[fields[0]], Neighbor{
			Compound: Compound{ID: fields[1], InChIKey: fields[2]},
			Weight:   weight,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read similarity map: %w", err)
	}
	return &StaticSimilarity{neighbors: neighbors}, nil
}

// Similar returns neighbors at or above threshold, highest weight first.
func (s *StaticSimilarity) Similar(_ context.Context, compoundID string, threshold float64) ([]Neighbor, error) {
	var out []Neighbor
	for _, n := range s.neighbors[compoundID] {
		if n.Weight >= threshold {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out, nil
}
