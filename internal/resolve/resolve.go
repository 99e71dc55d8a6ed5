// Package resolve defines the compound-identity and structural-similarity
// collaborators. The engine consumes them as black boxes; file-backed
// implementations cover offline runs and tests.
package resolve

import (
	"context"
	"regexp"
	"strings"
)

// Compound is the resolved subject of every triple. InChIKey is immutable
// once assigned to an ID within a run.
type Compound struct {
	ID       string `json:"id"`
	InChIKey string `json:"inchikey"`
	Name     string `json:"name,omitempty"`
}

// Neighbor is a structurally similar compound with its similarity weight.
type Neighbor struct {
	Compound Compound `json:"compound"`
	Weight   float64  `json:"weight"`
}

// Resolver maps arbitrary identifiers (InChIKeys, database ids, names) to
// compounds. Fails with model.ErrUnknownCompound.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (Compound, error)
}

// Similarity returns compounds structurally similar to the given compound,
// already filtered to weights >= threshold.
type Similarity interface {
	Similar(ctx context.Context, compoundID string, threshold float64) ([]Neighbor, error)
}

// Kind classifies what sort of identifier a query string is.
type Kind int

const (
	KindName Kind = iota
	KindInChI
	KindInChIKey
	KindChEMBL
	KindHMDB
)

var (
	inchikeyRe = regexp.MustCompile(`^[A-Z]{14}-[A-Z]{10}-[A-Z]$`)
	chemblRe   = regexp.MustCompile(`^CHEMBL[0-9]+$`)
	hmdbRe     = regexp.MustCompile(`^HMDB[0-9]{7}$`)
)

// Classify determines the identifier kind. Anything unrecognized is treated
// as a compound name.
func Classify(identifier string) Kind {
	switch {
	case strings.HasPrefix(identifier, "InChI="):
		return KindInChI
	case inchikeyRe.MatchString(identifier):
		return KindInChIKey
	case chemblRe.MatchString(identifier):
		return KindChEMBL
	case hmdbRe.MatchString(identifier):
		return KindHMDB
	default:
		return KindName
	}
}

// IsInChIKey reports whether s is a well-formed InChIKey.
func IsInChIKey(s string) bool {
	return inchikeyRe.MatchString(s)
}
