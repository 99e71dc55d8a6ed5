// Package source holds the adapters for the public chemistry databases.
// Every adapter implements the one Source contract; heterogeneity across
// databases stays inside the adapter, never in the search layer.
package source

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/resolve"
)

// RawRecord is one record as fetched from a database, before
// normalization. ID is unique within its source and annotation type only.
type RawRecord struct {
	ID      string
	Payload any
}

// Source fetches raw records for one annotation type from one database.
// Adapters are read-only and idempotent; they own their retry policy
// because rate-limit semantics differ per database.
type Source interface {
	// Name is the data_source string carried by every triple, e.g.
	// "DGIdb :: drug/gene interactions".
	Name() string

	// Type is the annotation type this adapter serves.
	Type() annotate.Type

	// RecognizedOptions lists the option keys this adapter accepts.
	// Unrecognized keys are a configuration error, never ignored.
	RecognizedOptions() []string

	// CheckOptions fully validates option values. Returns a ConfigError
	// before any network call is made.
	CheckOptions(opts Options) error

	// MaxConcurrent caps concurrent requests against this database,
	// independent of the global worker pool.
	MaxConcurrent() int

	// Fetch returns the raw records for one compound. Fails with
	// model.ErrNotFound when the database has no entry for the compound,
	// with RateLimitedError/SourceUnavailableError on upstream trouble.
	Fetch(ctx context.Context, compound resolve.Compound, opts Options) ([]RawRecord, error)
}

// Options carries adapter-specific search options as parsed from the TOML
// configuration. Accessors return ConfigErrors on ill-typed values.
type Options map[string]any

// CheckKeys fails with a ConfigError when opts contains a key outside
// recognized.
func (o Options) CheckKeys(recognized []string) error {
	allowed := make(map[string]struct{}, len(recognized))
	for _, k := range recognized {
		allowed[k] = struct{}{}
	}
	var unknown []string
	for k := range o {
		if _, ok := allowed[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return model.Configf("unrecognized options %s (recognized: %s)",
			strings.Join(unknown, ", "), strings.Join(recognized, ", "))
	}
	return nil
}

// Float reads a float option, accepting integer TOML values too.
func (o Options) Float(key string, def float64) (float64, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, model.Configf("option %q: want a number, got %T", key, v)
	}
}

// Int reads an integer option.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x == float64(int(x)) {
			return int(x), nil
		}
	}
	return 0, model.Configf("option %q: want an integer, got %v", key, v)
}

// Bool reads a boolean option.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, model.Configf("option %q: want a boolean, got %T", key, v)
	}
	return b, nil
}

// Strings reads a list-of-strings option. Integer items are accepted and
// stringified, so TOML lists like taxa = [9606] work unquoted. A scalar
// counts as a one-element list.
func (o Options) Strings(key string) ([]string, error) {
	v, ok := o[key]
	if !ok {
		return nil, nil
	}
	switch x := v.(type) {
	case []string:
		return x, nil
	case string, int, int64:
		s, err := stringItem(x)
		if err != nil {
			return nil, model.Configf("option %q: %v", key, err)
		}
		return []string{s}, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, err := stringItem(item)
			if err != nil {
				return nil, model.Configf("option %q: %v", key, err)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, model.Configf("option %q: want a list of strings, got %T", key, v)
	}
}

func stringItem(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	default:
		return "", fmt.Errorf("want a string, got %T", v)
	}
}

// Ints reads a list-of-integers option.
func (o Options) Ints(key string) ([]int, error) {
	v, ok := o[key]
	if !ok {
		return nil, nil
	}
	switch x := v.(type) {
	case []int:
		return x, nil
	case []any:
		out := make([]int, 0, len(x))
		for _, item := range x {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case int64:
				out = append(out, int(n))
			default:
				return nil, model.Configf("option %q: want integers, got %T", key, item)
			}
		}
		return out, nil
	default:
		return nil, model.Configf("option %q: want a list of integers, got %T", key, v)
	}
}

// StringSet reads a list-of-strings option into a membership set.
func (o Options) StringSet(key string) (map[string]bool, error) {
	items, err := o.Strings(key)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return nil, nil
	}
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set, nil
}

// CompoundRecord is the database-native identity of the matched compound,
// embedded in every raw record so normalizers can fill compound_id and
// compound_name from the source itself. InChIKey is set when the database
// reports one, covering compounds that were resolved from a database id
// rather than a structure.
type CompoundRecord struct {
	ID       string
	Name     string
	InChIKey string
}

// FormatRecordID builds a stable record id from parts when a source does
// not provide one of its own.
func FormatRecordID(parts ...string) string {
	return strings.Join(parts, ":")
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func checkPhase(opts Options) error {
	p, err := opts.Int("min_phase", 0)
	if err != nil {
		return err
	}
	if p < 0 || p > 4 {
		return model.Configf("option \"min_phase\": want 0..4, got %d", p)
	}
	return nil
}
