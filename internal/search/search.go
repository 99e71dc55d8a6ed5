// Package search binds an annotation type to a key, a class and validated
// options, and runs the fetch-then-normalize pipeline for one compound at a
// time. Composite types fan out to one Search per member type.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/normalize"
	"github.com/okarpov/athanor/internal/resolve"
	"github.com/okarpov/athanor/internal/source"
)

// Search is one fully validated search: a concrete annotation type plus the
// provenance strings stamped on every triple it produces.
type Search struct {
	Key     string
	Class   string
	Type    annotate.Type
	Source  source.Source
	Norm    normalize.Normalizer
	Options source.Options
}

// New expands typ against the registry and returns one Search per concrete
// member type. All option validation happens here; a Search that
// constructs cleanly makes no configuration errors later.
//
// For composite types each member receives only the option keys its source
// recognizes; keys no member recognizes are a configuration error.
func New(reg *source.Registry, key, class string, typ annotate.Type, opts source.Options) ([]*Search, error) {
	if key == "" {
		return nil, model.Configf("search key must not be empty")
	}
	if class == "" {
		class = key
	}

	members, err := reg.Expand(typ)
	if err != nil {
		return nil, err
	}

	meta := typ.IsMeta()
	claimed := make(map[string]bool, len(opts))

	searches := make([]*Search, 0, len(members))
	for _, member := range members {
		src, err := reg.Lookup(member)
		if err != nil {
			return nil, err
		}
		norm, err := normalize.For(member)
		if err != nil {
			return nil, err
		}

		memberOpts := opts
		if meta {
			memberOpts = filterOptions(opts, src.RecognizedOptions(), claimed)
		}
		if err := src.CheckOptions(memberOpts); err != nil {
			return nil, fmt.Errorf("search %q (%s): %w", key, member, err)
		}

		memberKey := key
		if meta {
			memberKey = key + ":" + string(member)
		}
		searches = append(searches, &Search{
			Key:     memberKey,
			Class:   class,
			Type:    member,
			Source:  src,
			Norm:    norm,
			Options: memberOpts,
		})
	}

	if meta {
		for k := range opts {
			if !claimed[k] {
				return nil, model.Configf("search %q: option %q not recognized by any member of %s", key, k, typ)
			}
		}
	}
	return searches, nil
}

// filterOptions keeps the keys of opts that appear in recognized, marking
// them claimed.
func filterOptions(opts source.Options, recognized []string, claimed map[string]bool) source.Options {
	allowed := make(map[string]struct{}, len(recognized))
	for _, k := range recognized {
		allowed[k] = struct{}{}
	}
	out := make(source.Options)
	for k, v := range opts {
		if _, ok := allowed[k]; ok {
			out[k] = v
			claimed[k] = true
		}
	}
	return out
}

// NewTable builds the result table for this search, appending the
// expansion columns when similarity expansion is on.
func (s *Search) NewTable(expanded bool) *annotate.Table {
	cols := s.Norm.ExtraColumns()
	if expanded {
		cols = append(append([]string(nil), cols...), annotate.ColOriginCompound, annotate.ColSimilarity)
	}
	return annotate.NewTable(s.Type, cols)
}

// RunCompound fetches and normalizes one compound. Per-record problems
// become failures, not errors; the error return is reserved for context
// cancellation, which aborts the whole run.
func (s *Search) RunCompound(ctx context.Context, compound resolve.Compound) ([]annotate.Row, []annotate.Failure) {
	identifier := compound.InChIKey
	if identifier == "" {
		identifier = compound.ID
	}

	records, err := s.Source.Fetch(ctx, compound, s.Options)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// Absence from one database is normal, not a failure.
			return nil, nil
		}
		return nil, []annotate.Failure{{
			Identifier: identifier,
			Source:     s.Source.Name(),
			Stage:      annotate.StageFetch,
			Message:    err.Error(),
		}}
	}

	sc := normalize.Context{
		Key:      s.Key,
		Class:    s.Class,
		Type:     s.Type,
		Source:   s.Source.Name(),
		Compound: compound,
		Options:  s.Options,
	}

	var rows []annotate.Row
	var failures []annotate.Failure
	for _, rec := range records {
		recRows, err := s.Norm.Normalize(rec, sc)
		if err != nil {
			failures = append(failures, annotate.Failure{
				Identifier: identifier,
				Source:     s.Source.Name(),
				Stage:      annotate.StageNormalize,
				Message:    err.Error(),
			})
			continue
		}
		rows = append(rows, recRows...)
	}
	return rows, failures
}
