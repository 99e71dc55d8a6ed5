package search

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/source"
)

// reservedKeys are the [[search]] keys that are not options.
var reservedKeys = map[string]bool{"key": true, "class": true, "type": true}

// rawMultiConfig is the TOML shape of a batch configuration file:
//
//	[meta]
//	taxa = ["9606"]
//
//	[[search]]
//	key  = "binding"
//	type = "chembl:activity"
//	min_pchembl = 6.0
//
// Option keys live directly in the search table; [meta] values are
// defaults applied to every search whose source recognizes them.
type rawMultiConfig struct {
	Meta   map[string]any   `toml:"meta"`
	Search []map[string]any `toml:"search"`
}

// MultiConfig is a parsed, fully validated batch of searches.
type MultiConfig struct {
	Searches []*Search
}

// ParseMulti parses and validates a TOML batch configuration. Any problem
// is a ConfigError naming the offending search; nothing is fetched until
// the whole file validates.
func ParseMulti(reg *source.Registry, data []byte) (*MultiConfig, error) {
	var raw rawMultiConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, model.Configf("parse search config: %v", err)
	}
	if len(raw.Search) == 0 {
		return nil, model.Configf("search config defines no [[search]] blocks")
	}

	for k := range raw.Meta {
		if reservedKeys[k] {
			return nil, model.Configf("[meta] must not set %q", k)
		}
	}

	cfg := &MultiConfig{}
	seenKeys := make(map[string]bool)
	metaUsed := make(map[string]bool, len(raw.Meta))
	for i, block := range raw.Search {
		key, err := stringKey(block, "key", i)
		if err != nil {
			return nil, err
		}
		typStr, err := stringKey(block, "type", i)
		if err != nil {
			return nil, err
		}
		class := ""
		if v, ok := block["class"]; ok {
			class, ok = v.(string)
			if !ok {
				return nil, model.Configf("search %q: \"class\" must be a string", key)
			}
		}
		if seenKeys[key] {
			return nil, model.Configf("duplicate search key %q", key)
		}
		seenKeys[key] = true

		opts := make(source.Options)
		for k, v := range block {
			if !reservedKeys[k] {
				opts[k] = v
			}
		}
		applyDefaults(reg, annotate.Type(typStr), opts, raw.Meta, metaUsed)

		searches, err := New(reg, key, class, annotate.Type(typStr), opts)
		if err != nil {
			return nil, err
		}
		cfg.Searches = append(cfg.Searches, searches...)
	}

	if key, dup := firstDuplicate(cfg.Searches); dup {
		return nil, model.Configf("searches %q collide after expansion", key)
	}

	var orphaned []string
	for k := range raw.Meta {
		if !metaUsed[k] {
			orphaned = append(orphaned, k)
		}
	}
	if len(orphaned) > 0 {
		sort.Strings(orphaned)
		return nil, model.Configf("[meta] options recognized by no search: %s", strings.Join(orphaned, ", "))
	}
	return cfg, nil
}

// applyDefaults copies [meta] values into opts for keys the type's sources
// recognize and the search did not set itself, marking every recognized
// key in used. A meta key left unmarked after all blocks is unknown to the
// whole configuration and rejected like any other unknown option.
func applyDefaults(reg *source.Registry, typ annotate.Type, opts source.Options, meta map[string]any, used map[string]bool) {
	if len(meta) == 0 {
		return
	}
	members, err := reg.Expand(typ)
	if err != nil {
		return
	}
	recognized := make(map[string]bool)
	for _, member := range members {
		src, err := reg.Lookup(member)
		if err != nil {
			continue
		}
		for _, k := range src.RecognizedOptions() {
			recognized[k] = true
		}
	}
	for k, v := range meta {
		if !recognized[k] {
			continue
		}
		used[k] = true
		if _, set := opts[k]; !set {
			opts[k] = v
		}
	}
}

func firstDuplicate(searches []*Search) (string, bool) {
	seen := make(map[string]bool, len(searches))
	for _, s := range searches {
		if seen[s.Key] {
			return s.Key, true
		}
		seen[s.Key] = true
	}
	return "", false
}

func stringKey(block map[string]any, key string, index int) (string, error) {
	v, ok := block[key]
	if !ok {
		return "", model.Configf("search block %d: missing %q", index+1, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", model.Configf("search block %d: %q must be a non-empty string", index+1, key)
	}
	return s, nil
}

// LoadMultiFile reads and parses a batch configuration from disk.
func LoadMultiFile(reg *source.Registry, path string) (*MultiConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read search config: %w", err)
	}
	return ParseMulti(reg, data)
}
