package cli

import (
	"testing"
)

func TestParseOpts(t *testing.T) {
	opts, err := parseOpts([]string{
		"min_pchembl=6.5",
		"min_phase=3",
		"primary_only=true",
		"kinds=gene,disease",
		"taxa=9606",
		"name=hERG",
	})
	if err != nil {
		t.Fatalf("parseOpts: %v", err)
	}

	if v, ok := opts["min_pchembl"].(float64); !ok || v != 6.5 {
		t.Errorf("min_pchembl = %#v", opts["min_pchembl"])
	}
	if v, ok := opts["min_phase"].(int64); !ok || v != 3 {
		t.Errorf("min_phase = %#v", opts["min_phase"])
	}
	if v, ok := opts["primary_only"].(bool); !ok || !v {
		t.Errorf("primary_only = %#v", opts["primary_only"])
	}
	if v, ok := opts["kinds"].([]any); !ok || len(v) != 2 || v[0] != "gene" {
		t.Errorf("kinds = %#v", opts["kinds"])
	}
	if v, ok := opts["taxa"].(int64); !ok || v != 9606 {
		t.Errorf("taxa = %#v", opts["taxa"])
	}
	if v, ok := opts["name"].(string); !ok || v != "hERG" {
		t.Errorf("name = %#v", opts["name"])
	}
}

func TestParseOptsRejectsBadPair(t *testing.T) {
	if _, err := parseOpts([]string{"no-equals"}); err == nil {
		t.Error("expected pair without = to fail")
	}
	if _, err := parseOpts([]string{"=value"}); err == nil {
		t.Error("expected empty key to fail")
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("targets:chembl:mechanism"); got != "targets_chembl_mechanism" {
		t.Errorf("sanitizeFilename = %q", got)
	}
	if got := sanitizeFilename("plain"); got != "plain" {
		t.Errorf("sanitizeFilename = %q", got)
	}
}
