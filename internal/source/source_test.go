package source

import (
	"strings"
	"testing"

	"github.com/okarpov/athanor/internal/model"
)

func TestOptionsCheckKeys(t *testing.T) {
	opts := Options{"min_pchembl": 6.0, "bogus": 1, "also_bogus": 2}
	err := opts.CheckKeys([]string{"min_pchembl", "taxa"})
	if err == nil {
		t.Fatal("expected unrecognized keys to fail")
	}
	if !model.IsConfigError(err) {
		t.Errorf("expected a config error, got %T", err)
	}
	// Unknown keys come back sorted so the message is stable.
	if msg := err.Error(); !strings.Contains(msg, "also_bogus, bogus") {
		t.Errorf("unexpected message: %s", msg)
	}

	if err := (Options{"taxa": []any{"9606"}}).CheckKeys([]string{"taxa"}); err != nil {
		t.Errorf("recognized key rejected: %v", err)
	}
}

func TestOptionsFloat(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    float64
		wantErr bool
	}{
		{"float", 6.5, 6.5, false},
		{"int promotes", 7, 7, false},
		{"int64 promotes", int64(3), 3, false},
		{"string fails", "6.5", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Options{"k": tt.value}.Float("k", 0)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if got, _ := (Options{}).Float("absent", 1.5); got != 1.5 {
		t.Errorf("expected default for absent key, got %v", got)
	}
}

func TestOptionsStrings(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []string
		wantErr bool
	}{
		{"string list", []any{"a", "b"}, []string{"a", "b"}, false},
		{"int items stringify", []any{int64(9606), int64(10090)}, []string{"9606", "10090"}, false},
		{"scalar string", "human", []string{"human"}, false},
		{"scalar int", int64(9606), []string{"9606"}, false},
		{"bool item fails", []any{true}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Options{"k": tt.value}.Strings("k")
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOptionsInt(t *testing.T) {
	if _, err := (Options{"k": 2.5}).Int("k", 0); err == nil {
		t.Error("expected fractional float to fail as int")
	}
	if got, err := (Options{"k": float64(3)}).Int("k", 0); err != nil || got != 3 {
		t.Errorf("whole float: got %d, err %v", got, err)
	}
	if got, err := (Options{"k": int64(4)}).Int("k", 0); err != nil || got != 4 {
		t.Errorf("int64: got %d, err %v", got, err)
	}
}

func TestCheckPhase(t *testing.T) {
	if err := checkPhase(Options{"min_phase": int64(3)}); err != nil {
		t.Errorf("phase 3 rejected: %v", err)
	}
	if err := checkPhase(Options{"min_phase": int64(5)}); err == nil {
		t.Error("expected phase 5 to fail")
	}
	if err := checkPhase(Options{}); err != nil {
		t.Errorf("absent phase rejected: %v", err)
	}
}

func TestFormatRecordID(t *testing.T) {
	if got := FormatRecordID("2244", "trial", "7"); got != "2244:trial:7" {
		t.Errorf("FormatRecordID = %q", got)
	}
}
