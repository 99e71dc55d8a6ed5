package annotate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testRow(recordID, objectID, objectName string, extras ...string) Row {
	return Row{
		Triple: Triple{
			RecordID:     recordID,
			InChIKey:     "QVGXLLKOCUKJST-UHFFFAOYSA-N",
			CompoundID:   "CHEMBL25",
			CompoundName: "ASPIRIN",
			Predicate:    "activity at",
			ObjectID:     objectID,
			ObjectName:   objectName,
			SearchKey:    "binding",
			SearchClass:  "binding",
			DataSource:   "ChEMBL :: activity",
		},
		Extras: extras,
	}
}

func TestTableAppendDeduplicates(t *testing.T) {
	table := NewTable(TypeActivity, []string{"pchembl"})

	added, err := table.Append(
		testRow("1", "CHEMBL240", "hERG", "6.5"),
		testRow("1", "CHEMBL240", "hERG", "6.5"),
		testRow("1", "CHEMBL240", "hERG", "7.0"),
	)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 rows added, got %d", added)
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 rows in table, got %d", table.Len())
	}
}

func TestTableAppendKeepsOrder(t *testing.T) {
	table := NewTable(TypeActivity, nil)

	ids := []string{"3", "1", "2"}
	for _, id := range ids {
		if _, err := table.Append(testRow(id, "CHEMBL240", "hERG")); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rows := table.Rows()
	for i, id := range ids {
		if rows[i].RecordID != id {
			t.Errorf("row %d: expected record_id %s, got %s", i, id, rows[i].RecordID)
		}
	}
}

func TestTableAppendValidates(t *testing.T) {
	tests := []struct {
		name string
		row  Row
	}{
		{"missing object name and id", testRow("1", "", "")},
		{"missing record id", testRow("", "CHEMBL240", "hERG")},
		{"extras mismatch", testRow("1", "CHEMBL240", "hERG", "stray")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable(TypeActivity, nil)
			if _, err := table.Append(tt.row); err == nil {
				t.Error("expected append to fail")
			}
		})
	}
}

func TestTableAllowsEmptyObjectID(t *testing.T) {
	table := NewTable(TypeCTDGene, nil)
	if _, err := table.Append(testRow("1", "", "SCN5A")); err != nil {
		t.Fatalf("expected row with empty object_id to pass: %v", err)
	}
}

func TestTableHeader(t *testing.T) {
	table := NewTable(TypeActivity, []string{"pchembl", "taxon_id"})
	header := table.Header()
	if len(header) != len(SharedColumns)+2 {
		t.Fatalf("expected %d columns, got %d", len(SharedColumns)+2, len(header))
	}
	if header[0] != "record_id" || header[len(header)-1] != "taxon_id" {
		t.Errorf("unexpected header layout: %v", header)
	}
}

func TestTableWrite(t *testing.T) {
	table := NewTable(TypeActivity, []string{"pchembl"})
	if _, err := table.Append(testRow("1", "CHEMBL240", "hERG", "6.5")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var buf bytes.Buffer
	if err := table.Write(&buf, ','); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasSuffix(lines[1], ",6.5") {
		t.Errorf("expected extras at the end of the row, got %q", lines[1])
	}
}

func TestTableWriteFileTSV(t *testing.T) {
	table := NewTable(TypeActivity, nil)
	if _, err := table.Append(testRow("1", "CHEMBL240", "hERG")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	path := filepath.Join(t.TempDir(), "binding.tsv")
	if err := table.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "record_id\tinchikey") {
		t.Error("expected tab-separated output for .tsv")
	}
}

func TestPredicates(t *testing.T) {
	if got := ATCPredicate(3); got != "has ATC L3 code" {
		t.Errorf("ATCPredicate(3) = %q", got)
	}
	if got := TrialPredicate(0); got != PredHasTrial {
		t.Errorf("TrialPredicate(0) = %q", got)
	}
	if got := TrialPredicate(3); got != "phase-3 trial for" {
		t.Errorf("TrialPredicate(3) = %q", got)
	}
	if got := InteractionPredicate(""); got != PredInteractionOther {
		t.Errorf("InteractionPredicate(\"\") = %q", got)
	}
	if got := InteractionPredicate("inhibitor"); got != "inhibitor for" {
		t.Errorf("InteractionPredicate(\"inhibitor\") = %q", got)
	}
}
