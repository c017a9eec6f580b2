package outreach

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jobhound/jobhound/internal/job"
)

func TestDryRunSubmitterWritesRecord(t *testing.T) {
	dir := t.TempDir()
	s := NewDryRunSubmitter(dir, nil)

	posting := &job.Posting{
		ID:      "acme|founding-engineer",
		Company: "Acme",
		Title:   "Founding Engineer",
		URL:     "https://acme.example/jobs/1",
	}
	materials := &Materials{Subject: "Application", CoverLetter: "Dear team,"}

	result, err := s.Submit(context.Background(), posting, materials)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.Succeeded {
		t.Fatal("dry-run submission should succeed")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 written file, got %d", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	var record dryRunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("written file is not valid JSON: %v", err)
	}
	if record.Company != "Acme" || record.Materials.CoverLetter != "Dear team," {
		t.Errorf("record incomplete: %+v", record)
	}
}
