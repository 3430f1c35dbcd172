package search

import (
	"testing"

	"github.com/pdiddy/paper-finder/pkg/types"
)

func TestDedupeByDOICaseInsensitive(t *testing.T) {
	records := []types.Record{
		{Title: "A", DOI: "10.1234/ABC", Source: types.SourceOpenAlex},
		{Title: "A dup", DOI: " 10.1234/abc ", Source: types.SourcePubMed},
		{Title: "B", DOI: "10.1234/xyz", Source: types.SourceArxiv},
	}

	kept, removed := Dedupe(records)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(kept) != 2 {
		t.Fatalf("len(kept) = %d, want 2", len(kept))
	}
	if kept[0].Title != "A" {
		t.Errorf("kept[0].Title = %q, first occurrence should win", kept[0].Title)
	}
}

func TestDedupeByURLKeys(t *testing.T) {
	records := []types.Record{
		{Title: "A", PDFURL: "https://x/a.pdf"},
		{Title: "A dup by pdf", PDFURL: "https://x/a.pdf", LandingURL: "https://x/a"},
		{Title: "B", LandingURL: "https://x/b"},
		{Title: "B dup by landing", DOI: "10.9/unique", LandingURL: "https://x/b"},
	}

	kept, removed := Dedupe(records)
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if len(kept) != 2 || kept[0].Title != "A" || kept[1].Title != "B" {
		t.Errorf("kept = %+v", kept)
	}
}

func TestDedupeEmptyKeysNeverMatch(t *testing.T) {
	records := []types.Record{
		{Title: "No identifiers 1"},
		{Title: "No identifiers 2"},
		{Title: "Whitespace DOI", DOI: "   "},
	}

	kept, removed := Dedupe(records)
	if removed != 0 {
		t.Errorf("removed = %d, want 0: empty keys must never collide", removed)
	}
	if len(kept) != 3 {
		t.Errorf("len(kept) = %d, want 3", len(kept))
	}
}

func TestDedupeOrderSensitivity(t *testing.T) {
	a := types.Record{Title: "From OpenAlex", DOI: "10.1/x", Source: types.SourceOpenAlex}
	b := types.Record{Title: "From PubMed", DOI: "10.1/x", Source: types.SourcePubMed}

	kept, _ := Dedupe([]types.Record{a, b})
	if kept[0].Source != types.SourceOpenAlex {
		t.Errorf("kept source = %q, want first seen", kept[0].Source)
	}

	kept, _ = Dedupe([]types.Record{b, a})
	if kept[0].Source != types.SourcePubMed {
		t.Errorf("kept source = %q, want first seen after swap", kept[0].Source)
	}
}

func TestDedupeRegistersAllKeysOfKeptRecord(t *testing.T) {
	records := []types.Record{
		{Title: "Full", DOI: "10.1/full", PDFURL: "https://x/full.pdf", LandingURL: "https://x/full"},
		{Title: "Dup by doi", DOI: "10.1/full"},
		{Title: "Dup by pdf", PDFURL: "https://x/full.pdf"},
		{Title: "Dup by landing", LandingURL: "https://x/full"},
	}

	kept, removed := Dedupe(records)
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if len(kept) != 1 {
		t.Errorf("len(kept) = %d, want 1", len(kept))
	}
}

func TestDedupeIdempotent(t *testing.T) {
	records := []types.Record{
		{Title: "A", DOI: "10.1/a"},
		{Title: "A dup", DOI: "10.1/a"},
		{Title: "B", DOI: "10.1/b"},
	}

	once, _ := Dedupe(records)
	twice, removed := Dedupe(once)
	if removed != 0 {
		t.Errorf("second pass removed = %d, want 0", removed)
	}
	if len(twice) != len(once) {
		t.Errorf("second pass changed length: %d != %d", len(twice), len(once))
	}
}
