// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-finder pipeline.
package types

// SourceType identifies one of the supported bibliographic APIs.
type SourceType string

const (
	SourceOpenAlex SourceType = "openalex"
	SourceArxiv    SourceType = "arxiv"
	SourcePubMed   SourceType = "pubmed"
)

// AllSources lists the supported sources in the fixed aggregation order.
// Per-source results are always concatenated in this order so that
// deduplication is deterministic regardless of fetch timing.
var AllSources = []SourceType{SourceOpenAlex, SourceArxiv, SourcePubMed}

// Label returns the human-readable name of the source.
func (s SourceType) Label() string {
	switch s {
	case SourceOpenAlex:
		return "OpenAlex"
	case SourceArxiv:
		return "arXiv"
	case SourcePubMed:
		return "PubMed"
	}
	return string(s)
}

// Valid reports whether s names a supported source.
func (s SourceType) Valid() bool {
	switch s {
	case SourceOpenAlex, SourceArxiv, SourcePubMed:
		return true
	}
	return false
}

// Record is the unified representation of one paper, produced by every
// source client. A record is considered open access when PDFURL is set.
type Record struct {
	// Title is the paper title as returned by the source. May be empty.
	Title string `json:"title" yaml:"title"`

	// Authors is the ordered author display names joined with ", ".
	Authors string `json:"authors" yaml:"authors"`

	// Year is the publication year, or 0 when the source gave none.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue names the journal, repository, or source label.
	Venue string `json:"venue" yaml:"venue"`

	// DOI is the bare digital object identifier (no https://doi.org/
	// prefix). Compared case-insensitively during deduplication.
	DOI string `json:"doi" yaml:"doi"`

	// PDFURL is a direct link to a freely accessible PDF, or empty.
	PDFURL string `json:"url_pdf" yaml:"url_pdf"`

	// LandingURL is a human-browsable page for the record.
	LandingURL string `json:"url_landing" yaml:"url_landing"`

	// Source tags the API the record came from.
	Source SourceType `json:"source" yaml:"source"`

	// Abstract is the reconstructed or fetched plain-text abstract. It
	// feeds the keyword analyzer only and is excluded from the exported
	// JSON/CSV projections; query files keep it so analysis can run on
	// saved results without re-querying.
	Abstract string `json:"-" yaml:"abstract,omitempty"`

	// ExternalID is the source-native identifier (PubMed PMID). It only
	// exists to correlate summary and abstract-fetch responses and is
	// never serialized.
	ExternalID string `json:"-" yaml:"-"`
}
