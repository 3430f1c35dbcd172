// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search aggregates open-access paper metadata from bibliographic
// APIs and returns unified, deduplicated records.
package search

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// quotaFloor is the minimum per-source result quota when the cap is
// split across sources.
const quotaFloor = 10

// Source searches a single bibliographic API. Each source (OpenAlex,
// arXiv, PubMed) implements this interface per the Strategy pattern.
type Source interface {
	Name() types.SourceType
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Record, error)
}

// Query holds the parameters of one logical search.
type Query struct {
	// Text is the free-text keyword query.
	Text string

	// YearFrom and YearTo bound the publication year range (inclusive).
	// Zero means unbounded on that side.
	YearFrom int
	YearTo   int

	// MaxResults caps the number of records. The aggregator rewrites it
	// to the per-source quota before handing the query to a client.
	MaxResults int

	// Sort is the requested ranking option.
	Sort SortChoice
}

// IsEmpty reports whether the query contains no searchable text.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// SourceError records the failure of a single source so callers can
// tell "source returned nothing" apart from "source failed".
type SourceError struct {
	Source types.SourceType
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SearchOutput holds the merged records and per-query statistics.
type SearchOutput struct {
	Records      []types.Record
	DupsRemoved  int
	SourceErrors []*SourceError
}

// Search fans the query out to the given sources, merges their records
// in source order, and deduplicates. Sources run concurrently, each
// keeping its own internal courtesy pacing, and are joined before the
// dedup pass; concatenation follows the order of the sources slice so
// the first-seen-wins semantics are deterministic.
//
// A failing source is skipped: the other sources still contribute, and
// the failure is reported both on w and in SearchOutput.SourceErrors.
func Search(ctx context.Context, query Query, sources []Source, cfg types.SearchConfig, w io.Writer) (SearchOutput, error) {
	if query.IsEmpty() {
		return SearchOutput{}, fmt.Errorf("query is empty: provide search keywords")
	}
	if len(sources) == 0 {
		return SearchOutput{}, fmt.Errorf("no sources selected")
	}

	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = cfg.MaxResults
	}
	if maxResults <= 0 {
		maxResults = 100
	}

	perSource := splitQuota(maxResults, len(sources))

	results := make([][]types.Record, len(sources))
	errs := make([]error, len(sources))

	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()
			sq := query
			sq.MaxResults = perSource
			if s.Name() == query.Sort.Source {
				// The sort target gets the full cap: its native
				// ranking is the one the caller asked for.
				sq.MaxResults = maxResults
			}
			results[i], errs[i] = s.Search(ctx, sq, cfg)
		}(i, s)
	}
	wg.Wait()

	var all []types.Record
	var sourceErrors []*SourceError
	for i, s := range sources {
		if errs[i] != nil {
			se := &SourceError{Source: s.Name(), Err: errs[i]}
			sourceErrors = append(sourceErrors, se)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", s.Name(), errs[i])
			continue
		}
		all = append(all, results[i]...)
	}

	kept, removed := Dedupe(all)
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}

	return SearchOutput{
		Records:      kept,
		DupsRemoved:  removed,
		SourceErrors: sourceErrors,
	}, nil
}

// splitQuota returns the result quota for a non-sort-target source.
func splitQuota(maxResults, numSources int) int {
	if numSources < 1 {
		numSources = 1
	}
	per := maxResults / numSources
	if per < quotaFloor {
		per = quotaFloor
	}
	return per
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(out SearchOutput, w io.Writer) {
	if len(out.Records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-24s  %-4s  %-24s  %s\n",
		"Rank", "Title", "Authors", "Year", "Venue", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for i, r := range out.Records {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		authors := formatAuthors(r.Authors)
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		venue := r.Venue
		if len(venue) > 24 {
			venue = venue[:21] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-24s  %-4s  %-24s  %s\n",
			i+1, title, authors, year, venue, r.Source.Label())
	}

	fmt.Fprintf(w, "\n%d results", len(out.Records))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// formatAuthors shortens a comma-joined author string for table display.
func formatAuthors(authors string) string {
	first, _, more := strings.Cut(authors, ", ")
	if more {
		return truncate(first, 18) + " et al."
	}
	return truncate(first, 24)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
