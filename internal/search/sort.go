// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// SortChoice names one source-native ranking option. Each choice is
// bound to a single target source: that source receives the choice's
// native sort string (and the full result cap, see Search), while the
// other sources fall back to their relevance default.
type SortChoice struct {
	// Key is the CLI-facing identifier (e.g. "openalex-cited").
	Key string

	// Source is the target source the native value applies to.
	Source types.SourceType

	// Native is the sort parameter in the target source's own syntax.
	Native string
}

// SortChoices enumerates every supported ranking option, in display order.
var SortChoices = []SortChoice{
	{Key: "openalex-relevance", Source: types.SourceOpenAlex, Native: "relevance_score:desc"},
	{Key: "openalex-newest", Source: types.SourceOpenAlex, Native: "publication_year:desc"},
	{Key: "openalex-cited", Source: types.SourceOpenAlex, Native: "cited_by_count:desc"},
	{Key: "arxiv-relevance", Source: types.SourceArxiv, Native: "relevance:desc"},
	{Key: "arxiv-updated", Source: types.SourceArxiv, Native: "lastUpdatedDate:desc"},
	{Key: "arxiv-submitted", Source: types.SourceArxiv, Native: "submittedDate:desc"},
	{Key: "pubmed-relevance", Source: types.SourcePubMed, Native: "relevance"},
	{Key: "pubmed-recent", Source: types.SourcePubMed, Native: "pub+date"},
}

// SortChoiceByKey resolves a CLI sort key to its SortChoice.
func SortChoiceByKey(key string) (SortChoice, error) {
	for _, c := range SortChoices {
		if c.Key == key {
			return c, nil
		}
	}
	keys := make([]string, len(SortChoices))
	for i, c := range SortChoices {
		keys[i] = c.Key
	}
	return SortChoice{}, fmt.Errorf("unknown sort %q: use one of %s", key, strings.Join(keys, ", "))
}

// NativeFor returns the native sort string for source s: the choice's
// own value when s is the target, otherwise the given relevance default.
func (c SortChoice) NativeFor(s types.SourceType, fallback string) string {
	if c.Source == s && c.Native != "" {
		return c.Native
	}
	return fallback
}
