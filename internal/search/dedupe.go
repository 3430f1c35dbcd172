// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Dedupe removes duplicate records in a single forward scan,
// first-seen-wins. Record identity is the disjunction of three
// independent keys: DOI (lowercased, trimmed), PDF URL (trimmed), and
// landing URL (trimmed). A record is discarded as soon as any one of
// its non-empty keys collides with an already-kept record; empty keys
// never match. A kept record registers all of its non-empty keys.
func Dedupe(records []types.Record) ([]types.Record, int) {
	seenDOI := make(map[string]struct{})
	seenPDF := make(map[string]struct{})
	seenLanding := make(map[string]struct{})

	kept := make([]types.Record, 0, len(records))
	removed := 0

	for _, r := range records {
		doi := strings.ToLower(strings.TrimSpace(r.DOI))
		pdf := strings.TrimSpace(r.PDFURL)
		landing := strings.TrimSpace(r.LandingURL)

		if contains(seenDOI, doi) || contains(seenPDF, pdf) || contains(seenLanding, landing) {
			removed++
			continue
		}

		if doi != "" {
			seenDOI[doi] = struct{}{}
		}
		if pdf != "" {
			seenPDF[pdf] = struct{}{}
		}
		if landing != "" {
			seenLanding[landing] = struct{}{}
		}
		kept = append(kept, r)
	}

	return kept, removed
}

func contains(set map[string]struct{}, key string) bool {
	if key == "" {
		return false
	}
	_, ok := set[key]
	return ok
}
