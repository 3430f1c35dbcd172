// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// arxivAPIBase is a variable so tests can point the client at a mock
// server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivPageDelay is the courtesy pause between page fetches.
var arxivPageDelay = 200 * time.Millisecond

const arxivPageSize = 50

// ArxivSource searches the arXiv preprint archive through its Atom
// export API, paging with start offsets.
type ArxivSource struct {
	Client *http.Client
}

// Name implements Source.
func (s *ArxivSource) Name() types.SourceType { return types.SourceArxiv }

// Search implements Source.
func (s *ArxivSource) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Record, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	sortBy, sortOrder := arxivSortParams(query.Sort.NativeFor(types.SourceArxiv, "relevance:desc"))
	searchQuery := buildArxivQuery(query)

	pacer := httputil.NewPacer(arxivPageDelay)

	var records []types.Record
	start := 0
	for len(records) < query.MaxResults {
		count := arxivPageSize
		if remaining := query.MaxResults - len(records); remaining < count {
			count = remaining
		}

		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Set("search_query", searchQuery)
		params.Set("start", fmt.Sprintf("%d", start))
		params.Set("max_results", fmt.Sprintf("%d", count))
		params.Set("sortBy", sortBy)
		params.Set("sortOrder", sortOrder)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("building arXiv request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("querying arXiv: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
		}

		var feed arxivFeed
		err = xml.NewDecoder(resp.Body).Decode(&feed)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding arXiv feed: %w", err)
		}

		if len(feed.Entries) == 0 {
			break
		}
		for _, e := range feed.Entries {
			records = append(records, e.toRecord())
			if len(records) >= query.MaxResults {
				break
			}
		}

		// A short page means the feed is exhausted.
		if len(feed.Entries) < count {
			break
		}
		start += len(feed.Entries)
	}

	return records, nil
}

// buildArxivQuery renders the arXiv fielded query string. The year range
// becomes a submittedDate window; arXiv has no open-ended range syntax,
// so missing bounds get wide defaults.
func buildArxivQuery(query Query) string {
	parts := []string{fmt.Sprintf("all:%q", query.Text)}

	if query.YearFrom > 0 || query.YearTo > 0 {
		from := query.YearFrom
		if from <= 0 {
			from = 1900
		}
		to := query.YearTo
		if to <= 0 {
			to = time.Now().Year()
		}
		parts = append(parts, fmt.Sprintf("submittedDate:[%d01010000 TO %d12312359]", from, to))
	}

	return strings.Join(parts, " AND ")
}

// arxivSortParams splits a "field:direction" native sort into the
// sortBy and sortOrder query parameters arXiv expects.
func arxivSortParams(native string) (sortBy, sortOrder string) {
	field, dir, _ := strings.Cut(native, ":")
	sortOrder = "descending"
	if dir == "asc" {
		sortOrder = "ascending"
	}
	return field, sortOrder
}

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	DOI       string `xml:"doi"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Rel   string `xml:"rel,attr"`
		Type  string `xml:"type,attr"`
		Title string `xml:"title,attr"`
	} `xml:"link"`
}

// toRecord maps one Atom entry into the unified record shape.
func (e arxivEntry) toRecord() types.Record {
	var authors []string
	for _, a := range e.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	var pdf, landing string
	for _, l := range e.Links {
		switch {
		case l.Type == "application/pdf" || l.Title == "pdf":
			pdf = l.Href
		case l.Rel == "alternate":
			landing = l.Href
		}
	}
	if landing == "" {
		landing = e.ID
	}

	year := 0
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		year = t.Year()
	}

	return types.Record{
		// Atom titles wrap with embedded newlines and runs of spaces.
		Title:      strings.Join(strings.Fields(e.Title), " "),
		Authors:    strings.Join(authors, ", "),
		Year:       year,
		Venue:      "arXiv",
		DOI:        e.DOI,
		PDFURL:     pdf,
		LandingURL: landing,
		Source:     types.SourceArxiv,
		Abstract:   strings.TrimSpace(e.Summary),
	}
}
