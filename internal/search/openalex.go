// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// openAlexAPIBase is a variable so tests can point the client at a mock
// server.
var openAlexAPIBase = "https://api.openalex.org/works"

// openAlexPageDelay is the courtesy pause between page fetches.
var openAlexPageDelay = 200 * time.Millisecond

const openAlexPageSize = 50

// OpenAlexSource searches the OpenAlex works index. OpenAlex pages with
// an opaque cursor and inlines abstracts as an inverted index, which the
// client reconstructs into plain text.
type OpenAlexSource struct {
	Client *http.Client
}

// Name implements Source.
func (s *OpenAlexSource) Name() types.SourceType { return types.SourceOpenAlex }

// Search implements Source. It walks the cursor chain until the quota is
// met or OpenAlex stops returning a next cursor.
func (s *OpenAlexSource) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Record, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	filters := []string{"is_oa:true"}
	if query.YearFrom > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", query.YearFrom))
	}
	if query.YearTo > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", query.YearTo))
	}

	sort := query.Sort.NativeFor(types.SourceOpenAlex, "relevance_score:desc")

	pacer := httputil.NewPacer(openAlexPageDelay)

	var records []types.Record
	cursor := "*"
	for len(records) < query.MaxResults && cursor != "" {
		perPage := openAlexPageSize
		if remaining := query.MaxResults - len(records); remaining < perPage {
			perPage = remaining
		}

		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Set("search", query.Text)
		params.Set("filter", strings.Join(filters, ","))
		params.Set("sort", sort)
		params.Set("per-page", fmt.Sprintf("%d", perPage))
		params.Set("cursor", cursor)
		if cfg.ContactEmail != "" {
			// The polite pool: OpenAlex routes requests carrying a
			// mailto to faster servers.
			params.Set("mailto", cfg.ContactEmail)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("building OpenAlex request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("querying OpenAlex: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
		}

		var page openAlexResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding OpenAlex response: %w", err)
		}

		if len(page.Results) == 0 {
			break
		}
		for _, w := range page.Results {
			records = append(records, w.toRecord())
			if len(records) >= query.MaxResults {
				break
			}
		}
		cursor = page.Meta.NextCursor
	}

	return records, nil
}

type openAlexResponse struct {
	Meta struct {
		NextCursor string `json:"next_cursor"`
	} `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexLocationSource struct {
	DisplayName  string `json:"display_name"`
	HostVenueURL string `json:"host_venue_url"`
	URL          string `json:"url"`
}

type openAlexLocation struct {
	PDFURL         string                  `json:"pdf_url"`
	LandingPageURL string                  `json:"landing_page_url"`
	URL            string                  `json:"url"`
	Source         *openAlexLocationSource `json:"source"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	Title           string `json:"display_name"`
	DOI             string `json:"doi"`
	PublicationYear int    `json:"publication_year"`
	Authorships     []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	AbstractInvertedIndex map[string][]int  `json:"abstract_inverted_index"`
	BestOALocation        *openAlexLocation `json:"best_oa_location"`
	PrimaryLocation       *openAlexLocation `json:"primary_location"`
	HostVenue             struct {
		DisplayName string `json:"display_name"`
	} `json:"host_venue"`
}

// toRecord maps one OpenAlex work into the unified record shape.
func (w openAlexWork) toRecord() types.Record {
	var authors []string
	for _, a := range w.Authorships {
		if name := a.Author.DisplayName; name != "" {
			authors = append(authors, name)
		}
	}

	var pdf string
	if loc := w.BestOALocation; loc != nil {
		pdf = loc.PDFURL
		if pdf == "" {
			pdf = loc.URL
		}
	}

	landing := ""
	if loc := w.PrimaryLocation; loc != nil {
		landing = loc.LandingPageURL
		if landing == "" {
			landing = loc.PDFURL
		}
		if landing == "" && loc.Source != nil {
			landing = loc.Source.HostVenueURL
			if landing == "" {
				landing = loc.Source.URL
			}
		}
	}
	if landing == "" {
		landing = w.DOI
	}
	if landing == "" {
		landing = w.ID
	}

	venue := w.HostVenue.DisplayName
	if venue == "" && w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		venue = w.PrimaryLocation.Source.DisplayName
	}

	return types.Record{
		Title:      w.Title,
		Authors:    strings.Join(authors, ", "),
		Year:       w.PublicationYear,
		Venue:      venue,
		DOI:        strings.TrimPrefix(w.DOI, "https://doi.org/"),
		PDFURL:     pdf,
		LandingURL: landing,
		Source:     types.SourceOpenAlex,
		Abstract:   reconstructAbstract(w.AbstractInvertedIndex),
	}
}

// reconstructAbstract rebuilds abstract text from OpenAlex's inverted
// index, which maps each token to the word positions it occupies. Tokens
// are placed into positional slots and the slots joined in order; gaps
// are skipped rather than rendered as extra spaces.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	maxPos := 0
	for _, positions := range index {
		for _, p := range positions {
			if p > maxPos {
				maxPos = p
			}
		}
	}

	slots := make([]string, maxPos+1)
	for token, positions := range index {
		for _, p := range positions {
			if p >= 0 {
				slots[p] = token
			}
		}
	}

	words := make([]string, 0, len(slots))
	for _, w := range slots {
		if w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}
