// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// pubmedAPIBase is a variable so tests can point the client at a mock
// server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// pubmedPageDelay is the courtesy pause between E-utilities requests.
// NCBI allows 3 requests per second without an API key; one pacer spans
// esearch, esummary, and efetch so the limit holds across phases.
var pubmedPageDelay = 340 * time.Millisecond

const (
	pubmedTool = "paper-finder"

	pubmedPageSize     = 100
	pubmedSummaryBatch = 200
	pubmedFetchBatch   = 100
)

// PubMedSource searches PubMed through the NCBI E-utilities: esearch for
// PMIDs, esummary for metadata, and efetch for abstracts. Only records
// with a PMC deposit (a PMCID) are kept, since those are the ones with a
// freely fetchable PDF.
type PubMedSource struct {
	Client *http.Client

	// FetchAbstracts controls the extra efetch phase. Summaries alone
	// satisfy the record shape; abstracts cost one more round of
	// requests.
	FetchAbstracts bool
}

// Name implements Source.
func (s *PubMedSource) Name() types.SourceType { return types.SourcePubMed }

// Search implements Source.
func (s *PubMedSource) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Record, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	pacer := httputil.NewPacer(pubmedPageDelay)

	pmids, err := s.searchIDs(ctx, client, pacer, query, cfg)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return nil, nil
	}

	records, err := s.fetchSummaries(ctx, client, pacer, pmids, cfg)
	if err != nil {
		return nil, err
	}

	if s.FetchAbstracts && len(records) > 0 {
		if err := s.attachAbstracts(ctx, client, pacer, records, cfg); err != nil {
			return nil, err
		}
	}

	if len(records) > query.MaxResults {
		records = records[:query.MaxResults]
	}
	return records, nil
}

// buildPubMedTerm renders the esearch term: the text query, an optional
// publication-date window, and the free-full-text filter that restricts
// hits to openly readable articles.
func buildPubMedTerm(query Query) string {
	term := query.Text

	if query.YearFrom > 0 || query.YearTo > 0 {
		from := query.YearFrom
		if from <= 0 {
			from = 1800
		}
		to := query.YearTo
		if to <= 0 {
			to = time.Now().Year()
		}
		term += fmt.Sprintf(` AND ("%d"[Date - Publication] : "%d"[Date - Publication])`, from, to)
	}

	term += " AND free full text[Filter]"
	return term
}

// searchIDs pages through esearch until the quota is met or the result
// list is exhausted.
func (s *PubMedSource) searchIDs(ctx context.Context, client *http.Client, pacer *httputil.Pacer, query Query, cfg types.SearchConfig) ([]string, error) {
	term := buildPubMedTerm(query)
	sort := query.Sort.NativeFor(types.SourcePubMed, "relevance")

	var pmids []string
	offset := 0
	for len(pmids) < query.MaxResults {
		count := pubmedPageSize
		if remaining := query.MaxResults - len(pmids); remaining < count {
			count = remaining
		}

		params := url.Values{}
		params.Set("db", "pubmed")
		params.Set("term", term)
		params.Set("retmode", "json")
		params.Set("retstart", fmt.Sprintf("%d", offset))
		params.Set("retmax", fmt.Sprintf("%d", count))
		params.Set("sort", sort)

		var page pubmedSearchResponse
		if err := s.get(ctx, client, pacer, "/esearch.fcgi", params, cfg, func(resp *http.Response) error {
			return json.NewDecoder(resp.Body).Decode(&page)
		}); err != nil {
			return nil, err
		}

		ids := page.Result.IDList
		if len(ids) == 0 {
			break
		}
		pmids = append(pmids, ids...)
		if len(ids) < count {
			break
		}
		offset += len(ids)
	}

	if len(pmids) > query.MaxResults {
		pmids = pmids[:query.MaxResults]
	}
	return pmids, nil
}

// fetchSummaries resolves PMIDs to records via esummary, dropping any
// article without a PMCID.
func (s *PubMedSource) fetchSummaries(ctx context.Context, client *http.Client, pacer *httputil.Pacer, pmids []string, cfg types.SearchConfig) ([]types.Record, error) {
	var records []types.Record

	for start := 0; start < len(pmids); start += pubmedSummaryBatch {
		end := start + pubmedSummaryBatch
		if end > len(pmids) {
			end = len(pmids)
		}
		batch := pmids[start:end]

		params := url.Values{}
		params.Set("db", "pubmed")
		params.Set("id", strings.Join(batch, ","))
		params.Set("retmode", "json")

		var page pubmedSummaryResponse
		if err := s.get(ctx, client, pacer, "/esummary.fcgi", params, cfg, func(resp *http.Response) error {
			return json.NewDecoder(resp.Body).Decode(&page)
		}); err != nil {
			return nil, err
		}

		// The result object maps each PMID to its summary; iterate the
		// batch rather than the map to keep esearch rank order.
		for _, pmid := range batch {
			raw, ok := page.Result[pmid]
			if !ok {
				continue
			}
			var item pubmedSummaryItem
			if err := json.Unmarshal(raw, &item); err != nil {
				continue
			}
			rec, ok := item.toRecord(pmid)
			if !ok {
				continue
			}
			records = append(records, rec)
		}
	}

	return records, nil
}

// attachAbstracts fills Record.Abstract in place via batched efetch
// calls, matching articles back to records by PMID.
func (s *PubMedSource) attachAbstracts(ctx context.Context, client *http.Client, pacer *httputil.Pacer, records []types.Record, cfg types.SearchConfig) error {
	byPMID := make(map[string]*types.Record, len(records))
	pmids := make([]string, 0, len(records))
	for i := range records {
		if pmid := records[i].ExternalID; pmid != "" {
			byPMID[pmid] = &records[i]
			pmids = append(pmids, pmid)
		}
	}

	for start := 0; start < len(pmids); start += pubmedFetchBatch {
		end := start + pubmedFetchBatch
		if end > len(pmids) {
			end = len(pmids)
		}
		batch := pmids[start:end]

		params := url.Values{}
		params.Set("db", "pubmed")
		params.Set("id", strings.Join(batch, ","))
		params.Set("retmode", "xml")
		params.Set("rettype", "abstract")

		var set pubmedArticleSet
		if err := s.get(ctx, client, pacer, "/efetch.fcgi", params, cfg, func(resp *http.Response) error {
			return xml.NewDecoder(resp.Body).Decode(&set)
		}); err != nil {
			return err
		}

		for _, article := range set.Articles {
			rec, ok := byPMID[article.PMID]
			if !ok {
				continue
			}
			var parts []string
			for _, t := range article.AbstractTexts {
				if text := stripMarkup(t.Inner); text != "" {
					parts = append(parts, text)
				}
			}
			rec.Abstract = strings.Join(parts, " ")
		}
	}

	return nil
}

// get performs one paced E-utilities request. Every request carries the
// tool and email parameters NCBI asks registered clients to send, plus
// the API key when configured.
func (s *PubMedSource) get(ctx context.Context, client *http.Client, pacer *httputil.Pacer, path string, params url.Values, cfg types.SearchConfig, decode func(*http.Response) error) error {
	if err := pacer.Wait(ctx); err != nil {
		return err
	}

	params.Set("tool", pubmedTool)
	if cfg.ContactEmail != "" {
		params.Set("email", cfg.ContactEmail)
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedAPIBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building PubMed request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("querying PubMed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PubMed API returned HTTP %d", resp.StatusCode)
	}
	if err := decode(resp); err != nil {
		return fmt.Errorf("decoding PubMed response: %w", err)
	}
	return nil
}

type pubmedSearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// pubmedSummaryResponse keeps the per-PMID entries raw: the result
// object mixes summaries with a "uids" index array.
type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedSummaryItem struct {
	Title           string `json:"title"`
	PubDate         string `json:"pubdate"`
	FullJournalName string `json:"fulljournalname"`
	Source          string `json:"source"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}

// toRecord maps one esummary item into the unified record shape. Items
// without a PMCID are dropped (ok == false): no PMC deposit means no
// open PDF to point at.
func (item pubmedSummaryItem) toRecord(pmid string) (types.Record, bool) {
	var pmcid, doi string
	for _, id := range item.ArticleIDs {
		switch id.IDType {
		case "pmcid":
			pmcid = strings.TrimSpace(id.Value)
		case "doi":
			doi = strings.TrimSpace(id.Value)
		}
	}
	if pmcid == "" {
		return types.Record{}, false
	}

	var authors []string
	for _, a := range item.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	venue := item.FullJournalName
	if venue == "" {
		venue = item.Source
	}
	if venue == "" {
		venue = "PubMed"
	}

	return types.Record{
		Title:      item.Title,
		Authors:    strings.Join(authors, ", "),
		Year:       firstYearToken(item.PubDate),
		Venue:      venue,
		DOI:        doi,
		PDFURL:     fmt.Sprintf("https://www.ncbi.nlm.nih.gov/pmc/articles/%s/pdf", pmcid),
		LandingURL: fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", pmid),
		Source:     types.SourcePubMed,
		ExternalID: pmid,
	}, true
}

// firstYearToken extracts the year from a PubMed pubdate, which is
// free-form ("2023 Mar 15", "2021 Nov-Dec"). The first whitespace token
// that is exactly four digits wins.
func firstYearToken(pubdate string) int {
	for _, tok := range strings.Fields(pubdate) {
		if len(tok) != 4 {
			continue
		}
		year := 0
		ok := true
		for _, c := range tok {
			if c < '0' || c > '9' {
				ok = false
				break
			}
			year = year*10 + int(c-'0')
		}
		if ok {
			return year
		}
	}
	return 0
}

type pubmedArticleSet struct {
	XMLName  xml.Name `xml:"PubmedArticleSet"`
	Articles []struct {
		PMID          string `xml:"MedlineCitation>PMID"`
		AbstractTexts []struct {
			Inner string `xml:",innerxml"`
		} `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	} `xml:"PubmedArticle"`
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// stripMarkup flattens inline markup (italics, structured-abstract
// labels) out of an AbstractText payload.
func stripMarkup(inner string) string {
	text := tagPattern.ReplaceAllString(inner, "")
	replacer := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
	return strings.TrimSpace(replacer.Replace(text))
}
