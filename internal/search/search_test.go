package search

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Courtesy delays off for the whole package's tests.
func init() {
	openAlexPageDelay = 0
	arxivPageDelay = 0
	pubmedPageDelay = 0
}

// --- mock source ---

type mockSource struct {
	name    types.SourceType
	records []types.Record
	err     error

	mu    sync.Mutex
	calls int
	seen  []Query
}

func (m *mockSource) Name() types.SourceType { return m.name }

func (m *mockSource) Search(_ context.Context, q Query, _ types.SearchConfig) ([]types.Record, error) {
	m.mu.Lock()
	m.calls++
	m.seen = append(m.seen, q)
	m.mu.Unlock()
	return m.records, m.err
}

func (m *mockSource) lastQuery() Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.seen) == 0 {
		return Query{}
	}
	return m.seen[len(m.seen)-1]
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		MaxResults:   20,
		ContactEmail: "test@example.com",
	}
}

// --- Query ---

func TestQueryIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"empty", Query{}, true},
		{"text", Query{Text: "attention"}, false},
		{"whitespace only is empty", Query{Text: "   \t"}, true},
		{"year range only is empty", Query{YearFrom: 2020}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Sort choices ---

func TestSortChoiceByKey(t *testing.T) {
	c, err := SortChoiceByKey("openalex-cited")
	if err != nil {
		t.Fatalf("SortChoiceByKey: %v", err)
	}
	if c.Source != types.SourceOpenAlex || c.Native != "cited_by_count:desc" {
		t.Errorf("choice = %+v", c)
	}

	if _, err := SortChoiceByKey("bogus"); err == nil {
		t.Error("expected error for unknown sort key")
	}
}

func TestSortChoiceNativeFor(t *testing.T) {
	c, _ := SortChoiceByKey("pubmed-recent")
	if got := c.NativeFor(types.SourcePubMed, "relevance"); got != "pub+date" {
		t.Errorf("NativeFor(pubmed) = %q, want pub+date", got)
	}
	if got := c.NativeFor(types.SourceOpenAlex, "relevance_score:desc"); got != "relevance_score:desc" {
		t.Errorf("NativeFor(openalex) = %q, want fallback", got)
	}
}

// --- Search validation ---

func TestSearchEmptyQuery(t *testing.T) {
	mock := &mockSource{name: types.SourceOpenAlex}
	var buf bytes.Buffer
	_, err := Search(context.Background(), Query{Text: "  "}, []Source{mock}, testCfg(), &buf)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected empty query error, got: %v", err)
	}
	if mock.calls != 0 {
		t.Errorf("source called %d times for an empty query, want 0", mock.calls)
	}
}

func TestSearchNoSources(t *testing.T) {
	var buf bytes.Buffer
	_, err := Search(context.Background(), Query{Text: "test"}, nil, testCfg(), &buf)
	if err == nil || !strings.Contains(err.Error(), "no sources") {
		t.Errorf("expected no sources error, got: %v", err)
	}
}

// --- Quota split ---

func TestSearchQuotaSplit(t *testing.T) {
	openalex := &mockSource{name: types.SourceOpenAlex}
	arxiv := &mockSource{name: types.SourceArxiv}
	pubmed := &mockSource{name: types.SourcePubMed}

	sort, _ := SortChoiceByKey("arxiv-submitted")
	q := Query{Text: "test", MaxResults: 90, Sort: sort}

	var buf bytes.Buffer
	_, err := Search(context.Background(), q, []Source{openalex, arxiv, pubmed}, testCfg(), &buf)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// The sort target keeps the full cap; the others split it.
	if got := arxiv.lastQuery().MaxResults; got != 90 {
		t.Errorf("sort target quota = %d, want 90", got)
	}
	if got := openalex.lastQuery().MaxResults; got != 30 {
		t.Errorf("openalex quota = %d, want 30", got)
	}
	if got := pubmed.lastQuery().MaxResults; got != 30 {
		t.Errorf("pubmed quota = %d, want 30", got)
	}
}

func TestSearchQuotaFloor(t *testing.T) {
	openalex := &mockSource{name: types.SourceOpenAlex}
	arxiv := &mockSource{name: types.SourceArxiv}

	sort, _ := SortChoiceByKey("openalex-relevance")
	q := Query{Text: "test", MaxResults: 12, Sort: sort}

	var buf bytes.Buffer
	_, err := Search(context.Background(), q, []Source{openalex, arxiv}, testCfg(), &buf)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// 12/2 = 6 is below the floor of 10.
	if got := arxiv.lastQuery().MaxResults; got != 10 {
		t.Errorf("non-target quota = %d, want floor 10", got)
	}
	if got := openalex.lastQuery().MaxResults; got != 12 {
		t.Errorf("sort target quota = %d, want 12", got)
	}
}

func TestSearchMaxResults(t *testing.T) {
	var records []types.Record
	for i := 0; i < 30; i++ {
		records = append(records, types.Record{
			Title: fmt.Sprintf("Paper %d", i),
			DOI:   fmt.Sprintf("10.1/p%d", i),
		})
	}
	mock := &mockSource{name: types.SourceOpenAlex, records: records}

	var buf bytes.Buffer
	out, err := Search(context.Background(), Query{Text: "test", MaxResults: 10}, []Source{mock}, testCfg(), &buf)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out.Records) != 10 {
		t.Errorf("len(Records) = %d, want 10", len(out.Records))
	}
}

// --- Failure handling ---

func TestSearchContinuesAfterSourceFailure(t *testing.T) {
	failing := &mockSource{name: types.SourceOpenAlex, err: fmt.Errorf("network error")}
	working := &mockSource{
		name: types.SourceArxiv,
		records: []types.Record{
			{Title: "Paper A", DOI: "10.1/a", Source: types.SourceArxiv},
		},
	}

	var buf bytes.Buffer
	out, err := Search(context.Background(), Query{Text: "test"}, []Source{failing, working}, testCfg(), &buf)
	if err != nil {
		t.Fatalf("Search should not fail entirely: %v", err)
	}
	if len(out.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(out.Records))
	}
	if len(out.SourceErrors) != 1 {
		t.Fatalf("len(SourceErrors) = %d, want 1", len(out.SourceErrors))
	}
	if out.SourceErrors[0].Source != types.SourceOpenAlex {
		t.Errorf("SourceErrors[0].Source = %q, want openalex", out.SourceErrors[0].Source)
	}
	if !strings.Contains(buf.String(), "warning:") {
		t.Error("output should contain warning about failed source")
	}
}

// --- Merge order ---

func TestSearchMergesInSourceOrder(t *testing.T) {
	first := &mockSource{
		name: types.SourceOpenAlex,
		records: []types.Record{
			{Title: "OA Paper", DOI: "10.1/shared", Source: types.SourceOpenAlex},
		},
	}
	second := &mockSource{
		name: types.SourceArxiv,
		records: []types.Record{
			{Title: "arXiv Paper", DOI: "10.1/SHARED", Source: types.SourceArxiv},
			{Title: "arXiv Only", DOI: "10.1/b", Source: types.SourceArxiv},
		},
	}

	var buf bytes.Buffer
	out, err := Search(context.Background(), Query{Text: "test"}, []Source{first, second}, testCfg(), &buf)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if out.DupsRemoved != 1 {
		t.Errorf("DupsRemoved = %d, want 1", out.DupsRemoved)
	}
	if len(out.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(out.Records))
	}
	// First source wins the duplicate even though sources run concurrently.
	if out.Records[0].Source != types.SourceOpenAlex {
		t.Errorf("Records[0].Source = %q, want openalex", out.Records[0].Source)
	}
	if out.Records[1].Title != "arXiv Only" {
		t.Errorf("Records[1].Title = %q, want arXiv Only", out.Records[1].Title)
	}
}

// --- Output formatting ---

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(SearchOutput{}, &buf)
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("output = %q, want no-results message", buf.String())
	}
}

func TestFormatTableSummaryLine(t *testing.T) {
	out := SearchOutput{
		Records: []types.Record{
			{Title: "Paper A", Year: 2023, Source: types.SourceArxiv},
			{Title: "Paper B", Year: 2022, Source: types.SourcePubMed},
		},
		DupsRemoved: 3,
	}
	var buf bytes.Buffer
	FormatTable(out, &buf)
	if !strings.Contains(buf.String(), "2 results (3 duplicates removed)") {
		t.Errorf("output missing summary line:\n%s", buf.String())
	}
}
