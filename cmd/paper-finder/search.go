// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-finder/internal/cache"
	"github.com/pdiddy/paper-finder/internal/export"
	"github.com/pdiddy/paper-finder/internal/search"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// defaultContactEmail is a placeholder the user is expected to replace;
// OpenAlex and NCBI both want a real address on polite traffic.
const defaultContactEmail = "youremail@example.com"

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search scholarly APIs for open-access papers",
	Long: `Search queries OpenAlex, arXiv, and PubMed for open-access papers
matching a free-text query, merges the results in a fixed source order,
and removes duplicates by DOI and URL. Results print as a table by
default; --json, --csv, and --save select other outputs.

The sort key both picks a native ranking and names its target source:
that source receives the full result cap while the others split it.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	sortKey, _ := cmd.Flags().GetString("sort")
	sortChoice, err := search.SortChoiceByKey(sortKey)
	if err != nil {
		return err
	}

	yearFrom, _ := cmd.Flags().GetInt("from")
	yearTo, _ := cmd.Flags().GetInt("to")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	query := search.Query{
		Text:       queryText,
		YearFrom:   yearFrom,
		YearTo:     yearTo,
		MaxResults: maxResults,
		Sort:       sortChoice,
	}
	if query.IsEmpty() {
		return fmt.Errorf("query required: pass keywords as arguments or with --query")
	}

	sourceNames, err := parseSources(cmd)
	if err != nil {
		return err
	}

	cfg, err := searchConfig(cmd)
	if err != nil {
		return err
	}

	withAbstracts, _ := cmd.Flags().GetBool("abstracts")

	ctx := context.Background()

	store, key := openCache(cmd, query, sourceNames, withAbstracts)
	if store != nil {
		defer store.Close()
		entry, err := store.Get(ctx, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache read failed: %v\n", err)
		} else if entry != nil {
			fmt.Fprintf(os.Stderr, "Using cached results from %s\n", entry.FetchedAt.Local().Format(time.RFC822))
			return writeOutputs(cmd, query, sourceNames, search.SearchOutput{Records: entry.Records})
		}
	}

	sources := buildSources(sourceNames, withAbstracts)

	out, err := search.Search(ctx, query, sources, cfg, os.Stderr)
	if err != nil {
		return err
	}

	if store != nil && len(out.SourceErrors) == 0 {
		if err := store.Put(ctx, key, out.Records); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache write failed: %v\n", err)
		}
	}

	return writeOutputs(cmd, query, sourceNames, out)
}

// parseSources validates the --sources flag and returns the selection
// normalized to the fixed aggregation order.
func parseSources(cmd *cobra.Command) ([]types.SourceType, error) {
	raw, _ := cmd.Flags().GetString("sources")

	requested := make(map[types.SourceType]bool)
	for _, name := range strings.Split(raw, ",") {
		s := types.SourceType(strings.ToLower(strings.TrimSpace(name)))
		if s == "" {
			continue
		}
		if !s.Valid() {
			return nil, fmt.Errorf("unknown source %q: use openalex, arxiv, pubmed", name)
		}
		requested[s] = true
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("no sources selected")
	}

	var names []types.SourceType
	for _, s := range types.AllSources {
		if requested[s] {
			names = append(names, s)
		}
	}
	return names, nil
}

// buildSources instantiates the clients for the selected sources, in
// order.
func buildSources(names []types.SourceType, withAbstracts bool) []search.Source {
	var sources []search.Source
	for _, name := range names {
		switch name {
		case types.SourceOpenAlex:
			sources = append(sources, &search.OpenAlexSource{})
		case types.SourceArxiv:
			sources = append(sources, &search.ArxivSource{})
		case types.SourcePubMed:
			sources = append(sources, &search.PubMedSource{FetchAbstracts: withAbstracts})
		}
	}
	return sources
}

func searchConfig(cmd *cobra.Command) (types.SearchConfig, error) {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	email, _ := cmd.Flags().GetString("contact-email")
	if email == "" {
		email = viper.GetString("contact_email")
	}
	email = secretDefault("contact-email", email)
	if email == "" {
		email = defaultContactEmail
	}

	apiKey := secretDefault("ncbi-api-key", viper.GetString("ncbi_api_key"))

	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: fmt.Sprintf("paper-finder/%s (mailto:%s)", version, email),
		},
		ContactEmail: email,
		NCBIAPIKey:   apiKey,
	}
	return cfg, nil
}

// openCache opens the search cache unless disabled. Cache failures are
// not fatal; the search just goes to the network.
func openCache(cmd *cobra.Command, query search.Query, sources []types.SourceType, withAbstracts bool) (*cache.Store, string) {
	noCache, _ := cmd.Flags().GetBool("no-cache")
	cfg := types.CacheConfig{
		Dir:      viper.GetString("cache_dir"),
		TTL:      viper.GetDuration("cache_ttl"),
		Disabled: noCache || viper.GetBool("cache_disabled"),
	}
	if cfg.Disabled {
		return nil, ""
	}
	if cfg.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, ""
		}
		cfg.Dir = filepath.Join(home, ".cache", "paper-finder")
	}

	store, err := cache.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cache unavailable: %v\n", err)
		return nil, ""
	}

	key := cache.Key(query.Text, query.YearFrom, query.YearTo, query.MaxResults, query.Sort.Key, sources, withAbstracts)
	return store, key
}

// writeOutputs renders the results to every requested destination.
func writeOutputs(cmd *cobra.Command, query search.Query, sources []types.SourceType, out search.SearchOutput) error {
	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := search.WriteQueryFile(savePath, query, sources, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d records to %s\n", len(out.Records), savePath)
	}

	if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("creating CSV file: %w", err)
		}
		defer f.Close()
		if err := export.WriteCSV(f, out.Records); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", len(out.Records), csvPath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return export.WriteJSON(os.Stdout, out.Records)
	}
	search.FormatTable(out, os.Stdout)
	return nil
}

func init() {
	searchCmd.Flags().String("query", "", "free-text search query (alternative to positional arguments)")
	searchCmd.Flags().Int("from", 0, "publication year range start (inclusive)")
	searchCmd.Flags().Int("to", 0, "publication year range end (inclusive)")
	searchCmd.Flags().Int("max-results", 100, "maximum number of merged results")
	searchCmd.Flags().String("sources", "openalex,arxiv,pubmed", "comma-separated sources to query")
	searchCmd.Flags().String("sort", "openalex-relevance", "sort key: openalex-relevance, openalex-newest, openalex-cited, arxiv-relevance, arxiv-updated, arxiv-submitted, pubmed-relevance, pubmed-recent")
	searchCmd.Flags().Bool("abstracts", false, "fetch PubMed abstracts (extra requests; OpenAlex and arXiv abstracts come with the results)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("csv", "", "also write results to a CSV file")
	searchCmd.Flags().String("save", "", "also save the query and results to a YAML file for later analysis")
	searchCmd.Flags().Bool("no-cache", false, "bypass the local search cache")
	searchCmd.Flags().Duration("timeout", 30*time.Second, "HTTP timeout per request")
	searchCmd.Flags().String("contact-email", "", "contact email sent to APIs (or .secrets/contact-email)")

	rootCmd.AddCommand(searchCmd)
}
