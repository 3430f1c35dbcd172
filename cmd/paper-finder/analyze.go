// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/analyze"
	"github.com/pdiddy/paper-finder/internal/search"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <query-file>",
	Short: "Extract keyword statistics from a saved search",
	Long: `Analyze reads a query file saved by search --save and reports keyword
frequencies across the stored titles (and abstracts, with --abstracts).
It also lists uncommon words: terms that appear exactly once and are
long enough to be plausible terminology worth a follow-up search.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	qf, err := search.ReadQueryFile(args[0])
	if err != nil {
		return err
	}
	if len(qf.Records) == 0 {
		return fmt.Errorf("query file %s contains no records", args[0])
	}

	includeAbstracts, _ := cmd.Flags().GetBool("abstracts")
	topN, _ := cmd.Flags().GetInt("top")

	freq, uncommon := analyze.Keywords(qf.Records, includeAbstracts)
	top := analyze.Top(freq, topN)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		report := struct {
			Query    string              `json:"query"`
			Records  int                 `json:"records"`
			Top      []analyze.WordCount `json:"top_keywords"`
			Uncommon []string            `json:"uncommon_words"`
		}{qf.Query.Text, len(qf.Records), top, uncommon}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Query: %s (%d records)\n\n", qf.Query.Text, len(qf.Records))

	fmt.Printf("%-24s  %s\n", "Keyword", "Count")
	fmt.Println(strings.Repeat("-", 32))
	for _, wc := range top {
		fmt.Printf("%-24s  %d\n", wc.Word, wc.Count)
	}

	if len(uncommon) > 0 {
		fmt.Printf("\nUncommon words (%d):\n", len(uncommon))
		fmt.Println(strings.Join(uncommon, ", "))
	}
	return nil
}

func init() {
	analyzeCmd.Flags().Bool("abstracts", false, "include abstracts in the keyword analysis")
	analyzeCmd.Flags().Int("top", 20, "number of top keywords to report")
	analyzeCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(analyzeCmd)
}
