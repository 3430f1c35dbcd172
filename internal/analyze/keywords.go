// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze extracts keyword statistics from saved search results.
package analyze

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// tokenPattern matches candidate keywords in lowercased text: a letter
// followed by at least two letters or hyphens, so hyphenated compounds
// like "anomaly-detection" survive as one token.
var tokenPattern = regexp.MustCompile(`[a-z][a-z-]{2,}`)

// stopwords are tokens too common to carry signal, including scholarly
// boilerplate that dominates titles and abstracts.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "that": {},
	"this": {}, "are": {}, "was": {}, "were": {}, "has": {}, "have": {},
	"had": {}, "but": {}, "not": {}, "its": {}, "our": {}, "can": {},
	"may": {}, "more": {}, "most": {}, "than": {}, "then": {}, "these": {},
	"those": {}, "such": {}, "into": {}, "over": {}, "under": {},
	"between": {}, "among": {}, "within": {}, "using": {}, "used": {},
	"use": {}, "based": {}, "also": {}, "which": {}, "while": {},
	"when": {}, "where": {}, "their": {}, "they": {}, "them": {},
	"been": {}, "being": {}, "both": {}, "each": {}, "other": {},
	"some": {}, "all": {}, "any": {}, "new": {}, "one": {}, "two": {},
	"via": {}, "per": {}, "however": {}, "therefore": {}, "thus": {},
	"study": {}, "studies": {}, "paper": {}, "papers": {}, "article": {},
	"present": {}, "presents": {}, "propose": {}, "proposed": {},
	"show": {}, "shows": {}, "shown": {}, "results": {}, "result": {},
	"methods": {}, "method": {}, "approach": {}, "analysis": {},
	"data": {}, "model": {}, "models": {}, "background": {},
	"conclusion": {}, "conclusions": {}, "objective": {}, "objectives": {},
	"figure": {}, "table": {}, "supplementary": {}, "significant": {},
	"significantly": {}, "respectively": {}, "including": {},
}

// minTokenLen drops short residue like "al" after trimming.
const minTokenLen = 3

// uncommonMinLen is the length floor for the singleton-word report;
// short one-off tokens are usually noise rather than terms of art.
const uncommonMinLen = 6

// WordCount pairs a keyword with its occurrence count.
type WordCount struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// Tokenize extracts keyword tokens from free text. Text is lowercased,
// matched against tokenPattern, trimmed of stray hyphens and
// apostrophes, and filtered by length and the stopword list.
func Tokenize(text string) []string {
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		tok = strings.Trim(tok, "-'")
		if len(tok) < minTokenLen {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Keywords tallies keyword frequencies across records and reports the
// uncommon words: tokens seen exactly once that are long enough to be
// plausible domain terms, sorted ascending. Titles always contribute;
// abstracts only when includeAbstracts is set.
func Keywords(records []types.Record, includeAbstracts bool) (map[string]int, []string) {
	freq := make(map[string]int)
	for _, r := range records {
		text := r.Title
		if includeAbstracts && r.Abstract != "" {
			text += " " + r.Abstract
		}
		for _, tok := range Tokenize(text) {
			freq[tok]++
		}
	}

	var uncommon []string
	for word, count := range freq {
		if count == 1 && len(word) >= uncommonMinLen {
			uncommon = append(uncommon, word)
		}
	}
	sort.Strings(uncommon)

	return freq, uncommon
}

// Top returns the n most frequent keywords, ties broken alphabetically.
func Top(freq map[string]int, n int) []WordCount {
	counts := make([]WordCount, 0, len(freq))
	for word, count := range freq {
		counts = append(counts, WordCount{Word: word, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
