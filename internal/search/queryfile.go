// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// A saved search can be reloaded later for offline analysis without
// re-querying the APIs. YAML keeps the abstracts that the JSON record
// projection omits.
type QueryFile struct {
	Query   QueryParams     `yaml:"query"`
	Config  QueryFileConfig `yaml:"config"`
	Records []types.Record  `yaml:"records"`
	Summary QuerySummary    `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Text     string             `yaml:"text"`
	YearFrom int                `yaml:"year_from,omitempty"`
	YearTo   int                `yaml:"year_to,omitempty"`
	Sort     string             `yaml:"sort,omitempty"`
	Sources  []types.SourceType `yaml:"sources,omitempty"`
}

// QueryFileConfig stores the search configuration that produced the
// records.
type QueryFileConfig struct {
	MaxResults int `yaml:"max_results"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	SourceErrors      []string  `yaml:"source_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves query parameters and records to a YAML file.
func WriteQueryFile(path string, query Query, sources []types.SourceType, out SearchOutput) error {
	qf := QueryFile{
		Query: QueryParams{
			Text:     query.Text,
			YearFrom: query.YearFrom,
			YearTo:   query.YearTo,
			Sort:     query.Sort.Key,
			Sources:  sources,
		},
		Config: QueryFileConfig{
			MaxResults: query.MaxResults,
		},
		Records: out.Records,
		Summary: QuerySummary{
			Total:             len(out.Records),
			DuplicatesRemoved: out.DupsRemoved,
			Timestamp:         time.Now(),
		},
	}
	for _, se := range out.SourceErrors {
		qf.Summary.SourceErrors = append(qf.Summary.SourceErrors, se.Error())
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToQuery converts stored QueryParams back into a Query struct.
func (p QueryParams) ToQuery() (Query, error) {
	q := Query{
		Text:     p.Text,
		YearFrom: p.YearFrom,
		YearTo:   p.YearTo,
	}
	if p.Sort != "" {
		choice, err := SortChoiceByKey(p.Sort)
		if err != nil {
			return q, err
		}
		q.Sort = choice
	}
	return q, nil
}
