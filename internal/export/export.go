// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes search records to interchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Columns is the CSV header, in output order. The column names mirror
// the JSON field names so both exports line up.
var Columns = []string{"title", "authors", "year", "venue", "doi", "url_pdf", "url_landing", "source"}

// WriteCSV writes records as CSV with a header row. A zero year renders
// as an empty cell.
func WriteCSV(w io.Writer, records []types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		row := []string{r.Title, r.Authors, year, r.Venue, r.DOI, r.PDFURL, r.LandingURL, string(r.Source)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []types.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
