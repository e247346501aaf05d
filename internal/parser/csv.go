package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// csvRowsPerPage groups data rows into pages of manageable size.
const csvRowsPerPage = 20

// CSVPages renders CSV data as pages of csvRowsPerPage rows. Every page
// repeats the header row and labels each cell with its column.
func CSVPages(data []byte) (Pages, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return Pages{""}, nil
	}

	// First row is headers.
	headers := records[0]
	rows := records[1:]
	if len(rows) == 0 {
		return Pages{"Headers: " + strings.Join(headers, ", ")}, nil
	}

	var pages Pages
	for i := 0; i < len(rows); i += csvRowsPerPage {
		batch := rows[i:min(i+csvRowsPerPage, len(rows))]

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n")
		for _, row := range batch {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}
		pages = append(pages, text.String())
	}
	return pages, nil
}
