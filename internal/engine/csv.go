package engine

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// parseCSV разбирает сырой текст как CSV с заголовочной строкой.
// Значения ячеек остаются строками: приведение к числам выполняют
// операторы по месту использования.
func parseCSV(raw string) (Table, error) {
	r := csv.NewReader(strings.NewReader(raw))
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header := records[0]
	table := make(Table, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		table = append(table, row)
	}
	return table, nil
}
