package screener

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// LoadSymbolsCSV reads the first column of a CSV with a header row.
func LoadSymbolsCSV(filename string) ([]string, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("CSV file does not exist: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var symbols []string
	for i, record := range records {
		if i == 0 || len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		symbols = append(symbols, strings.TrimSpace(strings.ToUpper(record[0])))
	}
	return symbols, nil
}

// ParseSymbols splits a comma separated flag value.
func ParseSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(strings.ToUpper(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
