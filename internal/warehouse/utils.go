package warehouse

import (
	"database/sql"
	"fmt"
	"strings"
)

// serializeRows converts database rows to a slice of maps
func serializeRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		rowValues := make([]any, len(columns))
		rowPointers := make([]any, len(columns))
		for i := range rowValues {
			rowPointers[i] = &rowValues[i]
		}

		if err := rows.Scan(rowPointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowData := make(map[string]any, len(columns))
		for i, colName := range columns {
			if b, ok := rowValues[i].([]byte); ok {
				rowData[colName] = string(b)
			} else {
				rowData[colName] = rowValues[i]
			}
		}
		results = append(results, rowData)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

// QuoteIdent quotes a schema, table or column name for DuckDB.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a string literal (file paths, URIs, secrets) for DuckDB.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// qualified returns "dataset"."table".
func qualified(dataset, table string) string {
	return QuoteIdent(dataset) + "." + QuoteIdent(table)
}

// trimStatement strips trailing semicolons so a query file can be embedded in CREATE TABLE AS.
func trimStatement(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), "; \t\r\n")
}
