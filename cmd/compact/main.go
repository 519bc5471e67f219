package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwanhae/kickoff/internal/warehouse"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/spf13/cobra"
)

func main() {
	if err := newCompactCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCompactCmd() *cobra.Command {
	var (
		outputFile string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "compact -o OUTPUT INPUT...",
		Short: "Compact staged NDJSON event files into one Parquet or CSV snapshot",
		Long: `compact reads staged newline-delimited JSON files (paths or glob patterns) and
writes their union as a single Parquet (zstd) or CSV file.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = formatFromPath(outputFile)
			}
			n, err := compact(cmd.Context(), args, outputFile, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully compacted %d rows from %d inputs into %s\n", n, len(args), outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file path (required)")
	cmd.Flags().StringVar(&format, "format", "", "output format: parquet or csv (default: from the output extension)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func formatFromPath(p string) string {
	if strings.EqualFold(filepath.Ext(p), ".csv") {
		return "csv"
	}
	return "parquet"
}

// compact writes the union of inputs to outputFile and returns the number of rows.
func compact(ctx context.Context, inputs []string, outputFile, format string) (int64, error) {
	var copyOptions string
	switch format {
	case "parquet":
		copyOptions = "(FORMAT parquet, COMPRESSION zstd)"
	case "csv":
		copyOptions = "(FORMAT csv, HEADER true)"
	default:
		return 0, fmt.Errorf("unsupported format %q", format)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return 0, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	quoted := make([]string, len(inputs))
	for i, in := range inputs {
		quoted[i] = warehouse.QuoteLiteral(in)
	}
	source := fmt.Sprintf("read_json_auto([%s], format = 'newline_delimited', union_by_name = true)", strings.Join(quoted, ", "))

	var rows int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+source).Scan(&rows); err != nil {
		return 0, fmt.Errorf("failed to read inputs: %w", err)
	}

	query := fmt.Sprintf("COPY (FROM %s) TO %s %s", source, warehouse.QuoteLiteral(outputFile), copyOptions)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("failed to execute compact query: %w", err)
	}
	return rows, nil
}
