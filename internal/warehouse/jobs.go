package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LookupDataset returns ErrDatasetNotFound when the dataset does not exist.
// Any other error means the lookup itself failed.
func (w *Warehouse) LookupDataset(ctx context.Context, dataset string) error {
	var name string
	err := w.db.QueryRowContext(ctx, SQLSelectSchema, dataset).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDatasetNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up dataset %s: %w", dataset, err)
	}
	return nil
}

// EnsureDataset creates the dataset if, and only if, it does not exist yet.
func (w *Warehouse) EnsureDataset(ctx context.Context, dataset string) (bool, error) {
	err := w.LookupDataset(ctx, dataset)
	if err == nil {
		w.logger.Info("dataset already exists", zap.String("dataset", dataset))
		return false, nil
	}
	if !errors.Is(err, ErrDatasetNotFound) {
		return false, err
	}

	if _, err := w.db.ExecContext(ctx, fmt.Sprintf(SQLCreateSchemaTemplate, QuoteIdent(dataset))); err != nil {
		return false, fmt.Errorf("failed to create dataset %s: %w", dataset, err)
	}
	w.logger.Info("dataset created", zap.String("dataset", dataset))
	return true, nil
}

// LoadNDJSON replaces dataset.table with every newline-delimited JSON file matching
// sourceURI (globs allowed). The schema is inferred from the files. It returns the
// number of rows loaded.
func (w *Warehouse) LoadNDJSON(ctx context.Context, dataset, table, sourceURI string) (int64, error) {
	start := time.Now()
	target := qualified(dataset, table)
	rows, err := w.replaceTable(ctx, "", target, fmt.Sprintf(SQLLoadNDJSONTemplate, target, QuoteLiteral(sourceURI)))
	if err != nil {
		return 0, fmt.Errorf("failed to load %s into %s: %w", sourceURI, target, err)
	}
	w.logger.Info("load job finished",
		zap.String("source", sourceURI),
		zap.String("table", dataset+"."+table),
		zap.Int64("rows", rows),
		zap.Duration("duration", time.Since(start)))
	return rows, nil
}

// RunQuery executes query and materializes its result into dataset.table, replacing
// whatever the table held before. Unqualified names in query resolve in dataset. It
// returns the number of result rows.
func (w *Warehouse) RunQuery(ctx context.Context, query, dataset, table string) (int64, error) {
	start := time.Now()
	target := qualified(dataset, table)
	rows, err := w.replaceTable(ctx, dataset, target, fmt.Sprintf(SQLCreateTableAsTemplate, target, trimStatement(query)))
	if err != nil {
		return 0, fmt.Errorf("failed to run query into %s: %w", target, err)
	}
	w.logger.Info("query job finished",
		zap.String("table", dataset+"."+table),
		zap.Int64("rows", rows),
		zap.Duration("duration", time.Since(start)))
	return rows, nil
}

// ExportCSV writes dataset.table to destURI as CSV with a header row, overwriting it.
func (w *Warehouse) ExportCSV(ctx context.Context, dataset, table, destURI string) error {
	start := time.Now()
	target := qualified(dataset, table)
	if _, err := w.db.ExecContext(ctx, fmt.Sprintf(SQLExportCSVTemplate, target, QuoteLiteral(destURI))); err != nil {
		return fmt.Errorf("failed to export %s to %s: %w", target, destURI, err)
	}
	w.logger.Info("export job finished",
		zap.String("table", dataset+"."+table),
		zap.String("destination", destURI),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// replaceTable runs a CREATE OR REPLACE statement and counts the resulting rows in one
// transaction, so readers never observe a half-replaced table. A non-empty searchSchema
// becomes the connection's search path for the statement.
func (w *Warehouse) replaceTable(ctx context.Context, searchSchema, target, stmt string) (int64, error) {
	conn, err := w.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	if searchSchema != "" {
		if _, err := conn.ExecContext(ctx, fmt.Sprintf(SQLSetSearchPathTemplate, QuoteLiteral(searchSchema))); err != nil {
			return 0, fmt.Errorf("failed to set search path: %w", err)
		}
		defer func() {
			if _, err := conn.ExecContext(context.Background(), SQLResetSearchPath); err != nil {
				w.logger.Warn("failed to reset search path", zap.Error(err))
			}
		}()
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return 0, err
	}
	var rows int64
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(SQLCountRowsTemplate, target)).Scan(&rows); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rows, nil
}
