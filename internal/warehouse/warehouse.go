package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwanhae/kickoff/internal/utils"
	_ "github.com/marcboeker/go-duckdb/v2"
	"go.uber.org/zap"
)

// ErrDatasetNotFound is returned by LookupDataset when the dataset (DuckDB schema) is absent.
var ErrDatasetNotFound = errors.New("dataset not found")

// Warehouse runs bulk loads, query jobs and exports against a DuckDB database.
type Warehouse struct {
	db     *sql.DB
	dbPath string
	logger *zap.Logger
}

// Open opens (or creates) the DuckDB database at dbPath. An empty path opens an
// in-memory database.
func Open(dbPath string, logger *zap.Logger) (*Warehouse, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create warehouse directory: %w", err)
		}
		dsn = dbPath + "?access_mode=READ_WRITE"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Warehouse{
		db:     db,
		dbPath: dbPath,
		logger: logger.Named("warehouse"),
	}, nil
}

// S3Options lets the warehouse read from and write to an S3-compatible bucket directly.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// ConfigureObjectStore loads the httpfs extension and registers S3 credentials, so
// s3:// URIs work in LoadNDJSON and ExportCSV.
func (w *Warehouse) ConfigureObjectStore(ctx context.Context, opts S3Options) error {
	if _, err := w.db.ExecContext(ctx, SQLInstallHTTPFS); err != nil {
		return fmt.Errorf("failed to load httpfs extension: %w", err)
	}
	if _, err := w.db.ExecContext(ctx, fmt.Sprintf(SQLCreateS3SecretTemplate, s3SecretParams(opts))); err != nil {
		return fmt.Errorf("failed to register object store secret: %w", err)
	}
	w.logger.Info("object store configured", zap.String("endpoint", opts.Endpoint), zap.String("region", opts.Region))
	return nil
}

func s3SecretParams(opts S3Options) string {
	params := []string{
		"KEY_ID " + QuoteLiteral(opts.AccessKey),
		"SECRET " + QuoteLiteral(opts.SecretKey),
		"REGION " + QuoteLiteral(opts.Region),
		fmt.Sprintf("USE_SSL %t", opts.UseSSL),
	}
	if opts.Endpoint != "" {
		params = append(params, "ENDPOINT "+QuoteLiteral(opts.Endpoint), "URL_STYLE 'path'")
	}
	return strings.Join(params, ", ")
}

// Stats returns warehouse statistics. Failures of individual lookups are reported
// under "errors" instead of failing the whole call.
func (w *Warehouse) Stats(ctx context.Context) map[string]any {
	errs := &utils.MultiError{}

	tables, err := w.query(ctx, SQLListTables)
	if err != nil {
		errs.Add(fmt.Errorf("warehouse: error listing tables: %w", err))
	}
	memory, err := w.query(ctx, SQLMemoryUsage)
	if err != nil {
		errs.Add(fmt.Errorf("warehouse: error getting memory usage: %w", err))
	}

	var errMsgs []string
	for _, e := range errs.Unwrap() {
		errMsgs = append(errMsgs, e.Error())
	}

	return map[string]any{
		"db_path":       w.dbPath,
		"db_stats":      w.db.Stats(),
		"tables":        tables,
		"duckdb_memory": memory,
		"errors":        errMsgs,
	}
}

func (w *Warehouse) query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return serializeRows(rows)
}

// Close closes the database connection.
func (w *Warehouse) Close() {
	w.logger.Info("closing warehouse")
	if err := w.db.Close(); err != nil {
		w.logger.Error("error closing database", zap.Error(err))
	}
}
