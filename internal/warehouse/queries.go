package warehouse

const (
	SQLSelectSchema = `
SELECT schema_name
FROM information_schema.schemata
WHERE schema_name = ? AND catalog_name = current_database()`

	// %s: quoted schema name
	SQLCreateSchemaTemplate = `CREATE SCHEMA IF NOT EXISTS %s`

	// %s: qualified table, %s: quoted source uri
	SQLLoadNDJSONTemplate = `
CREATE OR REPLACE TABLE %s AS
SELECT * FROM read_json_auto(%s, format = 'newline_delimited', union_by_name = true)`

	// %s: qualified table, %s: query body
	SQLCreateTableAsTemplate = `CREATE OR REPLACE TABLE %s AS %s`

	// %s: qualified table
	SQLCountRowsTemplate = `SELECT COUNT(*) FROM %s`

	// %s: qualified table, %s: quoted destination uri
	SQLExportCSVTemplate = `COPY %s TO %s (FORMAT csv, HEADER true)`

	// %s: quoted schema name
	SQLSetSearchPathTemplate = `SET search_path = %s`

	SQLResetSearchPath = `RESET search_path`

	SQLInstallHTTPFS = `INSTALL httpfs; LOAD httpfs;`

	// %s: comma separated secret parameters
	SQLCreateS3SecretTemplate = `CREATE OR REPLACE SECRET kickoff_s3 (TYPE s3, %s)`

	SQLListTables = `
SELECT schema_name, table_name, estimated_size, column_count
FROM duckdb_tables()
ORDER BY schema_name, table_name`

	SQLMemoryUsage = `SELECT tag, memory_usage_bytes FROM duckdb_memory() WHERE memory_usage_bytes > 0`
)
