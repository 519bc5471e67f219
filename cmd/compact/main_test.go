package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeStaged(t *testing.T, dir, name string, lines ...string) string {
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return p
}

func TestCompactParquet(t *testing.T) {
	dir := t.TempDir()
	writeStaged(t, dir, "apifootball_get_events_2022-08-27.json", `{"match_id":"1"}`, `{"match_id":"2"}`)
	writeStaged(t, dir, "apifootball_get_events_2022-08-28.json", `{"match_id":"3","league_name":"Serie A"}`)
	out := filepath.Join(dir, "snapshot.parquet")

	rows, err := compact(context.Background(), []string{filepath.Join(dir, "apifootball_get_events_*")}, out, "parquet")
	require.NoError(t, err)
	require.EqualValues(t, 3, rows)

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM read_parquet('"+out+"') WHERE league_name IS NULL").Scan(&count))
	require.Equal(t, 2, count, "columns missing from some files are filled with NULL")
}

func TestCompactCommandCSV(t *testing.T) {
	dir := t.TempDir()
	a := writeStaged(t, dir, "a.json", `{"match_id":"1"}`)
	b := writeStaged(t, dir, "b.json", `{"match_id":"2"}`)
	out := filepath.Join(dir, "snapshot.csv")

	cmd := newCompactCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"-o", out, a, b})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Contains(t, stdout.String(), "2 rows from 2 inputs")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "match_id\n1\n2\n", string(data))
}

func TestCompactErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeStaged(t, dir, "a.json", `{"match_id":"1"}`)

	_, err := compact(context.Background(), []string{in}, filepath.Join(dir, "out.xlsx"), "xlsx")
	require.Error(t, err)

	_, err = compact(context.Background(), []string{filepath.Join(dir, "missing_*")}, filepath.Join(dir, "out.parquet"), "parquet")
	require.Error(t, err)

	cmd := newCompactCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{in})
	require.Error(t, cmd.Execute(), "output flag is required")
}

func TestFormatFromPath(t *testing.T) {
	require.Equal(t, "csv", formatFromPath("x/out.CSV"))
	require.Equal(t, "parquet", formatFromPath("x/out.parquet"))
	require.Equal(t, "parquet", formatFromPath("out"))
}
