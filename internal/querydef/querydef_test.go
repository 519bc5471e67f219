package querydef

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoadKeepsOrderAndContent(t *testing.T) {
	fsys := fstest.MapFS{
		"query_a.sql": {Data: []byte("SELECT 1;\n")},
		"query_b.sql": {Data: []byte("SELECT 2")},
		"nested/query_c.sql": {Data: []byte("-- comment\nSELECT 3")},
	}

	defs, err := Load(fsys, []string{"query_b.sql", "query_a.sql", "nested/query_c.sql"})
	require.NoError(t, err)
	require.Len(t, defs, 3)

	require.Equal(t, QueryDefinition{Name: "query_b", File: "query_b.sql", SQL: "SELECT 2"}, defs[0])
	require.Equal(t, "query_a", defs[1].Name)
	require.Equal(t, "SELECT 1;\n", defs[1].SQL, "SQL must be passed through verbatim")
	require.Equal(t, "query_c", defs[2].Name)
	require.Equal(t, "query_c.csv", defs[2].CSVName())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(fstest.MapFS{}, []string{"query_a.sql"})
	require.Error(t, err)
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadDuplicateName(t *testing.T) {
	fsys := fstest.MapFS{
		"query_a.sql":   {Data: []byte("SELECT 1")},
		"x/query_a.sql": {Data: []byte("SELECT 2")},
	}
	_, err := Load(fsys, []string{"query_a.sql", "x/query_a.sql"})
	require.Error(t, err)
}

func TestLoadEmptyList(t *testing.T) {
	defs, err := Load(fstest.MapFS{}, nil)
	require.NoError(t, err)
	require.Empty(t, defs)
}

func TestNameOf(t *testing.T) {
	require.Equal(t, "query_d", NameOf("queries/query_d.sql"))
	require.Equal(t, "summary", NameOf("summary"))
	require.Equal(t, "", NameOf(""))
}
