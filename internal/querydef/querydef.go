// Package querydef loads the SQL files that drive the transform stage.
package querydef

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// DefaultFiles are the query files run when none are configured.
var DefaultFiles = []string{"query_a.sql", "query_b.sql", "query_c.sql", "query_d.sql"}

// QueryDefinition is one SQL file whose result becomes a table of the same name.
type QueryDefinition struct {
	Name string
	File string
	SQL  string
}

// CSVName is the object name the result table is exported under.
func (q QueryDefinition) CSVName() string {
	return q.Name + ".csv"
}

// Load reads every file in full, keeping the order of files. The SQL is not parsed.
func Load(fsys fs.FS, files []string) ([]QueryDefinition, error) {
	defs := make([]QueryDefinition, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, file := range files {
		name := NameOf(file)
		if name == "" {
			return nil, fmt.Errorf("invalid query file name %q", file)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("query files %s and %s both produce table %s", prev, file, name)
		}
		seen[name] = file

		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read query file %s: %w", file, err)
		}
		defs = append(defs, QueryDefinition{Name: name, File: file, SQL: string(data)})
	}
	return defs, nil
}

// NameOf returns the base name of file without its .sql extension.
func NameOf(file string) string {
	base := path.Base(file)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, ".sql")
}
