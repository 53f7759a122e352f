// Package assets bundles the files the binaries need at runtime:
// SQL migrations for the run history and the sample puzzle input.
package assets

import (
	"embed"
	"io/fs"
	"path"
	"sort"
)

//go:embed example.txt sql/*.sql
var FS embed.FS

// Migration is one embedded SQL script.
type Migration struct {
	Name string // file name, e.g. "001_runs.sql"
	SQL  string
}

// Example returns the sample puzzle input.
func Example() (string, error) {
	b, err := FS.ReadFile("example.txt")
	return string(b), err
}

// Migrations returns the embedded SQL scripts in lexical order.
func Migrations() ([]Migration, error) {
	names, err := fs.Glob(FS, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, n := range names {
		b, err := FS.ReadFile(n)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Name: path.Base(n), SQL: string(b)})
	}
	return out, nil
}
