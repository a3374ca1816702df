package schemaload

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqltype/pkg/catalog"
)

// FromFiles replays the DDL in each path. Directories are walked in
// lexical order and contribute their *.sql files.
func FromFiles(b *catalog.Builder, paths ...string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no schema files given")
	}
	for _, p := range paths {
		files, err := sqlFiles(p)
		if err != nil {
			return err
		}
		for _, f := range files {
			data, err := os.ReadFile(f) //nolint:gosec // G304: path comes from user configuration
			if err != nil {
				return fmt.Errorf("failed to read schema file: %w", err)
			}
			if err := b.RegisterScript(string(data)); err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
		}
	}
	return nil
}

// sqlFiles expands a path into the schema files it names.
func sqlFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat schema path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".sql") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk schema directory: %w", err)
	}
	return files, nil
}
