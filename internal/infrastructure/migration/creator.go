package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// Schema changes ship as paired up/down SQL files named
// <version>_<name>.{up,down}.sql, where the version is the creation
// timestamp so files sort in apply order.
const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

const migrationUpTemplate = `-- {{.Name}}
-- created {{.Timestamp}}
-- {{.Description}}

-- Write your UP migration SQL here

`

const migrationDownTemplate = `-- {{.Name}} (Rollback)
-- created {{.Timestamp}}
-- Reverts: {{.Description}}

-- Write your DOWN migration SQL here

`

// MigrationFile describes one up/down migration pair on disk
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration scaffolds a new up/down pair under migrationsDir,
// creating the directory if needed. The pair is created atomically: if the
// down file cannot be written the up file is removed again.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now()
	baseName := fmt.Sprintf("%s_%s", now.Format("20060102150405"), sanitizeName(name))

	mf := &MigrationFile{
		Version:     now.Format("20060102150405"),
		Name:        name,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
		UpPath:      filepath.Join(migrationsDir, baseName+upSuffix),
		DownPath:    filepath.Join(migrationsDir, baseName+downSuffix),
	}

	if err := writeMigrationFile(mf.UpPath, migrationUpTemplate, mf); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeMigrationFile(mf.DownPath, migrationDownTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return mf, nil
}

// writeMigrationFile renders one migration template to disk
func writeMigrationFile(path, tmplContent string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// sanitizeName lowercases a human migration name into a file-safe slug.
// Runs of spaces, dashes and underscores collapse to one underscore, and
// anything outside [a-z0-9_] is dropped.
func sanitizeName(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			result = append(result, c)
		case c >= 'A' && c <= 'Z':
			result = append(result, c+'a'-'A')
		case c >= '0' && c <= '9':
			result = append(result, c)
		case c == ' ' || c == '-' || c == '_':
			if len(result) > 0 && result[len(result)-1] != '_' {
				result = append(result, '_')
			}
		}
	}
	if len(result) > 0 && result[len(result)-1] == '_' {
		result = result[:len(result)-1]
	}
	return string(result)
}

// ListMigrations returns the base names of the migration pairs in a
// directory, identified by their up files. A missing directory is treated
// as an empty one.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]string, 0)
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), upSuffix) {
			continue
		}
		baseName := strings.TrimSuffix(entry.Name(), upSuffix)
		if baseName != "" && !seen[baseName] {
			seen[baseName] = true
			migrations = append(migrations, baseName)
		}
	}

	return migrations, nil
}
