package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	versionLayout = "20060102150405"
	markerUp      = "-- +goose Up"
	markerDown    = "-- +goose Down"
)

var (
	migrationName = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugJunk      = regexp.MustCompile(`[^a-z0-9]+`)
)

const migrationTemplate = markerUp + `
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

` + markerDown + `
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes an empty goose migration named
// <dir>/<UTC timestamp>_<slug>.sql and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", errors.New("migrations dir is required")
	}
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	target := filepath.Join(dir, now.Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("migration %s already exists", target)
		}
		return "", err
	}
	_, werr := fmt.Fprintf(f, migrationTemplate, slug)
	if err := multierr.Append(werr, f.Close()); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

func slugify(name string) string {
	s := slugJunk.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(s, "_")
}

// ValidateDir checks the migrations checked out at dir.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("migrations dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS checks every .sql file at the root of fsys and reports all
// problems at once: bad names, reused versions, missing goose markers.
func ValidateFS(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	var problems error
	owners := make(map[string]string, len(files))
	for _, file := range files {
		m := migrationName.FindStringSubmatch(path.Base(file))
		if m == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: want YYYYMMDDHHMMSS_snake_name.sql", file))
			continue
		}
		if first, dup := owners[m[1]]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %s already used by %s", file, m[1], first))
		}
		owners[m[1]] = file
		problems = multierr.Append(problems, checkMarkers(fsys, file))
	}
	return problems
}

func checkMarkers(fsys fs.FS, file string) error {
	body, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	var problems error
	for _, marker := range []string{markerUp, markerDown} {
		if !strings.Contains(string(body), marker) {
			problems = multierr.Append(problems, fmt.Errorf("%s: missing %q", file, marker))
		}
	}
	return problems
}
