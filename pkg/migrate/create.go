package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const maxNameLength = 80

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// CreateOptions tweaks the generated template.
type CreateOptions struct {
	// NoTransaction marks the file for statements such as
	// CREATE INDEX CONCURRENTLY that cannot run inside a transaction.
	NoTransaction bool
	Now           func() time.Time
}

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<name>.sql and returns its path.
func CreateSQLMigration(dir string, name string, opts ...CreateOptions) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	var opt CreateOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}

	safe, err := sanitizeName(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	filename := fmt.Sprintf("%s_%s.sql", opt.Now().UTC().Format("20060102150405"), safe)
	fullpath := filepath.Join(dir, filename)
	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}

	if err := os.WriteFile(fullpath, []byte(migrationTemplate(safe, opt.NoTransaction)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func sanitizeName(name string) (string, error) {
	safe := strings.ToLower(strings.TrimSpace(name))
	if safe == "" {
		return "", fmt.Errorf("name is required")
	}
	safe = nameSanitizeRe.ReplaceAllString(strings.ReplaceAll(safe, " ", "_"), "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if len(safe) > maxNameLength {
		safe = strings.TrimRight(safe[:maxNameLength], "_")
	}
	return safe, nil
}

func migrationTemplate(name string, noTx bool) string {
	var b strings.Builder
	if noTx {
		b.WriteString("-- +goose NO TRANSACTION\n")
	}
	fmt.Fprintf(&b, "%s\n-- +goose StatementBegin\n-- %s\n-- +goose StatementEnd\n\n", upMarker, name)
	fmt.Fprintf(&b, "%s\n-- +goose StatementBegin\n-- rollback %s\n-- +goose StatementEnd\n", downMarker, name)
	return b.String()
}
