package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// The same files run against postgres and sqlite, so dialect-only syntax is
// refused up front instead of failing on one backend at deploy time.
var nonPortable = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`::\s*[a-z]`), "postgres cast (::); use CAST(x AS type)"},
	{regexp.MustCompile(`(?i)\bCREATE\s+EXTENSION\b`), "CREATE EXTENSION is postgres only"},
	{regexp.MustCompile(`(?i)\b(BIG)?SERIAL\b`), "SERIAL is postgres only"},
	{regexp.MustCompile(`(?i)\bJSONB\b`), "JSONB is postgres only"},
	{regexp.MustCompile(`(?i)\bAUTOINCREMENT\b`), "AUTOINCREMENT is sqlite only"},
	{regexp.MustCompile(`(?i)\bPRAGMA\b`), "PRAGMA is sqlite only"},
}

// ValidateDir checks every migration in dir and reports all problems at once.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
		}
		seen[m[1]] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkMigration(name, string(b)))
	}
	return errs
}

func checkMigration(name, body string) error {
	up := strings.Index(body, "-- +goose Up")
	down := strings.Index(body, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("migration %q has Down before Up", name)
	}

	var errs error
	for i, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, rule := range nonPortable {
			if rule.re.MatchString(line) {
				errs = multierr.Append(errs, fmt.Errorf("migration %q line %d: %s", name, i+1, rule.reason))
			}
		}
	}
	return errs
}
