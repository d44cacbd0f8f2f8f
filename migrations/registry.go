// Package migrations locates the receiver schema for each SQL dialect and
// hands it to a migration runner.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	lzreceiver "github.com/goliatone/go-lzreceiver"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	SourceLabel = "go-lzreceiver"

	schemaRoot = "data/sql/migrations"
)

// ReceiverTables are the tables every dialect's schema must create.
var ReceiverTables = []string{
	"lz_channels",
	"lz_remotes",
	"lz_cleared_messages",
	"lz_compose_messages",
}

var createTablePattern = regexp.MustCompile(`(?i)create\s+table\s+(?:if\s+not\s+exists\s+)?([a-z0-9_]+)`)

// Source is the validated migration set for one dialect.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
	Ups     []string
}

type RegisterFunc func(ctx context.Context, source Source) error

type config struct {
	root     fs.FS
	dialects []string
}

type Option func(*config)

// WithDialects limits registration to the given dialects.
func WithDialects(dialects ...string) Option {
	return func(c *config) {
		if len(dialects) > 0 {
			c.dialects = dialects
		}
	}
}

// WithRoot reads the schema from root instead of the embedded files.
func WithRoot(root fs.FS) Option {
	return func(c *config) {
		if root != nil {
			c.root = root
		}
	}
}

// DialectForDriver maps a database/sql driver name to its schema dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "postgres", "pg", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: no receiver schema for driver %q", driver)
	}
}

// Sources resolves and validates the schema of each dialect under root.
// Every up migration needs a down pair, and the ups together must create
// all ReceiverTables.
func Sources(root fs.FS, dialects ...string) ([]Source, error) {
	if root == nil {
		root = lzreceiver.GetMigrationsFS()
	}
	if len(dialects) == 0 {
		dialects = []string{DialectPostgres, DialectSQLite}
	}
	sources := make([]Source, 0, len(dialects))
	seen := map[string]bool{}
	for _, dialect := range dialects {
		dialect = strings.TrimSpace(strings.ToLower(dialect))
		if seen[dialect] {
			continue
		}
		seen[dialect] = true
		source, err := loadSource(root, dialect)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// Register validates the selected dialects and calls registerFn once per
// dialect, postgres first.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) ([]Source, error) {
	if registerFn == nil {
		return nil, fmt.Errorf("migrations: register function is required")
	}
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	sources, err := Sources(cfg.root, cfg.dialects...)
	if err != nil {
		return nil, err
	}
	for _, source := range sources {
		if err := registerFn(ctx, source); err != nil {
			return nil, fmt.Errorf("migrations: register %s (%s): %w", source.Dialect, source.Path, err)
		}
	}
	return sources, nil
}

func loadSource(root fs.FS, dialect string) (Source, error) {
	path := schemaRoot
	switch dialect {
	case DialectPostgres:
	case DialectSQLite:
		path = schemaRoot + "/sqlite"
	default:
		return Source{}, fmt.Errorf("migrations: unknown dialect %q", dialect)
	}
	sub, err := fs.Sub(root, path)
	if err != nil {
		return Source{}, fmt.Errorf("migrations: resolve %s: %w", path, err)
	}
	ups, err := fs.Glob(sub, "*.up.sql")
	if err != nil {
		return Source{}, fmt.Errorf("migrations: glob %s: %w", path, err)
	}
	if len(ups) == 0 {
		return Source{}, fmt.Errorf("migrations: %s has no *.up.sql files", path)
	}

	created := map[string]bool{}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(sub, down); err != nil {
			return Source{}, fmt.Errorf("migrations: %s/%s has no down migration", path, up)
		}
		content, err := fs.ReadFile(sub, up)
		if err != nil {
			return Source{}, fmt.Errorf("migrations: read %s/%s: %w", path, up, err)
		}
		for _, match := range createTablePattern.FindAllStringSubmatch(string(content), -1) {
			created[strings.ToLower(match[1])] = true
		}
	}
	for _, table := range ReceiverTables {
		if !created[table] {
			return Source{}, fmt.Errorf("migrations: %s schema does not create %s", dialect, table)
		}
	}
	return Source{Dialect: dialect, Path: path, FS: sub, Ups: ups}, nil
}
