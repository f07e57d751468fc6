// Package migrations exposes the export schema per SQL dialect and registers
// it with a go-persistence-bun client.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	bankconnect "github.com/goliatone/go-bankconnect"
	persistence "github.com/goliatone/go-persistence-bun"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const schemaRoot = "data/sql/migrations"

type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithDialectSourceLabel(label string) Option {
	return func(r *Registration) {
		if label = strings.TrimSpace(label); label != "" {
			r.SourceLabel = label
		}
	}
}

// WithValidationTargets limits registration to the named dialects.
func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		var dialects []string
		for _, target := range targets {
			if dialect := normalizeDialect(target); dialect != "" && !slices.Contains(dialects, dialect) {
				dialects = append(dialects, dialect)
			}
		}
		if len(dialects) > 0 {
			r.ValidationTargets = dialects
		}
	}
}

// DialectForDriver maps a database/sql driver name onto a schema dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pgx", "pq":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("migrations: no schema for driver %q", driver)
	}
}

// Filesystems returns the postgres schema and its sqlite variant. The first
// source, when given, replaces the embedded tree.
func Filesystems(sources ...fs.FS) ([]FilesystemSpec, error) {
	root := bankconnect.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}

	specs := make([]FilesystemSpec, 0, 2)
	for _, entry := range []struct{ dialect, path string }{
		{DialectPostgres, schemaRoot},
		{DialectSQLite, schemaRoot + "/sqlite"},
	} {
		sub, err := fs.Sub(root, entry.path)
		if err != nil {
			return nil, fmt.Errorf("migrations: resolve %s schema: %w", entry.dialect, err)
		}
		ups, err := fs.Glob(sub, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: glob %s schema: %w", entry.dialect, err)
		}
		if len(ups) == 0 {
			return nil, fmt.Errorf("migrations: %s schema at %q has no *.up.sql files", entry.dialect, entry.path)
		}
		specs = append(specs, FilesystemSpec{Dialect: entry.dialect, Path: entry.path, FS: sub})
	}
	return specs, nil
}

// Register hands each targeted dialect's schema to registerFn.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       "go-bankconnect",
		ValidationTargets: []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	filesystems, err := Filesystems()
	if err != nil {
		return reg, err
	}
	reg.Filesystems = filesystems

	for _, spec := range reg.Filesystems {
		if !slices.Contains(reg.ValidationTargets, spec.Dialect) {
			continue
		}
		if err := registerFn(ctx, spec.Dialect, reg.SourceLabel, spec.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", spec.Dialect, spec.Path, err)
		}
	}
	return reg, nil
}

// Apply registers the schema for dialect on client and runs pending
// migrations.
func Apply(ctx context.Context, client *persistence.Client, dialect string) error {
	if client == nil {
		return fmt.Errorf("migrations: persistence client is required")
	}
	dialect = normalizeDialect(dialect)
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return fmt.Errorf("migrations: unknown dialect %q", dialect)
	}
	_, err := Register(ctx, func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, WithValidationTargets(dialect))
	if err != nil {
		return err
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("migrations: migrate %s: %w", dialect, err)
	}
	return nil
}

func normalizeDialect(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
