package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	bankmigrations "github.com/goliatone/go-bankconnect/migrations"
	sqlstore "github.com/goliatone/go-bankconnect/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type persistenceConfig struct {
	driver string
	server string
	debug  bool
}

func (c persistenceConfig) GetDebug() bool                { return c.debug }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.server }
func (c persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c persistenceConfig) GetOtelIdentifier() string     { return "bankconnect-cli" }

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// openExportStore connects to dsn, applies the export schema, and returns a
// store plus its close func.
func openExportStore(ctx context.Context, dsn string, debug bool) (*sqlstore.ExportStore, func(), error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, nil, fmt.Errorf("export dsn is required")
	}
	driver := "sqlite3"
	if isPostgresDSN(dsn) {
		driver = "postgres"
	}
	dialect, err := bankmigrations.DialectForDriver(driver)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		sqlDB.SetMaxOpenConns(1)
	}

	cfg := persistenceConfig{driver: driver, server: dsn, debug: debug}
	var client *persistence.Client
	if dialect == bankmigrations.DialectPostgres {
		client, err = persistence.New(cfg, sqlDB, pgdialect.New())
	} else {
		client, err = persistence.New(cfg, sqlDB, sqlitedialect.New())
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("new persistence client: %w", err)
	}
	closeClient := func() { _ = client.Close() }

	if err := bankmigrations.Apply(ctx, client, dialect); err != nil {
		closeClient()
		return nil, nil, err
	}

	store, err := sqlstore.NewExportStoreFromPersistence(client)
	if err != nil {
		closeClient()
		return nil, nil, err
	}
	return store, closeClient, nil
}
