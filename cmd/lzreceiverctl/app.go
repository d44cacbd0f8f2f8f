package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	lzreceiver "github.com/goliatone/go-lzreceiver"
	"github.com/goliatone/go-lzreceiver/core"
	lzmigrations "github.com/goliatone/go-lzreceiver/migrations"
	sqlstore "github.com/goliatone/go-lzreceiver/store/sql"
	"github.com/goliatone/go-lzreceiver/transport"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"

	defaultDSN = "file:lzreceiver.db?_foreign_keys=on"
)

type appOptions struct {
	driver       string
	dsn          string
	localChainID uint32
	remoteCache  bool
	cacheTTL     time.Duration
	nativeFee    uint64
	lzTokenFee   uint64
	debug        bool
}

type dbConfig struct {
	driver string
	server string
	debug  bool
}

func (c dbConfig) GetDebug() bool                { return c.debug }
func (c dbConfig) GetDriver() string             { return c.driver }
func (c dbConfig) GetServer() string             { return c.server }
func (c dbConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c dbConfig) GetOtelIdentifier() string     { return "lzreceiverctl" }

// app is one opened database plus the receiver wired on top of it.
type app struct {
	client   *persistence.Client
	factory  *sqlstore.RepositoryFactory
	receiver *lzreceiver.Receiver
}

func openApp(ctx context.Context, opts appOptions) (*app, error) {
	schemaDialect, err := lzmigrations.DialectForDriver(opts.driver)
	if err != nil {
		return nil, fmt.Errorf("lzreceiverctl: unsupported driver %q", opts.driver)
	}
	var (
		driver  string
		dialect schema.Dialect
	)
	switch schemaDialect {
	case lzmigrations.DialectSQLite:
		driver = driverSQLite
		dialect = sqlitedialect.New()
	default:
		driver = driverPostgres
		dialect = pgdialect.New()
	}
	dsn := strings.TrimSpace(opts.dsn)
	if dsn == "" {
		dsn = defaultDSN
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("lzreceiverctl: open database: %w", err)
	}
	if driver == driverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	client, err := persistence.New(dbConfig{driver: driver, server: dsn, debug: opts.debug}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("lzreceiverctl: persistence client: %w", err)
	}

	_, err = lzmigrations.Register(ctx, func(_ context.Context, source lzmigrations.Source) error {
		client.RegisterSQLMigrations(source.FS)
		return nil
	}, lzmigrations.WithDialects(schemaDialect))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("lzreceiverctl: migrate: %w", err)
	}

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	remoteCache := map[string]any{"enabled": opts.remoteCache}
	if opts.cacheTTL > 0 {
		remoteCache["ttl"] = opts.cacheTTL
	}
	raw := map[string]any{
		"local_chain_id": opts.localChainID,
		"remote_cache":   remoteCache,
	}
	var endpointOpts []transport.EndpointOption
	if opts.nativeFee > 0 || opts.lzTokenFee > 0 {
		endpointOpts = append(endpointOpts, transport.WithDefaultFee(core.MessagingFee{
			NativeFee:  opts.nativeFee,
			LzTokenFee: opts.lzTokenFee,
		}))
	}
	receiver, err := lzreceiver.NewReceiver(lzreceiver.DefaultConfig(),
		lzreceiver.WithServiceOptions(
			lzreceiver.WithPersistenceClient(client),
			lzreceiver.WithRepositoryFactory(factory),
			lzreceiver.WithConfigProvider(core.NewCfgxConfigProvider(core.StaticRawConfigLoader{Values: raw})),
		),
		lzreceiver.WithClearLedger(factory.ClearLedger()),
		lzreceiver.WithEndpointOptions(endpointOpts...),
	)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &app{client: client, factory: factory, receiver: receiver}, nil
}

func (a *app) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Close()
}

// replayPendingCompose runs the compose stage for every compose record the
// durable ledger still holds, including ones queued by earlier runs.
func (a *app) replayPendingCompose(ctx context.Context) (int, error) {
	pending, err := a.factory.ClearLedger().PendingCompose(ctx)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, record := range pending {
		channelID, ok := core.ChannelIDFromAddress(record.Key.To)
		if !ok {
			continue
		}
		if _, err := a.receiver.Compose(ctx, channelID, core.ComposeParams{
			From:    record.Key.From,
			GUID:    record.Key.GUID,
			Index:   record.Key.Index,
			Message: record.Message,
		}); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}
