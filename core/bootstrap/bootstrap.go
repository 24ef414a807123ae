// Package bootstrap initializes the infrastructure every bot needs before it
// can serve updates: logging, schema migrations and the database pool.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/adboard/core/config"
	coredatabase "github.com/m3rciful/adboard/core/database"
	"github.com/m3rciful/adboard/core/logger"
)

// Options control the generic bootstrap pipeline. Nil hooks use the core
// implementations; tests replace them.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Migrate    func(context.Context, coredatabase.Config) (int, error)
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
	// Migrated is the number of migration files applied during startup.
	Migrated int
}

// Run initializes the logger, applies migrations, and connects to the database.
// Migrations run first so a fresh SQLite file has its schema before the pool opens it.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	applied, err := migrate(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	return &Result{DB: db, Migrated: applied}, nil
}
