// Package wire provides dependency injection for the triage application.
// It creates singleton services with lazy initialization from the
// configuration installed by Configure.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	cliadapter "github.com/example/triage/internal/adapters/cli"
	"github.com/example/triage/internal/adapters/export"
	"github.com/example/triage/internal/adapters/memory"
	"github.com/example/triage/internal/adapters/postgres"
	"github.com/example/triage/internal/adapters/scorer"
	"github.com/example/triage/internal/adapters/sqlite"
	"github.com/example/triage/internal/app"
	"github.com/example/triage/internal/config"
	"github.com/example/triage/internal/db"
	"github.com/example/triage/internal/metrics"
	"github.com/example/triage/internal/ports/primary"
	"github.com/example/triage/internal/ports/secondary"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	database  *sql.DB
	entryRepo secondary.EntryRepository
	auditRepo secondary.AuditLogRepository
	observer  *metrics.Metrics

	queueService  primary.QueueService
	intakeService primary.IntakeService
	logService    primary.LogService

	once    sync.Once
	initErr error
)

// Configure installs the configuration and logger. It must be called before
// any service getter.
func Configure(c *config.Config, l *slog.Logger) {
	cfg = c
	logger = l
}

// Config returns the installed configuration.
func Config() *config.Config {
	return cfg
}

// QueueService returns the singleton QueueService instance.
func QueueService() (primary.QueueService, error) {
	once.Do(initServices)
	return queueService, initErr
}

// IntakeService returns the singleton IntakeService instance.
func IntakeService() (primary.IntakeService, error) {
	once.Do(initServices)
	return intakeService, initErr
}

// LogService returns the singleton LogService instance.
func LogService() (primary.LogService, error) {
	once.Do(initServices)
	return logService, initErr
}

// Metrics returns the process metrics registry.
func Metrics() *metrics.Metrics {
	once.Do(initServices)
	return observer
}

// ExportService returns an ExportService writing to target. An empty target
// uses export.target from the configuration.
func ExportService(ctx context.Context, target string) (primary.ExportService, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	if target == "" {
		target = cfg.Export.Target
	}
	s3 := cfg.Export.S3
	sink, err := export.Open(ctx, target, export.S3Options{
		Region:          s3.Region,
		Endpoint:        s3.Endpoint,
		PathStyle:       s3.PathStyle,
		AccessKeyID:     s3.AccessKeyID,
		SecretAccessKey: s3.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	return app.NewExportService(entryRepo, sink, cfg.Store.Timeout), nil
}

// SQLiteDatabase returns the open sqlite connection. It fails for any
// other store driver.
func SQLiteDatabase() (*sql.DB, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	if cfg.Store.Driver != config.DriverSQLite {
		return nil, fmt.Errorf("store driver is %q, not sqlite", cfg.Store.Driver)
	}
	return database, nil
}

// EffectExecutor returns an executor for planned effects.
func EffectExecutor() *app.DefaultEffectExecutor {
	return app.NewEffectExecutor(currentLogger())
}

// Close releases the database connection, if one was opened.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	if cfg == nil {
		initErr = errors.New("wire: Configure was not called")
		return
	}
	log := currentLogger()
	observer = metrics.New()

	if err := openStore(); err != nil {
		initErr = err
		return
	}
	logWriter := sqlite.NewLogWriterAdapter(auditRepo)

	var sc secondary.Scorer = scorer.Local{}
	if cfg.Scorer.URL != "" {
		sc = scorer.NewClient(cfg.Scorer.URL, cfg.Scorer.Timeout)
	}

	queueService = app.NewQueueService(entryRepo, logWriter,
		app.WithStoreTimeout(cfg.Store.Timeout),
		app.WithObserver(observer),
		app.WithLogger(log),
	)
	intakeService = app.NewIntakeService(sc, entryRepo, logWriter, cfg.Store.Timeout, observer, log)
	logService = app.NewLogService(auditRepo)
}

func openStore() error {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		conn, err := db.Open(cfg.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		database = conn
		entryRepo = sqlite.NewEntryRepository(conn)
		auditRepo = sqlite.NewAuditLogRepository(conn)
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
		defer cancel()
		conn, err := postgres.Open(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		database = conn
		entryRepo = postgres.NewEntryRepository(conn)
		auditRepo = postgres.NewAuditLogRepository(conn)
	case config.DriverMemory:
		entryRepo = memory.NewEntryRepository()
		auditRepo = memory.NewAuditLogRepository()
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return nil
}

func currentLogger() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// QueueAdapter returns a new QueueAdapter writing to stdout.
func QueueAdapter(confirm cliadapter.Confirmer) (*cliadapter.QueueAdapter, error) {
	return QueueAdapterWithOutput(os.Stdout, confirm)
}

// QueueAdapterWithOutput returns a new QueueAdapter writing to the given output.
func QueueAdapterWithOutput(out io.Writer, confirm cliadapter.Confirmer) (*cliadapter.QueueAdapter, error) {
	svc, err := QueueService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewQueueAdapter(svc, out, confirm), nil
}

// IntakeAdapter returns a new IntakeAdapter writing to out.
func IntakeAdapter(out io.Writer) (*cliadapter.IntakeAdapter, error) {
	svc, err := IntakeService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewIntakeAdapter(svc, out), nil
}

// LogAdapter returns a new LogAdapter writing to out.
func LogAdapter(out io.Writer) (*cliadapter.LogAdapter, error) {
	svc, err := LogService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewLogAdapter(svc, out), nil
}
