// Package database contains the logic for establishing
// connections to the relational store.
//
// PostgreSQL is the primary target and goes through a pgx connection
// pool; MySQL and SQLite are opened through their gorm dialectors. In
// every case the application talks to the store through a *gorm.DB.
//
// It handles:
//   - building DSNs from config
//   - creating the pgx pool (pgxpool) and wiring query tracing/logging
//   - optional New Relic instrumentation (nrpgx5)
//   - retrying the initial connection with exponential backoff
//   - registering read replicas (dbresolver)
//   - schema migrations (tern for PostgreSQL, AutoMigrate otherwise)
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenk/backoff"
	"github.com/deppfellow/go-users-api/internal/config"
	loggerConfig "github.com/deppfellow/go-users-api/internal/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// Database bundles the handles the rest of the application needs.
//
// Pool is only set for PostgreSQL. ORM is what repositories use. SQL is
// the database/sql handle underneath ORM, used for pings and pool stats.
type Database struct {
	Pool   *pgxpool.Pool
	ORM    *gorm.DB
	SQL    *sql.DB
	driver string
	log    *zerolog.Logger
}

// DatabasePingTimeout is how long, in seconds, a single connection
// attempt may wait for a ping.
const DatabasePingTimeout = 10

// connectMaxElapsed bounds the total time spent retrying the initial
// connection before giving up.
const connectMaxElapsed = 60 * time.Second

// New opens the configured database, verifies connectivity and returns a
// ready Database.
//
// Inputs:
//   - cfg: application config (driver, credentials, pool settings)
//   - logger: main app logger
//   - loggerService: optional New Relic service (nil if not configured)
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	database := &Database{
		driver: cfg.Database.Driver,
		log:    logger,
	}

	gormConfig := newGormConfig(cfg, logger)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed

	err := backoff.Retry(func() error {
		var err error
		switch cfg.Database.Driver {
		case config.DriverPostgres:
			err = database.openPostgres(cfg, logger, loggerService, gormConfig)
		case config.DriverMySQL:
			err = database.openMySQL(cfg, gormConfig)
		case config.DriverSQLite:
			err = database.openSQLite(cfg, gormConfig)
		default:
			return backoff.Permanent(fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver))
		}
		if err != nil {
			logger.Warn().Err(err).Str("driver", cfg.Database.Driver).Msg("database connection attempt failed")
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
		defer cancel()
		if err := database.Ping(ctx); err != nil {
			logger.Warn().Err(err).Str("driver", cfg.Database.Driver).Msg("database ping failed")
			database.closeHandles()
			return err
		}
		return nil
	}, bo)
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}

	if err := database.registerReplicas(cfg); err != nil {
		database.closeHandles()
		return nil, err
	}

	logger.Info().Str("driver", cfg.Database.Driver).Msg("connected to the database")

	return database, nil
}

func newGormConfig(cfg *config.Config, logger *zerolog.Logger) *gorm.Config {
	slowThreshold := time.Duration(0)
	if cfg.Observability != nil {
		slowThreshold = cfg.Observability.Logging.SlowQueryThreshold
	}

	return &gorm.Config{
		Logger: loggerConfig.NewGormLogger(*logger, slowThreshold),
		// Every supported store keeps microseconds, so timestamps read back
		// equal the ones written.
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (db *Database) openSQLite(cfg *config.Config, gormConfig *gorm.Config) error {
	orm, err := gorm.Open(sqlite.Open(cfg.Database.Name), gormConfig)
	if err != nil {
		return errors.WithStack(err)
	}

	sqlDB, err := orm.DB()
	if err != nil {
		return errors.WithStack(err)
	}

	// SQLite serializes writers, and every connection to ":memory:" is a
	// separate database.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	db.ORM = orm
	db.SQL = sqlDB
	return nil
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DatabaseConfig) {
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
}

// registerReplicas routes reads to the configured replica hosts. Writes,
// and reads explicitly marked with dbresolver.Write, stay on the primary.
func (db *Database) registerReplicas(cfg *config.Config) error {
	if len(cfg.Database.ReplicaHosts) == 0 {
		return nil
	}

	if db.driver == config.DriverSQLite {
		db.log.Warn().Msg("read replicas are not supported for sqlite, ignoring replica_hosts")
		return nil
	}

	var dialectors []gorm.Dialector
	for _, host := range cfg.Database.ReplicaHosts {
		d, err := replicaDialector(cfg.Database, host)
		if err != nil {
			return err
		}
		dialectors = append(dialectors, d)
	}

	err := db.ORM.Use(
		dbresolver.Register(dbresolver.Config{
			Replicas: dialectors,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxIdleConns(cfg.Database.MaxIdleConns).
			SetMaxOpenConns(cfg.Database.MaxOpenConns).
			SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second).
			SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second))
	if err != nil {
		return errors.WithStack(err)
	}

	db.log.Info().Int("replicas", len(dialectors)).Msg("registered read replicas")
	return nil
}

func replicaDialector(cfg config.DatabaseConfig, host string) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgresDialector(PostgresDSN(cfg, host)), nil
	case config.DriverMySQL:
		return mysqlDialector(MySQLDSN(cfg, host)), nil
	default:
		return nil, errors.Errorf("replicas not supported for driver %s", cfg.Driver)
	}
}

// Driver reports the configured driver name.
func (db *Database) Driver() string {
	return db.driver
}

// Ping verifies the primary connection.
func (db *Database) Ping(ctx context.Context) error {
	if db.Pool != nil {
		return db.Pool.Ping(ctx)
	}
	return db.SQL.PingContext(ctx)
}

func (db *Database) closeHandles() {
	if db.SQL != nil {
		_ = db.SQL.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
	db.SQL, db.ORM, db.Pool = nil, nil, nil
}

// Close releases every connection held by the database.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")

	var err error
	if db.SQL != nil {
		err = db.SQL.Close()
	}
	// The database/sql handle does not own the pgx pool.
	if db.Pool != nil {
		db.Pool.Close()
	}
	return err
}
