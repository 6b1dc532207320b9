package db

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/diewo77/fawater/internal/config"
	"github.com/diewo77/fawater/internal/logger"
	"github.com/diewo77/fawater/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// connection attempts before giving up; postgres may still be starting in compose setups
const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

var passwordRe = regexp.MustCompile(`(password=)([^\s]+)|(://[^:/@]+:)([^@]+)(@)`)

// MaskDSN hides the password of a key=value or URL DSN.
func MaskDSN(dsn string) string {
	return passwordRe.ReplaceAllStringFunc(dsn, func(m string) string {
		sub := passwordRe.FindStringSubmatch(m)
		if sub[1] != "" {
			return sub[1] + "***"
		}
		return sub[3] + "***" + sub[5]
	})
}

// Models lists every table managed by the application.
func Models() []any {
	return []any{&models.Customer{}, &models.Invoice{}, &models.InvoiceItem{}}
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite, "":
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// Open connects with retries and checks connectivity.
func Open(cfg config.Config) (*gorm.DB, error) {
	log := logger.WithComponent("db")
	dsn := strings.TrimSpace(cfg.DatabaseDSN)
	if cfg.DBDriver == DriverPostgres {
		dsn = NormalizeDSN(dsn)
	}
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is empty, check the environment configuration")
	}
	dial, err := dialector(cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}
	level := gormlogger.Silent
	if cfg.DBDebug {
		level = gormlogger.Info
	}
	gcfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		// customer references are not enforced by the store
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dial, gcfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("retrying DB connection")
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.Info().Str("driver", cfg.DBDriver).Str("dsn", MaskDSN(dsn)).Msg("database connected")
	return db, nil
}

// Migrate applies the schema. SQL migrations run on postgres when enabled;
// otherwise gorm AutoMigrate keeps the tables in sync.
func Migrate(db *gorm.DB, cfg config.Config) error {
	log := logger.WithComponent("db")
	if cfg.Migrations && cfg.DBDriver == DriverPostgres {
		log.Info().Msg("running SQL migrations")
		if err := runSQLMigrations(ToURLDSN(NormalizeDSN(cfg.DatabaseDSN))); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if cfg.Migrations {
			log.Warn().Str("driver", cfg.DBDriver).Msg("SQL migrations only target postgres; using AutoMigrate")
		}
		for _, m := range Models() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range []string{"customers", "invoices", "invoice_items"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// ConnectAndMigrate opens the database and applies the schema.
func ConnectAndMigrate(cfg config.Config) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}
