// Package storage opens the gorm connection for either supported dialect and
// owns the schema bootstrap.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/optical-pos/internal"
	inventoryDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/inventory"
	operatorDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/operator"
	purchaseOrderDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/purchaseorder"
	sessionDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/session"
	shiftDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/shift"
)

const uniqueViolationCode = "23505"

func Open(cfg internal.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case internal.DriverPostgres:
		dialector = postgres.Open(cfg.GetDSN())
	case internal.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.GetDSN()))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}

	if cfg.Driver == internal.DriverSQLite {
		// one writer; a second connection would see SQLITE_BUSY instead of waiting
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Debug("database connection opened", "driver", cfg.Driver)
	return db, nil
}

// OpenInMemory returns a migrated private sqlite database.
func OpenInMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a different database
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func sqliteDSN(source string) string {
	if source == ":memory:" || strings.Contains(source, "?") {
		return source
	}
	return source + "?_foreign_keys=on&_busy_timeout=5000"
}

func Models() []interface{} {
	return []interface{}{
		&operatorDatamodel.Operator{},
		&operatorDatamodel.Permission{},
		&operatorDatamodel.OperatorPermission{},
		&shiftDatamodel.Shift{},
		&inventoryDatamodel.InventoryItem{},
		&inventoryDatamodel.StockMutation{},
		&purchaseOrderDatamodel.PurchaseOrder{},
		&purchaseOrderDatamodel.PurchaseOrderLine{},
		&sessionDatamodel.SessionTag{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUniqueViolation recognises a unique-constraint failure from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsCheckViolation recognises a CHECK constraint failure from either driver.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
