package mysql

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"timetrack/pkg/config"
	"timetrack/pkg/store/mysql/model"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Datastore wraps GORM DB and provides transaction support
type Datastore struct {
	db     *gorm.DB
	driver string
}

// MySQLDSN builds a go-sql-driver DSN from configuration
func MySQLDSN(cfg config.MySQLConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// NewDatastore opens the configured database. now overrides gorm's timestamp source (nil uses time.Now).
func NewDatastore(cfg config.DatabaseConfig, now func() time.Time) (*Datastore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverMySQL, "":
		dialector = mysql.Open(MySQLDSN(cfg.MySQL))
	case DriverSQLite:
		dsn, err := sqliteDSN(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	// Configure GORM logger
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level (Warn in production, Info in dev)
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound
			Colorful:                  true,                   // Enable color
		},
	)

	gormCfg := &gorm.Config{
		Logger:                 newLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
	if now != nil {
		gormCfg.NowFunc = now
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying *sql.DB and configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}

	if dialector.Name() == DriverSQLite {
		// single writer; an in-memory database lives only as long as its connection
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(100)                 // Maximum open connections
		sqlDB.SetMaxIdleConns(10)                  // Maximum idle connections
		sqlDB.SetConnMaxLifetime(time.Hour)        // Connection max lifetime
		sqlDB.SetConnMaxIdleTime(10 * time.Minute) // Connection max idle time
	}

	return &Datastore{db: db, driver: dialector.Name()}, nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" || path == ":memory:" {
		return ":memory:", nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create sqlite directory: %w", err)
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
}

// AutoMigrate creates or updates the schema
func (ds *Datastore) AutoMigrate(ctx context.Context) error {
	err := ds.db.WithContext(ctx).AutoMigrate(
		&model.Counter{},
		&model.Interval{},
		&model.DailySummary{},
		&model.ProjectRating{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Driver returns the dialect name (mysql or sqlite)
func (ds *Datastore) Driver() string {
	return ds.driver
}

// SupportsRowLocks reports whether SELECT ... FOR UPDATE is meaningful
func (ds *Datastore) SupportsRowLocks() bool {
	return ds.driver == DriverMySQL
}

// Close closes the database connection
func (ds *Datastore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction support using context
type contextTxKey struct{}

// ExecTx executes a function within a transaction
// If the function returns an error, the transaction is rolled back
// Otherwise, the transaction is committed
// Nested calls join the outer transaction.
func (ds *Datastore) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ctx = context.WithValue(ctx, contextTxKey{}, tx)
		return fn(ctx)
	})
}

// DB returns the GORM DB instance for the current context
// If a transaction is active in the context, it returns the transaction DB
// Otherwise, it returns the main DB
func (ds *Datastore) DB(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(contextTxKey{}).(*gorm.DB)
	if ok {
		return tx.WithContext(ctx)
	}
	return ds.db.WithContext(ctx)
}

// GetDB returns the underlying GORM DB instance (for direct access if needed)
func (ds *Datastore) GetDB() *gorm.DB {
	return ds.db
}

// Now returns gorm's clock
func (ds *Datastore) Now() time.Time {
	return ds.db.NowFunc()
}
