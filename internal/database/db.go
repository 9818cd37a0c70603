package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/zaqqye/institute_backend/internal/config"
	"github.com/zaqqye/institute_backend/internal/logger"
	"github.com/zaqqye/institute_backend/internal/models"
)

// gormWriter routes gorm's slow-query and error lines through zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Warn().Str("component", "gorm").Msgf(format, args...)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return OpenSQLite(cfg.DBPath)
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		)
		return gorm.Open(postgres.Open(dsn), gormConfig())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// OpenSQLite opens (creating if needed) a SQLite database file. Transactions
// begin IMMEDIATE so a writer waits on the busy timeout instead of failing a
// shared-to-reserved lock upgrade.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
	return gorm.Open(sqlite.Open(dsn), gormConfig())
}

// Migrate creates or updates every table. Safe to call repeatedly.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Counter{},
		&models.Course{},
		&models.Student{},
		&models.Enrollment{},
		&models.GradeRecord{},
		&models.Workshop{},
		&models.Director{},
		&models.Employee{},
		&models.ContactMessage{},
	)
}
