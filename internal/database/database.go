package database

import (
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the mirror database and migrates the students table.
// driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported mirror driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to the %s database", driver)
	}

	// Auto-migrate the students table
	if err := db.AutoMigrate(&StudentRow{}); err != nil {
		return nil, errors.Wrap(err, "failed to auto-migrate the database")
	}

	return db, nil
}
