package db

import (
	"fmt"
	"time"

	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDatabase opens the store for driver ("postgres" or "sqlite").
func ConnectDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	return Open(dialector)
}

// Open opens a gorm handle with the settings the services rely on.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		// Unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,

		Logger: logger.New(logging.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})

	if err != nil {
		return nil, err
	}

	return db, nil
}

func MigrateDatabase(db *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Task{},
		&models.Comment{},
		&models.Activity{},
	}

	migrator := db.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := db.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}
