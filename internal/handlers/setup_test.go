package handlers

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Akin1234dot/Fifthlasb/internal/config"
	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
)

// SetupTestDB initializes a fresh in-memory SQLite DB for testing.
func SetupTestDB() {
	logger.Init("test")
	config.AppConfig = &config.Config{JWTSecret: "test_secret_key_12345"}

	db, _ := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	database.DB = db
	database.DB.Migrator().DropTable(
		&models.User{},
		&models.Message{},
		&models.Group{},
		&models.File{},
	)
	database.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Group{},
		&models.File{},
	)
}
