package main

import (
	"log"

	"github.com/Akin1234dot/Fifthlasb/internal/config"
	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/internal/seeds"
)

func main() {
	config.LoadConfig()
	database.Connect()

	log.Println("🔄 Running migrations (just in case)...")
	database.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Group{},
		&models.File{},
	)

	users := seeds.SeedUsers()
	seeds.SeedChat(users)

	log.Println("✅ Seeding complete!")
}
