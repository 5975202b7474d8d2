package seeds

import (
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/pkg/utils"
)

type demoUser struct {
	Email     string
	FirstName string
	LastName  string
	Account   string
	Photo     string
}

var demoUsers = []demoUser{
	{"alex@fiveaside.dev", "Alex", "Johnson", "Fiveaside HQ", "https://api.dicebear.com/7.x/avataaars/svg?seed=alex"},
	{"maria@fiveaside.dev", "Maria", "Garcia", "Fiveaside HQ", "https://api.dicebear.com/7.x/avataaars/svg?seed=maria"},
	{"sam@fiveaside.dev", "Sam", "Okafor", "Fiveaside HQ", "https://api.dicebear.com/7.x/avataaars/svg?seed=sam"},
	{"priya@fiveaside.dev", "Priya", "Patel", "Fiveaside HQ", "https://api.dicebear.com/7.x/avataaars/svg?seed=priya"},
}

// SeedUsers inserts the demo roster, skipping emails that already exist.
// Every demo account shares the same throwaway password.
func SeedUsers() []models.User {
	log.Println("👤 Seeding demo users...")

	hash, _ := bcrypt.GenerateFromPassword([]byte("fiveaside-demo"), bcrypt.DefaultCost)

	created := make([]models.User, 0, len(demoUsers))
	for _, d := range demoUsers {
		var existing models.User
		if err := database.DB.Where("email = ?", d.Email).First(&existing).Error; err == nil {
			created = append(created, existing)
			continue
		}

		user := models.User{
			ID:          utils.GenerateID(),
			Email:       d.Email,
			FirstName:   d.FirstName,
			LastName:    d.LastName,
			AccountName: d.Account,
			PhotoURL:    d.Photo,
			Password:    string(hash),
		}
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("   ❌ Failed: %s - %v", d.Email, err)
			continue
		}
		log.Printf("   ✅ User created: %s", d.Email)
		created = append(created, user)
	}

	return created
}
