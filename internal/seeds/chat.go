package seeds

import (
	"log"
	"time"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/internal/services"
)

// SeedChat lays down a direct thread and one group so a fresh install has
// something on the dashboard. No-op when any messages already exist.
func SeedChat(users []models.User) {
	if len(users) < 3 {
		log.Println("⚠️ Not enough demo users for chat seed, skipping")
		return
	}

	var count int64
	database.DB.Model(&models.Message{}).Count(&count)
	if count > 0 {
		log.Println("💬 Messages already present, skipping chat seed")
		return
	}

	log.Println("💬 Seeding demo conversations...")

	alex, maria, sam := users[0], users[1], users[2]
	store := services.GormMessageStore{}

	direct := []struct {
		from    models.User
		content string
		minsAgo int
	}{
		{alex, "Hey Maria, did you see the match schedule?", 55},
		{maria, "Just now! Saturday morning works for me.", 50},
		{alex, "Great, I'll book the pitch.", 45},
	}
	for _, d := range direct {
		ts := time.Now().Add(-time.Duration(d.minsAgo) * time.Minute)
		other := maria
		if d.from.ID == maria.ID {
			other = alex
		}
		msg := models.Message{
			ConversationID: services.ConversationKey(d.from.ID, other.ID),
			Content:        d.content,
			SenderID:       d.from.ID,
			SenderName:     d.from.ResolveDisplayName(),
			SenderPhoto:    d.from.AvatarURL(),
			Participants:   models.StringList{d.from.ID, other.ID}.Sorted(),
			Timestamp:      &ts,
			Kind:           models.KindDirect,
		}
		if err := store.Insert(&msg); err != nil {
			log.Printf("   ❌ Failed to seed message: %v", err)
		}
	}

	dir := services.NewDirectory()
	dir.LoadAll("")

	group, err := services.CreateGroup(services.CreateGroupInput{
		Name:        "Saturday Squad",
		Description: "Weekend five-a-side planning",
		CreatorID:   alex.ID,
		MemberIDs:   []string{maria.ID, sam.ID},
	}, store, dir)
	if err != nil {
		log.Printf("   ❌ Failed to seed group: %v", err)
		return
	}

	log.Printf("   ✅ Group created: %s", group.Name)
}
