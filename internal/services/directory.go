package services

import (
	"strings"
	"sync"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
)

// DirectoryEntry is the read-only projection of a user document offered for
// search and recipient selection.
type DirectoryEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	AccountName string `json:"accountname"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
	IsGuest     bool   `json:"isGuest"`
}

// Directory caches the registered-user set for one principal. Refreshed by
// LoadAll, not live-subscribed. Search is a pure function over the cached
// snapshot.
type Directory struct {
	mu      sync.RWMutex
	entries []DirectoryEntry
}

func NewDirectory() *Directory {
	return &Directory{}
}

// LoadAll reloads the snapshot of all users other than principalID. Search
// is a non-critical enhancement, so read errors degrade to an empty list
// instead of propagating.
func (d *Directory) LoadAll(principalID string) []DirectoryEntry {
	var users []models.User
	err := database.DB.Where("id <> ?", principalID).Find(&users).Error
	if err != nil {
		logger.Warn().Err(err).Msg("Directory load failed, serving empty set")
		d.mu.Lock()
		d.entries = []DirectoryEntry{}
		d.mu.Unlock()
		return []DirectoryEntry{}
	}

	entries := make([]DirectoryEntry, 0, len(users))
	for i := range users {
		u := &users[i]
		entries = append(entries, DirectoryEntry{
			ID:          u.ID,
			DisplayName: u.ResolveDisplayName(),
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			AccountName: u.AccountName,
			Email:       u.Email,
			PhotoURL:    u.AvatarURL(),
			IsGuest:     u.IsGuest,
		})
	}

	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()
	return d.snapshot()
}

func (d *Directory) snapshot() []DirectoryEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]DirectoryEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// All returns the cached snapshot.
func (d *Directory) All() []DirectoryEntry {
	return d.snapshot()
}

// Search filters the cached snapshot by case-insensitive substring over
// display name, first name, last name, account name and email. An empty
// query returns the full set.
func (d *Directory) Search(query string) []DirectoryEntry {
	all := d.snapshot()
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return all
	}

	out := make([]DirectoryEntry, 0, len(all))
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.DisplayName), query) ||
			strings.Contains(strings.ToLower(e.FirstName), query) ||
			strings.Contains(strings.ToLower(e.LastName), query) ||
			strings.Contains(strings.ToLower(e.AccountName), query) ||
			strings.Contains(strings.ToLower(e.Email), query) {
			out = append(out, e)
		}
	}
	return out
}

// Resolve implements ParticipantResolver over the cached snapshot.
func (d *Directory) Resolve(id string) (models.MemberDetail, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.entries {
		if e.ID == id {
			return models.MemberDetail{ID: e.ID, DisplayName: e.DisplayName, PhotoURL: e.PhotoURL}, true
		}
	}
	return models.MemberDetail{}, false
}
