package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Akin1234dot/Fifthlasb/pkg/utils"
)

// DefaultAvatarURL is used whenever a user has no profile picture.
const DefaultAvatarURL = "https://via.placeholder.com/40"

// User is the profile document behind an authenticated principal.
type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email       string `gorm:"uniqueIndex" json:"email"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	AccountName string `json:"accountname"`
	// Provider-supplied display name, used only when first/last are empty.
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	IsGuest     bool   `gorm:"default:false" json:"isGuest"`

	// Roster captured at sign-up. Informational only.
	TeamMembers TeamMemberList `gorm:"type:text" json:"teamMembers"`

	EmailVerified *time.Time `json:"emailVerified"`

	ResetToken       string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	Password string `json:"-"`
}

// ResolveDisplayName derives the name shown in the UI.
// Priority: first+last name, then provider display name, then email prefix.
func (u *User) ResolveDisplayName() string {
	if u.FirstName != "" || u.LastName != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return utils.EmailLocalPart(u.Email)
	}
	return "Unknown User"
}

// AvatarURL returns the photo reference or the placeholder.
func (u *User) AvatarURL() string {
	if u.PhotoURL != "" {
		return u.PhotoURL
	}
	return DefaultAvatarURL
}
