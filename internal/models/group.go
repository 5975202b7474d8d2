package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Group is a persisted group conversation. Membership is fixed at creation.
type Group struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	CreatedBy   string `gorm:"index;type:text;not null" json:"createdBy"`

	Members       StringList       `gorm:"type:text" json:"members"`
	MemberDetails MemberDetailList `gorm:"type:text" json:"memberDetails"`

	// Last-write-wins summary fields, overwritten unconditionally on send.
	// Two near-simultaneous sends can leave the earlier one here; known race,
	// kept as-is.
	LastMessage     string     `json:"lastMessage"`
	LastMessageTime *time.Time `json:"lastMessageTime"`

	UnreadCounts CountMap `gorm:"type:text" json:"unreadCounts"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return
}
