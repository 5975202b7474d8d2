package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation kind tags carried on messages.
const (
	KindDirect = "direct"
	KindGroup  = "group"
)

// Message is one row of the shared, append-mostly message log. Direct and
// group messages live in the same collection; the Participants set doubles
// as the access filter and the dedup key for derived direct conversations.
type Message struct {
	ID string `gorm:"primaryKey;type:text" json:"id"`

	// For direct messages this is the sorted-joined participant pair; for
	// group messages it is the group id.
	ConversationID string `gorm:"index;type:text;not null" json:"conversationId"`

	Content  string `gorm:"type:text;not null" json:"content"`
	SenderID string `gorm:"index;type:text;not null" json:"senderId"`

	// Sender projection captured at send time; not refreshed when the
	// sender later changes name or photo.
	SenderName  string `json:"senderName"`
	SenderPhoto string `json:"senderPhoto"`

	Participants StringList `gorm:"type:text" json:"participants"`

	// Server-assigned; nil only on client-local optimistic entries.
	Timestamp *time.Time `gorm:"index" json:"timestamp"`

	Read     bool   `gorm:"default:false" json:"read"`
	IsSystem bool   `gorm:"default:false" json:"isSystem"`
	Kind     string `gorm:"type:text;default:'direct'" json:"kind"`

	// Client-local only, never persisted.
	IsOptimistic bool `gorm:"-" json:"isOptimistic,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Timestamp == nil {
		now := time.Now().UTC()
		m.Timestamp = &now
	}
	return
}
