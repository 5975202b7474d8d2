package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the metadata row behind one entry of the files browser. The bytes
// themselves live in object storage under StorageKey.
type File struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Name        string `gorm:"not null" json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	StorageKey  string `gorm:"not null" json:"-"`
	URL         string `json:"url"`

	UploaderID   string `gorm:"index;type:text;not null" json:"uploaderId"`
	UploaderName string `json:"uploaderName"`
}

func (f *File) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return
}
