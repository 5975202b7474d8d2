package migrations

import (
	"gorm.io/gorm"
)

// Migration002AddMessageIndexes adds composite indexes for the hot-path
// message queries:
//  1. Per-conversation log reads ordered by time
//  2. Unread scans (sender_id, read) behind the mark-read pass
//
// All statements are idempotent (IF NOT EXISTS) for safe re-runs.
func Migration002AddMessageIndexes() Migration {
	return Migration{
		ID:        "002_add_message_indexes",
		Name:      "Add composite indexes for message log queries",
		DependsOn: []string{"001_ensure_uuid_extension"},
		Up: func(db *gorm.DB) error {
			idx1 := `
				CREATE INDEX IF NOT EXISTS idx_messages_conversation_time
				ON messages (conversation_id, timestamp)
			`
			if err := db.Exec(idx1).Error; err != nil {
				return err
			}

			idx2 := `
				CREATE INDEX IF NOT EXISTS idx_messages_sender_read
				ON messages (sender_id, read)
			`
			return db.Exec(idx2).Error
		},
		Down: func(db *gorm.DB) error {
			if err := db.Exec(`DROP INDEX IF EXISTS idx_messages_sender_read`).Error; err != nil {
				return err
			}
			return db.Exec(`DROP INDEX IF EXISTS idx_messages_conversation_time`).Error
		},
	}
}
