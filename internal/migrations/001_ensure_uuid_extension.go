package migrations

import (
	"gorm.io/gorm"
)

// Migration001EnsureUUIDExtension enables pgcrypto so gen_random_uuid() is
// available for ad-hoc inserts. No-op on SQLite, which has no extensions.
func Migration001EnsureUUIDExtension() Migration {
	return Migration{
		ID:   "001_ensure_uuid_extension",
		Name: "Ensure pgcrypto extension for UUID generation",
		Up: func(db *gorm.DB) error {
			if db.Dialector.Name() != "postgres" {
				return nil
			}
			return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
		},
		Down: func(db *gorm.DB) error {
			return nil
		},
	}
}
