// Package migrations registers the schema migrations. Import it for its
// side effects wherever migrations are run.
package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/mazraa/pkg/kv"
	"github.com/shashiranjanraj/mazraa/pkg/migration"
)

func init() {
	migration.Register("20240601000000_create_kv_entries_table", &CreateKVEntriesTable{})
}

// CreateKVEntriesTable backs the "database" blob store driver.
type CreateKVEntriesTable struct{}

func (m *CreateKVEntriesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&kv.Entry{})
}

func (m *CreateKVEntriesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&kv.Entry{})
}
