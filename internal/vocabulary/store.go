// Package vocabulary persists each user's saved words in insertion order.
package vocabulary

import (
	"context"

	"github.com/jmoiron/sqlx"

	coredatabase "github.com/m3rciful/dictbot/core/database"
	"github.com/m3rciful/dictbot/internal/domain"
)

// Store is an append-only per-user word list. It never de-duplicates.
type Store interface {
	// Add appends entry to the user's vocabulary, creating it on first use.
	Add(ctx context.Context, userID domain.UserID, entry domain.WordEntry) error
	// ReadAll returns a snapshot of the user's entries in insertion order.
	ReadAll(ctx context.Context, userID domain.UserID) ([]domain.WordEntry, error)
}

// Config holds vocabulary policy switches.
type Config struct {
	// AllowDuplicates stores repeated copies of the same canonical word.
	AllowDuplicates bool `yaml:"allow_duplicates" envconfig:"VOCABULARY_ALLOW_DUPLICATES"`
}

// Open picks the backend for the configured driver. db may be nil for the memory driver.
func Open(cfg coredatabase.Config, db *sqlx.DB) Store {
	if !cfg.UsesSQL() || db == nil {
		return NewMemoryStore()
	}
	return NewSQLStore(db)
}
