package vocabulary

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dictbot/core/logger"
	"github.com/m3rciful/dictbot/internal/domain"
)

const (
	insertEntrySQL = `INSERT INTO vocabulary_entries (user_id, word, meaning, part_of_speech, example, phonetic)
VALUES (?, ?, ?, ?, ?, ?)`
	selectEntriesSQL = `SELECT word, meaning, part_of_speech, example, phonetic
FROM vocabulary_entries WHERE user_id = ? ORDER BY id`
)

// SQLStore keeps vocabularies in postgres or sqlite. Each append is one
// INSERT and reads are ordered by the identity column.
type SQLStore struct {
	db        *sqlx.DB
	insertSQL string
	selectSQL string
}

// NewSQLStore binds the queries to db's placeholder style.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		db:        db,
		insertSQL: db.Rebind(insertEntrySQL),
		selectSQL: db.Rebind(selectEntriesSQL),
	}
}

func (s *SQLStore) Add(ctx context.Context, userID domain.UserID, entry domain.WordEntry) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, s.insertSQL,
		int64(userID), entry.Word, entry.Meaning, entry.PartOfSpeech, entry.Example, entry.Phonetic)
	if err != nil {
		logger.Error(ctx, logger.CompVocabulary, "add",
			slog.String("status", "fail"),
			slog.String("driver", s.db.DriverName()),
			slog.Duration("duration", logger.Took(start)),
			slog.Any("err", err),
		)
		return domain.E(domain.KindStoreFailure, "vocabulary.add", err)
	}
	logger.Debug(ctx, logger.CompVocabulary, "add",
		slog.String("status", "ok"),
		slog.String("driver", s.db.DriverName()),
		slog.String("word", entry.Word),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (s *SQLStore) ReadAll(ctx context.Context, userID domain.UserID) ([]domain.WordEntry, error) {
	entries := []domain.WordEntry{}
	if err := s.db.SelectContext(ctx, &entries, s.selectSQL, int64(userID)); err != nil {
		logger.Error(ctx, logger.CompVocabulary, "read_all",
			slog.String("status", "fail"),
			slog.String("driver", s.db.DriverName()),
			slog.Any("err", err),
		)
		return nil, domain.E(domain.KindStoreFailure, "vocabulary.read_all", err)
	}
	return entries, nil
}
