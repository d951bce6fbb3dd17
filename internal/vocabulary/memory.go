package vocabulary

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/dictbot/core/logger"
	"github.com/m3rciful/dictbot/internal/domain"
)

type record struct {
	mu      sync.Mutex
	entries []domain.WordEntry
}

// MemoryStore keeps vocabularies in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[domain.UserID]*record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[domain.UserID]*record)}
}

func (s *MemoryStore) get(userID domain.UserID) *record {
	s.mu.RLock()
	r := s.users[userID]
	s.mu.RUnlock()
	return r
}

func (s *MemoryStore) getOrCreate(userID domain.UserID) *record {
	if r := s.get(userID); r != nil {
		return r
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.users[userID]; ok {
		return r
	}
	r := &record{}
	s.users[userID] = r
	return r
}

func (s *MemoryStore) Add(ctx context.Context, userID domain.UserID, entry domain.WordEntry) error {
	if err := ctx.Err(); err != nil {
		return domain.E(domain.KindStoreFailure, "vocabulary.add", err)
	}
	r := s.getOrCreate(userID)
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	n := len(r.entries)
	r.mu.Unlock()

	logger.Debug(ctx, logger.CompVocabulary, "add",
		slog.String("driver", "memory"),
		slog.String("word", entry.Word),
		slog.Int("entries", n),
	)
	return nil
}

func (s *MemoryStore) ReadAll(ctx context.Context, userID domain.UserID) ([]domain.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.E(domain.KindStoreFailure, "vocabulary.read_all", err)
	}
	r := s.get(userID)
	if r == nil {
		return []domain.WordEntry{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.WordEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}
