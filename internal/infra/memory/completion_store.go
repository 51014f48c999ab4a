package memory

import (
	"context"
	"sync"

	"perk-quiz-backend/internal/domain"
)

// CompletionStore is the in-process implementation of app.CompletionStore.
// Records do not survive a restart; deployments that need durability across
// restarts should use the Redis store instead.
type CompletionStore struct {
	mu      sync.RWMutex
	records map[recordKey]domain.CompletionRecord
}

type recordKey struct {
	email  string
	quizID string
}

func NewCompletionStore() *CompletionStore {
	return &CompletionStore{
		records: make(map[recordKey]domain.CompletionRecord),
	}
}

func (s *CompletionStore) Get(_ context.Context, email, quizID string) (domain.CompletionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey{email: email, quizID: quizID}]
	return rec, ok, nil
}

func (s *CompletionStore) Put(_ context.Context, rec domain.CompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey{email: rec.Email, quizID: rec.QuizID}] = rec
	return nil
}
