package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"perk-quiz-backend/internal/domain"
)

// CompletionStore keeps completion records in Redis, one hash per user:
// HSET quiz:completions:{email} {quizID} {record JSON}. Records survive
// process restarts, unlike the in-memory store. Atomicity of the
// check-then-write sequence is still the service's per-key lock, so the
// exactly-one-award guarantee remains per-process.
type CompletionStore struct {
	client *goredis.Client
}

func NewCompletionStore(client *goredis.Client) *CompletionStore {
	return &CompletionStore{client: client}
}

func (s *CompletionStore) Get(ctx context.Context, email, quizID string) (domain.CompletionRecord, bool, error) {
	raw, err := s.client.HGet(ctx, s.key(email), quizID).Result()
	if err == goredis.Nil {
		return domain.CompletionRecord{}, false, nil
	}
	if err != nil {
		return domain.CompletionRecord{}, false, fmt.Errorf("redis completion get: %w", err)
	}
	var rec domain.CompletionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.CompletionRecord{}, false, fmt.Errorf("unmarshal completion: %w", err)
	}
	return rec, true, nil
}

func (s *CompletionStore) Put(ctx context.Context, rec domain.CompletionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}
	if err := s.client.HSet(ctx, s.key(rec.Email), rec.QuizID, raw).Err(); err != nil {
		return fmt.Errorf("redis completion put: %w", err)
	}
	return nil
}

func (s *CompletionStore) key(email string) string {
	return "quiz:completions:" + email
}
