package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"perk-quiz-backend/internal/domain"
)

func TestCompletionStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewCompletionStore(client)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "a@b.com", "grooming_mastery"); err != nil || ok {
		t.Fatalf("expected no record, ok=%v err=%v", ok, err)
	}

	rec := domain.CompletionRecord{
		Email:       "a@b.com",
		QuizID:      "grooming_mastery",
		CompletedAt: time.Now().UTC().Truncate(time.Second),
		Score:       4,
		Answers:     map[string]int{"0": 2, "3": 1},
	}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if !mr.Exists("quiz:completions:a@b.com") {
		t.Fatalf("expected redis hash to be set")
	}

	got, ok, err := store.Get(ctx, "a@b.com", "grooming_mastery")
	if err != nil || !ok {
		t.Fatalf("expected record, ok=%v err=%v", ok, err)
	}
	if got.Score != rec.Score || !got.CompletedAt.Equal(rec.CompletedAt) || got.Answers["3"] != 1 {
		t.Fatalf("unexpected record %+v", got)
	}

	if _, ok, _ := store.Get(ctx, "a@b.com", "skin_type"); ok {
		t.Fatalf("unexpected record for another quiz")
	}
}
