package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"perk-quiz-backend/internal/domain"
)

// QuizLoader fetches quiz definitions from a backing store (Postgres, static map).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	QuizIDs(ctx context.Context) ([]string, error)
}

// QuizRegistry caches quiz definitions with TTL to avoid repeated DB hits.
type QuizRegistry struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu         sync.RWMutex
	cache      map[string]cachedDefinition
	ids        []string
	idsExpires time.Time
}

type cachedDefinition struct {
	quiz      domain.QuizDefinition
	expiresAt time.Time
}

func NewQuizRegistry(loader QuizLoader, ttl time.Duration) *QuizRegistry {
	return &QuizRegistry{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDefinition),
	}
}

func (r *QuizRegistry) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.quiz, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.quiz, nil
		}
		r.mu.RUnlock()

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizDefinition{}, err
		}
		if !quiz.Valid() {
			return domain.QuizDefinition{}, fmt.Errorf("invalid quiz definition %q: passing score must not exceed question count", quizID)
		}

		r.mu.Lock()
		r.cache[quizID] = cachedDefinition{
			quiz:      quiz,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return result.(domain.QuizDefinition), nil
}

func (r *QuizRegistry) QuizIDs(ctx context.Context) ([]string, error) {
	now := r.clock()

	r.mu.RLock()
	if r.ids != nil && r.idsExpires.After(now) {
		ids := r.ids
		r.mu.RUnlock()
		return ids, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("\x00ids", func() (interface{}, error) {
		ids, err := r.loader.QuizIDs(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.ids = ids
		r.idsExpires = r.clock().Add(r.ttlWithJitter())
		r.mu.Unlock()
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (r *QuizRegistry) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader serves definitions from an in-memory map, for built-in
// quizzes and tests.
type StaticQuizLoader struct {
	quizzes map[string]domain.QuizDefinition
	ids     []string
}

func NewStaticQuizLoader(quizzes map[string]domain.QuizDefinition) *StaticQuizLoader {
	defs := make(map[string]domain.QuizDefinition, len(quizzes))
	ids := make([]string, 0, len(quizzes))
	for id, quiz := range quizzes {
		quiz.ID = id
		defs[id] = quiz
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &StaticQuizLoader{quizzes: defs, ids: ids}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.QuizDefinition, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.QuizDefinition{}, domain.ErrUnknownQuiz
}

func (l *StaticQuizLoader) QuizIDs(_ context.Context) ([]string, error) {
	return l.ids, nil
}
