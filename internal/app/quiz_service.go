package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"perk-quiz-backend/internal/domain"
)

// QuizRegistry provides quiz definitions (static map, cached DB loader, etc).
type QuizRegistry interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	QuizIDs(ctx context.Context) ([]string, error)
}

// CompletionStore abstracts how completion records are kept (in-memory, Redis, etc).
// Implementations only need plain get/put; the service serializes the
// check-then-write sequence itself.
type CompletionStore interface {
	Get(ctx context.Context, email, quizID string) (domain.CompletionRecord, bool, error)
	Put(ctx context.Context, rec domain.CompletionRecord) error
}

// PointsAwarder is the outbound boundary to the loyalty points provider.
type PointsAwarder interface {
	AwardPoints(ctx context.Context, email string, points int, actionTitle string, completionLimit int) error
}

// QuizService contains the quiz lifecycle use cases: session issuance,
// submission evaluation, completion status, and live status watching.
type QuizService struct {
	quizzes     QuizRegistry
	completions CompletionStore
	awarder     PointsAwarder
	now         func() time.Time

	// locks serializes check-award-record per (email, quiz) pair. Two
	// concurrent passing submissions must produce exactly one award call,
	// so the lock is held across the outbound award request. The guarantee
	// is per-process, same as the default in-memory completion store.
	mu    sync.Mutex
	locks map[completionKey]*sync.Mutex

	subMu       sync.Mutex
	subscribers map[string]map[chan map[string]bool]struct{}
}

type completionKey struct {
	email  string
	quizID string
}

func NewQuizService(quizzes QuizRegistry, completions CompletionStore, awarder PointsAwarder) *QuizService {
	return NewQuizServiceWithClock(quizzes, completions, awarder, time.Now)
}

// NewQuizServiceWithClock allows deterministic timestamps in tests.
func NewQuizServiceWithClock(quizzes QuizRegistry, completions CompletionStore, awarder PointsAwarder, now func() time.Time) *QuizService {
	return &QuizService{
		quizzes:     quizzes,
		completions: completions,
		awarder:     awarder,
		now:         now,
		locks:       make(map[completionKey]*sync.Mutex),
		subscribers: make(map[string]map[chan map[string]bool]struct{}),
	}
}

// Start issues a session token for a quiz and returns the quiz definition.
// Read-only against the completion store: issuing a token records nothing.
func (s *QuizService) Start(ctx context.Context, quizID, email string) (domain.StartReceipt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.StartReceipt{}, err
	}
	// Identities containing the token separator could never round-trip to
	// the same identity on submit, so they are rejected here.
	if email == "" || strings.Contains(email, tokenSeparator) {
		return domain.StartReceipt{}, domain.ErrMissingIdentity
	}
	if _, done, err := s.completions.Get(ctx, email, quizID); err != nil {
		return domain.StartReceipt{}, fmt.Errorf("completion lookup: %w", err)
	} else if done {
		return domain.StartReceipt{}, domain.ErrAlreadyCompleted
	}
	return domain.StartReceipt{
		SessionID: NewSessionID(email, quizID, s.now()),
		Quiz:      quiz,
		Message:   "Quiz started successfully",
	}, nil
}

// Submit evaluates a self-graded score against the quiz definition. On a
// passing score it awards points through the provider and, only if that
// succeeds, records the completion; an award failure leaves no record so the
// client can retry. A failing score is a normal result with no side effects.
func (s *QuizService) Submit(ctx context.Context, sessionID, quizID string, score int, answers map[string]int) (domain.SubmissionResult, error) {
	if sessionID == "" || quizID == "" {
		return domain.SubmissionResult{}, domain.ErrMissingFields
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	email, err := IdentityFromSessionID(sessionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	lock := s.lockFor(email, quizID)
	lock.Lock()
	defer lock.Unlock()

	if _, done, err := s.completions.Get(ctx, email, quizID); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("completion lookup: %w", err)
	} else if done {
		return domain.SubmissionResult{}, domain.ErrAlreadyCompleted
	}

	// Only the upper bound is checked; the client grades itself and the
	// original contract does not reject negative scores.
	if score > quiz.TotalQuestions {
		return domain.SubmissionResult{}, domain.ErrInvalidScore
	}

	if score < quiz.PassingScore {
		return domain.SubmissionResult{
			Passed:       false,
			Message:      fmt.Sprintf("You scored %d/%d. You need %d to pass. Try again!", score, quiz.TotalQuestions, quiz.PassingScore),
			Score:        score,
			PassingScore: quiz.PassingScore,
		}, nil
	}

	if err := s.awarder.AwardPoints(ctx, email, quiz.Points, quiz.ActionTitle, quiz.CompletionLimit); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("%w: %v", domain.ErrAwardFailed, err)
	}

	rec := domain.CompletionRecord{
		Email:       email,
		QuizID:      quizID,
		CompletedAt: s.now(),
		Score:       score,
		Answers:     answers,
	}
	if err := s.completions.Put(ctx, rec); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("record completion: %w", err)
	}
	s.notify(ctx, email)

	return domain.SubmissionResult{
		Passed:        true,
		Message:       fmt.Sprintf("Congratulations! You earned %d points!", quiz.Points),
		Score:         score,
		PassingScore:  quiz.PassingScore,
		PointsAwarded: quiz.Points,
	}, nil
}

// Completed reports whether the user has a completion record for one quiz.
func (s *QuizService) Completed(ctx context.Context, email, quizID string) (bool, error) {
	if email == "" {
		return false, domain.ErrMissingIdentity
	}
	_, done, err := s.completions.Get(ctx, email, quizID)
	if err != nil {
		return false, fmt.Errorf("completion lookup: %w", err)
	}
	return done, nil
}

// StatusMap returns the completion flag for every registered quiz.
func (s *QuizService) StatusMap(ctx context.Context, email string) (map[string]bool, error) {
	if email == "" {
		return nil, domain.ErrMissingIdentity
	}
	ids, err := s.quizzes.QuizIDs(ctx)
	if err != nil {
		return nil, err
	}
	status := make(map[string]bool, len(ids))
	for _, id := range ids {
		_, done, err := s.completions.Get(ctx, email, id)
		if err != nil {
			return nil, fmt.Errorf("completion lookup: %w", err)
		}
		status[id] = done
	}
	return status, nil
}

// QuizIDs lists the registered quiz identifiers.
func (s *QuizService) QuizIDs(ctx context.Context) ([]string, error) {
	return s.quizzes.QuizIDs(ctx)
}

// Watch returns a channel that receives the user's status map immediately
// and again after each new completion. The caller must invoke the returned
// cancel function to avoid leaks.
func (s *QuizService) Watch(ctx context.Context, email string) (<-chan map[string]bool, func(), error) {
	initial, err := s.StatusMap(ctx, email)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan map[string]bool, 8)
	s.subMu.Lock()
	set, ok := s.subscribers[email]
	if !ok {
		set = make(map[chan map[string]bool]struct{})
		s.subscribers[email] = set
	}
	set[ch] = struct{}{}
	s.subMu.Unlock()

	ch <- initial

	cancel := func() {
		s.subMu.Lock()
		if set, ok := s.subscribers[email]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(s.subscribers, email)
			}
		}
		s.subMu.Unlock()
	}
	return ch, cancel, nil
}

// notify pushes a fresh status snapshot to the user's watchers. Best-effort:
// a snapshot failure only means watchers miss one update.
func (s *QuizService) notify(ctx context.Context, email string) {
	s.subMu.Lock()
	n := len(s.subscribers[email])
	s.subMu.Unlock()
	if n == 0 {
		return
	}

	snapshot, err := s.StatusMap(ctx, email)
	if err != nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers[email] {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale update so a slow watcher never blocks submission.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func (s *QuizService) lockFor(email, quizID string) *sync.Mutex {
	key := completionKey{email: email, quizID: quizID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}
