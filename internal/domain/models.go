package domain

import "time"

// QuizDefinition is the static configuration for one quiz. Definitions are
// loaded at startup and immutable afterwards.
type QuizDefinition struct {
	ID              string `json:"-"`
	Name            string `json:"name"`
	TotalQuestions  int    `json:"total_questions"`
	PassingScore    int    `json:"passing_score"`
	Points          int    `json:"points"`
	ActionTitle     string `json:"action_title"`
	CompletionLimit int    `json:"completion_limit"`
}

// Valid reports whether the definition satisfies the registry invariant
// (passing score never exceeds the question count).
func (q QuizDefinition) Valid() bool {
	return q.ID != "" && q.TotalQuestions > 0 && q.PassingScore <= q.TotalQuestions
}

// CompletionRecord marks that a user passed a quiz and was awarded points.
// At most one record exists per (email, quiz) pair; records are created on a
// passing, successfully-awarded submission and never updated or deleted.
type CompletionRecord struct {
	Email       string         `json:"email"`
	QuizID      string         `json:"quiz_id"`
	CompletedAt time.Time      `json:"completed_at"`
	Score       int            `json:"score"`
	Answers     map[string]int `json:"answers,omitempty"`
}

// StartReceipt is returned from session issuance so the client can render
// the quiz without a second round trip.
type StartReceipt struct {
	SessionID string         `json:"session_id"`
	Quiz      QuizDefinition `json:"quiz_config"`
	Message   string         `json:"message"`
}

// SubmissionResult is the normal outcome of a submission. A failing score is
// a result, not an error; only validation and award problems are errors.
type SubmissionResult struct {
	Passed        bool   `json:"passed"`
	Message       string `json:"message"`
	Score         int    `json:"score"`
	PassingScore  int    `json:"passing_score"`
	PointsAwarded int    `json:"points_awarded,omitempty"`
}
