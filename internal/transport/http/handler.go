package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"perk-quiz-backend/internal/app"
	"perk-quiz-backend/internal/domain"
	"perk-quiz-backend/internal/pkg/logger"
)

// Handler exposes the quiz lifecycle over JSON/HTTP.
type Handler struct {
	service *app.QuizService
	log     *logger.Logger
}

func NewHandler(service *app.QuizService, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log.With("component", "http")}
}

// Mount attaches all REST routes onto the router.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/quiz", func(qr chi.Router) {
		qr.Post("/start", h.StartQuiz)
		qr.Post("/submit", h.SubmitQuiz)
		qr.Get("/status", h.QuizStatus)
	})
	r.Get("/health", h.Health)
}

type startRequest struct {
	QuizID string `json:"quiz_id"`
	Email  string `json:"email"`
}

type submitRequest struct {
	SessionID string         `json:"session_id"`
	QuizID    string         `json:"quiz_id"`
	Score     *int           `json:"score"`
	Answers   map[string]int `json:"answers"`
}

type submitResponse struct {
	Success bool `json:"success"`
	domain.SubmissionResult
}

type statusResponse struct {
	QuizID    string `json:"quiz_id"`
	Completed bool   `json:"completed"`
}

type healthResponse struct {
	Status           string   `json:"status"`
	Timestamp        string   `json:"timestamp"`
	QuizzesAvailable []string `json:"quizzes_available"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.ErrMissingFields)
		return
	}
	receipt, err := h.service.Start(r.Context(), req.QuizID, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.ErrMissingFields)
		return
	}
	// A missing score must be rejected, but zero and negative are evaluated.
	if req.Score == nil {
		h.writeError(w, domain.ErrMissingFields)
		return
	}
	result, err := h.service.Submit(r.Context(), req.SessionID, req.QuizID, *req.Score, req.Answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true, SubmissionResult: result})
}

func (h *Handler) QuizStatus(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	quizID := r.URL.Query().Get("quiz_id")

	if quizID != "" {
		completed, err := h.service.Completed(r.Context(), email, quizID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{QuizID: quizID, Completed: completed})
		return
	}

	status, err := h.service.StatusMap(r.Context(), email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.QuizIDs(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           "healthy",
		Timestamp:        time.Now().Format(time.RFC3339),
		QuizzesAvailable: ids,
	})
}

// writeError maps the domain error taxonomy onto HTTP statuses: caller
// faults are 400s, a bad token is 401, and an award failure is a 500 the
// client may safely retry.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownQuiz):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid quiz ID"})
	case errors.Is(err, domain.ErrMissingIdentity):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Email required"})
	case errors.Is(err, domain.ErrMissingFields):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields"})
	case errors.Is(err, domain.ErrInvalidScore):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid score"})
	case errors.Is(err, domain.ErrAlreadyCompleted):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Quiz already completed",
			Message: "You have already completed this quiz and received your points.",
		})
	case errors.Is(err, domain.ErrInvalidSession):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid session"})
	case errors.Is(err, domain.ErrAwardFailed):
		h.log.Error("award call failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		h.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
