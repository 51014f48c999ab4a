package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"perk-quiz-backend/internal/app"
	"perk-quiz-backend/internal/pkg/logger"
)

// WatchHandler streams completion status over a websocket so quiz pages can
// react to completions without polling /api/quiz/status.
type WatchHandler struct {
	service  *app.QuizService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWatchHandler(service *app.QuizService, log *logger.Logger) *WatchHandler {
	return &WatchHandler{
		service: service,
		log:     log.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string          `json:"type"`
	Payload map[string]bool `json:"payload"`
}

// ServeWS upgrades the request and pushes the user's status map immediately,
// then again after every new completion, until either side disconnects.
func (h *WatchHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	updates, cancel, err := h.service.Watch(r.Context(), email)
	if err != nil {
		h.log.Warn("watch rejected", "email", email, "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Reader only detects disconnects; clients send nothing meaningful.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "status", Payload: update}); err != nil {
				h.log.Debug("ws write error", "err", err)
				return
			}
		case <-readerDone:
			return
		}
	}
}
