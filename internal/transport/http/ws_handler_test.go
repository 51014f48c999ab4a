package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWatchPushesStatusUpdates(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/status?email=a@b.com"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot: nothing completed yet.
	initial := readStatus(t, conn)
	if initial["grooming_mastery"] {
		t.Fatalf("expected incomplete snapshot, got %v", initial)
	}

	// Completing the quiz over REST must push a fresh snapshot.
	start := postJSON(t, server.URL+"/api/quiz/start", map[string]any{
		"quiz_id": "grooming_mastery",
		"email":   "a@b.com",
	})
	submit := postJSON(t, server.URL+"/api/quiz/submit", map[string]any{
		"session_id": start.body["session_id"],
		"quiz_id":    "grooming_mastery",
		"score":      4,
	})
	if submit.code != http.StatusOK {
		t.Fatalf("submit status %d body %s", submit.code, submit.raw)
	}

	update := readStatus(t, conn)
	if !update["grooming_mastery"] {
		t.Fatalf("expected completion in update, got %v", update)
	}
}

func TestWatchRequiresEmail(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without email, got %d", resp.StatusCode)
	}
}

func readStatus(t *testing.T, conn *websocket.Conn) map[string]bool {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload map[string]bool `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "status" {
		t.Fatalf("expected status message, got %q", msg.Type)
	}
	return msg.Payload
}
