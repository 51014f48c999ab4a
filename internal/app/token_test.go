package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"perk-quiz-backend/internal/domain"
)

func TestNewSessionIDShape(t *testing.T) {
	issuedAt := time.Unix(1700000000, 0)
	token := NewSessionID("a@b.com", "grooming_mastery", issuedAt)

	parts := strings.Split(token, "_")
	if len(parts) != 3 {
		t.Fatalf("expected three segments, got %q", token)
	}
	if parts[0] != "a@b.com" || parts[1] != "1700000000" {
		t.Fatalf("unexpected identity/timestamp segments in %q", token)
	}
	if len(parts[2]) != 16 {
		t.Fatalf("expected 16-char hash fragment, got %q", parts[2])
	}

	// Same inputs derive the same token; a different quiz changes the fragment.
	if again := NewSessionID("a@b.com", "grooming_mastery", issuedAt); again != token {
		t.Fatalf("expected deterministic token, got %q vs %q", again, token)
	}
	if other := NewSessionID("a@b.com", "skin_type", issuedAt); other == token {
		t.Fatalf("expected quiz id to influence the fragment")
	}
}

func TestIdentityFromSessionID(t *testing.T) {
	token := NewSessionID("a@b.com", "grooming_mastery", time.Now())
	email, err := IdentityFromSessionID(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if email != "a@b.com" {
		t.Fatalf("expected a@b.com, got %q", email)
	}

	for _, bad := range []string{"", "noseparator", "_1700000000_abc"} {
		if _, err := IdentityFromSessionID(bad); !errors.Is(err, domain.ErrInvalidSession) {
			t.Fatalf("expected invalid session for %q, got %v", bad, err)
		}
	}
}
