package cli

import "testing"

func TestResolvePortPrecedence(t *testing.T) {
	if got := resolvePort("3000", "9090"); got != "3000" {
		t.Fatalf("expected flag to win, got %q", got)
	}
	if got := resolvePort("", "9090"); got != "9090" {
		t.Fatalf("expected configured port, got %q", got)
	}
	if got := resolvePort("", ""); got != "8080" {
		t.Fatalf("expected default port, got %q", got)
	}
}
