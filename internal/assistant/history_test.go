package assistant_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/studyowl/studyowl/internal/assistant"
)

func TestSessions_History(t *testing.T) {
	s := assistant.NewSessions(2)

	if got := s.History("unknown"); got != "" {
		t.Errorf("History(unknown) = %q, want empty", got)
	}

	s.Record("s1", "What is MCP?", "A protocol.")
	want := "User: What is MCP?\nAssistant: A protocol."
	if got := s.History("s1"); got != want {
		t.Errorf("History() = %q, want %q", got, want)
	}

	s.Record("s1", "Who teaches it?", "Elie.")
	want = "User: What is MCP?\nAssistant: A protocol.\nUser: Who teaches it?\nAssistant: Elie."
	if got := s.History("s1"); got != want {
		t.Errorf("History() = %q, want %q", got, want)
	}
}

func TestSessions_WindowEvictsOldest(t *testing.T) {
	const maxHistory = 2
	s := assistant.NewSessions(maxHistory)

	for i := 1; i <= maxHistory+3; i++ {
		s.Record("s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	got := s.History("s1")
	if strings.Contains(got, "q1") || strings.Contains(got, "q3") {
		t.Errorf("evicted exchanges still rendered: %q", got)
	}
	if !strings.Contains(got, "q4") || !strings.Contains(got, "q5") {
		t.Errorf("recent exchanges missing: %q", got)
	}
	if n := strings.Count(got, "User: "); n != maxHistory {
		t.Errorf("rendered %d exchanges, want %d", n, maxHistory)
	}
}

func TestSessions_IsolatedPerSession(t *testing.T) {
	s := assistant.NewSessions(5)
	s.Record("a", "qa", "aa")
	s.Record("b", "qb", "ab")

	if got := s.History("a"); strings.Contains(got, "qb") {
		t.Errorf("session a leaked session b content: %q", got)
	}
}

func TestSessions_NewSessionID(t *testing.T) {
	s := assistant.NewSessions(2)

	seen := make(map[string]bool)
	for range 100 {
		id := s.NewSessionID()
		if id == "" {
			t.Fatal("empty session id")
		}
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
}

func TestNewSessions_MinimumWindow(t *testing.T) {
	s := assistant.NewSessions(0)
	s.Record("s", "q1", "a1")
	s.Record("s", "q2", "a2")

	got := s.History("s")
	if strings.Contains(got, "q1") {
		t.Errorf("window of 1 kept older exchange: %q", got)
	}
	if !strings.Contains(got, "q2") {
		t.Errorf("latest exchange missing: %q", got)
	}
}
