package assistant

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

type exchange struct {
	query  string
	answer string
}

// window is a fixed-capacity ring of exchanges. Inserting at capacity
// overwrites the oldest entry; the buffer never grows after allocation.
type window struct {
	buf   []exchange
	next  int // insert position
	count int
}

func newWindow(capacity int) *window {
	return &window{buf: make([]exchange, capacity)}
}

func (w *window) push(e exchange) {
	w.buf[w.next] = e
	w.next = (w.next + 1) % len(w.buf)
	if w.count < len(w.buf) {
		w.count++
	}
}

// oldestFirst returns the retained exchanges in insertion order.
func (w *window) oldestFirst() []exchange {
	out := make([]exchange, 0, w.count)
	start := (w.next - w.count + len(w.buf)) % len(w.buf)
	for i := range w.count {
		out = append(out, w.buf[(start+i)%len(w.buf)])
	}
	return out
}

// Sessions keeps a bounded per-session window of (query, answer) exchanges.
// Each session retains at most maxHistory exchanges in a fixed-size ring;
// inserting at capacity evicts the oldest. Sessions live for the process
// lifetime.
//
// Safe for concurrent use.
type Sessions struct {
	mu         sync.Mutex
	maxHistory int
	byID       map[string]*window
}

// NewSessions creates a session store retaining maxHistory exchanges per
// session. Values below 1 are raised to 1.
func NewSessions(maxHistory int) *Sessions {
	if maxHistory < 1 {
		maxHistory = 1
	}
	return &Sessions{
		maxHistory: maxHistory,
		byID:       make(map[string]*window),
	}
}

// NewSessionID generates a fresh unique session identifier.
func (s *Sessions) NewSessionID() string {
	return uuid.NewString()
}

// Record appends an exchange, creating the session's ring on first use and
// evicting the oldest exchange beyond the window.
func (s *Sessions) Record(sessionID, query, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.byID[sessionID]
	if w == nil {
		w = newWindow(s.maxHistory)
		s.byID[sessionID] = w
	}
	w.push(exchange{query: query, answer: answer})
}

// History renders the retained exchanges as alternating
// "User: {q}\nAssistant: {a}" blocks, oldest first. Returns "" for unknown or
// empty sessions so callers can omit the history block entirely.
func (s *Sessions) History(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.byID[sessionID]
	if w == nil || w.count == 0 {
		return ""
	}

	lines := make([]string, 0, w.count)
	for _, e := range w.oldestFirst() {
		lines = append(lines, "User: "+e.query+"\nAssistant: "+e.answer)
	}
	return strings.Join(lines, "\n")
}
