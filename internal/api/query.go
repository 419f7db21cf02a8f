package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/studyowl/studyowl/internal/assistant"
	"github.com/studyowl/studyowl/internal/catalog"
	"github.com/studyowl/studyowl/internal/log"
)

// MaxQueryBytes bounds the request body for the query endpoint.
const MaxQueryBytes = 64 * 1024

// Assistant is the slice of assistant.Assistant the API depends on.
type Assistant interface {
	Query(ctx context.Context, query, sessionID string) (string, []assistant.Source, error)
	Analytics(ctx context.Context) (catalog.Analytics, error)
	Sessions() *assistant.Sessions
}

// QueryHandler handles the question answering and analytics endpoints.
type QueryHandler struct {
	assistant Assistant
	logger    log.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(a Assistant, logger log.Logger) *QueryHandler {
	return &QueryHandler{assistant: a, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.query)
	mux.HandleFunc("GET /api/courses", h.courses)
}

// QueryRequest is the request body for answering a question.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse carries the answer, its citations and the session id the
// exchange was recorded under.
type QueryResponse struct {
	Answer    string             `json:"answer"`
	Sources   []assistant.Source `json:"sources"`
	SessionID string             `json:"session_id"`
}

// query answers one question. A missing session_id starts a new session and
// the minted id comes back in the response so the client can continue it.
func (h *QueryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	body := http.MaxBytesReader(w, r.Body, MaxQueryBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = h.assistant.Sessions().NewSessionID()
	}

	answer, sources, err := h.assistant.Query(r.Context(), req.Query, sessionID)
	if err != nil {
		h.logger.Error("query failed", "session", sessionID, "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}

	if sources == nil {
		sources = []assistant.Source{}
	}
	writeJSON(h.logger, w, http.StatusOK, QueryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

// CoursesResponse reports catalog analytics.
type CoursesResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// courses reports the number of cataloged courses and their titles.
func (h *QueryHandler) courses(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.assistant.Analytics(r.Context())
	if err != nil {
		h.logger.Error("analytics failed", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "failed to load course analytics", err.Error())
		return
	}

	titles := analytics.CourseTitles
	if titles == nil {
		titles = []string{}
	}
	writeJSON(h.logger, w, http.StatusOK, CoursesResponse{
		TotalCourses: analytics.TotalCourses,
		CourseTitles: titles,
	})
}
