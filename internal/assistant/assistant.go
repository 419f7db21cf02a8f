// Package assistant implements the tool-augmented question answering core:
// a bounded generation loop over Genkit models, the search and outline tools
// it can call, source-citation tracking and windowed session history.
package assistant

import (
	"context"
	"fmt"

	"github.com/studyowl/studyowl/internal/catalog"
	"github.com/studyowl/studyowl/internal/ingest"
	"github.com/studyowl/studyowl/internal/log"
)

// Assistant composes history, the generation loop and the tool registry into
// one query-answering operation. It also fronts ingestion and catalog
// analytics for the HTTP and CLI layers.
type Assistant struct {
	generator *Generator
	registry  *Registry
	sessions  *Sessions
	catalog   *catalog.Store
	indexer   *ingest.Indexer
	logger    log.Logger
}

// New creates an assistant.
func New(generator *Generator, registry *Registry, sessions *Sessions,
	cat *catalog.Store, indexer *ingest.Indexer, logger log.Logger) *Assistant {
	return &Assistant{
		generator: generator,
		registry:  registry,
		sessions:  sessions,
		catalog:   cat,
		indexer:   indexer,
		logger:    logger,
	}
}

// Sessions exposes the session store, for callers that mint session ids.
func (a *Assistant) Sessions() *Sessions { return a.sessions }

// Query answers one user question, optionally continuing a session.
//
// Sources from this query's tool executions are drained and returned; the
// registry is cleared afterward even when generation fails, so stale
// citations cannot leak into the next query. The exchange is recorded with
// the raw query text, not the wrapped prompt.
func (a *Assistant) Query(ctx context.Context, query, sessionID string) (string, []Source, error) {
	defer a.registry.ClearSources()

	var history string
	if sessionID != "" {
		history = a.sessions.History(sessionID)
	}

	prompt := fmt.Sprintf("Answer this question about course materials: %s", query)

	answer, err := a.generator.Generate(ctx, prompt, history, a.registry)
	if err != nil {
		return "", nil, err
	}

	sources := a.registry.DrainSources()

	if sessionID != "" {
		a.sessions.Record(sessionID, query, answer)
	}

	a.logger.Info("query answered",
		"session", sessionID, "sources", len(sources), "answer_length", len(answer))
	return answer, sources, nil
}

// Analytics reports the catalog's course count and titles.
func (a *Assistant) Analytics(ctx context.Context) (catalog.Analytics, error) {
	return a.catalog.Analytics(ctx)
}

// AddCourseDocument ingests one course script.
func (a *Assistant) AddCourseDocument(ctx context.Context, path string) (string, int, error) {
	return a.indexer.AddCourseDocument(ctx, path)
}

// AddCourseFolder ingests every course script in a directory, skipping
// already-cataloged titles.
func (a *Assistant) AddCourseFolder(ctx context.Context, dir string, clearFirst bool) (int, int, error) {
	return a.indexer.AddCourseFolder(ctx, dir, clearFirst)
}
