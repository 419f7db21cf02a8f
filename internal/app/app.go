// Package app provides application initialization and dependency wiring.
//
// App is the container that owns every long-lived component: the database
// pool, Genkit, the catalog and knowledge stores, the tool registry and the
// assistant itself. Setup builds it in dependency order; Close releases
// resources in reverse.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyowl/studyowl/internal/assistant"
	"github.com/studyowl/studyowl/internal/catalog"
	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/ingest"
	"github.com/studyowl/studyowl/internal/knowledge"
	"github.com/studyowl/studyowl/internal/log"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Catalog   *catalog.Store
	Knowledge *knowledge.Store
	Indexer   *ingest.Indexer

	Registry  *assistant.Registry
	Assistant *assistant.Assistant

	otelCleanup func()
	dbCleanup   func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.dbCleanup != nil {
		a.dbCleanup()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
