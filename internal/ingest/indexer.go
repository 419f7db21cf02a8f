package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/studyowl/studyowl/internal/catalog"
	"github.com/studyowl/studyowl/internal/knowledge"
	"github.com/studyowl/studyowl/internal/log"
)

// Config controls chunking and embedding throughput during ingestion.
type Config struct {
	ChunkSize    int
	ChunkOverlap int

	// EmbedsPerSecond throttles embedding calls so bulk ingestion stays
	// inside provider rate limits. Zero disables throttling.
	EmbedsPerSecond float64
}

// Indexer ingests course documents into the catalog and chunk store.
type Indexer struct {
	catalog   *catalog.Store
	knowledge *knowledge.Store
	limiter   *rate.Limiter
	cfg       Config
	logger    log.Logger
}

// NewIndexer creates an indexer.
func NewIndexer(cat *catalog.Store, know *knowledge.Store, cfg Config, logger log.Logger) *Indexer {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.EmbedsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedsPerSecond), 1)
	}
	return &Indexer{
		catalog:   cat,
		knowledge: know,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger,
	}
}

// AddCourseDocument parses and indexes a single course script.
// Returns the course title and the number of chunks stored.
func (ix *Indexer) AddCourseDocument(ctx context.Context, path string) (string, int, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return "", 0, err
	}

	lessons := make([]catalog.Lesson, 0, len(doc.Lessons))
	for _, l := range doc.Lessons {
		lessons = append(lessons, catalog.Lesson{Number: l.Number, Title: l.Title, Link: l.Link})
	}

	if err := ix.limiter.Wait(ctx); err != nil {
		return "", 0, err
	}
	courseID, err := ix.catalog.Upsert(ctx, catalog.Course{
		Title:      doc.Title,
		Link:       doc.Link,
		Instructor: doc.Instructor,
	}, lessons)
	if err != nil {
		return "", 0, err
	}

	index := 0
	addChunks := func(lessonNumber *int, prefix, text string) error {
		for _, chunk := range ChunkText(text, ix.cfg.ChunkSize, ix.cfg.ChunkOverlap) {
			if err := ix.limiter.Wait(ctx); err != nil {
				return err
			}
			err := ix.knowledge.Add(ctx, knowledge.Chunk{
				CourseID:     courseID,
				LessonNumber: lessonNumber,
				Index:        index,
				Content:      prefix + chunk,
			})
			if err != nil {
				return err
			}
			index++
		}
		return nil
	}

	if doc.Preamble != "" {
		prefix := fmt.Sprintf("Course %s content: ", doc.Title)
		if err := addChunks(nil, prefix, doc.Preamble); err != nil {
			return "", 0, fmt.Errorf("indexing preamble of %q: %w", doc.Title, err)
		}
	}

	for _, l := range doc.Lessons {
		if l.Text == "" {
			continue
		}
		n := l.Number
		// The prefix keeps course and lesson context retrievable even
		// when a chunk's own text never names them.
		prefix := fmt.Sprintf("Course %s Lesson %d content: ", doc.Title, n)
		if err := addChunks(&n, prefix, l.Text); err != nil {
			return "", 0, fmt.Errorf("indexing lesson %d of %q: %w", n, doc.Title, err)
		}
	}

	ix.logger.Info("indexed course document",
		"path", path, "course", doc.Title, "lessons", len(doc.Lessons), "chunks", index)
	return doc.Title, index, nil
}

// AddCourseFolder ingests every readable course script in dir, skipping
// courses whose titles are already cataloged. Individual file failures are
// logged and skipped so one bad document cannot block the rest.
// Returns the number of newly added courses and chunks.
func (ix *Indexer) AddCourseFolder(ctx context.Context, dir string, clearFirst bool) (int, int, error) {
	if clearFirst {
		if err := ix.catalog.Clear(ctx); err != nil {
			return 0, 0, err
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading docs folder %s: %w", dir, err)
	}

	courses, chunks := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !isCourseScript(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		title, err := peekTitle(path)
		if err != nil {
			ix.logger.Warn("skipping unreadable document", "path", path, "error", err)
			continue
		}

		exists, err := ix.catalog.Exists(ctx, title)
		if err != nil {
			return courses, chunks, err
		}
		if exists {
			ix.logger.Debug("course already indexed, skipping", "course", title)
			continue
		}

		_, n, err := ix.AddCourseDocument(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return courses, chunks, err
			}
			ix.logger.Warn("skipping document after indexing failure", "path", path, "error", err)
			continue
		}
		courses++
		chunks += n
	}

	return courses, chunks, nil
}

// isCourseScript reports whether a file name looks like an ingestible script.
func isCourseScript(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// peekTitle parses only far enough to learn the canonical course title, so
// duplicate detection runs before any embedding work.
func peekTitle(path string) (string, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return "", err
	}
	return doc.Title, nil
}
