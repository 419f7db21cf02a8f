// Package knowledge stores course content chunks and answers semantic search
// queries over them using PostgreSQL + pgvector.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/studyowl/studyowl/internal/log"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store manages content chunks with vector search.
// Safe for concurrent use.
type Store struct {
	db       DB
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a chunk store.
func New(db DB, embedder ai.Embedder, logger log.Logger) *Store {
	return &Store{db: db, embedder: embedder, logger: logger}
}

// Add embeds and stores a single chunk.
func (s *Store) Add(ctx context.Context, chunk Chunk) error {
	vec, err := s.embed(ctx, chunk.Content)
	if err != nil {
		return fmt.Errorf("embedding chunk %d of course %d: %w", chunk.Index, chunk.CourseID, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO chunks (id, course_id, lesson_number, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), chunk.CourseID, chunk.LessonNumber, chunk.Index, chunk.Content, vec,
	)
	if err != nil {
		return fmt.Errorf("inserting chunk %d of course %d: %w", chunk.Index, chunk.CourseID, err)
	}

	return nil
}

// Search performs semantic search over stored chunks, most similar first.
// A timeout bounds both embedding and query so a slow vector scan cannot
// block the tool loop.
//
//	results, err := store.Search(ctx, "how do tools work",
//	    knowledge.WithCourse(courseID),
//	    knowledge.WithLesson(3),
//	    knowledge.WithLimit(5))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	vec, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// The lesson link wins when the hit belongs to a lesson; the course
	// link is the fallback citation target.
	sql := strings.Builder{}
	sql.WriteString(`
		SELECT c.title, ch.lesson_number, ch.content,
		       COALESCE(NULLIF(l.link, ''), c.link) AS link,
		       1 - (ch.embedding <=> $1) AS similarity
		FROM chunks ch
		JOIN courses c ON c.id = ch.course_id
		LEFT JOIN lessons l
		       ON l.course_id = ch.course_id
		      AND l.lesson_number = ch.lesson_number`)

	args := []any{vec}
	var conds []string
	if cfg.courseID != nil {
		args = append(args, *cfg.courseID)
		conds = append(conds, fmt.Sprintf("ch.course_id = $%d", len(args)))
	}
	if cfg.lesson != nil {
		args = append(args, *cfg.lesson)
		conds = append(conds, fmt.Sprintf("ch.lesson_number = $%d", len(args)))
	}
	if len(conds) > 0 {
		sql.WriteString("\n\t\tWHERE " + strings.Join(conds, " AND "))
	}

	args = append(args, cfg.limit)
	sql.WriteString(fmt.Sprintf("\n\t\tORDER BY ch.embedding <=> $1\n\t\tLIMIT $%d", len(args)))

	rows, err := s.db.Query(queryCtx, sql.String(), args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.CourseTitle, &r.LessonNumber, &r.Content, &r.Link, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	s.logger.Debug("search completed", "query_length", len(query), "results", len(results))
	return results, nil
}

// Count returns the total number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding returned")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
