// Package catalog manages course metadata: titles, links, instructors and
// lesson outlines. Course titles carry embeddings so user-supplied names
// resolve fuzzily ("MCP" finds "MCP: Build Rich-Context AI Apps").
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/studyowl/studyowl/internal/log"
)

// DB is the subset of pgxpool.Pool the store needs. Consumer-defined so tests
// can substitute a fake.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides catalog operations backed by PostgreSQL.
// Safe for concurrent use.
type Store struct {
	db       DB
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a catalog store. The embedder generates title embeddings for
// fuzzy resolution.
func New(db DB, embedder ai.Embedder, logger log.Logger) *Store {
	return &Store{db: db, embedder: embedder, logger: logger}
}

// Upsert inserts or updates a course and replaces its lesson list.
// Returns the course id.
func (s *Store) Upsert(ctx context.Context, course Course, lessons []Lesson) (int64, error) {
	titleVec, err := s.embed(ctx, course.Title)
	if err != nil {
		return 0, fmt.Errorf("embedding course title %q: %w", course.Title, err)
	}

	var id int64
	err = s.db.QueryRow(ctx, `
		INSERT INTO courses (title, link, instructor, title_embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (title) DO UPDATE
		SET link = EXCLUDED.link,
		    instructor = EXCLUDED.instructor,
		    title_embedding = EXCLUDED.title_embedding
		RETURNING id`,
		course.Title, course.Link, course.Instructor, titleVec,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting course %q: %w", course.Title, err)
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM lessons WHERE course_id = $1`, id); err != nil {
		return 0, fmt.Errorf("clearing lessons for course %q: %w", course.Title, err)
	}

	for _, l := range lessons {
		_, err := s.db.Exec(ctx, `
			INSERT INTO lessons (course_id, lesson_number, title, link)
			VALUES ($1, $2, $3, $4)`,
			id, l.Number, l.Title, l.Link,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting lesson %d of %q: %w", l.Number, course.Title, err)
		}
	}

	s.logger.Debug("upserted course", "title", course.Title, "lessons", len(lessons))
	return id, nil
}

// Exists reports whether a course with the exact title is already cataloged.
// Ingestion uses it to skip duplicate documents.
func (s *Store) Exists(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM courses WHERE title = $1)`, title,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking course %q: %w", title, err)
	}
	return exists, nil
}

// Resolve maps a user-supplied course name to a cataloged course.
// An ILIKE substring match wins outright; otherwise the nearest course by
// title-embedding cosine distance is returned. ErrNotFound when the catalog
// is empty or no embedding matches.
func (s *Store) Resolve(ctx context.Context, name string) (Course, error) {
	var c Course
	err := s.db.QueryRow(ctx, `
		SELECT id, title, link, instructor
		FROM courses
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY length(title)
		LIMIT 1`, name,
	).Scan(&c.ID, &c.Title, &c.Link, &c.Instructor)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Course{}, fmt.Errorf("resolving course %q: %w", name, err)
	}

	nameVec, err := s.embed(ctx, name)
	if err != nil {
		return Course{}, fmt.Errorf("embedding course name %q: %w", name, err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT id, title, link, instructor
		FROM courses
		WHERE title_embedding IS NOT NULL
		ORDER BY title_embedding <=> $1
		LIMIT 1`, nameVec,
	).Scan(&c.ID, &c.Title, &c.Link, &c.Instructor)
	if errors.Is(err, pgx.ErrNoRows) {
		return Course{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Course{}, fmt.Errorf("resolving course %q by embedding: %w", name, err)
	}

	s.logger.Debug("resolved course by embedding", "input", name, "matched", c.Title)
	return c, nil
}

// Outline returns a course and its ordered lessons by exact canonical title.
func (s *Store) Outline(ctx context.Context, title string) (Outline, error) {
	var o Outline
	err := s.db.QueryRow(ctx, `
		SELECT id, title, link, instructor FROM courses WHERE title = $1`, title,
	).Scan(&o.Course.ID, &o.Course.Title, &o.Course.Link, &o.Course.Instructor)
	if errors.Is(err, pgx.ErrNoRows) {
		return Outline{}, fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	if err != nil {
		return Outline{}, fmt.Errorf("loading course %q: %w", title, err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT lesson_number, title, link
		FROM lessons
		WHERE course_id = $1
		ORDER BY lesson_number`, o.Course.ID,
	)
	if err != nil {
		return Outline{}, fmt.Errorf("loading lessons for %q: %w", title, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.Number, &l.Title, &l.Link); err != nil {
			return Outline{}, fmt.Errorf("scanning lesson of %q: %w", title, err)
		}
		o.Lessons = append(o.Lessons, l)
	}
	if err := rows.Err(); err != nil {
		return Outline{}, fmt.Errorf("reading lessons for %q: %w", title, err)
	}

	return o, nil
}

// Analytics returns the course count and all titles, alphabetically.
func (s *Store) Analytics(ctx context.Context) (Analytics, error) {
	rows, err := s.db.Query(ctx, `SELECT title FROM courses ORDER BY title`)
	if err != nil {
		return Analytics{}, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	var a Analytics
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return Analytics{}, fmt.Errorf("scanning course title: %w", err)
		}
		a.CourseTitles = append(a.CourseTitles, title)
	}
	if err := rows.Err(); err != nil {
		return Analytics{}, fmt.Errorf("reading course titles: %w", err)
	}

	a.TotalCourses = len(a.CourseTitles)
	return a, nil
}

// Clear removes all catalog data. Chunks cascade via foreign keys.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `TRUNCATE courses RESTART IDENTITY CASCADE`); err != nil {
		return fmt.Errorf("clearing catalog: %w", err)
	}
	s.logger.Info("catalog cleared")
	return nil
}

// embed generates a single embedding vector for text.
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
		return pgvector.Vector{}, fmt.Errorf("empty embedding returned for %q", text)
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
