package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/studyowl/studyowl/internal/catalog"
	"github.com/studyowl/studyowl/internal/log"
	"github.com/studyowl/studyowl/internal/testutil"
)

func TestStore_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	g := genkit.Init(ctx)
	embedder := testutil.NewMockEmbedder(768).Register(g)

	store := catalog.New(db.Pool, embedder, log.NewNop())

	course := catalog.Course{
		Title:      "MCP: Build Rich-Context AI Apps",
		Link:       "https://example.com/mcp",
		Instructor: "Elie Schoppik",
	}
	lessons := []catalog.Lesson{
		{Number: 0, Title: "Introduction", Link: "https://example.com/mcp/0"},
		{Number: 1, Title: "Why MCP", Link: "https://example.com/mcp/1"},
		{Number: 2, Title: "MCP Architecture"},
	}

	t.Run("upsert and exists", func(t *testing.T) {
		id, err := store.Upsert(ctx, course, lessons)
		if err != nil {
			t.Fatalf("Upsert() = %v", err)
		}
		if id == 0 {
			t.Error("Upsert() returned zero id")
		}

		exists, err := store.Exists(ctx, course.Title)
		if err != nil {
			t.Fatalf("Exists() = %v", err)
		}
		if !exists {
			t.Error("Exists() = false after upsert")
		}

		exists, err = store.Exists(ctx, "Unknown Course")
		if err != nil {
			t.Fatalf("Exists() = %v", err)
		}
		if exists {
			t.Error("Exists() = true for unknown title")
		}
	})

	t.Run("resolve by substring", func(t *testing.T) {
		got, err := store.Resolve(ctx, "MCP")
		if err != nil {
			t.Fatalf("Resolve() = %v", err)
		}
		if got.Title != course.Title {
			t.Errorf("Resolve() = %q, want %q", got.Title, course.Title)
		}
		if got.Instructor != course.Instructor {
			t.Errorf("instructor = %q, want %q", got.Instructor, course.Instructor)
		}
	})

	t.Run("resolve by embedding", func(t *testing.T) {
		// No substring overlap, so resolution falls through to the
		// nearest title embedding. With a single course that is always
		// the match; top-1 resolution has no distance threshold.
		got, err := store.Resolve(ctx, "rich context protocol course")
		if err != nil {
			t.Fatalf("Resolve() = %v", err)
		}
		if got.Title != course.Title {
			t.Errorf("Resolve() = %q, want %q", got.Title, course.Title)
		}
	})

	t.Run("outline", func(t *testing.T) {
		o, err := store.Outline(ctx, course.Title)
		if err != nil {
			t.Fatalf("Outline() = %v", err)
		}
		if o.Course.Link != course.Link {
			t.Errorf("course link = %q, want %q", o.Course.Link, course.Link)
		}
		if len(o.Lessons) != len(lessons) {
			t.Fatalf("len(lessons) = %d, want %d", len(o.Lessons), len(lessons))
		}
		for i, l := range o.Lessons {
			if l.Number != lessons[i].Number || l.Title != lessons[i].Title {
				t.Errorf("lesson[%d] = %+v, want %+v", i, l, lessons[i])
			}
		}
	})

	t.Run("outline of unknown course", func(t *testing.T) {
		_, err := store.Outline(ctx, "Nope")
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("Outline() = %v, want ErrNotFound", err)
		}
	})

	t.Run("upsert is idempotent", func(t *testing.T) {
		updated := course
		updated.Instructor = "Someone Else"
		if _, err := store.Upsert(ctx, updated, lessons[:1]); err != nil {
			t.Fatalf("second Upsert() = %v", err)
		}

		a, err := store.Analytics(ctx)
		if err != nil {
			t.Fatalf("Analytics() = %v", err)
		}
		if a.TotalCourses != 1 {
			t.Errorf("TotalCourses = %d, want 1", a.TotalCourses)
		}

		o, err := store.Outline(ctx, course.Title)
		if err != nil {
			t.Fatalf("Outline() = %v", err)
		}
		if o.Course.Instructor != "Someone Else" {
			t.Errorf("instructor not updated: %q", o.Course.Instructor)
		}
		if len(o.Lessons) != 1 {
			t.Errorf("lessons not replaced: %d", len(o.Lessons))
		}
	})

	t.Run("analytics lists titles sorted", func(t *testing.T) {
		second := catalog.Course{Title: "Advanced Retrieval for AI"}
		if _, err := store.Upsert(ctx, second, nil); err != nil {
			t.Fatalf("Upsert() = %v", err)
		}

		a, err := store.Analytics(ctx)
		if err != nil {
			t.Fatalf("Analytics() = %v", err)
		}
		if a.TotalCourses != 2 {
			t.Fatalf("TotalCourses = %d, want 2", a.TotalCourses)
		}
		if a.CourseTitles[0] != "Advanced Retrieval for AI" {
			t.Errorf("titles not sorted: %v", a.CourseTitles)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear() = %v", err)
		}

		exists, err := store.Exists(ctx, course.Title)
		if err != nil {
			t.Fatalf("Exists() = %v", err)
		}
		if exists {
			t.Error("course still present after Clear()")
		}

		if _, err := store.Resolve(ctx, "anything at all"); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("Resolve() after Clear() = %v, want ErrNotFound", err)
		}
	})
}
