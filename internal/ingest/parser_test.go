package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleScript = `Course Title: MCP: Build Rich-Context AI Apps
Course Link: https://example.com/mcp
Course Instructor: Elie Schoppik

Lesson 0: Introduction
Lesson Link: https://example.com/mcp/lesson/0
Welcome to the course. This is the intro.

Lesson 1: Why MCP
Model context protocol standardizes tool access.
It replaces bespoke integrations.
`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleScript))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}

	if doc.Title != "MCP: Build Rich-Context AI Apps" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Link != "https://example.com/mcp" {
		t.Errorf("Link = %q", doc.Link)
	}
	if doc.Instructor != "Elie Schoppik" {
		t.Errorf("Instructor = %q", doc.Instructor)
	}
	if doc.Preamble != "" {
		t.Errorf("Preamble = %q, want empty", doc.Preamble)
	}

	if len(doc.Lessons) != 2 {
		t.Fatalf("len(Lessons) = %d, want 2", len(doc.Lessons))
	}

	l0 := doc.Lessons[0]
	if l0.Number != 0 || l0.Title != "Introduction" {
		t.Errorf("lesson 0 = %+v", l0)
	}
	if l0.Link != "https://example.com/mcp/lesson/0" {
		t.Errorf("lesson 0 link = %q", l0.Link)
	}
	if !strings.Contains(l0.Text, "Welcome to the course.") {
		t.Errorf("lesson 0 text = %q", l0.Text)
	}
	if strings.Contains(l0.Text, "Lesson Link:") {
		t.Errorf("lesson link leaked into text: %q", l0.Text)
	}

	l1 := doc.Lessons[1]
	if l1.Number != 1 || l1.Title != "Why MCP" {
		t.Errorf("lesson 1 = %+v", l1)
	}
	if l1.Link != "" {
		t.Errorf("lesson 1 link = %q, want empty", l1.Link)
	}
	if !strings.Contains(l1.Text, "bespoke integrations") {
		t.Errorf("lesson 1 text = %q", l1.Text)
	}
}

func TestParse_PreambleWithoutLessons(t *testing.T) {
	doc, err := Parse(strings.NewReader("Course Title: Plain\n\nJust some text.\nMore text.\n"))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if doc.Title != "Plain" {
		t.Errorf("Title = %q", doc.Title)
	}
	if len(doc.Lessons) != 0 {
		t.Errorf("len(Lessons) = %d, want 0", len(doc.Lessons))
	}
	if !strings.Contains(doc.Preamble, "Just some text.") {
		t.Errorf("Preamble = %q", doc.Preamble)
	}
}

func TestParse_PreambleBeforeFirstLesson(t *testing.T) {
	doc, err := Parse(strings.NewReader("Course Title: X\n\nOverview paragraph.\n\nLesson 1: Start\nBody.\n"))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if doc.Preamble != "Overview paragraph." {
		t.Errorf("Preamble = %q", doc.Preamble)
	}
	if len(doc.Lessons) != 1 || doc.Lessons[0].Text != "Body." {
		t.Errorf("Lessons = %+v", doc.Lessons)
	}
}

func TestParse_HeaderLikeLinesInBody(t *testing.T) {
	in := "Course Title: X\n\nLesson 1: A\nThe line Course Title: fake is content here.\n"
	doc, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if doc.Title != "X" {
		t.Errorf("Title = %q", doc.Title)
	}
	if !strings.Contains(doc.Lessons[0].Text, "Course Title: fake") {
		t.Errorf("body header-like line lost: %q", doc.Lessons[0].Text)
	}
}

func TestParseFile_FallbackTitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "untitled_course.txt")
	if err := os.WriteFile(path, []byte("Some content without headers.\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() = %v", err)
	}
	if doc.Title != "untitled_course" {
		t.Errorf("Title = %q, want file name fallback", doc.Title)
	}
}
