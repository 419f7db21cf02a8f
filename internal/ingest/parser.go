// Package ingest turns course script files into catalog entries and indexed
// content chunks.
//
// Expected document layout:
//
//	Course Title: MCP: Build Rich-Context AI Apps
//	Course Link: https://example.com/mcp
//	Course Instructor: Elie Schoppik
//
//	Lesson 0: Introduction
//	Lesson Link: https://example.com/mcp/lesson/0
//	lesson text...
//
//	Lesson 1: Why MCP
//	more text...
//
// Header lines are optional; a missing title falls back to the file name.
// Text before the first lesson marker is kept as preamble content.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Document is a parsed course script.
type Document struct {
	Title      string
	Link       string
	Instructor string
	Preamble   string // content before the first lesson marker
	Lessons    []LessonContent
}

// LessonContent is one lesson's metadata and raw text.
type LessonContent struct {
	Number int
	Title  string
	Link   string
	Text   string
}

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Parse reads a course script from r.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}

	var (
		current *LessonContent
		body    strings.Builder
	)

	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(body.String())
			doc.Lessons = append(doc.Lessons, *current)
			body.Reset()
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		// Header lines only count at the top of the file.
		if current == nil && body.Len() == 0 {
			switch {
			case strings.HasPrefix(trimmed, "Course Title:"):
				doc.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
				continue
			case strings.HasPrefix(trimmed, "Course Link:"):
				doc.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
				continue
			case strings.HasPrefix(trimmed, "Course Instructor:"):
				doc.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
				continue
			}
		}

		if m := lessonMarker.FindStringSubmatch(trimmed); m != nil {
			if current == nil {
				doc.Preamble = strings.TrimSpace(body.String())
				body.Reset()
			}
			flush()

			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("bad lesson number in %q: %w", trimmed, err)
			}
			current = &LessonContent{Number: n, Title: strings.TrimSpace(m[2])}
			continue
		}

		if current != nil && current.Link == "" && body.Len() == 0 &&
			strings.HasPrefix(trimmed, "Lesson Link:") {
			current.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			continue
		}

		// Blank lines before any content don't end the header block.
		if current == nil && body.Len() == 0 && trimmed == "" {
			continue
		}

		body.WriteString(line)
		body.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	if current == nil {
		doc.Preamble = strings.TrimSpace(body.String())
	}
	flush()

	return doc, nil
}

// ParseFile parses a course script from disk. A missing Course Title header
// falls back to the file name without extension.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path) // #nosec G304 -- ingest paths come from the operator
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if doc.Title == "" {
		base := filepath.Base(path)
		doc.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return doc, nil
}
