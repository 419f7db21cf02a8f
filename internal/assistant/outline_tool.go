package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/studyowl/studyowl/internal/catalog"
	"github.com/studyowl/studyowl/internal/log"
)

// OutlineToolName is the Genkit tool name for course outline lookup.
const OutlineToolName = "get_course_outline"

// OutlineInput defines the outline tool's schema as the model sees it.
type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title to get the outline for (partial matches work, e.g. 'MCP')"`
}

// CourseCatalog resolves fuzzy course names and loads full outlines.
// Implemented by catalog.Store.
type CourseCatalog interface {
	Resolve(ctx context.Context, name string) (catalog.Course, error)
	Outline(ctx context.Context, title string) (catalog.Outline, error)
}

// OutlineTool renders a course's metadata and full lesson list.
type OutlineTool struct {
	catalog CourseCatalog
	def     ai.Tool
	logger  log.Logger
}

// NewOutlineTool creates the outline tool and registers its schema with
// Genkit.
func NewOutlineTool(g *genkit.Genkit, cat CourseCatalog, logger log.Logger) *OutlineTool {
	t := &OutlineTool{catalog: cat, logger: logger}
	t.def = genkit.DefineTool(g, OutlineToolName,
		"Get the complete outline of a course including title, link, instructor and all lessons",
		func(tctx *ai.ToolContext, input OutlineInput) (string, error) {
			text, _ := t.run(tctx, input)
			return text, nil
		})
	return t
}

// Name implements Tool.
func (t *OutlineTool) Name() string { return OutlineToolName }

// Definition implements Tool.
func (t *OutlineTool) Definition() ai.Tool { return t.def }

// Execute implements Tool. Failures surface as text.
func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (string, []Source) {
	input, err := decodeArgs[OutlineInput](args)
	if err != nil {
		return err.Error(), nil
	}
	return t.run(ctx, input)
}

func (t *OutlineTool) run(ctx context.Context, input OutlineInput) (string, []Source) {
	course, err := t.catalog.Resolve(ctx, input.CourseName)
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Sprintf("No course found matching '%s'", input.CourseName), nil
	}
	if err != nil {
		return err.Error(), nil
	}

	outline, err := t.catalog.Outline(ctx, course.Title)
	if err != nil {
		// Resolution succeeded but the metadata lookup did not, which
		// means the index is inconsistent.
		t.logger.Warn("outline lookup failed after resolution",
			"course", course.Title, "error", err)
		return fmt.Sprintf("Could not retrieve outline for '%s'", course.Title), nil
	}

	lines := []string{fmt.Sprintf("Course: %s", outline.Course.Title)}
	if outline.Course.Link != "" {
		lines = append(lines, fmt.Sprintf("Course Link: %s", outline.Course.Link))
	}
	if outline.Course.Instructor != "" {
		lines = append(lines, fmt.Sprintf("Instructor: %s", outline.Course.Instructor))
	}
	lines = append(lines, fmt.Sprintf("Total Lessons: %d", len(outline.Lessons)))
	for _, l := range outline.Lessons {
		line := fmt.Sprintf("%d. %s", l.Number, l.Title)
		if l.Link != "" {
			line += fmt.Sprintf(" - %s", l.Link)
		}
		lines = append(lines, line)
	}

	source := Source{Text: outline.Course.Title, URL: outline.Course.Link}
	return strings.Join(lines, "\n"), []Source{source}
}
