package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/studyowl/studyowl/internal/catalog"
	"github.com/studyowl/studyowl/internal/knowledge"
	"github.com/studyowl/studyowl/internal/log"
)

// SearchToolName is the Genkit tool name for semantic content search.
const SearchToolName = "search_course_content"

// SearchInput defines the search tool's schema as the model sees it.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title (partial matches work, e.g. 'MCP', 'Introduction')"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 2, 3)"`
}

// CourseResolver maps fuzzy course names to cataloged courses.
// Implemented by catalog.Store.
type CourseResolver interface {
	Resolve(ctx context.Context, name string) (catalog.Course, error)
}

// ContentSearcher answers filtered semantic search over content chunks.
// Implemented by knowledge.Store.
type ContentSearcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// SearchTool answers content questions by semantic search over course chunks.
type SearchTool struct {
	catalog    CourseResolver
	knowledge  ContentSearcher
	maxResults int
	def        ai.Tool
	logger     log.Logger
}

// NewSearchTool creates the search tool and registers its schema with Genkit.
func NewSearchTool(g *genkit.Genkit, cat CourseResolver, know ContentSearcher, maxResults int, logger log.Logger) *SearchTool {
	t := &SearchTool{
		catalog:    cat,
		knowledge:  know,
		maxResults: maxResults,
		logger:     logger,
	}
	t.def = genkit.DefineTool(g, SearchToolName,
		"Search course materials with smart course name matching and lesson filtering",
		func(tctx *ai.ToolContext, input SearchInput) (string, error) {
			// Direct Genkit execution path; sources are reported only
			// through Execute, which the registry drives.
			text, _ := t.run(tctx, input)
			return text, nil
		})
	return t
}

// Name implements Tool.
func (t *SearchTool) Name() string { return SearchToolName }

// Definition implements Tool.
func (t *SearchTool) Definition() ai.Tool { return t.def }

// Execute implements Tool. Failures surface as text.
func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (string, []Source) {
	input, err := decodeArgs[SearchInput](args)
	if err != nil {
		return err.Error(), nil
	}
	return t.run(ctx, input)
}

func (t *SearchTool) run(ctx context.Context, input SearchInput) (string, []Source) {
	opts := []knowledge.SearchOption{knowledge.WithLimit(t.maxResults)}

	if input.CourseName != "" {
		course, err := t.catalog.Resolve(ctx, input.CourseName)
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Sprintf("No course found matching '%s'", input.CourseName), nil
		}
		if err != nil {
			return err.Error(), nil
		}
		opts = append(opts, knowledge.WithCourse(course.ID))
	}
	if input.LessonNumber != nil {
		opts = append(opts, knowledge.WithLesson(*input.LessonNumber))
	}

	results, err := t.knowledge.Search(ctx, input.Query, opts...)
	if err != nil {
		return err.Error(), nil
	}

	if len(results) == 0 {
		return emptyResultMessage(input), nil
	}

	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		label := r.CourseTitle
		if r.LessonNumber != nil {
			label = fmt.Sprintf("%s - Lesson %d", r.CourseTitle, *r.LessonNumber)
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, r.Content))
		sources = append(sources, Source{Text: label, URL: r.Link})
	}

	return strings.Join(blocks, "\n\n"), sources
}

// emptyResultMessage phrases a no-hit result, naming whichever filters were
// present, course before lesson.
func emptyResultMessage(input SearchInput) string {
	var sb strings.Builder
	sb.WriteString("No relevant content found")
	if input.CourseName != "" {
		fmt.Fprintf(&sb, " in course '%s'", input.CourseName)
	}
	if input.LessonNumber != nil {
		fmt.Fprintf(&sb, " in lesson %d", *input.LessonNumber)
	}
	sb.WriteString(".")
	return sb.String()
}
