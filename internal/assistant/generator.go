package assistant

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/studyowl/studyowl/internal/log"
)

// maxToolRounds caps tool-bearing model calls per query. After the budget is
// spent one final tools-disabled call forces a terminal answer, so a query
// costs at most maxToolRounds+1 model calls.
const maxToolRounds = 2

const systemPrompt = `You are an AI assistant specialized in course materials and educational content with access to tools for searching course information.

Tool Usage Guidelines:
- **Course Outline Tool** (get_course_outline): Use for questions about:
  - Course structure or organization
  - What lessons are in a course
  - How many lessons a course has
  - Course metadata (title, instructor, link)
  - Complete lesson listings
  - Returns: Course title, course link, instructor, and full lesson list with numbers and titles

- **Content Search Tool** (search_course_content): Use for questions about:
  - Specific concepts or topics within course materials
  - Detailed educational content
  - Answers to technical questions from course lessons
  - Returns: Relevant content excerpts from courses/lessons

- **Sequential Tool Usage**:
  - You may use tools across up to 2 rounds to gather comprehensive information
  - Use multiple rounds when you need information from one tool to inform another tool call
  - Example: get a course outline first to identify lesson titles, then search for content based on the lesson information
  - After gathering information, synthesize into a comprehensive answer

- Synthesize tool results into accurate, fact-based responses
- If no results are found, state this clearly without offering alternatives

Response Protocol:
- **General knowledge questions**: Answer using existing knowledge without using tools
- **Course outline/structure questions**: Use the outline tool first, then answer, including the course title, course link, and complete lesson list in a well-formatted manner
- **Course content questions**: Use the search tool first, then answer
- **No meta-commentary**: Provide direct answers only; do not mention tool usage or search results

All responses must be:
1. **Brief, concise and focused** - Get to the point quickly
2. **Educational** - Maintain instructional value
3. **Clear** - Use accessible language
4. **Example-supported** - Include relevant examples when they aid understanding
Provide only the direct answer to what was asked.`

// Dispatcher is the tool-execution capability the loop hands each tool
// request to. Dispatch is total: it returns text for any name.
type Dispatcher interface {
	Refs() []ai.ToolRef
	Dispatch(ctx context.Context, name string, args map[string]any) string
}

// Generator drives the bounded tool-use loop against a Genkit model.
type Generator struct {
	g         *genkit.Genkit
	modelName string
	logger    log.Logger
}

// NewGenerator creates a generator bound to a model by name
// (e.g. "googleai/gemini-2.5-flash").
func NewGenerator(g *genkit.Genkit, modelName string, logger log.Logger) *Generator {
	return &Generator{g: g, modelName: modelName, logger: logger}
}

// Generate answers query, using tools from dispatcher for at most
// maxToolRounds rounds.
//
// Termination:
//   - the model answers without requesting tools: its text returns as-is
//   - dispatcher is nil but the model requests tools: the raw text returns
//     (the loop cannot execute anything)
//   - the round budget is spent: one final tools-disabled call forces an
//     answer
//
// Model-call failures propagate to the caller; dispatcher failures never do,
// because Dispatch converts them to text the model reasons over.
func (gen *Generator) Generate(ctx context.Context, query, history string, dispatcher Dispatcher) (string, error) {
	system := systemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", systemPrompt, history)
	}

	messages := []*ai.Message{ai.NewUserTextMessage(query)}

	for round := 0; round <= maxToolRounds; round++ {
		opts := []ai.GenerateOption{
			ai.WithModelName(gen.modelName),
			ai.WithSystem(system),
			ai.WithMessages(messages...),
			// Tool requests come back to this loop instead of being
			// executed inside Genkit; the round budget is enforced here.
			ai.WithReturnToolRequests(true),
		}

		toolsEnabled := dispatcher != nil && round < maxToolRounds
		if toolsEnabled {
			opts = append(opts,
				ai.WithTools(dispatcher.Refs()...),
				ai.WithToolChoice(ai.ToolChoiceAuto),
			)
		}

		resp, err := genkit.Generate(ctx, gen.g, opts...)
		if err != nil {
			return "", fmt.Errorf("model call failed (round %d): %w", round+1, err)
		}

		requests := resp.ToolRequests()
		if len(requests) == 0 || !toolsEnabled {
			return resp.Text(), nil
		}

		messages = append(messages, resp.Message)

		// One tool-role turn carries all results for the round. Genkit
		// correlates results to requests by Ref, so ordering is not
		// load-bearing; requests still execute in request order.
		parts := make([]*ai.Part, 0, len(requests))
		for _, req := range requests {
			output := dispatcher.Dispatch(ctx, req.Name, argsAsMap(req.Input))
			gen.logger.Debug("tool dispatched",
				"round", round+1, "tool", req.Name, "output_length", len(output))
			parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
				Ref:    req.Ref,
				Name:   req.Name,
				Output: output,
			}))
		}
		messages = append(messages, ai.NewMessage(ai.RoleTool, nil, parts...))
	}

	// Unreachable: the final iteration runs with tools disabled and always
	// returns.
	return "", fmt.Errorf("tool loop exited without a terminal answer")
}
