package assistant_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/studyowl/studyowl/internal/assistant"
	"github.com/studyowl/studyowl/internal/log"
	"github.com/studyowl/studyowl/internal/testutil"
)

// recordingDispatcher implements assistant.Dispatcher with canned output.
type recordingDispatcher struct {
	mu     sync.Mutex
	refs   []ai.ToolRef
	output string
	names  []string
	args   []map[string]any
}

func (d *recordingDispatcher) Refs() []ai.ToolRef { return d.refs }

func (d *recordingDispatcher) Dispatch(_ context.Context, name string, args map[string]any) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	d.args = append(d.args, args)
	return d.output
}

type generatorEnv struct {
	gen  *assistant.Generator
	mock *testutil.MockLLM
	disp *recordingDispatcher
}

func newGeneratorEnv(t *testing.T) *generatorEnv {
	t.Helper()
	g := genkit.Init(context.Background())

	mock := testutil.NewMockLLM("fallback answer")
	mock.Register(g)

	// A real registered tool so the mock observes schemas being offered.
	searchRef := genkit.DefineTool(g, "search_course_content", "test search",
		func(_ *ai.ToolContext, _ struct{}) (string, error) { return "", nil })
	outlineRef := genkit.DefineTool(g, "get_course_outline", "test outline",
		func(_ *ai.ToolContext, _ struct{}) (string, error) { return "", nil })

	return &generatorEnv{
		gen:  assistant.NewGenerator(g, "mock/test-model", log.NewNop()),
		mock: mock,
		disp: &recordingDispatcher{
			refs:   []ai.ToolRef{searchRef, outlineRef},
			output: "tool output",
		},
	}
}

func toolRequest(ref, name string, input map[string]any) *ai.ToolRequest {
	return &ai.ToolRequest{Ref: ref, Name: name, Input: input}
}

func TestGenerate_EarlyExit(t *testing.T) {
	env := newGeneratorEnv(t)
	env.mock.EnqueueText("direct answer")

	answer, err := env.gen.Generate(context.Background(), "what is 2+2?", "", env.disp)
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if answer != "direct answer" {
		t.Errorf("answer = %q, want model text unchanged", answer)
	}
	if n := len(env.mock.Calls()); n != 1 {
		t.Errorf("model calls = %d, want 1", n)
	}
	if len(env.disp.names) != 0 {
		t.Errorf("dispatches = %v, want none", env.disp.names)
	}
}

func TestGenerate_RoundBound(t *testing.T) {
	env := newGeneratorEnv(t)
	// The model asks for tools on every tool-bearing call.
	env.mock.EnqueueToolCalls(toolRequest("r1", "search_course_content", map[string]any{"query": "a"}))
	env.mock.EnqueueToolCalls(toolRequest("r2", "search_course_content", map[string]any{"query": "b"}))

	answer, err := env.gen.Generate(context.Background(), "keep digging", "", env.disp)
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if answer != "fallback answer" {
		t.Errorf("answer = %q, want forced terminal text", answer)
	}

	calls := env.mock.Calls()
	if len(calls) != 3 {
		t.Fatalf("model calls = %d, want maxToolRounds+1 = 3", len(calls))
	}
	if calls[0].NumTools == 0 || calls[1].NumTools == 0 {
		t.Errorf("tool-bearing calls lacked tool schemas: %+v", calls[:2])
	}
	if calls[2].NumTools != 0 {
		t.Errorf("final call offered %d tools, want 0 (forced terminal)", calls[2].NumTools)
	}
	if len(env.disp.names) != 2 {
		t.Errorf("dispatches = %d, want 2", len(env.disp.names))
	}
}

func TestGenerate_NoDispatcherDegradesGracefully(t *testing.T) {
	env := newGeneratorEnv(t)
	env.mock.EnqueueToolCalls(toolRequest("r1", "search_course_content", nil))

	_, err := env.gen.Generate(context.Background(), "needs tools", "", nil)
	if err != nil {
		t.Fatalf("Generate() = %v, want graceful return", err)
	}
	if n := len(env.mock.Calls()); n != 1 {
		t.Errorf("model calls = %d, want 1", n)
	}
}

func TestGenerate_ModelFailurePropagates(t *testing.T) {
	env := newGeneratorEnv(t)
	boom := errors.New("model unreachable")
	env.mock.FailWith(boom)

	_, err := env.gen.Generate(context.Background(), "anything", "", env.disp)
	if err == nil || !strings.Contains(err.Error(), "model unreachable") {
		t.Fatalf("Generate() = %v, want wrapped model error", err)
	}
}

func TestGenerate_ToolResultsFedBack(t *testing.T) {
	env := newGeneratorEnv(t)
	env.mock.EnqueueToolCalls(toolRequest("r1", "search_course_content",
		map[string]any{"query": "lesson 1", "lesson_number": float64(1)}))
	env.mock.EnqueueText("synthesized answer")

	answer, err := env.gen.Generate(context.Background(), "what is in lesson 1?", "", env.disp)
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if answer != "synthesized answer" {
		t.Errorf("answer = %q", answer)
	}

	if len(env.disp.args) != 1 {
		t.Fatalf("dispatches = %d, want 1", len(env.disp.args))
	}
	if env.disp.args[0]["query"] != "lesson 1" {
		t.Errorf("dispatched args = %v", env.disp.args[0])
	}

	calls := env.mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("model calls = %d, want 2", len(calls))
	}
	// Second call carries the model turn and the tool-result turn on top
	// of the first call's messages.
	if calls[1].NumMessages != calls[0].NumMessages+2 {
		t.Errorf("second call messages = %d, first = %d, want +2",
			calls[1].NumMessages, calls[0].NumMessages)
	}
}

func TestGenerate_SequentialToolScenario(t *testing.T) {
	// Search in round 1 informs an outline lookup in round 2; the round
	// budget is then spent and the final tools-disabled call answers.
	env := newGeneratorEnv(t)
	env.mock.EnqueueToolCalls(toolRequest("r1", "search_course_content", map[string]any{"query": "lesson 1"}))
	env.mock.EnqueueToolCalls(toolRequest("r2", "get_course_outline", map[string]any{"course_name": "MCP"}))
	env.mock.EnqueueText("lesson 1 covers the basics")

	answer, err := env.gen.Generate(context.Background(), "What is in lesson 1?", "", env.disp)
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if answer != "lesson 1 covers the basics" {
		t.Errorf("answer = %q, want terminal response text", answer)
	}
	if n := len(env.mock.Calls()); n != 3 {
		t.Errorf("model calls = %d, want 3", n)
	}
	if len(env.disp.names) != 2 ||
		env.disp.names[0] != "search_course_content" ||
		env.disp.names[1] != "get_course_outline" {
		t.Errorf("dispatches = %v", env.disp.names)
	}
}

func TestGenerate_MultipleToolCallsInOneRound(t *testing.T) {
	env := newGeneratorEnv(t)
	env.mock.EnqueueToolCalls(
		toolRequest("r1", "search_course_content", map[string]any{"query": "a"}),
		toolRequest("r2", "get_course_outline", map[string]any{"course_name": "b"}),
	)
	env.mock.EnqueueText("combined answer")

	answer, err := env.gen.Generate(context.Background(), "compare", "", env.disp)
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if answer != "combined answer" {
		t.Errorf("answer = %q", answer)
	}
	// Both requests from the single round execute, in request order.
	if len(env.disp.names) != 2 ||
		env.disp.names[0] != "search_course_content" ||
		env.disp.names[1] != "get_course_outline" {
		t.Errorf("dispatches = %v", env.disp.names)
	}
}

func TestGenerate_HistoryInSystemInstruction(t *testing.T) {
	env := newGeneratorEnv(t)
	env.mock.EnqueueText("with context")

	history := "User: earlier question\nAssistant: earlier answer"
	if _, err := env.gen.Generate(context.Background(), "follow-up", history, env.disp); err != nil {
		t.Fatalf("Generate() = %v", err)
	}

	calls := env.mock.Calls()
	if !strings.Contains(calls[0].System, "Previous conversation:") ||
		!strings.Contains(calls[0].System, "earlier question") {
		t.Errorf("system instruction missing history block: %q", calls[0].System)
	}
}

func TestGenerate_NoHistoryOmitsBlock(t *testing.T) {
	env := newGeneratorEnv(t)
	env.mock.EnqueueText("fresh")

	if _, err := env.gen.Generate(context.Background(), "hello", "", env.disp); err != nil {
		t.Fatalf("Generate() = %v", err)
	}

	if strings.Contains(env.mock.Calls()[0].System, "Previous conversation:") {
		t.Error("history block present without history")
	}
}
