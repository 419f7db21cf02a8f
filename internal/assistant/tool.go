package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// Tool is one model-invocable capability.
//
// Execute is total: every failure comes back as descriptive text, never as an
// error. The model cannot receive a raised error, only text, so conversion
// happens at this boundary. Tools are stateless; returned sources belong to
// the caller.
type Tool interface {
	// Name is the unique tool name the model calls.
	Name() string

	// Definition is the Genkit tool whose schema is offered to the model.
	Definition() ai.Tool

	// Execute runs the tool with the model-supplied arguments.
	Execute(ctx context.Context, args map[string]any) (text string, sources []Source)
}

// decodeArgs converts a model-supplied argument mapping into a typed input
// struct via JSON round-trip, matching the schema the model was shown.
func decodeArgs[T any](args map[string]any) (T, error) {
	var v T
	data, err := json.Marshal(args)
	if err != nil {
		return v, fmt.Errorf("encoding tool arguments: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decoding tool arguments: %w", err)
	}
	return v, nil
}

// argsAsMap normalizes a tool request input to a map. The model layer decodes
// JSON arguments to map[string]any; anything else yields an empty map so
// dispatch stays total.
func argsAsMap(input any) map[string]any {
	if m, ok := input.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
