package app

import (
	"context"
	"testing"

	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/log"
)

func TestProvideModelName(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{config.ProviderGemini, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{config.ProviderOpenAI, "gpt-4o", "openai/gpt-4o"},
		{config.ProviderOllama, "llama3.3", "ollama/llama3.3"},
		{"", "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
	}

	for _, tt := range tests {
		cfg := &config.Config{Provider: tt.provider, ModelName: tt.model}
		if got := provideModelName(cfg); got != tt.want {
			t.Errorf("provideModelName(%q, %q) = %q, want %q",
				tt.provider, tt.model, got, tt.want)
		}
	}
}

func TestProvideOtelShutdown_Disabled(t *testing.T) {
	cfg := &config.Config{}

	cleanup := provideOtelShutdown(context.Background(), cfg, log.NewNop())
	if cleanup == nil {
		t.Fatal("cleanup = nil")
	}
	// No exporter was created; cleanup must be a no-op.
	cleanup()
}

func TestClose_NilResources(t *testing.T) {
	a := &App{Logger: log.NewNop()}
	if err := a.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
