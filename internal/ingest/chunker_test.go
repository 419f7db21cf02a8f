package ingest

import (
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "basic sentences",
			in:   "First one. Second one! Third one?",
			want: []string{"First one.", "Second one!", "Third one?"},
		},
		{
			name: "collapses internal whitespace",
			in:   "Spread  over\nlines. Next.",
			want: []string{"Spread over lines.", "Next."},
		},
		{
			name: "trailing fragment kept",
			in:   "Complete sentence. trailing fragment",
			want: []string{"Complete sentence.", "trailing fragment"},
		},
		{
			name: "closing quote after period",
			in:   `He said "done." Then left.`,
			want: []string{`He said "done."`, "Then left."},
		},
		{
			name: "empty input",
			in:   "   \n  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d sentences %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunkText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := ChunkText("One. Two. Three.", 800, 100)
		if len(chunks) != 1 {
			t.Fatalf("len(chunks) = %d, want 1", len(chunks))
		}
		if chunks[0] != "One. Two. Three." {
			t.Errorf("chunk = %q", chunks[0])
		}
	})

	t.Run("respects size limit", func(t *testing.T) {
		var sb strings.Builder
		for range 50 {
			sb.WriteString("This sentence is about forty characters. ")
		}
		chunks := ChunkText(sb.String(), 200, 50)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(chunks))
		}
		for i, c := range chunks {
			if len(c) > 200 {
				t.Errorf("chunk[%d] length %d exceeds size", i, len(c))
			}
		}
	})

	t.Run("overlap repeats trailing sentences", func(t *testing.T) {
		text := "Alpha sentence one. Beta sentence two. Gamma sentence three. Delta sentence four."
		chunks := ChunkText(text, 45, 25)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %v", chunks)
		}
		// Each follow-up chunk starts with a sentence already seen.
		for i := 1; i < len(chunks); i++ {
			first := strings.SplitN(chunks[i], ". ", 2)[0]
			if !strings.Contains(chunks[i-1], first) {
				t.Errorf("chunk[%d] does not overlap previous: %q / %q", i, chunks[i-1], chunks[i])
			}
		}
	})

	t.Run("oversized sentence kept whole", func(t *testing.T) {
		long := strings.Repeat("word ", 100) + "end."
		chunks := ChunkText(long, 50, 10)
		if len(chunks) != 1 {
			t.Fatalf("len(chunks) = %d, want 1", len(chunks))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if chunks := ChunkText("", 800, 100); chunks != nil {
			t.Errorf("chunks = %v, want nil", chunks)
		}
	})

	t.Run("always makes progress", func(t *testing.T) {
		// Overlap nearly as large as size is the worst case for loops.
		text := strings.Repeat("Tiny one. ", 200)
		chunks := ChunkText(text, 30, 29)
		if len(chunks) == 0 || len(chunks) > 400 {
			t.Fatalf("suspicious chunk count %d", len(chunks))
		}
	})
}
