package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "heatmap-opacity=0.5 heatmap-radius=20", 20, "heatmap-opacity=0..."},
		{"newlines folded", "setup failed:\n\tsource missing", 40, "setup failed: source missing"},
		{"unicode safe", "résumé résumé", 8, "résum..."},
		{"clamped max length", "abcdef", 1, "a..."},
		{"empty", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.maxLen))
		})
	}
}
