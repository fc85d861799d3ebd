package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "trims and dedupes case-insensitively",
			input:    []string{"Grant", " grant ", "Bootcamp"},
			expected: []string{"Grant", "Bootcamp"},
		},
		{
			name:     "keeps first occurrence casing",
			input:    []string{"fellowship", "Fellowship", "FELLOWSHIP"},
			expected: []string{"fellowship"},
		},
		{
			name:     "drops empty and whitespace-only tags",
			input:    []string{"", "  ", "Credits", "\t"},
			expected: []string{"Credits"},
		},
		{
			name:     "preserves first-seen order",
			input:    []string{"Funding", "Grant", "funding", "Scholarship"},
			expected: []string{"Funding", "Grant", "Scholarship"},
		},
		{
			name:     "nil input yields empty slice",
			input:    nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	input := []string{" Grant ", "Grant"}
	Normalize(input)
	assert.Equal(t, []string{" Grant ", "Grant"}, input)
}
