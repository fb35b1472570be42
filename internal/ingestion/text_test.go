package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	input := "Line    with    multiple    spaces"
	assert.Equal(t, "Line with multiple spaces", CleanText(input))
}

func TestCleanText_DropsBlankLines(t *testing.T) {
	input := "Line 1\n\n\n  \n\nLine 2"
	assert.Equal(t, "Line 1\nLine 2", CleanText(input))
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	input := "Line 1\r\nLine 2\rLine 3\nLine 4"
	assert.Equal(t, "Line 1\nLine 2\nLine 3\nLine 4", CleanText(input))
}

func TestCleanText_NonBreakingSpaces(t *testing.T) {
	assert.Equal(t, "Jane Doe", CleanText("Jane\u00a0\u00a0Doe"))
}

func TestCleanText_EmptyInput(t *testing.T) {
	assert.Empty(t, CleanText(""))
	assert.Empty(t, CleanText("   \n  \n  "))
}

func TestCleanText_SpecialCharacters(t *testing.T) {
	input := "Test with émojis 🚀 and spéciàl chàracters"
	result := CleanText(input)

	assert.Contains(t, result, "émojis")
	assert.Contains(t, result, "🚀")
	assert.Contains(t, result, "spéciàl chàracters")
}
