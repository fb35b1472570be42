package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTakeUpTo(t *testing.T) {
	lines := []string{"Skills", "Go", "Python", "x", "Rust", "Languages", "English"}
	notTiny := Keep(func(s string) bool { return len(s) >= 2 })

	tests := []struct {
		name string
		w    Window
		want []string
	}{
		{"stops at stop word", Window{Start: 1, Size: 15, Stop: NewStopWords("Languages")}, []string{"Go", "Python", "Rust"}},
		{"window bound", Window{Start: 1, Size: 2}, []string{"Go", "Python"}},
		{"limit", Window{Start: 1, Size: 15, Limit: 1}, []string{"Go"}},
		{"start past end", Window{Start: 20, Size: 5}, nil},
		{"negative start", Window{Start: NotFound, Size: 5}, nil},
		{"no stop words reads to end", Window{Start: 5, Size: 15}, []string{"Languages", "English"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TakeUpTo(lines, tt.w, notTiny))
		})
	}
}

func TestStopWords_Folded(t *testing.T) {
	exact := NewStopWords("Education")
	folded := NewFoldedStopWords("Education")

	assert.True(t, exact.Contains("Education"))
	assert.False(t, exact.Contains("EDUCATION"))
	assert.True(t, folded.Contains("EDUCATION"))
	assert.False(t, StopWords{}.Contains("Education"))
}

func TestItemStatus_Icon(t *testing.T) {
	assert.Equal(t, "✅", ItemSuccess.Icon())
	assert.Equal(t, "⚠️", ItemPartial.Icon())
	assert.Equal(t, "❌", ItemFailed.Icon())
	assert.Equal(t, "⏳", ItemPending.Icon())
}
